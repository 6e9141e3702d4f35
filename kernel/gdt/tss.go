package gdt

import (
	"gopheros/kernel"
	"unsafe"
)

const (
	// InterruptStackSlots is the number of entries in the interrupt stack table.
	InterruptStackSlots = 7

	// privilegeStackSlots is the number of RSPn entries; ring 3 has none.
	privilegeStackSlots = 3
)

var errInvalidPrivilegeLevel = &kernel.Error{Module: "gdt", Message: "no privilege stack slot for the requested level"}

// TaskState models the 104-byte 64-bit task state segment. 64-bit fields
// are stored as pairs of 32-bit words because the hardware layout places
// them at 4-byte aligned offsets.
type TaskState struct {
	reserved0       uint32
	privilegeStacks [privilegeStackSlots * 2]uint32
	reserved1       [2]uint32
	interruptStacks [InterruptStackSlots * 2]uint32
	reserved2       [2]uint32
	reserved3       uint16

	// ioMapBase is set past the end of the segment so that all I/O ports
	// are treated as if their permission bit is set.
	ioMapBase uint16
}

// NewTaskState returns an empty TaskState with no I/O permission bitmap.
func NewTaskState() TaskState {
	return TaskState{ioMapBase: uint16(unsafe.Sizeof(TaskState{}))}
}

// SetInterruptStack sets the stack pointer loaded by the CPU when an
// exception gate configured with IST entry index+1 fires. Index must be
// less than InterruptStackSlots.
func (ts *TaskState) SetInterruptStack(index int, top uintptr) {
	ts.interruptStacks[2*index] = uint32(uint64(top))
	ts.interruptStacks[2*index+1] = uint32(uint64(top) >> 32)
}

// InterruptStack returns the stack pointer stored at the given IST index.
func (ts *TaskState) InterruptStack(index int) uintptr {
	return uintptr(uint64(ts.interruptStacks[2*index]) | uint64(ts.interruptStacks[2*index+1])<<32)
}

// SetPrivilegeStack sets the stack pointer loaded by the CPU on a privilege
// level change to level. Only Ring0 to Ring2 have an entry; other levels
// yield an error.
func (ts *TaskState) SetPrivilegeStack(level PrivilegeLevel, top uintptr) *kernel.Error {
	if level >= privilegeStackSlots {
		return errInvalidPrivilegeLevel
	}

	ts.privilegeStacks[2*level] = uint32(uint64(top))
	ts.privilegeStacks[2*level+1] = uint32(uint64(top) >> 32)
	return nil
}

// PrivilegeStack returns the stack pointer used on a switch to level, or 0
// for levels without an entry.
func (ts *TaskState) PrivilegeStack(level PrivilegeLevel) uintptr {
	if level >= privilegeStackSlots {
		return 0
	}

	return uintptr(uint64(ts.privilegeStacks[2*level]) | uint64(ts.privilegeStacks[2*level+1])<<32)
}

// IOMapBase returns the offset of the I/O permission bitmap.
func (ts *TaskState) IOMapBase() uint16 {
	return ts.ioMapBase
}

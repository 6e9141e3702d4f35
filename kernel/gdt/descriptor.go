package gdt

import "unsafe"

// PrivilegeLevel describes a CPU protection ring.
type PrivilegeLevel uint8

const (
	// Ring0 is the most privileged level and is used by the kernel.
	Ring0 PrivilegeLevel = iota
	Ring1
	Ring2

	// Ring3 is the least privileged level and is used by user code.
	Ring3
)

// Descriptor bits (Intel SDM vol. 3A, 3.4.5).
const (
	flagAccessed    = uint64(1) << 40
	flagWritable    = uint64(1) << 41
	flagConforming  = uint64(1) << 42
	flagExecutable  = uint64(1) << 43
	flagUserSegment = uint64(1) << 44
	flagPresent     = uint64(1) << 47
	flagLongMode    = uint64(1) << 53
	flagDefaultSize = uint64(1) << 54
	flagGranularity = uint64(1) << 55

	dplShift  = 45
	dplMask   = uint64(3) << dplShift
	typeShift = 40
	typeMask  = uint64(0xf) << typeShift

	limitLowMask  = uint64(0xffff)
	limitHighMask = uint64(0xf) << 48

	// typeAvailableTSS marks a system descriptor as an available 64-bit TSS.
	typeAvailableTSS = uint64(0x9) << typeShift

	// commonSegment sets the bits shared by all flat kernel segments: a
	// present, accessed, 4K-granular segment with the maximum limit.
	commonSegment = flagUserSegment | flagPresent | flagWritable | flagAccessed |
		limitLowMask | limitHighMask | flagGranularity
)

// Descriptor is an entry of the global descriptor table. Code and data
// segment descriptors occupy a single 8-byte slot; system descriptors such as
// the TSS descriptor occupy two consecutive slots.
type Descriptor struct {
	low, high uint64
}

// KernelCodeSegment returns a descriptor for a present, executable, readable
// ring-0 64-bit code segment.
func KernelCodeSegment() Descriptor {
	return Descriptor{low: commonSegment | flagExecutable | flagLongMode}
}

// KernelDataSegment returns a descriptor for a present, writable ring-0 data
// segment.
func KernelDataSegment() Descriptor {
	return Descriptor{low: commonSegment | flagDefaultSize}
}

// TSSSegment returns a system descriptor that references tss. The TaskState
// must not move while the descriptor is loaded.
func TSSSegment(tss *TaskState) Descriptor {
	var (
		base  = uint64(uintptr(unsafe.Pointer(tss)))
		limit = uint64(unsafe.Sizeof(*tss) - 1)
		low   = flagPresent | typeAvailableTSS
	)

	low |= limit & limitLowMask
	low |= ((limit >> 16) & 0xf) << 48
	low |= (base & 0xffffff) << 16
	low |= ((base >> 24) & 0xff) << 56

	return Descriptor{low: low, high: base >> 32}
}

// System returns true for descriptors that occupy two table slots.
func (d Descriptor) System() bool { return d.low&flagUserSegment == 0 }

// Present returns true if the present bit is set.
func (d Descriptor) Present() bool { return d.low&flagPresent != 0 }

// Executable returns true for code segment descriptors.
func (d Descriptor) Executable() bool { return !d.System() && d.low&flagExecutable != 0 }

// Conforming returns true for conforming code segment descriptors.
func (d Descriptor) Conforming() bool { return d.Executable() && d.low&flagConforming != 0 }

// LongMode returns true if the descriptor describes a 64-bit code segment.
func (d Descriptor) LongMode() bool { return d.Executable() && d.low&flagLongMode != 0 }

// DPL returns the descriptor privilege level.
func (d Descriptor) DPL() PrivilegeLevel {
	return PrivilegeLevel((d.low & dplMask) >> dplShift)
}

// Type returns the 4-bit type field of the descriptor.
func (d Descriptor) Type() uint8 {
	return uint8((d.low & typeMask) >> typeShift)
}

// Base returns the base address encoded in the descriptor. For system
// descriptors this includes the upper 32 bits stored in the second slot.
func (d Descriptor) Base() uintptr {
	base := (d.low>>16)&0xffffff | ((d.low>>56)&0xff)<<24
	if d.System() {
		base |= d.high << 32
	}
	return uintptr(base)
}

// Limit returns the 20-bit segment limit.
func (d Descriptor) Limit() uint32 {
	return uint32(d.low&limitLowMask) | uint32((d.low&limitHighMask)>>48)<<16
}

// Raw returns the 8-byte table slots of the descriptor. For user segment
// descriptors high is always zero.
func (d Descriptor) Raw() (low, high uint64) {
	return d.low, d.high
}

// Selector identifies an entry in a descriptor table. Bits 0-1 hold the
// requested privilege level, bit 2 selects the LDT (always 0 here) and bits
// 3-15 hold the entry index.
type Selector uint16

// NullSelector references the null descriptor at index 0.
const NullSelector = Selector(0)

// NewSelector returns a GDT selector for the entry at index.
func NewSelector(index uint16, rpl PrivilegeLevel) Selector {
	return Selector(index<<3 | uint16(rpl&3))
}

// Index returns the table index referenced by the selector.
func (s Selector) Index() uint16 { return uint16(s) >> 3 }

// RPL returns the requested privilege level of the selector.
func (s Selector) RPL() PrivilegeLevel { return PrivilegeLevel(s & 3) }

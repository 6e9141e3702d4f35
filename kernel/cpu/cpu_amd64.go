// Package cpu exposes the privileged x86_64 instructions used during kernel
// bring-up. All functions without a body are implemented in assembly.
package cpu

// TablePointer is the pseudo-descriptor consumed by the LGDT and LIDT
// instructions: a 16-bit limit immediately followed by a 64-bit linear base
// address. The base is stored as four words so the struct has no padding and
// matches the 10-byte hardware layout.
type TablePointer struct {
	// Limit is the size of the table in bytes minus one.
	Limit uint16

	base [4]uint16
}

// NewTablePointer returns a TablePointer for a table of size bytes starting
// at base.
func NewTablePointer(base, size uintptr) TablePointer {
	p := TablePointer{Limit: uint16(size - 1)}
	for i := range p.base {
		p.base[i] = uint16(uint64(base) >> (16 * uint(i)))
	}
	return p
}

// Base returns the linear address of the table.
func (p TablePointer) Base() uintptr {
	var base uint64
	for i := range p.base {
		base |= uint64(p.base[i]) << (16 * uint(i))
	}
	return uintptr(base)
}

// EnableInterrupts enables interrupt handling.
func EnableInterrupts()

// DisableInterrupts disables interrupt handling.
func DisableInterrupts()

// Halt stops instruction execution.
func Halt()

// LoadGDT loads the global descriptor table register with the table described
// by ptr. The table itself must stay at the same address for as long as it
// is in use.
func LoadGDT(ptr *TablePointer)

// LoadIDT loads the interrupt descriptor table register with the table
// described by ptr.
func LoadIDT(ptr *TablePointer)

// SetSS loads the stack segment register with the given selector.
func SetSS(selector uint16)

// SetDS loads the data segment register with the given selector.
func SetDS(selector uint16)

// SetCS switches the code segment register to the given selector by
// performing a far return to the caller.
func SetCS(selector uint16)

// LoadTaskRegister loads the task register with the given TSS selector. The
// CPU marks the referenced TSS descriptor as busy; loading the same selector
// again raises a general protection fault.
func LoadTaskRegister(selector uint16)

// ReadCS returns the active code segment selector.
func ReadCS() uint16

// ReadTaskRegister returns the selector currently loaded in the task
// register.
func ReadTaskRegister() uint16

// PortWriteByte writes a uint8 value to the requested port.
func PortWriteByte(port uint16, val uint8)

// PortWriteDword writes a uint32 value to the requested port.
func PortWriteDword(port uint16, val uint32)

// PortReadByte reads a uint8 value from the requested port.
func PortReadByte(port uint16) uint8

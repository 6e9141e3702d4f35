// Package gate builds the interrupt descriptor table. Handlers are raw entry
// points (usually assembly stubs) that run directly on the stack selected by
// the CPU; the package does not dispatch to Go code.
package gate

import (
	"gopheros/kernel"
	"gopheros/kernel/cpu"
	"gopheros/kernel/sync"
	"unsafe"
)

// InterruptNumber describes an x86 interrupt/exception/trap slot.
type InterruptNumber uint8

const (
	// DivideByZero occurs when dividing any number by 0 using the DIV or
	// IDIV instruction.
	DivideByZero = InterruptNumber(0)

	// InvalidOpcode occurs when the CPU attempts to execute an invalid or
	// undefined instruction opcode.
	InvalidOpcode = InterruptNumber(6)

	// DoubleFault occurs when an unhandled exception occurs or when an
	// exception occurs within a running exception handler. It is also
	// raised when the CPU cannot push an exception frame because the
	// stack has been exhausted.
	DoubleFault = InterruptNumber(8)

	// InvalidTSS occurs when the TSS points to an invalid task segment
	// selector.
	InvalidTSS = InterruptNumber(10)

	// SegmentNotPresent occurs when the CPU attempts to load a segment
	// whose descriptor is not marked present.
	SegmentNotPresent = InterruptNumber(11)

	// StackSegmentFault occurs when attempting to push/pop from a
	// non-canonical stack address or when the stack base/limit (set in
	// GDT) checks fail.
	StackSegmentFault = InterruptNumber(12)

	// GPFException occurs when a general protection fault occurs.
	GPFException = InterruptNumber(13)

	// PageFaultException occurs when a page directory table (PDT) or one
	// of its entries is not present or when a privilege and/or RW
	// protection check fails.
	PageFaultException = InterruptNumber(14)
)

// MaxISTOffset is the largest interrupt stack table offset a gate can use.
// An offset of 0 means that the gate does not switch stacks.
const MaxISTOffset = 7

const (
	gatePresent       = 1 << 7
	gateTypeInterrupt = 0xe
)

// Gate is a 16-byte interrupt gate descriptor.
type Gate struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	flags      uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

// NewInterruptGate returns a present ring-0 interrupt gate that transfers
// control to entry using the code segment selector. A non-zero istOffset
// makes the CPU switch to the stack stored in IST entry istOffset of the
// active TSS before pushing the exception frame.
func NewInterruptGate(entry uintptr, selector uint16, istOffset uint8) Gate {
	return Gate{
		offsetLow:  uint16(entry),
		selector:   selector,
		ist:        istOffset & 0x7,
		flags:      gatePresent | gateTypeInterrupt,
		offsetMid:  uint16(uint64(entry) >> 16),
		offsetHigh: uint32(uint64(entry) >> 32),
	}
}

// Entry returns the handler address encoded in the gate.
func (g Gate) Entry() uintptr {
	return uintptr(uint64(g.offsetLow) | uint64(g.offsetMid)<<16 | uint64(g.offsetHigh)<<32)
}

// Selector returns the code segment selector used by the gate.
func (g Gate) Selector() uint16 { return g.selector }

// ISTOffset returns the interrupt stack table offset used by the gate.
func (g Gate) ISTOffset() uint8 { return g.ist }

// Present returns true if the gate is marked present.
func (g Gate) Present() bool { return g.flags&gatePresent != 0 }

type table [256]Gate

var (
	// idt is a package-level variable so its address never changes once
	// it has been loaded.
	idt        sync.Mutex[table]
	idtPointer cpu.TablePointer

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	loadIDTFn = cpu.LoadIDT
	readCSFn  = cpu.ReadCS

	errInvalidISTOffset = &kernel.Error{Module: "gate", Message: "IST offset out of range"}
)

// Init loads the interrupt descriptor table into the CPU. All gates are
// initially marked as non-present and must be explicitly enabled via a call
// to HandleInterrupt.
func Init() {
	g := idt.Lock()
	defer g.Release()

	tbl := g.Value()
	idtPointer = cpu.NewTablePointer(uintptr(unsafe.Pointer(tbl)), unsafe.Sizeof(*tbl))
	loadIDTFn(&idtPointer)
}

// HandleInterrupt installs entry as the handler for intNumber. The value of
// the istOffset argument specifies the offset in the interrupt stack table (if
// 0 then IST is not used). The gate uses the code segment that is active when
// HandleInterrupt is called, so it must run after the GDT has been installed.
func HandleInterrupt(intNumber InterruptNumber, istOffset uint8, entry uintptr) *kernel.Error {
	if istOffset > MaxISTOffset {
		return errInvalidISTOffset
	}

	g := idt.Lock()
	g.Value()[intNumber] = NewInterruptGate(entry, readCSFn(), istOffset)
	g.Release()

	return nil
}

// Lookup returns the gate installed for intNumber.
func Lookup(intNumber InterruptNumber) Gate {
	g := idt.Lock()
	defer g.Release()

	return g.Value()[intNumber]
}

// Package selftest contains in-kernel tests that exercise CPU state which
// cannot be reproduced by host-side unit tests. The tests report their result
// on the first serial port and terminate QEMU through its isa-debug-exit
// device (-device isa-debug-exit,iobase=0xf4,iosize=0x04).
package selftest

import (
	"gopheros/kernel"
	"gopheros/kernel/cpu"
	"gopheros/kernel/gate"
	"gopheros/kernel/gdt"
	"gopheros/kernel/kfmt"
)

// qemuExitPort is the I/O port of the isa-debug-exit device.
const qemuExitPort = 0xf4

// ExitCode is written to the isa-debug-exit device. QEMU exits with status
// (code << 1) | 1.
type ExitCode uint32

const (
	// ExitSuccess makes QEMU exit with status 33.
	ExitSuccess ExitCode = 0x10

	// ExitFailed makes QEMU exit with status 35.
	ExitFailed ExitCode = 0x11
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	handleInterruptFn = gate.HandleInterrupt
	gateInitFn        = gate.Init
	overflowStackFn   = overflowStack
	exitFn            = Exit

	errExecutionContinued = &kernel.Error{Module: "selftest", Message: "execution continued after stack overflow"}
)

// StackOverflow checks that a double fault caused by exhausting the kernel
// stack is handled on the dedicated fault stack instead of triple-faulting
// the CPU. It installs a double fault handler that uses IST entry
// gdt.DoubleFaultISTIndex and then recurses without bound.
//
// On success the handler prints "[ok]" and exits QEMU with ExitSuccess, so
// StackOverflow does not return. gdt.Init must have been called.
func StackOverflow() {
	kfmt.Printf("stack_overflow::stack_overflow...\t")

	if err := handleInterruptFn(gate.DoubleFault, gdt.DoubleFaultISTIndex+1, doubleFaultEntryAddr()); err != nil {
		fail(err)
		return
	}
	gateInitFn()

	overflowStackFn()

	fail(errExecutionContinued)
}

func fail(err *kernel.Error) {
	kfmt.Printf("[failed]\n")
	exitFn(ExitFailed)
	panic(err)
}

// Exit terminates QEMU with the given code. On real hardware or without the
// isa-debug-exit device the write is ignored and Exit returns.
func Exit(code ExitCode) {
	cpu.PortWriteDword(qemuExitPort, uint32(code))
}

// overflowStack calls itself until the stack pointer runs past the end of the
// kernel stack.
func overflowStack()

// doubleFaultEntryAddr returns the address of the assembly double fault
// handler.
func doubleFaultEntryAddr() uintptr

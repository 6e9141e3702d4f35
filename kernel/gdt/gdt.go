// Package gdt builds the kernel's global descriptor table and task state
// segment and installs them into the CPU.
//
// The table contains exactly two descriptors after the null entry: a 64-bit
// kernel code segment and a TSS descriptor. The TSS points interrupt stack
// table entry DoubleFaultISTIndex at a dedicated stack so double faults
// caused by a kernel stack overflow can still be handled.
package gdt

import (
	"gopheros/kernel"
	"gopheros/kernel/cpu"
	"gopheros/kernel/sync"
)

// DoubleFaultISTIndex is the interrupt stack table index reserved for the
// double fault handler. Exception gates encode IST entries starting at 1, so
// the gate for the double fault vector must use DoubleFaultISTIndex+1.
const DoubleFaultISTIndex = 0

// Selectors holds the selectors of the descriptors installed by Init.
type Selectors struct {
	Code Selector
	TSS  Selector
}

// environment groups the descriptor table with the selectors pointing into
// it and the pseudo-descriptor handed to LGDT.
type environment struct {
	table     Table
	selectors Selectors
	pointer   cpu.TablePointer
}

var (
	// Init runs before anything executes package initializers, so these
	// must stay zero values and receive their initializers at the call site.
	taskState sync.Once[TaskState]
	env       sync.Once[environment]

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	loadGDTFn          = cpu.LoadGDT
	setSSFn            = cpu.SetSS
	setDSFn            = cpu.SetDS
	setCSFn            = cpu.SetCS
	loadTaskRegisterFn = cpu.LoadTaskRegister
	readCSFn           = cpu.ReadCS
	readTaskRegisterFn = cpu.ReadTaskRegister

	errCodeSelectorMismatch = &kernel.Error{Module: "gdt", Message: "CS does not reference the kernel code descriptor"}
	errTaskRegisterMismatch = &kernel.Error{Module: "gdt", Message: "task register does not reference the TSS descriptor"}
)

func buildTaskState() TaskState {
	tss := NewTaskState()
	tss.SetInterruptStack(DoubleFaultISTIndex, faultStack.Top())
	return tss
}

func buildEnvironment() environment {
	var (
		e   environment
		err *kernel.Error
	)

	if e.selectors.Code, err = e.table.Append(KernelCodeSegment()); err != nil {
		panic(err)
	}

	if e.selectors.TSS, err = e.table.Append(TSSSegment(taskState.Get(buildTaskState))); err != nil {
		panic(err)
	}

	return e
}

// Init loads the kernel descriptor table and task state segment. It must be
// called exactly once, early during boot and before any exception handler
// that relies on the interrupt stack table is installed. Calling it again
// faults because the TSS descriptor is marked busy by the first call.
//
// The installation steps run in a fixed order:
//  1. load the descriptor table
//  2. zero SS and DS; the bootloader leaves selectors that are not valid in
//     the new table
//  3. switch CS to the kernel code selector
//  4. load the task register with the TSS selector
//
// Any failure is fatal and halts the kernel.
func Init() {
	e := env.Get(buildEnvironment)

	// The pseudo-descriptor lives next to the table so taking its address
	// does not cause a heap allocation.
	e.pointer = e.table.Pointer()
	loadGDTFn(&e.pointer)

	setSSFn(uint16(NullSelector))
	setDSFn(uint16(NullSelector))
	setCSFn(uint16(e.selectors.Code))
	loadTaskRegisterFn(uint16(e.selectors.TSS))

	if err := verify(e); err != nil {
		panic(err)
	}
}

// verify reads back the segment and task registers and checks that they
// reference the expected descriptors.
func verify(e *environment) *kernel.Error {
	if code := Selector(readCSFn()); code != e.selectors.Code || !e.table.Descriptor(code).Executable() {
		return errCodeSelectorMismatch
	}

	if tr := Selector(readTaskRegisterFn()); tr != e.selectors.TSS || !e.table.Descriptor(tr).System() {
		return errTaskRegisterMismatch
	}

	return nil
}

// KernelSelectors returns the selectors of the kernel code segment and the
// TSS. Exception gates must use the returned code selector.
func KernelSelectors() Selectors {
	return env.Get(buildEnvironment).selectors
}

// InterruptStackTop returns the stack pointer stored in the given interrupt
// stack table slot of the kernel TSS.
func InterruptStackTop(index int) uintptr {
	return taskState.Get(buildTaskState).InterruptStack(index)
}

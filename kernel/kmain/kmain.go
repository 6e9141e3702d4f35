package kmain

import (
	"gopheros/device/serial"
	"gopheros/kernel"
	"gopheros/kernel/gdt"
	"gopheros/kernel/kfmt"
	"gopheros/kernel/selftest"
	"gopheros/multiboot"
)

var (
	com1 = serial.NewPort(serial.COM1, 115200)

	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	consoleInitFn       = initConsole
	gdtInitFn           = gdt.Init
	stackOverflowTestFn = selftest.StackOverflow
	panicFn             = kfmt.Panic

	errKmainReturned = &kernel.Error{Module: "kmain", Message: "Kmain returned"}
)

// Kmain is the only Go symbol that is visible (exported) from the rt0
// initialization code. This function is invoked by the rt0 assembly code
// after switching to long mode and setting up a minimal g0 struct that allows
// Go code to run on the stack allocated by the assembly code.
//
// The rt0 code passes the address of the multiboot info payload provided by
// the bootloader as well as the physical addresses for the kernel start/end.
//
// Kmain is not expected to return. If it does, the rt0 code will halt the CPU.
//
//go:noinline
func Kmain(multibootInfoPtr, kernelStart, kernelEnd uintptr) {
	multiboot.SetInfoPtr(multibootInfoPtr)
	consoleInitFn()

	kfmt.Printf("[kmain] kernel image: %16x - %16x\n", kernelStart, kernelEnd)
	if name := multiboot.BootLoaderName(); name != nil {
		kfmt.Printf("[kmain] loaded by %s\n", name)
	}

	gdtInitFn()
	sel := gdt.KernelSelectors()
	kfmt.Printf("[gdt] cs=%x tr=%x double fault stack=%16x (%d pages)\n",
		uint16(sel.Code), uint16(sel.TSS), gdt.InterruptStackTop(gdt.DoubleFaultISTIndex),
		gdt.FaultStackSize.Pages(),
	)

	if multiboot.CmdLineHas("selftest", "stack_overflow") {
		stackOverflowTestFn()
	}

	kfmt.Printf("[kmain] bring-up complete\n")

	// Use kfmt.Panic instead of panic to prevent the compiler from
	// treating kfmt.Panic as dead-code and eliminating it.
	panicFn(errKmainReturned)
}

// initConsole sets up COM1 as the kfmt output sink. If the UART is missing,
// output stays in the kfmt early print buffer.
func initConsole() {
	if err := com1.DriverInit(&com1); err != nil {
		kfmt.Printf("[%s] %s\n", err.Module, err.Message)
		return
	}

	kfmt.SetOutputSink(&com1)
}

package gdt

import (
	"gopheros/kernel/mem"
	"unsafe"
)

// FaultStackSize is the size of the dedicated double fault stack.
const FaultStackSize = 20 * mem.Kb

// FaultStack is a statically allocated stack that the CPU switches to when a
// double fault occurs, so the handler can run even after the regular kernel
// stack has been exhausted. It is never resized or freed.
type FaultStack struct {
	buf [FaultStackSize]byte
}

// faultStack lives in .bss for the lifetime of the kernel.
var faultStack FaultStack

// Bottom returns the lowest address of the stack region.
func (s *FaultStack) Bottom() uintptr {
	return uintptr(unsafe.Pointer(&s.buf[0]))
}

// Top returns the aligned address one past the end of the stack region.
// Stacks grow downwards so this is the initial stack pointer.
func (s *FaultStack) Top() uintptr {
	return (s.Bottom() + uintptr(FaultStackSize)) &^ (mem.StackAlign - 1)
}

// Contains returns true if addr falls inside the stack region.
func (s *FaultStack) Contains(addr uintptr) bool {
	return addr >= s.Bottom() && addr < s.Bottom()+uintptr(FaultStackSize)
}

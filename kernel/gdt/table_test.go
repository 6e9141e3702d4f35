package gdt

import (
	"testing"
	"unsafe"
)

func TestTableAppend(t *testing.T) {
	var (
		table Table
		tss   = NewTaskState()
	)

	codeSel, err := table.Append(KernelCodeSegment())
	if err != nil {
		t.Fatal(err)
	}
	tssSel, err := table.Append(TSSSegment(&tss))
	if err != nil {
		t.Fatal(err)
	}

	if codeSel != 0x08 {
		t.Errorf("expected code selector 0x08; got %x", codeSel)
	}
	if tssSel != 0x10 {
		t.Errorf("expected TSS selector 0x10; got %x", tssSel)
	}
	if got := table.Len(); got != 4 {
		t.Errorf("expected table to use 4 slots; got %d", got)
	}

	if table.slots[0] != 0 {
		t.Error("expected slot 0 to hold the null descriptor")
	}

	if got := table.Descriptor(codeSel); got != KernelCodeSegment() {
		t.Errorf("expected code descriptor to round-trip; got %x", got)
	}
	if got := table.Descriptor(tssSel); got != TSSSegment(&tss) {
		t.Errorf("expected TSS descriptor to round-trip; got %x", got)
	}
	if got := table.Descriptor(tssSel + 8); got != (Descriptor{}) {
		t.Errorf("expected the upper half of the TSS descriptor not to decode as a descriptor; got %x", got)
	}
	if got := table.Descriptor(NewSelector(5, Ring0)); got.Present() {
		t.Error("expected out of range selector to yield a non-present descriptor")
	}
	if got := table.Descriptor(NullSelector); got.Present() {
		t.Error("expected null selector to yield a non-present descriptor")
	}

	ptr := table.Pointer()
	if ptr.Limit != 31 {
		t.Errorf("expected table limit 31; got %d", ptr.Limit)
	}
	if got, exp := ptr.Base(), uintptr(unsafe.Pointer(&table.slots[0])); got != exp {
		t.Errorf("expected table base %x; got %x", exp, got)
	}
}

func TestTableFull(t *testing.T) {
	var (
		table Table
		tss   = NewTaskState()
	)

	for i := 1; i < tableSlots; i++ {
		if _, err := table.Append(KernelCodeSegment()); err != nil {
			t.Fatalf("[slot %d] unexpected error: %v", i, err)
		}
	}

	if _, err := table.Append(KernelCodeSegment()); err != errTableFull {
		t.Fatalf("expected to get errTableFull; got %v", err)
	}

	// A system descriptor needs two free slots.
	var partial Table
	for i := 1; i < tableSlots-1; i++ {
		partial.Append(KernelCodeSegment())
	}
	if _, err := partial.Append(TSSSegment(&tss)); err != errTableFull {
		t.Fatalf("expected to get errTableFull for a TSS descriptor with one free slot; got %v", err)
	}
	if _, err := partial.Append(KernelDataSegment()); err != nil {
		t.Fatalf("expected the last slot to remain usable; got %v", err)
	}
}

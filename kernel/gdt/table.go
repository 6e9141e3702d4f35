package gdt

import (
	"gopheros/kernel"
	"gopheros/kernel/cpu"
	"unsafe"
)

// tableSlots is the number of 8-byte slots in a Table, including the null
// descriptor.
const tableSlots = 8

var errTableFull = &kernel.Error{Module: "gdt", Message: "descriptor table is full"}

// Table is a global descriptor table. Slot 0 always contains the null
// descriptor; descriptors are appended after it in order. The zero value is
// an empty table.
type Table struct {
	slots [tableSlots]uint64

	// used counts the slots after the null descriptor.
	used int

	// upper has bit n set when slot n holds the second half of a system
	// descriptor.
	upper uint8
}

// Append adds d to the table and returns a selector referencing it. It
// returns an error if the table has no room for the descriptor.
func (t *Table) Append(d Descriptor) (Selector, *kernel.Error) {
	index := t.used + 1

	if d.System() {
		if index+1 >= tableSlots {
			return NullSelector, errTableFull
		}
		t.slots[index], t.slots[index+1] = d.low, d.high
		t.upper |= 1 << uint(index+1)
		t.used += 2
	} else {
		if index >= tableSlots {
			return NullSelector, errTableFull
		}
		t.slots[index] = d.low
		t.used++
	}

	return NewSelector(uint16(index), d.DPL()), nil
}

// Descriptor returns the descriptor referenced by sel. Selectors that point
// past the populated slots or into the second half of a system descriptor
// yield a zero (non-present) descriptor.
func (t *Table) Descriptor(sel Selector) Descriptor {
	index := int(sel.Index())
	if index == 0 || index > t.used || t.upper&(1<<uint(index)) != 0 {
		return Descriptor{}
	}

	d := Descriptor{low: t.slots[index]}
	if d.System() {
		d.high = t.slots[index+1]
	}
	return d
}

// Len returns the number of populated slots including the null descriptor.
func (t *Table) Len() int {
	return t.used + 1
}

// Pointer returns the pseudo-descriptor for loading the table via LGDT. The
// limit covers the populated slots only.
func (t *Table) Pointer() cpu.TablePointer {
	return cpu.NewTablePointer(
		uintptr(unsafe.Pointer(&t.slots[0])),
		uintptr(t.Len())*unsafe.Sizeof(t.slots[0]),
	)
}

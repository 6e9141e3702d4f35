package gate

import (
	"gopheros/kernel/cpu"
	"gopheros/kernel/sync"
	"testing"
	"unsafe"
)

func TestGateLayout(t *testing.T) {
	var g Gate
	if got := unsafe.Sizeof(g); got != 16 {
		t.Fatalf("expected gate descriptors to be 16 bytes long; got %d", got)
	}
	if got := unsafe.Offsetof(g.offsetHigh); got != 8 {
		t.Fatalf("expected offsetHigh at byte 8; got %d", got)
	}
}

func TestNewInterruptGate(t *testing.T) {
	g := NewInterruptGate(0xffff800000123456, 0x08, 1)

	if got := g.Entry(); got != 0xffff800000123456 {
		t.Errorf("expected entry 0xffff800000123456; got %x", got)
	}
	if got := g.Selector(); got != 0x08 {
		t.Errorf("expected selector 0x08; got %x", got)
	}
	if got := g.ISTOffset(); got != 1 {
		t.Errorf("expected IST offset 1; got %d", got)
	}
	if !g.Present() {
		t.Error("expected gate to be present")
	}

	raw := (*[16]byte)(unsafe.Pointer(&g))
	if raw[5] != 0x8e {
		t.Errorf("expected type/attribute byte 0x8e; got %x", raw[5])
	}
	if raw[0] != 0x56 || raw[1] != 0x34 || raw[6] != 0x12 || raw[7] != 0x00 {
		t.Errorf("unexpected offset encoding % x", raw[:8])
	}
}

func TestHandleInterrupt(t *testing.T) {
	defer func() {
		readCSFn = cpu.ReadCS
		idt = sync.Mutex[table]{}
	}()
	readCSFn = func() uint16 { return 0x08 }

	if err := HandleInterrupt(DoubleFault, 1, 0x1000); err != nil {
		t.Fatal(err)
	}

	g := Lookup(DoubleFault)
	if !g.Present() || g.Entry() != 0x1000 || g.Selector() != 0x08 || g.ISTOffset() != 1 {
		t.Fatalf("unexpected gate for the double fault vector: %+v", g)
	}

	if other := Lookup(PageFaultException); other.Present() {
		t.Fatal("expected vectors without a handler to stay non-present")
	}

	if err := HandleInterrupt(GPFException, MaxISTOffset+1, 0x2000); err != errInvalidISTOffset {
		t.Fatalf("expected errInvalidISTOffset; got %v", err)
	}
}

func TestInit(t *testing.T) {
	defer func() {
		loadIDTFn = cpu.LoadIDT
	}()

	var loaded *cpu.TablePointer
	loadIDTFn = func(ptr *cpu.TablePointer) { loaded = ptr }

	Init()

	if loaded == nil {
		t.Fatal("expected Init to load the IDT")
	}
	if loaded.Limit != 256*16-1 {
		t.Errorf("expected IDT limit %d; got %d", 256*16-1, loaded.Limit)
	}

	g := idt.Lock()
	exp := uintptr(unsafe.Pointer(&g.Value()[0]))
	g.Release()

	if got := loaded.Base(); got != exp {
		t.Errorf("expected IDT base %x; got %x", exp, got)
	}
}

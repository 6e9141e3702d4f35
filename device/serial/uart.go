// Package serial provides a driver for 16550-compatible UARTs. The kernel
// uses the first serial port as its log sink because it is available before
// any framebuffer is configured and QEMU can redirect it to stdio.
package serial

import (
	"gopheros/device"
	"gopheros/kernel"
	"gopheros/kernel/cpu"
	"gopheros/kernel/kfmt"
	"gopheros/kernel/sync"
	"io"
)

// COM1 is the I/O base of the first serial port.
const COM1 = uint16(0x3f8)

// uartClock is the base frequency divided by the baud rate divisor.
const uartClock = 115200

// UART registers, relative to the port base.
const (
	regData        = 0
	regIntEnable   = 1
	regFIFOControl = 2
	regLineControl = 3
	regModemCtrl   = 4
	regLineStatus  = 5
)

const (
	lineControlDLAB = 0x80
	lineControl8N1  = 0x03

	// enable and clear FIFOs with a 14-byte threshold
	fifoEnable = 0xc7

	modemLoopback = 0x1e
	modemNormal   = 0x0f

	lineStatusTxEmpty = 1 << 5

	loopbackProbe = 0xae
)

var (
	// The following functions are mocked by tests and are automatically
	// inlined by the compiler.
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte

	errLoopbackFailed = &kernel.Error{Module: "serial", Message: "UART loopback test failed"}
	errInvalidBaud    = &kernel.Error{Module: "serial", Message: "unsupported baud rate"}

	_ device.Driver = (*Port)(nil)
)

// Port is a 16550 UART. Writes are serialized with a spinlock so output from
// different call sites is not interleaved mid-buffer. Writing from an
// exception handler that interrupted a Write deadlocks.
type Port struct {
	lock sync.Spinlock
	base uint16
	baud uint32
}

// NewPort returns a Port for the UART at the given I/O base. The port must be
// initialized with DriverInit before use.
func NewPort(base uint16, baud uint32) Port {
	return Port{base: base, baud: baud}
}

// DriverName implements device.Driver.
func (p *Port) DriverName() string {
	return "uart16550"
}

// DriverVersion implements device.Driver.
func (p *Port) DriverVersion() (uint16, uint16, uint16) {
	return 0, 1, 0
}

// DriverInit programs the UART for 8N1 at the configured baud rate and checks
// that the chip echoes a byte in loopback mode.
func (p *Port) DriverInit(w io.Writer) *kernel.Error {
	if p.baud == 0 || p.baud > uartClock || uartClock%p.baud != 0 {
		return errInvalidBaud
	}
	divisor := uint16(uartClock / p.baud)

	p.out(regIntEnable, 0)
	p.out(regLineControl, lineControlDLAB)
	p.out(regData, uint8(divisor))
	p.out(regIntEnable, uint8(divisor>>8))
	p.out(regLineControl, lineControl8N1)
	p.out(regFIFOControl, fifoEnable)

	p.out(regModemCtrl, modemLoopback)
	p.out(regData, loopbackProbe)
	if got := p.in(regData); got != loopbackProbe {
		return errLoopbackFailed
	}
	p.out(regModemCtrl, modemNormal)

	kfmt.Fprintf(w, "port %x: %d baud\n", p.base, p.baud)
	return nil
}

// Write implements io.Writer. It busy-waits for the transmit holding
// register before sending each byte.
func (p *Port) Write(b []byte) (int, error) {
	p.lock.Acquire()
	defer p.lock.Release()

	for _, ch := range b {
		for p.in(regLineStatus)&lineStatusTxEmpty == 0 {
		}
		p.out(regData, ch)
	}

	return len(b), nil
}

func (p *Port) out(reg uint16, val uint8) {
	portWriteByteFn(p.base+reg, val)
}

func (p *Port) in(reg uint16) uint8 {
	return portReadByteFn(p.base + reg)
}

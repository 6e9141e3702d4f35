// Package kfmt provides formatted output for the kernel. Its functions do not
// allocate memory so they can be used before the Go allocator is available.
package kfmt

import (
	"io"
	"unsafe"
)

// maxBufSize defines the buffer size for formatting numbers.
const maxBufSize = 32

const digits = "0123456789abcdef"

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	numFmtBuf [maxBufSize]byte

	// singleByte is used as a shared buffer for passing single characters
	// to doWrite.
	singleByte = []byte(" ")

	// earlyPrintBuffer stores Printf output until an output sink is set.
	earlyPrintBuffer ringBuffer

	// outputSink is the io.Writer that receives Printf output. While nil,
	// output is captured by earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the target for calls to Printf to w and flushes any
// output captured in the early print buffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		earlyPrintBuffer.WriteTo(w)
	}
}

// Printf writes formatted output to the active output sink. It supports the
// following subset of the fmt verbs:
//
//  %s  string or []byte
//  %d  base 10 integer
//  %o  base 8 integer
//  %x  base 16 integer, lower-case
//  %t  boolean
//  %%  a literal percent sign
//
// An optional decimal width may precede the verb. Strings and base-10
// integers are left-padded with spaces; base-8 and base-16 integers are
// left-padded with zeroes.
//
// Only the built-in integer, string, []byte and bool types are recognized.
// Named types must be converted to their underlying type by the caller;
// Printf cannot inspect them without the reflect package, which would make
// the compiler emit allocating interface conversions.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves like Printf but writes the formatted output to w.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		argIndex int
		fmtLen   = len(format)
	)

	for i := 0; i < fmtLen; i++ {
		if format[i] != '%' {
			writeByte(w, format[i])
			continue
		}

		width := 0
		for i++; i < fmtLen && format[i] >= '0' && format[i] <= '9'; i++ {
			width = width*10 + int(format[i]-'0')
		}

		if i == fmtLen {
			doWrite(w, errNoVerb)
			break
		}

		verb := format[i]
		switch verb {
		case '%':
			writeByte(w, '%')
			continue
		case 'd', 'o', 'x', 's', 't':
		default:
			doWrite(w, errNoVerb)
			continue
		}

		if argIndex >= len(args) {
			doWrite(w, errMissingArg)
			continue
		}

		switch verb {
		case 'd':
			fmtInt(w, args[argIndex], 10, width)
		case 'o':
			fmtInt(w, args[argIndex], 8, width)
		case 'x':
			fmtInt(w, args[argIndex], 16, width)
		case 's':
			fmtString(w, args[argIndex], width)
		case 't':
			fmtBool(w, args[argIndex])
		}
		argIndex++
	}

	for ; argIndex < len(args); argIndex++ {
		doWrite(w, errExtraArg)
	}
}

func fmtBool(w io.Writer, v interface{}) {
	b, ok := v.(bool)
	switch {
	case !ok:
		doWrite(w, errWrongArgType)
	case b:
		doWrite(w, trueValue)
	default:
		doWrite(w, falseValue)
	}
}

func fmtString(w io.Writer, v interface{}, width int) {
	switch s := v.(type) {
	case string:
		fmtRepeat(w, ' ', width-len(s))
		// converting s to a []byte would allocate
		for i := 0; i < len(s); i++ {
			writeByte(w, s[i])
		}
	case []byte:
		fmtRepeat(w, ' ', width-len(s))
		doWrite(w, s)
	default:
		doWrite(w, errWrongArgType)
	}
}

func fmtRepeat(w io.Writer, ch byte, count int) {
	for ; count > 0; count-- {
		writeByte(w, ch)
	}
}

// fmtInt writes v in the requested base padded to width characters.
func fmtInt(w io.Writer, v interface{}, base uint64, width int) {
	var (
		uval uint64
		neg  bool
	)

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uint:
		uval = uint64(t)
	case uintptr:
		uval = uint64(t)
	case int8:
		uval, neg = abs(int64(t))
	case int16:
		uval, neg = abs(int64(t))
	case int32:
		uval, neg = abs(int64(t))
	case int64:
		uval, neg = abs(t)
	case int:
		uval, neg = abs(int64(t))
	default:
		doWrite(w, errWrongArgType)
		return
	}

	if width >= maxBufSize {
		width = maxBufSize - 1
	}

	// Fill numFmtBuf from the right.
	pos := maxBufSize
	for {
		pos--
		numFmtBuf[pos] = digits[uval%base]
		if uval /= base; uval == 0 {
			break
		}
	}

	if base == 10 {
		if neg {
			pos--
			numFmtBuf[pos] = '-'
		}
		for maxBufSize-pos < width {
			pos--
			numFmtBuf[pos] = ' '
		}
	} else {
		padTo := width
		if neg {
			padTo--
		}
		for maxBufSize-pos < padTo {
			pos--
			numFmtBuf[pos] = '0'
		}
		if neg {
			pos--
			numFmtBuf[pos] = '-'
		}
	}

	doWrite(w, numFmtBuf[pos:])
}

func abs(v int64) (uint64, bool) {
	if v < 0 {
		return uint64(-v), true
	}
	return uint64(v), false
}

func writeByte(w io.Writer, b byte) {
	singleByte[0] = b
	doWrite(w, singleByte)
}

// doWrite is a proxy that uses the runtime.noescape hack to hide p from the
// compiler's escape analysis. Without it the compiler flags p as escaping
// through the unknown io.Writer and every Printf call ends up allocating.
func doWrite(w io.Writer, p []byte) {
	doRealWrite(w, noEscape(unsafe.Pointer(&p)))
}

func doRealWrite(w io.Writer, bufPtr unsafe.Pointer) {
	p := *(*[]byte)(bufPtr)
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}

// noEscape hides a pointer from escape analysis. This function is copied over
// from runtime/stubs.go
//go:nosplit
func noEscape(p unsafe.Pointer) unsafe.Pointer {
	x := uintptr(p)
	return unsafe.Pointer(x ^ 0)
}

package kfmt

import (
	"bytes"
	"io"
	"testing"
)

func TestRingBufferReadWrite(t *testing.T) {
	var (
		rb  ringBuffer
		buf = make([]byte, 4)
	)

	if _, err := rb.Read(buf); err != io.EOF {
		t.Fatalf("expected io.EOF from an empty buffer; got %v", err)
	}

	rb.Write([]byte("abcdef"))

	n, err := rb.Read(buf)
	if err != nil || n != 4 || string(buf) != "abcd" {
		t.Fatalf("expected to read \"abcd\"; got %q (n=%d, err=%v)", buf[:n], n, err)
	}

	n, _ = rb.Read(buf)
	if string(buf[:n]) != "ef" {
		t.Fatalf("expected to read \"ef\"; got %q", buf[:n])
	}
}

func TestRingBufferOverwrite(t *testing.T) {
	var rb ringBuffer

	data := bytes.Repeat([]byte{'x'}, ringBufferSize)
	rb.Write(data)
	rb.Write([]byte("tail"))

	var out bytes.Buffer
	n, err := rb.WriteTo(&out)
	if err != nil {
		t.Fatal(err)
	}

	// One slot always stays empty so the buffer keeps the last
	// ringBufferSize-1 bytes.
	if n != ringBufferSize-1 {
		t.Fatalf("expected to drain %d bytes; got %d", ringBufferSize-1, n)
	}
	if !bytes.HasSuffix(out.Bytes(), []byte("xxtail")) {
		t.Fatal("expected the newest bytes to be kept")
	}

	if n, _ = rb.WriteTo(&out); n != 0 {
		t.Fatalf("expected a drained buffer to write nothing; wrote %d", n)
	}
}

type zeroWriter struct{}

func (zeroWriter) Write([]byte) (int, error) { return 0, nil }

func TestRingBufferWriteToShortWrite(t *testing.T) {
	var rb ringBuffer
	rb.Write([]byte("data"))

	if _, err := rb.WriteTo(zeroWriter{}); err != io.ErrShortWrite {
		t.Fatalf("expected io.ErrShortWrite; got %v", err)
	}
}

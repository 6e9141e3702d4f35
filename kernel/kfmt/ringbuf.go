package kfmt

import "io"

// ringBufferSize defines the size of the buffer that captures early Printf
// output. It must be a power of 2.
const ringBufferSize = 2048

// ringBuffer captures Printf output before an output sink is available. When
// full, the oldest bytes are overwritten.
type ringBuffer struct {
	buffer         [ringBufferSize]byte
	rIndex, wIndex int
}

// Write appends p to the buffer. It never fails.
func (rb *ringBuffer) Write(p []byte) (int, error) {
	for _, b := range p {
		rb.buffer[rb.wIndex] = b
		rb.wIndex = (rb.wIndex + 1) & (ringBufferSize - 1)
		if rb.wIndex == rb.rIndex {
			rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
		}
	}

	return len(p), nil
}

// Read moves up to len(p) buffered bytes into p. It returns io.EOF once the
// buffer is empty.
func (rb *ringBuffer) Read(p []byte) (int, error) {
	if rb.rIndex == rb.wIndex {
		return 0, io.EOF
	}

	n := 0
	for ; n < len(p) && rb.rIndex != rb.wIndex; n++ {
		p[n] = rb.buffer[rb.rIndex]
		rb.rIndex = (rb.rIndex + 1) & (ringBufferSize - 1)
	}

	return n, nil
}

// WriteTo drains the buffer into w using at most two writes. Unlike io.Copy
// it does not need an intermediate buffer.
func (rb *ringBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for rb.rIndex != rb.wIndex {
		end := rb.wIndex
		if end < rb.rIndex {
			end = ringBufferSize
		}

		n, err := w.Write(rb.buffer[rb.rIndex:end])
		total += int64(n)
		rb.rIndex = (rb.rIndex + n) & (ringBufferSize - 1)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, io.ErrShortWrite
		}
	}

	return total, nil
}

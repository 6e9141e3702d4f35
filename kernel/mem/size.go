// Package mem defines memory size units and the page geometry of the target
// architecture.
package mem

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
)

// Pages returns the number of pages needed to hold a block of this size.
func (s Size) Pages() uint64 {
	return uint64((s + PageSize - 1) >> PageShift)
}

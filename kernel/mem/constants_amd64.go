//go:build amd64
// +build amd64

package mem

const (
	// PageShift is equal to log2(PageSize).
	PageShift = 12

	// PageSize defines the system's page size in bytes.
	PageSize = Size(1 << PageShift)

	// StackAlign is the stack pointer alignment required by the System V
	// AMD64 ABI at function entry.
	StackAlign = 16
)

// Package multiboot provides access to the multiboot2 information structure
// passed to the kernel by the bootloader. Only the boot command line is
// consumed; lookups do not allocate memory so they work before the Go
// allocator is available.
package multiboot

import "unsafe"

var infoData uintptr

type tagType uint32

// nolint
const (
	tagMbSectionEnd tagType = iota
	tagBootCmdLine
	tagBootLoaderName
)

// info describes the multiboot info section header.
type info struct {
	// Total size of multiboot info section.
	totalSize uint32

	// Always set to zero; reserved for future use
	reserved uint32
}

// tagHeader describes the header the preceedes each tag.
type tagHeader struct {
	// The type of the tag
	tagType tagType

	// The size of the tag including the header but *not* including any
	// padding. Multiboot2 places each tag at an 8-byte aligned
	// address.
	size uint32
}

// SetInfoPtr updates the internal multiboot information pointer to the given
// value. This function must be invoked before invoking any other function
// exported by this package.
func SetInfoPtr(ptr uintptr) {
	infoData = ptr
}

// BootCmdLine returns the raw kernel command line without the trailing NULL
// byte. The returned slice aliases the multiboot info data and must not be
// modified.
func BootCmdLine() []byte {
	return cString(tagBootCmdLine)
}

// BootLoaderName returns the name of the bootloader that loaded the kernel.
func BootLoaderName() []byte {
	return cString(tagBootLoaderName)
}

// CmdLineValue looks up key in the command line. Arguments have the form
// key=value; a bare key is treated as key=key. It returns false if key is not
// present.
func CmdLineValue(key string) ([]byte, bool) {
	cmdLine := BootCmdLine()

	for start := 0; start < len(cmdLine); {
		for start < len(cmdLine) && cmdLine[start] == ' ' {
			start++
		}

		end := start
		for end < len(cmdLine) && cmdLine[end] != ' ' {
			end++
		}

		if field := cmdLine[start:end]; len(field) != 0 {
			k, v := field, field
			for i, ch := range field {
				if ch == '=' {
					k, v = field[:i], field[i+1:]
					break
				}
			}

			if equal(k, key) {
				return v, true
			}
		}

		start = end
	}

	return nil, false
}

// CmdLineHas returns true if the command line contains key=value.
func CmdLineHas(key, value string) bool {
	v, ok := CmdLineValue(key)
	return ok && equal(v, value)
}

func equal(b []byte, s string) bool {
	if len(b) != len(s) {
		return false
	}
	for i := range b {
		if b[i] != s[i] {
			return false
		}
	}
	return true
}

// cString returns the contents of a tag holding a NULL-terminated string.
func cString(tagType tagType) []byte {
	curPtr, size := findTagByType(tagType)
	if size <= 1 {
		return nil
	}

	return unsafe.Slice((*byte)(unsafe.Pointer(curPtr)), size-1)
}

// findTagByType scans the multiboot info data looking for the start of of the
// specified type. It returns a pointer to the tag contents start offset and
// the content length exluding the tag header.
//
// If the tag is not present in the multiboot info, findTagSection will return
// back (0,0).
func findTagByType(tagType tagType) (uintptr, uint32) {
	if infoData == 0 {
		return 0, 0
	}

	var (
		endPtr = infoData + uintptr((*info)(unsafe.Pointer(infoData)).totalSize)
		curPtr = infoData + unsafe.Sizeof(info{})
	)

	for curPtr+unsafe.Sizeof(tagHeader{}) <= endPtr {
		ptrTagHeader := (*tagHeader)(unsafe.Pointer(curPtr))

		// A tag smaller than its own header is malformed and would never
		// advance curPtr.
		if ptrTagHeader.tagType == tagMbSectionEnd || ptrTagHeader.size < 8 {
			break
		}

		if ptrTagHeader.tagType == tagType {
			return curPtr + 8, ptrTagHeader.size - 8
		}

		// Tags are aligned at 8-byte aligned addresses
		curPtr += uintptr((ptrTagHeader.size + 7) &^ 7)
	}

	return 0, 0
}

package memory

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a location in the inspected address space. It is an opaque
// integer, never a Go pointer.
type Address uint64

const (
	// Null is the zero address.
	Null Address = 0
	// MaxAddress is the highest representable address.
	MaxAddress Address = ^Address(0)
)

// Add returns a+off, saturating at MaxAddress instead of wrapping.
func (a Address) Add(off uint64) Address {
	if uint64(MaxAddress-a) < off {
		return MaxAddress
	}
	return a + Address(off)
}

// Sub returns a-off, saturating at Null instead of wrapping.
func (a Address) Sub(off uint64) Address {
	if uint64(a) < off {
		return Null
	}
	return a - Address(off)
}

// IsNull reports whether a is the zero address.
func (a Address) IsNull() bool {
	return a == Null
}

// String returns the address as 0x-prefixed hex.
func (a Address) String() string {
	return fmt.Sprintf("%#x", uint64(a))
}

// rangeEnd returns the exclusive end of [a, a+size). ok is false for empty
// ranges and for ranges that run past the top of the address space.
func rangeEnd(a Address, size uint64) (end Address, ok bool) {
	if size == 0 || uint64(MaxAddress-a) < size {
		return 0, false
	}
	return a + Address(size), true
}

// ParseAddress parses hexadecimal address text. An optional 0x prefix and
// surrounding whitespace are accepted and parsing stops at the first non-hex
// character. Text with no leading hex digits, or a value that does not fit
// in 64 bits, yields Null.
func ParseAddress(text string) Address {
	s := strings.TrimSpace(text)
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}

	n := 0
	for n < len(s) && isHexDigit(s[n]) {
		n++
	}
	if n == 0 {
		return Null
	}

	v, err := strconv.ParseUint(s[:n], 16, 64)
	if err != nil {
		return Null
	}
	return Address(v)
}

// FormatAddress renders a raw host address as hex text accepted by
// ParseAddress.
func FormatAddress(addr uintptr) string {
	return fmt.Sprintf("%#x", uint64(addr))
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

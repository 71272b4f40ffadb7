package memory

import "encoding/binary"

const (
	// DefaultMaxCString bounds ReadCString when callers pass no limit.
	DefaultMaxCString = 512

	// cstringChunk is the granularity of ReadCString. Chunks are aligned so
	// they never straddle a page boundary.
	cstringChunk = 64
)

// Reader performs validated reads against a Region. Multi-byte values are
// little endian; words are WordSize bytes wide.
type Reader struct {
	region   Region
	wordSize int
}

// NewReader creates a Reader. wordSize must be 4 or 8; any other value makes
// every ReadWord fail.
func NewReader(region Region, wordSize int) *Reader {
	return &Reader{region: region, wordSize: wordSize}
}

// WordSize returns the pointer width used by ReadWord.
func (r *Reader) WordSize() int {
	return r.wordSize
}

// IsReadable reports whether [addr, addr+size) lies entirely in readable
// memory. Empty ranges and ranges that overflow the address space are never
// readable.
func (r *Reader) IsReadable(addr Address, size uint64) bool {
	if r == nil || r.region == nil {
		return false
	}
	if _, ok := rangeEnd(addr, size); !ok {
		return false
	}
	return r.region.IsReadable(addr, size)
}

// ReadBytes copies size bytes at addr. It returns nil, false unless the
// range is readable immediately before the copy and the copy completes.
func (r *Reader) ReadBytes(addr Address, size uint64) ([]byte, bool) {
	if !r.IsReadable(addr, size) {
		return nil, false
	}
	if size > uint64(maxInt) {
		return nil, false
	}
	buf := make([]byte, size)
	if !r.region.ReadAt(addr, buf) {
		return nil, false
	}
	return buf, true
}

// ReadUint32 reads a little-endian uint32, or 0, false.
func (r *Reader) ReadUint32(addr Address) (uint32, bool) {
	b, ok := r.ReadBytes(addr, 4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b), true
}

// ReadWord reads a pointer-sized little-endian value, or 0, false.
func (r *Reader) ReadWord(addr Address) (uint64, bool) {
	switch r.wordSize {
	case 4:
		v, ok := r.ReadUint32(addr)
		return uint64(v), ok
	case 8:
		b, ok := r.ReadBytes(addr, 8)
		if !ok {
			return 0, false
		}
		return binary.LittleEndian.Uint64(b), true
	default:
		return 0, false
	}
}

// ReadPointer reads a word and returns it as an Address.
func (r *Reader) ReadPointer(addr Address) (Address, bool) {
	v, ok := r.ReadWord(addr)
	return Address(v), ok
}

// ReadCString returns the bytes at addr up to, not including, the first
// zero byte. It fails if no terminator appears within maxSize bytes or if
// any chunk scanned before the terminator is unreadable.
func (r *Reader) ReadCString(addr Address, maxSize int) (string, bool) {
	if maxSize <= 0 {
		maxSize = DefaultMaxCString
	}

	var out []byte
	cur := addr
	remaining := maxSize
	for remaining > 0 {
		n := cstringChunk - int(uint64(cur)%cstringChunk)
		if n > remaining {
			n = remaining
		}

		chunk, ok := r.ReadBytes(cur, uint64(n))
		if !ok {
			return "", false
		}
		for i, c := range chunk {
			if c == 0 {
				out = append(out, chunk[:i]...)
				return string(out), true
			}
		}

		out = append(out, chunk...)
		remaining -= n
		cur = cur.Add(uint64(n))
	}
	return "", false
}

const maxInt = int(^uint(0) >> 1)

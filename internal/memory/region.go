package memory

// Region is the page-protection capability every read goes through.
//
// IsReadable reports whether the whole half-open range [addr, addr+size)
// may be read right now. ReadAt copies len(buf) bytes starting at addr and
// reports whether the full copy succeeded. Neither method may panic or
// fault, whatever the input.
type Region interface {
	IsReadable(addr Address, size uint64) bool
	ReadAt(addr Address, buf []byte) bool
}

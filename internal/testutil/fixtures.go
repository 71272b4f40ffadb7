// Package testutil builds synthetic memory images for scanner tests.
package testutil

import (
	"encoding/binary"
	"testing"

	"github.com/memscope/internal/memory"
)

// Image is a zero-filled byte image mapped at Base. The Put helpers lay
// out 32-bit MSVC structures at absolute addresses inside it.
type Image struct {
	t    testing.TB
	Base memory.Address
	Data []byte
}

// NewImage creates a zero-filled image of size bytes at base.
func NewImage(t testing.TB, base memory.Address, size int) *Image {
	t.Helper()
	return &Image{t: t, Base: base, Data: make([]byte, size)}
}

// Fill sets every byte of the image to b.
func (m *Image) Fill(b byte) *Image {
	for i := range m.Data {
		m.Data[i] = b
	}
	return m
}

// PutBytes copies b to addr.
func (m *Image) PutBytes(addr memory.Address, b []byte) *Image {
	m.t.Helper()
	if addr < m.Base || uint64(addr-m.Base)+uint64(len(b)) > uint64(len(m.Data)) {
		m.t.Fatalf("write of %d bytes at %s is outside image [%s, %s)",
			len(b), addr, m.Base, m.Base.Add(uint64(len(m.Data))))
	}
	copy(m.Data[addr-m.Base:], b)
	return m
}

// PutU32 stores a little-endian uint32 at addr.
func (m *Image) PutU32(addr memory.Address, v uint32) *Image {
	m.t.Helper()
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return m.PutBytes(addr, b[:])
}

// PutPtr stores a 32-bit pointer at addr.
func (m *Image) PutPtr(addr, target memory.Address) *Image {
	m.t.Helper()
	return m.PutU32(addr, uint32(target))
}

// PutCString stores s followed by a zero byte at addr.
func (m *Image) PutCString(addr memory.Address, s string) *Image {
	m.t.Helper()
	return m.PutBytes(addr, append([]byte(s), 0))
}

// PutRTTIObject lays out a polymorphic object at obj whose vtable, complete
// object locator and type descriptor live at the given addresses.
func (m *Image) PutRTTIObject(obj, vtable, locator, descriptor memory.Address, decorated string) *Image {
	m.t.Helper()
	m.PutPtr(obj, vtable)
	m.PutPtr(vtable.Sub(4), locator)
	m.PutU32(locator, 0)
	m.PutPtr(locator.Add(12), descriptor)
	return m.PutCString(descriptor.Add(8), decorated)
}

// PutInlineString lays out a string object using the 16 byte inline buffer.
// s must be at most 15 bytes.
func (m *Image) PutInlineString(addr memory.Address, s string) *Image {
	m.t.Helper()
	if len(s) > 15 {
		m.t.Fatalf("inline string %q longer than 15 bytes", s)
	}
	m.PutCString(addr, s)
	m.PutU32(addr.Add(16), uint32(len(s)))
	return m.PutU32(addr.Add(20), 15)
}

// PutHeapString lays out a string object at addr whose characters live at
// data with the given capacity.
func (m *Image) PutHeapString(addr, data memory.Address, s string, capacity uint32) *Image {
	m.t.Helper()
	m.PutPtr(addr, data)
	m.PutU32(addr.Add(16), uint32(len(s)))
	m.PutU32(addr.Add(20), capacity)
	return m.PutCString(data, s)
}

// Region returns the image as a memory.Region.
func (m *Image) Region() *memory.ImageRegion {
	return memory.NewImageRegion(m.Base, m.Data)
}

// Reader returns a 32-bit reader over the image.
func (m *Image) Reader() *memory.Reader {
	return memory.NewReader(m.Region(), 4)
}

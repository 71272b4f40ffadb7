package memory

import (
	"fmt"
	"os"
)

// ImageRegion serves a byte image as if it were mapped at Base. Bytes
// outside [Base, Base+len(Data)) are unreadable.
type ImageRegion struct {
	Base Address
	Data []byte
}

// NewImageRegion maps data at base.
func NewImageRegion(base Address, data []byte) *ImageRegion {
	return &ImageRegion{Base: base, Data: data}
}

// LoadImageFile maps the contents of a raw memory dump at base.
func LoadImageFile(path string, base Address) (*ImageRegion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory image: %w", err)
	}
	if _, ok := rangeEnd(base, uint64(len(data))); !ok && len(data) > 0 {
		return nil, fmt.Errorf("image of %d bytes does not fit at %s", len(data), base)
	}
	return NewImageRegion(base, data), nil
}

// End returns the exclusive end address of the image.
func (m *ImageRegion) End() Address {
	return m.Base.Add(uint64(len(m.Data)))
}

// IsReadable implements Region.
func (m *ImageRegion) IsReadable(addr Address, size uint64) bool {
	_, ok := m.offset(addr, size)
	return ok
}

// ReadAt implements Region.
func (m *ImageRegion) ReadAt(addr Address, buf []byte) bool {
	off, ok := m.offset(addr, uint64(len(buf)))
	if !ok {
		return false
	}
	copy(buf, m.Data[off:off+uint64(len(buf))])
	return true
}

func (m *ImageRegion) offset(addr Address, size uint64) (uint64, bool) {
	end, ok := rangeEnd(addr, size)
	if !ok || addr < m.Base || end > m.End() {
		return 0, false
	}
	return uint64(addr - m.Base), true
}

package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestReader(base Address, data []byte) *Reader {
	return NewReader(NewImageRegion(base, data), 4)
}

func TestReader_IsReadable(t *testing.T) {
	r := newTestReader(0x1000, make([]byte, 64))

	assert.True(t, r.IsReadable(0x1000, 64))
	assert.True(t, r.IsReadable(0x1030, 16))
	assert.False(t, r.IsReadable(0x1031, 16), "runs one byte past the image")
	assert.False(t, r.IsReadable(0xfff, 4), "starts before the image")
	assert.False(t, r.IsReadable(0, 16))
	assert.False(t, r.IsReadable(MaxAddress-3, 16))
	assert.False(t, r.IsReadable(0x1000, 0))
}

func TestReader_NilRegion(t *testing.T) {
	var r *Reader
	assert.False(t, r.IsReadable(0x1000, 4))

	r = NewReader(nil, 4)
	_, ok := r.ReadBytes(0x1000, 4)
	assert.False(t, ok)
}

func TestReader_ReadScalars(t *testing.T) {
	data := []byte{
		0x78, 0x56, 0x34, 0x12,
		0xef, 0xcd, 0xab, 0x90,
	}
	r := newTestReader(0x2000, data)

	v, ok := r.ReadUint32(0x2000)
	require.True(t, ok)
	assert.Equal(t, uint32(0x12345678), v)

	w, ok := r.ReadWord(0x2004)
	require.True(t, ok)
	assert.Equal(t, uint64(0x90abcdef), w)

	r64 := NewReader(NewImageRegion(0x2000, data), 8)
	w, ok = r64.ReadWord(0x2000)
	require.True(t, ok)
	assert.Equal(t, uint64(0x90abcdef12345678), w)

	w, ok = r.ReadWord(0x2006)
	assert.False(t, ok, "partial word at end of image")
	assert.Zero(t, w)

	_, ok = NewReader(NewImageRegion(0x2000, data), 3).ReadWord(0x2000)
	assert.False(t, ok, "unsupported word size")
}

func TestReader_ReadPointer(t *testing.T) {
	r := newTestReader(0x10, []byte{0x00, 0x30, 0x00, 0x00})
	p, ok := r.ReadPointer(0x10)
	require.True(t, ok)
	assert.Equal(t, Address(0x3000), p)
}

func TestReader_ReadCString(t *testing.T) {
	data := make([]byte, 200)
	copy(data[0:], ".?AVNode@cocos2d@@\x00")
	copy(data[100:], "no terminator here")
	for i := 100 + len("no terminator here"); i < 200; i++ {
		data[i] = 'x'
	}
	r := newTestReader(0x4000, data)

	s, ok := r.ReadCString(0x4000, 512)
	require.True(t, ok)
	assert.Equal(t, ".?AVNode@cocos2d@@", s)

	_, ok = r.ReadCString(0x4000+100, 512)
	assert.False(t, ok, "runs off the image without a terminator")

	_, ok = r.ReadCString(0x4000, 5)
	assert.False(t, ok, "terminator beyond maxSize")

	s, ok = r.ReadCString(0x4000+18, 512)
	require.True(t, ok)
	assert.Equal(t, "", s)
}

func TestReader_ReadCStringNearImageEnd(t *testing.T) {
	// The name sits in the last bytes of the image; a whole-range check of
	// maxSize bytes would reject it.
	data := []byte("pad.?AVFoo@@\x00")
	r := newTestReader(0x5000-Address(len(data)), data)

	s, ok := r.ReadCString(0x5000-Address(len(data))+3, 512)
	require.True(t, ok)
	assert.Equal(t, ".?AVFoo@@", s)
}

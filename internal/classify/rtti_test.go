package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memscope/internal/demangle"
	"github.com/memscope/internal/memory"
	"github.com/memscope/internal/testutil"
)

const (
	imgBase    = memory.Address(0x10000)
	objAddr    = imgBase + 0x000
	vtableAddr = imgBase + 0x104 // locator pointer at 0x100
	locAddr    = imgBase + 0x200
	descAddr   = imgBase + 0x300
)

func validObjectImage(t *testing.T) *testutil.Image {
	img := testutil.NewImage(t, imgBase, 0x1000)
	img.PutRTTIObject(objAddr, vtableAddr, locAddr, descAddr, ".?AVCCSprite@cocos2d@@")
	return img
}

func newRTTI(img *testutil.Image) *RTTIClassifier {
	return NewRTTIClassifier(img.Reader(), MSVC32(), demangle.NewResolver(nil))
}

func TestRTTIClassifier_Classify(t *testing.T) {
	img := validObjectImage(t)
	c := newRTTI(img)

	name, ok := c.Classify(objAddr)
	require.True(t, ok)
	assert.Equal(t, "cocos2d::CCSprite", name)

	info, ok := c.Inspect(objAddr)
	require.True(t, ok)
	assert.Equal(t, vtableAddr, info.VTable)
	assert.Equal(t, locAddr, info.Locator)
	assert.Equal(t, descAddr, info.Descriptor)
	assert.Equal(t, ".?AVCCSprite@cocos2d@@", info.Decorated)
}

func TestRTTIClassifier_EachGateRejects(t *testing.T) {
	outside := memory.Address(0x900000)

	tests := []struct {
		name  string
		mutate func(img *testutil.Image)
	}{
		{"vtable read fails", func(img *testutil.Image) {
			img.PutPtr(objAddr, outside)
		}},
		{"vtable is null", func(img *testutil.Image) {
			img.PutPtr(objAddr, 0)
		}},
		{"locator read fails", func(img *testutil.Image) {
			img.PutPtr(vtableAddr-4, outside)
		}},
		{"locator is null", func(img *testutil.Image) {
			img.PutPtr(vtableAddr-4, 0)
		}},
		{"signature is nonzero", func(img *testutil.Image) {
			img.PutU32(locAddr, 1)
		}},
		{"descriptor is null", func(img *testutil.Image) {
			img.PutPtr(locAddr+12, 0)
		}},
		{"descriptor read fails", func(img *testutil.Image) {
			img.PutPtr(locAddr+12, outside)
		}},
		{"name is unterminated", func(img *testutil.Image) {
			img.Fill(0)
			img.PutRTTIObject(objAddr, vtableAddr, locAddr, imgBase+0x1000-8-4, "")
			img.PutBytes(imgBase+0x1000-4, []byte(".?AV"))
		}},
		{"name demangles to nothing", func(img *testutil.Image) {
			img.PutCString(descAddr+8, ".?A")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img := validObjectImage(t)
			tt.mutate(img)

			name, ok := newRTTI(img).Classify(objAddr)
			assert.False(t, ok)
			assert.Empty(t, name)
		})
	}
}

func TestRTTIClassifier_NullAndLowAddresses(t *testing.T) {
	img := testutil.NewImage(t, 0, 64)
	img.PutPtr(0x10, 2) // vtable below the back offset
	c := newRTTI(img)

	_, ok := c.Classify(memory.Null)
	assert.False(t, ok)
	_, ok = c.Classify(0x10)
	assert.False(t, ok)
	_, ok = c.Classify(memory.MaxAddress - 1)
	assert.False(t, ok)
}

func TestRTTIClassifier_UsesProcessWideResolverByDefault(t *testing.T) {
	img := validObjectImage(t)
	c := NewRTTIClassifier(img.Reader(), MSVC32(), nil)

	name, ok := c.Classify(objAddr)
	require.True(t, ok)
	assert.Equal(t, "cocos2d::CCSprite", name)
	assert.Equal(t, "cocos2d::CCSprite", demangle.Default().Resolve(".?AVCCSprite@cocos2d@@"))
}

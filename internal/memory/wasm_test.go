package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// memoryWASM is a module with one 64KiB page of memory exported as "memory".
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d, // magic
	0x01, 0x00, 0x00, 0x00, // version
	0x05, 0x03, 0x01, 0x00, 0x01, // memory section: 1 page, no max
	0x07, 0x0a, 0x01, // export section: 10 bytes, 1 export
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, // "memory"
	0x02, 0x00, // kind: memory, index 0
}

func TestWasmRegion(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryWASM)
	require.NoError(t, err)
	defer mod.Close(ctx)

	mem := mod.ExportedMemory("memory")
	require.NotNil(t, mem)
	require.True(t, mem.Write(0x100, []byte("guest\x00")))

	region := NewWasmRegion(mem)
	assert.Equal(t, uint64(65536), region.Size())

	r := NewReader(region, 4)
	s, ok := r.ReadCString(0x100, 64)
	require.True(t, ok)
	assert.Equal(t, "guest", s)

	assert.True(t, r.IsReadable(65536-4, 4))
	assert.False(t, r.IsReadable(65536-2, 4))
	assert.False(t, r.IsReadable(1<<40, 4))
}

func TestWasmRegion_NilMemory(t *testing.T) {
	region := NewWasmRegion(nil)
	assert.Zero(t, region.Size())
	assert.False(t, region.IsReadable(0, 4))
	assert.False(t, region.ReadAt(0, make([]byte, 4)))
}

func TestInstantiateWasm(t *testing.T) {
	ctx := context.Background()
	inst, err := InstantiateWasm(ctx, memoryWASM, "")
	require.NoError(t, err)
	defer inst.Close(ctx)

	assert.Equal(t, uint64(65536), inst.Region.Size())

	_, err = InstantiateWasm(ctx, memoryWASM, "heap")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no memory named "heap"`)

	_, err = InstantiateWasm(ctx, []byte("not wasm"), "")
	assert.Error(t, err)
}

func TestLoadWasmModule_MissingFile(t *testing.T) {
	_, err := LoadWasmModule(context.Background(), "/nonexistent/module.wasm", "")
	assert.Error(t, err)
}

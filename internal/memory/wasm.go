package memory

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// WasmRegion exposes a WebAssembly guest's linear memory. Guest addresses
// are 32-bit offsets into the memory; the memory may grow between reads,
// so bounds are checked against its current size every time.
type WasmRegion struct {
	mem api.Memory
}

// NewWasmRegion wraps mem. A nil memory yields a region where nothing is
// readable.
func NewWasmRegion(mem api.Memory) *WasmRegion {
	return &WasmRegion{mem: mem}
}

// Size returns the current size of the linear memory in bytes.
func (w *WasmRegion) Size() uint64 {
	if w.mem == nil {
		return 0
	}
	return uint64(w.mem.Size())
}

// IsReadable implements Region.
func (w *WasmRegion) IsReadable(addr Address, size uint64) bool {
	end, ok := rangeEnd(addr, size)
	return ok && uint64(end) <= w.Size()
}

// ReadAt implements Region.
func (w *WasmRegion) ReadAt(addr Address, buf []byte) bool {
	if w.mem == nil || uint64(addr) > math.MaxUint32 || uint64(len(buf)) > math.MaxUint32 {
		return false
	}
	data, ok := w.mem.Read(uint32(addr), uint32(len(buf)))
	if !ok {
		return false
	}
	copy(buf, data)
	return true
}

// WasmInstance is a guest module instantiated for inspection. Its memory is
// exposed through Region until Close.
type WasmInstance struct {
	Region  *WasmRegion
	runtime wazero.Runtime
}

// LoadWasmModule instantiates the module in path with WASI available and
// exposes the memory exported under memoryName ("memory" when empty). A
// reactor's _initialize runs; a command's _start does not.
func LoadWasmModule(ctx context.Context, path, memoryName string) (*WasmInstance, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wasm module: %w", err)
	}
	return InstantiateWasm(ctx, code, memoryName)
}

// InstantiateWasm is LoadWasmModule over module bytes.
func InstantiateWasm(ctx context.Context, code []byte, memoryName string) (*WasmInstance, error) {
	if memoryName == "" {
		memoryName = "memory"
	}

	rt := wazero.NewRuntime(ctx)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}

	cfg := wazero.NewModuleConfig().WithStartFunctions("_initialize")
	mod, err := rt.InstantiateWithConfig(ctx, code, cfg)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate wasm module: %w", err)
	}

	mem := mod.ExportedMemory(memoryName)
	if mem == nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("wasm module exports no memory named %q", memoryName)
	}

	return &WasmInstance{Region: NewWasmRegion(mem), runtime: rt}, nil
}

// Close releases the runtime and the guest memory.
func (w *WasmInstance) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

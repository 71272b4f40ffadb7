//go:build linux

package service

import (
	"context"
	"encoding/binary"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memscope/internal/memory"
	"github.com/memscope/pkg/model"
)

func TestScan_Self(t *testing.T) {
	// A 32-bit inline string object built in our own heap.
	obj := make([]byte, 24)
	copy(obj, "hi\x00")
	binary.LittleEndian.PutUint32(obj[16:], 2)
	binary.LittleEndian.PutUint32(obj[20:], 15)
	addr := uintptr(unsafe.Pointer(&obj[0]))

	region, err := memory.NewProcessRegion()
	require.NoError(t, err)
	if _, ok := memory.NewReader(region, 4).ReadCString(memory.Address(addr), 8); !ok {
		t.Skip("process_vm_readv is not permitted in this environment")
	}

	svc := newTestService(t)
	result, err := svc.Scan(context.Background(), model.RequestForPointer(addr, 1), ScanOptions{})
	runtime.KeepAlive(obj)
	require.NoError(t, err)

	assert.Equal(t, model.SourceSelf, result.Report.Source)
	assert.Equal(t, uint64(4), result.Report.Size)
	assert.Equal(t, []string{`[000] maybe string 2 > 15, "hi"`}, result.Report.Lines)
}

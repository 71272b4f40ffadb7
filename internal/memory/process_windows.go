//go:build windows

package memory

import (
	"unsafe"

	"golang.org/x/sys/windows"
)

const readableProtect = windows.PAGE_READONLY | windows.PAGE_READWRITE | windows.PAGE_WRITECOPY |
	windows.PAGE_EXECUTE_READ | windows.PAGE_EXECUTE_READWRITE | windows.PAGE_EXECUTE_WRITECOPY

// ProcessRegion reads the current process. Readability is answered by
// VirtualQuery on every call and bytes are copied with ReadProcessMemory,
// which fails instead of faulting on a page that went away.
type ProcessRegion struct {
	handle windows.Handle
}

// NewProcessRegion returns a region over the calling process.
func NewProcessRegion() (*ProcessRegion, error) {
	return &ProcessRegion{handle: windows.CurrentProcess()}, nil
}

// IsReadable implements Region.
func (p *ProcessRegion) IsReadable(addr Address, size uint64) bool {
	end, ok := rangeEnd(addr, size)
	if !ok || uint64(end-1) > uint64(^uintptr(0)) {
		return false
	}

	cur := uintptr(addr)
	for {
		var mbi windows.MemoryBasicInformation
		if err := windows.VirtualQuery(cur, &mbi, unsafe.Sizeof(mbi)); err != nil {
			return false
		}
		if mbi.State != windows.MEM_COMMIT ||
			mbi.Protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 ||
			mbi.Protect&readableProtect == 0 {
			return false
		}

		regionEnd := mbi.BaseAddress + mbi.RegionSize
		if regionEnd <= cur {
			return false
		}
		if uint64(regionEnd) >= uint64(end) {
			return true
		}
		cur = regionEnd
	}
}

// ReadAt implements Region.
func (p *ProcessRegion) ReadAt(addr Address, buf []byte) bool {
	if len(buf) == 0 || uint64(addr) > uint64(^uintptr(0)) {
		return false
	}
	var n uintptr
	err := windows.ReadProcessMemory(p.handle, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	return err == nil && n == uintptr(len(buf))
}

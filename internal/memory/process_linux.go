//go:build linux

package memory

import (
	"os"

	"golang.org/x/sys/unix"
)

// ProcessRegion reads the current process. Readability is answered from
// /proc/self/maps on every call and bytes are copied with process_vm_readv,
// which reports EFAULT instead of faulting when a page disappears between
// the check and the copy.
type ProcessRegion struct {
	pid      int
	mapsPath string
}

// NewProcessRegion returns a region over the calling process.
func NewProcessRegion() (*ProcessRegion, error) {
	return &ProcessRegion{pid: os.Getpid(), mapsPath: "/proc/self/maps"}, nil
}

// IsReadable implements Region.
func (p *ProcessRegion) IsReadable(addr Address, size uint64) bool {
	end, ok := rangeEnd(addr, size)
	if !ok || !fitsUintptr(end-1) {
		return false
	}
	f, err := os.Open(p.mapsPath)
	if err != nil {
		return false
	}
	defer f.Close()
	return readableCoverage(f, addr, end)
}

// ReadAt implements Region.
func (p *ProcessRegion) ReadAt(addr Address, buf []byte) bool {
	if len(buf) == 0 || !fitsUintptr(addr) {
		return false
	}

	local := []unix.Iovec{{Base: &buf[0]}}
	local[0].SetLen(len(buf))
	remote := []unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}}

	n, err := unix.ProcessVMReadv(p.pid, local, remote, 0)
	return err == nil && n == len(buf)
}

func fitsUintptr(a Address) bool {
	return uint64(a) <= uint64(^uintptr(0))
}

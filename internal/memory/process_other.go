//go:build !linux && !windows

package memory

import (
	"fmt"
	"runtime"
)

// ProcessRegion is unavailable on this platform.
type ProcessRegion struct{}

// NewProcessRegion always fails: there is no fault-free page query here.
func NewProcessRegion() (*ProcessRegion, error) {
	return nil, fmt.Errorf("process memory inspection is not supported on %s", runtime.GOOS)
}

// IsReadable implements Region.
func (p *ProcessRegion) IsReadable(Address, uint64) bool { return false }

// ReadAt implements Region.
func (p *ProcessRegion) ReadAt(Address, []byte) bool { return false }

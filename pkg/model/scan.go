package model

import (
	"fmt"
	"time"

	"github.com/memscope/internal/memory"
)

// SourceType names a memory source.
type SourceType string

const (
	// SourceSelf scans the running process.
	SourceSelf SourceType = "self"
	// SourceImage scans a raw memory dump mapped at a base address.
	SourceImage SourceType = "image"
	// SourceWasm scans a WebAssembly guest's linear memory.
	SourceWasm SourceType = "wasm"
)

// ParseSourceType parses a source name.
func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceSelf, SourceImage, SourceWasm:
		return SourceType(s), nil
	case "":
		return SourceSelf, nil
	default:
		return "", fmt.Errorf("unknown memory source: %q (valid: self, image, wasm)", s)
	}
}

// ScanRequest is what the presentation layer hands to the scanner: an
// address typed as hex text and a size in bytes.
type ScanRequest struct {
	AddressText string `json:"address"`
	Size        int64  `json:"size"`
}

// RequestForPointer builds a request for a raw address supplied by the host
// (for example the currently selected object).
func RequestForPointer(addr uintptr, size int64) ScanRequest {
	return ScanRequest{AddressText: memory.FormatAddress(addr), Size: size}
}

// ScanReport is the outcome of one scan run.
type ScanReport struct {
	RunID     string        `json:"run_id"`
	Source    SourceType    `json:"source"`
	Layout    string        `json:"layout"`
	Base      uint64        `json:"base"`
	Size      uint64        `json:"size"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
	Findings  []Finding     `json:"findings"`
	Lines     []string      `json:"lines"`
}

// CountByKind returns the number of findings of each kind.
func (r *ScanReport) CountByKind() map[FindingKind]int {
	counts := make(map[FindingKind]int, 2)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}

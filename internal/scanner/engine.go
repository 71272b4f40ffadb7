// Package scanner walks a memory range slot by slot and classifies each
// slot with an ordered chain of strategies.
package scanner

import (
	"iter"

	"github.com/memscope/internal/classify"
	"github.com/memscope/internal/demangle"
	"github.com/memscope/internal/memory"
	"github.com/memscope/pkg/model"
	"github.com/memscope/pkg/utils"
)

// MinScanSize is the smallest range worth scanning: one 32-bit slot.
const MinScanSize = 4

// Engine runs the strategy chain over every slot of a range.
type Engine struct {
	stride     uint64
	strategies []Strategy
	resolver   *demangle.Resolver
	logger     utils.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for per-slot debug output.
func WithLogger(logger utils.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrategies replaces the default strategy chain.
func WithStrategies(strategies ...Strategy) Option {
	return func(e *Engine) {
		e.strategies = strategies
	}
}

// WithResolver sets the type name resolver used by the default chain.
// It has no effect together with WithStrategies.
func WithResolver(resolver *demangle.Resolver) Option {
	return func(e *Engine) {
		e.resolver = resolver
	}
}

// New creates an Engine reading through reader with the given layout. The
// default chain tries PointerRTTI first and InlineString second.
func New(reader *memory.Reader, layout classify.Layout, opts ...Option) *Engine {
	e := &Engine{
		stride: layout.Stride,
		logger: &utils.NullLogger{},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.strategies == nil {
		e.strategies = []Strategy{
			NewPointerRTTI(reader, classify.NewRTTIClassifier(reader, layout, e.resolver)),
			NewInlineString(classify.NewStringHeuristic(reader, layout)),
		}
	}
	if e.stride == 0 {
		e.stride = MinScanSize
	}
	return e
}

// Strategies returns the strategy chain in priority order.
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// Scan yields a finding for every slot at base+offset, offset = 0, stride,
// ... while offset < size, where some strategy matched. The first matching
// strategy wins. Memory is read while the sequence is consumed, so ranging
// over it again re-reads live memory.
func (e *Engine) Scan(base memory.Address, size uint64) iter.Seq[model.Finding] {
	return func(yield func(model.Finding) bool) {
		for offset := uint64(0); offset < size; offset += e.stride {
			slot := base.Add(offset)
			finding, ok := e.classify(slot)
			if ok {
				finding.Offset = offset
				finding.Address = uint64(slot)
				if !yield(finding) {
					return
				}
			}
			// Stop before offset+stride wraps around.
			if size-offset <= e.stride {
				return
			}
		}
	}
}

// Collect runs Scan to completion.
func (e *Engine) Collect(base memory.Address, size uint64) []model.Finding {
	var findings []model.Finding
	for f := range e.Scan(base, size) {
		findings = append(findings, f)
	}
	return findings
}

func (e *Engine) classify(slot memory.Address) (model.Finding, bool) {
	for _, s := range e.strategies {
		if finding, ok := s.Match(slot); ok {
			e.logger.Debug("slot %s matched %s", slot, s.Name())
			return finding, true
		}
	}
	return model.Finding{}, false
}

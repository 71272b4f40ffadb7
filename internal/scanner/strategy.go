package scanner

import (
	"github.com/memscope/internal/classify"
	"github.com/memscope/internal/memory"
	"github.com/memscope/pkg/model"
)

// Strategy recognizes one kind of object at a slot.
type Strategy interface {
	// Name identifies the strategy in logs.
	Name() string
	// Match classifies slot, returning false when nothing was recognized.
	// Offset and Address of the returned finding are filled by the engine.
	Match(slot memory.Address) (model.Finding, bool)
}

// PointerRTTI treats the slot's word as a pointer to a polymorphic object
// and resolves that object's class.
type PointerRTTI struct {
	reader     *memory.Reader
	classifier *classify.RTTIClassifier
}

// NewPointerRTTI creates a PointerRTTI strategy.
func NewPointerRTTI(reader *memory.Reader, classifier *classify.RTTIClassifier) *PointerRTTI {
	return &PointerRTTI{reader: reader, classifier: classifier}
}

// Name implements Strategy.
func (s *PointerRTTI) Name() string { return "pointer-rtti" }

// Match implements Strategy.
func (s *PointerRTTI) Match(slot memory.Address) (model.Finding, bool) {
	object, ok := s.reader.ReadPointer(slot)
	if !ok {
		return model.Finding{}, false
	}
	info, ok := s.classifier.Inspect(object)
	if !ok {
		return model.Finding{}, false
	}
	return model.Finding{
		Kind:      model.FindingKindType,
		TypeName:  info.Name,
		Decorated: info.Decorated,
	}, true
}

// InlineString checks whether a string object is stored in the slot itself.
type InlineString struct {
	heuristic *classify.StringHeuristic
}

// NewInlineString creates an InlineString strategy.
func NewInlineString(heuristic *classify.StringHeuristic) *InlineString {
	return &InlineString{heuristic: heuristic}
}

// Name implements Strategy.
func (s *InlineString) Name() string { return "inline-string" }

// Match implements Strategy.
func (s *InlineString) Match(slot memory.Address) (model.Finding, bool) {
	info, ok := s.heuristic.Detect(slot)
	if !ok {
		return model.Finding{}, false
	}
	return model.Finding{
		Kind:     model.FindingKindString,
		Length:   info.Length,
		Capacity: info.Capacity,
		Inline:   info.Inline,
		Preview:  string(info.Preview),
	}, true
}

// Package classify recognizes what an address in untrusted memory points at.
//
// RTTIClassifier follows an object's vtable to its RTTI complete object
// locator and type descriptor and returns the demangled class name.
// StringHeuristic recognizes a small-string-optimized string object from
// its length and capacity fields. Both read exclusively through a
// memory.Reader and report every failure as "no match".
package classify

import "fmt"

// Layout holds the ABI constants both classifiers depend on. They are
// specific to one compiler, pointer width and string implementation and
// must be re-derived, not scaled, for another target.
type Layout struct {
	Name string `mapstructure:"name"`

	// WordSize is the pointer width in bytes (4 or 8).
	WordSize int `mapstructure:"word_size"`
	// Stride is the distance between scanned slots.
	Stride uint64 `mapstructure:"stride"`

	// RTTIBackOffset is how far before the vtable the locator pointer sits.
	RTTIBackOffset uint64 `mapstructure:"rtti_back_offset"`
	// SignatureOffset locates the locator's 32-bit signature field.
	SignatureOffset uint64 `mapstructure:"signature_offset"`
	// ExpectedSignature is the only accepted signature value.
	ExpectedSignature uint32 `mapstructure:"expected_signature"`
	// DescriptorOffset locates the type descriptor pointer in the locator.
	DescriptorOffset uint64 `mapstructure:"descriptor_offset"`
	// NameOffset locates the decorated name in the type descriptor.
	NameOffset uint64 `mapstructure:"name_offset"`
	// MaxNameLength bounds the decorated name scan.
	MaxNameLength int `mapstructure:"max_name_length"`

	// StringSizeOffset locates the string's length field.
	StringSizeOffset uint64 `mapstructure:"string_size_offset"`
	// StringCapacityOffset locates the string's capacity field.
	StringCapacityOffset uint64 `mapstructure:"string_capacity_offset"`
	// InlineCapacity is the capacity of the inline buffer; it is also the
	// smallest capacity the layout can express.
	InlineCapacity uint64 `mapstructure:"inline_capacity"`
	// MaxCapacity rejects implausibly large strings.
	MaxCapacity uint64 `mapstructure:"max_capacity"`
	// PreviewLength is the number of leading bytes kept as a preview.
	PreviewLength int `mapstructure:"preview_length"`
}

// MSVC32 is the 32-bit MSVC layout: x86 RTTI with absolute pointers and the
// MSVC std::string (16 byte inline buffer, size at +16, capacity at +20).
func MSVC32() Layout {
	return Layout{
		Name:                 "msvc-x86",
		WordSize:             4,
		Stride:               4,
		RTTIBackOffset:       4,
		SignatureOffset:      0,
		ExpectedSignature:    0,
		DescriptorOffset:     12,
		NameOffset:           8,
		MaxNameLength:        512,
		StringSizeOffset:     16,
		StringCapacityOffset: 20,
		InlineCapacity:       15,
		MaxCapacity:          100_000_000,
		PreviewLength:        30,
	}
}

// Validate rejects layouts the classifiers cannot read with.
func (l Layout) Validate() error {
	if l.WordSize != 4 && l.WordSize != 8 {
		return fmt.Errorf("unsupported word size %d (want 4 or 8)", l.WordSize)
	}
	if l.Stride == 0 {
		return fmt.Errorf("stride must be positive")
	}
	if l.RTTIBackOffset == 0 {
		return fmt.Errorf("rtti back offset must be positive")
	}
	if l.MaxNameLength <= 0 {
		return fmt.Errorf("max name length must be positive")
	}
	if l.InlineCapacity == 0 {
		return fmt.Errorf("inline capacity must be positive")
	}
	if l.MaxCapacity < l.InlineCapacity {
		return fmt.Errorf("max capacity %d is below inline capacity %d", l.MaxCapacity, l.InlineCapacity)
	}
	if l.PreviewLength <= 0 {
		return fmt.Errorf("preview length must be positive")
	}
	return nil
}

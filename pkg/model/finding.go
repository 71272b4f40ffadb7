// Package model defines the data exchanged between the scanner, the report
// writers and the persistence layer.
package model

// FindingKind tags the payload of a Finding.
type FindingKind string

const (
	// FindingKindType is a polymorphic object identified through RTTI.
	FindingKindType FindingKind = "type"
	// FindingKindString is a heuristically detected string object.
	FindingKindString FindingKind = "string"
)

// Finding is one classified slot of a scan.
type Finding struct {
	// Offset is relative to the scan base.
	Offset uint64 `json:"offset"`
	// Address is the absolute slot address.
	Address uint64      `json:"address"`
	Kind    FindingKind `json:"kind"`

	// Set for FindingKindType.
	TypeName  string `json:"type_name,omitempty"`
	Decorated string `json:"decorated,omitempty"`

	// Set for FindingKindString. Preview holds raw leading bytes; it is
	// escaped when rendered.
	Length   uint64 `json:"length,omitempty"`
	Capacity uint64 `json:"capacity,omitempty"`
	Inline   bool   `json:"inline,omitempty"`
	Preview  string `json:"preview,omitempty"`
}

// IsType reports whether the finding carries a type name.
func (f Finding) IsType() bool {
	return f.Kind == FindingKindType
}

// IsString reports whether the finding describes a string.
func (f Finding) IsString() bool {
	return f.Kind == FindingKindString
}

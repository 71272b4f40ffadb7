package classify

import (
	"github.com/memscope/internal/demangle"
	"github.com/memscope/internal/memory"
)

// TypeInfo is the resolved RTTI chain of one object.
type TypeInfo struct {
	VTable     memory.Address
	Locator    memory.Address
	Descriptor memory.Address
	Decorated  string
	Name       string
}

// RTTIClassifier resolves the class of a polymorphic object. Any aligned
// slot whose pointer chain happens to end in a zero signature and a
// terminated string will be accepted; such false positives are tolerated.
type RTTIClassifier struct {
	reader   *memory.Reader
	layout   Layout
	resolver *demangle.Resolver
}

// NewRTTIClassifier creates a classifier. A nil resolver selects the
// process-wide one.
func NewRTTIClassifier(reader *memory.Reader, layout Layout, resolver *demangle.Resolver) *RTTIClassifier {
	if resolver == nil {
		resolver = demangle.Default()
	}
	return &RTTIClassifier{reader: reader, layout: layout, resolver: resolver}
}

// Classify returns the display name of the object at object.
func (c *RTTIClassifier) Classify(object memory.Address) (string, bool) {
	info, ok := c.Inspect(object)
	return info.Name, ok
}

// Inspect walks object -> vtable -> locator -> descriptor -> name. Each hop
// must land on a non-null, readable word; the chain stops at the first
// failure.
func (c *RTTIClassifier) Inspect(object memory.Address) (TypeInfo, bool) {
	var info TypeInfo
	if object.IsNull() {
		return info, false
	}

	vtable, ok := c.reader.ReadPointer(object)
	if !ok || vtable.IsNull() || uint64(vtable) < c.layout.RTTIBackOffset {
		return info, false
	}
	info.VTable = vtable

	locator, ok := c.reader.ReadPointer(vtable.Sub(c.layout.RTTIBackOffset))
	if !ok || locator.IsNull() {
		return info, false
	}
	info.Locator = locator

	signature, ok := c.reader.ReadUint32(locator.Add(c.layout.SignatureOffset))
	if !ok || signature != c.layout.ExpectedSignature {
		return info, false
	}

	descriptor, ok := c.reader.ReadPointer(locator.Add(c.layout.DescriptorOffset))
	if !ok || descriptor.IsNull() {
		return info, false
	}
	info.Descriptor = descriptor

	decorated, ok := c.reader.ReadCString(descriptor.Add(c.layout.NameOffset), c.layout.MaxNameLength)
	if !ok {
		return info, false
	}
	info.Decorated = decorated

	info.Name = c.resolver.Resolve(decorated)
	if info.Name == "" {
		return info, false
	}
	return info, true
}

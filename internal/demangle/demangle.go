// Package demangle turns decorated RTTI type names into display names.
//
// Decorated names look like ".?AVNode@cocos2d@@": a four byte prefix
// (".?AV" for classes, ".?AU" for structs) followed by scope segments from
// innermost to outermost, each terminated by '@'. The display form lists
// the segments outermost first, joined with "::": "cocos2d::Node".
package demangle

import (
	"strings"
	"sync"
)

const (
	// PrefixLen is the length of the decoration prefix that is dropped.
	PrefixLen = 4
	// Delimiter separates scope segments.
	Delimiter = "@"
	// ScopeSeparator joins segments in the display name.
	ScopeSeparator = "::"
)

// Parser converts one decorated name to its display form.
type Parser interface {
	Parse(decorated string) string
}

// ParserFunc adapts a function to Parser.
type ParserFunc func(decorated string) string

// Parse calls f.
func (f ParserFunc) Parse(decorated string) string {
	return f(decorated)
}

// ParseDecorated is the default Parser. Names shorter than the prefix yield
// an empty string; empty segments are skipped.
func ParseDecorated(decorated string) string {
	if len(decorated) < PrefixLen {
		return ""
	}
	parts := strings.Split(decorated[PrefixLen:], Delimiter)

	out := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			out = append(out, parts[i])
		}
	}
	return strings.Join(out, ScopeSeparator)
}

// Resolver memoizes a Parser. Entries are only ever added, so a name keeps
// the display form computed for it first. Safe for concurrent use.
type Resolver struct {
	parser Parser

	mu    sync.RWMutex
	cache map[string]string
}

// NewResolver creates a Resolver backed by parser, or by ParseDecorated
// when parser is nil.
func NewResolver(parser Parser) *Resolver {
	if parser == nil {
		parser = ParserFunc(ParseDecorated)
	}
	return &Resolver{
		parser: parser,
		cache:  make(map[string]string),
	}
}

// Resolve returns the display name for decorated, parsing it at most once
// per Resolver. Two goroutines racing on a new key may both parse it; the
// first stored value wins.
func (r *Resolver) Resolve(decorated string) string {
	r.mu.RLock()
	name, ok := r.cache[decorated]
	r.mu.RUnlock()
	if ok {
		return name
	}

	name = r.parser.Parse(decorated)

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.cache[decorated]; ok {
		return existing
	}
	r.cache[decorated] = name
	return name
}

// Len returns the number of cached names.
func (r *Resolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

var (
	defaultResolver *Resolver
	defaultOnce     sync.Once
)

// Default returns the process-wide Resolver. It is created on first use and
// lives until the process exits.
func Default() *Resolver {
	defaultOnce.Do(func() {
		defaultResolver = NewResolver(nil)
	})
	return defaultResolver
}

// Resolve resolves decorated with the process-wide Resolver.
func Resolve(decorated string) string {
	return Default().Resolve(decorated)
}

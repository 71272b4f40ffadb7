// Package filter categorizes demangled C++ type names and selects which
// findings of a scan are kept.
package filter

import (
	"strings"
	"sync"

	"github.com/memscope/pkg/model"
)

// TypeCategory represents where a type comes from.
type TypeCategory int

const (
	// CategoryUnknown is returned for an empty name.
	CategoryUnknown TypeCategory = iota
	// CategoryRuntime covers the C++ standard library and compiler runtime.
	CategoryRuntime
	// CategoryFramework covers engine and framework namespaces.
	CategoryFramework
	// CategoryApplication is everything else.
	CategoryApplication
)

// String returns the string representation of the category.
func (c TypeCategory) String() string {
	switch c {
	case CategoryRuntime:
		return "runtime"
	case CategoryFramework:
		return "framework"
	case CategoryApplication:
		return "application"
	default:
		return "unknown"
	}
}

// TypeFilter classifies type names by namespace prefix and filters
// findings. It is safe for concurrent use.
type TypeFilter struct {
	mu sync.RWMutex

	runtimePrefixes   []string
	frameworkPrefixes []string

	include     []string
	exclude     []string
	hideRuntime bool
	typesOnly   bool

	categoryCache     map[string]TypeCategory
	categoryCacheSize int
}

// NewTypeFilter creates a TypeFilter that keeps every finding.
func NewTypeFilter() *TypeFilter {
	return &TypeFilter{
		runtimePrefixes: []string{
			"std::",
			"stdext::",
			"Concurrency::",
			"ATL::",
			"type_info",
		},
		frameworkPrefixes: []string{
			"cocos2d::",
		},
		categoryCache:     make(map[string]TypeCategory),
		categoryCacheSize: 10000,
	}
}

// Classify returns the category of a demangled type name.
func (f *TypeFilter) Classify(name string) TypeCategory {
	if name == "" {
		return CategoryUnknown
	}

	f.mu.RLock()
	if cat, ok := f.categoryCache[name]; ok {
		f.mu.RUnlock()
		return cat
	}
	cat := CategoryApplication
	if hasAnyPrefix(name, f.runtimePrefixes) {
		cat = CategoryRuntime
	} else if hasAnyPrefix(name, f.frameworkPrefixes) {
		cat = CategoryFramework
	}
	f.mu.RUnlock()

	f.mu.Lock()
	if len(f.categoryCache) < f.categoryCacheSize {
		f.categoryCache[name] = cat
	}
	f.mu.Unlock()
	return cat
}

// AddFrameworkPrefix marks names starting with prefix as framework types.
func (f *TypeFilter) AddFrameworkPrefix(prefix string) *TypeFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	if prefix != "" {
		f.frameworkPrefixes = append(f.frameworkPrefixes, prefix)
		clear(f.categoryCache)
	}
	return f
}

// Include keeps only type findings whose name starts with one of prefixes.
func (f *TypeFilter) Include(prefixes ...string) *TypeFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.include = appendNonEmpty(f.include, prefixes)
	return f
}

// Exclude drops type findings whose name starts with one of prefixes.
func (f *TypeFilter) Exclude(prefixes ...string) *TypeFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exclude = appendNonEmpty(f.exclude, prefixes)
	return f
}

// HideRuntime drops standard library and compiler runtime types.
func (f *TypeFilter) HideRuntime(hide bool) *TypeFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hideRuntime = hide
	return f
}

// TypesOnly drops string findings.
func (f *TypeFilter) TypesOnly(only bool) *TypeFilter {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typesOnly = only
	return f
}

// IsPassThrough reports whether the filter keeps every finding.
func (f *TypeFilter) IsPassThrough() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.include) == 0 && len(f.exclude) == 0 && !f.hideRuntime && !f.typesOnly
}

// Keep reports whether finding survives the filter. String findings are
// only affected by TypesOnly.
func (f *TypeFilter) Keep(finding model.Finding) bool {
	f.mu.RLock()
	include, exclude := f.include, f.exclude
	hideRuntime, typesOnly := f.hideRuntime, f.typesOnly
	f.mu.RUnlock()

	if !finding.IsType() {
		return !typesOnly
	}
	name := finding.TypeName
	if len(include) > 0 && !hasAnyPrefix(name, include) {
		return false
	}
	if hasAnyPrefix(name, exclude) {
		return false
	}
	return !hideRuntime || f.Classify(name) != CategoryRuntime
}

// Apply returns the findings that survive the filter, in order.
func (f *TypeFilter) Apply(findings []model.Finding) []model.Finding {
	kept := make([]model.Finding, 0, len(findings))
	for _, finding := range findings {
		if f.Keep(finding) {
			kept = append(kept, finding)
		}
	}
	return kept
}

// CacheStats returns the current and maximum category cache size.
func (f *TypeFilter) CacheStats() (size int, maxSize int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.categoryCache), f.categoryCacheSize
}

func hasAnyPrefix(name string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func appendNonEmpty(dst, src []string) []string {
	for _, s := range src {
		if s = strings.TrimSpace(s); s != "" {
			dst = append(dst, s)
		}
	}
	return dst
}

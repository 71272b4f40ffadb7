// Package statistics summarizes the findings of a scan.
package statistics

import (
	"sort"

	"github.com/memscope/pkg/filter"
	"github.com/memscope/pkg/model"
)

// TypeStatsCalculator counts findings per type name.
type TypeStatsCalculator struct {
	topN   int
	filter *filter.TypeFilter
}

// TypeStatsOption configures the TypeStatsCalculator.
type TypeStatsOption func(*TypeStatsCalculator)

// WithTopN sets the number of type names to return. Zero or less returns
// all of them.
func WithTopN(n int) TypeStatsOption {
	return func(c *TypeStatsCalculator) {
		c.topN = n
	}
}

// WithTypeFilter sets the filter used to categorize type names.
func WithTypeFilter(f *filter.TypeFilter) TypeStatsOption {
	return func(c *TypeStatsCalculator) {
		if f != nil {
			c.filter = f
		}
	}
}

// NewTypeStatsCalculator creates a new TypeStatsCalculator.
func NewTypeStatsCalculator(opts ...TypeStatsOption) *TypeStatsCalculator {
	c := &TypeStatsCalculator{
		topN:   15,
		filter: filter.NewTypeFilter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TypeEntry is one type name with its number of findings.
type TypeEntry struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Count    int     `json:"count"`
	Percent  float64 `json:"percent"`
}

// TypeStatsResult summarizes one scan.
type TypeStatsResult struct {
	TotalFindings  int            `json:"total_findings"`
	TypeFindings   int            `json:"type_findings"`
	StringFindings int            `json:"string_findings"`
	InlineStrings  int            `json:"inline_strings"`
	HeapStrings    int            `json:"heap_strings"`
	DistinctTypes  int            `json:"distinct_types"`
	TopTypes       []TypeEntry    `json:"top_types"`
	ByCategory     map[string]int `json:"by_category"`
}

// Calculate summarizes findings. Type names are ordered by count, then by
// name.
func (c *TypeStatsCalculator) Calculate(findings []model.Finding) *TypeStatsResult {
	result := &TypeStatsResult{
		TopTypes:   make([]TypeEntry, 0),
		ByCategory: make(map[string]int),
	}

	counts := make(map[string]int)
	for _, f := range findings {
		result.TotalFindings++
		switch {
		case f.IsType():
			result.TypeFindings++
			counts[f.TypeName]++
		case f.IsString():
			result.StringFindings++
			if f.Inline {
				result.InlineStrings++
			} else {
				result.HeapStrings++
			}
		}
	}
	result.DistinctTypes = len(counts)

	for name, count := range counts {
		category := c.filter.Classify(name).String()
		result.ByCategory[category] += count
		result.TopTypes = append(result.TopTypes, TypeEntry{
			Name:     name,
			Category: category,
			Count:    count,
			Percent:  float64(count) * 100 / float64(result.TypeFindings),
		})
	}

	sort.Slice(result.TopTypes, func(i, j int) bool {
		a, b := result.TopTypes[i], result.TopTypes[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Name < b.Name
	})
	if c.topN > 0 && len(result.TopTypes) > c.topN {
		result.TopTypes = result.TopTypes[:c.topN]
	}
	return result
}

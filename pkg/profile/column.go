// Package profile computes per-column value frequencies over a parsed table.
package profile

import (
	"cmp"
	"slices"
	"strconv"
)

// Sort selects how a column's values are listed.
type Sort string

// Sort orders.
const (
	// SortValue lists every distinct value in lexicographic order.
	SortValue Sort = "value"
	// SortCount lists values by descending count, ties by ascending value.
	SortCount Sort = "count"
)

// Valid reports whether s is a known order. The empty order is valid and
// means SortValue.
func (s Sort) Valid() bool {
	switch s {
	case "", SortValue, SortCount:
		return true
	}

	return false
}

// Status is the outcome of profiling one column.
type Status string

// Column statuses.
const (
	StatusOK            Status = "ok"
	StatusNoData        Status = "no_data"
	StatusMissingColumn Status = "missing_column"
)

// ColumnSpec names a column to profile. Name is tried first; Index is the
// fallback when the name is empty or absent from the header. A negative
// Index disables the fallback.
type ColumnSpec struct {
	Index int
	Name  string
	Label string
	Sort  Sort
	// Limit caps the listing. Zero uses Options.TopN for count order and no
	// cap for value order; negative means unlimited.
	Limit int
}

// ValueCount is one entry of a listing.
type ValueCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// ColumnProfile is the frequency table for one column.
type ColumnProfile struct {
	Spec   ColumnSpec
	Index  int
	Header string
	Label  string
	Status Status
	Counts map[string]int
	// Entries is the ordered and capped listing of Counts.
	Entries []ValueCount
	// Observed is the sum of Counts.
	Observed int
	// ShortRows counts data rows too short to hold the column.
	ShortRows int
	// Excluded counts cells dropped by SkipEmpty or Exclude.
	Excluded int
	Numeric  *NumericSummary
	// Suggestion is the closest header name for a missing named column.
	Suggestion string
}

// Distinct is the number of distinct observed values.
func (p *ColumnProfile) Distinct() int {
	return len(p.Counts)
}

// Cardinality classifies the distinct-to-observed ratio.
func (p *ColumnProfile) Cardinality() Cardinality {
	return ClassifyCardinality(p.Distinct(), p.Observed)
}

// Truncated reports whether Entries omits some distinct values.
func (p *ColumnProfile) Truncated() bool {
	return len(p.Entries) < len(p.Counts)
}

func (s ColumnSpec) displayLabel(header string, index int) string {
	switch {
	case s.Label != "":
		return s.Label
	case header != "":
		return header
	case s.Name != "":
		return s.Name
	case index >= 0:
		return "column " + strconv.Itoa(index)
	default:
		return "column " + strconv.Itoa(s.Index)
	}
}

func listing(counts map[string]int, order Sort, limit int) []ValueCount {
	entries := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, ValueCount{Value: value, Count: count})
	}

	if order == SortCount {
		slices.SortFunc(entries, func(a, b ValueCount) int {
			if c := cmp.Compare(b.Count, a.Count); c != 0 {
				return c
			}

			return cmp.Compare(a.Value, b.Value)
		})
	} else {
		slices.SortFunc(entries, func(a, b ValueCount) int {
			return cmp.Compare(a.Value, b.Value)
		})
	}

	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}

	return entries
}

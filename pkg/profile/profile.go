package profile

import (
	"strconv"

	"github.com/Sumatoshi-tech/colprofile/pkg/levenshtein"
	"github.com/Sumatoshi-tech/colprofile/pkg/table"
)

// DefaultTopN caps count-ordered listings without an explicit limit.
const DefaultTopN = 10

// Options tune what counts as an observation.
type Options struct {
	TopN int
	// SkipEmpty drops empty cells instead of counting "".
	SkipEmpty bool
	// Exclude lists cell values that are never counted.
	Exclude []string
}

// Profiler profiles columns of a table.
type Profiler struct {
	opts    Options
	exclude map[string]bool
}

// NewProfiler returns a profiler. A non-positive TopN becomes DefaultTopN.
func NewProfiler(opts Options) *Profiler {
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}

	exclude := make(map[string]bool, len(opts.Exclude))
	for _, v := range opts.Exclude {
		exclude[v] = true
	}

	return &Profiler{opts: opts, exclude: exclude}
}

// Options returns the effective options.
func (p *Profiler) Options() Options {
	return p.opts
}

// Profile computes one ColumnProfile per spec, in spec order. Without specs
// every header column is profiled in value order. Missing columns and
// short rows are reported through Status and ShortRows, never as errors.
func (p *Profiler) Profile(t *table.Table, specs []ColumnSpec) []ColumnProfile {
	if len(specs) == 0 {
		specs = AllColumns(t)
	}

	profiles := make([]ColumnProfile, 0, len(specs))
	for _, spec := range specs {
		profiles = append(profiles, p.column(t, spec))
	}

	return profiles
}

// AllColumns returns a value-ordered spec for each header column.
func AllColumns(t *table.Table) []ColumnSpec {
	header, err := t.Header()
	if err != nil {
		return nil
	}

	specs := make([]ColumnSpec, 0, len(header))
	for i := range header {
		specs = append(specs, ColumnSpec{Index: i, Sort: SortValue})
	}

	return specs
}

func (p *Profiler) column(t *table.Table, spec ColumnSpec) ColumnProfile {
	result := ColumnProfile{
		Spec:   spec,
		Index:  -1,
		Counts: map[string]int{},
	}

	header, err := t.Header()
	if err != nil {
		result.Status = StatusNoData
		result.Label = spec.displayLabel("", -1)

		return result
	}

	idx := resolve(t, header, spec)
	if idx < 0 {
		result.Status = StatusMissingColumn
		result.Label = spec.displayLabel("", -1)

		if spec.Name != "" {
			result.Suggestion, _ = levenshtein.Closest(spec.Name, header, -1)
		}

		return result
	}

	result.Index = idx
	result.Header = header[idx]
	result.Label = spec.displayLabel(header[idx], idx)

	for _, row := range t.Rows() {
		if idx >= len(row) {
			result.ShortRows++

			continue
		}

		value := row[idx]
		if (p.opts.SkipEmpty && value == "") || p.exclude[value] {
			result.Excluded++

			continue
		}

		result.Counts[value]++
		result.Observed++
	}

	if result.Observed == 0 {
		result.Status = StatusNoData

		return result
	}

	result.Status = StatusOK
	result.Entries = listing(result.Counts, spec.Sort, p.limit(spec))
	result.Numeric = summarize(result.Counts)

	return result
}

func (p *Profiler) limit(spec ColumnSpec) int {
	switch {
	case spec.Limit < 0:
		return 0
	case spec.Limit > 0:
		return spec.Limit
	case spec.Sort == SortCount:
		return p.opts.TopN
	default:
		return 0
	}
}

func resolve(t *table.Table, header []string, spec ColumnSpec) int {
	if spec.Name != "" {
		if idx := t.ColumnIndex(spec.Name); idx >= 0 {
			return idx
		}
	}

	if spec.Index >= 0 && spec.Index < len(header) {
		return spec.Index
	}

	return -1
}

// ParseRef parses a column reference: a 0-based index or a header name.
func ParseRef(ref string) ColumnSpec {
	if idx, err := strconv.Atoi(ref); err == nil && idx >= 0 {
		return ColumnSpec{Index: idx}
	}

	return ColumnSpec{Index: -1, Name: ref}
}

// Package report turns a profiling run into a presentation model and
// renders it as text, JSON, YAML, an HTML chart page or an xlsx workbook.
package report

import (
	"time"

	"github.com/google/uuid"

	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/table"
	"github.com/Sumatoshi-tech/colprofile/pkg/textenc"
)

// DefaultSampleRows is the number of data rows the CLI shows by default.
const DefaultSampleRows = 3

// Input is everything a report is built from.
type Input struct {
	RunID       string
	GeneratedAt time.Time
	Location    string
	ContentType string
	Bytes       int
	Decoded     textenc.Result
	Table       *table.Table
	Profiles    []profile.ColumnProfile
	// SampleRows is the number of leading data rows to include. Zero or
	// negative leaves samples out.
	SampleRows int
}

// Report is the rendered-independent view of one run.
type Report struct {
	RunID       string       `json:"run_id"       yaml:"run_id"`
	GeneratedAt time.Time    `json:"generated_at" yaml:"generated_at"`
	Source      SourceInfo   `json:"source"       yaml:"source"`
	Encoding    EncodingInfo `json:"encoding"     yaml:"encoding"`
	Header      []Column     `json:"header"       yaml:"header"`
	Samples     []SampleRow  `json:"samples"      yaml:"samples"`
	Rows        int          `json:"rows"         yaml:"rows"`
	Sections    []Section    `json:"columns"      yaml:"columns"`
}

// SourceInfo describes the fetched resource.
type SourceInfo struct {
	Location    string `json:"location"               yaml:"location"`
	ContentType string `json:"content_type,omitempty" yaml:"content_type,omitempty"`
	Bytes       int    `json:"bytes"                  yaml:"bytes"`
}

// EncodingInfo describes how the bytes were decoded.
type EncodingInfo struct {
	Name     string          `json:"name"               yaml:"name"`
	Failed   []FailedAttempt `json:"failed"             yaml:"failed"`
	Detected *DetectedInfo   `json:"detected,omitempty" yaml:"detected,omitempty"`
}

// FailedAttempt is a candidate encoding that did not decode the input.
type FailedAttempt struct {
	Encoding string `json:"encoding" yaml:"encoding"`
	Error    string `json:"error"    yaml:"error"`
}

// DetectedInfo is the detector verdict.
type DetectedInfo struct {
	Encoding string `json:"encoding" yaml:"encoding"`
	Certain  bool   `json:"certain"  yaml:"certain"`
}

// Column is one header column with its spreadsheet letter.
type Column struct {
	Index  int    `json:"index"  yaml:"index"`
	Letter string `json:"letter" yaml:"letter"`
	Name   string `json:"name"   yaml:"name"`
}

// SampleRow is a data row shown as header/value pairs.
type SampleRow struct {
	Row   int          `json:"row"   yaml:"row"`
	Cells []SampleCell `json:"cells" yaml:"cells"`
}

// SampleCell pairs a value with the column it sits in.
type SampleCell struct {
	Letter string `json:"letter" yaml:"letter"`
	Column string `json:"column" yaml:"column"`
	Value  string `json:"value"  yaml:"value"`
}

// Section is the profile of one requested column.
type Section struct {
	Label       string                  `json:"label"             yaml:"label"`
	Header      string                  `json:"header"            yaml:"header"`
	Index       int                     `json:"index"             yaml:"index"`
	Letter      string                  `json:"letter"            yaml:"letter"`
	Status      profile.Status          `json:"status"            yaml:"status"`
	Sort        profile.Sort            `json:"sort"              yaml:"sort"`
	Observed    int                     `json:"observed"          yaml:"observed"`
	Distinct    int                     `json:"distinct"          yaml:"distinct"`
	ShortRows   int                     `json:"short_rows"        yaml:"short_rows"`
	Excluded    int                     `json:"excluded"          yaml:"excluded"`
	Cardinality profile.Cardinality     `json:"cardinality"       yaml:"cardinality"`
	Truncated   bool                    `json:"truncated"         yaml:"truncated"`
	Values      []profile.ValueCount    `json:"values"            yaml:"values"`
	Numeric     *profile.NumericSummary `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Suggestion  string                  `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// Build assembles a Report. A missing run id or timestamp is generated.
func Build(in Input) *Report {
	rep := &Report{
		RunID:       in.RunID,
		GeneratedAt: in.GeneratedAt,
		Source: SourceInfo{
			Location:    in.Location,
			ContentType: in.ContentType,
			Bytes:       in.Bytes,
		},
		Encoding: EncodingInfo{
			Name:   in.Decoded.Encoding,
			Failed: make([]FailedAttempt, 0, len(in.Decoded.Failed)),
		},
		Header:   []Column{},
		Samples:  []SampleRow{},
		Sections: make([]Section, 0, len(in.Profiles)),
	}

	if rep.RunID == "" {
		rep.RunID = uuid.NewString()
	}

	if rep.GeneratedAt.IsZero() {
		rep.GeneratedAt = time.Now().UTC()
	}

	for _, a := range in.Decoded.Failed {
		rep.Encoding.Failed = append(rep.Encoding.Failed, FailedAttempt{Encoding: a.Encoding, Error: a.Err.Error()})
	}

	if d := in.Decoded.Detected; d != nil {
		rep.Encoding.Detected = &DetectedInfo{Encoding: d.Encoding, Certain: d.Certain}
	}

	if in.Table != nil {
		rep.Rows = in.Table.Len()
		rep.Header = headerColumns(in.Table)
		rep.Samples = samples(in.Table, rep.Header, in.SampleRows)
	}

	for i := range in.Profiles {
		rep.Sections = append(rep.Sections, section(&in.Profiles[i]))
	}

	return rep
}

func headerColumns(t *table.Table) []Column {
	header, err := t.Header()
	if err != nil {
		return []Column{}
	}

	cols := make([]Column, 0, len(header))
	for i, name := range header {
		cols = append(cols, Column{Index: i, Letter: ColumnLetter(i), Name: name})
	}

	return cols
}

func samples(t *table.Table, header []Column, n int) []SampleRow {
	rows := t.Sample(n)
	out := make([]SampleRow, 0, len(rows))

	for i, row := range rows {
		cells := make([]SampleCell, 0, len(row))
		for j, value := range row {
			name := ""
			if j < len(header) {
				name = header[j].Name
			}

			cells = append(cells, SampleCell{Letter: ColumnLetter(j), Column: name, Value: value})
		}

		out = append(out, SampleRow{Row: i + 1, Cells: cells})
	}

	return out
}

func section(p *profile.ColumnProfile) Section {
	s := Section{
		Label:       p.Label,
		Header:      p.Header,
		Index:       p.Index,
		Status:      p.Status,
		Sort:        p.Spec.Sort,
		Observed:    p.Observed,
		Distinct:    p.Distinct(),
		ShortRows:   p.ShortRows,
		Excluded:    p.Excluded,
		Cardinality: p.Cardinality(),
		Truncated:   p.Truncated(),
		Values:      p.Entries,
		Numeric:     p.Numeric,
		Suggestion:  p.Suggestion,
	}

	if s.Sort == "" {
		s.Sort = profile.SortValue
	}

	if s.Values == nil {
		s.Values = []profile.ValueCount{}
	}

	if p.Index >= 0 {
		s.Letter = ColumnLetter(p.Index)
	}

	return s
}

// ColumnLetter converts a 0-based index to a spreadsheet column name:
// 0 -> A, 25 -> Z, 26 -> AA. Negative indexes yield "".
func ColumnLetter(index int) string {
	if index < 0 {
		return ""
	}

	var buf []byte
	for n := index + 1; n > 0; n = (n - 1) / 26 {
		buf = append([]byte{byte('A' + (n-1)%26)}, buf...)
	}

	return string(buf)
}

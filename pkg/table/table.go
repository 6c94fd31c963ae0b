// Package table parses decoded CSV text into rows and provides guarded
// access to header, data rows and individual cells.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const bom = "\uFEFF"

// ErrInvalidDelimiter is returned for delimiters encoding/csv cannot use.
var ErrInvalidDelimiter = errors.New("invalid delimiter")

// ParseOptions controls how text is split into cells.
type ParseOptions struct {
	// Delimiter separates fields. Zero means a comma.
	Delimiter rune
	// TrimSpace trims surrounding whitespace from every cell.
	TrimSpace bool
}

// Table is an ordered list of rows. Row 0 is the header; rows may have
// different lengths.
type Table struct {
	rows [][]string
}

// Parse splits text into rows. Quoted fields may contain delimiters and
// newlines, blank lines are skipped and bare quotes are tolerated.
func Parse(text string, opts ParseOptions) (*Table, error) {
	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(text, bom)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}

	var rows [][]string

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}

		if opts.TrimSpace {
			for i := range record {
				record[i] = strings.TrimSpace(record[i])
			}
		}

		rows = append(rows, record)
	}

	return &Table{rows: rows}, nil
}

// FromRows builds a table from already split rows.
func FromRows(rows [][]string) *Table {
	return &Table{rows: rows}
}

// ParseDelimiter converts a configured delimiter into a rune. It accepts a
// single character, "\t" or the words "tab", "comma", "semicolon" and "pipe".
func ParseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "", "comma":
		return ',', nil
	case `\t`, "tab":
		return '\t', nil
	case "semicolon":
		return ';', nil
	case "pipe":
		return '|', nil
	}

	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}

	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDelimiter, s)
	}

	return r, nil
}

// Header returns row 0.
func (t *Table) Header() ([]string, error) {
	if len(t.rows) == 0 {
		return nil, &MalformedTableError{Reason: "no rows, header missing"}
	}

	return t.rows[0], nil
}

// Rows returns the data rows, excluding the header.
func (t *Table) Rows() [][]string {
	if len(t.rows) < 2 {
		return nil
	}

	return t.rows[1:]
}

// Len is the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows())
}

// Empty reports whether the table has no rows at all.
func (t *Table) Empty() bool {
	return len(t.rows) == 0
}

// Sample returns up to n leading data rows.
func (t *Table) Sample(n int) [][]string {
	rows := t.Rows()
	if n < 0 {
		n = 0
	}

	if n < len(rows) {
		return rows[:n]
	}

	return rows
}

// ColumnIndex finds a header column by name. An exact match wins over a
// case-insensitive trimmed match; -1 means not found.
func (t *Table) ColumnIndex(name string) int {
	header, err := t.Header()
	if err != nil {
		return -1
	}

	for i, h := range header {
		if h == name {
			return i
		}
	}

	want := strings.TrimSpace(name)
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i
		}
	}

	return -1
}

// Cell returns the value at data row `row`, column `col`. ok is false when
// either index is out of range for that row.
func (t *Table) Cell(row, col int) (string, bool) {
	rows := t.Rows()
	if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		return "", false
	}

	return rows[row][col], true
}

// Width is the length of the longest row, header included.
func (t *Table) Width() int {
	width := 0
	for _, r := range t.rows {
		width = max(width, len(r))
	}

	return width
}

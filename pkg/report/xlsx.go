package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
)

const (
	sheetSummary   = "Summary"
	sheetHeader    = "Header"
	sheetProblems  = "Problems"
	sheetNameLimit = 31
)

// XLSXRenderer writes an excelize workbook: a summary sheet, a header
// sheet and one sheet per profiled column.
type XLSXRenderer struct{}

// Render implements Renderer. A column sheet that cannot be written is
// listed on a Problems sheet and the remaining sheets are still written.
func (XLSXRenderer) Render(w io.Writer, rep *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return fmt.Errorf("rename summary sheet: %w", err)
	}

	if err := writeSummarySheet(f, rep); err != nil {
		return err
	}

	if err := writeHeaderSheet(f, rep); err != nil {
		return err
	}

	used := map[string]bool{"summary": true, "header": true, "problems": true}

	var problems [][]any

	for i := range rep.Sections {
		sec := &rep.Sections[i]
		if sec.Status == profile.StatusMissingColumn {
			continue
		}

		name := sheetName(sec.Label, used)
		if err := writeSectionSheet(f, name, sec); err != nil {
			problems = append(problems, []any{sec.Label, err.Error()})
		}
	}

	if len(problems) > 0 {
		if err := writeRows(f, sheetProblems, []any{"column", "error"}, problems); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	return nil
}

func writeSummarySheet(f *excelize.File, rep *Report) error {
	rows := [][]any{
		{"location", rep.Source.Location},
		{"bytes", rep.Source.Bytes},
		{"encoding", rep.Encoding.Name},
		{"rows", rep.Rows},
		{"run_id", rep.RunID},
		{"generated_at", rep.GeneratedAt.Format("2006-01-02T15:04:05Z07:00")},
	}

	for _, a := range rep.Encoding.Failed {
		rows = append(rows, []any{"failed " + a.Encoding, a.Error})
	}

	return writeRows(f, sheetSummary, []any{"field", "value"}, rows)
}

func writeHeaderSheet(f *excelize.File, rep *Report) error {
	rows := make([][]any, 0, len(rep.Header))
	for _, c := range rep.Header {
		rows = append(rows, []any{c.Index, c.Letter, c.Name})
	}

	return writeRows(f, sheetHeader, []any{"index", "letter", "name"}, rows)
}

func writeSectionSheet(f *excelize.File, name string, sec *Section) error {
	if sec.Status == profile.StatusNoData {
		return writeRows(f, name, []any{"value", "count"}, [][]any{{msgNoData, 0}})
	}

	rows := make([][]any, 0, len(sec.Values))
	for _, v := range sec.Values {
		rows = append(rows, []any{v.Value, v.Count})
	}

	return writeRows(f, name, []any{"value", "count"}, rows)
}

func writeRows(f *excelize.File, sheet string, header []any, rows [][]any) error {
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("create sheet %q: %w", sheet, err)
		}
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write sheet %q header: %w", sheet, err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("sheet %q row %d: %w", sheet, i+2, err)
		}

		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write sheet %q row %d: %w", sheet, i+2, err)
		}
	}

	return nil
}

// sheetName strips characters excelize rejects, truncates to the sheet name
// limit and appends a counter to names already used. Sheet names compare
// case-insensitively.
func sheetName(label string, used map[string]bool) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}

		return r
	}, strings.Trim(strings.TrimSpace(label), "'"))

	if clean == "" {
		clean = "column"
	}

	clean = truncateRunes(clean, sheetNameLimit)
	name := clean

	for n := 2; used[strings.ToLower(name)]; n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		name = truncateRunes(clean, sheetNameLimit-len(suffix)) + suffix
	}

	used[strings.ToLower(name)] = true

	return name
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	return string([]rune(s)[:limit])
}

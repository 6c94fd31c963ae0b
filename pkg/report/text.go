package report

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/colprofile/pkg/profile"
	"github.com/Sumatoshi-tech/colprofile/pkg/safeconv"
)

// Text layout limits.
const (
	valueWidthMax = 48
	barWidth      = 20
	msgNoData     = "no data"
)

// TextRenderer writes a human-readable report with go-pretty tables.
type TextRenderer struct {
	heading *color.Color
	muted   *color.Color
	warn    *color.Color
}

// NewTextRenderer returns a text renderer. With noColor set no escape
// sequences are written regardless of the terminal.
func NewTextRenderer(noColor bool) *TextRenderer {
	r := &TextRenderer{
		heading: color.New(color.FgCyan, color.Bold),
		muted:   color.New(color.FgHiBlack),
		warn:    color.New(color.FgYellow),
	}

	if noColor {
		r.heading.DisableColor()
		r.muted.DisableColor()
		r.warn.DisableColor()
	}

	return r
}

// Render implements Renderer. Sections are rendered one by one into a
// buffer; a section that fails is replaced by its error message.
func (r *TextRenderer) Render(w io.Writer, rep *Report) error {
	var buf bytes.Buffer

	r.writeSource(&buf, rep)
	r.writeHeader(&buf, rep)
	r.writeSamples(&buf, rep)

	for i := range rep.Sections {
		sec := &rep.Sections[i]
		if sec.Status == profile.StatusMissingColumn {
			continue
		}

		var part bytes.Buffer
		if err := r.writeSection(&part, sec); err != nil {
			fmt.Fprintf(&buf, "%s\n\n", r.warn.Sprintf("%s: %v", sec.Label, err))

			continue
		}

		buf.Write(part.Bytes())
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	return nil
}

func (r *TextRenderer) title(buf *bytes.Buffer, s string) {
	buf.WriteString(r.heading.Sprintf("== %s ==", s))
	buf.WriteString("\n")
}

func (r *TextRenderer) writeSource(buf *bytes.Buffer, rep *Report) {
	r.title(buf, "Source")
	fmt.Fprintf(buf, "location: %s\n", rep.Source.Location)
	fmt.Fprintf(buf, "size:     %s (%s bytes)\n",
		humanize.Bytes(safeconv.ClampToUint64(rep.Source.Bytes)), humanize.Comma(int64(rep.Source.Bytes)))
	fmt.Fprintf(buf, "encoding: %s\n", rep.Encoding.Name)

	if d := rep.Encoding.Detected; d != nil {
		verdict := "uncertain"
		if d.Certain {
			verdict = "certain"
		}

		fmt.Fprintf(buf, "detected: %s (%s)\n", d.Encoding, verdict)
	}

	for _, f := range rep.Encoding.Failed {
		buf.WriteString(r.muted.Sprintf("  tried %s: %s", f.Encoding, f.Error))
		buf.WriteString("\n")
	}

	fmt.Fprintf(buf, "rows:     %s\n", humanize.Comma(int64(rep.Rows)))
	fmt.Fprintf(buf, "run:      %s\n\n", rep.RunID)
}

func (r *TextRenderer) writeHeader(buf *bytes.Buffer, rep *Report) {
	r.title(buf, fmt.Sprintf("Header (%d columns)", len(rep.Header)))

	if len(rep.Header) == 0 {
		buf.WriteString(msgNoData + "\n\n")

		return
	}

	tw := newTable()
	tw.AppendHeader(table.Row{"#", "Col", "Name"})

	for _, c := range rep.Header {
		tw.AppendRow(table.Row{c.Index, c.Letter, c.Name})
	}

	buf.WriteString(tw.Render())
	buf.WriteString("\n\n")
}

func (r *TextRenderer) writeSamples(buf *bytes.Buffer, rep *Report) {
	if len(rep.Samples) == 0 {
		return
	}

	r.title(buf, fmt.Sprintf("Sample rows (%d)", len(rep.Samples)))

	for _, row := range rep.Samples {
		fmt.Fprintf(buf, "row %d\n", row.Row)

		for _, c := range row.Cells {
			name := c.Column
			if name == "" {
				name = r.muted.Sprint("(no header)")
			}

			fmt.Fprintf(buf, "  %-3s %s: %s\n", c.Letter, name, c.Value)
		}
	}

	buf.WriteString("\n")
}

func (r *TextRenderer) writeSection(buf *bytes.Buffer, sec *Section) error {
	heading := sec.Label
	if sec.Letter != "" {
		heading = fmt.Sprintf("%s [column %s", heading, sec.Letter)
		if sec.Header != "" && sec.Header != sec.Label {
			heading += fmt.Sprintf(", %q", sec.Header)
		}

		heading += "]"
	}

	r.title(buf, heading)

	if sec.Status == profile.StatusNoData {
		buf.WriteString(msgNoData)
		if sec.ShortRows > 0 {
			buf.WriteString(r.muted.Sprintf(" (%d short rows)", sec.ShortRows))
		}

		buf.WriteString("\n\n")

		return nil
	}

	if sec.Status != profile.StatusOK {
		return fmt.Errorf("unexpected status %q", sec.Status)
	}

	fmt.Fprintf(buf, "observed %s, distinct %s, %s\n",
		humanize.Comma(int64(sec.Observed)), humanize.Comma(int64(sec.Distinct)), sec.Cardinality)

	if sec.ShortRows > 0 || sec.Excluded > 0 {
		buf.WriteString(r.muted.Sprintf("short rows %d, excluded %d", sec.ShortRows, sec.Excluded))
		buf.WriteString("\n")
	}

	buf.WriteString(valuesTable(sec))
	buf.WriteString("\n")

	if n := sec.Numeric; n != nil {
		fmt.Fprintf(buf, "numeric: min %s, max %s, mean %s, median %s, stddev %s\n",
			humanize.Commaf(n.Min), humanize.Commaf(n.Max),
			formatFloat(n.Mean), formatFloat(n.Median), formatFloat(n.StdDev))
	}

	buf.WriteString("\n")

	return nil
}

func valuesTable(sec *Section) string {
	tw := newTable()
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, WidthMax: valueWidthMax},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})

	tw.AppendHeader(table.Row{"Value", "Count", "Share", ""})

	peak := 0
	for _, v := range sec.Values {
		peak = max(peak, v.Count)
	}

	for _, v := range sec.Values {
		value := v.Value
		if value == "" {
			value = "(empty)"
		}

		share := float64(v.Count) / float64(max(sec.Observed, 1)) * 100
		tw.AppendRow(table.Row{value, humanize.Comma(int64(v.Count)), fmt.Sprintf("%.1f%%", share), bar(v.Count, peak)})
	}

	if sec.Truncated {
		tw.AppendFooter(table.Row{fmt.Sprintf("%d of %d values", len(sec.Values), sec.Distinct)})
	}

	return tw.Render()
}

func newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleLight)

	return tw
}

func bar(count, peak int) string {
	if peak <= 0 {
		return ""
	}

	filled := max(count*barWidth/peak, 1)

	return strings.Repeat("█", filled)
}

func formatFloat(v float64) string {
	return humanize.FtoaWithDigits(v, 2)
}

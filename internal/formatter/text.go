package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/polyseed/internal/schema"
)

// TextFormatter formats a description as compact text
type TextFormatter struct {
	writer *errWriter
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter(w io.Writer) *TextFormatter {
	return &TextFormatter{writer: &errWriter{w: w}}
}

// Format writes the description in compact text format
func (f *TextFormatter) Format(d *Description) error {
	_, _ = fmt.Fprintf(f.writer, "TABLE %s (%s sink, %s dialect, %d points, layout %s)\n",
		d.Table.Name, d.Sink, d.Dialect, d.Points, d.Layout)

	// Columns
	for _, col := range d.Table.Columns {
		_, _ = fmt.Fprintf(f.writer, "  %s\n", f.formatColumn(col))
	}

	before, after := splitSteps(d.Steps)
	f.formatSteps("BEFORE ROWS", before)
	f.formatSteps("AFTER ROWS", after)

	return f.writer.result()
}

func (f *TextFormatter) formatSteps(title string, steps []Step) {
	if len(steps) == 0 {
		return
	}
	_, _ = fmt.Fprintln(f.writer)
	_, _ = fmt.Fprintf(f.writer, "  %s:\n", title)
	for _, s := range steps {
		_, _ = fmt.Fprintf(f.writer, "    %s\n", s.SQL)
	}
}

func (f *TextFormatter) formatColumn(col schema.Column) string {
	parts := []string{col.Name + ":", col.Type.String()}

	if isPrimaryKey(col) {
		parts = append(parts, "PK")
	}

	if col.Type == schema.GeometryType {
		parts = append(parts, fmt.Sprintf("SRID %d", schema.SRID))
	}

	return strings.Join(parts, " ")
}

func splitSteps(steps []Step) (before, after []Step) {
	for _, s := range steps {
		if s.AfterRows {
			after = append(after, s)
		} else {
			before = append(before, s)
		}
	}
	return before, after
}

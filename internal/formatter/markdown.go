package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/tordrt/polyseed/internal/schema"
)

// MarkdownFormatter formats a description as markdown
type MarkdownFormatter struct {
	writer *errWriter
}

// NewMarkdownFormatter creates a new markdown formatter
func NewMarkdownFormatter(w io.Writer) *MarkdownFormatter {
	return &MarkdownFormatter{writer: &errWriter{w: w}}
}

// Format writes the description in markdown format
func (f *MarkdownFormatter) Format(d *Description) error {
	_, _ = fmt.Fprintf(f.writer, "# Seed Plan: %s\n\n", d.Table.Name)

	_, _ = fmt.Fprintf(f.writer, "- **Sink:** %s\n", d.Sink)
	_, _ = fmt.Fprintf(f.writer, "- **Dialect:** %s\n", d.Dialect)
	_, _ = fmt.Fprintf(f.writer, "- **Points:** %d\n", d.Points)
	_, _ = fmt.Fprintf(f.writer, "- **Attributes:** %s\n", d.Attributes)
	_, _ = fmt.Fprintf(f.writer, "- **Layout:** %s\n", d.Layout)
	_, _ = fmt.Fprintln(f.writer)

	// Columns
	_, _ = fmt.Fprintln(f.writer, "## Columns")
	_, _ = fmt.Fprintln(f.writer)

	for _, col := range d.Table.Columns {
		constraintStr := f.formatConstraints(col)
		if constraintStr != "" {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s, %s\n", col.Name, col.Type, constraintStr)
		} else {
			_, _ = fmt.Fprintf(f.writer, "- **%s:** %s\n", col.Name, col.Type)
		}
	}
	_, _ = fmt.Fprintln(f.writer)

	before, after := splitSteps(d.Steps)
	f.formatSteps("Before Rows", before)
	f.formatSteps("After Rows", after)

	return f.writer.result()
}

func (f *MarkdownFormatter) formatSteps(title string, steps []Step) {
	if len(steps) == 0 {
		return
	}
	_, _ = fmt.Fprintf(f.writer, "## %s\n\n", title)
	_, _ = fmt.Fprintln(f.writer, "```sql")
	for _, s := range steps {
		_, _ = fmt.Fprintf(f.writer, "%s;\n", s.SQL)
	}
	_, _ = fmt.Fprintln(f.writer, "```")
	_, _ = fmt.Fprintln(f.writer)
}

func (f *MarkdownFormatter) formatConstraints(col schema.Column) string {
	var constraints []string

	if isPrimaryKey(col) {
		constraints = append(constraints, "PK")
	}

	if col.Type == schema.GeometryType {
		constraints = append(constraints, fmt.Sprintf("SRID %d", schema.SRID))
		constraints = append(constraints, fmt.Sprintf("DEFAULT POINT(%v %v)", schema.DefaultGeometryX, schema.DefaultGeometryY))
	}

	return strings.Join(constraints, ", ")
}

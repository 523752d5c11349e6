// Package formatter renders a description of what a run will do: the final
// table layout and the statements applied around the row inserts.
package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/polyseed/internal/schema"
)

// Step is one directive together with the SQL it renders to.
type Step struct {
	Directive schema.Directive
	SQL       string
	// AfterRows marks directives applied once every row is written.
	AfterRows bool
}

// Description summarizes one resolved run without performing it.
type Description struct {
	Table      schema.Table
	Sink       string
	Dialect    string
	Points     int
	Layout     string
	Attributes string
	Steps      []Step
}

// Formatter writes a Description.
type Formatter interface {
	Format(d *Description) error
}

// New returns the formatter for format: "text" or "markdown".
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case "", "text":
		return NewTextFormatter(w), nil
	case "markdown", "md":
		return NewMarkdownFormatter(w), nil
	}
	return nil, fmt.Errorf("invalid format: %s (must be 'text' or 'markdown')", format)
}

// errWriter keeps the first write error and drops every later write.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}

func (e *errWriter) result() error {
	if e.err != nil {
		return fmt.Errorf("failed to write description: %w", e.err)
	}
	return nil
}

func isPrimaryKey(col schema.Column) bool {
	return col.Name == schema.PrimaryKeyColumn
}

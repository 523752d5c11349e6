package schema

import (
	"github.com/paulmach/orb"

	"github.com/tordrt/polyseed/internal/attribute"
)

// Field is one attribute column and its value.
type Field struct {
	Column string
	Value  attribute.Value
}

// Row is a sampled point plus the values of the active attributes.
type Row struct {
	Point  orb.Point
	Fields []Field
}

// Columns returns the attribute columns followed by the geometry column.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r.Fields)+1)
	for _, f := range r.Fields {
		cols = append(cols, f.Column)
	}
	return append(cols, GeometryColumn)
}

// Render builds the row for p. Exactly the kinds in active are included,
// in canonical order; kinds missing from the tuple are skipped.
func Render(p orb.Point, t attribute.Tuple, active attribute.Set) Row {
	row := Row{Point: p, Fields: make([]Field, 0, active.Len())}
	for _, k := range attribute.Kinds {
		if !active.Has(k) {
			continue
		}
		v, ok := t[k]
		if !ok {
			continue
		}
		row.Fields = append(row.Fields, Field{Column: AttributeColumn(k).Name, Value: v})
	}
	return row
}

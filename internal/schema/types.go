// Package schema describes the destination table, the structural
// directives applied to it, and the rows written into it.
package schema

import (
	"fmt"
	"strings"

	"github.com/tordrt/polyseed/internal/attribute"
)

// Fixed column names of the generated table.
const (
	PrimaryKeyColumn = "pkid"
	GeometryColumn   = "thegeom"
	SRID             = 4326
)

// DefaultGeometryX and DefaultGeometryY are the geometry column default.
const (
	DefaultGeometryX = -6.7
	DefaultGeometryY = 54
)

// ColumnType is the logical type of a column; dialects map it to SQL.
type ColumnType int

const (
	SerialType ColumnType = iota
	TextType
	IntegerType
	TimestampType
	GeometryType
)

func (t ColumnType) String() string {
	switch t {
	case SerialType:
		return "serial"
	case TextType:
		return "text"
	case IntegerType:
		return "integer"
	case TimestampType:
		return "timestamp"
	case GeometryType:
		return "geometry"
	default:
		return fmt.Sprintf("ColumnType(%d)", int(t))
	}
}

// Column represents a table column
type Column struct {
	Name string
	Type ColumnType
}

// Table represents the generated table
type Table struct {
	Name    string
	Columns []Column
}

var attributeColumns = map[attribute.Kind]Column{
	attribute.Text:      {Name: "randStr", Type: TextType},
	attribute.Integer:   {Name: "randInt", Type: IntegerType},
	attribute.Timestamp: {Name: "randTime", Type: TimestampType},
}

// AttributeColumn returns the column holding values of kind k.
func AttributeColumn(k attribute.Kind) Column {
	c, ok := attributeColumns[k]
	if !ok {
		panic(fmt.Sprintf("schema: no column for attribute %v", k))
	}
	return c
}

// FullTable returns the table with every optional column present.
func FullTable(name string) Table {
	t := Table{Name: name}
	t.Columns = append(t.Columns, Column{Name: PrimaryKeyColumn, Type: SerialType})
	for _, k := range attribute.Kinds {
		t.Columns = append(t.Columns, AttributeColumn(k))
	}
	t.Columns = append(t.Columns, Column{Name: GeometryColumn, Type: GeometryType})
	return t
}

// ActiveTable returns the table as it looks once every directive of a run
// has been applied: only the active attribute columns remain.
func ActiveTable(name string, active attribute.Set) Table {
	t := Table{Name: name}
	t.Columns = append(t.Columns, Column{Name: PrimaryKeyColumn, Type: SerialType})
	for _, k := range active.Kinds() {
		t.Columns = append(t.Columns, AttributeColumn(k))
	}
	t.Columns = append(t.Columns, Column{Name: GeometryColumn, Type: GeometryType})
	return t
}

// SpatialIndexName returns the name of the geometry index for table. The
// index lives in the table's schema, so any qualifier is dropped.
func SpatialIndexName(table string) string {
	if i := strings.LastIndex(table, "."); i >= 0 {
		table = table[i+1:]
	}
	return table + "_spatial_index"
}

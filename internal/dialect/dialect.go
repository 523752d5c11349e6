// Package dialect renders schema directives and rows as SQL statements for
// the supported databases. Statements carry no trailing semicolon.
package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/tordrt/polyseed/internal/attribute"
	"github.com/tordrt/polyseed/internal/schema"
)

// Dialect turns directives and rows into SQL text.
type Dialect interface {
	Name() string
	Directive(d schema.Directive) (string, error)
	Insert(table string, row schema.Row) string
}

// Names of the built-in dialects.
const (
	PostgresName = "postgres"
	SQLiteName   = "sqlite"
	MySQLName    = "mysql"
)

// ByName returns a built-in dialect. "postgresql" and "sqlite3" are
// accepted as aliases.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", PostgresName, "postgresql":
		return Postgres(), nil
	case SQLiteName, "sqlite3":
		return SQLite(), nil
	case MySQLName:
		return MySQL(), nil
	}
	return nil, fmt.Errorf("unsupported dialect %q", name)
}

// sqlDialect is the shared statement builder; each database fills in the
// parts that differ.
type sqlDialect struct {
	name         string
	types        map[schema.ColumnType]string
	point        func(p orb.Point) string
	spatialIndex func(table string) string
	addColumn    string
	dropColumn   string
	quote        func(s string) string
}

func (d *sqlDialect) Name() string { return d.name }

func (d *sqlDialect) Directive(dir schema.Directive) (string, error) {
	switch dir.Kind {
	case schema.CreateTable:
		if len(dir.Columns) == 0 {
			return "", fmt.Errorf("create-table %s has no columns", dir.Table)
		}
		defs := make([]string, 0, len(dir.Columns))
		for _, c := range dir.Columns {
			defs = append(defs, c.Name+" "+d.types[c.Type])
		}
		return fmt.Sprintf("CREATE TABLE %s (%s)", dir.Table, strings.Join(defs, ", ")), nil
	case schema.DropTableIfExists:
		return "DROP TABLE IF EXISTS " + dir.Table, nil
	case schema.ClearRows:
		return "DELETE FROM " + dir.Table, nil
	case schema.AddColumn:
		return fmt.Sprintf(d.addColumn, dir.Table, dir.Column.Name, d.types[dir.Column.Type]), nil
	case schema.DropColumn:
		return fmt.Sprintf(d.dropColumn, dir.Table, dir.Column.Name), nil
	case schema.CreateSpatialIndex:
		return d.spatialIndex(dir.Table), nil
	}
	return "", fmt.Errorf("unsupported directive %v", dir.Kind)
}

func (d *sqlDialect) Insert(table string, row schema.Row) string {
	values := make([]string, 0, len(row.Fields)+1)
	for _, f := range row.Fields {
		values = append(values, d.literal(f.Value))
	}
	values = append(values, d.point(row.Point))

	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(row.Columns(), ", "), strings.Join(values, ", "))
}

func (d *sqlDialect) literal(v attribute.Value) string {
	switch v.Kind {
	case attribute.Integer:
		return v.String()
	default:
		return d.quote(v.String())
	}
}

// coord formats a coordinate with the shortest exact representation.
func coord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quoteStandard(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func defaultPointWKT() string {
	return wkt.MarshalString(orb.Point{schema.DefaultGeometryX, schema.DefaultGeometryY})
}

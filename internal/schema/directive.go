package schema

import (
	"fmt"

	"github.com/tordrt/polyseed/internal/attribute"
)

// DirectiveKind is one structural operation on the destination table.
type DirectiveKind int

const (
	CreateTable DirectiveKind = iota
	DropTableIfExists
	ClearRows
	AddColumn
	DropColumn
	CreateSpatialIndex
)

func (k DirectiveKind) String() string {
	switch k {
	case CreateTable:
		return "create-table"
	case DropTableIfExists:
		return "drop-table-if-exists"
	case ClearRows:
		return "clear-table-rows"
	case AddColumn:
		return "add-column"
	case DropColumn:
		return "drop-column"
	case CreateSpatialIndex:
		return "create-spatial-index"
	default:
		return fmt.Sprintf("DirectiveKind(%d)", int(k))
	}
}

// Directive is a schema operation. Table is always set; Column is set for
// AddColumn and DropColumn; Columns is set for CreateTable.
type Directive struct {
	Kind    DirectiveKind
	Table   string
	Column  Column
	Columns []Column
}

func (d Directive) String() string {
	switch d.Kind {
	case AddColumn, DropColumn:
		return fmt.Sprintf("%s %s.%s", d.Kind, d.Table, d.Column.Name)
	default:
		return fmt.Sprintf("%s %s", d.Kind, d.Table)
	}
}

// Intent is what the user asked to do with the destination table.
type Intent struct {
	// NewTable creates the table, replacing any existing one.
	NewTable bool
	// Clear deletes all rows of a reused table first.
	Clear bool
}

// Layout controls when columns of inactive attributes are dropped.
type Layout string

const (
	// LayoutPrune drops inactive columns before any row is written.
	LayoutPrune Layout = "prune"
	// LayoutDeferred populates the table first and drops inactive columns
	// afterwards.
	LayoutDeferred Layout = "deferred"
)

// ParseLayout maps a configuration value to a Layout. Empty means prune.
func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutPrune:
		return LayoutPrune, nil
	case LayoutDeferred:
		return LayoutDeferred, nil
	}
	return "", fmt.Errorf("unknown layout %q (must be %q or %q)", s, LayoutPrune, LayoutDeferred)
}

// Plan is the ordered directive stream of one run. Before is applied
// ahead of the row inserts and After once every row is written.
type Plan struct {
	Before []Directive
	After  []Directive
}

// All returns every directive in application order.
func (p Plan) All() []Directive {
	out := make([]Directive, 0, len(p.Before)+len(p.After))
	out = append(out, p.Before...)
	return append(out, p.After...)
}

// BuildPlan derives the directives for one run from the active attributes
// and the user's intent. Drop and clear come before create, create before
// any alter, and deferred drops after the inserts.
func BuildPlan(table string, active attribute.Set, intent Intent, layout Layout) Plan {
	var p Plan

	if intent.NewTable {
		full := FullTable(table)
		p.Before = append(p.Before,
			Directive{Kind: CreateTable, Table: table, Columns: full.Columns},
			Directive{Kind: CreateSpatialIndex, Table: table},
		)
	} else {
		if intent.Clear {
			p.Before = append(p.Before, Directive{Kind: ClearRows, Table: table})
		}
		for _, k := range active.Kinds() {
			p.Before = append(p.Before, Directive{Kind: AddColumn, Table: table, Column: AttributeColumn(k)})
		}
	}

	var drops []Directive
	for _, k := range attribute.Kinds {
		if !active.Has(k) {
			drops = append(drops, Directive{Kind: DropColumn, Table: table, Column: AttributeColumn(k)})
		}
	}

	if layout == LayoutDeferred {
		p.After = append(p.After, drops...)
	} else {
		p.Before = append(p.Before, drops...)
	}
	return p
}

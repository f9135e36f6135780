// Package lineage resolves the physical table and column behind every output
// column of a SELECT statement.
//
// Resolution is best effort. Aliases, nested subqueries, CTEs and wildcards
// are followed; an unqualified column over several tables resolves to an
// OrTable of every candidate, and anything that cannot be traced is left out
// of the result rather than guessed.
package lineage

import (
	"strings"
)

// TableRef is either a *Table or an *OrTable.
type TableRef interface {
	// Candidates lists the tables the reference may point at.
	Candidates() []*Table
	String() string
}

// Table is a physical table. Names are upper-cased.
type Table struct {
	Name   string
	Schema string
	Alias  string
}

// Candidates returns the table itself.
func (t *Table) Candidates() []*Table { return []*Table{t} }

// QualifiedName returns SCHEMA.NAME, or NAME without a schema.
func (t *Table) QualifiedName() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

func (t *Table) String() string {
	if t.Alias == "" {
		return t.QualifiedName()
	}
	return t.QualifiedName() + " " + t.Alias
}

// OrTable is a column that could belong to any of several tables.
type OrTable struct {
	Tables []*Table
}

// Candidates returns every table in the disjunction.
func (o *OrTable) Candidates() []*Table { return o.Tables }

func (o *OrTable) String() string {
	names := make([]string, len(o.Tables))
	for i, t := range o.Tables {
		names[i] = t.String()
	}
	return "(" + strings.Join(names, " OR ") + ")"
}

// Column is a resolved output column. Name is the physical column name, "*"
// for an unexpanded wildcard; Alias is the output name when one was given.
type Column struct {
	Name  string
	Alias string
	Table TableRef
}

func (c Column) String() string {
	s := c.Table.String() + "." + c.Name
	if c.Alias != "" {
		s += " AS " + c.Alias
	}
	return s
}

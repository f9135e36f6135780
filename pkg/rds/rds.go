// Package rds declares the relational schema of the MySQL catalog sink.
// Entity records name one of these tables and the MySQL publisher creates
// them from the DDL rendered here.
package rds

import (
	"fmt"
	"sort"
	"strings"
)

// Column is one column of a sink table.
type Column struct {
	Name    string
	SQLType string
}

// Table is a predeclared sink table.
type Table struct {
	Name       string
	Columns    []Column
	PrimaryKey []string
}

// ColumnNames returns column names in declaration order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Has reports whether the table declares column.
func (t *Table) Has(column string) bool {
	_, ok := t.Column(column)
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// IsKey reports whether column is part of the primary key.
func (t *Table) IsKey(column string) bool {
	for _, k := range t.PrimaryKey {
		if k == column {
			return true
		}
	}
	return false
}

// DDL renders a CREATE TABLE IF NOT EXISTS statement.
func (t *Table) DDL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS `%s` (\n", t.Name)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, "  `%s` %s,\n", c.Name, c.SQLType)
	}
	quoted := make([]string, len(t.PrimaryKey))
	for i, k := range t.PrimaryKey {
		quoted[i] = "`" + k + "`"
	}
	fmt.Fprintf(&b, "  PRIMARY KEY (%s)\n) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4", strings.Join(quoted, ", "))
	return b.String()
}

var registry = map[string]*Table{}

func declare(name string, pk []string, cols ...Column) string {
	registry[name] = &Table{Name: name, Columns: cols, PrimaryKey: pk}
	return name
}

// Lookup returns the declared table.
func Lookup(name string) (*Table, bool) {
	t, ok := registry[name]
	return t, ok
}

// Tables returns all declared tables sorted by name.
func Tables() []*Table {
	out := make([]*Table, 0, len(registry))
	for _, t := range registry {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func key(name string) Column     { return Column{Name: name, SQLType: "VARCHAR(1024) NOT NULL"} }
func str(name string) Column     { return Column{Name: name, SQLType: "VARCHAR(1024)"} }
func text(name string) Column    { return Column{Name: name, SQLType: "MEDIUMTEXT"} }
func long(name string) Column    { return Column{Name: name, SQLType: "BIGINT"} }
func boolean(name string) Column { return Column{Name: name, SQLType: "BOOLEAN"} }
func double(name string) Column  { return Column{Name: name, SQLType: "DOUBLE"} }
func integer(name string) Column { return Column{Name: name, SQLType: "INT"} }
func rk() []string               { return []string{"rk"} }
func pair(a, b string) []string  { return []string{a, b} }

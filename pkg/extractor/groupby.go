package extractor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/models"
)

// ColumnRow is one column of one table as returned by a metadata query.
type ColumnRow struct {
	Cluster           string
	Schema            string
	Table             string
	TableDescription  string
	IsView            bool
	Column            string
	ColumnType        string
	ColumnDescription string
	SortOrder         int
}

func (r *ColumnRow) sameTable(o *ColumnRow) bool {
	return r.Cluster == o.Cluster && r.Schema == o.Schema && r.Table == o.Table
}

// RowIterator yields column rows; a nil row ends the stream.
type RowIterator interface {
	Next(ctx context.Context) (*ColumnRow, error)
}

// SliceRows iterates over rows held in memory.
type SliceRows struct {
	rows []*ColumnRow
	pos  int
}

// NewSliceRows wraps rows.
func NewSliceRows(rows ...*ColumnRow) *SliceRows {
	return &SliceRows{rows: rows}
}

// Next implements RowIterator.
func (s *SliceRows) Next(context.Context) (*ColumnRow, error) {
	if s.pos >= len(s.rows) {
		return nil, nil
	}
	r := s.rows[s.pos]
	s.pos++
	return r, nil
}

// TableGrouper folds runs of rows sharing (cluster, schema, table) into one
// TableMetadata. Rows must arrive sorted by that triple; an unsorted stream
// yields the same table more than once.
type TableGrouper struct {
	database string
	rows     RowIterator
	opts     []models.TableOption
	pending  *ColumnRow
	done     bool
}

// GroupTables builds a grouper over rows. Every table gets database as its
// database and opts as its options.
func GroupTables(database string, rows RowIterator, opts ...models.TableOption) *TableGrouper {
	return &TableGrouper{database: database, rows: rows, opts: opts}
}

// Next returns the next table, or nil once the rows are exhausted.
func (g *TableGrouper) Next(ctx context.Context) (*models.TableMetadata, error) {
	if g.done {
		return nil, nil
	}

	first := g.pending
	g.pending = nil
	if first == nil {
		r, err := g.rows.Next(ctx)
		if err != nil {
			return nil, err
		}
		if r == nil {
			g.done = true
			return nil, nil
		}
		first = r
	}

	last := first
	columns := []*models.ColumnMetadata{columnFromRow(first)}
	for {
		r, err := g.rows.Next(ctx)
		if err != nil {
			return nil, err
		}
		if r == nil {
			g.done = true
			break
		}
		if !r.sameTable(first) {
			g.pending = r
			break
		}
		columns = append(columns, columnFromRow(r))
		last = r
	}

	// table level fields come from the last row of the run
	return models.NewTableMetadata(g.database, last.Cluster, last.Schema, last.Table,
		last.TableDescription, columns, last.IsView, nil, g.opts...)
}

func columnFromRow(r *ColumnRow) *models.ColumnMetadata {
	return models.NewColumnMetadata(r.Column, r.ColumnType, r.ColumnDescription, r.SortOrder)
}

// scanner is the subset of *sql.Rows and pgx.Rows the row adapter needs.
type scanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// scanRows adapts a result set whose columns are, in order: cluster, schema,
// name, description, col_name, col_type, col_description, col_sort_order,
// is_view.
type scanRows struct {
	rows scanner
}

func (s *scanRows) Next(context.Context) (*ColumnRow, error) {
	if !s.rows.Next() {
		if err := s.rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate metadata rows: %w", err)
		}
		return nil, nil
	}

	var (
		cluster, schema, name, colName, colType sql.NullString
		desc, colDesc                           sql.NullString
		sortOrder                               sql.NullInt64
		isView                                  sql.NullBool
	)
	if err := s.rows.Scan(&cluster, &schema, &name, &desc, &colName, &colType, &colDesc, &sortOrder, &isView); err != nil {
		return nil, fmt.Errorf("scan metadata row: %w", err)
	}
	return &ColumnRow{
		Cluster:           cluster.String,
		Schema:            schema.String,
		Table:             name.String,
		TableDescription:  desc.String,
		IsView:            isView.Bool,
		Column:            colName.String,
		ColumnType:        colType.String,
		ColumnDescription: colDesc.String,
		SortOrder:         int(sortOrder.Int64),
	}, nil
}

package models

import (
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	DownstreamRelationType = "DOWNSTREAM"
	UpstreamRelationType   = "UPSTREAM"
)

// Lineage links one table or column to the ones derived from it.
type Lineage struct {
	Label      string
	Key        string
	Downstream []string

	table string
	cols  [2]string

	producer
}

// NewTableLineage links a table key to its downstream table keys.
func NewTableLineage(tableKey string, downstream []string) (*Lineage, error) {
	return newLineage(TableLabel, tableKey, downstream, rds.TableLineage, "table_source_rk", "table_target_rk")
}

// NewColumnLineage links a column key to its downstream column keys.
func NewColumnLineage(columnKey string, downstream []string) (*Lineage, error) {
	return newLineage(ColumnLabel, columnKey, downstream, rds.ColumnLineage, "column_source_rk", "column_target_rk")
}

func newLineage(label, key string, downstream []string, table, source, target string) (*Lineage, error) {
	if key == "" {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s lineage requires a key", label)
	}
	if len(downstream) == 0 {
		return nil, errors.Newf(errors.ErrorTypeValidation, "%s lineage requires at least one downstream key", label).
			WithDetail("key", key)
	}
	l := &Lineage{Label: label, Key: key, Downstream: downstream, table: table, cols: [2]string{source, target}}
	l.init(nil, l.relations, l.records)
	return l, nil
}

func (l *Lineage) relations() []*graph.Relationship {
	out := make([]*graph.Relationship, 0, len(l.Downstream))
	for _, d := range l.Downstream {
		out = append(out, relation(l.Label, l.Key, l.Label, d, DownstreamRelationType, UpstreamRelationType))
	}
	return out
}

func (l *Lineage) records() []*graph.Record {
	out := make([]*graph.Record, 0, len(l.Downstream))
	for _, d := range l.Downstream {
		out = append(out, record(l.table, graph.Attributes{
			l.cols[0]: graph.String(l.Key),
			l.cols[1]: graph.String(d),
		}))
	}
	return out
}

package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	ReadRelationType        = "READ"
	ReadReverseRelationType = "READ_BY"
	ReadCountAttribute      = "read_count"
)

// ColumnReader is a read count of one user over one table column. Column
// may be "*" when only the table is known.
type ColumnReader struct {
	Database  string
	Cluster   string
	Schema    string
	Table     string
	Column    string
	UserEmail string
	ReadCount int64
}

// TableKey returns the key of the table read.
func (r ColumnReader) TableKey() string {
	return TableKey(r.Database, r.Cluster, r.Schema, r.Table)
}

// TableColumnUsage carries a batch of read counts.
type TableColumnUsage struct {
	Readers []ColumnReader

	producer
}

// NewTableColumnUsage builds a usage entity.
func NewTableColumnUsage(readers []ColumnReader) *TableColumnUsage {
	u := &TableColumnUsage{Readers: readers}
	u.init(u.nodes, u.relations, u.records)
	return u
}

func (u *TableColumnUsage) nodes() []*graph.Node {
	seen := make(map[string]struct{})
	var out []*graph.Node
	for _, r := range u.Readers {
		if _, ok := seen[r.UserEmail]; ok {
			continue
		}
		seen[r.UserEmail] = struct{}{}
		out = append(out, node(UserKey(r.UserEmail), UserLabel, graph.Attributes{"email": graph.String(r.UserEmail)}))
	}
	return out
}

// tableReads sums read counts per user and table, in first-seen order.
// Column level readers of the same table collapse into one edge.
func (u *TableColumnUsage) tableReads() []ColumnReader {
	type pair struct{ user, table string }
	index := make(map[pair]int)
	var out []ColumnReader
	for _, r := range u.Readers {
		k := pair{r.UserEmail, r.TableKey()}
		if i, ok := index[k]; ok {
			out[i].ReadCount += r.ReadCount
			continue
		}
		index[k] = len(out)
		agg := r
		agg.Column = "*"
		out = append(out, agg)
	}
	return out
}

func (u *TableColumnUsage) relations() []*graph.Relationship {
	reads := u.tableReads()
	out := make([]*graph.Relationship, 0, len(reads))
	for _, r := range reads {
		rel := relation(UserLabel, UserKey(r.UserEmail), TableLabel, r.TableKey(), ReadRelationType, ReadReverseRelationType)
		rel.Attributes[ReadCountAttribute] = graph.Long(r.ReadCount)
		out = append(out, rel)
	}
	return out
}

func (u *TableColumnUsage) records() []*graph.Record {
	var out []*graph.Record
	for _, r := range u.tableReads() {
		out = append(out,
			record(rds.User, graph.Attributes{"rk": graph.String(UserKey(r.UserEmail)), "email": graph.String(r.UserEmail)}),
			record(rds.TableUsage, graph.Attributes{
				"user_rk":          graph.String(UserKey(r.UserEmail)),
				"table_rk":         graph.String(r.TableKey()),
				ReadCountAttribute: graph.Long(r.ReadCount),
			}),
		)
	}
	return out
}

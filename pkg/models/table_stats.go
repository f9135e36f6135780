package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	TimestampLabel = "Timestamp"
	StatLabel      = "Stat"

	LastUpdatedRelationType        = "LAST_UPDATED_AT"
	LastUpdatedReverseRelationType = "LAST_UPDATED_TIME_OF"
	StatRelationType               = "STAT"
	StatReverseRelationType        = "STAT_OF"
)

// TableLastUpdated records when a table last changed, in epoch seconds.
type TableLastUpdated struct {
	Database    string
	Cluster     string
	Schema      string
	Table       string
	LastUpdated int64

	producer
}

// NewTableLastUpdated builds a last-updated entity.
func NewTableLastUpdated(database, cluster, schema, table string, lastUpdated int64) *TableLastUpdated {
	t := &TableLastUpdated{Database: database, Cluster: cluster, Schema: schema, Table: table, LastUpdated: lastUpdated}
	t.init(t.nodes, t.relations, t.records)
	return t
}

func (t *TableLastUpdated) tableKey() string {
	return TableKey(t.Database, t.Cluster, t.Schema, t.Table)
}

// Key formats {table_key}/timestamp.
func (t *TableLastUpdated) Key() string {
	return t.tableKey() + "/timestamp"
}

func (t *TableLastUpdated) nodes() []*graph.Node {
	return []*graph.Node{node(t.Key(), TimestampLabel, graph.Attributes{
		"last_updated_timestamp": graph.Long(t.LastUpdated),
		"timestamp":              graph.Long(t.LastUpdated),
		"name":                   graph.String("last_updated_timestamp"),
	})}
}

func (t *TableLastUpdated) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(TableLabel, t.tableKey(), TimestampLabel, t.Key(),
		LastUpdatedRelationType, LastUpdatedReverseRelationType)}
}

func (t *TableLastUpdated) records() []*graph.Record {
	return []*graph.Record{record(rds.TableTimestamp, graph.Attributes{
		"rk":                     graph.String(t.Key()),
		"last_updated_timestamp": graph.Long(t.LastUpdated),
		"timestamp":              graph.Long(t.LastUpdated),
		"table_rk":               graph.String(t.tableKey()),
	})}
}

// TableColumnStats is one statistic of one column over an epoch window.
type TableColumnStats struct {
	Database   string
	Cluster    string
	Schema     string
	Table      string
	Column     string
	StatName   string
	StatValue  string
	StartEpoch string
	EndEpoch   string

	producer
}

// NewTableColumnStats builds a column statistic entity.
func NewTableColumnStats(database, cluster, schema, table, column, statName, statValue, startEpoch, endEpoch string) *TableColumnStats {
	s := &TableColumnStats{
		Database:   database,
		Cluster:    cluster,
		Schema:     schema,
		Table:      table,
		Column:     column,
		StatName:   statName,
		StatValue:  statValue,
		StartEpoch: startEpoch,
		EndEpoch:   endEpoch,
	}
	s.init(s.nodes, s.relations, s.records)
	return s
}

func (s *TableColumnStats) columnKey() string {
	return ColumnKey(TableKey(s.Database, s.Cluster, s.Schema, s.Table), s.Column)
}

// Key formats {table_key}/{column}/{stat}/.
func (s *TableColumnStats) Key() string {
	return s.columnKey() + "/" + s.StatName + "/"
}

func (s *TableColumnStats) nodes() []*graph.Node {
	return []*graph.Node{node(s.Key(), StatLabel, graph.Attributes{
		"stat_val":    graph.String(s.StatValue),
		"stat_type":   graph.String(s.StatName),
		"start_epoch": graph.String(s.StartEpoch),
		"end_epoch":   graph.String(s.EndEpoch),
	})}
}

func (s *TableColumnStats) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(ColumnLabel, s.columnKey(), StatLabel, s.Key(),
		StatRelationType, StatReverseRelationType)}
}

func (s *TableColumnStats) records() []*graph.Record {
	return []*graph.Record{record(rds.ColumnStat, graph.Attributes{
		"rk":          graph.String(s.Key()),
		"stat_type":   graph.String(s.StatName),
		"stat_val":    graph.String(s.StatValue),
		"start_epoch": graph.String(s.StartEpoch),
		"end_epoch":   graph.String(s.EndEpoch),
		"column_rk":   graph.String(s.columnKey()),
	})}
}

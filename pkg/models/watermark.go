package models

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	WatermarkLabel = "Watermark"

	WatermarkRelationType        = "BELONG_TO_TABLE"
	WatermarkReverseRelationType = "WATERMARK"

	LowWatermark  = "low_watermark"
	HighWatermark = "high_watermark"
)

// PartitionPart is one level of a partition spec.
type PartitionPart struct {
	Key   string
	Value string
}

// Watermark is the low or high partition of a table.
type Watermark struct {
	CreateTime string
	Database   string
	Cluster    string
	Schema     string
	Table      string
	PartType   string
	Parts      []PartitionPart

	producer
}

// NewWatermark builds a watermark; partType must be low_watermark or
// high_watermark. partition is a Hive partition path such as
// ds=2017-09-18/feature_id=9; every level must be key=value.
func NewWatermark(createTime, database, cluster, schema, table, partition, partType string) (*Watermark, error) {
	if partType != LowWatermark && partType != HighWatermark {
		return nil, errors.Newf(errors.ErrorTypeValidation, "unknown watermark part type %q", partType)
	}
	parts, err := splitPartition(partition)
	if err != nil {
		return nil, err
	}
	if cluster == "" {
		cluster = DefaultCluster
	}
	w := &Watermark{
		CreateTime: createTime,
		Database:   database,
		Cluster:    cluster,
		Schema:     schema,
		Table:      table,
		PartType:   partType,
		Parts:      parts,
	}
	w.init(w.nodes, w.relations, w.records)
	return w, nil
}

func splitPartition(partition string) ([]PartitionPart, error) {
	var parts []PartitionPart
	for _, level := range strings.Split(partition, "/") {
		key, value, ok := strings.Cut(level, "=")
		if !ok || key == "" {
			return nil, errors.Newf(errors.ErrorTypeValidation, "partition %q: level %q is not key=value", partition, level)
		}
		parts = append(parts, PartitionPart{Key: key, Value: value})
	}
	return parts, nil
}

// Key formats {db}://{cluster}.{schema}/{table}/{part_type}/.
func (w *Watermark) Key() string {
	return fmt.Sprintf("%s/%s/", TableKey(w.Database, w.Cluster, w.Schema, w.Table), w.PartType)
}

func (w *Watermark) tableKey() string {
	return TableKey(w.Database, w.Cluster, w.Schema, w.Table)
}

// nodes emits one node per partition level, all under the watermark key.
func (w *Watermark) nodes() []*graph.Node {
	out := make([]*graph.Node, 0, len(w.Parts))
	for _, p := range w.Parts {
		out = append(out, node(w.Key(), WatermarkLabel, graph.Attributes{
			"partition_key":   graph.String(p.Key),
			"partition_value": graph.String(p.Value),
			"create_time":     graph.String(w.CreateTime),
		}))
	}
	return out
}

func (w *Watermark) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(WatermarkLabel, w.Key(), TableLabel, w.tableKey(),
		WatermarkRelationType, WatermarkReverseRelationType)}
}

func (w *Watermark) records() []*graph.Record {
	out := make([]*graph.Record, 0, len(w.Parts))
	for _, p := range w.Parts {
		out = append(out, record(rds.TableWatermark, graph.Attributes{
			"rk":              graph.String(w.Key()),
			"partition_key":   graph.String(p.Key),
			"partition_value": graph.String(p.Value),
			"create_time":     graph.String(w.CreateTime),
			"table_rk":        graph.String(w.tableKey()),
		}))
	}
	return out
}

package models

import (
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	ClusterRelationType        = "CLUSTER"
	ClusterReverseRelationType = "CLUSTER_OF"
	SchemaRelationType         = "SCHEMA"
	SchemaReverseRelationType  = "SCHEMA_OF"
	TableRelationType          = "TABLE"
	TableReverseRelationType   = "TABLE_OF"
	ColumnRelationType         = "COLUMN"
	ColumnReverseRelationType  = "COLUMN_OF"
)

// ColumnMetadata is one column of a table. Its key is derived from the
// owning table's key once the column is attached to a TableMetadata.
type ColumnMetadata struct {
	Name        string
	Type        string
	Description string
	SortOrder   int
	Badges      []string

	// TypeMetadata is the parsed form of Type for complex types.
	TypeMetadata TypeMetadata

	key string
}

// NewColumnMetadata builds a column.
func NewColumnMetadata(name, colType, description string, sortOrder int, badges ...string) *ColumnMetadata {
	return &ColumnMetadata{
		Name:        name,
		Type:        colType,
		Description: description,
		SortOrder:   sortOrder,
		Badges:      badges,
	}
}

// Key returns the column key, empty until the column joins a table.
func (c *ColumnMetadata) Key() string {
	return c.key
}

// TableMetadata is a table with its columns and the database, cluster and
// schema nodes it lives under.
type TableMetadata struct {
	Database    string
	Cluster     string
	Schema      string
	Name        string
	Description string
	Columns     []*ColumnMetadata
	IsView      bool
	Tags        []string

	descriptionSource string
	programmatic      []*DescriptionMetadata
	attributes        graph.Attributes
	dedup             *DedupSet

	producer
}

// TableOption customizes a TableMetadata.
type TableOption func(*TableMetadata)

// WithDescriptionSource marks the table description as programmatic.
func WithDescriptionSource(source string) TableOption {
	return func(t *TableMetadata) { t.descriptionSource = source }
}

// WithProgrammaticDescription attaches an extra description from source.
func WithProgrammaticDescription(source, text string) TableOption {
	return func(t *TableMetadata) {
		t.programmatic = append(t.programmatic, newDescription(text, source, "", TableLabel))
	}
}

// WithTableAttributes adds attributes to the table node.
func WithTableAttributes(attrs graph.Attributes) TableOption {
	return func(t *TableMetadata) {
		for k, v := range attrs {
			t.attributes[k] = v
		}
	}
}

// WithDedup skips database, cluster and schema nodes already emitted by
// another table of the same job.
func WithDedup(d *DedupSet) TableOption {
	return func(t *TableMetadata) { t.dedup = d }
}

// NewTableMetadata builds a table entity. Database, cluster, schema and name
// are required.
func NewTableMetadata(database, cluster, schema, name, description string, columns []*ColumnMetadata,
	isView bool, tags []string, opts ...TableOption) (*TableMetadata, error) {
	if database == "" || cluster == "" || schema == "" || name == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "table requires database, cluster, schema and name").
			WithDetail("database", database).
			WithDetail("cluster", cluster).
			WithDetail("schema", schema).
			WithDetail("name", name)
	}

	t := &TableMetadata{
		Database:          database,
		Cluster:           cluster,
		Schema:            schema,
		Name:              name,
		Description:       description,
		Columns:           columns,
		IsView:            isView,
		Tags:              NormalizeTags(tags),
		descriptionSource: DefaultDescriptionSource,
		attributes:        graph.Attributes{},
	}
	for _, opt := range opts {
		opt(t)
	}

	key := t.Key()
	for _, d := range t.programmatic {
		d.StartKey = key
	}
	for _, c := range t.Columns {
		c.key = ColumnKey(key, c.Name)
	}
	t.init(t.nodes, t.relations, t.records)
	return t, nil
}

// Key returns {db}://{cluster}.{schema}/{table}.
func (t *TableMetadata) Key() string {
	return TableKey(t.Database, t.Cluster, t.Schema, t.Name)
}

func (t *TableMetadata) descriptions() []*DescriptionMetadata {
	var out []*DescriptionMetadata
	if t.Description != "" {
		out = append(out, newDescription(t.Description, t.descriptionSource, t.Key(), TableLabel))
	}
	return append(out, t.programmatic...)
}

func (t *TableMetadata) columnBadges(c *ColumnMetadata) []Badge {
	out := make([]Badge, 0, len(c.Badges))
	for _, b := range c.Badges {
		out = append(out, Badge{Name: b, Category: ColumnBadgeCategory})
	}
	return out
}

// hierarchy reports which of database, cluster and schema this table should
// emit. Without a dedup set all three are emitted every time.
func (t *TableMetadata) hierarchy() (db, cluster, schema bool) {
	return t.dedup.FirstSeen(DatabaseKey(t.Database)),
		t.dedup.FirstSeen(ClusterKey(t.Database, t.Cluster)),
		t.dedup.FirstSeen(SchemaKey(t.Database, t.Cluster, t.Schema))
}

func (t *TableMetadata) nodes() []*graph.Node {
	attrs := t.attributes.Clone()
	attrs["name"] = graph.String(t.Name)
	attrs["is_view"] = graph.Bool(t.IsView)

	out := []*graph.Node{node(t.Key(), TableLabel, attrs)}
	for _, d := range t.descriptions() {
		out = append(out, d.Node())
	}
	for _, tag := range t.Tags {
		out = append(out, tagNode(tag, DefaultTagType))
	}

	for _, c := range t.Columns {
		out = append(out, node(c.Key(), ColumnLabel, graph.Attributes{
			"name":       graph.String(c.Name),
			"col_type":   graph.String(c.Type),
			"sort_order": graph.Long(int64(c.SortOrder)),
		}))
		if c.Description != "" {
			out = append(out, newDescription(c.Description, DefaultDescriptionSource, c.Key(), ColumnLabel).Node())
		}
		for _, b := range t.columnBadges(c) {
			out = append(out, b.node())
		}
		if c.TypeMetadata != nil {
			typeNodes, _, _ := typeItems(c.TypeMetadata)
			out = append(out, typeNodes...)
		}
	}

	db, cluster, schema := t.hierarchy()
	if db {
		out = append(out, node(DatabaseKey(t.Database), DatabaseLabel, graph.Attributes{"name": graph.String(t.Database)}))
	}
	if cluster {
		out = append(out, node(ClusterKey(t.Database, t.Cluster), ClusterLabel, graph.Attributes{"name": graph.String(t.Cluster)}))
	}
	if schema {
		out = append(out, node(SchemaKey(t.Database, t.Cluster, t.Schema), SchemaLabel, graph.Attributes{"name": graph.String(t.Schema)}))
	}
	return out
}

func (t *TableMetadata) relations() []*graph.Relationship {
	key := t.Key()
	schemaKey := SchemaKey(t.Database, t.Cluster, t.Schema)

	out := []*graph.Relationship{
		relation(SchemaLabel, schemaKey, TableLabel, key, TableRelationType, TableReverseRelationType),
	}
	for _, d := range t.descriptions() {
		out = append(out, d.Relation())
	}
	for _, tag := range t.Tags {
		out = append(out, relation(TableLabel, key, TagLabel, tag, TagRelationType, TagReverseRelationType))
	}

	for _, c := range t.Columns {
		out = append(out, relation(TableLabel, key, ColumnLabel, c.Key(), ColumnRelationType, ColumnReverseRelationType))
		if c.Description != "" {
			out = append(out, newDescription(c.Description, DefaultDescriptionSource, c.Key(), ColumnLabel).Relation())
		}
		for _, b := range t.columnBadges(c) {
			out = append(out, relation(ColumnLabel, c.Key(), BadgeLabel, b.Key(), BadgeRelationType, BadgeReverseRelationType))
		}
		if c.TypeMetadata != nil {
			_, typeRels, _ := typeItems(c.TypeMetadata)
			out = append(out, typeRels...)
		}
	}

	out = append(out,
		relation(DatabaseLabel, DatabaseKey(t.Database), ClusterLabel, ClusterKey(t.Database, t.Cluster),
			ClusterRelationType, ClusterReverseRelationType),
		relation(ClusterLabel, ClusterKey(t.Database, t.Cluster), SchemaLabel, schemaKey,
			SchemaRelationType, SchemaReverseRelationType),
	)
	return out
}

func (t *TableMetadata) records() []*graph.Record {
	key := t.Key()
	dbKey := DatabaseKey(t.Database)
	clusterKey := ClusterKey(t.Database, t.Cluster)
	schemaKey := SchemaKey(t.Database, t.Cluster, t.Schema)

	out := []*graph.Record{
		record(rds.DatabaseMetadata, graph.Attributes{
			"rk": graph.String(dbKey), "name": graph.String(t.Database),
		}),
		record(rds.ClusterMetadata, graph.Attributes{
			"rk": graph.String(clusterKey), "name": graph.String(t.Cluster), "database_rk": graph.String(dbKey),
		}),
		record(rds.SchemaMetadata, graph.Attributes{
			"rk": graph.String(schemaKey), "name": graph.String(t.Schema), "cluster_rk": graph.String(clusterKey),
		}),
		record(rds.TableMetadata, graph.Attributes{
			"rk":        graph.String(key),
			"name":      graph.String(t.Name),
			"is_view":   graph.Bool(t.IsView),
			"schema_rk": graph.String(schemaKey),
		}),
	}
	for _, d := range t.descriptions() {
		out = append(out, d.record(rds.TableDescription, "table_rk"))
	}
	for _, tag := range t.Tags {
		out = append(out,
			tagRecord(tag, DefaultTagType),
			record(rds.TableTag, graph.Attributes{"table_rk": graph.String(key), "tag_rk": graph.String(tag)}),
		)
	}

	for _, c := range t.Columns {
		out = append(out, record(rds.ColumnMetadata, graph.Attributes{
			"rk":         graph.String(c.Key()),
			"name":       graph.String(c.Name),
			"type":       graph.String(c.Type),
			"sort_order": graph.Long(int64(c.SortOrder)),
			"table_rk":   graph.String(key),
		}))
		if c.Description != "" {
			d := newDescription(c.Description, DefaultDescriptionSource, c.Key(), ColumnLabel)
			out = append(out, d.record(rds.ColumnDescription, "column_rk"))
		}
		for _, b := range t.columnBadges(c) {
			out = append(out, b.record(), record(rds.ColumnBadge, graph.Attributes{
				"column_rk": graph.String(c.Key()),
				"badge_rk":  graph.String(b.Key()),
			}))
		}
		if c.TypeMetadata != nil {
			_, _, typeRecords := typeItems(c.TypeMetadata)
			out = append(out, typeRecords...)
		}
	}
	return out
}

package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/ajitpratap0/databuilder/pkg/serializers"
	"go.uber.org/zap"
)

// Loader scopes.
const (
	Neo4jCSVScope   = "fs_neo4j_csv"
	NeptuneCSVScope = "fs_neptune_csv"
	AtlasCSVScope   = "fs_atlas_csv"
	MySQLCSVScope   = "fs_mysql_csv"

	// CompressKey selects the output codec: none, gzip, zstd, lz4 or s2.
	CompressKey = "compress"
	// EntityDirKey is the Atlas entity output directory.
	EntityDirKey = "entity_dir_path"
	// RecordDirKey is the MySQL record output directory.
	RecordDirKey = "record_dir_path"
)

var (
	neo4jNodeHeader         = []string{serializers.NodeKey, serializers.NodeLabel}
	neo4jRelationshipHeader = []string{
		serializers.RelationStartLabel, serializers.RelationEndLabel,
		serializers.RelationStartKey, serializers.RelationEndKey,
		serializers.RelationType, serializers.RelationReverse,
	}
	neptuneNodeHeader         = []string{serializers.NeptuneID, serializers.NeptuneLabel}
	neptuneRelationshipHeader = []string{serializers.NeptuneID, serializers.NeptuneFrom, serializers.NeptuneTo, serializers.NeptuneLabel}
	atlasEntityHeader         = []string{serializers.AtlasOperation, serializers.AtlasTypeName, serializers.AtlasAttributes, serializers.AtlasRelationships}
	atlasRelationshipHeader   = []string{
		serializers.AtlasRelationshipType,
		serializers.AtlasEntityType1, serializers.AtlasQualifiedName1,
		serializers.AtlasEntityType2, serializers.AtlasQualifiedName2,
	}
)

// graphLoader drains graph entities into a node sink and a relationship
// sink. Concrete loaders provide the row conversion.
type graphLoader struct {
	scope string
	nodes *csvSink
	rels  *csvSink

	writeNode func(n *graph.Node) error
	writeRel  func(r *graph.Relationship) error
	logger    *zap.Logger
}

func (l *graphLoader) init(scope string, nodeDir, relDir string, compress compression.Algorithm) {
	l.scope = scope
	l.nodes = newCSVSink(nodeDir, compress)
	l.rels = newCSVSink(relDir, compress)
	l.logger = logger.Get().With(zap.String("component", scope))
}

// Load writes every node before every relationship of the entity.
func (l *graphLoader) Load(ctx context.Context, record any) error {
	e, ok := record.(models.GraphSerializable)
	if !ok {
		return notGraph(l.scope, record)
	}
	for n := e.NextNode(); n != nil; n = e.NextNode() {
		if err := l.writeNode(n); err != nil {
			return err
		}
	}
	for r := e.NextRelation(); r != nil; r = e.NextRelation() {
		if err := l.writeRel(r); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// Close flushes both sinks.
func (l *graphLoader) Close() error {
	if l.nodes == nil {
		return nil
	}
	nodeErr := l.nodes.Close()
	relErr := l.rels.Close()
	l.logger.Info("graph files written",
		zap.Int("node_files", len(l.nodes.Files())),
		zap.Int("nodes", l.nodes.Rows()),
		zap.Int("relationship_files", len(l.rels.Files())),
		zap.Int("relationships", l.rels.Rows()))
	if nodeErr != nil {
		return nodeErr
	}
	return relErr
}

// NodeFiles returns the node files written.
func (l *graphLoader) NodeFiles() []string { return l.nodes.Files() }

// RelationshipFiles returns the relationship files written.
func (l *graphLoader) RelationshipFiles() []string { return l.rels.Files() }

// Neo4jCSVLoader writes Neo4j CSV files: {Label}_{n}.csv for nodes and
// {StartLabel}_{EndLabel}_{TYPE}_{n}.csv for relationships.
type Neo4jCSVLoader struct {
	graphLoader
}

// Scope implements Loader.
func (l *Neo4jCSVLoader) Scope() string { return Neo4jCSVScope }

// Init prepares node_dir_path and relationship_dir_path.
func (l *Neo4jCSVLoader) Init(_ context.Context, cfg *config.Config) error {
	nodeDir, err := requireDir(cfg, NodeDirKey)
	if err != nil {
		return err
	}
	relDir, err := requireDir(cfg, RelationshipDirKey)
	if err != nil {
		return err
	}
	algo, err := codec(cfg)
	if err != nil {
		return err
	}
	l.init(Neo4jCSVScope, nodeDir, relDir, algo)
	l.writeNode = func(n *graph.Node) error {
		row, err := serializers.SerializeNode(n)
		if err != nil {
			return err
		}
		return l.nodes.write(n.Label, neo4jNodeHeader, row)
	}
	l.writeRel = func(r *graph.Relationship) error {
		row, err := serializers.SerializeRelationship(r)
		if err != nil {
			return err
		}
		return l.rels.write(relationshipPrefix(r), neo4jRelationshipHeader, row)
	}
	return nil
}

func relationshipPrefix(r *graph.Relationship) string {
	return r.StartLabel + "_" + r.EndLabel + "_" + r.Type
}

// NeptuneCSVLoader writes Neptune bulk loader files, plain or gzipped.
// Every relationship produces a forward and an inverse edge row.
type NeptuneCSVLoader struct {
	graphLoader
	serializer *serializers.NeptuneSerializer

	// now is replaced in tests.
	now func() time.Time
}

// Scope implements Loader.
func (l *NeptuneCSVLoader) Scope() string { return NeptuneCSVScope }

// Init prepares the directories and fixes the extraction timestamp.
func (l *NeptuneCSVLoader) Init(_ context.Context, cfg *config.Config) error {
	nodeDir, err := requireDir(cfg, NodeDirKey)
	if err != nil {
		return err
	}
	relDir, err := requireDir(cfg, RelationshipDirKey)
	if err != nil {
		return err
	}
	if l.now == nil {
		l.now = time.Now
	}
	algo, err := codec(cfg)
	if err != nil {
		return err
	}
	if algo != compression.None && algo != compression.Gzip {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("neptune bulk loads accept gzip only, got %s", algo))
	}
	l.serializer = serializers.NewNeptuneSerializer(l.now())
	l.init(NeptuneCSVScope, nodeDir, relDir, algo)

	l.writeNode = func(n *graph.Node) error {
		row, err := l.serializer.ConvertNode(n)
		if err != nil {
			return err
		}
		return l.nodes.write(n.Label, neptuneNodeHeader, row)
	}
	l.writeRel = func(r *graph.Relationship) error {
		rows, err := l.serializer.ConvertRelationship(r)
		if err != nil {
			return err
		}
		for _, row := range rows {
			if err := l.rels.write(relationshipPrefix(r), neptuneRelationshipHeader, row); err != nil {
				return err
			}
		}
		return nil
	}
	return nil
}

// AtlasCSVLoader writes Atlas entity and relationship import files.
type AtlasCSVLoader struct {
	graphLoader
}

// Scope implements Loader.
func (l *AtlasCSVLoader) Scope() string { return AtlasCSVScope }

// Init prepares entity_dir_path and relationship_dir_path.
func (l *AtlasCSVLoader) Init(_ context.Context, cfg *config.Config) error {
	entityDir, err := requireDir(cfg, EntityDirKey)
	if err != nil {
		return err
	}
	relDir, err := requireDir(cfg, RelationshipDirKey)
	if err != nil {
		return err
	}
	algo, err := codec(cfg)
	if err != nil {
		return err
	}
	l.init(AtlasCSVScope, entityDir, relDir, algo)
	l.writeRel = func(r *graph.Relationship) error {
		rel, err := serializers.AtlasRelationshipFromRelationship(r)
		if err != nil {
			return err
		}
		row, err := serializers.SerializeAtlasRelationship(rel)
		if err != nil {
			return err
		}
		return l.rels.write(rel.RelationshipType, atlasRelationshipHeader, row)
	}
	return nil
}

// Load writes each entity of the record with references to the other
// endpoints of the record's relationships, then the relationship rows.
func (l *AtlasCSVLoader) Load(ctx context.Context, record any) error {
	e, ok := record.(models.GraphSerializable)
	if !ok {
		return notGraph(l.scope, record)
	}
	nodes, rels := models.Drain(e)
	for _, n := range nodes {
		entity, err := serializers.AtlasEntityFromNode(n, rels...)
		if err != nil {
			return err
		}
		row, err := serializers.SerializeAtlasEntity(entity)
		if err != nil {
			return err
		}
		if err := l.nodes.write(entity.TypeName, atlasEntityHeader, row); err != nil {
			return err
		}
	}
	for _, r := range rels {
		if err := l.writeRel(r); err != nil {
			return err
		}
	}
	return ctx.Err()
}

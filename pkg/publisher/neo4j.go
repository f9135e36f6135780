package publisher

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/serializers"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Neo4j publisher settings.
const (
	Neo4jScope = "neo4j"

	Neo4jEndpointKey = "neo4j_endpoint"
	Neo4jUserKey     = "neo4j_user"
	Neo4jPasswordKey = "neo4j_password"
	Neo4jDatabaseKey = "neo4j_database"
)

const (
	nodeMergeTemplate = "UNWIND $rows AS row\n" +
		"MERGE (n:%s {key: row.key})\n" +
		"ON CREATE SET n.published_tag = $tag, n.publisher_created_epoch_ms = timestamp()\n" +
		"SET n += row.props, n.published_tag = $tag, n.publisher_last_updated_epoch_ms = timestamp()"

	relationMergeTemplate = "UNWIND $rows AS row\n" +
		"MATCH (s:%[1]s {key: row.start_key})\n" +
		"MATCH (e:%[2]s {key: row.end_key})\n" +
		"MERGE (s)-[r1:%[3]s]->(e)\n" +
		"SET r1 += row.props, r1.published_tag = $tag, r1.publisher_last_updated_epoch_ms = timestamp()\n" +
		"MERGE (s)<-[r2:%[4]s]-(e)\n" +
		"SET r2 += row.props, r2.published_tag = $tag, r2.publisher_last_updated_epoch_ms = timestamp()"

	uniqueKeyTemplate = "CREATE CONSTRAINT IF NOT EXISTS FOR (n:%s) REQUIRE n.key IS UNIQUE"
)

// cypherRunner executes one write statement.
type cypherRunner interface {
	run(ctx context.Context, query string, params map[string]any) error
	close(ctx context.Context) error
}

type driverRunner struct {
	driver   neo4j.DriverWithContext
	database string
}

func connectNeo4j(ctx context.Context, endpoint, user, password, database string) (cypherRunner, error) {
	auth := neo4j.NoAuth()
	if user != "" {
		auth = neo4j.BasicAuth(user, password, "")
	}
	driver, err := neo4j.NewDriverWithContext(endpoint, auth)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to create neo4j driver")
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to reach neo4j")
	}
	return &driverRunner{driver: driver, database: database}, nil
}

func (d *driverRunner) run(ctx context.Context, query string, params map[string]any) error {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: d.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	_, err := neo4j.ExecuteWrite(ctx, session, func(tx neo4j.ManagedTransaction) (neo4j.ResultSummary, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, fmt.Errorf("run tx: %w", err)
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "neo4j write failed")
	}
	return nil
}

func (d *driverRunner) close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

// Neo4jPublisher merges Neo4j CSV files into a graph. Node files are
// published before relationship files and every relationship is merged in
// both directions.
type Neo4jPublisher struct {
	nodeDir string
	relDir  string
	tag     string
	batch   int

	connect func(ctx context.Context, endpoint, user, password, database string) (cypherRunner, error)
	runner  cypherRunner
	labels  map[string]bool
	logger  *zap.Logger

	nodes     int
	relations int
}

// Scope implements Publisher.
func (p *Neo4jPublisher) Scope() string { return Neo4jScope }

// Init connects to Neo4j.
func (p *Neo4jPublisher) Init(ctx context.Context, cfg *config.Config) error {
	var err error
	if p.nodeDir, err = cfg.RequireString(NodeFilesDirKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, Neo4jScope)
	}
	if p.relDir, err = cfg.RequireString(RelationFilesDirKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, Neo4jScope)
	}
	endpoint, err := cfg.RequireString(Neo4jEndpointKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, Neo4jScope)
	}
	p.tag = cfg.GetString(PublishTagKey, time.Now().UTC().Format("2006-01-02"))
	p.batch = cfg.GetInt(BatchSizeKey, defaultBatchSize)
	p.labels = make(map[string]bool)
	p.logger = logger.Get().With(zap.String("component", Neo4jScope))

	if p.connect == nil {
		p.connect = connectNeo4j
	}
	p.runner, err = p.connect(ctx, endpoint,
		cfg.GetString(Neo4jUserKey, ""), cfg.GetString(Neo4jPasswordKey, ""), cfg.GetString(Neo4jDatabaseKey, ""))
	return err
}

// Publish merges every node file, then every relationship file.
func (p *Neo4jPublisher) Publish(ctx context.Context) error {
	nodeFiles, err := csvFiles(p.nodeDir)
	if err != nil {
		return err
	}
	relFiles, err := csvFiles(p.relDir)
	if err != nil {
		return err
	}

	for _, path := range nodeFiles {
		if err := p.publishNodes(ctx, path); err != nil {
			return err
		}
	}
	for _, path := range relFiles {
		if err := p.publishRelations(ctx, path); err != nil {
			return err
		}
	}
	p.logger.Info("neo4j publish finished",
		zap.String("tag", p.tag),
		zap.Int("nodes", p.nodes),
		zap.Int("relationships", p.relations))
	return nil
}

func (p *Neo4jPublisher) publishNodes(ctx context.Context, path string) error {
	table, err := readCSV(path)
	if err != nil {
		return err
	}
	groups := make(map[string][]map[string]any)
	var order []string
	for _, row := range table.maps() {
		label := row[serializers.NodeLabel]
		if _, ok := groups[label]; !ok {
			order = append(order, label)
		}
		groups[label] = append(groups[label], map[string]any{
			"key":   row[serializers.NodeKey],
			"props": properties(row, serializers.NodeKey, serializers.NodeLabel),
		})
	}

	for _, label := range order {
		if !p.labels[label] {
			if err := p.runner.run(ctx, fmt.Sprintf(uniqueKeyTemplate, quoteName(label)), nil); err != nil {
				return err
			}
			p.labels[label] = true
		}
		stmt := fmt.Sprintf(nodeMergeTemplate, quoteName(label))
		if err := p.runBatches(ctx, stmt, groups[label]); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to publish "+path)
		}
		p.nodes += len(groups[label])
	}
	return nil
}

type relationGroup struct {
	start, end, typ, reverse string
}

func (p *Neo4jPublisher) publishRelations(ctx context.Context, path string) error {
	table, err := readCSV(path)
	if err != nil {
		return err
	}
	groups := make(map[relationGroup][]map[string]any)
	var order []relationGroup
	for _, row := range table.maps() {
		g := relationGroup{
			start:   row[serializers.RelationStartLabel],
			end:     row[serializers.RelationEndLabel],
			typ:     row[serializers.RelationType],
			reverse: row[serializers.RelationReverse],
		}
		if _, ok := groups[g]; !ok {
			order = append(order, g)
		}
		groups[g] = append(groups[g], map[string]any{
			"start_key": row[serializers.RelationStartKey],
			"end_key":   row[serializers.RelationEndKey],
			"props": properties(row,
				serializers.RelationStartKey, serializers.RelationStartLabel,
				serializers.RelationEndKey, serializers.RelationEndLabel,
				serializers.RelationType, serializers.RelationReverse),
		})
	}

	for _, g := range order {
		stmt := fmt.Sprintf(relationMergeTemplate,
			quoteName(g.start), quoteName(g.end), quoteName(g.typ), quoteName(g.reverse))
		if err := p.runBatches(ctx, stmt, groups[g]); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to publish "+path)
		}
		p.relations += len(groups[g])
	}
	return nil
}

func (p *Neo4jPublisher) runBatches(ctx context.Context, stmt string, rows []map[string]any) error {
	for _, w := range batches(len(rows), p.batch) {
		if err := ctx.Err(); err != nil {
			return err
		}
		params := map[string]any{"rows": rows[w[0]:w[1]], "tag": p.tag}
		if err := p.runner.run(ctx, stmt, params); err != nil {
			return err
		}
	}
	return nil
}

// Counts returns the nodes and relationships merged so far.
func (p *Neo4jPublisher) Counts() (nodes, relations int) { return p.nodes, p.relations }

// Close releases the driver.
func (p *Neo4jPublisher) Close() error {
	if p.runner == nil {
		return nil
	}
	return p.runner.close(context.Background())
}

// properties converts the non-structural columns of a row. Columns marked
// :UNQUOTED carry numbers or booleans; empty ones are left unset.
func properties(row map[string]string, structural ...string) map[string]any {
	skip := make(map[string]bool, len(structural))
	for _, s := range structural {
		skip[s] = true
	}
	props := make(map[string]any, len(row))
	for header, v := range row {
		if skip[header] {
			continue
		}
		name, unquoted := strings.CutSuffix(header, serializers.UnquotedSuffix)
		if !unquoted {
			props[name] = v
			continue
		}
		if v == "" {
			continue
		}
		props[name] = unquotedValue(v)
	}
	return props
}

func unquotedValue(v string) any {
	if i, err := strconv.ParseInt(v, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return v
}

// quoteName renders a label or relationship type as a Cypher identifier.
func quoteName(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

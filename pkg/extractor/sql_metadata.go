package extractor

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Configuration keys shared by the SQL metadata extractors.
const (
	ConnStringKey          = "conn_string"
	ClusterConfigKey       = "cluster_key"
	DatabaseConfigKey      = "database_key"
	WhereClauseSuffixKey   = "where_clause_suffix"
	CatalogAsClusterKey    = "use_catalog_as_cluster_name"
	ConnectTimeoutKey      = "connect_timeout"
	defaultConnectTimeout  = 10 * time.Second
	defaultMetadataCluster = "master"
)

// dialect describes how one database exposes its information schema.
type dialect struct {
	scope            string
	database         string
	catalogColumn    string
	catalogAsCluster bool
	where            string
	// render builds the query; clusterSource is a column expression or a
	// quoted literal.
	render func(cfg *config.Config, clusterSource, where string) string
	open   func(ctx context.Context, conn string) (querier, error)
}

// querier runs one statement and hands back a row cursor.
type querier interface {
	query(ctx context.Context, stmt string) (scanner, func(), error)
	Close() error
}

// SQLMetadataExtractor reads table and column metadata from an information
// schema and groups it into TableMetadata entities.
type SQLMetadataExtractor struct {
	dialect  dialect
	database string
	stmt     string
	db       querier
	grouper  *TableGrouper
	release  func()
	dedup    *models.DedupSet
	logger   *zap.Logger
}

func newSQLMetadataExtractor(d dialect) *SQLMetadataExtractor {
	return &SQLMetadataExtractor{dialect: d}
}

// Scope implements Extractor.
func (e *SQLMetadataExtractor) Scope() string { return e.dialect.scope }

// Query returns the rendered metadata statement; empty before Init.
func (e *SQLMetadataExtractor) Query() string { return e.stmt }

// Init renders the metadata query and connects.
func (e *SQLMetadataExtractor) Init(ctx context.Context, cfg *config.Config) error {
	e.logger = logger.Get().With(zap.String("component", e.dialect.scope))
	if err := e.configure(cfg); err != nil {
		return err
	}

	conn, err := cfg.RequireString(ConnStringKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, e.dialect.scope)
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.GetDuration(ConnectTimeoutKey, defaultConnectTimeout))
	defer cancel()
	db, err := e.dialect.open(ctx, conn)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, fmt.Sprintf("%s: connect", e.dialect.scope))
	}
	e.db = db

	e.logger.Info("metadata extractor initialized", zap.String("database", e.database))
	return nil
}

// configure resolves everything except the connection.
func (e *SQLMetadataExtractor) configure(cfg *config.Config) error {
	e.database = cfg.GetString(DatabaseConfigKey, e.dialect.database)
	if e.database == "" {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("%s: %s must not be empty", e.dialect.scope, DatabaseConfigKey))
	}

	clusterSource := e.dialect.catalogColumn
	if !cfg.GetBool(CatalogAsClusterKey, e.dialect.catalogAsCluster) {
		clusterSource = quoteLiteral(cfg.GetString(ClusterConfigKey, defaultMetadataCluster))
	}
	e.stmt = e.dialect.render(cfg, clusterSource, cfg.GetString(WhereClauseSuffixKey, e.dialect.where))
	e.dedup = models.NewDedupSet()
	return nil
}

// Extract returns the next table.
func (e *SQLMetadataExtractor) Extract(ctx context.Context) (any, error) {
	if e.grouper == nil {
		if e.db == nil {
			return nil, errors.New(errors.ErrorTypeInternal, fmt.Sprintf("%s: extract before init", e.dialect.scope))
		}
		rows, release, err := e.db.query(ctx, e.stmt)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, fmt.Sprintf("%s: metadata query", e.dialect.scope))
		}
		e.release = release
		e.grouper = GroupTables(e.database, &scanRows{rows: rows}, models.WithDedup(e.dedup))
	}

	table, err := e.grouper.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("%s: group rows", e.dialect.scope))
	}
	if table == nil {
		return nil, nil
	}
	return table, nil
}

// Close releases the cursor and the connection.
func (e *SQLMetadataExtractor) Close() error {
	if e.release != nil {
		e.release()
		e.release = nil
	}
	if e.db != nil {
		err := e.db.Close()
		e.db = nil
		return err
	}
	return nil
}

// quoteLiteral renders s as a SQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// sqlQuerier runs statements through database/sql.
type sqlQuerier struct {
	db *sql.DB
}

func openSQL(driver string) func(ctx context.Context, conn string) (querier, error) {
	return func(ctx context.Context, conn string) (querier, error) {
		db, err := sql.Open(driver, conn)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", driver, err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping %s: %w", driver, err)
		}
		return &sqlQuerier{db: db}, nil
	}
}

func (q *sqlQuerier) query(ctx context.Context, stmt string) (scanner, func(), error) {
	rows, err := q.db.QueryContext(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	return rows, func() { _ = rows.Close() }, nil
}

func (q *sqlQuerier) Close() error { return q.db.Close() }

// pgxQuerier runs statements through a pgx pool.
type pgxQuerier struct {
	pool *pgxpool.Pool
}

func openPgx(ctx context.Context, conn string) (querier, error) {
	poolConfig, err := pgxpool.ParseConfig(conn)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	// one sequential metadata query needs a small pool
	poolConfig.MaxConns = 2
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &pgxQuerier{pool: pool}, nil
}

func (q *pgxQuerier) query(ctx context.Context, stmt string) (scanner, func(), error) {
	rows, err := q.pool.Query(ctx, stmt)
	if err != nil {
		return nil, nil, err
	}
	return rows, rows.Close, nil
}

func (q *pgxQuerier) Close() error {
	q.pool.Close()
	return nil
}

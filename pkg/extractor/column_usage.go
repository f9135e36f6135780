package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/lineage"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"go.uber.org/zap"
)

// Column usage extractor configuration.
const (
	ColumnUsageScope   = "column_usage"
	InnerExtractorKey  = "inner_extractor"
	SQLFieldKey        = "sql_field"
	UserFieldKey       = "user_field"
	UsageDatabaseKey   = "database"
	UsageClusterKey    = "cluster"
	DefaultSchemaKey   = "default_schema"
	defaultUsageSchema = "public"
)

// ColumnUsageExtractor reads query-log rows from an inner extractor, resolves
// the columns each statement reads and emits one TableColumnUsage per table
// with per-user read counts.
//
// Statements that fail to parse are skipped with a warning. A column that
// resolves to several candidate tables counts as a read of each of them.
type ColumnUsageExtractor struct {
	inner         Extractor
	sqlField      string
	userField     string
	database      string
	cluster       string
	defaultSchema string

	usages []*models.TableColumnUsage
	built  bool
	pos    int
	logger *zap.Logger
}

// NewColumnUsageExtractor wraps inner instead of creating the extractor
// named by inner_extractor.
func NewColumnUsageExtractor(inner Extractor) *ColumnUsageExtractor {
	return &ColumnUsageExtractor{inner: inner}
}

// Scope implements Extractor.
func (e *ColumnUsageExtractor) Scope() string { return ColumnUsageScope }

// Init configures and initializes the inner extractor with the sub-scope
// named after it.
func (e *ColumnUsageExtractor) Init(ctx context.Context, cfg *config.Config) error {
	e.logger = logger.Get().With(zap.String("component", ColumnUsageScope))
	e.sqlField = cfg.GetString(SQLFieldKey, "sql")
	e.userField = cfg.GetString(UserFieldKey, "user_email")
	e.database = cfg.GetString(UsageDatabaseKey, "hive")
	e.cluster = cfg.GetString(UsageClusterKey, models.DefaultCluster)
	e.defaultSchema = cfg.GetString(DefaultSchemaKey, defaultUsageSchema)

	if e.inner == nil {
		name := cfg.GetString(InnerExtractorKey, GenericSQLScope)
		if name == ColumnUsageScope {
			return errors.New(errors.ErrorTypeConfig, "column_usage cannot wrap itself")
		}
		inner, err := Registry.Create(name)
		if err != nil {
			return err
		}
		e.inner = inner
	}
	if err := e.inner.Init(ctx, cfg.Scope(e.inner.Scope())); err != nil {
		return fmt.Errorf("init %s: %w", e.inner.Scope(), err)
	}
	return nil
}

// usageKey identifies one (table, column, user) read counter.
type usageKey struct {
	schema, table, column, user string
}

// Extract returns the next table's usage. The inner extractor is drained on
// the first call.
func (e *ColumnUsageExtractor) Extract(ctx context.Context) (any, error) {
	if !e.built {
		if err := e.aggregate(ctx); err != nil {
			return nil, err
		}
		e.built = true
	}
	if e.pos >= len(e.usages) {
		return nil, nil
	}
	u := e.usages[e.pos]
	e.pos++
	return u, nil
}

func (e *ColumnUsageExtractor) aggregate(ctx context.Context) error {
	counts := make(map[usageKey]int64)
	var order []usageKey
	statements, skipped := 0, 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := e.inner.Extract(ctx)
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}
		row, ok := rec.(map[string]any)
		if !ok {
			return errors.New(errors.ErrorTypeData, fmt.Sprintf("column_usage expects map records, got %T", rec))
		}
		stmt, _ := row[e.sqlField].(string)
		user, _ := row[e.userField].(string)
		if stmt == "" || user == "" {
			skipped++
			continue
		}

		cols, err := lineage.GetColumns(stmt)
		if err != nil {
			skipped++
			metrics.Skipped.WithLabelValues(ColumnUsageScope, "unparseable_sql").Inc()
			e.logger.Warn("skipping unparseable statement", zap.Error(err))
			continue
		}
		statements++
		for _, c := range cols {
			for _, t := range c.Table.Candidates() {
				k := e.key(t, c.Name, user)
				if _, seen := counts[k]; !seen {
					order = append(order, k)
				}
				counts[k]++
			}
		}
	}

	byTable := make(map[string][]models.ColumnReader)
	var tables []string
	for _, k := range order {
		r := models.ColumnReader{
			Database:  e.database,
			Cluster:   e.cluster,
			Schema:    k.schema,
			Table:     k.table,
			Column:    k.column,
			UserEmail: k.user,
			ReadCount: counts[k],
		}
		tk := r.TableKey()
		if _, ok := byTable[tk]; !ok {
			tables = append(tables, tk)
		}
		byTable[tk] = append(byTable[tk], r)
	}
	for _, tk := range tables {
		e.usages = append(e.usages, models.NewTableColumnUsage(byTable[tk]))
	}

	e.logger.Info("column usage aggregated",
		zap.Int("statements", statements),
		zap.Int("skipped", skipped),
		zap.Int("tables", len(tables)))
	return nil
}

func (e *ColumnUsageExtractor) key(t *lineage.Table, column, user string) usageKey {
	schema := strings.ToLower(t.Schema)
	if schema == "" {
		schema = e.defaultSchema
	}
	return usageKey{
		schema: schema,
		table:  strings.ToLower(t.Name),
		column: strings.ToLower(column),
		user:   user,
	}
}

// Close closes the inner extractor.
func (e *ColumnUsageExtractor) Close() error {
	if e.inner == nil {
		return nil
	}
	return e.inner.Close()
}

package extractor

import (
	"context"
	"testing"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQuerier serves one canned result set.
type fakeQuerier struct {
	rows     [][]any
	stmt     string
	released bool
	closed   bool
}

func (f *fakeQuerier) query(_ context.Context, stmt string) (scanner, func(), error) {
	f.stmt = stmt
	return &fakeScanner{rows: f.rows}, func() { f.released = true }, nil
}

func (f *fakeQuerier) Close() error {
	f.closed = true
	return nil
}

func TestSQLMetadataQueryRendering(t *testing.T) {
	tests := []struct {
		name     string
		ext      *SQLMetadataExtractor
		cfg      map[string]interface{}
		contains []string
		absent   []string
	}{
		{
			name:     "postgres catalog as cluster",
			ext:      NewPostgresMetadataExtractor(),
			contains: []string{"c.table_catalog AS cluster", "NOT IN ('pg_catalog', 'information_schema')", "ORDER BY cluster, schema, name"},
		},
		{
			name:     "postgres literal cluster",
			ext:      NewPostgresMetadataExtractor(),
			cfg:      map[string]interface{}{CatalogAsClusterKey: false, ClusterConfigKey: "it's"},
			contains: []string{"'it''s' AS cluster"},
			absent:   []string{"c.table_catalog AS cluster"},
		},
		{
			name:     "mysql where clause",
			ext:      NewMySQLMetadataExtractor(),
			cfg:      map[string]interface{}{WhereClauseSuffixKey: "WHERE c.table_schema = 'shop'"},
			contains: []string{"'master' AS cluster", "WHERE c.table_schema = 'shop'", "ORDER BY cluster, `schema`, name"},
		},
		{
			name:     "snowflake database",
			ext:      NewSnowflakeMetadataExtractor(),
			cfg:      map[string]interface{}{SnowflakeDatabaseKey: "analytics"},
			contains: []string{"FROM analytics.INFORMATION_SCHEMA.COLUMNS", "lower('master') AS cluster"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.ext.configure(config.FromMap(tt.cfg)))
			for _, s := range tt.contains {
				assert.Contains(t, tt.ext.Query(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, tt.ext.Query(), s)
			}
		})
	}
}

func TestSQLMetadataExtract(t *testing.T) {
	e := NewMySQLMetadataExtractor()
	require.NoError(t, e.configure(config.FromMap(map[string]interface{}{DatabaseConfigKey: "shopdb"})))
	q := &fakeQuerier{rows: [][]any{
		{"master", "shop", "orders", "orders", "id", "int", nil, int64(1), false},
		{"master", "shop", "orders", "orders", "total", "decimal", "gross", int64(2), false},
		{"master", "shop", "users", nil, "id", "int", nil, int64(1), false},
	}}
	e.db = q

	ctx := context.Background()
	first, err := e.Extract(ctx)
	require.NoError(t, err)
	orders, ok := first.(*models.TableMetadata)
	require.True(t, ok)
	assert.Equal(t, "shopdb://master.shop/orders", orders.Key())
	assert.Len(t, orders.Columns, 2)
	assert.Equal(t, e.Query(), q.stmt)

	second, err := e.Extract(ctx)
	require.NoError(t, err)
	assert.Equal(t, "users", second.(*models.TableMetadata).Name)

	// database, cluster and schema nodes are emitted once per job
	nodes, _ := models.Drain(orders)
	usersNodes, _ := models.Drain(second.(*models.TableMetadata))
	assert.Greater(t, len(nodes), len(usersNodes))

	done, err := e.Extract(ctx)
	require.NoError(t, err)
	assert.Nil(t, done)

	require.NoError(t, e.Close())
	assert.True(t, q.released)
	assert.True(t, q.closed)
}

func TestSQLMetadataExtractBeforeInit(t *testing.T) {
	_, err := NewPostgresMetadataExtractor().Extract(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInternal))
}

func TestSQLMetadataInitRequiresConnString(t *testing.T) {
	err := NewPostgresMetadataExtractor().Init(context.Background(), config.New())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestRegistryHasBuiltins(t *testing.T) {
	for _, name := range []string{
		PostgresScope, MySQLScope, SnowflakeScope, BigQueryScope,
		KafkaScope, CSVTableColumnScope, GenericSQLScope, ColumnUsageScope,
	} {
		e, err := Registry.Create(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, e.Scope())
	}
}

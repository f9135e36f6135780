package loader

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ordersKey = "hive://gold.core/orders"

func owner() *models.TableOwner {
	return models.NewTableOwner("hive", "gold", "core", "orders", []string{"a@x.com"})
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path) //nolint:gosec // test fixture path
	require.NoError(t, err)
	defer f.Close()

	r, err := compression.NewReader(f, compression.ForPath(path))
	require.NoError(t, err)
	defer r.Close()
	rows, err := csv.NewReader(r).ReadAll()
	require.NoError(t, err)
	return rows
}

func graphConfig(t *testing.T, extra map[string]interface{}) *config.Config {
	t.Helper()
	dir := t.TempDir()
	values := map[string]interface{}{
		NodeDirKey:         filepath.Join(dir, "nodes"),
		RelationshipDirKey: filepath.Join(dir, "relationships"),
		EntityDirKey:       filepath.Join(dir, "entities"),
		RecordDirKey:       filepath.Join(dir, "records"),
	}
	for k, v := range extra {
		values[k] = v
	}
	return config.FromMap(values)
}

func TestNeo4jCSVLoader(t *testing.T) {
	ctx := context.Background()
	l := &Neo4jCSVLoader{}
	require.NoError(t, l.Init(ctx, graphConfig(t, nil)))
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Close())

	require.Len(t, l.NodeFiles(), 1)
	assert.Equal(t, "User_0.csv", filepath.Base(l.NodeFiles()[0]))
	assert.Equal(t, [][]string{
		{"KEY", "LABEL", "email"},
		{"a@x.com", "User", "a@x.com"},
	}, readCSV(t, l.NodeFiles()[0]))

	require.Len(t, l.RelationshipFiles(), 1)
	assert.Equal(t, "Table_User_OWNER_0.csv", filepath.Base(l.RelationshipFiles()[0]))
	assert.Equal(t, [][]string{
		{"START_LABEL", "END_LABEL", "START_KEY", "END_KEY", "TYPE", "REVERSE_TYPE"},
		{"Table", "User", ordersKey, "a@x.com", "OWNER", "OWNER_OF"},
	}, readCSV(t, l.RelationshipFiles()[0]))
}

func TestNeo4jCSVLoaderSplitsColumnSets(t *testing.T) {
	ctx := context.Background()
	l := &Neo4jCSVLoader{}
	require.NoError(t, l.Init(ctx, graphConfig(t, nil)))

	u, err := models.NewUser(models.User{Email: "b@x.com", FirstName: "B"})
	require.NoError(t, err)
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Load(ctx, u))
	require.NoError(t, l.Close())

	var names []string
	for _, f := range l.NodeFiles() {
		names = append(names, filepath.Base(f))
	}
	assert.Equal(t, []string{"User_0.csv", "User_1.csv"}, names)
}

func TestNeptuneCSVLoaderGzip(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	l := &NeptuneCSVLoader{now: func() time.Time { return fixed }}
	require.NoError(t, l.Init(ctx, graphConfig(t, map[string]interface{}{CompressKey: true})))
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Close())

	require.Len(t, l.NodeFiles(), 1)
	assert.True(t, strings.HasSuffix(l.NodeFiles()[0], ".csv.gz"))
	nodes := readCSV(t, l.NodeFiles()[0])
	require.Len(t, nodes, 2)
	assert.Equal(t, []string{"~id", "~label"}, nodes[0][:2])
	assert.Equal(t, []string{"User:a@x.com", "User"}, nodes[1][:2])
	assert.Contains(t, nodes[1], "2024-03-01T12:00:00")

	edges := readCSV(t, l.RelationshipFiles()[0])
	require.Len(t, edges, 3)
	assert.Equal(t, []string{"~id", "~from", "~to", "~label"}, edges[0][:4])
	assert.Equal(t, "Table:"+ordersKey, edges[1][1])
	assert.Equal(t, "OWNER", edges[1][3])
	assert.Equal(t, "User:a@x.com", edges[2][1])
	assert.Equal(t, "OWNER_OF", edges[2][3])
}

func TestMySQLCSVLoaderZstd(t *testing.T) {
	ctx := context.Background()
	l := &MySQLCSVLoader{}
	require.NoError(t, l.Init(ctx, graphConfig(t, map[string]interface{}{CompressKey: "zstd"})))
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Close())

	files := l.RecordFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "user_0.csv.zst", filepath.Base(files[0]))
	assert.Equal(t, [][]string{{"rk", "email"}, {"a@x.com", "a@x.com"}}, readCSV(t, files[0]))
}

func TestAtlasCSVLoader(t *testing.T) {
	ctx := context.Background()
	l := &AtlasCSVLoader{}
	require.NoError(t, l.Init(ctx, graphConfig(t, nil)))
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Close())

	entities := readCSV(t, l.NodeFiles()[0])
	require.Len(t, entities, 2)
	assert.Equal(t, []string{"operation", "typeName", "attributes", "relationships"}, entities[0])
	assert.Equal(t, "CREATE", entities[1][0])
	assert.Equal(t, "User", entities[1][1])
	assert.JSONEq(t, `{"email":"a@x.com","name":"a@x.com","qualifiedName":"a@x.com"}`, entities[1][2])
	assert.Equal(t, "owner_of#Table#"+ordersKey, entities[1][3])

	rels := readCSV(t, l.RelationshipFiles()[0])
	assert.Equal(t, "Table__User_0.csv", filepath.Base(l.RelationshipFiles()[0]))
	assert.Equal(t, []string{"Table__User", "Table", ordersKey, "User", "a@x.com"}, rels[1])
}

func TestMySQLCSVLoader(t *testing.T) {
	ctx := context.Background()
	l := &MySQLCSVLoader{}
	require.NoError(t, l.Init(ctx, graphConfig(t, nil)))
	require.NoError(t, l.Load(ctx, owner()))
	require.NoError(t, l.Close())

	files := l.RecordFiles()
	require.Len(t, files, 2)
	assert.Equal(t, "user_0.csv", filepath.Base(files[0]))
	assert.Equal(t, [][]string{{"rk", "email"}, {"a@x.com", "a@x.com"}}, readCSV(t, files[0]))
	assert.Equal(t, "table_owner_0.csv", filepath.Base(files[1]))
	assert.Equal(t, [][]string{{"table_rk", "user_rk"}, {ordersKey, "a@x.com"}}, readCSV(t, files[1]))
}

func TestLoaderErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory", func(t *testing.T) {
		err := (&Neo4jCSVLoader{}).Init(ctx, config.New())
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("not serializable", func(t *testing.T) {
		l := &Neo4jCSVLoader{}
		require.NoError(t, l.Init(ctx, graphConfig(t, nil)))
		err := l.Load(ctx, map[string]interface{}{"a": 1})
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeData))
	})

	t.Run("unknown codec", func(t *testing.T) {
		err := (&Neo4jCSVLoader{}).Init(ctx, graphConfig(t, map[string]interface{}{CompressKey: "rar"}))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("neptune rejects zstd", func(t *testing.T) {
		err := (&NeptuneCSVLoader{}).Init(ctx, graphConfig(t, map[string]interface{}{CompressKey: "zstd"}))
		require.Error(t, err)
		assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
	})

	t.Run("force create clears directory", func(t *testing.T) {
		cfg := graphConfig(t, map[string]interface{}{ForceCreateDirKey: true})
		nodes := cfg.GetString(NodeDirKey, "")
		require.NoError(t, os.MkdirAll(nodes, 0o750))
		stale := filepath.Join(nodes, "stale.csv")
		require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))

		require.NoError(t, (&Neo4jCSVLoader{}).Init(ctx, cfg))
		assert.NoFileExists(t, stale)
	})
}

func TestRegistryBuiltins(t *testing.T) {
	assert.Equal(t, []string{AtlasCSVScope, MySQLCSVScope, Neo4jCSVScope, NeptuneCSVScope}, Registry.List())
	l, err := Registry.Create(NeptuneCSVScope)
	require.NoError(t, err)
	assert.Equal(t, NeptuneCSVScope, l.Scope())
}

package transformer

import (
	"context"
	"testing"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initT(t *testing.T, tr Transformer, values map[string]interface{}) Transformer {
	t.Helper()
	require.NoError(t, tr.Init(context.Background(), config.FromMap(values)))
	return tr
}

func mustTable(t *testing.T, desc string, cols ...*models.ColumnMetadata) *models.TableMetadata {
	t.Helper()
	tbl, err := models.NewTableMetadata("hive", "gold", "core", "orders", desc, cols, false, nil)
	require.NoError(t, err)
	return tbl
}

// dropper drops every record.
type dropper struct{ Noop }

func (dropper) Transform(context.Context, any) (any, error) { return nil, nil }

func TestChained(t *testing.T) {
	ctx := context.Background()
	chain, err := Build([]string{RemoveFieldScope, TemplateSubstitutionScope})
	require.NoError(t, err)
	assert.Equal(t, 2, chain.Len())

	cfg := config.FromMap(map[string]interface{}{
		RemoveFieldScope + "." + FieldNamesKey:         []string{"secret"},
		TemplateSubstitutionScope + "." + FieldNameKey: "key",
		TemplateSubstitutionScope + "." + TemplateKey:  "{db}.{table}",
	})
	require.NoError(t, chain.Init(ctx, cfg))

	out, err := chain.Transform(ctx, map[string]any{"db": "hive", "table": "orders", "secret": "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"db": "hive", "table": "orders", "key": "hive.orders"}, out)

	dropped, err := NewChained(Noop{}, dropper{}, Noop{}).Transform(ctx, "anything")
	require.NoError(t, err)
	assert.Nil(t, dropped)
	require.NoError(t, chain.Close())

	_, err = Build([]string{"nope"})
	require.Error(t, err)
}

func TestRegexReplace(t *testing.T) {
	tr := initT(t, &RegexReplace{}, map[string]interface{}{
		ReplacementsKey: []interface{}{
			[]interface{}{`\s+`, " "},
			[]interface{}{"^TODO: ", ""},
		},
	})

	tbl := mustTable(t, "TODO:   all   orders")
	out, err := tr.Transform(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, "all orders", out.(*models.TableMetadata).Description)

	rec := map[string]any{"description": "a  b"}
	_, err = tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, "a b", rec["description"])

	// records without the attribute pass through
	other := map[string]any{"name": "x"}
	out, err = tr.Transform(context.Background(), other)
	require.NoError(t, err)
	assert.Equal(t, other, out)
}

func TestRegexReplaceConfig(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]interface{}
	}{
		{"missing list", nil},
		{"not a pair", map[string]interface{}{ReplacementsKey: []interface{}{[]interface{}{"a"}}}},
		{"bad pattern", map[string]interface{}{ReplacementsKey: []interface{}{[]interface{}{"(", ""}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&RegexReplace{}).Init(context.Background(), config.FromMap(tt.values))
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
		})
	}
}

func TestTimestampToEpoch(t *testing.T) {
	tr := initT(t, &TimestampToEpoch{}, map[string]interface{}{FieldNameKey: "last_updated"})
	ctx := context.Background()

	rec := map[string]any{"last_updated": "2021-01-02T03:04:05"}
	_, err := tr.Transform(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, int64(1609556645), rec["last_updated"])

	empty := map[string]any{"last_updated": ""}
	_, err = tr.Transform(ctx, empty)
	require.NoError(t, err)
	assert.Equal(t, int64(0), empty["last_updated"])

	_, err = tr.Transform(ctx, map[string]any{"last_updated": "yesterday"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeData))
}

func TestRemoveField(t *testing.T) {
	tr := initT(t, &RemoveField{}, map[string]interface{}{FieldNamesKey: []string{"description", "missing"}})

	rec := map[string]any{"description": "x", "name": "y"}
	_, err := tr.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "y"}, rec)

	tbl := mustTable(t, "gone")
	_, err = tr.Transform(context.Background(), tbl)
	require.NoError(t, err)
	assert.Empty(t, tbl.Description)

	require.Error(t, (&RemoveField{}).Init(context.Background(), config.New()))
}

func TestTemplateSubstitution(t *testing.T) {
	tr := initT(t, &TemplateSubstitution{}, map[string]interface{}{
		FieldNameKey: "url",
		TemplateKey:  "https://airflow/{dag}?n={count}",
	})
	ctx := context.Background()

	out, err := tr.Transform(ctx, map[string]any{"dag": "daily", "count": 3})
	require.NoError(t, err)
	assert.Equal(t, "https://airflow/daily?n=3", out.(map[string]any)["url"])

	_, err = tr.Transform(ctx, map[string]any{"dag": "daily"})
	require.Error(t, err)

	_, err = tr.Transform(ctx, "not a map")
	require.Error(t, err)
}

func TestComplexType(t *testing.T) {
	ct := &ComplexType{}
	initT(t, ct, nil)

	tbl := mustTable(t, "",
		models.NewColumnMetadata("id", "bigint", "", 0),
		models.NewColumnMetadata("lines", "array<struct<sku:string,qty:int>>", "", 1),
		models.NewColumnMetadata("broken", "map<string", "", 2),
	)
	out, err := ct.Transform(context.Background(), tbl)
	require.NoError(t, err)
	assert.Same(t, tbl, out)

	assert.Nil(t, tbl.Columns[0].TypeMetadata)
	require.NotNil(t, tbl.Columns[1].TypeMetadata)
	assert.Equal(t, models.KindArray, tbl.Columns[1].TypeMetadata.Kind())
	assert.Nil(t, tbl.Columns[2].TypeMetadata)

	parsed, failed := ct.Stats()
	assert.Equal(t, 1, parsed)
	assert.Equal(t, 1, failed)
	require.NoError(t, ct.Close())

	// other records pass through untouched
	rec := map[string]any{"a": 1}
	out, err = ct.Transform(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, rec, out)
}

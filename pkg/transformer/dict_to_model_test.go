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

func dictToModel(t *testing.T, model string) *DictToModel {
	t.Helper()
	tr := &DictToModel{}
	initT(t, tr, map[string]interface{}{ModelClassKey: model})
	return tr
}

func TestDictToModelTable(t *testing.T) {
	tr := dictToModel(t, TableMetadataModel)
	ctx := context.Background()

	rec := map[string]any{
		"database":   "hive",
		"cluster":    "gold",
		"schema":     "core",
		"table_name": "orders",
		"is_view":    "false",
		"tags":       "finance,pii",
		"columns": []any{
			map[string]any{"name": "id", "col_type": "bigint", "sort_order": float64(0)},
			map[string]any{"name": "total", "col_type": "decimal(10,2)", "sort_order": "1"},
		},
	}
	out, err := tr.Transform(ctx, rec)
	require.NoError(t, err)
	tbl, ok := out.(*models.TableMetadata)
	require.True(t, ok)
	assert.Equal(t, "hive://gold.core/orders", tbl.Key())
	assert.Equal(t, []string{"finance", "pii"}, tbl.Tags)
	require.Len(t, tbl.Columns, 2)
	assert.Equal(t, 1, tbl.Columns[1].SortOrder)

	// a second table of the same schema skips the shared nodes
	rec["table_name"] = "users"
	out2, err := tr.Transform(ctx, rec)
	require.NoError(t, err)
	n1, _ := models.Drain(tbl)
	n2, _ := models.Drain(out2.(*models.TableMetadata))
	assert.Equal(t, len(n1)-3, len(n2))
}

func TestDictToModelBuilders(t *testing.T) {
	tests := []struct {
		model  string
		values map[string]any
		check  func(t *testing.T, out any)
	}{
		{
			model: TableOwnerModel,
			values: map[string]any{
				"database": "hive", "cluster": "gold", "schema": "core", "table_name": "orders",
				"owners": "ann@example.com, bob@example.com",
			},
			check: func(t *testing.T, out any) {
				nodes, rels := models.Drain(out.(models.GraphSerializable))
				assert.Len(t, nodes, 2)
				assert.Len(t, rels, 2)
			},
		},
		{
			model: TableLastUpdatedModel,
			values: map[string]any{
				"database": "hive", "cluster": "gold", "schema": "core", "table_name": "orders",
				"last_updated_time_epoch": float64(1700000000),
			},
			check: func(t *testing.T, out any) {
				assert.Equal(t, int64(1700000000), out.(*models.TableLastUpdated).LastUpdated)
			},
		},
		{
			model:  UserModel,
			values: map[string]any{"email": "ann@example.com", "first_name": "Ann", "last_name": "Lee"},
			check: func(t *testing.T, out any) {
				u := out.(*models.User)
				assert.Equal(t, "Ann Lee", u.FullName)
				assert.True(t, u.IsActive)
			},
		},
		{
			model: DashboardUsageModel,
			values: map[string]any{
				"product": "mode", "dashboard_group_id": "g", "dashboard_id": "d",
				"email": "ann@example.com", "view_count": "7",
			},
			check: func(t *testing.T, out any) {
				_, rels := models.Drain(out.(models.GraphSerializable))
				require.Len(t, rels, 1)
			},
		},
		{
			model:  TableLineageModel,
			values: map[string]any{"table_key": "hive://gold.core/orders", "downstream_deps": []any{"hive://gold.core/daily"}},
			check: func(t *testing.T, out any) {
				_, rels := models.Drain(out.(models.GraphSerializable))
				require.Len(t, rels, 1)
			},
		},
		{
			model: BadgeModel,
			values: map[string]any{
				"start_label": "Table", "start_key": "hive://gold.core/orders",
				"badges": []any{map[string]any{"name": "gold", "category": "table_status"}},
			},
			check: func(t *testing.T, out any) {
				nodes, _ := models.Drain(out.(models.GraphSerializable))
				require.Len(t, nodes, 1)
				assert.Equal(t, "gold:table_status", nodes[0].Key)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			out, err := dictToModel(t, tt.model).Transform(context.Background(), tt.values)
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestDictToModelErrors(t *testing.T) {
	err := (&DictToModel{}).Init(context.Background(), config.FromMap(map[string]interface{}{ModelClassKey: "nope"}))
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	tr := dictToModel(t, TableMetadataModel)
	_, err = tr.Transform(context.Background(), "not a map")
	require.Error(t, err)

	_, err = tr.Transform(context.Background(), map[string]any{"database": "hive"})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))

	assert.Contains(t, Models(), WatermarkModel)
}

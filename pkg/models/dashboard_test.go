package models

import (
	"testing"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

var testDashboard = DashboardRef{Product: "mode", Cluster: "gold", GroupID: "finance", DashboardID: "revenue"}

func TestDashboardKeys(t *testing.T) {
	assert.Equal(t, "mode_dashboard://gold", testDashboard.ClusterKey())
	assert.Equal(t, "mode_dashboard://gold.finance", testDashboard.GroupKey())
	assert.Equal(t, "mode_dashboard://gold.finance/revenue", testDashboard.Key())
}

func TestDashboardMetadata(t *testing.T) {
	d := NewDashboardMetadata(DashboardMetadata{
		DashboardRef:     testDashboard,
		GroupName:        "Finance",
		Name:             "Revenue",
		Description:      "daily revenue",
		GroupDescription: "finance team",
		Tags:             []string{"KPI"},
		CreatedTimestamp: 1700000000,
	})
	nodes, rels := Drain(d)

	assert.NotNil(t, nodeByKey(nodes, "mode_dashboard://gold.finance/revenue"))
	assert.NotNil(t, nodeByKey(nodes, "mode_dashboard://gold.finance"))
	assert.NotNil(t, nodeByKey(nodes, "mode_dashboard://gold"))
	assert.NotNil(t, nodeByKey(nodes, "mode_dashboard://gold.finance/revenue/_description"))
	assert.NotNil(t, nodeByKey(nodes, "kpi"))

	types := relTypes(rels)
	assert.Contains(t, types, DashboardGroupRelationType)
	assert.Contains(t, types, DashboardRelationType)
	assert.Contains(t, types, TagRelationType)
}

func TestDashboardMetadataWithoutGroup(t *testing.T) {
	ref := testDashboard
	ref.GroupID = ""
	d := NewDashboardMetadata(DashboardMetadata{DashboardRef: ref, Name: "Revenue"})
	nodes, rels := Drain(d)

	for _, n := range nodes {
		assert.NotEqual(t, DashboardGroupLabel, n.Label)
	}
	assert.NotContains(t, relTypes(rels), DashboardGroupRelationType)
}

func TestDashboardTableSkipsAmbiguousKeys(t *testing.T) {
	skipped := metrics.Skipped.WithLabelValues("dashboard_table", "ambiguous_table_key")
	before := promtest.ToFloat64(skipped)

	d := NewDashboardTable(testDashboard, []string{
		"hive://gold.core/orders",
		"hive://gold.core/orders.v2",
		"gold.core/orders",
	})
	nodes, rels := Drain(d)
	assert.Empty(t, nodes)
	require.Len(t, rels, 1)
	assert.Equal(t, "hive://gold.core/orders", rels[0].EndKey)
	assert.Equal(t, DashboardTableRelationType, rels[0].Type)

	records := DrainRecords(d)
	require.Len(t, records, 1)
	assert.Equal(t, rds.DashboardTable, records[0].Table)

	assert.Equal(t, float64(2), promtest.ToFloat64(skipped)-before, "each ambiguous key counted once")
}

func TestDashboardUsage(t *testing.T) {
	u := NewDashboardUsage(testDashboard, "a@example.com", 7, false)
	nodes, rels := Drain(u)
	assert.Empty(t, nodes)
	require.Len(t, rels, 1)
	assert.Equal(t, UserLabel, rels[0].StartLabel)
	assert.Equal(t, graph.Long(7), rels[0].Attributes[ReadCountAttribute])
}

func TestDashboardQueryAndChart(t *testing.T) {
	q := NewDashboardQuery(testDashboard, "q1", "revenue query", "https://mode/q1", "select 1")
	n := q.NextNode()
	require.NotNil(t, n)
	assert.Equal(t, "mode_dashboard://gold.finance/revenue/query/q1", n.Key)

	c := NewDashboardChart(testDashboard, "q1", "c1", "bar", "bar_chart", "")
	n = c.NextNode()
	require.NotNil(t, n)
	assert.Equal(t, "mode_dashboard://gold.finance/revenue/query/q1/chart/c1", n.Key)
	r := c.NextRelation()
	require.NotNil(t, r)
	assert.Equal(t, QueryLabel, r.StartLabel)

	m := NewDashboardLastModified(testDashboard, 42)
	n = m.NextNode()
	require.NotNil(t, n)
	assert.Equal(t, "mode_dashboard://gold.finance/revenue/_last_modified_timestamp", n.Key)

	o := NewDashboardOwner(testDashboard, "a@example.com")
	_, rels := Drain(o)
	require.Len(t, rels, 1)
	assert.Equal(t, OwnerRelationType, rels[0].Type)
}

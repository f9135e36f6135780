package lineage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/databuilder/pkg/errors"
)

func TestGetColumnsSimple(t *testing.T) {
	cols, err := GetColumns("SELECT foo, bar FROM foobar;")
	require.NoError(t, err)

	foobar := &Table{Name: "FOOBAR"}
	assert.Equal(t, []Column{
		{Name: "FOO", Table: foobar},
		{Name: "BAR", Table: foobar},
	}, cols)
}

func TestGetColumnsAmbiguousJoin(t *testing.T) {
	cols, err := GetColumns("SELECT A, B FROM scm.FOO JOIN BAR ON FOO.A = BAR.B")
	require.NoError(t, err)

	either := &OrTable{Tables: []*Table{{Name: "FOO", Schema: "SCM"}, {Name: "BAR"}}}
	assert.Equal(t, []Column{
		{Name: "A", Table: either},
		{Name: "B", Table: either},
	}, cols)
}

func TestGetColumns(t *testing.T) {
	orders := &Table{Name: "ORDERS", Schema: "CORE", Alias: "O"}
	items := &Table{Name: "ITEMS", Alias: "I"}

	tests := []struct {
		name string
		sql  string
		want []Column
	}{
		{
			name: "qualified columns through aliases",
			sql:  "SELECT o.id AS order_id, i.sku FROM core.orders o JOIN items i ON o.id = i.order_id",
			want: []Column{
				{Name: "ID", Alias: "ORDER_ID", Table: orders},
				{Name: "SKU", Table: items},
			},
		},
		{
			name: "qualified by table name",
			sql:  "SELECT orders.id FROM core.orders",
			want: []Column{{Name: "ID", Table: &Table{Name: "ORDERS", Schema: "CORE"}}},
		},
		{
			name: "catalog qualified name keeps last two segments",
			sql:  "SELECT id FROM hive.core.orders",
			want: []Column{{Name: "ID", Table: &Table{Name: "ORDERS", Schema: "CORE"}}},
		},
		{
			name: "wildcard",
			sql:  "SELECT * FROM core.orders",
			want: []Column{{Name: "*", Table: &Table{Name: "ORDERS", Schema: "CORE"}}},
		},
		{
			name: "qualified wildcard restricted to alias",
			sql:  "SELECT i.* FROM core.orders o JOIN items i ON o.id = i.order_id",
			want: []Column{{Name: "*", Table: items}},
		},
		{
			name: "subquery alias resolves to inner column",
			sql:  "SELECT s.total FROM (SELECT amount AS total FROM sales) s",
			want: []Column{{Name: "AMOUNT", Table: &Table{Name: "SALES"}}},
		},
		{
			name: "outer wildcard expands subquery",
			sql:  "SELECT * FROM (SELECT a, b FROM t) x",
			want: []Column{
				{Name: "A", Table: &Table{Name: "T"}},
				{Name: "B", Table: &Table{Name: "T"}},
			},
		},
		{
			name: "name through inner wildcard",
			sql:  "SELECT x.c FROM (SELECT * FROM t) x",
			want: []Column{{Name: "C", Table: &Table{Name: "T"}}},
		},
		{
			name: "function arguments",
			sql:  "SELECT count(user_id) AS users FROM events",
			want: []Column{{Name: "USER_ID", Alias: "USERS", Table: &Table{Name: "EVENTS"}}},
		},
		{
			name: "common table expression",
			sql:  "WITH recent AS (SELECT id FROM core.orders) SELECT id FROM recent",
			want: []Column{{Name: "ID", Table: &Table{Name: "ORDERS", Schema: "CORE"}}},
		},
		{
			name: "unknown qualifier is skipped",
			sql:  "SELECT z.id, name FROM users",
			want: []Column{{Name: "NAME", Table: &Table{Name: "USERS"}}},
		},
		{
			name: "literals produce nothing",
			sql:  "SELECT 1, 'x'",
			want: nil,
		},
		{
			name: "union concatenates both sides",
			sql:  "SELECT a FROM t1 UNION ALL SELECT b FROM t2",
			want: []Column{
				{Name: "A", Table: &Table{Name: "T1"}},
				{Name: "B", Table: &Table{Name: "T2"}},
			},
		},
		{
			name: "insert select",
			sql:  "INSERT INTO target SELECT a FROM source_table",
			want: []Column{{Name: "A", Table: &Table{Name: "SOURCE_TABLE"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetColumns(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetColumnsNestedSubqueries(t *testing.T) {
	sql := `SELECT outer_q.v FROM (
		SELECT mid.w AS v FROM (
			SELECT raw_value AS w FROM warehouse.measurements
		) mid
	) outer_q`
	cols, err := GetColumns(sql)
	require.NoError(t, err)
	require.Len(t, cols, 1)
	assert.Equal(t, "RAW_VALUE", cols[0].Name)
	assert.Equal(t, &Table{Name: "MEASUREMENTS", Schema: "WAREHOUSE"}, cols[0].Table)
}

func TestGetColumnsDerivedOutputNames(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want []Column
	}{
		{
			name: "alias carried through two levels",
			sql:  "SELECT o.a FROM (SELECT a FROM (SELECT x AS a FROM deep.t1) i) o",
			want: []Column{{Name: "X", Table: &Table{Name: "T1", Schema: "DEEP"}}},
		},
		{
			name: "unaliased column through three levels",
			sql:  "SELECT b FROM (SELECT b FROM (SELECT b FROM (SELECT b FROM t) x) y) z",
			want: []Column{{Name: "B", Table: &Table{Name: "T"}}},
		},
		{
			name: "outer alias wins",
			sql:  "SELECT o.a AS total FROM (SELECT a FROM (SELECT amount AS a FROM sales) i) o",
			want: []Column{{Name: "AMOUNT", Alias: "TOTAL", Table: &Table{Name: "SALES"}}},
		},
		{
			name: "wildcard keeps inner output names",
			sql:  "SELECT o.a FROM (SELECT * FROM (SELECT x AS a FROM t1) i) o",
			want: []Column{{Name: "X", Table: &Table{Name: "T1"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetColumns(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetColumnsPrestoAndHive(t *testing.T) {
	t1 := &Table{Name: "T1"}
	tests := []struct {
		name string
		sql  string
		want []Column
	}{
		{
			name: "try_cast",
			sql:  "SELECT try_cast(a AS bigint) AS a_num FROM t1",
			want: []Column{{Name: "A", Alias: "A_NUM", Table: t1}},
		},
		{
			name: "backquoted identifiers",
			sql:  "SELECT `order_id`, `t`.`total` FROM `shop`.`orders` `t`",
			want: []Column{
				{Name: "ORDER_ID", Table: &Table{Name: "ORDERS", Schema: "SHOP", Alias: "T"}},
				{Name: "TOTAL", Table: &Table{Name: "ORDERS", Schema: "SHOP", Alias: "T"}},
			},
		},
		{
			name: "lambda parameter is not a column",
			sql:  "SELECT transform(arr, x -> x + 1) FROM t1",
			want: []Column{{Name: "ARR", Table: t1}},
		},
		{
			name: "lambda with comparison body",
			sql:  "SELECT filter(items, i -> i > 0) AS positive FROM t1",
			want: []Column{{Name: "ITEMS", Alias: "POSITIVE", Table: t1}},
		},
		{
			name: "two-parameter lambda",
			sql:  "SELECT reduce(vals, 0, (s, v) -> s + v, s -> s) FROM t1",
			want: []Column{{Name: "VALS", Table: t1}},
		},
		{
			name: "lambda body reads an outer column",
			sql:  "SELECT transform(arr, x -> x * factor) FROM t1",
			want: []Column{{Name: "ARR", Table: t1}, {Name: "FACTOR", Table: t1}},
		},
		{
			name: "json arrow keeps its column",
			sql:  "SELECT payload -> 'name' AS n FROM events",
			want: []Column{{Name: "PAYLOAD", Alias: "N", Table: &Table{Name: "EVENTS"}}},
		},
		{
			name: "tablesample",
			sql:  "SELECT id FROM core.orders TABLESAMPLE BERNOULLI (10)",
			want: []Column{{Name: "ID", Table: &Table{Name: "ORDERS", Schema: "CORE"}}},
		},
		{
			name: "subscript",
			sql:  "SELECT a[1] AS first, b[i] FROM t1",
			want: []Column{
				{Name: "A", Alias: "FIRST", Table: t1},
				{Name: "B", Table: t1},
				{Name: "I", Table: t1},
			},
		},
		{
			name: "unnest columns resolve to nothing",
			sql:  "SELECT id, tag, u.tag FROM t1 CROSS JOIN UNNEST(tags) AS u(tag)",
			want: []Column{{Name: "ID", Table: t1}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetColumns(tt.sql)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"SELECT TRY_CAST (a AS int) FROM t", "SELECT cast (a AS int) FROM t"},
		{"SELECT 'try_cast(' FROM t", "SELECT 'try_cast(' FROM t"},
		{`SELECT "try_cast"(a) FROM t`, `SELECT "try_cast"(a) FROM t`},
		{"SELECT try_cast_col FROM t", "SELECT try_cast_col FROM t"},
		{"SELECT `a b` FROM `db`.`t`", `SELECT "a b" FROM "db"."t"`},
		{"SELECT 'it''s `x`' FROM t", "SELECT 'it''s `x`' FROM t"},
		{"SELECT a -- don't `touch`\nFROM t", "SELECT a -- don't `touch`\nFROM t"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalize(tt.in))
		})
	}
}

func TestGetColumnsParseError(t *testing.T) {
	_, err := GetColumns("SELEC foo FROM")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeParse))
}

func TestColumnString(t *testing.T) {
	c := Column{Name: "ID", Alias: "OID", Table: &OrTable{Tables: []*Table{{Name: "A"}, {Name: "B", Schema: "S"}}}}
	assert.Equal(t, "(A OR S.B).ID AS OID", c.String())
	assert.Len(t, c.Table.Candidates(), 2)
}

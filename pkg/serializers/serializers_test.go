package serializers

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

func testNode() *graph.Node {
	return &graph.Node{
		Key:   "hive://gold.core/orders/id",
		Label: "Column",
		Attributes: graph.Attributes{
			"name":       graph.String("id"),
			"sort_order": graph.Long(0),
			"nullable":   graph.Bool(false),
			"ratio":      graph.Double(0.5),
		},
	}
}

func testRelationship() *graph.Relationship {
	return &graph.Relationship{
		StartLabel:  "User",
		StartKey:    "a@example.com",
		EndLabel:    "Table",
		EndKey:      "hive://gold.core/orders",
		Type:        "READ",
		ReverseType: "READ_BY",
		Attributes:  graph.Attributes{"read_count": graph.Long(3)},
	}
}

func TestSerializeNode(t *testing.T) {
	row, err := SerializeNode(testNode())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"KEY":                 "hive://gold.core/orders/id",
		"LABEL":               "Column",
		"name":                "id",
		"sort_order:UNQUOTED": "0",
		"nullable:UNQUOTED":   "false",
		"ratio:UNQUOTED":      "0.5",
	}, row)
}

func TestSerializeWholeDoubleKeepsDecimalPoint(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{1, "1.0"},
		{-3, "-3.0"},
		{0, "0.0"},
		{2.5, "2.5"},
		{1e21, "1000000000000000000000.0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			n := testNode()
			n.Attributes["ratio"] = graph.Double(tt.in)
			row, err := SerializeNode(n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, row["ratio:UNQUOTED"])
		})
	}
}

func TestSerializeRelationship(t *testing.T) {
	row, err := SerializeRelationship(testRelationship())
	require.NoError(t, err)

	assert.Equal(t, "a@example.com", row[RelationStartKey])
	assert.Equal(t, "Table", row[RelationEndLabel])
	assert.Equal(t, "READ", row[RelationType])
	assert.Equal(t, "READ_BY", row[RelationReverse])
	assert.Equal(t, "3", row["read_count:UNQUOTED"])
}

func TestSerializersRejectInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		fn   func() error
	}{
		{"lower case label", func() error {
			_, err := SerializeNode(&graph.Node{Key: "k", Label: "table"})
			return err
		}},
		{"empty key", func() error {
			_, err := SerializeNode(&graph.Node{Label: "Table"})
			return err
		}},
		{"lower case type", func() error {
			r := testRelationship()
			r.Type = "read"
			_, err := SerializeRelationship(r)
			return err
		}},
		{"neptune missing end", func() error {
			r := testRelationship()
			r.EndKey = ""
			_, err := NewNeptuneSerializer(time.Now()).ConvertRelationship(r)
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.fn())
		})
	}
}

func TestSerializationIsPure(t *testing.T) {
	n := testNode()
	before := n.Attributes.Clone()

	first, err := SerializeNode(n)
	require.NoError(t, err)
	second, err := SerializeNode(n)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, before, n.Attributes)

	s := NewNeptuneSerializer(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	r := testRelationship()
	a, err := s.ConvertRelationship(r)
	require.NoError(t, err)
	b, err := s.ConvertRelationship(r)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "READ", r.Type)
}

func TestNeptuneConvertNode(t *testing.T) {
	s := NewNeptuneSerializer(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	row, err := s.ConvertNode(testNode())
	require.NoError(t, err)

	assert.Equal(t, "Column:hive://gold.core/orders/id", row[NeptuneID])
	assert.Equal(t, "Column", row[NeptuneLabel])
	assert.Equal(t, "hive://gold.core/orders/id", row["key:String(single)"])
	assert.Equal(t, "2024-01-02T03:04:05", row["last_extracted_datestamp:Date(single)"])
	assert.Equal(t, "job", row["creation_type:String(single)"])
	assert.Equal(t, "id", row["name:String(single)"])
	assert.Equal(t, "0", row["sort_order:Long(single)"])
	assert.Equal(t, "false", row["nullable:Bool(single)"])
	assert.Equal(t, "0.5", row["ratio:Double(single)"])
}

func TestNeptuneConvertRelationship(t *testing.T) {
	s := NewNeptuneSerializer(time.Unix(0, 0))
	rows, err := s.ConvertRelationship(testRelationship())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	forward, reverse := rows[0], rows[1]
	assert.Equal(t, "User:a@example.com", forward[NeptuneFrom])
	assert.Equal(t, "Table:hive://gold.core/orders", forward[NeptuneTo])
	assert.Equal(t, "READ", forward[NeptuneLabel])

	assert.Equal(t, forward[NeptuneFrom], reverse[NeptuneTo])
	assert.Equal(t, forward[NeptuneTo], reverse[NeptuneFrom])
	assert.Equal(t, "READ_BY", reverse[NeptuneLabel])
	assert.NotEqual(t, forward[NeptuneID], reverse[NeptuneID])

	assert.Equal(t, "3", forward["read_count:Long"])
	assert.Equal(t, "3", reverse["read_count:Long"])
}

func TestNeptuneType(t *testing.T) {
	assert.Equal(t, "Bool", NeptuneType(graph.Bool(true).Kind()))
	assert.Equal(t, "Long", NeptuneType(graph.Long(1).Kind()))
	assert.Equal(t, "Double", NeptuneType(graph.Double(1).Kind()))
	assert.Equal(t, "String", NeptuneType(graph.String("1").Kind()))
}

func TestAtlasEntity(t *testing.T) {
	e, err := AtlasEntityFromNode(testNode())
	require.NoError(t, err)
	e.Relationships = []AtlasReference{
		{Attribute: "table", TypeName: "Table", QualifiedName: "hive://gold.core/orders"},
	}

	row, err := SerializeAtlasEntity(e)
	require.NoError(t, err)
	assert.Equal(t, AtlasCreate, row[AtlasOperation])
	assert.Equal(t, "Column", row[AtlasTypeName])
	assert.Equal(t, "table#Table#hive://gold.core/orders", row[AtlasRelationships])

	var attrs map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(row[AtlasAttributes]), &attrs))
	assert.Equal(t, "hive://gold.core/orders/id", attrs[AtlasQualifiedName])
	assert.Equal(t, "id", attrs["name"])
	assert.Equal(t, false, attrs["nullable"])

	refs, err := ParseAtlasReferences(row[AtlasRelationships])
	require.NoError(t, err)
	assert.Equal(t, e.Relationships, refs)

	e.Operation = "DELETE"
	_, err = SerializeAtlasEntity(e)
	assert.Error(t, err)
}

func TestAtlasEntityReferencesFromRelationships(t *testing.T) {
	col := testNode()
	rels := []*graph.Relationship{
		{StartLabel: "Table", StartKey: "hive://gold.core/orders", EndLabel: "Column", EndKey: col.Key,
			Type: "COLUMN", ReverseType: "COLUMN_OF"},
		{StartLabel: "Column", StartKey: col.Key, EndLabel: "Badge", EndKey: "pk:column",
			Type: "HAS_BADGE", ReverseType: "BADGE_FOR"},
		{StartLabel: "Table", StartKey: "hive://gold.core/orders", EndLabel: "Tag", EndKey: "finance",
			Type: "TAGGED_BY", ReverseType: "TAG"},
	}

	e, err := AtlasEntityFromNode(col, rels...)
	require.NoError(t, err)
	assert.Equal(t, []AtlasReference{
		{Attribute: "column_of", TypeName: "Table", QualifiedName: "hive://gold.core/orders"},
		{Attribute: "has_badge", TypeName: "Badge", QualifiedName: "pk:column"},
	}, e.Relationships)

	row, err := SerializeAtlasEntity(e)
	require.NoError(t, err)
	assert.Equal(t, "column_of#Table#hive://gold.core/orders|has_badge#Badge#pk:column", row[AtlasRelationships])
}

func TestAtlasRelationship(t *testing.T) {
	r, err := AtlasRelationshipFromRelationship(testRelationship())
	require.NoError(t, err)

	row, err := SerializeAtlasRelationship(r)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		AtlasRelationshipType: "User__Table",
		AtlasEntityType1:      "User",
		AtlasQualifiedName1:   "a@example.com",
		AtlasEntityType2:      "Table",
		AtlasQualifiedName2:   "hive://gold.core/orders",
	}, row)

	_, err = SerializeAtlasRelationship(&AtlasRelationship{RelationshipType: "x"})
	assert.Error(t, err)
}

func TestSerializeRecord(t *testing.T) {
	rec := &graph.Record{Table: rds.TableMetadata, Values: graph.Attributes{
		"schema_rk": graph.String("hive://gold.core"),
		"rk":        graph.String("hive://gold.core/orders"),
		"is_view":   graph.Bool(false),
		"name":      graph.String("orders"),
	}}
	row, err := SerializeRecord(rec)
	require.NoError(t, err)
	assert.Equal(t, []string{"rk", "name", "is_view", "schema_rk"}, row.Columns)
	assert.Equal(t, []string{"hive://gold.core/orders", "orders", "false", "hive://gold.core"}, row.Strings())
	assert.Equal(t, []interface{}{"hive://gold.core/orders", "orders", false, "hive://gold.core"}, row.Args())

	_, err = SerializeRecord(&graph.Record{Table: "nope", Values: graph.Attributes{"rk": graph.String("x")}})
	assert.Error(t, err)

	_, err = SerializeRecord(&graph.Record{Table: rds.TableMetadata, Values: graph.Attributes{
		"rk": graph.String("x"), "bogus": graph.String("y"),
	}})
	assert.Error(t, err)

	_, err = SerializeRecord(&graph.Record{Table: rds.TableMetadata, Values: graph.Attributes{"name": graph.String("x")}})
	assert.Error(t, err)
}

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/databuilder/pkg/errors"
)

func TestNodeValidate(t *testing.T) {
	tests := []struct {
		name    string
		node    *Node
		wantErr bool
	}{
		{name: "valid", node: &Node{Key: "hive://gold.core/t", Label: "Table"}},
		{name: "underscore label", node: &Node{Key: "k", Label: "Type_Metadata"}},
		{name: "nil", node: nil, wantErr: true},
		{name: "empty key", node: &Node{Label: "Table"}, wantErr: true},
		{name: "empty label", node: &Node{Key: "k"}, wantErr: true},
		{name: "lowercase label", node: &Node{Key: "k", Label: "table"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.node.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRelationshipValidate(t *testing.T) {
	valid := Relationship{
		StartLabel: "Table", StartKey: "a", EndLabel: "Column", EndKey: "a/b",
		Type: "COLUMN", ReverseType: "COLUMN_OF",
	}
	assert.NoError(t, valid.Validate())

	lower := valid
	lower.Type = "column"
	assert.Error(t, lower.Validate())

	noReverse := valid
	noReverse.ReverseType = ""
	assert.Error(t, noReverse.Validate())

	noKey := valid
	noKey.EndKey = ""
	assert.Error(t, noKey.Validate())

	badLabel := valid
	badLabel.StartLabel = "table"
	assert.Error(t, badLabel.Validate())
}

func TestRelationshipReverse(t *testing.T) {
	rel := &Relationship{
		StartLabel: "User", StartKey: "a@x.com", EndLabel: "Table", EndKey: "t",
		Type: "READ", ReverseType: "READ_BY",
		Attributes: Attributes{"read_count": Long(3)},
	}
	rev := rel.Reverse()

	assert.Equal(t, "Table", rev.StartLabel)
	assert.Equal(t, "t", rev.StartKey)
	assert.Equal(t, "a@x.com", rev.EndKey)
	assert.Equal(t, "READ_BY", rev.Type)
	assert.Equal(t, "READ", rev.ReverseType)
	assert.Equal(t, int64(3), rev.Attributes["read_count"].LongVal())

	rev.Attributes["read_count"] = Long(9)
	assert.Equal(t, int64(3), rel.Attributes["read_count"].LongVal())
}

func TestValueRendering(t *testing.T) {
	assert.Equal(t, "abc", String("abc").String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "42", Long(42).String())
	assert.Equal(t, "1.5", Double(1.5).String())

	assert.Equal(t, KindBool, Bool(false).Kind())
	assert.Equal(t, int64(7), Long(7).Interface())
	assert.Equal(t, "long", KindLong.String())
}

func TestAttributesKeysSorted(t *testing.T) {
	attrs := Attributes{"name": String("x"), "col_type": String("int"), "sort_order": Long(1)}
	assert.Equal(t, []string{"col_type", "name", "sort_order"}, attrs.Keys())
}

func TestRecordValidate(t *testing.T) {
	assert.Error(t, (&Record{Values: Attributes{"a": String("b")}}).Validate())
	assert.Error(t, (&Record{Table: "table_metadata"}).Validate())
	assert.NoError(t, (&Record{Table: "table_metadata", Values: Attributes{"rk": String("k")}}).Validate())
}

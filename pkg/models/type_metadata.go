package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	TypeMetadataLabel = "Type_Metadata"

	TypeMetadataRelationType        = "TYPE_METADATA"
	TypeMetadataReverseRelationType = "TYPE_METADATA_OF"
	SubtypeRelationType             = "SUBTYPE"
	SubtypeReverseRelationType      = "SUBTYPE_OF"

	// ArrayElementName names the element type of an array.
	ArrayElementName = "_inner_"
	// MapKeyName and MapValueName name the two halves of a map type.
	MapKeyName   = "_map_key"
	MapValueName = "_map_value"
)

// TypeKind distinguishes the type node variants.
type TypeKind string

const (
	KindScalar TypeKind = "scalar"
	KindArray  TypeKind = "array"
	KindMap    TypeKind = "map"
	KindStruct TypeKind = "struct"
)

// TypeParent is what a type node hangs off: a column or an enclosing type.
// Only its key is used.
type TypeParent interface {
	Key() string
}

// TypeMetadata is one node of a parsed complex column type.
type TypeMetadata interface {
	TypeParent
	Name() string
	Kind() TypeKind
	DataType() string
	SortOrder() int
	Parent() TypeParent
	Children() []TypeMetadata
}

type typeBase struct {
	name      string
	dataType  string
	sortOrder int
	parent    TypeParent
}

func (t *typeBase) Name() string       { return t.name }
func (t *typeBase) DataType() string   { return t.dataType }
func (t *typeBase) SortOrder() int     { return t.sortOrder }
func (t *typeBase) Parent() TypeParent { return t.parent }

// Key formats {column_key}/type/{name} for a root type and
// {parent_key}/{name} below it.
func (t *typeBase) Key() string {
	if t.parent == nil {
		return ""
	}
	if _, ok := t.parent.(*ColumnMetadata); ok {
		return t.parent.Key() + "/type/" + t.name
	}
	return t.parent.Key() + "/" + t.name
}

// ScalarTypeMetadata is a leaf type such as int or decimal(10,2).
type ScalarTypeMetadata struct {
	typeBase
}

// NewScalarType builds a leaf type node.
func NewScalarType(name, dataType string, parent TypeParent, sortOrder int) *ScalarTypeMetadata {
	return &ScalarTypeMetadata{typeBase{name: name, dataType: dataType, parent: parent, sortOrder: sortOrder}}
}

func (t *ScalarTypeMetadata) Kind() TypeKind           { return KindScalar }
func (t *ScalarTypeMetadata) Children() []TypeMetadata { return nil }

// ArrayTypeMetadata is array<T>.
type ArrayTypeMetadata struct {
	typeBase
	Element TypeMetadata
}

// NewArrayType builds an array node; Element is set by the caller.
func NewArrayType(name, dataType string, parent TypeParent, sortOrder int) *ArrayTypeMetadata {
	return &ArrayTypeMetadata{typeBase: typeBase{name: name, dataType: dataType, parent: parent, sortOrder: sortOrder}}
}

func (t *ArrayTypeMetadata) Kind() TypeKind { return KindArray }

func (t *ArrayTypeMetadata) Children() []TypeMetadata {
	if t.Element == nil {
		return nil
	}
	return []TypeMetadata{t.Element}
}

// MapTypeMetadata is map<K,V>.
type MapTypeMetadata struct {
	typeBase
	KeyType   TypeMetadata
	ValueType TypeMetadata
}

// NewMapType builds a map node; KeyType and ValueType are set by the caller.
func NewMapType(name, dataType string, parent TypeParent, sortOrder int) *MapTypeMetadata {
	return &MapTypeMetadata{typeBase: typeBase{name: name, dataType: dataType, parent: parent, sortOrder: sortOrder}}
}

func (t *MapTypeMetadata) Kind() TypeKind { return KindMap }

func (t *MapTypeMetadata) Children() []TypeMetadata {
	var out []TypeMetadata
	if t.KeyType != nil {
		out = append(out, t.KeyType)
	}
	if t.ValueType != nil {
		out = append(out, t.ValueType)
	}
	return out
}

// StructTypeMetadata is struct<name:T,...>.
type StructTypeMetadata struct {
	typeBase
	Fields []TypeMetadata
}

// NewStructType builds a struct node; Fields are appended by the caller.
func NewStructType(name, dataType string, parent TypeParent, sortOrder int) *StructTypeMetadata {
	return &StructTypeMetadata{typeBase: typeBase{name: name, dataType: dataType, parent: parent, sortOrder: sortOrder}}
}

func (t *StructTypeMetadata) Kind() TypeKind           { return KindStruct }
func (t *StructTypeMetadata) Children() []TypeMetadata { return t.Fields }

// TypeMetadataTree serializes a parsed type tree rooted at a column.
type TypeMetadataTree struct {
	Root TypeMetadata

	producer
}

// NewTypeMetadataTree wraps root as an entity.
func NewTypeMetadataTree(root TypeMetadata) *TypeMetadataTree {
	t := &TypeMetadataTree{Root: root}
	t.init(
		func() []*graph.Node { n, _, _ := typeItems(root); return n },
		func() []*graph.Relationship { _, r, _ := typeItems(root); return r },
		func() []*graph.Record { _, _, rec := typeItems(root); return rec },
	)
	return t
}

// typeItems walks the tree depth first, parents before children.
func typeItems(root TypeMetadata) ([]*graph.Node, []*graph.Relationship, []*graph.Record) {
	var (
		nodes   []*graph.Node
		rels    []*graph.Relationship
		records []*graph.Record
	)
	stack := []TypeMetadata{root}
	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if t == nil {
			continue
		}

		nodes = append(nodes, node(t.Key(), TypeMetadataLabel, graph.Attributes{
			"name":       graph.String(t.Name()),
			"kind":       graph.String(string(t.Kind())),
			"data_type":  graph.String(t.DataType()),
			"sort_order": graph.Long(int64(t.SortOrder())),
		}))

		values := graph.Attributes{
			"rk":         graph.String(t.Key()),
			"name":       graph.String(t.Name()),
			"kind":       graph.String(string(t.Kind())),
			"data_type":  graph.String(t.DataType()),
			"sort_order": graph.Long(int64(t.SortOrder())),
		}
		if parent := t.Parent(); parent != nil {
			if _, ok := parent.(*ColumnMetadata); ok {
				rels = append(rels, relation(ColumnLabel, parent.Key(), TypeMetadataLabel, t.Key(),
					TypeMetadataRelationType, TypeMetadataReverseRelationType))
				values["column_rk"] = graph.String(parent.Key())
			} else {
				rels = append(rels, relation(TypeMetadataLabel, parent.Key(), TypeMetadataLabel, t.Key(),
					SubtypeRelationType, SubtypeReverseRelationType))
				values["parent_rk"] = graph.String(parent.Key())
			}
		}
		records = append(records, record(rds.TypeMetadata, values))

		children := t.Children()
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return nodes, rels, records
}

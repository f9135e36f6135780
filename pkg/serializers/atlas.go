package serializers

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"

	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
)

// Atlas CSV headers.
const (
	AtlasOperation     = "operation"
	AtlasTypeName      = "typeName"
	AtlasAttributes    = "attributes"
	AtlasRelationships = "relationships"

	AtlasRelationshipType = "relationshipType"
	AtlasEntityType1      = "entityType1"
	AtlasQualifiedName1   = "entityQualifiedName1"
	AtlasEntityType2      = "entityType2"
	AtlasQualifiedName2   = "entityQualifiedName2"

	AtlasCreate = "CREATE"
	AtlasUpdate = "UPDATE"

	// AtlasQualifiedName is the unique attribute of every Atlas entity.
	AtlasQualifiedName = "qualifiedName"

	atlasReferenceDelimiter = "#"
	atlasReferenceSeparator = "|"
)

// AtlasReference points from an entity attribute to another entity.
type AtlasReference struct {
	Attribute     string
	TypeName      string
	QualifiedName string
}

// AtlasEntity is one entity row of an Atlas import.
type AtlasEntity struct {
	Operation     string
	TypeName      string
	Attributes    graph.Attributes
	Relationships []AtlasReference
}

// AtlasRelationship is one relationship row of an Atlas import.
type AtlasRelationship struct {
	RelationshipType string
	EntityType1      string
	QualifiedName1   string
	EntityType2      string
	QualifiedName2   string
}

// AtlasEntityFromNode maps a node to a CREATE entity whose qualified name is
// the node key. Each of rels that starts or ends at the node becomes a
// reference to the other endpoint, named by the relationship type read from
// the node's side.
func AtlasEntityFromNode(n *graph.Node, rels ...*graph.Relationship) (*AtlasEntity, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	attrs := n.Attributes.Clone()
	if attrs == nil {
		attrs = graph.Attributes{}
	}
	attrs[AtlasQualifiedName] = graph.String(n.Key)
	if _, ok := attrs["name"]; !ok {
		attrs["name"] = graph.String(n.Key)
	}

	var refs []AtlasReference
	for _, r := range rels {
		switch {
		case r.StartLabel == n.Label && r.StartKey == n.Key:
			refs = append(refs, AtlasReference{Attribute: strings.ToLower(r.Type), TypeName: r.EndLabel, QualifiedName: r.EndKey})
		case r.EndLabel == n.Label && r.EndKey == n.Key:
			refs = append(refs, AtlasReference{Attribute: strings.ToLower(r.ReverseType), TypeName: r.StartLabel, QualifiedName: r.StartKey})
		}
	}
	return &AtlasEntity{Operation: AtlasCreate, TypeName: n.Label, Attributes: attrs, Relationships: refs}, nil
}

// AtlasRelationshipFromRelationship maps an edge to an Atlas relationship
// named {start_label}__{end_label}.
func AtlasRelationshipFromRelationship(r *graph.Relationship) (*AtlasRelationship, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &AtlasRelationship{
		RelationshipType: r.StartLabel + "__" + r.EndLabel,
		EntityType1:      r.StartLabel,
		QualifiedName1:   r.StartKey,
		EntityType2:      r.EndLabel,
		QualifiedName2:   r.EndKey,
	}, nil
}

func (e *AtlasEntity) validate() error {
	if e == nil {
		return errors.New(errors.ErrorTypeValidation, "nil atlas entity")
	}
	if e.TypeName == "" {
		return errors.New(errors.ErrorTypeValidation, "atlas entity requires a type name")
	}
	switch e.Operation {
	case AtlasCreate, AtlasUpdate:
	default:
		return errors.Newf(errors.ErrorTypeValidation, "unknown atlas operation %q", e.Operation)
	}
	if _, ok := e.Attributes[AtlasQualifiedName]; !ok {
		return errors.New(errors.ErrorTypeValidation, "atlas entity requires a qualifiedName attribute").
			WithDetail("type_name", e.TypeName)
	}
	for _, ref := range e.Relationships {
		if ref.Attribute == "" || ref.TypeName == "" || ref.QualifiedName == "" {
			return errors.New(errors.ErrorTypeValidation, "atlas reference requires attribute, type and qualified name").
				WithDetail("type_name", e.TypeName)
		}
	}
	return nil
}

// SerializeAtlasEntity renders an entity row. Attributes become a JSON
// object and references are flattened to attr#typeName#qualifiedName joined
// by |.
func SerializeAtlasEntity(e *AtlasEntity) (map[string]string, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	plain := make(map[string]interface{}, len(e.Attributes))
	for k, v := range e.Attributes {
		plain[k] = v.Interface()
	}
	attrs, err := json.Marshal(plain)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to encode atlas attributes")
	}

	refs := make([]string, 0, len(e.Relationships))
	for _, ref := range e.Relationships {
		refs = append(refs, strings.Join([]string{ref.Attribute, ref.TypeName, ref.QualifiedName}, atlasReferenceDelimiter))
	}
	sort.Strings(refs)

	return map[string]string{
		AtlasOperation:     e.Operation,
		AtlasTypeName:      e.TypeName,
		AtlasAttributes:    string(attrs),
		AtlasRelationships: strings.Join(refs, atlasReferenceSeparator),
	}, nil
}

// ParseAtlasReferences splits a flattened relationships cell.
func ParseAtlasReferences(cell string) ([]AtlasReference, error) {
	if cell == "" {
		return nil, nil
	}
	var out []AtlasReference
	for _, part := range strings.Split(cell, atlasReferenceSeparator) {
		fields := strings.SplitN(part, atlasReferenceDelimiter, 3)
		if len(fields) != 3 {
			return nil, errors.Newf(errors.ErrorTypeParse, "malformed atlas reference %q", part)
		}
		out = append(out, AtlasReference{Attribute: fields[0], TypeName: fields[1], QualifiedName: fields[2]})
	}
	return out, nil
}

// SerializeAtlasRelationship renders a relationship row.
func SerializeAtlasRelationship(r *AtlasRelationship) (map[string]string, error) {
	if r == nil || r.RelationshipType == "" || r.EntityType1 == "" || r.EntityType2 == "" ||
		r.QualifiedName1 == "" || r.QualifiedName2 == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "atlas relationship requires both endpoints and a type")
	}
	return map[string]string{
		AtlasRelationshipType: r.RelationshipType,
		AtlasEntityType1:      r.EntityType1,
		AtlasQualifiedName1:   r.QualifiedName1,
		AtlasEntityType2:      r.EntityType2,
		AtlasQualifiedName2:   r.QualifiedName2,
	}, nil
}

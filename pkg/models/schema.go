package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

// SchemaModel is a schema node with an optional description. The key is a
// full schema key such as hive://gold.core.
type SchemaModel struct {
	Key         string
	Name        string
	Description string
	Source      string

	producer
}

// NewSchemaModel builds a schema entity.
func NewSchemaModel(schemaKey, name, description, source string) *SchemaModel {
	s := &SchemaModel{Key: schemaKey, Name: name, Description: description, Source: source}
	s.init(s.nodes, s.relations, s.records)
	return s
}

func (s *SchemaModel) description() *DescriptionMetadata {
	if s.Description == "" {
		return nil
	}
	return newDescription(s.Description, s.Source, s.Key, SchemaLabel)
}

func (s *SchemaModel) nodes() []*graph.Node {
	out := []*graph.Node{node(s.Key, SchemaLabel, graph.Attributes{"name": graph.String(s.Name)})}
	if d := s.description(); d != nil {
		out = append(out, d.Node())
	}
	return out
}

func (s *SchemaModel) relations() []*graph.Relationship {
	if d := s.description(); d != nil {
		return []*graph.Relationship{d.Relation()}
	}
	return nil
}

func (s *SchemaModel) records() []*graph.Record {
	out := []*graph.Record{record(rds.SchemaMetadata, graph.Attributes{
		"rk":   graph.String(s.Key),
		"name": graph.String(s.Name),
	})}
	if d := s.description(); d != nil {
		out = append(out, d.record(rds.SchemaDescription, "schema_rk"))
	}
	return out
}

package models

import (
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
)

const (
	DescriptionLabel             = "Description"
	ProgrammaticDescriptionLabel = "Programmatic_Description"
	DefaultDescriptionSource     = "description"

	DescriptionRelationType        = "DESCRIPTION"
	DescriptionReverseRelationType = "DESCRIPTION_OF"
)

// DescriptionMetadata is a free-text description attached to another node.
// Descriptions from a source other than the default are programmatic and get
// their own label and key.
type DescriptionMetadata struct {
	Text       string
	Source     string
	StartKey   string
	StartLabel string

	producer
}

// NewDescription builds a standalone description entity.
func NewDescription(text, source, startKey, startLabel string) (*DescriptionMetadata, error) {
	if startKey == "" || startLabel == "" {
		return nil, errors.New(errors.ErrorTypeValidation, "description requires start key and start label").
			WithDetail("start_key", startKey).
			WithDetail("start_label", startLabel)
	}
	d := newDescription(text, source, startKey, startLabel)
	d.init(
		func() []*graph.Node { return []*graph.Node{d.Node()} },
		func() []*graph.Relationship { return []*graph.Relationship{d.Relation()} },
		nil,
	)
	return d, nil
}

func newDescription(text, source, startKey, startLabel string) *DescriptionMetadata {
	if source == "" {
		source = DefaultDescriptionSource
	}
	return &DescriptionMetadata{Text: text, Source: source, StartKey: startKey, StartLabel: startLabel}
}

// DescriptionKey formats the key of a description hanging off startKey.
func DescriptionKey(startKey, source string) string {
	if source == "" || source == DefaultDescriptionSource {
		return startKey + "/_description"
	}
	return startKey + "/_" + source + "_description"
}

// Key returns the description node key.
func (d *DescriptionMetadata) Key() string {
	return DescriptionKey(d.StartKey, d.Source)
}

// Label returns Description or Programmatic_Description.
func (d *DescriptionMetadata) Label() string {
	if d.Source == DefaultDescriptionSource {
		return DescriptionLabel
	}
	return ProgrammaticDescriptionLabel
}

// Node returns the description node.
func (d *DescriptionMetadata) Node() *graph.Node {
	return node(d.Key(), d.Label(), graph.Attributes{
		"description":        graph.String(d.Text),
		"description_source": graph.String(d.Source),
	})
}

// Relation links the start node to the description.
func (d *DescriptionMetadata) Relation() *graph.Relationship {
	return relation(d.StartLabel, d.StartKey, d.Label(), d.Key(),
		DescriptionRelationType, DescriptionReverseRelationType)
}

func (d *DescriptionMetadata) record(table, fk string) *graph.Record {
	return record(table, graph.Attributes{
		"rk":                 graph.String(d.Key()),
		"description_source": graph.String(d.Source),
		"description":        graph.String(d.Text),
		fk:                   graph.String(d.StartKey),
	})
}

package graph

import (
	"strings"
	"unicode"

	"github.com/ajitpratap0/databuilder/pkg/errors"
)

// Node is a graph vertex descriptor.
type Node struct {
	Key        string
	Label      string
	Attributes Attributes
}

// Validate checks the node can be handed to a sink.
func (n *Node) Validate() error {
	if n == nil {
		return errors.New(errors.ErrorTypeValidation, "nil node")
	}
	if n.Key == "" {
		return errors.New(errors.ErrorTypeValidation, "node key is required").WithDetail("label", n.Label)
	}
	if n.Label == "" {
		return errors.New(errors.ErrorTypeValidation, "node label is required").WithDetail("key", n.Key)
	}
	if !startsUpper(n.Label) {
		return errors.Newf(errors.ErrorTypeValidation, "node label %q must start with an uppercase letter", n.Label).
			WithDetail("key", n.Key)
	}
	return nil
}

// Relationship is a directed edge descriptor with a declared inverse.
type Relationship struct {
	StartLabel  string
	StartKey    string
	EndLabel    string
	EndKey      string
	Type        string
	ReverseType string
	Attributes  Attributes
}

// Validate checks the relationship can be handed to a sink.
func (r *Relationship) Validate() error {
	if r == nil {
		return errors.New(errors.ErrorTypeValidation, "nil relationship")
	}
	switch {
	case r.StartKey == "" || r.EndKey == "":
		return errors.New(errors.ErrorTypeValidation, "relationship start and end keys are required").
			WithDetail("type", r.Type)
	case r.StartLabel == "" || r.EndLabel == "":
		return errors.New(errors.ErrorTypeValidation, "relationship start and end labels are required").
			WithDetail("type", r.Type)
	case !startsUpper(r.StartLabel) || !startsUpper(r.EndLabel):
		return errors.Newf(errors.ErrorTypeValidation, "relationship labels %q/%q must start with an uppercase letter",
			r.StartLabel, r.EndLabel)
	case !isUpperToken(r.Type):
		return errors.Newf(errors.ErrorTypeValidation, "relationship type %q must be upper case", r.Type)
	case !isUpperToken(r.ReverseType):
		return errors.Newf(errors.ErrorTypeValidation, "relationship reverse type %q must be upper case", r.ReverseType)
	}
	return nil
}

// Reverse returns the semantic inverse edge.
func (r *Relationship) Reverse() *Relationship {
	return &Relationship{
		StartLabel:  r.EndLabel,
		StartKey:    r.EndKey,
		EndLabel:    r.StartLabel,
		EndKey:      r.StartKey,
		Type:        r.ReverseType,
		ReverseType: r.Type,
		Attributes:  r.Attributes.Clone(),
	}
}

// Record is a flat row for the relational sink.
type Record struct {
	Table  string
	Values Attributes
}

// Validate checks the record names its table and carries values.
func (r *Record) Validate() error {
	if r == nil {
		return errors.New(errors.ErrorTypeValidation, "nil record")
	}
	if r.Table == "" {
		return errors.New(errors.ErrorTypeValidation, "record table is required")
	}
	if len(r.Values) == 0 {
		return errors.New(errors.ErrorTypeValidation, "record has no values").WithDetail("table", r.Table)
	}
	return nil
}

func startsUpper(s string) bool {
	for _, c := range s {
		return unicode.IsUpper(c)
	}
	return false
}

func isUpperToken(s string) bool {
	return s != "" && s == strings.ToUpper(s) && !strings.ContainsAny(s, " \t")
}

// Package graph holds the sink-agnostic descriptors every catalog entity
// produces: graph nodes, directed relationships with a declared inverse, and
// flat records for the relational sink.
//
// Attribute values are a closed sum type (String, Bool, Long, Double) chosen
// when the entity is built, so serializers never have to guess a sink type
// from a dynamic value.
package graph

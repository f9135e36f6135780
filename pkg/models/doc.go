// Package models holds the catalog entities.
//
// An entity is built once from extracted data and then drained by a loader
// through NextNode, NextRelation and NextRecord. Each pull returns the next
// pending item or nil once the entity is exhausted; nil keeps coming back on
// later calls. Items are computed on the first pull and served in a stable
// order, so two extractions of the same object yield identical keys.
//
// Entities never point at each other. A column derives its table's key from
// the key format, which lets every entity be serialized on its own.
package models

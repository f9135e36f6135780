// Package serializers converts nodes, relationships and records into the row
// shapes each sink's bulk loader expects. Every function validates its input
// first, returns a fresh value and performs no I/O.
package serializers

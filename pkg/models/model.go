package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
)

// GraphSerializable is implemented by entities that produce graph items.
type GraphSerializable interface {
	NextNode() *graph.Node
	NextRelation() *graph.Relationship
}

// TableSerializable is implemented by entities that produce relational rows.
type TableSerializable interface {
	NextRecord() *graph.Record
}

// Entity produces both graph items and relational rows.
type Entity interface {
	GraphSerializable
	TableSerializable
}

// Keyed is implemented by entities that have a primary key.
type Keyed interface {
	Key() string
}

// sequence is a finite, forward-only list built on the first pull.
type sequence[T any] struct {
	build func() []T
	items []T
	built bool
	pos   int
}

func (s *sequence[T]) next() T {
	var zero T
	if !s.built {
		s.built = true
		if s.build != nil {
			s.items = s.build()
		}
		s.build = nil
	}
	if s.pos >= len(s.items) {
		s.items = nil
		return zero
	}
	item := s.items[s.pos]
	s.pos++
	return item
}

// producer implements the pull protocol for an embedding entity.
type producer struct {
	nodes   sequence[*graph.Node]
	rels    sequence[*graph.Relationship]
	records sequence[*graph.Record]
}

func (p *producer) init(
	nodes func() []*graph.Node,
	rels func() []*graph.Relationship,
	records func() []*graph.Record,
) {
	p.nodes = sequence[*graph.Node]{build: nodes}
	p.rels = sequence[*graph.Relationship]{build: rels}
	p.records = sequence[*graph.Record]{build: records}
}

// NextNode returns the next node or nil when exhausted.
func (p *producer) NextNode() *graph.Node { return p.nodes.next() }

// NextRelation returns the next relationship or nil when exhausted.
func (p *producer) NextRelation() *graph.Relationship { return p.rels.next() }

// NextRecord returns the next record or nil when exhausted.
func (p *producer) NextRecord() *graph.Record { return p.records.next() }

// Drain pulls every node and relationship out of e.
func Drain(e GraphSerializable) ([]*graph.Node, []*graph.Relationship) {
	var nodes []*graph.Node
	for n := e.NextNode(); n != nil; n = e.NextNode() {
		nodes = append(nodes, n)
	}
	var rels []*graph.Relationship
	for r := e.NextRelation(); r != nil; r = e.NextRelation() {
		rels = append(rels, r)
	}
	return nodes, rels
}

// DrainRecords pulls every record out of e.
func DrainRecords(e TableSerializable) []*graph.Record {
	var records []*graph.Record
	for r := e.NextRecord(); r != nil; r = e.NextRecord() {
		records = append(records, r)
	}
	return records
}

// DedupSet remembers keys already emitted within one job. Entities that share
// a dimension node (feature groups, cluster and schema nodes) consult it so
// the node is produced once. A nil set never deduplicates.
//
// DedupSet is not safe for concurrent use; a job drives its entities from a
// single goroutine.
type DedupSet struct {
	seen map[string]struct{}
}

// NewDedupSet returns an empty set.
func NewDedupSet() *DedupSet {
	return &DedupSet{seen: make(map[string]struct{})}
}

// FirstSeen records key and reports whether it was new.
func (d *DedupSet) FirstSeen(key string) bool {
	if d == nil {
		return true
	}
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Len returns the number of keys seen.
func (d *DedupSet) Len() int {
	if d == nil {
		return 0
	}
	return len(d.seen)
}

func node(key, label string, attrs graph.Attributes) *graph.Node {
	if attrs == nil {
		attrs = graph.Attributes{}
	}
	return &graph.Node{Key: key, Label: label, Attributes: attrs}
}

func relation(startLabel, startKey, endLabel, endKey, relType, reverseType string) *graph.Relationship {
	return &graph.Relationship{
		StartLabel:  startLabel,
		StartKey:    startKey,
		EndLabel:    endLabel,
		EndKey:      endKey,
		Type:        relType,
		ReverseType: reverseType,
		Attributes:  graph.Attributes{},
	}
}

func record(table string, values graph.Attributes) *graph.Record {
	return &graph.Record{Table: table, Values: values}
}

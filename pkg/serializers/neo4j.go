package serializers

import (
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/graph"
)

// Neo4j CSV headers.
const (
	NodeKey            = "KEY"
	NodeLabel          = "LABEL"
	RelationStartKey   = "START_KEY"
	RelationStartLabel = "START_LABEL"
	RelationEndKey     = "END_KEY"
	RelationEndLabel   = "END_LABEL"
	RelationType       = "TYPE"
	RelationReverse    = "REVERSE_TYPE"

	// UnquotedSuffix marks a header whose values are written without quotes
	// so the publisher loads them as numbers or booleans.
	UnquotedSuffix = ":UNQUOTED"
)

// SerializeNode renders a node as a Neo4j CSV row.
func SerializeNode(n *graph.Node) (map[string]string, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(n.Attributes)+2)
	row[NodeKey] = n.Key
	row[NodeLabel] = n.Label
	putNeo4jAttributes(row, n.Attributes)
	return row, nil
}

// SerializeRelationship renders a relationship as a Neo4j CSV row.
func SerializeRelationship(r *graph.Relationship) (map[string]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(r.Attributes)+6)
	row[RelationStartKey] = r.StartKey
	row[RelationStartLabel] = r.StartLabel
	row[RelationEndKey] = r.EndKey
	row[RelationEndLabel] = r.EndLabel
	row[RelationType] = r.Type
	row[RelationReverse] = r.ReverseType
	putNeo4jAttributes(row, r.Attributes)
	return row, nil
}

func putNeo4jAttributes(row map[string]string, attrs graph.Attributes) {
	for name, v := range attrs {
		header := name
		if v.Kind() != graph.KindString {
			header += UnquotedSuffix
		}
		row[header] = neo4jValue(v)
	}
}

// neo4jValue renders v; a whole Double keeps a ".0" so it does not load
// back as an integer.
func neo4jValue(v graph.Value) string {
	s := v.String()
	if v.Kind() == graph.KindDouble && !strings.ContainsAny(s, ".eEIN") {
		s += ".0"
	}
	return s
}

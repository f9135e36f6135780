package serializers

import (
	"fmt"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/graph"
)

// Neptune bulk loader reserved headers and metadata columns.
const (
	NeptuneID    = "~id"
	NeptuneLabel = "~label"
	NeptuneFrom  = "~from"
	NeptuneTo    = "~to"

	NeptuneKeyProperty          = "key"
	NeptuneExtractedAtProperty  = "last_extracted_datestamp"
	NeptuneCreationTypeProperty = "creation_type"
	DefaultNeptuneCreationType  = "job"
	neptuneDateFormat           = "2006-01-02T15:04:05"
)

// NeptuneSerializer converts graph items to Neptune bulk loader rows. The
// extraction timestamp is fixed up front so conversions stay deterministic.
type NeptuneSerializer struct {
	ExtractedAt  time.Time
	CreationType string
}

// NewNeptuneSerializer returns a serializer stamping rows with extractedAt.
func NewNeptuneSerializer(extractedAt time.Time) *NeptuneSerializer {
	return &NeptuneSerializer{ExtractedAt: extractedAt.UTC(), CreationType: DefaultNeptuneCreationType}
}

// NeptuneType returns the bulk loader type name of a value kind.
func NeptuneType(k graph.Kind) string {
	switch k {
	case graph.KindBool:
		return "Bool"
	case graph.KindLong:
		return "Long"
	case graph.KindDouble:
		return "Double"
	default:
		return "String"
	}
}

// NeptuneNodeID formats {label}:{key}.
func NeptuneNodeID(label, key string) string {
	return label + ":" + key
}

// NeptuneRelationID formats {type}:{from}_{to}.
func NeptuneRelationID(relType, from, to string) string {
	return fmt.Sprintf("%s:%s_%s", relType, from, to)
}

func (s *NeptuneSerializer) creationType() string {
	if s.CreationType == "" {
		return DefaultNeptuneCreationType
	}
	return s.CreationType
}

// ConvertNode renders a node as a Neptune vertex row.
func (s *NeptuneSerializer) ConvertNode(n *graph.Node) (map[string]string, error) {
	if err := n.Validate(); err != nil {
		return nil, err
	}
	row := make(map[string]string, len(n.Attributes)+5)
	row[NeptuneID] = NeptuneNodeID(n.Label, n.Key)
	row[NeptuneLabel] = n.Label
	row[NeptuneKeyProperty+":String(single)"] = n.Key
	row[NeptuneExtractedAtProperty+":Date(single)"] = s.ExtractedAt.Format(neptuneDateFormat)
	row[NeptuneCreationTypeProperty+":String(single)"] = s.creationType()
	for name, v := range n.Attributes {
		row[fmt.Sprintf("%s:%s(single)", name, NeptuneType(v.Kind()))] = v.String()
	}
	return row, nil
}

// ConvertRelationship renders a relationship as two Neptune edge rows, the
// forward edge followed by its inverse.
func (s *NeptuneSerializer) ConvertRelationship(r *graph.Relationship) ([]map[string]string, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return []map[string]string{s.edge(r), s.edge(r.Reverse())}, nil
}

func (s *NeptuneSerializer) edge(r *graph.Relationship) map[string]string {
	from := NeptuneNodeID(r.StartLabel, r.StartKey)
	to := NeptuneNodeID(r.EndLabel, r.EndKey)
	id := NeptuneRelationID(r.Type, from, to)

	row := make(map[string]string, len(r.Attributes)+7)
	row[NeptuneID] = id
	row[NeptuneFrom] = from
	row[NeptuneTo] = to
	row[NeptuneLabel] = r.Type
	row[NeptuneKeyProperty+":String"] = id
	row[NeptuneExtractedAtProperty+":Date"] = s.ExtractedAt.Format(neptuneDateFormat)
	row[NeptuneCreationTypeProperty+":String"] = s.creationType()
	for name, v := range r.Attributes {
		row[fmt.Sprintf("%s:%s", name, NeptuneType(v.Kind()))] = v.String()
	}
	return row
}

package models

import (
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	FeatureLabel               = "Feature"
	FeatureGroupLabel          = "Feature_Group"
	FeatureGenerationCodeLabel = "Feature_Generation_Code"
	FeatureWatermarkLabel      = "Feature_Watermark"

	FeatureGroupRelationType                 = "GROUPED_BY"
	FeatureGroupReverseRelationType          = "GROUPS"
	FeatureAvailableRelationType             = "FEATURE_AVAILABLE_IN"
	FeatureAvailableReverseRelationType      = "AVAILABLE_FEATURE"
	FeatureGenerationCodeRelationType        = "GENERATION_CODE"
	FeatureGenerationCodeReverseRelationType = "GENERATION_CODE_OF"
	FeatureWatermarkRelationType             = "WATERMARK"
	FeatureWatermarkReverseRelationType      = "BELONG_TO_FEATURE"
)

// FeatureKey formats {group}/{name}/{version}.
func FeatureKey(group, name, version string) string {
	return group + "/" + name + "/" + version
}

// FeatureMetadata is an ML feature, its group and the stores it lives in.
type FeatureMetadata struct {
	Group                string
	Name                 string
	Version              string
	Status               string
	Entity               string
	DataType             string
	Availability         []string
	Description          string
	Tags                 []string
	CreatedTimestamp     int64
	LastUpdatedTimestamp int64

	dedup *DedupSet

	producer
}

// NewFeatureMetadata builds a feature entity. The Feature_Group node is
// emitted once per dedup set; a nil set emits it every time.
func NewFeatureMetadata(f FeatureMetadata, dedup *DedupSet) *FeatureMetadata {
	out := f
	out.Tags = NormalizeTags(f.Tags)
	out.dedup = dedup
	out.init(out.nodes, out.relations, out.records)
	return &out
}

// Key returns the feature key.
func (f *FeatureMetadata) Key() string {
	return FeatureKey(f.Group, f.Name, f.Version)
}

func (f *FeatureMetadata) description() *DescriptionMetadata {
	if f.Description == "" {
		return nil
	}
	return newDescription(f.Description, DefaultDescriptionSource, f.Key(), FeatureLabel)
}

func (f *FeatureMetadata) nodes() []*graph.Node {
	out := []*graph.Node{node(f.Key(), FeatureLabel, graph.Attributes{
		"name":                   graph.String(f.Name),
		"version":                graph.String(f.Version),
		"status":                 graph.String(f.Status),
		"entity":                 graph.String(f.Entity),
		"data_type":              graph.String(f.DataType),
		"created_timestamp":      graph.Long(f.CreatedTimestamp),
		"last_updated_timestamp": graph.Long(f.LastUpdatedTimestamp),
	})}
	if f.dedup.FirstSeen(FeatureGroupLabel + ":" + f.Group) {
		out = append(out, node(f.Group, FeatureGroupLabel, graph.Attributes{"name": graph.String(f.Group)}))
	}
	for _, store := range f.Availability {
		out = append(out, node(DatabaseKey(store), DatabaseLabel, graph.Attributes{"name": graph.String(store)}))
	}
	if d := f.description(); d != nil {
		out = append(out, d.Node())
	}
	for _, tag := range f.Tags {
		out = append(out, tagNode(tag, DefaultTagType))
	}
	return out
}

func (f *FeatureMetadata) relations() []*graph.Relationship {
	out := []*graph.Relationship{relation(FeatureLabel, f.Key(), FeatureGroupLabel, f.Group,
		FeatureGroupRelationType, FeatureGroupReverseRelationType)}
	for _, store := range f.Availability {
		out = append(out, relation(FeatureLabel, f.Key(), DatabaseLabel, DatabaseKey(store),
			FeatureAvailableRelationType, FeatureAvailableReverseRelationType))
	}
	if d := f.description(); d != nil {
		out = append(out, d.Relation())
	}
	for _, tag := range f.Tags {
		out = append(out, relation(FeatureLabel, f.Key(), TagLabel, tag, TagRelationType, TagReverseRelationType))
	}
	return out
}

func (f *FeatureMetadata) records() []*graph.Record {
	return []*graph.Record{
		record(rds.FeatureGroup, graph.Attributes{
			"rk":   graph.String(f.Group),
			"name": graph.String(f.Group),
		}),
		record(rds.Feature, graph.Attributes{
			"rk":                     graph.String(f.Key()),
			"name":                   graph.String(f.Name),
			"version":                graph.String(f.Version),
			"status":                 graph.String(f.Status),
			"entity":                 graph.String(f.Entity),
			"data_type":              graph.String(f.DataType),
			"created_timestamp":      graph.Long(f.CreatedTimestamp),
			"last_updated_timestamp": graph.Long(f.LastUpdatedTimestamp),
			"feature_group_rk":       graph.String(f.Group),
		}),
	}
}

// FeatureGenerationCode is the code that produces a feature.
type FeatureGenerationCode struct {
	FeatureKey   string
	Text         string
	Source       string
	LastExecuted int64

	producer
}

// NewFeatureGenerationCode builds a generation code entity.
func NewFeatureGenerationCode(group, name, version, text, source string, lastExecuted int64) *FeatureGenerationCode {
	c := &FeatureGenerationCode{FeatureKey: FeatureKey(group, name, version), Text: text, Source: source, LastExecuted: lastExecuted}
	key := c.FeatureKey + "/_generation_code"
	c.init(
		func() []*graph.Node {
			return []*graph.Node{node(key, FeatureGenerationCodeLabel, graph.Attributes{
				"text":                    graph.String(text),
				"source":                  graph.String(source),
				"last_executed_timestamp": graph.Long(lastExecuted),
			})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(FeatureLabel, c.FeatureKey, FeatureGenerationCodeLabel, key,
				FeatureGenerationCodeRelationType, FeatureGenerationCodeReverseRelationType)}
		},
		nil,
	)
	return c
}

// FeatureWatermark is a low or high watermark of a feature.
type FeatureWatermark struct {
	FeatureKey string
	Timestamp  int64
	Type       string

	producer
}

// NewFeatureWatermark builds a feature watermark; wmType is typically
// low_watermark or high_watermark.
func NewFeatureWatermark(group, name, version string, timestamp int64, wmType string) *FeatureWatermark {
	w := &FeatureWatermark{FeatureKey: FeatureKey(group, name, version), Timestamp: timestamp, Type: wmType}
	key := w.FeatureKey + "/" + wmType
	w.init(
		func() []*graph.Node {
			return []*graph.Node{node(key, FeatureWatermarkLabel, graph.Attributes{
				"timestamp":      graph.Long(timestamp),
				"watermark_type": graph.String(wmType),
			})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(FeatureLabel, w.FeatureKey, FeatureWatermarkLabel, key,
				FeatureWatermarkRelationType, FeatureWatermarkReverseRelationType)}
		},
		nil,
	)
	return w
}

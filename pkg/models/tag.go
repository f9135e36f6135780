package models

import (
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	DefaultTagType   = "default"
	DashboardTagType = "dashboard"

	TagRelationType        = "TAGGED_BY"
	TagReverseRelationType = "TAG"

	BadgeRelationType        = "HAS_BADGE"
	BadgeReverseRelationType = "BADGE_FOR"
	DefaultBadgeCategory     = "default"
	ColumnBadgeCategory      = "column"
)

// NormalizeTags lower-cases, trims and deduplicates tags, dropping empties.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// SplitTags parses a comma separated tag list.
func SplitTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

func tagNode(tag, tagType string) *graph.Node {
	return node(tag, TagLabel, graph.Attributes{"tag_type": graph.String(tagType)})
}

func tagRecord(tag, tagType string) *graph.Record {
	return record(rds.TagMetadata, graph.Attributes{
		"rk":       graph.String(tag),
		"tag_type": graph.String(tagType),
	})
}

// Badge is a name within a category.
type Badge struct {
	Name     string
	Category string
}

// Key formats {name}:{category}.
func (b Badge) Key() string {
	return b.Name + ":" + b.Category
}

func (b Badge) node() *graph.Node {
	return node(b.Key(), BadgeLabel, graph.Attributes{"category": graph.String(b.Category)})
}

func (b Badge) record() *graph.Record {
	return record(rds.Badge, graph.Attributes{
		"rk":       graph.String(b.Key()),
		"category": graph.String(b.Category),
	})
}

// BadgeMetadata attaches badges to an existing table or column.
type BadgeMetadata struct {
	StartLabel string
	StartKey   string
	Badges     []Badge

	producer
}

// NewBadgeMetadata builds a badge entity for a Table or Column node.
func NewBadgeMetadata(startLabel, startKey string, badges ...Badge) *BadgeMetadata {
	m := &BadgeMetadata{StartLabel: startLabel, StartKey: startKey, Badges: badges}
	m.init(m.nodes, m.relations, m.records)
	return m
}

func (m *BadgeMetadata) nodes() []*graph.Node {
	out := make([]*graph.Node, 0, len(m.Badges))
	for _, b := range m.Badges {
		out = append(out, b.node())
	}
	return out
}

func (m *BadgeMetadata) relations() []*graph.Relationship {
	out := make([]*graph.Relationship, 0, len(m.Badges))
	for _, b := range m.Badges {
		out = append(out, relation(m.StartLabel, m.StartKey, BadgeLabel, b.Key(),
			BadgeRelationType, BadgeReverseRelationType))
	}
	return out
}

func (m *BadgeMetadata) records() []*graph.Record {
	var out []*graph.Record
	link, fk := rds.TableBadge, "table_rk"
	if m.StartLabel == ColumnLabel {
		link, fk = rds.ColumnBadge, "column_rk"
	}
	for _, b := range m.Badges {
		out = append(out, b.record(), record(link, graph.Attributes{
			fk:         graph.String(m.StartKey),
			"badge_rk": graph.String(b.Key()),
		}))
	}
	return out
}

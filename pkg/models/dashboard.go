package models

import (
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	DashboardLabel      = "Dashboard"
	DashboardGroupLabel = "Dashboardgroup"

	DashboardGroupRelationType        = "DASHBOARD_GROUP"
	DashboardGroupReverseRelationType = "DASHBOARD_GROUP_OF"
	DashboardRelationType             = "DASHBOARD"
	DashboardReverseRelationType      = "DASHBOARD_OF"

	DefaultDashboardCluster = "gold"
	noDashboardGroup        = "_no_group"
)

// DashboardRef identifies a dashboard by the parts of its key.
type DashboardRef struct {
	Product     string
	Cluster     string
	GroupID     string
	DashboardID string
}

func (r DashboardRef) cluster() string {
	if r.Cluster == "" {
		return DefaultDashboardCluster
	}
	return r.Cluster
}

func (r DashboardRef) group() string {
	if r.GroupID == "" {
		return noDashboardGroup
	}
	return r.GroupID
}

// ClusterKey formats {product}_dashboard://{cluster}.
func (r DashboardRef) ClusterKey() string {
	return fmt.Sprintf("%s_dashboard://%s", r.Product, r.cluster())
}

// GroupKey formats {product}_dashboard://{cluster}.{group}.
func (r DashboardRef) GroupKey() string {
	return r.ClusterKey() + "." + r.group()
}

// Key formats {group_key}/{dashboard}.
func (r DashboardRef) Key() string {
	return r.GroupKey() + "/" + r.DashboardID
}

// DashboardMetadata is a dashboard with its group and cluster.
type DashboardMetadata struct {
	DashboardRef
	GroupName        string
	Name             string
	Description      string
	GroupDescription string
	GroupURL         string
	URL              string
	CreatedTimestamp int64
	Tags             []string

	producer
}

// NewDashboardMetadata builds a dashboard entity. DashboardID falls back to
// Name. The group node and the cluster to group relation are only produced
// when a group id is present.
func NewDashboardMetadata(d DashboardMetadata) *DashboardMetadata {
	out := d
	if out.DashboardID == "" {
		out.DashboardID = out.Name
	}
	out.Tags = NormalizeTags(d.Tags)
	out.init(out.nodes, out.relations, out.records)
	return &out
}

func (d *DashboardMetadata) hasGroup() bool {
	return d.GroupID != ""
}

func (d *DashboardMetadata) descriptions() []*DescriptionMetadata {
	var out []*DescriptionMetadata
	if d.Description != "" {
		out = append(out, newDescription(d.Description, DefaultDescriptionSource, d.Key(), DashboardLabel))
	}
	if d.GroupDescription != "" && d.hasGroup() {
		out = append(out, newDescription(d.GroupDescription, DefaultDescriptionSource, d.GroupKey(), DashboardGroupLabel))
	}
	return out
}

func (d *DashboardMetadata) nodes() []*graph.Node {
	out := []*graph.Node{
		node(d.Key(), DashboardLabel, graph.Attributes{
			"name":              graph.String(d.Name),
			"dashboard_url":     graph.String(d.URL),
			"created_timestamp": graph.Long(d.CreatedTimestamp),
		}),
		node(d.ClusterKey(), ClusterLabel, graph.Attributes{"name": graph.String(d.cluster())}),
	}
	if d.hasGroup() {
		out = append(out, node(d.GroupKey(), DashboardGroupLabel, graph.Attributes{
			"name":                graph.String(d.GroupName),
			"dashboard_group_url": graph.String(d.GroupURL),
		}))
	}
	for _, desc := range d.descriptions() {
		out = append(out, desc.Node())
	}
	for _, tag := range d.Tags {
		out = append(out, tagNode(tag, DashboardTagType))
	}
	return out
}

func (d *DashboardMetadata) relations() []*graph.Relationship {
	var out []*graph.Relationship
	if d.hasGroup() {
		out = append(out,
			relation(ClusterLabel, d.ClusterKey(), DashboardGroupLabel, d.GroupKey(),
				DashboardGroupRelationType, DashboardGroupReverseRelationType),
			relation(DashboardGroupLabel, d.GroupKey(), DashboardLabel, d.Key(),
				DashboardRelationType, DashboardReverseRelationType),
		)
	}
	for _, desc := range d.descriptions() {
		out = append(out, desc.Relation())
	}
	for _, tag := range d.Tags {
		out = append(out, relation(DashboardLabel, d.Key(), TagLabel, tag, TagRelationType, TagReverseRelationType))
	}
	return out
}

func (d *DashboardMetadata) records() []*graph.Record {
	out := []*graph.Record{
		record(rds.DashboardCluster, graph.Attributes{
			"rk":   graph.String(d.ClusterKey()),
			"name": graph.String(d.cluster()),
		}),
	}
	if d.hasGroup() {
		out = append(out, record(rds.DashboardGroup, graph.Attributes{
			"rk":                  graph.String(d.GroupKey()),
			"name":                graph.String(d.GroupName),
			"dashboard_group_url": graph.String(d.GroupURL),
			"cluster_rk":          graph.String(d.ClusterKey()),
		}))
		if d.GroupDescription != "" {
			out = append(out, record(rds.DashboardGroupDescription, graph.Attributes{
				"rk":                 graph.String(DescriptionKey(d.GroupKey(), DefaultDescriptionSource)),
				"description":        graph.String(d.GroupDescription),
				"dashboard_group_rk": graph.String(d.GroupKey()),
			}))
		}
	}
	dashboard := graph.Attributes{
		"rk":                graph.String(d.Key()),
		"name":              graph.String(d.Name),
		"dashboard_url":     graph.String(d.URL),
		"created_timestamp": graph.Long(d.CreatedTimestamp),
	}
	if d.hasGroup() {
		dashboard["dashboard_group_rk"] = graph.String(d.GroupKey())
	}
	out = append(out, record(rds.Dashboard, dashboard))
	if d.Description != "" {
		out = append(out, record(rds.DashboardDescription, graph.Attributes{
			"rk":           graph.String(DescriptionKey(d.Key(), DefaultDescriptionSource)),
			"description":  graph.String(d.Description),
			"dashboard_rk": graph.String(d.Key()),
		}))
	}
	for _, tag := range d.Tags {
		out = append(out,
			tagRecord(tag, DashboardTagType),
			record(rds.DashboardTag, graph.Attributes{
				"dashboard_rk": graph.String(d.Key()),
				"tag_rk":       graph.String(tag),
			}),
		)
	}
	return out
}

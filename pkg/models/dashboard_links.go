package models

import (
	"go.uber.org/zap"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	QueryLabel = "Query"
	ChartLabel = "Chart"

	DashboardTableRelationType        = "DASHBOARD_WITH_TABLE"
	DashboardTableReverseRelationType = "TABLE_OF_DASHBOARD"
	QueryRelationType                 = "HAS_QUERY"
	QueryReverseRelationType          = "QUERY_OF"
	ChartRelationType                 = "HAS_CHART"
	ChartReverseRelationType          = "CHART_OF"
)

// DashboardTable links a dashboard to the tables it reads. Table keys that
// cannot be split unambiguously are dropped with a warning.
type DashboardTable struct {
	Dashboard DashboardRef
	TableKeys []string

	valid    []string
	screened bool
	producer
}

// NewDashboardTable builds a dashboard to table entity.
func NewDashboardTable(ref DashboardRef, tableKeys []string) *DashboardTable {
	d := &DashboardTable{Dashboard: ref, TableKeys: tableKeys}
	d.init(nil, d.relations, d.records)
	return d
}

// validKeys screens TableKeys once; later calls reuse the result.
func (d *DashboardTable) validKeys() []string {
	if d.screened {
		return d.valid
	}
	d.screened = true
	for _, k := range d.TableKeys {
		if _, ok := ParseTableKey(k); !ok {
			metrics.Skipped.WithLabelValues("dashboard_table", "ambiguous_table_key").Inc()
			logger.Warn("skipping ambiguous table key on dashboard",
				zap.String("dashboard", d.Dashboard.Key()),
				zap.String("table_key", k))
			continue
		}
		d.valid = append(d.valid, k)
	}
	return d.valid
}

func (d *DashboardTable) relations() []*graph.Relationship {
	var out []*graph.Relationship
	for _, k := range d.validKeys() {
		out = append(out, relation(DashboardLabel, d.Dashboard.Key(), TableLabel, k,
			DashboardTableRelationType, DashboardTableReverseRelationType))
	}
	return out
}

func (d *DashboardTable) records() []*graph.Record {
	var out []*graph.Record
	for _, k := range d.validKeys() {
		out = append(out, record(rds.DashboardTable, graph.Attributes{
			"dashboard_rk": graph.String(d.Dashboard.Key()),
			"table_rk":     graph.String(k),
		}))
	}
	return out
}

// DashboardOwner links a dashboard to an owner.
type DashboardOwner struct {
	Dashboard DashboardRef
	Email     string

	producer
}

// NewDashboardOwner builds a dashboard ownership entity.
func NewDashboardOwner(ref DashboardRef, email string) *DashboardOwner {
	o := &DashboardOwner{Dashboard: ref, Email: email}
	o.init(
		func() []*graph.Node {
			return []*graph.Node{node(UserKey(email), UserLabel, graph.Attributes{"email": graph.String(email)})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(DashboardLabel, ref.Key(), UserLabel, UserKey(email),
				OwnerRelationType, OwnerReverseRelationType)}
		},
		func() []*graph.Record {
			return []*graph.Record{
				record(rds.User, graph.Attributes{"rk": graph.String(UserKey(email)), "email": graph.String(email)}),
				record(rds.DashboardOwner, graph.Attributes{
					"dashboard_rk": graph.String(ref.Key()),
					"user_rk":      graph.String(UserKey(email)),
				}),
			}
		},
	)
	return o
}

// DashboardUsage is a per-user view count of a dashboard.
type DashboardUsage struct {
	Dashboard  DashboardRef
	Email      string
	ViewCount  int64
	CreateUser bool

	producer
}

// NewDashboardUsage builds a dashboard usage entity. createUser controls
// whether a User node is emitted alongside the read relation.
func NewDashboardUsage(ref DashboardRef, email string, viewCount int64, createUser bool) *DashboardUsage {
	u := &DashboardUsage{Dashboard: ref, Email: email, ViewCount: viewCount, CreateUser: createUser}
	u.init(u.nodes, u.relations, u.records)
	return u
}

func (u *DashboardUsage) nodes() []*graph.Node {
	if !u.CreateUser {
		return nil
	}
	return []*graph.Node{node(UserKey(u.Email), UserLabel, graph.Attributes{"email": graph.String(u.Email)})}
}

func (u *DashboardUsage) relations() []*graph.Relationship {
	rel := relation(UserLabel, UserKey(u.Email), DashboardLabel, u.Dashboard.Key(), ReadRelationType, ReadReverseRelationType)
	rel.Attributes[ReadCountAttribute] = graph.Long(u.ViewCount)
	return []*graph.Relationship{rel}
}

func (u *DashboardUsage) records() []*graph.Record {
	var out []*graph.Record
	if u.CreateUser {
		out = append(out, record(rds.User, graph.Attributes{"rk": graph.String(UserKey(u.Email)), "email": graph.String(u.Email)}))
	}
	return append(out, record(rds.DashboardUsage, graph.Attributes{
		"dashboard_rk":     graph.String(u.Dashboard.Key()),
		"user_rk":          graph.String(UserKey(u.Email)),
		ReadCountAttribute: graph.Long(u.ViewCount),
	}))
}

// DashboardLastModified records when a dashboard last changed.
type DashboardLastModified struct {
	Dashboard    DashboardRef
	LastModified int64

	producer
}

// NewDashboardLastModified builds a dashboard timestamp entity.
func NewDashboardLastModified(ref DashboardRef, lastModified int64) *DashboardLastModified {
	m := &DashboardLastModified{Dashboard: ref, LastModified: lastModified}
	key := ref.Key() + "/_last_modified_timestamp"
	m.init(
		func() []*graph.Node {
			return []*graph.Node{node(key, TimestampLabel, graph.Attributes{
				"timestamp": graph.Long(lastModified),
				"name":      graph.String("last_updated_timestamp"),
			})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(DashboardLabel, ref.Key(), TimestampLabel, key,
				LastUpdatedRelationType, LastUpdatedReverseRelationType)}
		},
		func() []*graph.Record {
			return []*graph.Record{record(rds.DashboardTimestamp, graph.Attributes{
				"rk":           graph.String(key),
				"timestamp":    graph.Long(lastModified),
				"dashboard_rk": graph.String(ref.Key()),
			})}
		},
	)
	return m
}

// DashboardQuery is a query behind a dashboard.
type DashboardQuery struct {
	Dashboard DashboardRef
	QueryID   string
	Name      string
	URL       string
	QueryText string

	producer
}

// DashboardQueryKey formats {dashboard_key}/query/{id}.
func DashboardQueryKey(ref DashboardRef, queryID string) string {
	return ref.Key() + "/query/" + queryID
}

// NewDashboardQuery builds a dashboard query entity.
func NewDashboardQuery(ref DashboardRef, queryID, name, url, queryText string) *DashboardQuery {
	q := &DashboardQuery{Dashboard: ref, QueryID: queryID, Name: name, URL: url, QueryText: queryText}
	key := DashboardQueryKey(ref, queryID)
	q.init(
		func() []*graph.Node {
			return []*graph.Node{node(key, QueryLabel, graph.Attributes{
				"id":         graph.String(queryID),
				"name":       graph.String(name),
				"url":        graph.String(url),
				"query_text": graph.String(queryText),
			})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(DashboardLabel, ref.Key(), QueryLabel, key,
				QueryRelationType, QueryReverseRelationType)}
		},
		func() []*graph.Record {
			return []*graph.Record{record(rds.DashboardQuery, graph.Attributes{
				"rk":           graph.String(key),
				"id":           graph.String(queryID),
				"name":         graph.String(name),
				"url":          graph.String(url),
				"query_text":   graph.String(queryText),
				"dashboard_rk": graph.String(ref.Key()),
			})}
		},
	)
	return q
}

// DashboardChart is a chart rendered from a dashboard query.
type DashboardChart struct {
	Dashboard DashboardRef
	QueryID   string
	ChartID   string
	Name      string
	Type      string
	URL       string

	producer
}

// NewDashboardChart builds a chart entity; its key is {query_key}/chart/{id}.
func NewDashboardChart(ref DashboardRef, queryID, chartID, name, chartType, url string) *DashboardChart {
	c := &DashboardChart{Dashboard: ref, QueryID: queryID, ChartID: chartID, Name: name, Type: chartType, URL: url}
	queryKey := DashboardQueryKey(ref, queryID)
	key := queryKey + "/chart/" + chartID
	c.init(
		func() []*graph.Node {
			return []*graph.Node{node(key, ChartLabel, graph.Attributes{
				"id":   graph.String(chartID),
				"name": graph.String(name),
				"type": graph.String(chartType),
				"url":  graph.String(url),
			})}
		},
		func() []*graph.Relationship {
			return []*graph.Relationship{relation(QueryLabel, queryKey, ChartLabel, key,
				ChartRelationType, ChartReverseRelationType)}
		},
		func() []*graph.Record {
			return []*graph.Record{record(rds.DashboardChart, graph.Attributes{
				"rk":       graph.String(key),
				"id":       graph.String(chartID),
				"name":     graph.String(name),
				"type":     graph.String(chartType),
				"url":      graph.String(url),
				"query_rk": graph.String(queryKey),
			})}
		},
	)
	return c
}

package models

import (
	"fmt"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

const (
	ApplicationLabel = "Application"

	ApplicationRelationType        = "GENERATES"
	ApplicationReverseRelationType = "DERIVED_FROM"

	DefaultApplicationURLTemplate = "https://airflow.example.com/admin/airflow/tree?dag_id={dag}"
)

// Application is the Airflow task that generates a table.
type Application struct {
	TaskID      string
	DagID       string
	URL         string
	Description string
	TableKey    string

	producer
}

// NewApplication builds an application entity. urlTemplate may contain
// {dag} and {task} placeholders; empty selects the default.
func NewApplication(taskID, dagID, urlTemplate, database, cluster, schema, table string) *Application {
	if urlTemplate == "" {
		urlTemplate = DefaultApplicationURLTemplate
	}
	url := strings.NewReplacer("{dag}", dagID, "{task}", taskID).Replace(urlTemplate)
	a := &Application{
		TaskID:      taskID,
		DagID:       dagID,
		URL:         url,
		Description: fmt.Sprintf("Airflow with id %s/%s", dagID, taskID),
		TableKey:    TableKey(database, cluster, schema, table),
	}
	a.init(a.nodes, a.relations, a.records)
	return a
}

// Key formats application://{cluster}.airflow/{dag}/{task} with the gold
// cluster.
func (a *Application) Key() string {
	return fmt.Sprintf("application://gold.airflow/%s/%s", a.DagID, a.TaskID)
}

func (a *Application) nodes() []*graph.Node {
	return []*graph.Node{node(a.Key(), ApplicationLabel, graph.Attributes{
		"application_url": graph.String(a.URL),
		"name":            graph.String("Airflow"),
		"id":              graph.String(a.DagID + "/" + a.TaskID),
		"description":     graph.String(a.Description),
	})}
}

func (a *Application) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(ApplicationLabel, a.Key(), TableLabel, a.TableKey,
		ApplicationRelationType, ApplicationReverseRelationType)}
}

func (a *Application) records() []*graph.Record {
	return []*graph.Record{
		record(rds.Application, graph.Attributes{
			"rk":              graph.String(a.Key()),
			"application_url": graph.String(a.URL),
			"name":            graph.String("Airflow"),
			"id":              graph.String(a.DagID + "/" + a.TaskID),
			"description":     graph.String(a.Description),
		}),
		record(rds.ApplicationTable, graph.Attributes{
			"application_rk": graph.String(a.Key()),
			"table_rk":       graph.String(a.TableKey),
		}),
	}
}

const (
	ReportLabel = "Report"

	ReportRelationType        = "HAS_REPORT"
	ReportReverseRelationType = "REPORT_OF"
)

// ResourceReport is a link to an external report about a resource.
type ResourceReport struct {
	Name          string
	URL           string
	ResourceKey   string
	ResourceLabel string

	producer
}

// NewResourceReport builds a report entity; resourceLabel defaults to Table.
func NewResourceReport(name, url, resourceKey, resourceLabel string) *ResourceReport {
	if resourceLabel == "" {
		resourceLabel = TableLabel
	}
	r := &ResourceReport{Name: name, URL: url, ResourceKey: resourceKey, ResourceLabel: resourceLabel}
	r.init(r.nodes, r.relations, r.records)
	return r
}

// Key formats {resource_key}/_report/{name}.
func (r *ResourceReport) Key() string {
	return r.ResourceKey + "/_report/" + r.Name
}

func (r *ResourceReport) nodes() []*graph.Node {
	return []*graph.Node{node(r.Key(), ReportLabel, graph.Attributes{
		"name": graph.String(r.Name),
		"url":  graph.String(r.URL),
	})}
}

func (r *ResourceReport) relations() []*graph.Relationship {
	return []*graph.Relationship{relation(r.ResourceLabel, r.ResourceKey, ReportLabel, r.Key(),
		ReportRelationType, ReportReverseRelationType)}
}

func (r *ResourceReport) records() []*graph.Record {
	if r.ResourceLabel != TableLabel {
		return nil
	}
	return []*graph.Record{record(rds.TableReport, graph.Attributes{
		"rk":       graph.String(r.Key()),
		"name":     graph.String(r.Name),
		"url":      graph.String(r.URL),
		"table_rk": graph.String(r.ResourceKey),
	})}
}

package models

import (
	"fmt"
	"strings"
)

// Node labels shared across entities.
const (
	DatabaseLabel = "Database"
	ClusterLabel  = "Cluster"
	SchemaLabel   = "Schema"
	TableLabel    = "Table"
	ColumnLabel   = "Column"
	UserLabel     = "User"
	TagLabel      = "Tag"
	BadgeLabel    = "Badge"
)

// DefaultCluster is used when a source does not name its cluster.
const DefaultCluster = "gold"

// DatabaseKey formats database://{db}.
func DatabaseKey(db string) string {
	return "database://" + db
}

// ClusterKey formats {db}://{cluster}.
func ClusterKey(db, cluster string) string {
	return fmt.Sprintf("%s://%s", db, cluster)
}

// SchemaKey formats {db}://{cluster}.{schema}.
func SchemaKey(db, cluster, schema string) string {
	return fmt.Sprintf("%s://%s.%s", db, cluster, schema)
}

// TableKey formats {db}://{cluster}.{schema}/{table}.
func TableKey(db, cluster, schema, table string) string {
	return fmt.Sprintf("%s://%s.%s/%s", db, cluster, schema, table)
}

// ColumnKey formats {table_key}/{column}.
func ColumnKey(tableKey, column string) string {
	return tableKey + "/" + column
}

// TableKeyParts is a table key split into its components.
type TableKeyParts struct {
	Database string
	Cluster  string
	Schema   string
	Table    string
}

// ParseTableKey splits a table key. It rejects keys whose components cannot
// be recovered unambiguously: a missing scheme, a missing cluster or schema
// separator, or a table segment carrying a dot or slash.
func ParseTableKey(key string) (TableKeyParts, bool) {
	db, rest, ok := strings.Cut(key, "://")
	if !ok || db == "" {
		return TableKeyParts{}, false
	}
	clusterSchema, table, ok := strings.Cut(rest, "/")
	if !ok || table == "" || strings.ContainsAny(table, "./") {
		return TableKeyParts{}, false
	}
	cluster, schema, ok := strings.Cut(clusterSchema, ".")
	if !ok || cluster == "" || schema == "" || strings.Contains(schema, ".") {
		return TableKeyParts{}, false
	}
	return TableKeyParts{Database: db, Cluster: cluster, Schema: schema, Table: table}, true
}

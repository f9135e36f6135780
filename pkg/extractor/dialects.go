package extractor

import (
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/config"
	_ "github.com/go-sql-driver/mysql"     // registers the "mysql" driver
	_ "github.com/snowflakedb/gosnowflake" // registers the "snowflake" driver
)

// Scopes of the SQL metadata extractors.
const (
	PostgresScope  = "postgres_metadata"
	MySQLScope     = "mysql_metadata"
	SnowflakeScope = "snowflake_metadata"

	// SnowflakeDatabaseKey names the Snowflake database whose information
	// schema is read.
	SnowflakeDatabaseKey = "snowflake_database"
)

const postgresMetadataQuery = `SELECT
  %s AS cluster, c.table_schema AS schema, c.table_name AS name, pgtd.description AS description,
  c.column_name AS col_name, c.data_type AS col_type, pgcd.description AS col_description,
  c.ordinal_position AS col_sort_order, t.table_type = 'VIEW' AS is_view
FROM information_schema.columns c
INNER JOIN information_schema.tables t
  ON c.table_schema = t.table_schema AND c.table_name = t.table_name
LEFT JOIN pg_catalog.pg_class pc
  ON pc.relname = c.table_name
  AND pc.relnamespace = (SELECT oid FROM pg_catalog.pg_namespace WHERE nspname = c.table_schema)
LEFT JOIN pg_catalog.pg_description pgcd
  ON pgcd.objoid = pc.oid AND pgcd.objsubid = c.ordinal_position
LEFT JOIN pg_catalog.pg_description pgtd
  ON pgtd.objoid = pc.oid AND pgtd.objsubid = 0
%s
ORDER BY cluster, schema, name, col_sort_order`

const mysqlMetadataQuery = "SELECT\n" +
	"  %s AS cluster, c.table_schema AS `schema`, c.table_name AS name, t.table_comment AS description,\n" +
	"  c.column_name AS col_name, c.data_type AS col_type, c.column_comment AS col_description,\n" +
	"  c.ordinal_position AS col_sort_order, t.table_type = 'VIEW' AS is_view\n" +
	"FROM information_schema.columns AS c\n" +
	"LEFT JOIN information_schema.tables t\n" +
	"  ON c.table_name = t.table_name AND c.table_schema = t.table_schema\n" +
	"%s\n" +
	"ORDER BY cluster, `schema`, name, col_sort_order"

const snowflakeMetadataQuery = `SELECT
  lower(%[1]s) AS cluster, lower(c.table_schema) AS schema, lower(c.table_name) AS name, t.comment AS description,
  lower(c.column_name) AS col_name, lower(c.data_type) AS col_type, c.comment AS col_description,
  c.ordinal_position AS col_sort_order, t.table_type = 'VIEW' AS is_view
FROM %[2]s.INFORMATION_SCHEMA.COLUMNS AS c
LEFT JOIN %[2]s.INFORMATION_SCHEMA.TABLES t
  ON c.table_name = t.table_name AND c.table_schema = t.table_schema
%[3]s
ORDER BY cluster, schema, name, col_sort_order`

var (
	postgresDialect = dialect{
		scope:            PostgresScope,
		database:         "postgres",
		catalogColumn:    "c.table_catalog",
		catalogAsCluster: true,
		where:            "WHERE c.table_schema NOT IN ('pg_catalog', 'information_schema')",
		render: func(_ *config.Config, cluster, where string) string {
			return fmt.Sprintf(postgresMetadataQuery, cluster, where)
		},
		open: openPgx,
	}

	mysqlDialect = dialect{
		scope:         MySQLScope,
		database:      "mysql",
		catalogColumn: "c.table_catalog",
		where:         "WHERE c.table_schema NOT IN ('mysql', 'information_schema', 'performance_schema', 'sys')",
		render: func(_ *config.Config, cluster, where string) string {
			return fmt.Sprintf(mysqlMetadataQuery, cluster, where)
		},
		open: openSQL("mysql"),
	}

	snowflakeDialect = dialect{
		scope:         SnowflakeScope,
		database:      "snowflake",
		catalogColumn: "c.table_catalog",
		where:         "WHERE c.table_schema != 'INFORMATION_SCHEMA'",
		render: func(cfg *config.Config, cluster, where string) string {
			return fmt.Sprintf(snowflakeMetadataQuery, cluster, cfg.GetString(SnowflakeDatabaseKey, "prod"), where)
		},
		open: openSQL("snowflake"),
	}
)

// NewPostgresMetadataExtractor reads information_schema through pgx.
func NewPostgresMetadataExtractor() *SQLMetadataExtractor {
	return newSQLMetadataExtractor(postgresDialect)
}

// NewMySQLMetadataExtractor reads information_schema through the MySQL driver.
func NewMySQLMetadataExtractor() *SQLMetadataExtractor {
	return newSQLMetadataExtractor(mysqlDialect)
}

// NewSnowflakeMetadataExtractor reads a Snowflake database's information schema.
// The cluster defaults to the literal cluster_key; set
// use_catalog_as_cluster_name to use the catalog instead.
func NewSnowflakeMetadataExtractor() *SQLMetadataExtractor {
	return newSQLMetadataExtractor(snowflakeDialect)
}

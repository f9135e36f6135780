// Package databuilder ingests metadata about data assets into a catalog
// graph.
//
// A job pulls records from one extractor, passes them through a chain of
// transformers and hands them to a loader that writes node and relationship
// CSV files. After the task succeeds a publisher bulk-loads those files into
// the catalog store.
//
//	extractor -> transformer... -> loader -> publisher
//
// # Architecture
//
// Catalog entities (tables, columns, users, dashboards, lineage, usage) live
// in pkg/models and expose themselves as pull sequences of graph nodes and
// relationships (pkg/graph) or relational rows (pkg/rds). Serializers in
// pkg/serializers turn them into Neo4j, Neptune, Atlas or MySQL rows.
//
// Components register themselves by scope in generic registries
// (pkg/registry), so a job is fully described by a YAML file:
//
//	job:
//	  name: hive_tables
//	  extractor: postgres_metadata
//	  transformers: [complex_type]
//	  loader: fs_neo4j_csv
//	  publisher: neo4j
//	extractor:
//	  postgres_metadata:
//	    conn_string: ${PG_DSN}
//	loader:
//	  fs_neo4j_csv:
//	    node_dir_path: /tmp/nodes
//	    relationship_dir_path: /tmp/relationships
//	publisher:
//	  neo4j:
//	    node_files_directory: /tmp/nodes
//	    relation_files_directory: /tmp/relationships
//	    neo4j_endpoint: neo4j://localhost:7687
//
// and run with:
//
//	databuilder run --config job.yaml
//
// # Key Packages
//
//	pkg/models       - Catalog entities and their graph/record projections
//	pkg/extractor    - SQL, BigQuery, Kafka and CSV metadata extractors
//	pkg/transformer  - Record transformers and the chained transformer
//	pkg/loader       - Filesystem CSV loaders per target store
//	pkg/publisher    - Neo4j, Neptune and MySQL publishers
//	pkg/job          - Task and job driver
//	pkg/complextype  - Hive complex type parser
//	pkg/lineage      - SQL column lineage resolution
//	pkg/config       - Viper backed configuration scopes
//	pkg/logger       - Structured logging with zap
//	pkg/metrics      - Prometheus collectors
//	pkg/observability - OpenTelemetry tracing
package databuilder

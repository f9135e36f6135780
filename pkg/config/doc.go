// Package config provides the scoped configuration tree shared by every
// databuilder component.
//
// A job file is a YAML document with a `job` section naming the components
// to wire and one section per component kind holding that component's
// settings:
//
//	job:
//	  name: postgres_to_neo4j
//	  extractor: postgres_metadata
//	  transformers: [complex_type]
//	  loader: fs_neo4j_csv
//	  publisher: neo4j
//	extractor:
//	  postgres_metadata:
//	    conn_string: ${PG_CONN}
//	    cluster: gold
//	loader:
//	  fs_neo4j_csv:
//	    node_dir_path: /tmp/amundsen/nodes
//	    relationship_dir_path: /tmp/amundsen/relationships
//
// Components receive only their own subtree through Scope, e.g.
// cfg.Scope("extractor.postgres_metadata"). `${VAR}` references are
// substituted from the environment when the file is read and any key can be
// overridden with a DATABUILDER_ prefixed environment variable
// (DATABUILDER_JOB_NAME overrides job.name).
package config

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jobYAML = `
job:
  name: pg_to_neo4j
  extractor: postgres_metadata
  transformers: [complex_type]
  loader: fs_neo4j_csv
  publisher: neo4j
  log:
    level: debug
extractor:
  postgres_metadata:
    conn_string: ${DATABUILDER_TEST_CONN}
    cluster: gold
    use_catalog_as_cluster_name: true
    timeout: 45s
loader:
  fs_neo4j_csv:
    node_dir_path: /tmp/nodes
`

func TestParseAndScope(t *testing.T) {
	t.Setenv("DATABUILDER_TEST_CONN", "postgres://localhost/db")

	cfg, err := Parse([]byte(jobYAML), "yaml")
	require.NoError(t, err)

	scoped := cfg.Scope("extractor.postgres_metadata")
	assert.Equal(t, "postgres://localhost/db", scoped.GetString("conn_string", ""))
	assert.Equal(t, "gold", scoped.GetString("cluster", ""))
	assert.True(t, scoped.GetBool("use_catalog_as_cluster_name", false))
	assert.Equal(t, 45*time.Second, scoped.GetDuration("timeout", time.Second))
	assert.Equal(t, "fallback", scoped.GetString("where_clause_suffix", "fallback"))

	missing := cfg.Scope("publisher.neo4j")
	assert.False(t, missing.IsSet("end_point"))
	assert.Equal(t, 500, missing.GetInt("batch_size", 500))
}

func TestJobSpec(t *testing.T) {
	cfg, err := Parse([]byte(jobYAML), "yaml")
	require.NoError(t, err)

	spec, err := cfg.Job()
	require.NoError(t, err)
	assert.Equal(t, "pg_to_neo4j", spec.Name)
	assert.Equal(t, "postgres_metadata", spec.Extractor)
	assert.Equal(t, []string{"complex_type"}, spec.Transformers)
	assert.Equal(t, "fs_neo4j_csv", spec.Loader)
	assert.Equal(t, "neo4j", spec.Publisher)
	assert.Equal(t, "debug", spec.Log.Level)
	assert.Equal(t, ":9102", spec.Metrics.Addr)
}

func TestJobSpecRequiresExtractorAndLoader(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "missing extractor", yaml: "job:\n  loader: fs_neo4j_csv\n"},
		{name: "missing loader", yaml: "job:\n  extractor: csv_table_column\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.yaml), "yaml")
			require.NoError(t, err)
			_, err = cfg.Job()
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yml")
	require.NoError(t, os.WriteFile(path, []byte(jobYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/nodes", cfg.Scope("loader.fs_neo4j_csv").GetString("node_dir_path", ""))

	out, err := cfg.Dump()
	require.NoError(t, err)
	assert.Contains(t, string(out), "fs_neo4j_csv")
}

func TestFromMap(t *testing.T) {
	cfg := FromMap(map[string]interface{}{
		"extractor": map[string]interface{}{
			"csv_table_column": map[string]interface{}{
				"table_file_location": "tables.csv",
			},
		},
		"loader.fs_neo4j_csv.node_dir_path": "/tmp/n",
	})

	assert.Equal(t, "tables.csv", cfg.Scope("extractor.csv_table_column").GetString("table_file_location", ""))
	assert.Equal(t, "/tmp/n", cfg.Scope("loader.fs_neo4j_csv").GetString("node_dir_path", ""))

	_, err := cfg.Scope("loader.fs_neo4j_csv").RequireString("relationship_dir_path")
	assert.Error(t, err)
}

func TestSubstituteEnvVars(t *testing.T) {
	t.Setenv("DB_HOST", "warehouse")
	assert.Equal(t, "host=warehouse port=", substituteEnvVars("host=${DB_HOST} port=${DB_PORT_UNSET}"))
	assert.Equal(t, "no vars", substituteEnvVars("no vars"))
}

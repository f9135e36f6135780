// Package publisher bulk-loads the CSV files written by a loader into the
// catalog store.
package publisher

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/registry"
)

// Publisher runs once after a task has loaded every record.
type Publisher interface {
	Init(ctx context.Context, cfg *config.Config) error
	Publish(ctx context.Context) error
	Close() error
	Scope() string
}

// Registry holds every built-in publisher, keyed by scope.
var Registry = registry.New[Publisher]("publisher")

func init() {
	Registry.MustRegister(Neo4jScope, func() Publisher { return &Neo4jPublisher{} })
	Registry.MustRegister(NeptuneScope, func() Publisher { return &NeptunePublisher{} })
	Registry.MustRegister(MySQLScope, func() Publisher { return &MySQLPublisher{} })
	Registry.MustRegister(NoopScope, func() Publisher { return Noop{} })
}

// Shared configuration keys.
const (
	NodeFilesDirKey     = "node_files_directory"
	RelationFilesDirKey = "relation_files_directory"
	PublishTagKey       = "job_publish_tag"
	BatchSizeKey        = "batch_size"

	defaultBatchSize = 1000
)

// NoopScope names the publisher that does nothing.
const NoopScope = "noop"

// Noop is used by jobs that only write files.
type Noop struct{}

func (Noop) Init(context.Context, *config.Config) error { return nil }
func (Noop) Publish(context.Context) error              { return nil }
func (Noop) Close() error                               { return nil }
func (Noop) Scope() string                              { return NoopScope }

// csvFiles lists the loader output files in dir, sorted by name.
func csvFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to list "+dir)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(compression.TrimExtension(name), ".csv") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// csvTable is one loader file held in memory.
type csvTable struct {
	path   string
	header []string
	rows   [][]string
}

// maps returns each row keyed by header.
func (t *csvTable) maps() []map[string]string {
	out := make([]map[string]string, len(t.rows))
	for i, row := range t.rows {
		m := make(map[string]string, len(t.header))
		for j, h := range t.header {
			if j < len(row) {
				m[h] = row[j]
			}
		}
		out[i] = m
	}
	return out
}

func readCSV(path string) (*csvTable, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the configured directory
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open "+path)
	}
	defer f.Close()

	r, err := compression.NewReader(f, compression.ForPath(path))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to open compressed stream "+path)
	}
	defer r.Close()

	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeParse, "failed to read "+path)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrorTypeData, path+" has no header")
	}
	return &csvTable{path: path, header: records[0], rows: records[1:]}, nil
}

// batches splits n items into [start, end) windows of at most size.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = defaultBatchSize
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, [2]int{start, end})
	}
	return out
}

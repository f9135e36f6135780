// Package loader drains catalog entities into CSV files that a publisher
// later bulk-loads into its store.
//
// Each loader pulls every node, relationship or record out of an entity,
// serializes it for its sink and appends it to the file matching its label
// and column set. Files are named {prefix}_{n}.csv, with n counting the
// distinct column sets seen for a prefix.
package loader

import (
	"context"
	"fmt"
	"os"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/registry"
)

// Loader is the sink side of a task.
type Loader interface {
	// Init configures output directories.
	Init(ctx context.Context, cfg *config.Config) error
	// Load writes every item of one entity.
	Load(ctx context.Context, record any) error
	// Close flushes and closes all files.
	Close() error
	// Scope is the configuration key the loader reads under "loader.".
	Scope() string
}

// Registry holds every built-in loader, keyed by scope.
var Registry = registry.New[Loader]("loader")

func init() {
	Registry.MustRegister(Neo4jCSVScope, func() Loader { return &Neo4jCSVLoader{} })
	Registry.MustRegister(NeptuneCSVScope, func() Loader { return &NeptuneCSVLoader{} })
	Registry.MustRegister(AtlasCSVScope, func() Loader { return &AtlasCSVLoader{} })
	Registry.MustRegister(MySQLCSVScope, func() Loader { return &MySQLCSVLoader{} })
}

// Shared configuration keys.
const (
	NodeDirKey         = "node_dir_path"
	RelationshipDirKey = "relationship_dir_path"
	ForceCreateDirKey  = "force_create_directory"
)

// prepareDir creates dir. With force set an existing directory is emptied
// first.
func prepareDir(dir string, force bool) error {
	if force {
		if err := os.RemoveAll(dir); err != nil {
			return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to clear %s", dir))
		}
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to create %s", dir))
	}
	return nil
}

// requireDir reads a directory setting and prepares it.
func requireDir(cfg *config.Config, key string) (string, error) {
	dir, err := cfg.RequireString(key)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrorTypeConfig, "loader")
	}
	if err := prepareDir(dir, cfg.GetBool(ForceCreateDirKey, false)); err != nil {
		return "", err
	}
	return dir, nil
}

// codec reads the compress setting.
func codec(cfg *config.Config) (compression.Algorithm, error) {
	algo, err := compression.Parse(cfg.GetString(CompressKey, ""))
	if err != nil {
		return compression.None, errors.Wrap(err, errors.ErrorTypeConfig, "loader")
	}
	return algo, nil
}

func notGraph(scope string, record any) error {
	return errors.New(errors.ErrorTypeData, fmt.Sprintf("%s cannot load %T: not graph serializable", scope, record))
}

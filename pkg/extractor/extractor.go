// Package extractor pulls raw metadata out of sources.
//
// An Extractor is initialized with its scoped configuration and then pulled
// one record at a time. Records are catalog entities (for metadata
// extractors) or plain maps (for the generic SQL and Kafka extractors, to be
// shaped by a transformer). A nil record with a nil error means the source is
// exhausted; further calls keep returning nil.
package extractor

import (
	"context"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/registry"
)

// Extractor is the source side of a task.
type Extractor interface {
	// Init configures the extractor from its scoped configuration and
	// opens any connection it needs.
	Init(ctx context.Context, cfg *config.Config) error
	// Extract returns the next record, or nil when exhausted.
	Extract(ctx context.Context) (any, error)
	// Close releases connections.
	Close() error
	// Scope is the configuration key the extractor reads under
	// "extractor.".
	Scope() string
}

// Registry holds every built-in extractor, keyed by scope.
var Registry = registry.New[Extractor]("extractor")

func init() {
	Registry.MustRegister(PostgresScope, func() Extractor { return NewPostgresMetadataExtractor() })
	Registry.MustRegister(MySQLScope, func() Extractor { return NewMySQLMetadataExtractor() })
	Registry.MustRegister(SnowflakeScope, func() Extractor { return NewSnowflakeMetadataExtractor() })
	Registry.MustRegister(BigQueryScope, func() Extractor { return &BigQueryExtractor{} })
	Registry.MustRegister(KafkaScope, func() Extractor { return &KafkaExtractor{} })
	Registry.MustRegister(CSVTableColumnScope, func() Extractor { return &CSVTableColumnExtractor{} })
	Registry.MustRegister(GenericSQLScope, func() Extractor { return &GenericSQLExtractor{} })
	Registry.MustRegister(ColumnUsageScope, func() Extractor { return &ColumnUsageExtractor{} })
}

// Drain pulls every record out of an initialized extractor.
func Drain(ctx context.Context, e Extractor) ([]any, error) {
	var out []any
	for {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		rec, err := e.Extract(ctx)
		if err != nil {
			return out, err
		}
		if rec == nil {
			return out, nil
		}
		out = append(out, rec)
	}
}

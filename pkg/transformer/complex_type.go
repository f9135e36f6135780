package transformer

import (
	"context"

	"github.com/ajitpratap0/databuilder/pkg/complextype"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"go.uber.org/zap"
)

// Complex type configuration.
const (
	ComplexTypeScope = "complex_type"
	ParseScalarsKey  = "parse_scalars"
)

// ComplexType parses the type string of every complex column of a
// TableMetadata into a TypeMetadata tree. Columns whose type does not parse
// keep their plain type; the failure is logged and counted.
type ComplexType struct {
	parseScalars bool
	parsed       int
	failed       int
	logger       *zap.Logger
}

// Scope implements Transformer.
func (t *ComplexType) Scope() string { return ComplexTypeScope }

// Init reads parse_scalars (default false).
func (t *ComplexType) Init(_ context.Context, cfg *config.Config) error {
	t.parseScalars = cfg.GetBool(ParseScalarsKey, false)
	t.logger = logger.Get().With(zap.String("component", ComplexTypeScope))
	return nil
}

// Transform attaches type metadata to the columns of table records; other
// records pass through.
func (t *ComplexType) Transform(_ context.Context, record any) (any, error) {
	table, ok := record.(*models.TableMetadata)
	if !ok {
		return record, nil
	}
	for _, col := range table.Columns {
		if !t.parseScalars && !complextype.IsComplex(col.Type) {
			continue
		}
		if err := complextype.ParseColumn(col); err != nil {
			t.failed++
			metrics.Skipped.WithLabelValues(ComplexTypeScope, "unparseable_type").Inc()
			t.logger.Warn("could not parse column type",
				zap.String("column", col.Key()),
				zap.String("type", col.Type),
				zap.Error(err))
			continue
		}
		t.parsed++
	}
	return table, nil
}

// Stats returns the number of parsed and failed columns.
func (t *ComplexType) Stats() (parsed, failed int) { return t.parsed, t.failed }

// Close logs the totals.
func (t *ComplexType) Close() error {
	if t.logger != nil {
		t.logger.Info("complex types parsed", zap.Int("parsed", t.parsed), zap.Int("failed", t.failed))
	}
	return nil
}

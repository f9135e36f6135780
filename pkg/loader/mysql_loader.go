package loader

import (
	"context"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/ajitpratap0/databuilder/pkg/serializers"
	"go.uber.org/zap"
)

// MySQLCSVLoader writes one CSV file per table and column set with columns
// in declaration order, ready for the MySQL publisher.
type MySQLCSVLoader struct {
	records *csvSink
	logger  *zap.Logger
}

// Scope implements Loader.
func (l *MySQLCSVLoader) Scope() string { return MySQLCSVScope }

// Init prepares record_dir_path.
func (l *MySQLCSVLoader) Init(_ context.Context, cfg *config.Config) error {
	dir, err := requireDir(cfg, RecordDirKey)
	if err != nil {
		return err
	}
	algo, err := codec(cfg)
	if err != nil {
		return err
	}
	l.records = newCSVSink(dir, algo)
	l.logger = logger.Get().With(zap.String("component", MySQLCSVScope))
	return nil
}

// Load writes every record of the entity.
func (l *MySQLCSVLoader) Load(ctx context.Context, record any) error {
	e, ok := record.(models.TableSerializable)
	if !ok {
		return notGraph(MySQLCSVScope, record)
	}
	for rec := e.NextRecord(); rec != nil; rec = e.NextRecord() {
		row, err := serializers.SerializeRecord(rec)
		if err != nil {
			return err
		}
		values := make(map[string]string, len(row.Columns))
		for i, v := range row.Strings() {
			values[row.Columns[i]] = v
		}
		if err := l.records.write(row.Table, row.Columns, values); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// RecordFiles returns the files written.
func (l *MySQLCSVLoader) RecordFiles() []string { return l.records.Files() }

// Close flushes all files.
func (l *MySQLCSVLoader) Close() error {
	if l.records == nil {
		return nil
	}
	err := l.records.Close()
	l.logger.Info("record files written",
		zap.Int("files", len(l.records.Files())),
		zap.Int("records", l.records.Rows()))
	return err
}

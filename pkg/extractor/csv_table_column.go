package extractor

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"go.uber.org/zap"
)

// CSV table/column extractor configuration.
const (
	CSVTableColumnScope = "csv_table_column"
	TableFileKey        = "table_file_location"
	ColumnFileKey       = "column_file_location"
)

// CSVTableColumnExtractor joins a table file and a column file into
// TableMetadata entities. Both files have a header row; columns are matched
// to tables by (database, cluster, schema, table_name).
//
// Table file headers: database, cluster, schema, name, description, tags,
// is_view, description_source. Column file headers: database, cluster,
// schema, table_name, name, description, col_type, sort_order.
type CSVTableColumnExtractor struct {
	tables []*models.TableMetadata
	pos    int
}

// Scope implements Extractor.
func (e *CSVTableColumnExtractor) Scope() string { return CSVTableColumnScope }

// Init reads both files.
func (e *CSVTableColumnExtractor) Init(_ context.Context, cfg *config.Config) error {
	log := logger.Get().With(zap.String("component", CSVTableColumnScope))

	tablePath, err := cfg.RequireString(TableFileKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, CSVTableColumnScope)
	}
	columnPath, err := cfg.RequireString(ColumnFileKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, CSVTableColumnScope)
	}

	columnRows, err := readCSVDicts(columnPath)
	if err != nil {
		return err
	}
	columns := make(map[string][]*models.ColumnMetadata)
	for _, r := range columnRows {
		key := models.TableKey(r["database"], r["cluster"], r["schema"], r["table_name"])
		order, err := strconv.Atoi(strings.TrimSpace(r["sort_order"]))
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("column %s of %s: bad sort_order", r["name"], key))
		}
		columns[key] = append(columns[key], models.NewColumnMetadata(r["name"], r["col_type"], r["description"], order))
	}

	tableRows, err := readCSVDicts(tablePath)
	if err != nil {
		return err
	}
	dedup := models.NewDedupSet()
	e.tables = make([]*models.TableMetadata, 0, len(tableRows))
	for _, r := range tableRows {
		key := models.TableKey(r["database"], r["cluster"], r["schema"], r["name"])
		opts := []models.TableOption{models.WithDedup(dedup)}
		if src := r["description_source"]; src != "" {
			opts = append(opts, models.WithDescriptionSource(src))
		}
		isView, _ := strconv.ParseBool(strings.TrimSpace(r["is_view"]))
		t, err := models.NewTableMetadata(r["database"], r["cluster"], r["schema"], r["name"], r["description"],
			columns[key], isView, models.SplitTags(r["tags"]), opts...)
		if err != nil {
			return err
		}
		e.tables = append(e.tables, t)
	}

	log.Info("csv tables loaded", zap.Int("tables", len(e.tables)), zap.Int("columns", len(columnRows)))
	return nil
}

// Extract returns the next table.
func (e *CSVTableColumnExtractor) Extract(context.Context) (any, error) {
	if e.pos >= len(e.tables) {
		return nil, nil
	}
	t := e.tables[e.pos]
	e.pos++
	return t, nil
}

// Close implements Extractor.
func (e *CSVTableColumnExtractor) Close() error { return nil }

// readCSVDicts reads a headed CSV file into one map per row.
func readCSVDicts(path string) ([]map[string]string, error) {
	file, err := os.Open(path) //nolint:gosec // G304: path comes from the job config
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to open %s", path))
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to read header of %s", path))
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var out []map[string]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, fmt.Sprintf("failed to read %s", path))
		}
		m := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(row) {
				m[h] = row[i]
			}
		}
		out = append(out, m)
	}
}

package publisher

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ajitpratap0/databuilder/pkg/compression"
	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/rds"
	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// MySQL publisher settings.
const (
	MySQLScope = "mysql"

	RecordFilesDirKey = "record_files_directory"
	MySQLConnKey      = "conn_string"
)

// MySQLPublisher upserts MySQL CSV files into the declared catalog tables,
// one transaction per file.
type MySQLPublisher struct {
	dir   string
	dsn   string
	batch int

	open    func(ctx context.Context, dsn string) (*sql.DB, error)
	db      *sql.DB
	created map[string]bool
	logger  *zap.Logger

	rows int
}

// Scope implements Publisher.
func (p *MySQLPublisher) Scope() string { return MySQLScope }

// Init opens the database.
func (p *MySQLPublisher) Init(ctx context.Context, cfg *config.Config) error {
	var err error
	if p.dir, err = cfg.RequireString(RecordFilesDirKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, MySQLScope)
	}
	if p.dsn, err = cfg.RequireString(MySQLConnKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, MySQLScope)
	}
	p.batch = cfg.GetInt(BatchSizeKey, defaultBatchSize)
	p.created = make(map[string]bool)
	p.logger = logger.Get().With(zap.String("component", MySQLScope))

	if p.open == nil {
		p.open = openMySQL
	}
	p.db, err = p.open(ctx, p.dsn)
	return err
}

func openMySQL(ctx context.Context, dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql dsn")
	}
	cfg.ParseTime = true
	cfg.MultiStatements = false

	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid mysql dsn")
	}
	db := sql.OpenDB(connector)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "failed to reach mysql")
	}
	return db, nil
}

// Publish creates missing tables and upserts every record file.
func (p *MySQLPublisher) Publish(ctx context.Context) error {
	files, err := csvFiles(p.dir)
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := p.publishFile(ctx, path); err != nil {
			return err
		}
	}
	p.logger.Info("mysql publish finished", zap.Int("files", len(files)), zap.Int("rows", p.rows))
	return nil
}

func (p *MySQLPublisher) publishFile(ctx context.Context, path string) error {
	name := tableFromFile(path)
	table, ok := rds.Lookup(name)
	if !ok {
		return errors.Newf(errors.ErrorTypeValidation, "%s targets undeclared table %q", path, name)
	}
	data, err := readCSV(path)
	if err != nil {
		return err
	}
	columns := make([]rds.Column, len(data.header))
	for i, h := range data.header {
		c, ok := table.Column(h)
		if !ok {
			return errors.Newf(errors.ErrorTypeValidation, "table %q has no column %q", name, h).WithDetail("file", path)
		}
		columns[i] = c
	}

	if !p.created[name] {
		if _, err := p.db.ExecContext(ctx, table.DDL()); err != nil {
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to create "+name)
		}
		p.created[name] = true
	}
	if len(data.rows) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, "failed to begin transaction")
	}
	for _, w := range batches(len(data.rows), p.batch) {
		rows := data.rows[w[0]:w[1]]
		args := make([]any, 0, len(rows)*len(columns))
		for _, row := range rows {
			for i, c := range columns {
				args = append(args, sqlValue(c, row[i]))
			}
		}
		if _, err := tx.ExecContext(ctx, upsertStatement(table, data.header, len(rows)), args...); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, errors.ErrorTypeQuery, "failed to upsert "+path)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "failed to commit "+path)
	}
	p.rows += len(data.rows)
	p.logger.Debug("file published", zap.String("table", name), zap.Int("rows", len(data.rows)))
	return nil
}

// Rows returns the rows upserted so far.
func (p *MySQLPublisher) Rows() int { return p.rows }

// Close releases the pool.
func (p *MySQLPublisher) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}

// tableFromFile strips the _{n}.csv suffix a loader adds.
func tableFromFile(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(compression.TrimExtension(base), ".csv")
	if i := strings.LastIndexByte(base, '_'); i > 0 {
		if _, err := strconv.Atoi(base[i+1:]); err == nil {
			return base[:i]
		}
	}
	return base
}

// upsertStatement renders a multi-row INSERT ... ON DUPLICATE KEY UPDATE.
func upsertStatement(table *rds.Table, columns []string, rows int) string {
	quoted := make([]string, len(columns))
	var updates []string
	for i, c := range columns {
		quoted[i] = "`" + c + "`"
		if !table.IsKey(c) {
			updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", quoted[i], quoted[i]))
		}
	}
	if len(updates) == 0 {
		updates = append(updates, fmt.Sprintf("%s = VALUES(%s)", quoted[0], quoted[0]))
	}

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"
	values := make([]string, rows)
	for i := range values {
		values[i] = tuple
	}
	return fmt.Sprintf("INSERT INTO `%s` (%s) VALUES %s ON DUPLICATE KEY UPDATE %s",
		table.Name, strings.Join(quoted, ", "), strings.Join(values, ", "), strings.Join(updates, ", "))
}

// sqlValue converts a CSV cell for its column type. Empty numeric and
// boolean cells become NULL.
func sqlValue(c rds.Column, cell string) any {
	typ := strings.ToUpper(c.SQLType)
	switch {
	case strings.HasPrefix(typ, "BIGINT"), strings.HasPrefix(typ, "INT"):
		if cell == "" {
			return nil
		}
		if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
			return v
		}
	case strings.HasPrefix(typ, "DOUBLE"):
		if cell == "" {
			return nil
		}
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			return v
		}
	case strings.HasPrefix(typ, "BOOLEAN"):
		if cell == "" {
			return nil
		}
		if v, err := strconv.ParseBool(cell); err == nil {
			return v
		}
	}
	return cell
}

package extractor

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"go.uber.org/zap"
)

// Generic SQL extractor configuration.
const (
	GenericSQLScope = "generic_sql"
	DriverKey       = "driver"
	SQLKey          = "sql"
)

// GenericSQLExtractor runs one configured query and yields every row as a
// map keyed by column name. Drivers: pgx, mysql, snowflake.
type GenericSQLExtractor struct {
	driver  string
	stmt    string
	db      *sql.DB
	rows    *sql.Rows
	columns []string
	logger  *zap.Logger
}

// Scope implements Extractor.
func (e *GenericSQLExtractor) Scope() string { return GenericSQLScope }

// Init opens the database.
func (e *GenericSQLExtractor) Init(ctx context.Context, cfg *config.Config) error {
	e.logger = logger.Get().With(zap.String("component", GenericSQLScope))

	var err error
	if e.stmt, err = cfg.RequireString(SQLKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, GenericSQLScope)
	}
	conn, err := cfg.RequireString(ConnStringKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, GenericSQLScope)
	}
	e.driver = cfg.GetString(DriverKey, "pgx")

	ctx, cancel := context.WithTimeout(ctx, cfg.GetDuration(ConnectTimeoutKey, defaultConnectTimeout))
	defer cancel()
	q, err := openSQL(e.driver)(ctx, conn)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConnection, GenericSQLScope)
	}
	e.db = q.(*sqlQuerier).db
	return nil
}

// Extract returns the next row.
func (e *GenericSQLExtractor) Extract(ctx context.Context) (any, error) {
	if e.db == nil {
		return nil, nil
	}
	if e.rows == nil {
		rows, err := e.db.QueryContext(ctx, e.stmt)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, GenericSQLScope)
		}
		if e.columns, err = rows.Columns(); err != nil {
			_ = rows.Close()
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, GenericSQLScope)
		}
		e.rows = rows
		e.logger.Debug("query started", zap.String("driver", e.driver), zap.Strings("columns", e.columns))
	}
	rec, err := scanMap(e.rows, e.columns)
	if rec == nil {
		return nil, err
	}
	return rec, nil
}

// scanMap reads the current row into a map; nil when rows are exhausted.
func scanMap(rows *sql.Rows, columns []string) (map[string]any, error) {
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeQuery, "iterate rows")
		}
		return nil, nil
	}

	values := make([]any, len(columns))
	ptrs := make([]any, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, fmt.Sprintf("scan %d columns", len(columns)))
	}

	out := make(map[string]any, len(columns))
	for i, c := range columns {
		if b, ok := values[i].([]byte); ok {
			out[c] = string(b)
			continue
		}
		out[c] = values[i]
	}
	return out, nil
}

// Close releases the cursor and the database.
func (e *GenericSQLExtractor) Close() error {
	if e.rows != nil {
		_ = e.rows.Close()
		e.rows = nil
	}
	if e.db != nil {
		err := e.db.Close()
		e.db = nil
		return err
	}
	return nil
}

package serializers

import (
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/graph"
	"github.com/ajitpratap0/databuilder/pkg/rds"
)

// Row is a record laid out in its table's declared column order.
type Row struct {
	Table   string
	Columns []string
	Values  []graph.Value
}

// Args returns the values as driver arguments.
func (r *Row) Args() []interface{} {
	out := make([]interface{}, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.Interface()
	}
	return out
}

// Strings returns the values rendered for CSV.
func (r *Row) Strings() []string {
	out := make([]string, len(r.Values))
	for i, v := range r.Values {
		out[i] = v.String()
	}
	return out
}

// SerializeRecord checks a record against its declared table and orders its
// values. Columns the record does not carry are left out.
func SerializeRecord(rec *graph.Record) (*Row, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	table, ok := rds.Lookup(rec.Table)
	if !ok {
		return nil, errors.Newf(errors.ErrorTypeValidation, "record targets undeclared table %q", rec.Table)
	}
	for name := range rec.Values {
		if !table.Has(name) {
			return nil, errors.Newf(errors.ErrorTypeValidation, "table %q has no column %q", rec.Table, name)
		}
	}
	for _, pk := range table.PrimaryKey {
		if _, ok := rec.Values[pk]; !ok {
			return nil, errors.Newf(errors.ErrorTypeValidation, "record for %q is missing primary key %q", rec.Table, pk)
		}
	}

	row := &Row{Table: rec.Table}
	for _, col := range table.Columns {
		if v, ok := rec.Values[col.Name]; ok {
			row.Columns = append(row.Columns, col.Name)
			row.Values = append(row.Values, v)
		}
	}
	return row, nil
}

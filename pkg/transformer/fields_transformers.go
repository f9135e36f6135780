package transformer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
)

// Field transformer configuration.
const (
	TimestampToEpochScope     = "timestamp_str_to_epoch"
	RemoveFieldScope          = "remove_field"
	TemplateSubstitutionScope = "template_variable_substitution"

	FieldNameKey       = "field_name"
	FieldNamesKey      = "field_names"
	TimestampFormatKey = "timestamp_format"
	TemplateKey        = "template"

	defaultTimestampLayout = "2006-01-02T15:04:05"
)

// TimestampToEpoch replaces a timestamp string with epoch seconds.
type TimestampToEpoch struct {
	field  string
	layout string
}

// Scope implements Transformer.
func (t *TimestampToEpoch) Scope() string { return TimestampToEpochScope }

// Init reads field_name (default "timestamp") and timestamp_format, a Go
// time layout.
func (t *TimestampToEpoch) Init(_ context.Context, cfg *config.Config) error {
	t.field = cfg.GetString(FieldNameKey, "timestamp")
	t.layout = cfg.GetString(TimestampFormatKey, defaultTimestampLayout)
	return nil
}

// Transform parses the field. An empty or absent field becomes 0.
func (t *TimestampToEpoch) Transform(_ context.Context, record any) (any, error) {
	f, ok := lookup(record, t.field)
	if !ok {
		return record, nil
	}
	s, _ := f.get().(string)
	if s == "" {
		f.set(int64(0))
		return record, nil
	}
	ts, err := time.Parse(t.layout, s)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, fmt.Sprintf("parse %s", t.field))
	}
	if !f.set(ts.Unix()) {
		return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("field %s cannot hold an epoch", t.field))
	}
	return record, nil
}

// Close implements Transformer.
func (t *TimestampToEpoch) Close() error { return nil }

// RemoveField deletes keys from map records and zeroes fields of struct
// records.
type RemoveField struct {
	fields []string
}

// Scope implements Transformer.
func (t *RemoveField) Scope() string { return RemoveFieldScope }

// Init reads field_names.
func (t *RemoveField) Init(_ context.Context, cfg *config.Config) error {
	t.fields = cfg.GetStringSlice(FieldNamesKey, nil)
	if len(t.fields) == 0 {
		return errors.New(errors.ErrorTypeConfig, "remove_field: field_names is required")
	}
	return nil
}

// Transform removes the configured fields.
func (t *RemoveField) Transform(_ context.Context, record any) (any, error) {
	for _, name := range t.fields {
		if f, ok := lookup(record, name); ok {
			f.remove()
		}
	}
	return record, nil
}

// Close implements Transformer.
func (t *RemoveField) Close() error { return nil }

// TemplateSubstitution sets a field of a map record from a template whose
// {name} placeholders are filled with the record's own values.
type TemplateSubstitution struct {
	field    string
	template string
}

// Scope implements Transformer.
func (t *TemplateSubstitution) Scope() string { return TemplateSubstitutionScope }

// Init reads field_name and template.
func (t *TemplateSubstitution) Init(_ context.Context, cfg *config.Config) error {
	var err error
	if t.field, err = cfg.RequireString(FieldNameKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, TemplateSubstitutionScope)
	}
	if t.template, err = cfg.RequireString(TemplateKey); err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, TemplateSubstitutionScope)
	}
	return nil
}

// Transform renders the template. Placeholders naming absent keys are an
// error.
func (t *TemplateSubstitution) Transform(_ context.Context, record any) (any, error) {
	m, ok := record.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("%s expects map records, got %T", TemplateSubstitutionScope, record))
	}

	var b strings.Builder
	rest := t.template
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			break
		}
		name := rest[open+1 : open+end]
		v, present := m[name]
		if !present {
			return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("template references missing field %q", name))
		}
		b.WriteString(rest[:open])
		b.WriteString(fmt.Sprint(v))
		rest = rest[open+end+1:]
	}
	b.WriteString(rest)

	m[t.field] = b.String()
	return m, nil
}

// Close implements Transformer.
func (t *TemplateSubstitution) Close() error { return nil }

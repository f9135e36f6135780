package transformer

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/models"
	"github.com/mitchellh/mapstructure"
)

// Dict to model configuration.
const (
	DictToModelScope = "dict_to_model"
	ModelClassKey    = "model_class"
)

// ModelBuilder turns a decoded dictionary into a catalog entity. The dedup
// set is shared by every record of the job.
type ModelBuilder func(values map[string]any, dedup *models.DedupSet) (any, error)

var (
	buildersMu sync.RWMutex
	builders   = map[string]ModelBuilder{}
)

// RegisterModel makes a builder available to dict_to_model under name.
func RegisterModel(name string, b ModelBuilder) {
	buildersMu.Lock()
	defer buildersMu.Unlock()
	builders[name] = b
}

// Models lists the registered model names.
func Models() []string {
	buildersMu.RLock()
	defer buildersMu.RUnlock()
	names := make([]string, 0, len(builders))
	for n := range builders {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// DictToModel converts map records into the entity named by model_class.
type DictToModel struct {
	model   string
	builder ModelBuilder
	dedup   *models.DedupSet
}

// Scope implements Transformer.
func (t *DictToModel) Scope() string { return DictToModelScope }

// Init resolves model_class.
func (t *DictToModel) Init(_ context.Context, cfg *config.Config) error {
	name, err := cfg.RequireString(ModelClassKey)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeConfig, DictToModelScope)
	}
	buildersMu.RLock()
	b, ok := builders[name]
	buildersMu.RUnlock()
	if !ok {
		return errors.New(errors.ErrorTypeConfig, fmt.Sprintf("dict_to_model: unknown model_class %q", name)).
			WithDetail("available", Models())
	}
	t.model = name
	t.builder = b
	t.dedup = models.NewDedupSet()
	return nil
}

// Transform builds the entity.
func (t *DictToModel) Transform(_ context.Context, record any) (any, error) {
	values, ok := record.(map[string]any)
	if !ok {
		return nil, errors.New(errors.ErrorTypeData, fmt.Sprintf("dict_to_model expects map records, got %T", record))
	}
	out, err := t.builder(values, t.dedup)
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", t.model, err)
	}
	return out, nil
}

// Close implements Transformer.
func (t *DictToModel) Close() error { return nil }

// decode fills out from values. Input is weakly typed so query results and
// JSON numbers decode into the declared field types, and comma separated
// strings decode into slices.
func decode(values map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           out,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeInternal, "create decoder")
	}
	if err := dec.Decode(values); err != nil {
		return errors.Wrap(err, errors.ErrorTypeData, "decode record")
	}
	return nil
}

// Package transformer reshapes extracted records before they are loaded.
//
// Transformers are applied sequentially, in the order a job lists them.
// A transformer can modify the record, replace it with another value, or
// drop it by returning nil.
package transformer

import (
	"context"
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/registry"
)

// Transformer is one step of the transform chain.
type Transformer interface {
	// Init configures the transformer from its scoped configuration.
	Init(ctx context.Context, cfg *config.Config) error
	// Transform returns the transformed record, or nil to drop it.
	Transform(ctx context.Context, record any) (any, error)
	// Close releases resources.
	Close() error
	// Scope is the configuration key the transformer reads under
	// "transformer.".
	Scope() string
}

// Registry holds every built-in transformer, keyed by scope.
var Registry = registry.New[Transformer]("transformer")

func init() {
	Registry.MustRegister(DictToModelScope, func() Transformer { return &DictToModel{} })
	Registry.MustRegister(RegexReplaceScope, func() Transformer { return &RegexReplace{} })
	Registry.MustRegister(TimestampToEpochScope, func() Transformer { return &TimestampToEpoch{} })
	Registry.MustRegister(RemoveFieldScope, func() Transformer { return &RemoveField{} })
	Registry.MustRegister(TemplateSubstitutionScope, func() Transformer { return &TemplateSubstitution{} })
	Registry.MustRegister(ComplexTypeScope, func() Transformer { return &ComplexType{} })
	Registry.MustRegister(NoopScope, func() Transformer { return Noop{} })
}

// Chained applies its transformers in order and stops at the first nil.
type Chained struct {
	transformers []Transformer
}

// ChainedScope is the scope of the chain itself.
const ChainedScope = "chained"

// NewChained chains ts.
func NewChained(ts ...Transformer) *Chained {
	return &Chained{transformers: ts}
}

// Build creates a chain of registered transformers by name.
func Build(names []string) (*Chained, error) {
	ts := make([]Transformer, 0, len(names))
	for _, n := range names {
		t, err := Registry.Create(n)
		if err != nil {
			return nil, err
		}
		ts = append(ts, t)
	}
	return NewChained(ts...), nil
}

// Scope implements Transformer.
func (c *Chained) Scope() string { return ChainedScope }

// Len returns the number of chained transformers.
func (c *Chained) Len() int { return len(c.transformers) }

// Init initializes every transformer with cfg.Scope(its scope).
func (c *Chained) Init(ctx context.Context, cfg *config.Config) error {
	for _, t := range c.transformers {
		if err := t.Init(ctx, cfg.Scope(t.Scope())); err != nil {
			return fmt.Errorf("init transformer %s: %w", t.Scope(), err)
		}
	}
	return nil
}

// Transform runs record through the chain.
func (c *Chained) Transform(ctx context.Context, record any) (any, error) {
	var err error
	for _, t := range c.transformers {
		if record, err = t.Transform(ctx, record); err != nil {
			return nil, fmt.Errorf("%s: %w", t.Scope(), err)
		}
		if record == nil {
			return nil, nil
		}
	}
	return record, nil
}

// Close closes every transformer and returns the first error.
func (c *Chained) Close() error {
	var firstErr error
	for _, t := range c.transformers {
		if err := t.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NoopScope is the pass-through transformer.
const NoopScope = "noop"

// Noop returns records unchanged.
type Noop struct{}

func (Noop) Init(context.Context, *config.Config) error      { return nil }
func (Noop) Transform(_ context.Context, r any) (any, error) { return r, nil }
func (Noop) Close() error                                    { return nil }
func (Noop) Scope() string                                   { return NoopScope }

// Package job runs one extract -> transform -> load task and then publishes
// its output.
//
// A task pulls records from its extractor one at a time, passes each
// through the transformer chain and hands whatever survives to the loader.
// The publisher only runs when the task finished cleanly.
package job

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/extractor"
	"github.com/ajitpratap0/databuilder/pkg/loader"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/observability"
	"github.com/ajitpratap0/databuilder/pkg/transformer"
	"go.uber.org/zap"
)

// Task is the unit a Job launches before publishing.
type Task interface {
	Init(ctx context.Context, cfg *config.Config) error
	Run(ctx context.Context) error
	Close() error
}

// Stats counts records through a task.
type Stats struct {
	Extracted int64
	Filtered  int64
	Loaded    int64
}

// DefaultTask wires an extractor, a transformer and a loader.
type DefaultTask struct {
	name        string
	extractor   extractor.Extractor
	transformer transformer.Transformer
	loader      loader.Loader

	stats      Stats
	throughput *metrics.ThroughputTracker
	logger     *zap.Logger
}

// NewDefaultTask builds a task. A nil transformer passes records through.
func NewDefaultTask(name string, e extractor.Extractor, t transformer.Transformer, l loader.Loader) *DefaultTask {
	if t == nil {
		t = transformer.Noop{}
	}
	return &DefaultTask{
		name:        name,
		extractor:   e,
		transformer: t,
		loader:      l,
		throughput:  metrics.NewThroughputTracker(name),
		logger:      logger.Get().With(zap.String("job", name)),
	}
}

// Init configures each component from its section of cfg:
// extractor.<scope>, transformer and loader.<scope>.
func (t *DefaultTask) Init(ctx context.Context, cfg *config.Config) error {
	steps := []struct {
		kind  string
		scope string
		init  func(context.Context, *config.Config) error
		cfg   *config.Config
	}{
		{"extractor", t.extractor.Scope(), t.extractor.Init, cfg.Scope("extractor." + t.extractor.Scope())},
		{"transformer", t.transformer.Scope(), t.transformer.Init, cfg.Scope("transformer")},
		{"loader", t.loader.Scope(), t.loader.Init, cfg.Scope("loader." + t.loader.Scope())},
	}
	for _, s := range steps {
		tracer := observability.NewComponentTracer(s.kind, s.scope)
		err := tracer.Trace(ctx, "init", func(ctx context.Context) error {
			return s.init(ctx, s.cfg)
		})
		if err != nil {
			return errors.Wrap(err, errors.ErrorTypeConfig, fmt.Sprintf("init %s %s", s.kind, s.scope))
		}
	}
	return nil
}

// Run drains the extractor. It stops at the first error or when ctx is
// cancelled.
func (t *DefaultTask) Run(ctx context.Context) error {
	timer := metrics.NewTimer()
	t.logger.Info("task started",
		zap.String("extractor", t.extractor.Scope()),
		zap.String("transformer", t.transformer.Scope()),
		zap.String("loader", t.loader.Scope()))

	err := t.run(ctx)

	elapsed := timer.Stop()
	metrics.TaskDuration.WithLabelValues(t.name, metrics.Status(err)).Observe(elapsed.Seconds())
	rate := t.throughput.GetAndReset()
	if err != nil {
		t.logger.Error("task failed",
			zap.Error(err),
			zap.String("phase", string(errors.PhaseOf(err))),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Int64("extracted", t.stats.Extracted))
		return err
	}
	t.logger.Info("task finished",
		zap.Int64("extracted", t.stats.Extracted),
		zap.Int64("filtered", t.stats.Filtered),
		zap.Int64("loaded", t.stats.Loaded),
		zap.Duration("duration", elapsed),
		zap.Float64("throughput_rps", rate))
	return nil
}

func (t *DefaultTask) run(ctx context.Context) error {
	extracted := metrics.RecordsExtracted.WithLabelValues(t.name, t.extractor.Scope())
	emitted := metrics.RecordsTransformed.WithLabelValues(t.name, "emitted")
	filtered := metrics.RecordsTransformed.WithLabelValues(t.name, "filtered")
	loaded := metrics.RecordsLoaded.WithLabelValues(t.name, t.loader.Scope())

	for {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, errors.ErrorTypeTimeout, "task cancelled")
		}
		record, err := t.extractor.Extract(ctx)
		if err != nil {
			return errors.InPhase(err, errors.PhaseExtract, t.extractor.Scope())
		}
		if record == nil {
			return nil
		}
		t.stats.Extracted++
		t.throughput.Increment(1)
		extracted.Inc()

		out, err := t.transformer.Transform(ctx, record)
		if err != nil {
			return errors.InPhase(err, errors.PhaseTransform, t.transformer.Scope())
		}
		if out == nil {
			t.stats.Filtered++
			filtered.Inc()
			continue
		}
		emitted.Inc()

		if err := t.loader.Load(ctx, out); err != nil {
			return errors.InPhase(err, errors.PhaseLoad, t.loader.Scope())
		}
		t.stats.Loaded++
		loaded.Inc()
	}
}

// Stats returns the counts of the last run.
func (t *DefaultTask) Stats() Stats { return t.stats }

// Loader returns the task's loader.
func (t *DefaultTask) Loader() loader.Loader { return t.loader }

// Close closes the extractor, transformer and loader, in that order. The
// loader is always closed so its files are flushed.
func (t *DefaultTask) Close() error {
	return stderrors.Join(t.extractor.Close(), t.transformer.Close(), t.loader.Close())
}

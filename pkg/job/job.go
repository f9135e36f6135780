package job

import (
	"context"
	stderrors "errors"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/errors"
	"github.com/ajitpratap0/databuilder/pkg/extractor"
	"github.com/ajitpratap0/databuilder/pkg/loader"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/metrics"
	"github.com/ajitpratap0/databuilder/pkg/observability"
	"github.com/ajitpratap0/databuilder/pkg/publisher"
	"github.com/ajitpratap0/databuilder/pkg/transformer"
	"go.uber.org/zap"
)

// Job runs a task and then its publisher.
type Job struct {
	name      string
	cfg       *config.Config
	task      Task
	publisher publisher.Publisher
	logger    *zap.Logger
}

// New builds a job. A nil publisher skips publishing.
func New(name string, cfg *config.Config, task Task, pub publisher.Publisher) *Job {
	if pub == nil {
		pub = publisher.Noop{}
	}
	return &Job{
		name:      name,
		cfg:       cfg,
		task:      task,
		publisher: pub,
		logger:    logger.Get().With(zap.String("job", name)),
	}
}

// FromConfig creates every component the job section names from the
// component registries.
func FromConfig(cfg *config.Config) (*Job, error) {
	spec, err := cfg.Job()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "invalid job")
	}

	e, err := extractor.Registry.Create(spec.Extractor)
	if err != nil {
		return nil, err
	}
	var t transformer.Transformer
	if len(spec.Transformers) > 0 {
		chain, err := transformer.Build(spec.Transformers)
		if err != nil {
			return nil, err
		}
		t = chain
	}
	l, err := loader.Registry.Create(spec.Loader)
	if err != nil {
		return nil, err
	}
	var p publisher.Publisher
	if spec.Publisher != "" {
		if p, err = publisher.Registry.Create(spec.Publisher); err != nil {
			return nil, err
		}
	}
	return New(spec.Name, cfg, NewDefaultTask(spec.Name, e, t, l), p), nil
}

// Launch initializes and runs the task, closes it, and publishes when the
// task succeeded.
func (j *Job) Launch(ctx context.Context) (err error) {
	ctx = context.WithValue(ctx, logger.JobIDKey, j.name)
	ctx, span := observability.StartSpan(ctx, "job."+j.name)
	span.SetAttribute("job.name", j.name)
	span.SetAttribute("publisher", j.publisher.Scope())
	defer func() { span.End(err) }()

	j.logger.Info("job launched")
	if err := j.runTask(ctx); err != nil {
		return err
	}
	if err := j.publish(ctx); err != nil {
		return err
	}
	j.logger.Info("job finished")
	return nil
}

func (j *Job) runTask(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "task")
	var err error
	defer func() { span.End(err) }()

	if err = j.task.Init(ctx, j.cfg); err != nil {
		err = stderrors.Join(err, j.task.Close())
		return err
	}
	runErr := j.task.Run(ctx)
	closeErr := j.task.Close()
	if closeErr != nil {
		closeErr = errors.Wrap(closeErr, errors.ErrorTypeFile, "close task")
	}
	if runErr != nil || closeErr != nil {
		err = stderrors.Join(runErr, closeErr)
		return err
	}
	if dt, ok := j.task.(*DefaultTask); ok {
		s := dt.Stats()
		span.SetAttribute("records.extracted", s.Extracted)
		span.SetAttribute("records.loaded", s.Loaded)
	}
	return nil
}

func (j *Job) publish(ctx context.Context) error {
	scope := j.publisher.Scope()
	timer := metrics.NewTimer()
	tracer := observability.NewComponentTracer("publisher", scope)
	err := tracer.Trace(ctx, "publish", func(ctx context.Context) error {
		if err := j.publisher.Init(ctx, j.cfg.Scope("publisher."+scope)); err != nil {
			return stderrors.Join(errors.Wrap(err, errors.ErrorTypeConfig, "init publisher"), j.publisher.Close())
		}
		return stderrors.Join(j.publisher.Publish(ctx), j.publisher.Close())
	})
	err = errors.InPhase(err, errors.PhasePublish, scope)
	metrics.PublishDuration.WithLabelValues(j.name, scope, metrics.Status(err)).Observe(timer.Stop().Seconds())
	if err != nil {
		j.logger.Error("publish failed", zap.String("publisher", scope), zap.Error(err))
		return err
	}
	return nil
}

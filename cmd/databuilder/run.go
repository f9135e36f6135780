package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ajitpratap0/databuilder/pkg/config"
	"github.com/ajitpratap0/databuilder/pkg/job"
	"github.com/ajitpratap0/databuilder/pkg/logger"
	"github.com/ajitpratap0/databuilder/pkg/observability"
)

// runFlags are the command line overrides for the job section.
type runFlags struct {
	configFile  string
	metricsAddr string
	logLevel    string
	timeout     time.Duration
}

func newRunCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a databuilder job",
		Long: `Run the extract, transform and load task described by a job file, then
publish the loaded files when the task succeeded.

Example:
  databuilder run --config job.yaml --metrics-addr :9102`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJob(ctx, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Path to the job configuration file (required)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address, overriding job.metrics")
	cmd.Flags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error), overriding job.log.level")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Abort the job after this long; 0 disables the limit")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runJob(ctx context.Context, flags runFlags) error {
	cfg, err := config.Load(flags.configFile)
	if err != nil {
		return err
	}
	spec, err := cfg.Job()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if flags.logLevel != "" {
		spec.Log.Level = flags.logLevel
	}
	if err := logger.Init(spec.Log); err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.With(
		zap.String("component", "databuilder-cli"),
		zap.String("job", spec.Name),
		zap.String("extractor", spec.Extractor),
		zap.String("loader", spec.Loader))

	if spec.Tracing.Enabled {
		shutdown, err := observability.InitTracing(observability.TracingConfig{
			ServiceName:    spec.Name,
			ServiceVersion: version,
			SamplingRate:   spec.Tracing.SampleRate,
			Output:         os.Stderr,
		})
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Warn("failed to flush traces", zap.Error(err))
			}
		}()
	}

	if flags.metricsAddr != "" {
		spec.Metrics.Enabled = true
		spec.Metrics.Addr = flags.metricsAddr
	}
	if spec.Metrics.Enabled {
		srv := serveMetrics(spec.Metrics.Addr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	j, err := job.FromConfig(cfg)
	if err != nil {
		return err
	}

	if flags.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, flags.timeout)
		defer cancel()
	}

	log.Info("starting job", zap.String("config", flags.configFile))
	start := time.Now()
	if err := j.Launch(ctx); err != nil {
		log.Error("job failed", zap.Error(err), zap.Duration("duration", time.Since(start)))
		return fmt.Errorf("job %s failed: %w", spec.Name, err)
	}
	log.Info("job completed successfully", zap.Duration("duration", time.Since(start)))
	return nil
}

// serveMetrics exposes the default Prometheus registry on addr/metrics.
func serveMetrics(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()
	log.Info("serving metrics", zap.String("addr", addr))
	return srv
}

// newConfigCmd prints the job file after environment substitution.
func newConfigCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the resolved job configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configFile)
			if err != nil {
				return err
			}
			if _, err := cfg.Job(); err != nil {
				return fmt.Errorf("configuration error: %w", err)
			}
			out, err := cfg.Dump()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "Path to the job configuration file (required)")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/linefs/internal/logger"
	"github.com/marmos91/linefs/internal/telemetry"
	"github.com/marmos91/linefs/pkg/adapter/line"
	"github.com/marmos91/linefs/pkg/api"
	"github.com/marmos91/linefs/pkg/api/handlers"
	"github.com/marmos91/linefs/pkg/config"
	"github.com/marmos91/linefs/pkg/filestore"
	"github.com/marmos91/linefs/pkg/journal"
	"github.com/marmos91/linefs/pkg/metrics"
	"github.com/marmos91/linefs/pkg/policy"
	"github.com/marmos91/linefs/pkg/traffic"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/linefs/pkg/metrics/prometheus"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the linefs server",
	Long: `Start the linefs server in the foreground.

The configuration is read from --config, or from $XDG_CONFIG_HOME/linefs/config.yaml
when present. Without a file, defaults and LINEFS_* environment variables apply.

Examples:
  # Start with the default config location
  linefs start

  # Start with custom config file
  linefs start --config /etc/linefs/config.yaml

  # Start with environment variable overrides
  LINEFS_LOGGING_LEVEL=DEBUG LINEFS_SERVER_PORT=9100 linefs start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "linefs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		// ctx is cancelled by then; flush with a fresh one
		if err := telemetryShutdown(context.Background()); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "linefs",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	}
	if cfg.Telemetry.Profiling.Enabled {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	}

	// Metrics must be enabled before any recorder is constructed
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics enabled", "path", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	srv, err := newServer(cfg)
	if err != nil {
		return err
	}
	defer srv.close()

	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.run(ctx)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped gracefully")

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", logger.KeyError, err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// server bundles the long-running components started by `linefs start`.
type server struct {
	store     *filestore.Store
	monitor   *traffic.Monitor
	persister *traffic.Persister
	adapter   *line.Adapter
	api       *api.Server

	journals []*journal.Journal
}

func newServer(cfg *config.Config) (*server, error) {
	s := &server{}

	store, err := filestore.New(cfg.Files.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize file store: %w", err)
	}
	s.store = store
	logger.Info("File store ready", logger.KeyPath, store.BasePath())

	allowList, err := policy.NewAllowList(cfg.Admin.AllowedIPs)
	if err != nil {
		return nil, fmt.Errorf("invalid admin allow-list: %w", err)
	}
	logger.Info("Admin allow-list loaded", logger.KeyCount, allowList.Len())

	statsLog, err := journal.Open(cfg.Monitoring.StatsLog)
	if err != nil {
		return nil, err
	}
	s.journals = append(s.journals, statsLog)

	s.monitor = traffic.NewMonitor(metrics.NewTrafficMetrics())
	s.persister = traffic.NewPersister(s.monitor, statsLog, traffic.PersisterConfig{
		Interval:        cfg.Monitoring.Interval,
		SummaryInterval: cfg.Monitoring.SummaryInterval,
	})

	opts := line.Options{
		Policy:  allowList,
		Monitor: s.monitor,
		Store:   store,
	}
	if m := metrics.NewLineMetrics(); m != nil {
		opts.Metrics = m
	}
	if cfg.Audit.Path != "" {
		audit, err := journal.Open(cfg.Audit.Path)
		if err != nil {
			s.close()
			return nil, err
		}
		s.journals = append(s.journals, audit)
		opts.Audit = audit
	}

	s.adapter = line.New(lineConfig(cfg), opts)

	if cfg.API.Enabled {
		s.api = api.NewServer(cfg.API, api.Options{
			Stats:   s.monitor,
			Checks:  s.readinessChecks(),
			Metrics: metrics.Handler(),
		})
		logger.Info("API server enabled", "port", cfg.API.Port)
	} else {
		logger.Info("API server disabled")
	}

	return s, nil
}

// lineConfig maps the server section onto the adapter configuration.
func lineConfig(cfg *config.Config) line.Config {
	return line.Config{
		BindAddress:     cfg.Server.Host,
		Port:            cfg.Server.Port,
		MaxConnections:  cfg.Server.MaxConnections,
		MaxLineSize:     cfg.Server.MaxLineSize.Int(),
		RestrictedDelay: cfg.Server.RestrictedDelay,
		Timeouts: line.TimeoutsConfig{
			Privileged: cfg.Server.Timeouts.Privileged,
			Restricted: cfg.Server.Timeouts.Restricted,
			Write:      cfg.Server.Timeouts.Write,
			Shutdown:   cfg.ShutdownTimeout,
		},
	}
}

func (s *server) readinessChecks() []handlers.ReadinessCheck {
	return []handlers.ReadinessCheck{
		{Name: "filestore", Check: s.store.Ready},
		{Name: "line_listener", Check: func() error {
			if !s.adapter.IsListening() {
				return fmt.Errorf("line listener is not accepting connections")
			}
			return nil
		}},
	}
}

// run serves until ctx is cancelled or the line adapter fails. The API
// server failing is logged but does not stop the line protocol.
func (s *server) run(ctx context.Context) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	persisterDone := make(chan struct{})
	go func() {
		defer close(persisterDone)
		s.persister.Run(runCtx)
	}()

	apiDone := make(chan struct{})
	go func() {
		defer close(apiDone)
		if s.api == nil {
			return
		}
		if err := s.api.Start(runCtx); err != nil {
			logger.Error("API server error", logger.KeyError, err)
		}
	}()

	err := s.adapter.Serve(runCtx)

	// Serve also returns on a listener failure; unwind the rest either way
	stop()
	<-apiDone
	<-persisterDone

	return err
}

func (s *server) close() {
	for _, j := range s.journals {
		if err := j.Close(); err != nil {
			logger.Warn("Failed to close journal", logger.KeyPath, j.Path(), logger.KeyError, err)
		}
	}
}

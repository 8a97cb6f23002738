package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/ledgerline/covtrace/internal/api"
	"github.com/ledgerline/covtrace/internal/config"
	"github.com/ledgerline/covtrace/internal/covenant"
	"github.com/ledgerline/covtrace/internal/logging"
	"github.com/ledgerline/covtrace/internal/patternlib"
	"github.com/ledgerline/covtrace/internal/service"
	"github.com/ledgerline/covtrace/internal/temporal"
	"github.com/ledgerline/covtrace/internal/tracing"
)

var (
	apiPort            int
	portfolioPath      string
	patternsPath       string
	watchPatterns      bool
	cacheSize          int
	predictConcurrency int
	tracingEnabled     bool
	tracingEndpoint    string
	tracingTLSCAPath   string
	tracingTLSInsecure bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the prediction API over a portfolio snapshot",
	Long: `Start the covtrace server: load a portfolio snapshot and a seeded
pattern library, then serve predictions, graph queries, cascade analysis
and analytics over HTTP.`,
	Run: runServer,
}

func init() {
	serverCmd.Flags().IntVar(&apiPort, "api-port", 8090, "Port the API server listens on")
	serverCmd.Flags().StringVar(&portfolioPath, "portfolio", "", "Path to the JSON portfolio snapshot")
	serverCmd.Flags().StringVar(&patternsPath, "patterns", "", "Path to the YAML pattern library file (optional)")
	serverCmd.Flags().BoolVar(&watchPatterns, "watch-patterns", false, "Hot-reload the pattern file on change")
	serverCmd.Flags().IntVar(&cacheSize, "cache-size", 256, "Maximum number of cached facility predictions")
	serverCmd.Flags().IntVar(&predictConcurrency, "predict-concurrency", 8, "Parallel facility predictions during portfolio runs")
	serverCmd.Flags().BoolVar(&tracingEnabled, "tracing-enabled", false, "Enable OpenTelemetry tracing")
	serverCmd.Flags().StringVar(&tracingEndpoint, "tracing-endpoint", "", "OTLP gRPC endpoint for traces (e.g., otel-collector:4317)")
	serverCmd.Flags().StringVar(&tracingTLSCAPath, "tracing-tls-ca", "", "Path to CA certificate for TLS verification (optional)")
	serverCmd.Flags().BoolVar(&tracingTLSInsecure, "tracing-tls-insecure", false, "Skip TLS certificate verification (insecure, use only for testing)")
}

// loadServerConfig layers CLI flags over the config file and defaults.
func loadServerConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flagOverrides := map[string]func(){
		"api-port":             func() { cfg.APIPort = apiPort },
		"portfolio":            func() { cfg.PortfolioPath = portfolioPath },
		"patterns":             func() { cfg.PatternsPath = patternsPath },
		"watch-patterns":       func() { cfg.WatchPatterns = watchPatterns },
		"cache-size":           func() { cfg.CacheSize = cacheSize },
		"predict-concurrency":  func() { cfg.PredictConcurrency = predictConcurrency },
		"tracing-enabled":      func() { cfg.TracingEnabled = tracingEnabled },
		"tracing-endpoint":     func() { cfg.TracingEndpoint = tracingEndpoint },
		"tracing-tls-ca":       func() { cfg.TracingTLSCAPath = tracingTLSCAPath },
		"tracing-tls-insecure": func() { cfg.TracingTLSInsecure = tracingTLSInsecure },
	}
	for name, apply := range flagOverrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}

	return cfg, nil
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := loadServerConfig(cmd)
	HandleError(err, "Configuration error")
	HandleError(cfg.Validate(), "Configuration error")

	HandleError(setupLog(logLevelFlags), "Failed to setup logging")
	logger := logging.GetLogger("server")

	logger.Info("Starting covtrace v%s", Version)

	portfolio, err := covenant.LoadPortfolio(cfg.PortfolioPath)
	HandleError(err, "Failed to load portfolio")
	logger.Info("loaded portfolio %q: %d facilities", portfolio.Name, len(portfolio.Facilities))

	tracingProvider, err := tracing.NewProvider(tracing.Config{
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.TracingEndpoint,
		TLSCAPath:   cfg.TracingTLSCAPath,
		TLSInsecure: cfg.TracingTLSInsecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing (continuing without tracing): %v", err)
		tracingProvider = nil
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := service.NewMetrics(registry)

	predictor, err := service.NewPredictor(portfolio, nil, service.Options{
		CacheSize:   cfg.CacheSize,
		Concurrency: cfg.PredictConcurrency,
		Metrics:     metrics,
	})
	HandleError(err, "Failed to create predictor")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var watcher *patternlib.Watcher
	if cfg.PatternsPath != "" {
		if cfg.WatchPatterns {
			watcher, err = patternlib.NewWatcher(
				patternlib.WatcherConfig{FilePath: cfg.PatternsPath},
				func(patterns []temporal.CausalPattern) error {
					predictor.SetPatterns(patterns)
					return nil
				},
			)
			HandleError(err, "Failed to create pattern watcher")
			HandleError(watcher.Start(ctx), "Failed to start pattern watcher")
		} else {
			patterns, err := patternlib.Load(cfg.PatternsPath)
			HandleError(err, "Failed to load pattern library")
			predictor.SetPatterns(patterns)
		}
	}

	var traceProvider api.TraceProvider
	if tracingProvider != nil {
		traceProvider = tracingProvider
	}
	server := api.New(cfg.APIPort, predictor, registry, traceProvider)
	HandleError(server.Start(ctx), "Failed to start API server")

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx := context.Background()
	if watcher != nil {
		watcher.Stop()
	}
	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error: %v", err)
	}
	if tracingProvider != nil {
		if err := tracingProvider.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracing shutdown error: %v", err)
		}
	}
}

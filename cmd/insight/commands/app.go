package commands

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/umebot/insight/internal/analysis"
	"github.com/umebot/insight/internal/causal"
	"github.com/umebot/insight/internal/estimation"
	"github.com/umebot/insight/internal/external/openmeteo"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/internal/forecast"
	"github.com/umebot/insight/internal/sales"
	"github.com/umebot/insight/pkg/config"
	"github.com/umebot/insight/pkg/database"
	"github.com/umebot/insight/pkg/httputil"
	"github.com/umebot/insight/pkg/logger"
	"github.com/umebot/insight/pkg/metrics"
	"github.com/umebot/insight/pkg/redis"
)

// cachePrefix namespaces every key this service writes to Redis
const cachePrefix = "insight"

// app holds the wired dependencies shared by the commands
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *database.DB
	redis    *redis.Client
	registry *prometheus.Registry
	service  *analysis.Service
}

// newApp loads config and wires storage, sources and the analysis service
func newApp() (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Connect to database
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// 4. Connect to Redis
	rdb, err := redis.New(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	// 5. Metrics
	registry := prometheus.NewRegistry()
	var reg prometheus.Registerer
	if cfg.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reg = registry
	}
	analysisMetrics := metrics.NewAnalysisMetrics(reg)

	// 6. Weather source
	var weatherClient *openmeteo.Client
	if cfg.Weather.Enabled {
		httpClient := httputil.New(log, cfg.Weather.Timeout).WithRateLimit(cfg.Weather.RateLimit)
		weatherClient = openmeteo.NewClient(httpClient, log, cfg.Weather.BaseURL, cfg.Weather.Timezone)
	}

	// 7. Analysis service
	service := analysis.NewService(
		sales.NewRepository(db.Pool),
		openmeteo.NewSource(weatherClient, log),
		features.NewBuilder(log),
		causal.NewAnalyzer(estimation.NewLinearDML(cfg.Analysis.Seed), cfg.Analysis, log, analysisMetrics),
		forecast.NewForecaster(cfg.Analysis.MinForecastDays, log),
		redis.NewCache(rdb, cachePrefix),
		analysis.NewRunRepository(db.Pool),
		analysisMetrics,
		cfg.Analysis,
		log,
	)

	return &app{
		cfg:      cfg,
		log:      log,
		db:       db,
		redis:    rdb,
		registry: registry,
		service:  service,
	}, nil
}

// metricsHandler serves the registry, or nil when metrics are disabled
func (a *app) metricsHandler() http.Handler {
	if !a.cfg.MetricsEnabled {
		return nil
	}
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
}

// jobMetrics registers the scheduler metrics when metrics are enabled
func (a *app) jobMetrics() *metrics.JobMetrics {
	if !a.cfg.MetricsEnabled {
		return metrics.NewJobMetrics(nil)
	}
	return metrics.NewJobMetrics(a.registry)
}

// Close releases the connections
func (a *app) Close() {
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
	a.db.Close()
}

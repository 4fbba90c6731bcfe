package analysis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/umebot/insight/internal/causal"
	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/internal/forecast"
	"github.com/umebot/insight/internal/sales"
	"github.com/umebot/insight/pkg/config"
	"github.com/umebot/insight/pkg/logger"
	"github.com/umebot/insight/pkg/metrics"
	"github.com/umebot/insight/pkg/redis"
)

// ErrInvalidRange is returned when start is after end
var ErrInvalidRange = errors.New("start date is after end date")

// forecastWindowDays is the history loaded for a standalone forecast
const forecastWindowDays = 60

const dateFmt = "2006-01-02"

// Stage names recorded in AnalysisReport.CompletedStages
const (
	StageLoad      = "load"
	StageCustomers = "customers"
	StageWeather   = "weather"
	StageFeatures  = "features"
	StageFactors   = "factors"
	StageForecast  = "forecast"
	StageSummary   = "summary"
)

// Cache is the result cache the service reads through
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Service runs the complete analysis flow:
// load → regions → customers → weather → features → factors → forecast → summary
// ⭐ SSOT: analysis orchestration happens here only
type Service struct {
	sales      contracts.SalesSource
	weather    contracts.WeatherSource
	builder    *features.Builder
	analyzer   *causal.Analyzer
	forecaster *forecast.Forecaster

	cache   Cache    // optional
	runs    RunStore // optional
	metrics *metrics.AnalysisMetrics

	cfg    config.AnalysisConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewService creates the analysis service. cache, runs and m may be nil.
func NewService(
	salesSource contracts.SalesSource,
	weatherSource contracts.WeatherSource,
	builder *features.Builder,
	analyzer *causal.Analyzer,
	forecaster *forecast.Forecaster,
	cache Cache,
	runs RunStore,
	m *metrics.AnalysisMetrics,
	cfg config.AnalysisConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		sales:      salesSource,
		weather:    weatherSource,
		builder:    builder,
		analyzer:   analyzer,
		forecaster: forecaster,
		cache:      cache,
		runs:       runs,
		metrics:    m,
		cfg:        cfg,
		logger:     log.Component("analysis"),
		now:        time.Now,
	}
}

// RunCompleteAnalysis analyses [start, end] end to end. Cached reports are
// returned as is. Individual factor failures are part of the report; an
// error is returned only when no panel could be built.
func (s *Service) RunCompleteAnalysis(ctx context.Context, start, end time.Time, includeForecast bool) (*contracts.AnalysisReport, error) {
	if start.After(end) {
		return nil, ErrInvalidRange
	}

	key := redis.AnalysisKey("complete", map[string]string{
		"start":    start.Format(dateFmt),
		"end":      end.Format(dateFmt),
		"forecast": strconv.FormatBool(includeForecast),
	})
	var cached contracts.AnalysisReport
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	began := s.now()
	runID := uuid.NewString()
	log := s.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"start":  start.Format(dateFmt),
		"end":    end.Format(dateFmt),
	})
	log.Info("Starting complete analysis")

	report, err := s.runComplete(ctx, runID, start, end, includeForecast, log)
	duration := s.now().Sub(began)

	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	s.metrics.ObserveRun("complete", status, duration)
	s.saveRun(ctx, RunRecord{
		ID:         runID,
		StartDate:  start,
		EndDate:    end,
		Status:     status,
		Error:      errorString(err),
		Duration:   duration,
		Report:     report,
		FinishedAt: s.now(),
	})

	if err != nil {
		log.WithError(err).Error("Complete analysis failed")
		return nil, err
	}

	s.cacheSet(ctx, key, report)
	log.WithField("duration", duration.String()).Info("Complete analysis finished")
	return report, nil
}

func (s *Service) runComplete(ctx context.Context, runID string, start, end time.Time, includeForecast bool, log *logger.Logger) (*contracts.AnalysisReport, error) {
	report := &contracts.AnalysisReport{
		RunID:          runID,
		AnalysisPeriod: contracts.Period{Start: start.Format(dateFmt), End: end.Format(dateFmt)},
	}
	stage := func(name string) { report.CompletedStages = append(report.CompletedStages, name) }

	// Load
	obs, err := s.sales.Observations(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	obs = sales.EnsureRegions(obs, s.cfg.DefaultRegion)
	stage(StageLoad)

	// Customers and promotions are auxiliary
	customers, err := s.sales.CustomerProfiles(ctx, start, end)
	if err != nil {
		log.WithError(err).Warn("Customer profiles unavailable")
		customers = nil
	}
	promotions, err := s.sales.PromotionSalesCount(ctx, start, end)
	if err != nil {
		log.WithError(err).Warn("Promotion sales unavailable")
		promotions = 0
	}
	stage(StageCustomers)

	// Weather
	weather, err := s.weather.Weather(ctx, start, end, sales.Regions(obs))
	if err != nil {
		log.WithError(err).Warn("Weather unavailable, continuing without weather features")
		weather = nil
	}
	stage(StageWeather)

	// Features
	panel, err := s.builder.BuildFromObservations(obs, weather, customers)
	if err != nil {
		return nil, fmt.Errorf("features failed: %w", err)
	}
	stage(StageFeatures)

	// Factors
	report.Factors = s.analyzer.AnalyzeAllFactors(panel)
	stage(StageFactors)

	// Forecast
	if includeForecast {
		outcome := s.forecaster.Forecast(panel, s.cfg.ForecastHorizon)
		report.Forecast = &outcome
		stage(StageForecast)
	}

	// Summary
	report.DataSummary = Summarize(panel, start, end, len(customers), promotions)
	report.KeyMetrics = KeyMetrics(panel)
	report.GeneratedAt = s.now().UTC()
	stage(StageSummary)

	return report, nil
}

// Forecast projects horizon days of revenue from the forecastWindowDays
// ending at end
func (s *Service) Forecast(ctx context.Context, end time.Time, horizon int) (*contracts.ForecastOutcome, error) {
	start := end.AddDate(0, 0, -forecastWindowDays)
	key := redis.ForecastKey(start.Format(dateFmt), end.Format(dateFmt), horizon)

	var cached contracts.ForecastOutcome
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	began := s.now()
	panel, err := s.loadPanel(ctx, start, end, true)
	if err != nil {
		s.metrics.ObserveRun("forecast", StatusFailed, s.now().Sub(began))
		return nil, err
	}

	outcome := s.forecaster.Forecast(panel, horizon)
	s.metrics.ObserveRun("forecast", StatusSuccess, s.now().Sub(began))

	// insufficient history is not cached so new data is picked up
	if outcome.OK() {
		s.cacheSet(ctx, key, outcome)
	}
	return &outcome, nil
}

// KeyMetrics returns the week-over-week summary for the 14 days ending at end
func (s *Service) KeyMetrics(ctx context.Context, end time.Time) (*contracts.KeyMetrics, error) {
	start := end.AddDate(0, 0, -(2*weekDays - 1))
	key := redis.AnalysisKey("key_metrics", map[string]string{"end": end.Format(dateFmt)})

	var cached contracts.KeyMetrics
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	panel, err := s.loadPanel(ctx, start, end, false)
	if err != nil {
		return nil, err
	}

	m := KeyMetrics(panel)
	s.cacheSet(ctx, key, m)
	return &m, nil
}

// Run returns a persisted run
func (s *Service) Run(ctx context.Context, id string) (*RunRecord, error) {
	if s.runs == nil {
		return nil, ErrRunNotFound
	}
	return s.runs.Get(ctx, id)
}

// loadPanel builds a panel for [start, end] without customer features
func (s *Service) loadPanel(ctx context.Context, start, end time.Time, withWeather bool) (*features.Panel, error) {
	obs, err := s.sales.Observations(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	obs = sales.EnsureRegions(obs, s.cfg.DefaultRegion)

	var weather []contracts.WeatherRecord
	if withWeather {
		weather, err = s.weather.Weather(ctx, start, end, sales.Regions(obs))
		if err != nil {
			s.logger.WithError(err).Warn("Weather unavailable, continuing without weather features")
			weather = nil
		}
	}

	panel, err := s.builder.BuildFromObservations(obs, weather, nil)
	if err != nil {
		return nil, fmt.Errorf("features failed: %w", err)
	}
	return panel, nil
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		hit = false
	}
	s.metrics.IncCache(hit)
	return hit
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}
}

func (s *Service) saveRun(ctx context.Context, run RunRecord) {
	if s.runs == nil {
		return
	}
	if err := s.runs.Save(ctx, run); err != nil {
		s.logger.WithError(err).WithField("run_id", run.ID).Warn("Failed to persist analysis run")
	}
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/umebot/insight/pkg/logger"
)

// ForecastJob warms the forecast cache for the day
// Schedule: 6:30 AM, after the daily analysis
type ForecastJob struct {
	runner  AnalysisRunner
	horizon int
	logger  *logger.Logger
	now     func() time.Time
}

// NewForecastJob creates a new forecast job
func NewForecastJob(runner AnalysisRunner, horizon int, log *logger.Logger) *ForecastJob {
	return &ForecastJob{
		runner:  runner,
		horizon: horizon,
		logger:  log,
		now:     time.Now,
	}
}

// Name returns the job name
func (j *ForecastJob) Name() string {
	return "sales_forecast"
}

// Schedule returns the cron schedule (6:30 AM daily)
func (j *ForecastJob) Schedule() string {
	return "0 30 6 * * *" // with seconds
}

// Run computes the forecast from yesterday's history. Too little history is
// logged, not failed, since retrying cannot fix it.
func (j *ForecastJob) Run(ctx context.Context) error {
	_, end := Window(j.now(), 1)

	outcome, err := j.runner.Forecast(ctx, end, j.horizon)
	if err != nil {
		return fmt.Errorf("forecast through %s: %w", end.Format("2006-01-02"), err)
	}

	if !outcome.OK() {
		j.logger.WithFields(map[string]interface{}{
			"required_days": outcome.RequiredDays,
			"current_days":  outcome.CurrentDays,
			"reason":        outcome.Failure.Message,
		}).Warn("Forecast unavailable")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"total": outcome.Result.Summary.TotalForecast,
		"from":  outcome.Result.Summary.ForecastStartDate,
		"to":    outcome.Result.Summary.ForecastEndDate,
	}).Info("Forecast completed")

	return nil
}

package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/logger"
)

// AnalysisRunner is the part of analysis.Service the jobs drive
type AnalysisRunner interface {
	RunCompleteAnalysis(ctx context.Context, start, end time.Time, includeForecast bool) (*contracts.AnalysisReport, error)
	Forecast(ctx context.Context, end time.Time, horizon int) (*contracts.ForecastOutcome, error)
}

// Window returns the lookbackDays-long date range ending the day before now
func Window(now time.Time, lookbackDays int) (start, end time.Time) {
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	start = end.AddDate(0, 0, -(lookbackDays - 1))
	return start, end
}

// DailyAnalysisJob precomputes the complete analysis of the trailing window
// so that API requests for it are served from cache
// Schedule: 6:00 AM, after the nightly warehouse load
type DailyAnalysisJob struct {
	runner       AnalysisRunner
	lookbackDays int
	logger       *logger.Logger
	now          func() time.Time
}

// NewDailyAnalysisJob creates a new daily analysis job
func NewDailyAnalysisJob(runner AnalysisRunner, lookbackDays int, log *logger.Logger) *DailyAnalysisJob {
	return &DailyAnalysisJob{
		runner:       runner,
		lookbackDays: lookbackDays,
		logger:       log,
		now:          time.Now,
	}
}

// Name returns the job name
func (j *DailyAnalysisJob) Name() string {
	return "daily_analysis"
}

// Schedule returns the cron schedule (6:00 AM daily)
func (j *DailyAnalysisJob) Schedule() string {
	return "0 0 6 * * *" // with seconds
}

// Run executes the complete analysis over the trailing window
func (j *DailyAnalysisJob) Run(ctx context.Context) error {
	start, end := Window(j.now(), j.lookbackDays)

	report, err := j.runner.RunCompleteAnalysis(ctx, start, end, true)
	if err != nil {
		return fmt.Errorf("complete analysis %s..%s: %w", start.Format("2006-01-02"), end.Format("2006-01-02"), err)
	}

	significant := 0
	for _, f := range report.Factors.Factors {
		if f.OK() && f.Result.Significant {
			significant++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":      report.RunID,
		"records":     report.DataSummary.TotalRecords,
		"factors":     len(report.Factors.Factors),
		"significant": significant,
	}).Info("Daily analysis completed")

	return nil
}

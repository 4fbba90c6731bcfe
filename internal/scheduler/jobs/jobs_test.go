package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/logger"
)

type fakeRunner struct {
	start, end time.Time
	forecast   bool
	horizon    int
	err        error
	outcome    contracts.ForecastOutcome
}

func (f *fakeRunner) RunCompleteAnalysis(_ context.Context, start, end time.Time, includeForecast bool) (*contracts.AnalysisReport, error) {
	f.start, f.end, f.forecast = start, end, includeForecast
	if f.err != nil {
		return nil, f.err
	}
	return &contracts.AnalysisReport{
		RunID: "run-1",
		Factors: &contracts.FactorReport{Factors: []contracts.EffectOutcome{
			{Factor: "has_promotion", Result: &contracts.EffectResult{Significant: true}},
			{Factor: "is_weekend", Failure: &contracts.Failure{Kind: contracts.FailureInsufficientData}},
		}},
	}, nil
}

func (f *fakeRunner) Forecast(_ context.Context, end time.Time, horizon int) (*contracts.ForecastOutcome, error) {
	f.end, f.horizon = end, horizon
	if f.err != nil {
		return nil, f.err
	}
	return &f.outcome, nil
}

var now = time.Date(2024, 7, 10, 6, 0, 0, 0, time.UTC)

func TestWindow(t *testing.T) {
	start, end := Window(now, 90)
	assert.Equal(t, time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), end)
	assert.Equal(t, time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, 89*24*time.Hour, end.Sub(start))
}

func TestDailyAnalysisJob(t *testing.T) {
	runner := &fakeRunner{}
	job := NewDailyAnalysisJob(runner, 90, logger.Nop())
	job.now = func() time.Time { return now }

	assert.Equal(t, "daily_analysis", job.Name())
	require.NoError(t, job.Run(context.Background()))
	assert.True(t, runner.forecast)
	assert.Equal(t, time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), runner.end)

	runner.err = errors.New("timeout")
	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2024-04-11..2024-07-09")
	assert.ErrorIs(t, err, runner.err)
}

func TestForecastJob(t *testing.T) {
	runner := &fakeRunner{outcome: contracts.ForecastOutcome{
		Failure:      &contracts.Failure{Kind: contracts.FailureInsufficientData, Message: "too short"},
		RequiredDays: 30,
		CurrentDays:  12,
	}}
	job := NewForecastJob(runner, 7, logger.Nop())
	job.now = func() time.Time { return now }

	assert.NoError(t, job.Run(context.Background()), "short history is not retried")
	assert.Equal(t, 7, runner.horizon)
	assert.Equal(t, time.Date(2024, 7, 9, 0, 0, 0, 0, time.UTC), runner.end)

	runner.outcome = contracts.ForecastOutcome{Result: &contracts.ForecastResult{}}
	assert.NoError(t, job.Run(context.Background()))

	runner.err = errors.New("redis down")
	assert.Error(t, job.Run(context.Background()))
}

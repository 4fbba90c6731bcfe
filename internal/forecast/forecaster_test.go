package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/pkg/logger"
)

var start = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func linearSeries(days int) []DayValue {
	series := make([]DayValue, days)
	for i := range series {
		series[i] = DayValue{Date: start.AddDate(0, 0, i), Revenue: 1000 + 10*float64(i)}
	}
	return series
}

func TestForecast_InsufficientHistory(t *testing.T) {
	f := NewForecaster(30, logger.Nop())

	out := f.ForecastSeries(linearSeries(29), 7)
	require.NotNil(t, out.Failure)
	assert.False(t, out.OK())
	assert.Equal(t, contracts.FailureInsufficientData, out.Failure.Kind)
	assert.Equal(t, 30, out.RequiredDays)
	assert.Equal(t, 29, out.CurrentDays)

	out = f.ForecastSeries(linearSeries(30), 7)
	assert.True(t, out.OK())
}

func TestForecast_RecoversLinearTrend(t *testing.T) {
	out := NewForecaster(30, logger.Nop()).ForecastSeries(linearSeries(40), 7)
	require.True(t, out.OK(), "%v", out.Failure)

	r := out.Result
	assert.Equal(t, Method, r.Method)
	require.Len(t, r.Points, 47)

	for k, pt := range r.Points[40:] {
		want := 1000 + 10*float64(40+k)
		assert.InDelta(t, want, pt.Predicted, 1e-4)
		assert.Nil(t, pt.Actual)
		assert.InDelta(t, pt.Predicted, pt.Lower, 1e-4, "exact fit leaves no residual band")
	}

	first := r.Points[0]
	require.NotNil(t, first.Actual)
	assert.Equal(t, 1000.0, *first.Actual)

	s := r.Summary
	assert.Equal(t, 7, s.ForecastDays)
	assert.Equal(t, "2024-04-09", s.LastActualDate)
	assert.Equal(t, "2024-04-10", s.ForecastStartDate)
	assert.Equal(t, "2024-04-16", s.ForecastEndDate)
	assert.InDelta(t, 7*1430.0, s.TotalForecast, 1e-3)
	assert.InDelta(t, 1430, s.AvgDailyForecast, 1e-4)
	assert.InDelta(t, 1460, s.MaxDailyForecast, 1e-4)
	assert.InDelta(t, 1400, s.MinDailyForecast, 1e-4)
}

func TestForecast_BandIsSymmetric(t *testing.T) {
	series := linearSeries(35)
	for i := range series {
		if i%3 == 0 {
			series[i].Revenue += 40
		}
	}

	out := NewForecaster(30, logger.Nop()).ForecastSeries(series, 3)
	require.True(t, out.OK())

	for _, pt := range out.Result.Points {
		assert.Greater(t, pt.Upper, pt.Predicted)
		assert.InDelta(t, pt.Upper-pt.Predicted, pt.Predicted-pt.Lower, 1e-9)
	}
}

func TestForecast_RejectsNonPositiveHorizon(t *testing.T) {
	out := NewForecaster(30, logger.Nop()).ForecastSeries(linearSeries(30), 0)
	require.NotNil(t, out.Failure)
	assert.Equal(t, contracts.FailureEstimation, out.Failure.Kind)
}

func TestDailyRevenue_SumsLocations(t *testing.T) {
	keys := []features.Key{
		{Date: start.AddDate(0, 0, 1), LocationID: "B"},
		{Date: start, LocationID: "A"},
		{Date: start, LocationID: "B"},
		{Date: start.AddDate(0, 0, 1), LocationID: "A"},
	}
	p := features.NewPanel(keys)
	require.NoError(t, p.Set(features.ColTotalRevenue, []float64{5, 10, 20, 7}))

	series := DailyRevenue(p)
	assert.Equal(t, []DayValue{
		{Date: start, Revenue: 30},
		{Date: start.AddDate(0, 0, 1), Revenue: 12},
	}, series)
}

func TestDailyRevenue_WithoutRevenueColumn(t *testing.T) {
	p := features.NewPanel([]features.Key{{Date: start, LocationID: "A"}})
	assert.Nil(t, DailyRevenue(p))
}

func TestDesign(t *testing.T) {
	// 2024-03-04 is a Monday, three days after the origin
	row := design(start, start.AddDate(0, 0, 3))
	assert.Equal(t, []float64{1, 3, 0, 4, 9, 0, 12, 0, 0, 16}, row)
}

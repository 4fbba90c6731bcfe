package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
	"github.com/umebot/insight/pkg/logger"
)

// Method names the model behind every forecast this package produces
const Method = "Polynomial Regression"

const (
	bandZ     = 1.96
	dateFmt   = "2006-01-02"
	rankRcond = 1e-12
)

// DayValue is the revenue of one calendar day summed over locations
type DayValue struct {
	Date    time.Time
	Revenue float64
}

// Forecaster projects daily revenue with a degree-2 polynomial regression on
// (days since start, weekday, day of month)
// ⭐ SSOT: sales forecast
type Forecaster struct {
	minDays int
	logger  *logger.Logger
}

// NewForecaster creates a forecaster that refuses histories shorter than minDays
func NewForecaster(minDays int, log *logger.Logger) *Forecaster {
	return &Forecaster{
		minDays: minDays,
		logger:  log.Component("forecast"),
	}
}

// DailyRevenue sums total_revenue per date in date order. Missing values are skipped.
func DailyRevenue(p *features.Panel) []DayValue {
	revenue, ok := p.Column(features.ColTotalRevenue)
	if !ok {
		return nil
	}

	byDate := make(map[time.Time]float64)
	for i := 0; i < p.Len(); i++ {
		d := p.Key(i).Date
		if _, seen := byDate[d]; !seen {
			byDate[d] = 0
		}
		if !math.IsNaN(revenue[i]) {
			byDate[d] += revenue[i]
		}
	}

	series := make([]DayValue, 0, len(byDate))
	for d, v := range byDate {
		series = append(series, DayValue{Date: d, Revenue: v})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
	return series
}

// Forecast fits the daily revenue series of p and projects horizon days past
// its last date
func (f *Forecaster) Forecast(p *features.Panel, horizon int) contracts.ForecastOutcome {
	return f.ForecastSeries(DailyRevenue(p), horizon)
}

// ForecastSeries is Forecast over an already aggregated, date-ordered series
func (f *Forecaster) ForecastSeries(series []DayValue, horizon int) contracts.ForecastOutcome {
	if len(series) < f.minDays {
		f.logger.WithFields(map[string]interface{}{
			"required_days": f.minDays,
			"current_days":  len(series),
		}).Warn("Not enough history to forecast")
		failure := contracts.Failf(contracts.FailureInsufficientData,
			"forecast needs at least %d days of history, have %d", f.minDays, len(series))
		failure.SampleSize = len(series)
		return contracts.ForecastOutcome{Failure: failure, RequiredDays: f.minDays, CurrentDays: len(series)}
	}
	if horizon < 1 {
		return contracts.ForecastOutcome{Failure: contracts.Failf(contracts.FailureEstimation, "horizon must be positive, got %d", horizon)}
	}

	result, err := fit(series, horizon)
	if err != nil {
		f.logger.WithError(err).Warn("Forecast failed")
		return contracts.ForecastOutcome{Failure: &contracts.Failure{
			Kind:       contracts.FailureEstimation,
			Message:    err.Error(),
			SampleSize: len(series),
		}}
	}

	f.logger.WithFields(map[string]interface{}{
		"days":    result.Summary.ForecastDays,
		"total":   result.Summary.TotalForecast,
		"through": result.Summary.ForecastEndDate,
	}).Info("Forecast complete")

	return contracts.ForecastOutcome{Result: result}
}

func fit(series []DayValue, horizon int) (*contracts.ForecastResult, error) {
	origin := series[0].Date
	n := len(series)

	x := mat.NewDense(n, numTerms, nil)
	y := mat.NewDense(n, 1, nil)
	for i, s := range series {
		x.SetRow(i, design(origin, s.Date))
		y.Set(i, 0, s.Revenue)
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, fmt.Errorf("factorize design matrix: SVD did not converge")
	}
	var beta mat.Dense
	svd.SolveTo(&beta, y, svd.Rank(rankRcond))

	predict := func(d time.Time) float64 {
		return floats.Dot(design(origin, d), mat.Col(nil, 0, &beta))
	}

	residuals := make([]float64, n)
	fitted := make([]float64, n)
	for i, s := range series {
		fitted[i] = predict(s.Date)
		residuals[i] = s.Revenue - fitted[i]
	}
	band := bandZ * stat.PopStdDev(residuals, nil)
	if math.IsNaN(band) {
		return nil, fmt.Errorf("residual spread is undefined")
	}

	points := make([]contracts.ForecastPoint, 0, n+horizon)
	for i, s := range series {
		actual := s.Revenue
		points = append(points, contracts.ForecastPoint{
			Date:      s.Date,
			Actual:    &actual,
			Predicted: fitted[i],
			Lower:     fitted[i] - band,
			Upper:     fitted[i] + band,
		})
	}

	last := series[n-1].Date
	future := make([]float64, horizon)
	for k := 0; k < horizon; k++ {
		d := last.AddDate(0, 0, k+1)
		future[k] = predict(d)
		points = append(points, contracts.ForecastPoint{
			Date:      d,
			Predicted: future[k],
			Lower:     future[k] - band,
			Upper:     future[k] + band,
		})
	}

	return &contracts.ForecastResult{
		Method: Method,
		Points: points,
		Summary: contracts.ForecastSummary{
			TotalForecast:     floats.Sum(future),
			AvgDailyForecast:  stat.Mean(future, nil),
			MaxDailyForecast:  floats.Max(future),
			MinDailyForecast:  floats.Min(future),
			ForecastDays:      horizon,
			LastActualDate:    last.Format(dateFmt),
			ForecastStartDate: last.AddDate(0, 0, 1).Format(dateFmt),
			ForecastEndDate:   last.AddDate(0, 0, horizon).Format(dateFmt),
		},
	}, nil
}

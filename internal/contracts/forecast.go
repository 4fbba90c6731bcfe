package contracts

import "time"

// ForecastPoint is one day of the fitted or projected revenue series.
// Actual is nil for projected days.
type ForecastPoint struct {
	Date      time.Time `json:"date"`
	Actual    *float64  `json:"actual"`
	Predicted float64   `json:"predicted"`
	Lower     float64   `json:"lower"`
	Upper     float64   `json:"upper"`
}

// ForecastSummary aggregates the projected days only
type ForecastSummary struct {
	TotalForecast     float64 `json:"total_forecast"`
	AvgDailyForecast  float64 `json:"avg_daily_forecast"`
	MaxDailyForecast  float64 `json:"max_daily_forecast"`
	MinDailyForecast  float64 `json:"min_daily_forecast"`
	ForecastDays      int     `json:"forecast_days"`
	LastActualDate    string  `json:"last_actual_date"`
	ForecastStartDate string  `json:"forecast_start_date"`
	ForecastEndDate   string  `json:"forecast_end_date"`
}

// ForecastResult is a daily revenue forecast
type ForecastResult struct {
	Method  string          `json:"method"`
	Points  []ForecastPoint `json:"points"`
	Summary ForecastSummary `json:"summary"`
}

// ForecastOutcome holds exactly one of Result or Failure. RequiredDays and
// CurrentDays are set when the history is too short.
type ForecastOutcome struct {
	Result       *ForecastResult `json:"result,omitempty"`
	Failure      *Failure        `json:"failure,omitempty"`
	RequiredDays int             `json:"required_days,omitempty"`
	CurrentDays  int             `json:"current_days,omitempty"`
}

// OK reports whether the forecast succeeded
func (o ForecastOutcome) OK() bool { return o.Failure == nil && o.Result != nil }

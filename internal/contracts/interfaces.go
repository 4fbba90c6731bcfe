package contracts

import (
	"context"
	"time"
)

// Estimator fits a treatment-effect model of outcome y on binary treatment t
// controlling for covariates x (one row per observation)
type Estimator interface {
	Fit(y, t []float64, x [][]float64) (FittedEstimator, error)
}

// FittedEstimator evaluates a fitted treatment-effect model
type FittedEstimator interface {
	// ATE is the average treatment effect over the evaluation covariates
	ATE(x [][]float64) (float64, error)
	// ATEInterval is the (1-alpha) confidence interval of ATE(x). It may
	// return an error when the model cannot produce one.
	ATEInterval(x [][]float64, alpha float64) (lower, upper float64, err error)
}

// SalesSource loads the raw inputs of an analysis run
// ⭐ SSOT: sales warehouse access goes through this interface
type SalesSource interface {
	Observations(ctx context.Context, start, end time.Time) ([]Observation, error)
	CustomerProfiles(ctx context.Context, start, end time.Time) ([]CustomerProfile, error)
	PromotionSalesCount(ctx context.Context, start, end time.Time) (int, error)
}

// WeatherSource returns daily weather for the given regions. Implementations
// fall back to synthetic data rather than fail.
type WeatherSource interface {
	Weather(ctx context.Context, start, end time.Time, states []string) ([]WeatherRecord, error)
}

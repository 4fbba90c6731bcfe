package contracts

import "time"

// Period is an inclusive analysis date range formatted as YYYY-MM-DD
type Period struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// DataSummary describes the inputs of an analysis run
type DataSummary struct {
	TotalRecords       int `json:"total_records"`
	StoresCount        int `json:"stores_count"`
	StatesCount        int `json:"states_count"`
	DateRangeDays      int `json:"date_range_days"`
	CustomersAnalyzed  int `json:"customers_analyzed"`
	PromotionsAnalyzed int `json:"promotions_analyzed"`
	FeaturesCreated    int `json:"features_created"`
}

// MetricChange compares the trailing 7 days with the 7 days before them.
// ChangePct is 0 when the previous value is not positive.
type MetricChange struct {
	Last7d    float64 `json:"last_7d"`
	Prev7d    float64 `json:"prev_7d"`
	ChangePct float64 `json:"change"`
}

// KeyMetrics is the week-over-week headline summary
type KeyMetrics struct {
	SalesRevenue      MetricChange `json:"sales_revenue"`
	OrdersCount       MetricChange `json:"orders_count"`
	AverageOrderValue MetricChange `json:"average_order_value"`
	UniqueCustomers   MetricChange `json:"unique_customers"`
}

// AnalysisReport is the output of one complete analysis run
type AnalysisReport struct {
	RunID           string           `json:"run_id"`
	AnalysisPeriod  Period           `json:"analysis_period"`
	DataSummary     DataSummary      `json:"data_summary"`
	Factors         *FactorReport    `json:"analysis_results"`
	Forecast        *ForecastOutcome `json:"forecast_results,omitempty"`
	KeyMetrics      KeyMetrics       `json:"key_metrics"`
	CompletedStages []string         `json:"completed_stages"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

package contracts

import "fmt"

// FailureKind classifies why an analysis unit produced no result
type FailureKind string

const (
	FailureInsufficientData FailureKind = "insufficient_data"
	FailureEstimation       FailureKind = "estimation_failure"
	FailureMissingColumn    FailureKind = "missing_column"
)

// Failure is the error arm of every analysis unit outcome
type Failure struct {
	Kind       FailureKind `json:"kind"`
	Message    string      `json:"message"`
	SampleSize int         `json:"sample_size,omitempty"`
}

func (f *Failure) Error() string {
	if f.SampleSize > 0 {
		return fmt.Sprintf("%s: %s (n=%d)", f.Kind, f.Message, f.SampleSize)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Failf builds a Failure with a formatted message
func Failf(kind FailureKind, format string, args ...interface{}) *Failure {
	return &Failure{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// EffectResult is the confounder-adjusted effect of one binary factor on revenue
type EffectResult struct {
	ATE                float64 `json:"ate"`
	CILower            float64 `json:"ci_lower"`
	CIUpper            float64 `json:"ci_upper"`
	TreatmentRate      float64 `json:"treatment_rate"`
	TreatmentGroupMean float64 `json:"treatment_group_mean"`
	ControlGroupMean   float64 `json:"control_group_mean"`
	SampleSize         int     `json:"sample_size"`
	Significant        bool    `json:"significant"`

	// ApproximateCI is set when the interval is ATE ± 1.96·|ATE|·0.1
	// rather than one derived from the fitted model.
	ApproximateCI bool `json:"approximate_ci"`
}

// ExcludesZero reports whether 0 lies outside [lower, upper]
func ExcludesZero(lower, upper float64) bool {
	return !(lower <= 0 && 0 <= upper)
}

// EffectOutcome holds exactly one of Result or Failure
type EffectOutcome struct {
	Factor  string        `json:"factor"`
	Result  *EffectResult `json:"result,omitempty"`
	Failure *Failure      `json:"failure,omitempty"`
}

// OK reports whether the outcome carries a result
func (o EffectOutcome) OK() bool { return o.Result != nil }

// CellStat is the mean revenue and row count of one factorial cell
type CellStat struct {
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// InteractionResult decomposes a 2x2 factorial design. GroupDetails is keyed
// "{f1}_{f2}" with values in {0,1}.
type InteractionResult struct {
	InteractionEffect float64             `json:"interaction_effect"`
	Factor1MainEffect float64             `json:"factor1_main_effect"`
	Factor2MainEffect float64             `json:"factor2_main_effect"`
	CombinedEffect    float64             `json:"combined_effect"`
	GroupDetails      map[string]CellStat `json:"group_details"`
	Name              string              `json:"name"`
}

// InteractionOutcome holds exactly one of Result or Failure
type InteractionOutcome struct {
	Pair    string             `json:"pair"` // "{factor1}_x_{factor2}"
	Name    string             `json:"name"`
	Result  *InteractionResult `json:"result,omitempty"`
	Failure *Failure           `json:"failure,omitempty"`
}

// OK reports whether the outcome carries a result
func (o InteractionOutcome) OK() bool { return o.Result != nil }

// SliceEffect is an unadjusted difference in mean revenue inside one slice
type SliceEffect struct {
	Effect      float64 `json:"effect"`
	TreatedMean float64 `json:"treated_mean"`
	ControlMean float64 `json:"control_mean"`
	SampleSize  int     `json:"sample_size"`
}

// CategoryEffect compares mean category order counts with and without promotion
type CategoryEffect struct {
	PromotionAvg       float64 `json:"promotion_avg"`
	NoPromotionAvg     float64 `json:"no_promotion_avg"`
	Lift               float64 `json:"lift"`
	AbsoluteDifference float64 `json:"absolute_difference"`
}

// SliceFailure records a slice that errored during heterogeneity analysis
type SliceFailure struct {
	Section string   `json:"section"`
	Slice   string   `json:"slice"`
	Failure *Failure `json:"failure"`
}

// HeterogeneityResult holds promotion effects per slice. Slices that fail
// their sample gates are omitted. A nil map means the section did not apply.
type HeterogeneityResult struct {
	PromotionByStore    map[string]SliceEffect    `json:"promotion_by_store,omitempty"`
	PromotionByWeather  map[string]SliceEffect    `json:"promotion_by_weather,omitempty"`
	PromotionByCategory map[string]CategoryEffect `json:"promotion_by_category,omitempty"`
	Failures            []SliceFailure            `json:"failures,omitempty"`
}

// FactorReport is the merged output of one analysis over a panel
type FactorReport struct {
	Factors       []EffectOutcome      `json:"factors"`
	Interactions  []InteractionOutcome `json:"interactions"`
	Heterogeneity HeterogeneityResult  `json:"heterogeneity"`
}

// Factor returns the outcome for the named factor
func (r *FactorReport) Factor(name string) (EffectOutcome, bool) {
	for _, f := range r.Factors {
		if f.Factor == name {
			return f, true
		}
	}
	return EffectOutcome{}, false
}

// Interaction returns the outcome for the pair key "{f1}_x_{f2}"
func (r *FactorReport) Interaction(pair string) (InteractionOutcome, bool) {
	for _, o := range r.Interactions {
		if o.Pair == pair {
			return o, true
		}
	}
	return InteractionOutcome{}, false
}

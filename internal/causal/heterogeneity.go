package causal

import (
	"math"
	"sort"
	"sync"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
)

const liftEpsilon = 1e-6

// AnalyzeHeterogeneity slices the unadjusted promotion effect by store,
// weather condition and product category. Slices below their sample gates
// are omitted. The weather section is nil when the panel has no weather
// flags and the category section is nil when no category qualifies.
func (a *Analyzer) AnalyzeHeterogeneity(p *features.Panel) contracts.HeterogeneityResult {
	var result contracts.HeterogeneityResult

	promo, ok := p.Column(features.ColHasPromotion)
	if !ok {
		return result
	}
	revenue, ok := p.Column(OutcomeColumn)
	if !ok {
		return result
	}

	var mu sync.Mutex
	addFailure := func(section, slice string, f *contracts.Failure) {
		mu.Lock()
		defer mu.Unlock()
		result.Failures = append(result.Failures, contracts.SliceFailure{Section: section, Slice: slice, Failure: f})
	}

	// Store
	byStore := make(map[string][]int)
	for i := 0; i < p.Len(); i++ {
		id := p.Key(i).LocationID
		byStore[id] = append(byStore[id], i)
	}
	stores := make([]string, 0, len(byStore))
	for id := range byStore {
		stores = append(stores, id)
	}
	sort.Strings(stores)

	storeEffects := make([]*contracts.SliceEffect, len(stores))
	a.forEach(len(stores), func(i int) {
		failure := a.guard("store", stores[i], func() {
			storeEffects[i] = diffInMeans(byStore[stores[i]], promo, revenue, a.cfg.MinStoreRows, a.cfg.MinStoreTreated)
		})
		if failure != nil {
			addFailure("store", stores[i], failure)
		}
	})

	result.PromotionByStore = make(map[string]contracts.SliceEffect)
	for i, e := range storeEffects {
		if e != nil {
			result.PromotionByStore[stores[i]] = *e
		}
	}

	// Weather
	var conditions []string
	for _, c := range WeatherConditions {
		if p.Has(c) {
			conditions = append(conditions, c)
		}
	}
	if len(conditions) > 0 {
		result.PromotionByWeather = make(map[string]contracts.SliceEffect)
		for _, condition := range conditions {
			flag, _ := p.Column(condition)
			var effect *contracts.SliceEffect
			failure := a.guard("weather", condition, func() {
				var rows []int
				for i, v := range flag {
					if v == 1 {
						rows = append(rows, i)
					}
				}
				effect = diffInMeans(rows, promo, revenue, a.cfg.MinWeatherRows, a.cfg.MinWeatherTreated)
			})
			if failure != nil {
				addFailure("weather", condition, failure)
			}
			if effect != nil {
				result.PromotionByWeather[condition] = *effect
			}
		}
	}

	// Category
	categories := make(map[string]contracts.CategoryEffect)
	for _, cat := range Categories {
		counts, ok := p.Column(cat.Column)
		if !ok {
			continue
		}
		var effect *contracts.CategoryEffect
		failure := a.guard("category", cat.Label, func() {
			effect = categoryLift(promo, counts, a.cfg.MinCategoryRows)
		})
		if failure != nil {
			addFailure("category", cat.Label, failure)
		}
		if effect != nil {
			categories[cat.Label] = *effect
		}
	}
	if len(categories) > 0 {
		result.PromotionByCategory = categories
	}

	return result
}

// guard runs one heterogeneity slice, converting a panic into a failure
func (a *Analyzer) guard(section, id string, fn func()) (failure *contracts.Failure) {
	defer func() {
		if r := recover(); r != nil {
			failure = panicFailure(r)
			a.record("heterogeneity", section+":"+id, failure)
		}
	}()
	fn()
	return nil
}

// diffInMeans returns treated minus control mean revenue over rows, or nil
// unless len(rows) > minRows, treated > minTreated and a control row exists
func diffInMeans(rows []int, promo, revenue []float64, minRows, minTreated int) *contracts.SliceEffect {
	if len(rows) <= minRows {
		return nil
	}

	var treated, control []float64
	for _, i := range rows {
		switch promo[i] {
		case 1:
			treated = append(treated, revenue[i])
		case 0:
			control = append(control, revenue[i])
		}
	}
	if len(treated) <= minTreated || len(control) == 0 {
		return nil
	}

	treatedMean, controlMean := nanMean(treated), nanMean(control)
	if math.IsNaN(treatedMean) || math.IsNaN(controlMean) {
		return nil
	}

	return &contracts.SliceEffect{
		Effect:      treatedMean - controlMean,
		TreatedMean: treatedMean,
		ControlMean: controlMean,
		SampleSize:  len(rows),
	}
}

// categoryLift compares mean counts on promoted and unpromoted rows, or nil
// unless both groups have more than minRows rows
func categoryLift(promo, counts []float64, minRows int) *contracts.CategoryEffect {
	var withPromo, without []float64
	for i, v := range promo {
		switch v {
		case 1:
			withPromo = append(withPromo, counts[i])
		case 0:
			without = append(without, counts[i])
		}
	}
	if len(withPromo) <= minRows || len(without) <= minRows {
		return nil
	}

	p, n := nanMean(withPromo), nanMean(without)
	if math.IsNaN(p) || math.IsNaN(n) {
		return nil
	}

	return &contracts.CategoryEffect{
		PromotionAvg:       p,
		NoPromotionAvg:     n,
		Lift:               (p - n) / (n + liftEpsilon),
		AbsoluteDifference: p - n,
	}
}

func nanMean(v []float64) float64 {
	sum, n := 0.0, 0
	for _, x := range v {
		if !math.IsNaN(x) {
			sum += x
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

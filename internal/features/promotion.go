package features

import (
	"fmt"
	"math"
)

const intensityEpsilon = 1e-3

func (b *Builder) addPromotionFeatures(p *Panel) error {
	for _, name := range []string{ColTotalRevenue, ColTotalDiscount, ColBogoOrders} {
		if !p.Has(name) {
			return fmt.Errorf("missing column %q", name)
		}
	}

	revenue := p.col(ColTotalRevenue)
	discount := p.col(ColTotalDiscount)
	bogo := p.col(ColBogoOrders)
	n := p.Len()

	hasPromotion := make([]float64, n)
	intensity := make([]float64, n)
	hasBogo := make([]float64, n)
	for i := 0; i < n; i++ {
		hasPromotion[i] = indicator(discount[i] > 0)
		intensity[i] = discount[i] / (revenue[i] + discount[i] + intensityEpsilon)
		hasBogo[i] = indicator(bogo[i] > 0)
	}

	p.add(ColHasPromotion, hasPromotion)
	p.add(ColPromotionIntensity, intensity)
	p.add(ColHasBogo, hasBogo)

	if !p.Has(ColLowPerformance) {
		p.add(ColLowPerformance, b.lowPerformance(p, revenue))
	}

	return nil
}

// lowPerformance flags rows below their own location's 25th revenue
// percentile. Any failure flags nothing.
func (b *Builder) lowPerformance(p *Panel, revenue []float64) (flags []float64) {
	flags = make([]float64, p.Len())

	defer func() {
		if r := recover(); r != nil {
			b.logger.WithField("panic", fmt.Sprint(r)).Warn("Revenue quantile failed, low_performance defaults to 0")
			flags = make([]float64, p.Len())
		}
	}()

	byLocation := make(map[string][]int)
	for i, k := range p.keys {
		byLocation[k.LocationID] = append(byLocation[k.LocationID], i)
	}

	for _, rows := range byLocation {
		values := make([]float64, 0, len(rows))
		for _, i := range rows {
			values = append(values, revenue[i])
		}
		q25 := quantile(values, 0.25)
		if math.IsNaN(q25) {
			continue
		}
		for _, i := range rows {
			flags[i] = indicator(revenue[i] < q25)
		}
	}

	return flags
}

package analysis

import (
	"math"
	"time"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/internal/features"
)

const weekDays = 7

// window accumulates one column over the trailing and the previous week
type window struct {
	last, prev       float64
	lastNum, prevNum int
}

func (w *window) add(v float64, inLast bool) {
	if math.IsNaN(v) {
		return
	}
	if inLast {
		w.last += v
		w.lastNum++
		return
	}
	w.prev += v
	w.prevNum++
}

func (w *window) sum() contracts.MetricChange {
	return change(w.last, w.prev)
}

func (w *window) mean() contracts.MetricChange {
	var last, prev float64
	if w.lastNum > 0 {
		last = w.last / float64(w.lastNum)
	}
	if w.prevNum > 0 {
		prev = w.prev / float64(w.prevNum)
	}
	return change(last, prev)
}

func change(last, prev float64) contracts.MetricChange {
	m := contracts.MetricChange{Last7d: last, Prev7d: prev}
	if prev > 0 {
		m.ChangePct = (last - prev) / prev * 100
	}
	return m
}

// KeyMetrics compares the last 7 days of the panel (ending at its latest
// date) with the 7 days before. Revenue, orders and customers are summed;
// average order value is averaged over rows.
func KeyMetrics(p *features.Panel) contracts.KeyMetrics {
	if p.Len() == 0 {
		return contracts.KeyMetrics{}
	}

	var latest time.Time
	for i := 0; i < p.Len(); i++ {
		if d := p.Key(i).Date; d.After(latest) {
			latest = d
		}
	}
	lastFrom := latest.AddDate(0, 0, -(weekDays - 1))
	prevFrom := latest.AddDate(0, 0, -(2*weekDays - 1))

	column := func(name string) []float64 {
		if v, ok := p.Column(name); ok {
			return v
		}
		return make([]float64, p.Len())
	}
	revenue := column(features.ColTotalRevenue)
	orders := column(features.ColOrderCount)
	aov := column(features.ColAvgOrderValue)
	customers := column(features.ColUniqueCustomers)

	var rev, ord, avg, cust window
	for i := 0; i < p.Len(); i++ {
		d := p.Key(i).Date
		if d.Before(prevFrom) {
			continue
		}
		inLast := !d.Before(lastFrom)
		rev.add(revenue[i], inLast)
		ord.add(orders[i], inLast)
		avg.add(aov[i], inLast)
		cust.add(customers[i], inLast)
	}

	return contracts.KeyMetrics{
		SalesRevenue:      rev.sum(),
		OrdersCount:       ord.sum(),
		AverageOrderValue: avg.mean(),
		UniqueCustomers:   cust.sum(),
	}
}

// Summarize describes the engineered panel and the auxiliary inputs
func Summarize(p *features.Panel, start, end time.Time, customers, promotions int) contracts.DataSummary {
	stores := make(map[string]struct{})
	states := make(map[string]struct{})
	for _, k := range p.Keys() {
		stores[k.LocationID] = struct{}{}
		states[k.State] = struct{}{}
	}

	return contracts.DataSummary{
		TotalRecords:       p.Len(),
		StoresCount:        len(stores),
		StatesCount:        len(states),
		DateRangeDays:      int(day(end).Sub(day(start)).Hours()/24) + 1,
		CustomersAnalyzed:  customers,
		PromotionsAnalyzed: promotions,
		FeaturesCreated:    p.Width(),
	}
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

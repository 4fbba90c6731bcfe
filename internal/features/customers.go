package features

import (
	"github.com/umebot/insight/internal/contracts"
)

type customerAggregate struct {
	highValue, loyal, churned float64
	spentSum, aovSum          float64
	count                     int
}

// addCustomerFeatures joins per-location customer segment aggregates.
// Locations without customers get zeros.
func (b *Builder) addCustomerFeatures(p *Panel, customers []contracts.CustomerProfile) error {
	byLocation := make(map[string]*customerAggregate)
	for _, c := range customers {
		agg, ok := byLocation[c.LocationID]
		if !ok {
			agg = &customerAggregate{}
			byLocation[c.LocationID] = agg
		}
		agg.highValue += indicator(c.HighValueCustomer)
		agg.loyal += indicator(c.Loyal)
		agg.churned += indicator(c.Churned)
		agg.spentSum += c.TotalSpent
		agg.aovSum += c.AvgOrderValue
		agg.count++
	}

	n := p.Len()
	highValue := make([]float64, n)
	loyal := make([]float64, n)
	churned := make([]float64, n)
	spent := make([]float64, n)
	aov := make([]float64, n)

	for i, k := range p.keys {
		agg, ok := byLocation[k.LocationID]
		if !ok {
			continue
		}
		highValue[i] = agg.highValue
		loyal[i] = agg.loyal
		churned[i] = agg.churned
		spent[i] = agg.spentSum / float64(agg.count)
		aov[i] = agg.aovSum / float64(agg.count)
	}

	p.add(ColHighValueCustomers, highValue)
	p.add(ColLoyalCustomers, loyal)
	p.add(ColChurnedCustomers, churned)
	p.add(ColAvgCustomerSpent, spent)
	p.add(ColAvgCustomerOrderValue, aov)

	b.logger.WithField("locations", len(byLocation)).Debug("Customer aggregates joined")
	return nil
}

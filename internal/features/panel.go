package features

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/umebot/insight/internal/contracts"
)

// Key identifies one panel row
type Key struct {
	Date         time.Time `json:"date"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	State        string    `json:"state"`
}

// Panel is a column-oriented table of per-(date, location) rows. Numeric
// columns are float64 with NaN as missing. A column that is absent means the
// feature does not apply to this run.
// ⭐ SSOT: the engineered panel consumed by every analysis component
type Panel struct {
	keys    []Key
	columns map[string][]float64
	order   []string
}

// NewPanel creates a panel with the given row keys and no numeric columns
func NewPanel(keys []Key) *Panel {
	k := make([]Key, len(keys))
	copy(k, keys)
	for i := range k {
		k[i].Date = day(k[i].Date)
	}
	return &Panel{keys: k, columns: make(map[string][]float64)}
}

// Base observation columns, in panel order
const (
	ColOrderCount         = "order_count"
	ColTotalRevenue       = "total_revenue"
	ColAvgOrderValue      = "avg_order_value"
	ColTotalDiscount      = "total_discount"
	ColDiscountOrders     = "discount_orders"
	ColUniqueCustomers    = "unique_customers"
	ColLoyaltyOrders      = "loyalty_orders"
	ColBogoOrders         = "bogo_orders"
	ColCategoryDiversity  = "category_diversity"
	ColMorningOrders      = "morning_orders"
	ColLunchOrders        = "lunch_orders"
	ColAfternoonOrders    = "afternoon_orders"
	ColEveningOrders      = "evening_orders"
	ColTeaDrinksOrders    = "tea_drinks_orders"
	ColCoffeeOrders       = "coffee_orders"
	ColFoodOrders         = "food_orders"
	ColCaffeineFreeOrders = "caffeine_free_orders"
	ColNewProductOrders   = "new_product_orders"
	ColDayOfWeek          = "day_of_week"
)

// FromObservations converts observation rows into a panel in input order
func FromObservations(obs []contracts.Observation) *Panel {
	keys := make([]Key, len(obs))
	for i, o := range obs {
		keys[i] = Key{Date: o.Date, LocationID: o.LocationID, LocationName: o.LocationName, State: o.State}
	}
	p := NewPanel(keys)

	count := func(get func(o contracts.Observation) int64) []float64 {
		v := make([]float64, len(obs))
		for i, o := range obs {
			v[i] = float64(get(o))
		}
		return v
	}
	money := func(get func(o contracts.Observation) float64) []float64 {
		v := make([]float64, len(obs))
		for i, o := range obs {
			v[i] = get(o)
		}
		return v
	}

	p.add(ColOrderCount, count(func(o contracts.Observation) int64 { return o.OrderCount }))
	p.add(ColTotalRevenue, money(func(o contracts.Observation) float64 { return contracts.Money(o.TotalRevenue) }))
	p.add(ColAvgOrderValue, money(func(o contracts.Observation) float64 { return contracts.Money(o.AvgOrderValue) }))
	p.add(ColTotalDiscount, money(func(o contracts.Observation) float64 { return contracts.Money(o.TotalDiscount) }))
	p.add(ColDiscountOrders, count(func(o contracts.Observation) int64 { return o.DiscountOrders }))
	p.add(ColUniqueCustomers, count(func(o contracts.Observation) int64 { return o.UniqueCustomers }))
	p.add(ColLoyaltyOrders, count(func(o contracts.Observation) int64 { return o.LoyaltyOrders }))
	p.add(ColBogoOrders, count(func(o contracts.Observation) int64 { return o.BogoOrders }))
	p.add(ColCategoryDiversity, count(func(o contracts.Observation) int64 { return o.CategoryDiversity }))
	p.add(ColMorningOrders, count(func(o contracts.Observation) int64 { return o.MorningOrders }))
	p.add(ColLunchOrders, count(func(o contracts.Observation) int64 { return o.LunchOrders }))
	p.add(ColAfternoonOrders, count(func(o contracts.Observation) int64 { return o.AfternoonOrders }))
	p.add(ColEveningOrders, count(func(o contracts.Observation) int64 { return o.EveningOrders }))
	p.add(ColTeaDrinksOrders, count(func(o contracts.Observation) int64 { return o.TeaDrinksOrders }))
	p.add(ColCoffeeOrders, count(func(o contracts.Observation) int64 { return o.CoffeeOrders }))
	p.add(ColFoodOrders, count(func(o contracts.Observation) int64 { return o.FoodOrders }))
	p.add(ColCaffeineFreeOrders, count(func(o contracts.Observation) int64 { return o.CaffeineFreeOrders }))
	p.add(ColNewProductOrders, count(func(o contracts.Observation) int64 { return o.NewProductOrders }))

	dow := make([]float64, len(obs))
	for i, o := range obs {
		if o.DayOfWeek > 0 {
			dow[i] = float64(o.DayOfWeek)
		} else {
			dow[i] = float64(isoWeekday(o.Date))
		}
	}
	p.add(ColDayOfWeek, dow)

	return p
}

// Len returns the number of rows
func (p *Panel) Len() int { return len(p.keys) }

// Has reports whether the named numeric column exists
func (p *Panel) Has(name string) bool {
	_, ok := p.columns[name]
	return ok
}

// Column returns a copy of the named column
func (p *Panel) Column(name string) ([]float64, bool) {
	col, ok := p.columns[name]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, true
}

// Columns returns the numeric column names in insertion order
func (p *Panel) Columns() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Width is the total column count, key columns included
func (p *Panel) Width() int { return 4 + len(p.order) }

// Keys returns a copy of the row keys
func (p *Panel) Keys() []Key {
	out := make([]Key, len(p.keys))
	copy(out, p.keys)
	return out
}

// Key returns the key of row i
func (p *Panel) Key(i int) Key { return p.keys[i] }

// Set adds or replaces a numeric column
func (p *Panel) Set(name string, values []float64) error {
	if len(values) != len(p.keys) {
		return fmt.Errorf("column %q has %d values, panel has %d rows", name, len(values), len(p.keys))
	}
	v := make([]float64, len(values))
	copy(v, values)
	if _, ok := p.columns[name]; !ok {
		p.order = append(p.order, name)
	}
	p.columns[name] = v
	return nil
}

// add stores values under name unless the column exists. Every stage sizes
// its columns from p.Len(), so a length mismatch is a programming error.
func (p *Panel) add(name string, values []float64) {
	if p.Has(name) {
		return
	}
	if err := p.Set(name, values); err != nil {
		panic(err)
	}
}

func (p *Panel) col(name string) []float64 { return p.columns[name] }

// Clone returns a deep copy
func (p *Panel) Clone() *Panel {
	c := &Panel{
		keys:    make([]Key, len(p.keys)),
		columns: make(map[string][]float64, len(p.columns)),
		order:   make([]string, len(p.order)),
	}
	copy(c.keys, p.keys)
	copy(c.order, p.order)
	for name, col := range p.columns {
		v := make([]float64, len(col))
		copy(v, col)
		c.columns[name] = v
	}
	return c
}

// Select returns a new panel holding the given rows in the given order
func (p *Panel) Select(rows []int) *Panel {
	c := &Panel{
		keys:    make([]Key, len(rows)),
		columns: make(map[string][]float64, len(p.columns)),
		order:   make([]string, len(p.order)),
	}
	copy(c.order, p.order)
	for j, i := range rows {
		c.keys[j] = p.keys[i]
	}
	for name, col := range p.columns {
		v := make([]float64, len(rows))
		for j, i := range rows {
			v[j] = col[i]
		}
		c.columns[name] = v
	}
	return c
}

// sortByDateLocation orders rows by (date, location_id), keeping the
// relative order of equal keys
func (p *Panel) sortByDateLocation() *Panel {
	idx := make([]int, len(p.keys))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ka, kb := p.keys[idx[a]], p.keys[idx[b]]
		if !ka.Date.Equal(kb.Date) {
			return ka.Date.Before(kb.Date)
		}
		return ka.LocationID < kb.LocationID
	})
	return p.Select(idx)
}

// fillNaN replaces every NaN in every numeric column with zero
func (p *Panel) fillNaN() {
	for _, col := range p.columns {
		for i, v := range col {
			if math.IsNaN(v) {
				col[i] = 0
			}
		}
	}
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isoWeekday maps Monday=1 .. Sunday=7
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

package features

import (
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/internal/contracts"
	"github.com/umebot/insight/pkg/logger"
)

func money(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// observations returns days x locations rows starting at start
func observations(start time.Time, days int, locations ...string) []contracts.Observation {
	var obs []contracts.Observation
	for d := 0; d < days; d++ {
		for j, loc := range locations {
			revenue := 1000 + float64(d*10+j*100)
			discount := 0.0
			if d%3 == 0 {
				discount = 50
			}
			obs = append(obs, contracts.Observation{
				Date:            start.AddDate(0, 0, d),
				LocationID:      loc,
				LocationName:    "Store " + loc + "-CA",
				State:           "CA",
				TotalRevenue:    money(revenue),
				AvgOrderValue:   money(12.5),
				TotalDiscount:   money(discount),
				OrderCount:      80,
				UniqueCustomers: 60,
				BogoOrders:      int64(d % 2),
				TeaDrinksOrders: 30,
				CoffeeOrders:    10,
			})
		}
	}
	return obs
}

func newBuilder() *Builder {
	return NewBuilder(logger.Nop())
}

func column(t *testing.T, p *Panel, name string) []float64 {
	t.Helper()
	col, ok := p.Column(name)
	require.True(t, ok, "column %s missing", name)
	return col
}

func TestBuild_EmptyPanel(t *testing.T) {
	_, err := newBuilder().BuildFromObservations(nil, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyPanel)
}

func TestBuild_PromotionInvariants(t *testing.T) {
	obs := observations(date(2024, 3, 1), 20, "L1", "L2")
	obs[3].TotalDiscount = money(0.01)
	obs[5].TotalDiscount = decimal.NullDecimal{} // unparseable at the source

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)

	discount := column(t, p, ColTotalDiscount)
	promo := column(t, p, ColHasPromotion)
	intensity := column(t, p, ColPromotionIntensity)

	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, discount[i] > 0, promo[i] == 1, "row %d", i)
		assert.False(t, math.IsNaN(intensity[i]))
		assert.GreaterOrEqual(t, intensity[i], 0.0)
		assert.LessOrEqual(t, intensity[i], 1.0)
	}
}

func TestBuild_MissingMoneyIsZeroFilled(t *testing.T) {
	obs := observations(date(2024, 3, 1), 4, "L1")
	obs[0].TotalRevenue = decimal.NullDecimal{}
	obs[0].TotalDiscount = decimal.NullDecimal{}

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0.0, column(t, p, ColTotalRevenue)[0])
	assert.Equal(t, 0.0, column(t, p, ColHasPromotion)[0])
	assert.Equal(t, 0.0, column(t, p, ColPromotionIntensity)[0])
}

func TestBuild_WeekdayFlags(t *testing.T) {
	p, err := newBuilder().BuildFromObservations(observations(date(2024, 5, 1), 28, "L1"), nil, nil)
	require.NoError(t, err)

	weekend := column(t, p, ColIsWeekend)
	monday := column(t, p, ColIsMonday)
	friday := column(t, p, ColIsFriday)
	member := column(t, p, ColIsMemberDay)

	for i := 0; i < p.Len(); i++ {
		wd := p.Key(i).Date.Weekday()
		assert.Equal(t, wd == time.Saturday || wd == time.Sunday, weekend[i] == 1)
		if weekend[i] == 1 {
			assert.Zero(t, monday[i]+friday[i]+member[i], "weekend row flagged as weekday")
		}
	}
}

func TestBuild_CalendarFlags(t *testing.T) {
	obs := []contracts.Observation{
		{Date: date(2024, 7, 4), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
		{Date: date(2024, 7, 1), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
		{Date: date(2024, 7, 15), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
		{Date: date(2024, 2, 14), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
		{Date: date(2024, 12, 20), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
	}

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)

	// Rows are sorted: 02-14, 07-01, 07-04, 07-15, 12-20
	assert.Equal(t, date(2024, 2, 14), p.Key(0).Date)

	assert.Equal(t, []float64{0, 0, 1, 0, 0}, column(t, p, ColIsHoliday))
	assert.Equal(t, []float64{0, 1, 1, 0, 0}, column(t, p, ColIsHolidayWeek))
	assert.Equal(t, []float64{1, 0, 0, 0, 0}, column(t, p, ColIsValentine))
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, column(t, p, ColIsChristmasSeason))
	assert.Equal(t, []float64{0, 1, 1, 1, 0}, column(t, p, ColIsSummer))
	assert.Equal(t, []float64{1, 0, 0, 0, 1}, column(t, p, ColIsWinter))
}

func TestBuild_ObservedHoliday(t *testing.T) {
	// 2026-07-04 is a Saturday, observed on Friday 2026-07-03
	obs := []contracts.Observation{
		{Date: date(2026, 7, 3), LocationID: "L1", TotalRevenue: money(1), TotalDiscount: money(0)},
	}

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, column(t, p, ColIsHoliday))
}

func TestBuild_LowPerformance(t *testing.T) {
	start := date(2024, 4, 1)
	var obs []contracts.Observation
	for i, rev := range []float64{40, 10, 30, 20} {
		obs = append(obs, contracts.Observation{
			Date: start.AddDate(0, 0, i), LocationID: "L1",
			TotalRevenue: money(rev), TotalDiscount: money(0),
		})
	}
	// A second location with much higher revenue must not shift L1's threshold
	for i := 0; i < 4; i++ {
		obs = append(obs, contracts.Observation{
			Date: start.AddDate(0, 0, i), LocationID: "L2",
			TotalRevenue: money(1000 + float64(i)), TotalDiscount: money(0),
		})
	}

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)

	revenue := column(t, p, ColTotalRevenue)
	low := column(t, p, ColLowPerformance)

	flagged := map[float64]bool{}
	for i := range revenue {
		if low[i] == 1 {
			flagged[revenue[i]] = true
		}
	}
	// L1 Q25 = 17.5, L2 Q25 = 1000.75
	assert.Equal(t, map[float64]bool{10: true, 1000: true}, flagged)
}

func TestBuild_WithoutWeather(t *testing.T) {
	p, err := newBuilder().BuildFromObservations(observations(date(2024, 6, 1), 10, "L1"), nil, nil)
	require.NoError(t, err)

	for _, name := range append(WeatherColumns, ColIsHot, ColIsRainy, ColComfortIndex, ColRainyPromotion, ColHotPromotion) {
		assert.False(t, p.Has(name), "%s must be absent without weather", name)
	}
	assert.True(t, p.Has(ColWeekendPromotion))
	assert.True(t, p.Has(ColHolidayPromotion))
}

func TestBuild_WeatherJoinAndFill(t *testing.T) {
	start := date(2024, 6, 1)
	obs := observations(start, 5, "L1")

	weather := []contracts.WeatherRecord{
		// No record for day 0: back-filled from day 1
		{Date: start.AddDate(0, 0, 1), State: "CA", TemperatureMax: 32, TemperatureMean: 25, Precipitation: 5, SunshineHours: 9, WindSpeed: 10},
		// Day 2 missing: forward-filled from day 1
		{Date: start.AddDate(0, 0, 3), State: "CA", TemperatureMax: 20, TemperatureMean: 20, Precipitation: 0, SunshineHours: 4, WindSpeed: 25},
		{Date: start.AddDate(0, 0, 4), State: "CA", TemperatureMax: 8, TemperatureMean: 5, Precipitation: 12, Snow: 1, WindSpeed: 30},
		{Date: start.AddDate(0, 0, 4), State: "TX", TemperatureMax: 40},
	}

	p, err := newBuilder().BuildFromObservations(obs, weather, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{32, 32, 32, 20, 8}, column(t, p, ColTemperatureMax))
	assert.Equal(t, []float64{1, 1, 1, 0, 0}, column(t, p, ColIsHot))
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, column(t, p, ColIsCold))
	assert.Equal(t, []float64{0, 0, 0, 1, 0}, column(t, p, ColIsMild))
	assert.Equal(t, []float64{1, 1, 1, 0, 1}, column(t, p, ColIsRainy))
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, column(t, p, ColIsHeavyRain))
	assert.Equal(t, []float64{0, 0, 0, 0, 1}, column(t, p, ColIsSnowy))
	assert.Equal(t, []float64{1, 1, 1, 0, 0}, column(t, p, ColIsSunny))
	assert.Equal(t, []float64{0, 0, 0, 1, 1}, column(t, p, ColIsWindy))

	comfort := column(t, p, ColComfortIndex)
	assert.InDelta(t, -0.1*5+0.1*9-0.05*5-0.02*10, comfort[0], 1e-9)

	promo := column(t, p, ColHasPromotion)
	rainy := column(t, p, ColIsRainy)
	rainyPromo := column(t, p, ColRainyPromotion)
	for i := range promo {
		assert.Equal(t, promo[i]*rainy[i], rainyPromo[i])
	}
}

func TestBuild_UnmatchedWeatherZeroFills(t *testing.T) {
	obs := observations(date(2024, 6, 1), 3, "L1")
	weather := []contracts.WeatherRecord{{Date: date(2024, 6, 1), State: "TX", TemperatureMax: 35}}

	p, err := newBuilder().BuildFromObservations(obs, weather, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0, 0}, column(t, p, ColTemperatureMax))
	assert.Equal(t, []float64{0, 0, 0}, column(t, p, ColIsHot))
}

func TestBuild_Customers(t *testing.T) {
	obs := observations(date(2024, 6, 1), 2, "L1", "L2")
	customers := []contracts.CustomerProfile{
		{CustomerID: "c1", LocationID: "L1", TotalSpent: 100, AvgOrderValue: 10, HighValueCustomer: true, Loyal: true},
		{CustomerID: "c2", LocationID: "L1", TotalSpent: 300, AvgOrderValue: 20, Churned: true},
		{CustomerID: "c3", LocationID: "L9", TotalSpent: 999, HighValueCustomer: true},
	}

	p, err := newBuilder().BuildFromObservations(obs, nil, customers)
	require.NoError(t, err)

	highValue := column(t, p, ColHighValueCustomers)
	spent := column(t, p, ColAvgCustomerSpent)
	churned := column(t, p, ColChurnedCustomers)
	for i := 0; i < p.Len(); i++ {
		switch p.Key(i).LocationID {
		case "L1":
			assert.Equal(t, 1.0, highValue[i])
			assert.Equal(t, 1.0, churned[i])
			assert.Equal(t, 200.0, spent[i])
		case "L2":
			assert.Zero(t, highValue[i])
			assert.Zero(t, spent[i])
		}
	}
}

func TestBuild_Idempotent(t *testing.T) {
	start := date(2024, 6, 1)
	obs := observations(start, 14, "L1", "L2")
	weather := []contracts.WeatherRecord{
		{Date: start, State: "CA", TemperatureMax: 31, TemperatureMean: 24, Precipitation: 3, SunshineHours: 9},
	}
	customers := []contracts.CustomerProfile{{CustomerID: "c1", LocationID: "L1", TotalSpent: 50, Loyal: true}}

	b := newBuilder()
	once, err := b.BuildFromObservations(obs, weather, customers)
	require.NoError(t, err)

	twice, err := b.Build(once, weather, customers)
	require.NoError(t, err)

	assert.Equal(t, once.Columns(), twice.Columns())
	assert.Equal(t, once.Keys(), twice.Keys())
	for _, name := range once.Columns() {
		assert.Equal(t, column(t, once, name), column(t, twice, name), name)
	}
}

func TestBuild_DoesNotMutateInput(t *testing.T) {
	obs := observations(date(2024, 6, 1), 5, "L2", "L1")
	input := FromObservations(obs)
	before := input.Clone()

	_, err := newBuilder().Build(input, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, before.Columns(), input.Columns())
	assert.Equal(t, before.Keys(), input.Keys())
	assert.False(t, input.Has(ColHasPromotion))
}

func TestBuild_SortsByDateAndLocation(t *testing.T) {
	obs := observations(date(2024, 6, 1), 3, "L2", "L1")
	// Reverse the input order
	for i, j := 0, len(obs)-1; i < j; i, j = i+1, j-1 {
		obs[i], obs[j] = obs[j], obs[i]
	}

	p, err := newBuilder().BuildFromObservations(obs, nil, nil)
	require.NoError(t, err)

	for i := 1; i < p.Len(); i++ {
		prev, cur := p.Key(i-1), p.Key(i)
		if prev.Date.Equal(cur.Date) {
			assert.Less(t, prev.LocationID, cur.LocationID)
		} else {
			assert.True(t, prev.Date.Before(cur.Date))
		}
	}
}

func TestDayOfWeekDerivedWhenMissing(t *testing.T) {
	p := FromObservations([]contracts.Observation{
		{Date: date(2024, 6, 2), LocationID: "L1"}, // Sunday
		{Date: date(2024, 6, 3), LocationID: "L1", DayOfWeek: 1},
	})
	assert.Equal(t, []float64{7, 1}, column(t, p, ColDayOfWeek))
}

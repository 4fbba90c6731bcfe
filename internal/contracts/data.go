package contracts

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Observation is one (date, location) row of aggregated sales
// ⭐ SSOT: unique key is (Date, LocationID)
type Observation struct {
	Date         time.Time `json:"date"`
	LocationID   string    `json:"location_id"`
	LocationName string    `json:"location_name"`
	State        string    `json:"state"` // two-letter region code, may be empty at the source
	DayOfWeek    int       `json:"day_of_week"`

	// Money. Valid=false means the source value could not be parsed.
	TotalRevenue  decimal.NullDecimal `json:"total_revenue"`
	AvgOrderValue decimal.NullDecimal `json:"avg_order_value"`
	TotalDiscount decimal.NullDecimal `json:"total_discount"`

	OrderCount        int64 `json:"order_count"`
	DiscountOrders    int64 `json:"discount_orders"`
	UniqueCustomers   int64 `json:"unique_customers"`
	LoyaltyOrders     int64 `json:"loyalty_orders"`
	BogoOrders        int64 `json:"bogo_orders"`
	CategoryDiversity int64 `json:"category_diversity"`

	// Time-of-day buckets
	MorningOrders   int64 `json:"morning_orders"`
	LunchOrders     int64 `json:"lunch_orders"`
	AfternoonOrders int64 `json:"afternoon_orders"`
	EveningOrders   int64 `json:"evening_orders"`

	// Category order counts
	TeaDrinksOrders    int64 `json:"tea_drinks_orders"`
	CoffeeOrders       int64 `json:"coffee_orders"`
	FoodOrders         int64 `json:"food_orders"`
	CaffeineFreeOrders int64 `json:"caffeine_free_orders"`
	NewProductOrders   int64 `json:"new_product_orders"`
}

// Money converts a nullable decimal to float64, NaN when missing
func Money(d decimal.NullDecimal) float64 {
	if !d.Valid {
		return math.NaN()
	}
	f, _ := d.Decimal.Float64()
	return f
}

// WeatherRecord is one (date, state) row of daily weather.
// Fields not reported by the source are NaN.
type WeatherRecord struct {
	Date            time.Time `json:"date"`
	State           string    `json:"state"`
	TemperatureMax  float64   `json:"temperature_max"`
	TemperatureMin  float64   `json:"temperature_min"`
	TemperatureMean float64   `json:"temperature_mean"`
	Precipitation   float64   `json:"precipitation"`
	Rain            float64   `json:"rain"`
	Snow            float64   `json:"snow"`
	WindSpeed       float64   `json:"wind_speed"`
	SunshineHours   float64   `json:"sunshine_hours"`
}

// CustomerProfile is a snapshot of one customer's lifetime aggregates and
// RFM segment membership
type CustomerProfile struct {
	CustomerID    string  `json:"customer_id"`
	LocationID    string  `json:"location_id"`
	TotalOrders   int64   `json:"total_orders"`
	TotalSpent    float64 `json:"total_spent"`
	AvgOrderValue float64 `json:"avg_order_value"`

	HighValueCustomer     bool `json:"high_value_customer"`
	HighPotentialCustomer bool `json:"high_potential_customer"`
	Loyal                 bool `json:"loyal"`
	Regular               bool `json:"regular"`
	Dormant               bool `json:"dormant"`
	Churned               bool `json:"churned"`
	InactiveCustomer      bool `json:"inactive_customer"`
}

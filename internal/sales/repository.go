package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/umebot/insight/internal/contracts"
)

// Querier is the subset of pgxpool.Pool the repository needs
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository reads the sales warehouse
// ⭐ SSOT: warehouse SQL lives here only
type Repository struct {
	db Querier
}

// NewRepository creates a sales repository over a pgx pool
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

var _ contracts.SalesSource = (*Repository)(nil)

// observationsQuery aggregates completed order items into one row per
// (date, location). Money columns are returned as text and parsed by
// ParseAmount so that malformed values become missing instead of failing
// the scan. State is left empty and derived later by EnsureRegions.
const observationsQuery = `
	WITH daily_base AS (
		SELECT
			created_at_pt::date                          AS date,
			location_id,
			location_name,
			EXTRACT(ISODOW FROM created_at_pt)::int      AS day_of_week,
			order_id,
			item_total_amt,
			item_discount,
			customer_id,
			is_loyalty,
			campaign_names,
			category_name,
			EXTRACT(HOUR FROM created_at_pt)::int        AS hour_of_day
		FROM dw.fact_order_item_variations
		WHERE created_at_pt >= $1
		  AND created_at_pt <  $2
		  AND pay_status = 'COMPLETED'
	)
	SELECT
		date,
		location_id,
		min(location_name)                                         AS location_name,
		min(day_of_week)                                           AS day_of_week,
		count(DISTINCT order_id)                                   AS order_count,
		sum(item_total_amt)::text                                  AS total_revenue,
		avg(item_total_amt)::text                                  AS avg_order_value,
		sum(item_discount)::text                                   AS total_discount,
		count(*) FILTER (WHERE item_discount > 0)                  AS discount_orders,
		count(DISTINCT customer_id)                                AS unique_customers,
		count(*) FILTER (WHERE is_loyalty)                         AS loyalty_orders,
		count(*) FILTER (WHERE 'BOGO' = ANY(campaign_names))       AS bogo_orders,
		count(DISTINCT category_name)                              AS category_diversity,
		count(*) FILTER (WHERE hour_of_day BETWEEN 7 AND 10)       AS morning_orders,
		count(*) FILTER (WHERE hour_of_day BETWEEN 11 AND 14)      AS lunch_orders,
		count(*) FILTER (WHERE hour_of_day BETWEEN 15 AND 17)      AS afternoon_orders,
		count(*) FILTER (WHERE hour_of_day BETWEEN 18 AND 21)      AS evening_orders,
		count(*) FILTER (WHERE category_name IN ('Milk Tea', 'Fruit Tea', 'Slush', 'Seasonal Drinks')) AS tea_drinks_orders,
		count(*) FILTER (WHERE category_name = 'Coffee')           AS coffee_orders,
		count(*) FILTER (WHERE category_name IN ('Snacks', 'Toast', 'Mochi Donut')) AS food_orders,
		count(*) FILTER (WHERE category_name = 'Caffeine-Free Drinks') AS caffeine_free_orders,
		count(*) FILTER (WHERE category_name = 'Try Our New')      AS new_product_orders
	FROM daily_base
	GROUP BY date, location_id
	ORDER BY date, location_id`

// Observations returns the daily per-location panel for [start, end], both inclusive
func (r *Repository) Observations(ctx context.Context, start, end time.Time) ([]contracts.Observation, error) {
	rows, err := r.db.Query(ctx, observationsQuery, start, end.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	var result []contracts.Observation
	for rows.Next() {
		var (
			o                      contracts.Observation
			revenue, aov, discount *string
		)
		if err := rows.Scan(
			&o.Date, &o.LocationID, &o.LocationName, &o.DayOfWeek,
			&o.OrderCount, &revenue, &aov, &discount,
			&o.DiscountOrders, &o.UniqueCustomers, &o.LoyaltyOrders, &o.BogoOrders, &o.CategoryDiversity,
			&o.MorningOrders, &o.LunchOrders, &o.AfternoonOrders, &o.EveningOrders,
			&o.TeaDrinksOrders, &o.CoffeeOrders, &o.FoodOrders, &o.CaffeineFreeOrders, &o.NewProductOrders,
		); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		o.TotalRevenue = ParseAmountPtr(revenue)
		o.AvgOrderValue = ParseAmountPtr(aov)
		o.TotalDiscount = ParseAmountPtr(discount)
		result = append(result, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observations: %w", err)
	}

	return result, nil
}

const customerProfilesQuery = `
	SELECT
		customer_id,
		COALESCE(location_id, ''),
		COALESCE(order_final_total_cnt, 0),
		COALESCE(order_final_total_amt, 0)::float8,
		COALESCE(order_final_avg_amt, 0)::float8,
		COALESCE(high_value_customer, false),
		COALESCE(high_potential_customer, false),
		COALESCE(loyal, false),
		COALESCE(regular, false),
		COALESCE(dormant, false),
		COALESCE(churned, false),
		COALESCE(inactive_customer, false)
	FROM ads.customer_profile
	WHERE order_last_date >= $1
	   OR customer_created_date >= $1`

// CustomerProfiles returns customers active or created since start
func (r *Repository) CustomerProfiles(ctx context.Context, start, _ time.Time) ([]contracts.CustomerProfile, error) {
	rows, err := r.db.Query(ctx, customerProfilesQuery, start)
	if err != nil {
		return nil, fmt.Errorf("query customer profiles: %w", err)
	}
	defer rows.Close()

	var result []contracts.CustomerProfile
	for rows.Next() {
		var c contracts.CustomerProfile
		if err := rows.Scan(
			&c.CustomerID, &c.LocationID, &c.TotalOrders, &c.TotalSpent, &c.AvgOrderValue,
			&c.HighValueCustomer, &c.HighPotentialCustomer, &c.Loyal, &c.Regular,
			&c.Dormant, &c.Churned, &c.InactiveCustomer,
		); err != nil {
			return nil, fmt.Errorf("scan customer profile: %w", err)
		}
		result = append(result, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customer profiles: %w", err)
	}

	return result, nil
}

// PromotionSalesCount returns the number of promotion sales rows in [start, end]
func (r *Repository) PromotionSalesCount(ctx context.Context, start, end time.Time) (int, error) {
	query := `
		SELECT count(*)
		FROM ads.promotion_sales
		WHERE order_date >= $1 AND order_date <= $2`

	var n int
	if err := r.db.QueryRow(ctx, query, start, end).Scan(&n); err != nil {
		return 0, fmt.Errorf("count promotion sales: %w", err)
	}
	return n, nil
}

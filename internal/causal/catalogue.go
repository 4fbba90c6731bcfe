package causal

import "github.com/umebot/insight/internal/features"

// Factor is a binary treatment and the confounders adjusted for when
// estimating its effect on revenue
type Factor struct {
	Name        string
	DisplayName string
	Confounders []string
}

// DefaultFactors are analysed in this order. Factors whose column is absent
// from the panel are skipped.
var DefaultFactors = []Factor{
	{
		Name:        features.ColHasPromotion,
		DisplayName: "Promotion",
		Confounders: []string{features.ColIsWeekend, features.ColIsHoliday, features.ColDayOfWeek, features.ColUniqueCustomers, features.ColCategoryDiversity},
	},
	{
		Name:        features.ColIsWeekend,
		DisplayName: "Weekend",
		Confounders: []string{features.ColIsHoliday, features.ColUniqueCustomers, features.ColHasPromotion},
	},
	{
		Name:        features.ColIsHoliday,
		DisplayName: "Holiday",
		Confounders: []string{features.ColIsWeekend, features.ColDayOfWeek, features.ColUniqueCustomers},
	},
	{
		Name:        features.ColIsHot,
		DisplayName: "Hot weather",
		Confounders: []string{features.ColIsWeekend, features.ColIsHoliday, features.ColDayOfWeek, features.ColUniqueCustomers},
	},
	{
		Name:        features.ColIsRainy,
		DisplayName: "Rainy weather",
		Confounders: []string{features.ColIsWeekend, features.ColIsHoliday, features.ColDayOfWeek, features.ColTemperatureMean},
	},
}

// Pair is a factor pair analysed as a 2x2 design
type Pair struct {
	Factor1 string
	Factor2 string
	Name    string
}

// Key is "{factor1}_x_{factor2}"
func (p Pair) Key() string { return p.Factor1 + "_x_" + p.Factor2 }

// DefaultPairs are skipped when either column is absent
var DefaultPairs = []Pair{
	{Factor1: features.ColIsRainy, Factor2: features.ColHasPromotion, Name: "Rainy day promotion"},
	{Factor1: features.ColIsHot, Factor2: features.ColHasPromotion, Name: "Hot day promotion"},
	{Factor1: features.ColIsWeekend, Factor2: features.ColHasPromotion, Name: "Weekend promotion"},
	{Factor1: features.ColIsHoliday, Factor2: features.ColIsWeekend, Name: "Holiday weekend"},
}

// WeatherConditions are the weather flags promotion effects are sliced by
var WeatherConditions = []string{features.ColIsHot, features.ColIsRainy, features.ColIsMild}

// Category is a category order-count column and its report label
type Category struct {
	Column string
	Label  string
}

// Categories are the product groups promotion lift is reported for
var Categories = []Category{
	{Column: features.ColTeaDrinksOrders, Label: "Tea Drinks"},
	{Column: features.ColCoffeeOrders, Label: "Coffee"},
	{Column: features.ColFoodOrders, Label: "Food"},
	{Column: features.ColCaffeineFreeOrders, Label: "Caffeine-Free Drinks"},
	{Column: features.ColNewProductOrders, Label: "New Products"},
}

package features

// Engineered column names
const (
	// Promotion
	ColHasPromotion       = "has_promotion"
	ColPromotionIntensity = "promotion_intensity"
	ColHasBogo            = "has_bogo"
	ColLowPerformance     = "low_performance"

	// Calendar
	ColIsWeekend         = "is_weekend"
	ColIsMonday          = "is_monday"
	ColIsFriday          = "is_friday"
	ColIsMemberDay       = "is_member_day"
	ColIsHoliday         = "is_holiday"
	ColIsHolidayWeek     = "is_holiday_week"
	ColIsSummer          = "is_summer"
	ColIsWinter          = "is_winter"
	ColIsSpring          = "is_spring"
	ColIsFall            = "is_fall"
	ColIsValentine       = "is_valentine"
	ColIsChristmasSeason = "is_christmas_season"

	// Weather measurements
	ColTemperatureMax  = "temperature_max"
	ColTemperatureMin  = "temperature_min"
	ColTemperatureMean = "temperature_mean"
	ColPrecipitation   = "precipitation"
	ColRain            = "rain"
	ColSnow            = "snow"
	ColWindSpeed       = "wind_speed"
	ColSunshineHours   = "sunshine_hours"

	// Weather flags
	ColIsHot        = "is_hot"
	ColIsCold       = "is_cold"
	ColIsMild       = "is_mild"
	ColIsRainy      = "is_rainy"
	ColIsHeavyRain  = "is_heavy_rain"
	ColIsSnowy      = "is_snowy"
	ColIsSunny      = "is_sunny"
	ColIsWindy      = "is_windy"
	ColComfortIndex = "comfort_index"

	// Interactions
	ColWeekendPromotion = "weekend_promotion"
	ColHolidayPromotion = "holiday_promotion"
	ColRainyPromotion   = "rainy_promotion"
	ColHotPromotion     = "hot_promotion"

	// Customer aggregates by location
	ColHighValueCustomers    = "high_value_customers"
	ColLoyalCustomers        = "loyal_customers"
	ColChurnedCustomers      = "churned_customers"
	ColAvgCustomerSpent      = "avg_customer_spent"
	ColAvgCustomerOrderValue = "avg_customer_order_value"
)

// WeatherColumns are the measurements joined from weather records
var WeatherColumns = []string{
	ColTemperatureMax, ColTemperatureMin, ColTemperatureMean,
	ColPrecipitation, ColRain, ColSnow, ColWindSpeed, ColSunshineHours,
}

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

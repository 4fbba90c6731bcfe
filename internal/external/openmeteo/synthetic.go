package openmeteo

import (
	"math"
	"math/rand"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/umebot/insight/internal/contracts"
)

var baseTemperature = map[string]float64{
	"CA": 22,
	"IL": 15,
	"AZ": 30,
	"TX": 25,
}

var snowFree = map[string]bool{"CA": true, "AZ": true, "TX": true}

// Synthetic generates seasonal weather. The same (state, day-of-year) always
// yields the same record.
func Synthetic(start, end time.Time, states []string) []contracts.WeatherRecord {
	start = truncateDay(start)
	end = truncateDay(end)

	var records []contracts.WeatherRecord
	for _, state := range states {
		base, ok := baseTemperature[state]
		if !ok {
			base = 20
		}

		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			doy := day.YearDay()
			rng := rand.New(rand.NewSource(int64(xxhash.Sum64String(state + ":" + strconv.Itoa(doy)))))

			seasonal := math.Sin(2 * math.Pi * float64(doy) / 365.25)
			tMax := base + 8*seasonal + rng.NormFloat64()*3
			tMin := tMax - uniform(rng, 5, 15)

			snow := 0.0
			if !snowFree[state] {
				snow = math.Max(0, rng.ExpFloat64()*0.5-2)
			}

			records = append(records, contracts.WeatherRecord{
				Date:            day,
				State:           state,
				TemperatureMax:  tMax,
				TemperatureMin:  tMin,
				TemperatureMean: (tMax + tMin) / 2,
				Precipitation:   math.Max(0, rng.ExpFloat64()*2-1),
				Rain:            math.Max(0, rng.ExpFloat64()*1.5-0.5),
				Snow:            snow,
				WindSpeed:       uniform(rng, 5, 25),
				SunshineHours:   uniform(rng, 4, 12),
			})
		}
	}
	return records
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package features

import (
	"math"
	"time"

	"github.com/umebot/insight/internal/contracts"
)

type weatherKey struct {
	date  time.Time
	state string
}

// addWeatherFeatures left-joins weather on (date, state), fills gaps and
// derives the weather flags and comfort index
func (b *Builder) addWeatherFeatures(p *Panel, weather []contracts.WeatherRecord) error {
	byKey := make(map[weatherKey]contracts.WeatherRecord, len(weather))
	duplicates := 0
	for _, w := range weather {
		k := weatherKey{date: day(w.Date), state: w.State}
		if _, ok := byKey[k]; ok {
			duplicates++
			continue
		}
		byKey[k] = w
	}
	if duplicates > 0 {
		b.logger.WithField("duplicates", duplicates).Warn("Duplicate weather records ignored")
	}

	n := p.Len()
	joined := make(map[string][]float64, len(WeatherColumns))
	for _, name := range WeatherColumns {
		joined[name] = make([]float64, n)
	}

	matched := 0
	for i, k := range p.keys {
		w, ok := byKey[weatherKey{date: k.Date, state: k.State}]
		if !ok {
			for _, name := range WeatherColumns {
				joined[name][i] = math.NaN()
			}
			continue
		}
		matched++
		joined[ColTemperatureMax][i] = w.TemperatureMax
		joined[ColTemperatureMin][i] = w.TemperatureMin
		joined[ColTemperatureMean][i] = w.TemperatureMean
		joined[ColPrecipitation][i] = w.Precipitation
		joined[ColRain][i] = w.Rain
		joined[ColSnow][i] = w.Snow
		joined[ColWindSpeed][i] = w.WindSpeed
		joined[ColSunshineHours][i] = w.SunshineHours
	}

	for _, name := range WeatherColumns {
		fillGaps(joined[name])
		p.add(name, joined[name])
	}

	b.logger.WithFields(map[string]interface{}{
		"rows":    n,
		"matched": matched,
	}).Debug("Weather joined")

	tMax := p.col(ColTemperatureMax)
	tMean := p.col(ColTemperatureMean)
	precip := p.col(ColPrecipitation)
	snow := p.col(ColSnow)
	sun := p.col(ColSunshineHours)
	wind := p.col(ColWindSpeed)

	derive := func(name string, f func(i int) float64) {
		if p.Has(name) {
			return
		}
		v := make([]float64, n)
		for i := range v {
			v[i] = f(i)
		}
		p.add(name, v)
	}

	derive(ColIsHot, func(i int) float64 { return indicator(tMax[i] > 30) })
	derive(ColIsCold, func(i int) float64 { return indicator(tMax[i] < 10) })
	derive(ColIsMild, func(i int) float64 { return indicator(tMax[i] >= 15 && tMax[i] <= 25) })
	derive(ColIsRainy, func(i int) float64 { return indicator(precip[i] > 2) })
	derive(ColIsHeavyRain, func(i int) float64 { return indicator(precip[i] > 10) })
	derive(ColIsSnowy, func(i int) float64 { return indicator(snow[i] > 0) })
	derive(ColIsSunny, func(i int) float64 { return indicator(sun[i] > 8) })
	derive(ColIsWindy, func(i int) float64 { return indicator(wind[i] > 20) })
	derive(ColComfortIndex, func(i int) float64 {
		return -0.1*math.Abs(tMean[i]-20) + 0.1*sun[i] - 0.05*precip[i] - 0.02*wind[i]
	})

	return nil
}

// fillGaps forward-fills NaN, back-fills leading NaN, then zero-fills
func fillGaps(v []float64) {
	last := math.NaN()
	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = last
		} else {
			last = v[i]
		}
	}

	next := math.NaN()
	for i := len(v) - 1; i >= 0; i-- {
		if math.IsNaN(v[i]) {
			v[i] = next
		} else {
			next = v[i]
		}
	}

	for i := range v {
		if math.IsNaN(v[i]) {
			v[i] = 0
		}
	}
}

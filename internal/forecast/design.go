package forecast

import "time"

// numTerms is the intercept, three base terms and their six degree-2 products
const numTerms = 10

// design expands (days since origin, weekday with Monday=0, day of month)
// into an intercept plus every monomial of degree one and two
func design(origin, d time.Time) []float64 {
	base := [3]float64{
		d.Sub(origin).Hours() / 24,
		float64((int(d.Weekday()) + 6) % 7),
		float64(d.Day()),
	}

	row := make([]float64, 0, numTerms)
	row = append(row, 1, base[0], base[1], base[2])
	for i := 0; i < len(base); i++ {
		for j := i; j < len(base); j++ {
			row = append(row, base[i]*base[j])
		}
	}
	return row
}

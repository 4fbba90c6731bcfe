package sales

import (
	"regexp"

	"github.com/umebot/insight/internal/contracts"
)

// DefaultRegion is used when neither a state nor a parsable location name exists
const DefaultRegion = "CA"

var regionSuffix = regexp.MustCompile(`-([A-Z]{2})$`)

// RegionFromName extracts a trailing "-XX" region code from a location name
func RegionFromName(name string) (string, bool) {
	m := regionSuffix.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// EnsureRegions returns a copy of obs where every row has a State. Rows
// without one get the code parsed from LocationName, or fallback.
func EnsureRegions(obs []contracts.Observation, fallback string) []contracts.Observation {
	if fallback == "" {
		fallback = DefaultRegion
	}

	out := make([]contracts.Observation, len(obs))
	copy(out, obs)

	for i := range out {
		if out[i].State != "" {
			continue
		}
		if code, ok := RegionFromName(out[i].LocationName); ok {
			out[i].State = code
		} else {
			out[i].State = fallback
		}
	}
	return out
}

// Regions returns the distinct states in first-seen order
func Regions(obs []contracts.Observation) []string {
	seen := make(map[string]bool)
	var states []string
	for _, o := range obs {
		if o.State == "" || seen[o.State] {
			continue
		}
		seen[o.State] = true
		states = append(states, o.State)
	}
	return states
}

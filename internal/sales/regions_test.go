package sales

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umebot/insight/internal/contracts"
)

func TestEnsureRegions(t *testing.T) {
	obs := []contracts.Observation{
		{LocationID: "1", LocationName: "Irvine-CA"},
		{LocationID: "2", LocationName: "Houston-TX"},
		{LocationID: "3", LocationName: "Flagship Store"},
		{LocationID: "4", LocationName: "Chicago-IL", State: "IL"},
		{LocationID: "5", LocationName: "Phoenix-az"},
	}

	got := EnsureRegions(obs, "")
	require.Len(t, got, len(obs))

	assert.Equal(t, "CA", got[0].State)
	assert.Equal(t, "TX", got[1].State)
	assert.Equal(t, "CA", got[2].State, "no trailing code defaults to CA")
	assert.Equal(t, "IL", got[3].State, "existing state is kept")
	assert.Equal(t, "CA", got[4].State, "lowercase suffix is not a region code")

	assert.Empty(t, obs[0].State, "input must not be mutated")
}

func TestEnsureRegions_CustomFallback(t *testing.T) {
	got := EnsureRegions([]contracts.Observation{{LocationName: "Downtown"}}, "TX")
	assert.Equal(t, "TX", got[0].State)
}

func TestRegions(t *testing.T) {
	obs := []contracts.Observation{{State: "CA"}, {State: "TX"}, {State: "CA"}, {State: ""}}
	assert.Equal(t, []string{"CA", "TX"}, Regions(obs))
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		want  string
	}{
		{"123.45", true, "123.45"},
		{" $1,234.50 ", true, "1234.5"},
		{"0", true, "0"},
		{"", false, ""},
		{"n/a", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseAmount(tt.in)
			assert.Equal(t, tt.valid, got.Valid)
			if tt.valid {
				assert.Equal(t, tt.want, got.Decimal.String())
			}
		})
	}

	assert.False(t, ParseAmountPtr(nil).Valid)
}

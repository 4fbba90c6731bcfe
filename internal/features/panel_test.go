package features

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanel_SetAndColumnCopies(t *testing.T) {
	p := NewPanel([]Key{{LocationID: "A"}, {LocationID: "B"}})

	require.NoError(t, p.Set("x", []float64{1, 2}))
	assert.Error(t, p.Set("y", []float64{1}))

	col, ok := p.Column("x")
	require.True(t, ok)
	col[0] = 99

	again, _ := p.Column("x")
	assert.Equal(t, []float64{1, 2}, again, "Column must return a copy")
	assert.Equal(t, []string{"x"}, p.Columns())
	assert.Equal(t, 5, p.Width())
}

func TestPanel_AddKeepsExistingColumn(t *testing.T) {
	p := NewPanel([]Key{{LocationID: "A"}, {LocationID: "B"}})

	values := []float64{1, 2}
	p.add("x", values)
	values[0] = 99
	p.add("x", []float64{7, 7})

	col, _ := p.Column("x")
	assert.Equal(t, []float64{1, 2}, col)
	assert.Equal(t, []string{"x"}, p.Columns())

	assert.Panics(t, func() { p.add("y", []float64{1}) })
}

func TestPanel_Select(t *testing.T) {
	p := NewPanel([]Key{{LocationID: "A"}, {LocationID: "B"}, {LocationID: "C"}})
	require.NoError(t, p.Set("x", []float64{1, 2, 3}))

	s := p.Select([]int{2, 0})
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, "C", s.Key(0).LocationID)
	col, _ := s.Column("x")
	assert.Equal(t, []float64{3, 1}, col)
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"interpolated", []float64{10, 20, 30, 40}, 0.25, 17.5},
		{"exact rank", []float64{1, 2, 3, 4, 5}, 0.25, 2},
		{"single value", []float64{7}, 0.25, 7},
		{"skips NaN", []float64{math.NaN(), 10, 20, 30, 40}, 0.25, 17.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, quantile(tt.values, tt.q), 1e-12)
		})
	}

	assert.True(t, math.IsNaN(quantile([]float64{math.NaN()}, 0.25)))
}

func TestFillGaps(t *testing.T) {
	nan := math.NaN()
	v := []float64{nan, 1, nan, nan, 4, nan}
	fillGaps(v)
	assert.Equal(t, []float64{1, 1, 1, 1, 4, 4}, v)

	all := []float64{nan, nan}
	fillGaps(all)
	assert.Equal(t, []float64{0, 0}, all)
}

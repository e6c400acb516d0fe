package core

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

var nan = math.NaN()

func TestCalculateCorrelation(t *testing.T) {
	assert.InDelta(t, 1.0, CalculateCorrelation([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, -1.0, CalculateCorrelation([]float64{1, 2, 3}, []float64{3, 2, 1}), 1e-12)
	assert.Equal(t, 0.0, CalculateCorrelation([]float64{1, 1, 1}, []float64{1, 2, 3}))
	assert.Equal(t, 0.0, CalculateCorrelation([]float64{1}, []float64{1}))
	assert.Equal(t, 0.0, CalculateCorrelation([]float64{1, 2}, []float64{1}))
}

func TestPairwiseComplete(t *testing.T) {
	x, y := PairwiseComplete([]float64{1, nan, 3, 4}, []float64{5, 6, nan, 8})
	assert.Equal(t, []float64{1, 4}, x)
	assert.Equal(t, []float64{5, 8}, y)
}

func TestCorrelationMatrix(t *testing.T) {
	m := CorrelationMatrix([][]float64{
		{1, 2, 3, nan},
		{2, 4, 6, 100},
		{3, 2, 1, 0},
		{nan, nan, nan, nan},
	})

	assert.Equal(t, 1.0, m[0][0])
	assert.InDelta(t, 1.0, m[0][1], 1e-12)
	assert.InDelta(t, -1.0, m[0][2], 1e-12)
	assert.Equal(t, m[1][2], m[2][1])
	assert.Equal(t, 0.0, m[3][3])
	assert.Equal(t, 0.0, m[0][3])
	for _, row := range m {
		for _, v := range row {
			assert.False(t, math.IsNaN(v))
		}
	}
}

func TestRatio(t *testing.T) {
	out := Ratio([]float64{10, 20, 30, 40}, []float64{2, 0, nan, 4})
	assert.Equal(t, 5.0, out[0])
	assert.True(t, math.IsNaN(out[1]))
	assert.True(t, math.IsNaN(out[2]))
	assert.Equal(t, 10.0, out[3])
}

func TestNormalizeBackFillsBase(t *testing.T) {
	out := Normalize([]float64{nan, 4, 2, 8})
	assert.True(t, math.IsNaN(out[0]))
	assert.Equal(t, []float64{1, 0.5, 2}, out[1:])

	for _, v := range Normalize([]float64{nan, nan}) {
		assert.True(t, math.IsNaN(v))
	}
}

func TestTopN(t *testing.T) {
	items := []Ranked{{"A", 1}, {"B", 3}, {"C", nan}, {"D", 2}, {"E", 3}}
	assert.Equal(t, []Ranked{{"B", 3}, {"E", 3}}, TopN(items, 2))
	assert.Len(t, TopN(items, 10), 4)
	assert.Empty(t, TopN(items, 0))
}

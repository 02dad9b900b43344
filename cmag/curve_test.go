package cmag_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnlab/cmagfit/cmag"
)

func TestBuildCumCurveSortsAndSums(t *testing.T) {
	// Deliberately unsorted input.
	x := []float64{3, 1, 2, 0}
	y := []float64{0, 0, 0, 1}
	area := []float64{30, 10, 20, 5}

	c, err := cmag.BuildCumCurve(x, y, area, nil)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 1, 2, 3}, c.Eccen)
	assert.Equal(t, []float64{10, 15, 35, 65}, c.CumArea)
	assert.InDelta(t, 65, c.Total(), 1e-12)
}

func TestBuildCumCurveNonDecreasing(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 500
	x := make([]float64, n)
	y := make([]float64, n)
	area := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64() * 3
		y[i] = rng.NormFloat64() * 3
		area[i] = rng.Float64() + 0.01
	}
	c, err := cmag.BuildCumCurve(x, y, area, nil)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		assert.GreaterOrEqual(t, c.Eccen[i], c.Eccen[i-1])
		assert.GreaterOrEqual(t, c.CumArea[i], c.CumArea[i-1])
	}
}

func TestBuildCumCurvePermutationInvariant(t *testing.T) {
	x := []float64{0.5, 2.5, 1.0, 4.0, 3.0}
	y := []float64{0.1, -1.0, 2.0, 0.0, 1.5}
	area := []float64{1, 2, 3, 4, 5}
	w := []float64{0.9, 0.8, 0.7, 0.6, 0.5}

	orig, err := cmag.BuildCumCurve(x, y, area, w)
	require.NoError(t, err)

	perm := []int{3, 0, 4, 1, 2}
	px := make([]float64, len(x))
	py := make([]float64, len(x))
	pa := make([]float64, len(x))
	pw := make([]float64, len(x))
	for i, j := range perm {
		px[i], py[i], pa[i], pw[i] = x[j], y[j], area[j], w[j]
	}
	shuffled, err := cmag.BuildCumCurve(px, py, pa, pw)
	require.NoError(t, err)

	assert.Equal(t, orig.Eccen, shuffled.Eccen)
	assert.Equal(t, orig.CumArea, shuffled.CumArea)
	assert.Equal(t, orig.Weights, shuffled.Weights)
}

func TestBuildCumCurveWeightsFollowSort(t *testing.T) {
	x := []float64{2, 1}
	y := []float64{0, 0}
	area := []float64{20, 10}
	w := []float64{0.2, 0.1}

	c, err := cmag.BuildCumCurve(x, y, area, w)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, c.Weights)
}

func TestBuildCumCurveBadInput(t *testing.T) {
	cases := []struct {
		name          string
		x, y, area, w []float64
	}{
		{"empty", nil, nil, nil, nil},
		{"short y", []float64{1, 2}, []float64{1}, []float64{1, 2}, nil},
		{"short area", []float64{1, 2}, []float64{1, 2}, []float64{1}, nil},
		{"bad weights", []float64{1, 2}, []float64{1, 2}, []float64{1, 2}, []float64{1}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := cmag.BuildCumCurve(c.x, c.y, c.area, c.w)
			require.Error(t, err)
			assert.True(t, errors.Is(err, cmag.ErrBadInput))
		})
	}
}

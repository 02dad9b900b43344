package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnlab/cmagfit/dataset"
)

func TestBuildFormAnchorsAtHalfFOV(t *testing.T) {
	cfg := &dataset.Config{FOV: 200, MaxEccen: 7}

	ap := &AnalysisParams{Model: "hh91"}
	form, params0, err := buildForm(ap, cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75}, params0)

	// The cumulative curve reproduces the total area at fov/2, not at the
	// measured eccentricity limit.
	out := form.Cum([]float64{100}, 1500, []float64{0.75})
	assert.InEpsilon(t, 1500, out[0], 1e-9)
	out = form.Cum([]float64{7}, 1500, []float64{0.75})
	assert.Less(t, out[0], 1500.0)

	ap = &AnalysisParams{Model: "beta"}
	form, params0, err = buildForm(ap, cfg)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, params0)
	out = form.Cum([]float64{100}, 1000, []float64{2, 3})
	assert.InEpsilon(t, 1000, out[0], 1e-9)
	out = form.Cum([]float64{7}, 1000, []float64{2, 3})
	assert.Less(t, out[0], 1000.0)

	ap = &AnalysisParams{Model: "fourier"}
	_, _, err = buildForm(ap, cfg)
	assert.Error(t, err)
}

func TestBuildFilterUsesMeasuredEccen(t *testing.T) {
	cfg := &dataset.Config{FOV: 200, MaxEccen: 7}
	ap := &AnalysisParams{}

	d := &dataset.HemiData{
		Label: []int{1, 1},
		Eccen: []float64{5, 8}, // 8 is inside fov/2 but beyond the measurements
	}
	mask := buildFilter(ap, cfg)(d)
	assert.Equal(t, []bool{true, false}, mask)
}

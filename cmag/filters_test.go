package cmag_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vcnlab/cmagfit/cmag"
	"github.com/vcnlab/cmagfit/dataset"
)

// testHemi builds hemisphere data from parallel per-vertex arrays, deriving
// eccentricity and polar angle from the pRF centers.
func testHemi(label []int, x, y, area []float64) *dataset.HemiData {
	n := len(label)
	d := &dataset.HemiData{
		Subject:     "999999",
		Hemi:        "lh",
		Label:       label,
		X:           x,
		Y:           y,
		Sigma:       make([]float64, n),
		PolarAngle:  make([]float64, n),
		Eccen:       make([]float64, n),
		Cod:         make([]float64, n),
		SurfaceArea: area,
	}
	for i := range x {
		d.Eccen[i] = math.Hypot(x[i], y[i])
		d.PolarAngle[i] = math.Atan2(y[i], x[i]) * 180 / math.Pi
		d.Cod[i] = 1
		d.Sigma[i] = 0.5
	}
	return d
}

func TestBaseFilter(t *testing.T) {
	d := testHemi([]int{1, 1, 1}, []float64{1, 5, 9}, []float64{0, 0, 0}, []float64{1, 1, 1})
	mask := cmag.Base(7)(d)
	assert.Equal(t, []bool{true, true, false}, mask)
}

func TestWedgeAndRingFilters(t *testing.T) {
	// Vertices at polar angles 0, 45, 90 degrees and eccentricities 2, ~2.83, 4.
	d := testHemi([]int{1, 1, 1},
		[]float64{2, 2, 0},
		[]float64{0, 2, 4},
		[]float64{1, 1, 1})

	assert.Equal(t, []bool{false, true, true}, cmag.Wedge(30, 90)(d))
	assert.Equal(t, []bool{true, true, false}, cmag.Ring(1, 3)(d))
}

func TestSectEqualsAndOfParts(t *testing.T) {
	d := testHemi([]int{1, 1, 1, 1},
		[]float64{2, 2, 0, 6},
		[]float64{0, 2, 4, 6},
		[]float64{1, 1, 1, 1})

	sect := cmag.Sect(30, 90, 1, 5, 7)(d)
	composed := cmag.And(cmag.Base(7), cmag.Wedge(30, 90), cmag.Ring(1, 5))(d)
	assert.Equal(t, composed, sect)
}

func TestOrFilter(t *testing.T) {
	d := testHemi([]int{1, 1, 1},
		[]float64{1, 3, 6},
		[]float64{0, 0, 0},
		[]float64{1, 1, 1})

	mask := cmag.Or(cmag.Ring(0, 2), cmag.Ring(5, 7))(d)
	assert.Equal(t, []bool{true, false, true}, mask)
}

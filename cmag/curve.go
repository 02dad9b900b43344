package cmag

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrBadInput reports a precondition violation on fit inputs (empty or
// length-mismatched arrays).
var ErrBadInput = errors.New("bad input arrays")

// A CumCurve is the empirical cumulative-surface-area curve of a vertex
// set: surface areas summed in order of ascending pRF eccentricity. Both
// Eccen and CumArea are non-decreasing, and the final CumArea entry equals
// the total surface area of the set.
type CumCurve struct {
	Eccen   []float64 // pRF eccentricity, ascending
	CumArea []float64 // running sum of surface area
	Weights []float64 // optional per-vertex weights, permuted with the sort
}

// BuildCumCurve constructs the empirical curve from per-vertex pRF centers
// (x, y) and surface areas. Eccentricity is hypot(x, y); all arrays are
// sorted jointly by ascending eccentricity before the running sum is taken,
// so the input ordering never matters. weights may be nil.
func BuildCumCurve(x, y, area, weights []float64) (*CumCurve, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty vertex set", ErrBadInput)
	}
	if len(y) != n || len(area) != n {
		return nil, fmt.Errorf("%w: x/y/area lengths %d/%d/%d", ErrBadInput, n, len(y), len(area))
	}
	if weights != nil && len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d vertices", ErrBadInput, len(weights), n)
	}

	ecc := make([]float64, n)
	for i := range x {
		ecc[i] = math.Hypot(x[i], y[i])
	}
	inds := make([]int, n)
	floats.Argsort(ecc, inds)

	cum := make([]float64, n)
	var sum float64
	for i, j := range inds {
		sum += area[j]
		cum[i] = sum
	}
	var w []float64
	if weights != nil {
		w = make([]float64, n)
		for i, j := range inds {
			w[i] = weights[j]
		}
	}
	return &CumCurve{Eccen: ecc, CumArea: cum, Weights: w}, nil
}

// Total returns the summed surface area of the curve's vertex set.
func (c *CumCurve) Total() float64 {
	if len(c.CumArea) == 0 {
		return 0
	}
	return c.CumArea[len(c.CumArea)-1]
}

package cmag

import "github.com/vcnlab/cmagfit/dataset"

// A Filter produces a per-vertex inclusion mask over hemisphere data.
// Filters are pure and stateless; they compose with And and Or.
type Filter func(d *dataset.HemiData) []bool

// And returns the conjunction of the given filters.
func And(filts ...Filter) Filter {
	return func(d *dataset.HemiData) []bool {
		mask := make([]bool, d.Len())
		for i := range mask {
			mask[i] = true
		}
		for _, f := range filts {
			fm := f(d)
			for i := range mask {
				mask[i] = mask[i] && fm[i]
			}
		}
		return mask
	}
}

// Or returns the disjunction of the given filters.
func Or(filts ...Filter) Filter {
	return func(d *dataset.HemiData) []bool {
		mask := make([]bool, d.Len())
		for _, f := range filts {
			fm := f(d)
			for i := range mask {
				mask[i] = mask[i] || fm[i]
			}
		}
		return mask
	}
}

// Base keeps vertices whose measured pRF eccentricity is below maxEcc,
// the reliable range of the retinotopy measurements.
func Base(maxEcc float64) Filter {
	return func(d *dataset.HemiData) []bool {
		mask := make([]bool, d.Len())
		for i, e := range d.Eccen {
			mask[i] = e < maxEcc
		}
		return mask
	}
}

// Wedge keeps vertices whose pRF polar angle lies in [a0, a1] degrees.
func Wedge(a0, a1 float64) Filter {
	return func(d *dataset.HemiData) []bool {
		mask := make([]bool, d.Len())
		for i, ang := range d.PolarAngle {
			mask[i] = ang >= a0 && ang <= a1
		}
		return mask
	}
}

// Ring keeps vertices whose pRF eccentricity lies in [e0, e1] degrees.
func Ring(e0, e1 float64) Filter {
	return func(d *dataset.HemiData) []bool {
		mask := make([]bool, d.Len())
		for i, e := range d.Eccen {
			mask[i] = e >= e0 && e <= e1
		}
		return mask
	}
}

// Sect keeps vertices in the visual-field sector where Base, Wedge and
// Ring all hold.
func Sect(a0, a1, e0, e1, maxEcc float64) Filter {
	return And(Base(maxEcc), Wedge(a0, a1), Ring(e0, e1))
}

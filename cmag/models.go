package cmag

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// A ParamTx is a forward/inverse pair of parameter transforms. In maps model
// parameters into the unconstrained space searched by the optimizer; Ex maps
// a search-space vector back into model space. Searching in a transformed
// space keeps physically meaningless values (a negative Horton & Hoyt b, a
// non-positive Beta shape) out of reach of the optimizer.
type ParamTx struct {
	In func(params []float64) []float64
	Ex func(params []float64) []float64
}

// SqrtTx searches in square-root space: parameters are square-rooted going
// in and squared coming out, so every value the optimizer can reach maps to
// a non-negative model parameter.
var SqrtTx = ParamTx{
	In: func(params []float64) []float64 {
		out := make([]float64, len(params))
		for i, p := range params {
			out[i] = math.Sqrt(p)
		}
		return out
	},
	Ex: func(params []float64) []float64 {
		out := make([]float64, len(params))
		for i, p := range params {
			out[i] = p * p
		}
		return out
	},
}

// IdentityTx performs no reparameterization.
var IdentityTx = ParamTx{
	In: func(params []float64) []float64 {
		out := make([]float64, len(params))
		copy(out, params)
		return out
	},
	Ex: func(params []float64) []float64 {
		out := make([]float64, len(params))
		copy(out, params)
		return out
	},
}

// A FormFunc evaluates a model's predicted cumulative surface area at each
// eccentricity in ecc, given the model's total surface area and its shape
// parameters. Implementations must be pure and must return non-negative
// values for any r >= 0 and any parameters reachable through the form's
// transform.
type FormFunc func(ecc []float64, totalArea float64, params []float64) []float64

// A Form is a named cumulative-area model together with its default
// parameter transform.
type Form struct {
	Name string
	Cum  FormFunc
	Tx   ParamTx
}

// HH91Form returns the Horton & Hoyt cumulative-area model anchored to a
// maximum eccentricity. Its single shape parameter is b; the scale a is
// derived from the total area by solving HH91Integral(0, maxEcc) == A for
// a, so the form always reproduces the total area at maxEcc.
func HH91Form(maxEcc, hemifields float64) Form {
	return Form{
		Name: "hh91",
		Tx:   SqrtTx,
		Cum: func(ecc []float64, totalArea float64, params []float64) []float64 {
			b := params[0]
			a := HH91FindA(totalArea, 0, maxEcc, b, hemifields)
			out := make([]float64, len(ecc))
			for i, r := range ecc {
				out[i] = HH91Integral(0, r, a, b, hemifields)
			}
			return out
		},
	}
}

// BetaForm returns a cumulative-area model based on the Beta distribution:
// the predicted cumulative fraction at eccentricity r is the CDF of a
// Beta(alpha, beta) distribution evaluated at r/maxEcc, scaled by the total
// area. Parameters are [alpha, beta].
func BetaForm(maxEcc float64) Form {
	return Form{
		Name: "beta",
		Tx:   SqrtTx,
		Cum: func(ecc []float64, totalArea float64, params []float64) []float64 {
			dist := distuv.Beta{Alpha: params[0], Beta: params[1]}
			out := make([]float64, len(ecc))
			for i, r := range ecc {
				x := r / maxEcc
				if x > 1 {
					x = 1
				}
				out[i] = totalArea * dist.CDF(x)
			}
			return out
		},
	}
}

// FormByName returns the model form for a name used in analysis parameter
// files: "hh91" or "beta".
func FormByName(name string, maxEcc, hemifields float64) (Form, bool) {
	switch name {
	case "hh91":
		return HH91Form(maxEcc, hemifields), true
	case "beta":
		return BetaForm(maxEcc), true
	}
	return Form{}, false
}

// DefaultParams0 returns the conventional starting parameters for a model
// form: b = 0.75 for hh91, (alpha, beta) = (2, 3) for beta.
func DefaultParams0(name string) []float64 {
	switch name {
	case "hh91":
		return []float64{0.75}
	case "beta":
		return []float64{2, 3}
	}
	return nil
}

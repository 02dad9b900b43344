// Package cmag fits parametric models of cortical magnification to
// population receptive field (pRF) measurements on cortical surfaces.
//
// The central quantity is the cumulative surface area M(r): the cortical
// surface area of a visual area that is mapped to visual eccentricities
// below r. Per-vertex (pRF position, surface area) measurements are turned
// into an empirical cumulative curve by sorting on eccentricity and taking
// a running sum; closed-form model curves are then fit to it by nonlinear
// least squares.
package cmag

import "math"

// HH91 computes the Horton & Hoyt (1991) areal cortical magnification at
// eccentricity r, in square mm of cortex per square degree of visual field.
// The model is (a / (b + r))^2 with a in mm and b in degrees; the published
// V1 measurements are a = 17.3 and b = 0.75.
//
// Horton JC, Hoyt WF (1991) The representation of the visual field in human
// striate cortex. Arch Ophthalmol. 109(6):816-24.
func HH91(r, a, b float64) float64 {
	lin := a / (b + r)
	return lin * lin
}

// HH91Linear computes the linear form of the model, a / (b + r), in mm of
// cortex per degree of visual field.
func HH91Linear(r, a, b float64) float64 {
	return a / (b + r)
}

// HH91Integral computes the cortical surface area, in square mm, that the
// Horton & Hoyt model assigns to the visual-field ring between
// eccentricities r0 and r1. hemifields sets how much of the field is
// covered: 2 for the full field, 1 for a single hemifield, 0.5 for a
// quadrant.
//
// The integral of r * HH91(r, a, b) over theta in [-pi, pi] and r in
// [r0, r1] reduces to
//
//	2*pi * a^2 * (b*(1/(b+r1) - 1/(b+r0)) + log((b+r1)/(b+r0)))
//
// and for r0 == 0 this simplifies to
//
//	2*pi * a^2 * (log((b+r1)/b) - r1/(b+r1))
//
// The hemifields argument replaces the leading factor of 2.
func HH91Integral(r0, r1, a, b, hemifields float64) float64 {
	if r0 == 0 {
		br1 := b + r1
		return hemifields * math.Pi * a * a * (math.Log(br1/b) - r1/br1)
	}
	br0 := b + r0
	br1 := b + r1
	return hemifields * math.Pi * a * a * (b/br1 - b/br0 + math.Log(br1/br0))
}

// HH91FindA solves HH91Integral(r0, r1, a, b, hemifields) == surfArea for
// the scale parameter a. Solving the area formula above for a gives
//
//	a = sqrt(A / (h*pi * (b*(1/(b+r1) - 1/(b+r0)) + log((b+r1)/(b+r0)))))
//
// which is how a model with a known total surface area is anchored to a
// maximum eccentricity.
func HH91FindA(surfArea, r0, r1, b, hemifields float64) float64 {
	br0 := b + r0
	br1 := b + r1
	denom := hemifields * math.Pi * (b*(1/br1-1/br0) + math.Log(br1/br0))
	return math.Sqrt(surfArea / denom)
}

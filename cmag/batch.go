package cmag

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/vcnlab/cmagfit/dataset"
)

// MinVertices is the smallest selected-vertex count for which a fit is
// attempted. Cells below this are recorded as nil rather than fit, since
// the optimization is ill-posed on so few points.
const MinVertices = 5

// BatchOptions control a batch fit across subjects, hemispheres and
// visual-area labels.
type BatchOptions struct {
	Fit FitOptions
	// Labels selects the visual-area labels to fit; nil means all named
	// areas.
	Labels []int
	// WeightProp names a vertex property ("cod" for variance explained) to
	// use as per-vertex loss weights. Empty means unweighted.
	WeightProp string
}

// HemiResults maps visual-area label to its fit; a nil entry means the cell
// had fewer than MinVertices selected vertices and was skipped.
type HemiResults map[int]*FitResult

// SubjectResults maps hemisphere to its per-label results.
type SubjectResults map[string]HemiResults

// BatchResults maps subject to its per-hemisphere results.
type BatchResults map[string]SubjectResults

// cellIndices returns the indices of the vertices of one visual-area label
// that also pass the mask (nil mask selects all). Every per-cell property
// (coordinates, areas, weights) is gathered through this one index list so
// the arrays stay aligned.
func cellIndices(d *dataset.HemiData, label int, mask []bool) []int {
	var idx []int
	for i, l := range d.Label {
		if l != label {
			continue
		}
		if mask != nil && !mask[i] {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// SelectCell returns the x/y/area arrays of the vertices of one visual-area
// label that also pass the mask (nil mask selects all).
func SelectCell(d *dataset.HemiData, label int, mask []bool) (x, y, area []float64) {
	for _, i := range cellIndices(d, label, mask) {
		x = append(x, d.X[i])
		y = append(y, d.Y[i])
		area = append(area, d.SurfaceArea[i])
	}
	return x, y, area
}

// FitHemi fits every requested label within one hemisphere's data and
// returns the per-label results. The per-cell total-area estimate is the
// summed surface area of the selected vertices, fitted as a free scale
// unless the options pin it.
func FitHemi(d *dataset.HemiData, form Form, params0 []float64, filt Filter, opts *BatchOptions) (HemiResults, error) {
	if opts == nil {
		opts = &BatchOptions{}
	}
	labels := opts.Labels
	if labels == nil {
		labels = dataset.AllLabels()
	}
	var mask []bool
	if filt != nil {
		mask = filt(d)
	}
	var weightProp []float64
	if opts.WeightProp != "" {
		var err error
		weightProp, err = d.Prop(opts.WeightProp)
		if err != nil {
			return nil, err
		}
	}

	out := make(HemiResults, len(labels))
	for _, lbl := range labels {
		idx := cellIndices(d, lbl, mask)
		if len(idx) < MinVertices {
			out[lbl] = nil
			continue
		}
		x := make([]float64, len(idx))
		y := make([]float64, len(idx))
		area := make([]float64, len(idx))
		for j, i := range idx {
			x[j], y[j], area[j] = d.X[i], d.Y[i], d.SurfaceArea[i]
		}
		cellOpts := opts.Fit
		if weightProp != nil {
			w := make([]float64, len(idx))
			for j, i := range idx {
				w[j] = weightProp[i]
			}
			cellOpts.Weights = w
		}
		if cellOpts.TotalArea == 0 {
			cellOpts.TotalArea = floats.Sum(area)
			cellOpts.FitTotalArea = true
		}
		r, err := FitCumEcc(x, y, area, form, params0, &cellOpts)
		if err != nil {
			return nil, fmt.Errorf("label %d: %w", lbl, err)
		}
		out[lbl] = r
	}
	return out, nil
}

// FitAll applies FitHemi across every subject and hemisphere in data.
func FitAll(data map[string]map[string]*dataset.HemiData, form Form, params0 []float64, filt Filter, opts *BatchOptions) (BatchResults, error) {
	res := make(BatchResults, len(data))
	for sid, hemis := range data {
		sres := make(SubjectResults, len(hemis))
		for h, d := range hemis {
			hres, err := FitHemi(d, form, params0, filt, opts)
			if err != nil {
				return nil, fmt.Errorf("subject %s/%s: %w", sid, h, err)
			}
			sres[h] = hres
		}
		res[sid] = sres
	}
	return res, nil
}

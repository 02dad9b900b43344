package main

import (
	"fmt"
	"os"

	json "github.com/KevinWang15/go-json5"
)

// AnalysisParams mirrors the JSON5 analysis parameter file that drives a
// batch run: which subjects and hemispheres to fit, which model, how to
// restrict the vertex set, and what to emit.
type AnalysisParams struct {
	Subjects    []string
	Hemispheres []string // "lh" and/or "rh"
	JoinHemis   bool
	Model       string // "hh91" or "beta"
	Method      string // optimizer method name; empty means Nelder-Mead
	Loss        string // "mse" or "rss"; empty means "mse"
	Params0     []float64
	Labels      []string // visual-area names; empty means all
	WeightProp  string   // vertex property used as loss weights

	HasRing          bool
	RingMin, RingMax float64

	HasWedge           bool
	WedgeMin, WedgeMax float64

	MakePlots bool
}

func loadAnalysisParams(path string) (*AnalysisParams, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	var jsonTable map[string]interface{}
	if err := json.Unmarshal(data, &jsonTable); err != nil {
		return nil, fmt.Errorf("failed to parse parameter file %s: %w", path, err)
	}
	params := &AnalysisParams{}
	msg, ok := validateJsonTableAndFillParams(jsonTable, params)
	if !ok {
		return nil, fmt.Errorf("%s: %s", path, msg)
	}
	return params, nil
}

func getLeafValue(jsonTable map[string]interface{}, path ...string) (interface{}, bool) {
	var cur interface{} = jsonTable
	for _, p := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[p]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func asStringSlice(v interface{}) ([]string, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

func asFloatSlice(v interface{}) ([]float64, bool) {
	items, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func validateJsonTableAndFillParams(jsonTable map[string]interface{}, params *AnalysisParams) (string, bool) {
	msg := "No problem found in parameter file" // Initialize msg to presumed success.

	subjects, ok := getLeafValue(jsonTable, "subjects")
	if !ok {
		msg = "subjects: not found"
		return msg, false
	}
	params.Subjects, ok = asStringSlice(subjects)
	if !ok || len(params.Subjects) == 0 {
		msg = "subjects: is not a non-empty array of strings"
		return msg, false
	}

	hemis, ok := getLeafValue(jsonTable, "hemispheres")
	if !ok {
		params.Hemispheres = []string{"lh", "rh"} // default to both hemispheres
	} else {
		params.Hemispheres, ok = asStringSlice(hemis)
		if !ok {
			msg = "hemispheres: is not an array of strings"
			return msg, false
		}
		for _, h := range params.Hemispheres {
			if h != "lh" && h != "rh" {
				msg = fmt.Sprintf("hemispheres: %q is not 'lh' or 'rh'", h)
				return msg, false
			}
		}
	}

	joinFlag, ok := getLeafValue(jsonTable, "join_hemispheres_bool")
	if ok {
		params.JoinHemis, ok = joinFlag.(bool)
		if !ok {
			msg = "join_hemispheres_bool: is not a bool"
			return msg, false
		}
	}

	model, ok := getLeafValue(jsonTable, "model")
	if !ok {
		msg = "model: not found"
		return msg, false
	}
	params.Model, ok = model.(string)
	if !ok {
		msg = "model: is not a string"
		return msg, false
	}

	method, ok := getLeafValue(jsonTable, "optimizer_method")
	if ok {
		params.Method, ok = method.(string)
		if !ok {
			msg = "optimizer_method: is not a string"
			return msg, false
		}
	}

	loss, ok := getLeafValue(jsonTable, "loss")
	if ok {
		params.Loss, ok = loss.(string)
		if !ok {
			msg = "loss: is not a string"
			return msg, false
		}
	}

	p0, ok := getLeafValue(jsonTable, "initial_params")
	if ok { // If missing, the model's conventional starting point is used
		params.Params0, ok = asFloatSlice(p0)
		if !ok {
			msg = "initial_params: is not an array of numbers"
			return msg, false
		}
	}

	labels, ok := getLeafValue(jsonTable, "labels")
	if ok {
		params.Labels, ok = asStringSlice(labels)
		if !ok {
			msg = "labels: is not an array of strings"
			return msg, false
		}
	}

	weightProp, ok := getLeafValue(jsonTable, "weight_property")
	if ok {
		params.WeightProp, ok = weightProp.(string)
		if !ok {
			msg = "weight_property: is not a string"
			return msg, false
		}
	}

	ring, ok := getLeafValue(jsonTable, "eccentricity_ring")
	if ok {
		bounds, ok := asFloatSlice(ring)
		if !ok || len(bounds) != 2 {
			msg = "eccentricity_ring: is not a [min, max] pair of numbers"
			return msg, false
		}
		params.HasRing = true
		params.RingMin = bounds[0]
		params.RingMax = bounds[1]
	}

	wedge, ok := getLeafValue(jsonTable, "polar_angle_wedge")
	if ok {
		bounds, ok := asFloatSlice(wedge)
		if !ok || len(bounds) != 2 {
			msg = "polar_angle_wedge: is not a [min, max] pair of numbers"
			return msg, false
		}
		params.HasWedge = true
		params.WedgeMin = bounds[0]
		params.WedgeMax = bounds[1]
	}

	plots, ok := getLeafValue(jsonTable, "make_plots_bool")
	if !ok {
		params.MakePlots = true // default to emitting plots
	} else {
		params.MakePlots, ok = plots.(bool)
		if !ok {
			msg = "make_plots_bool: is not a bool"
			return msg, false
		}
	}

	return msg, true
}

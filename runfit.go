package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/vcnlab/cmagfit/cmag"
	"github.com/vcnlab/cmagfit/dataset"
)

func buildForm(ap *AnalysisParams, cfg *dataset.Config) (cmag.Form, []float64, error) {
	hemifields := 1.0
	if ap.JoinHemis {
		hemifields = 2.0
	}
	// Forms are anchored at half the modeled field of view; the measured
	// eccentricity limit only bounds the vertex selection (see buildFilter).
	form, ok := cmag.FormByName(ap.Model, cfg.FOV/2, hemifields)
	if !ok {
		return cmag.Form{}, nil, fmt.Errorf("unknown model %q (valid: hh91, beta)", ap.Model)
	}
	params0 := ap.Params0
	if len(params0) == 0 {
		params0 = cmag.DefaultParams0(ap.Model)
	}
	return form, params0, nil
}

func buildFilter(ap *AnalysisParams, cfg *dataset.Config) cmag.Filter {
	filts := []cmag.Filter{cmag.Base(cfg.MaxEccen)}
	if ap.HasWedge {
		filts = append(filts, cmag.Wedge(ap.WedgeMin, ap.WedgeMax))
	}
	if ap.HasRing {
		filts = append(filts, cmag.Ring(ap.RingMin, ap.RingMax))
	}
	return cmag.And(filts...)
}

func resolveLabels(names []string) ([]int, error) {
	if len(names) == 0 {
		return nil, nil // nil selects all named areas
	}
	labels := make([]int, len(names))
	for i, nm := range names {
		lbl, err := dataset.LabelLookup(nm)
		if err != nil {
			return nil, err
		}
		labels[i] = lbl
	}
	return labels, nil
}

func loadSubjects(ap *AnalysisParams, cfg *dataset.Config) (map[string]map[string]*dataset.HemiData, error) {
	data := make(map[string]map[string]*dataset.HemiData, len(ap.Subjects))
	for _, sid := range ap.Subjects {
		hemis := make(map[string]*dataset.HemiData, len(ap.Hemispheres))
		for _, h := range ap.Hemispheres {
			d, err := dataset.Load(cfg, sid, h, false)
			if err != nil {
				return nil, err
			}
			logrus.WithFields(logrus.Fields{
				"subject": sid, "hemi": h, "vertices": d.Len(),
			}).Info("loaded hemisphere data")
			hemis[h] = d
		}
		if ap.JoinHemis {
			lh, rh := hemis["lh"], hemis["rh"]
			if lh == nil || rh == nil {
				return nil, fmt.Errorf("subject %s: join_hemispheres_bool requires both lh and rh", sid)
			}
			hemis = map[string]*dataset.HemiData{"lh+rh": dataset.JoinHemis(lh, rh)}
		}
		data[sid] = hemis
	}
	return data, nil
}

func runFit() error {
	ap, err := loadAnalysisParams(paramsPath)
	if err != nil {
		return err
	}
	cfg := dataset.LoadConfig()

	form, params0, err := buildForm(ap, cfg)
	if err != nil {
		return err
	}
	labels, err := resolveLabels(ap.Labels)
	if err != nil {
		return err
	}
	filter := buildFilter(ap, cfg)

	data, err := loadSubjects(ap, cfg)
	if err != nil {
		return err
	}

	opts := &cmag.BatchOptions{
		Fit: cmag.FitOptions{
			Method: ap.Method,
			Loss:   ap.Loss,
		},
		Labels:     labels,
		WeightProp: ap.WeightProp,
	}
	results, err := cmag.FitAll(data, form, params0, filter, opts)
	if err != nil {
		return err
	}
	logFitSummary(results)

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	resultFile := filepath.Join(outDir, "fits.json")
	if err := writeResults(resultFile, results); err != nil {
		return err
	}
	logrus.WithField("file", resultFile).Info("wrote fit results")

	if ap.MakePlots {
		if err := writePlots(data, form, filter, results); err != nil {
			return err
		}
	}
	return nil
}

func runCache() error {
	ap, err := loadAnalysisParams(paramsPath)
	if err != nil {
		return err
	}
	cfg := dataset.LoadConfig()
	for _, sid := range ap.Subjects {
		for _, h := range ap.Hemispheres {
			d, err := dataset.Load(cfg, sid, h, overwriteCache)
			if err != nil {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"subject": sid, "hemi": h, "vertices": d.Len(),
			}).Info("cached hemisphere data")
		}
	}
	return nil
}

func logFitSummary(results cmag.BatchResults) {
	var fitted, skipped int
	for sid, sres := range results {
		for h, hres := range sres {
			for lbl, r := range hres {
				if r == nil {
					skipped++
					logrus.WithFields(logrus.Fields{
						"subject": sid, "hemi": h, "label": dataset.LabelNames[lbl],
					}).Debug("skipped sparse cell")
					continue
				}
				fitted++
				if !r.Converged {
					logrus.WithFields(logrus.Fields{
						"subject": sid, "hemi": h, "label": dataset.LabelNames[lbl],
						"status": r.Status,
					}).Warn("optimizer did not converge")
				}
			}
		}
	}
	logrus.WithFields(logrus.Fields{"fitted": fitted, "skipped": skipped}).Info("batch fit finished")
}

func writeResults(filename string, results cmag.BatchResults) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func writePlots(data map[string]map[string]*dataset.HemiData, form cmag.Form, filter cmag.Filter, results cmag.BatchResults) error {
	// Per-cell fit-quality plots, then one histogram per model parameter
	// across all fitted cells.
	paramValues := make(map[int][]float64)
	var areaValues []float64

	for sid, sres := range results {
		for h, hres := range sres {
			d := data[sid][h]
			var mask []bool
			if filter != nil {
				mask = filter(d)
			}
			for lbl, r := range hres {
				if r == nil {
					continue
				}
				x, y, area := cmag.SelectCell(d, lbl, mask)
				curve, err := cmag.BuildCumCurve(x, y, area, nil)
				if err != nil {
					return err
				}
				name := dataset.LabelNames[lbl]
				title := fmt.Sprintf("%s %s %s: cumulative area vs eccentricity", sid, h, name)
				file := filepath.Join(outDir, fmt.Sprintf("%s.%s.%s_fit.png", h, sid, name))
				if err := cmag.SaveFitPlot(file, curve, form, r, title); err != nil {
					return err
				}
				for i, v := range r.Params {
					paramValues[i] = append(paramValues[i], v)
				}
				areaValues = append(areaValues, r.TotalArea)
			}
		}
	}

	idxs := make([]int, 0, len(paramValues))
	for i := range paramValues {
		idxs = append(idxs, i)
	}
	sort.Ints(idxs)
	for _, i := range idxs {
		file := filepath.Join(outDir, fmt.Sprintf("%s_param%d_hist.png", form.Name, i))
		title := fmt.Sprintf("%s parameter %d", form.Name, i)
		if err := cmag.SaveParamHist(file, title, paramValues[i]); err != nil {
			return err
		}
	}
	if len(areaValues) > 0 {
		file := filepath.Join(outDir, fmt.Sprintf("%s_total_area_hist.png", form.Name))
		if err := cmag.SaveParamHist(file, "fitted total area (sq mm)", areaValues); err != nil {
			return err
		}
	}
	return nil
}

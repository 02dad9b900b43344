package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kshedden/gonpy"
	"github.com/sirupsen/logrus"
)

// HemiData holds the per-vertex arrays for one hemisphere of one subject.
// All slices are parallel (one entry per labeled vertex) and are treated as
// immutable after load.
type HemiData struct {
	Subject string
	Hemi    string // "lh", "rh", or "lh+rh" after JoinHemis

	Label       []int     // visual-area label, always nonzero
	X           []float64 // pRF center x, degrees of visual field
	Y           []float64 // pRF center y, degrees
	Sigma       []float64 // pRF radius, degrees
	PolarAngle  []float64 // pRF polar angle, degrees
	Eccen       []float64 // pRF eccentricity, degrees
	Cod         []float64 // pRF variance explained
	SurfaceArea []float64 // midgray surface area, square mm

	// SourceHemi tags each vertex with its hemisphere of origin. Set by
	// JoinHemis; nil for single-hemisphere data.
	SourceHemi []string
}

// Len returns the number of vertices.
func (d *HemiData) Len() int { return len(d.Label) }

// Prop returns a named vertex property array. Valid names are "x", "y",
// "sigma", "polar_angle", "eccentricity", "cod" and "surface_area".
func (d *HemiData) Prop(name string) ([]float64, error) {
	switch name {
	case "x":
		return d.X, nil
	case "y":
		return d.Y, nil
	case "sigma":
		return d.Sigma, nil
	case "polar_angle":
		return d.PolarAngle, nil
	case "eccentricity":
		return d.Eccen, nil
	case "cod":
		return d.Cod, nil
	case "surface_area":
		return d.SurfaceArea, nil
	}
	return nil, fmt.Errorf("unknown vertex property %q", name)
}

// Raw property files read per hemisphere, in cache row order (after label).
var propFiles = []string{
	"prf_x",
	"prf_y",
	"prf_radius",
	"prf_polar_angle",
	"prf_eccentricity",
	"prf_variance_explained",
	"midgray_surface_area",
}

const cacheRows = 8 // label row + the seven property rows

// Load returns the vertex data for one subject and hemisphere. On the first
// call it reads the raw per-property files and the label overlay, keeps the
// nonzero-labeled vertices, and writes the stacked rows to a cache file
// ({hemi}.{sid}_vert.npy under cfg.CachePath); subsequent calls read the
// cache directly. overwrite forces a rebuild from the raw files.
//
// A missing label overlay is a hard error identifying the subject and
// hemisphere: fits without area labels are meaningless, so this is never
// recovered or retried.
func Load(cfg *Config, sid, hemi string, overwrite bool) (*HemiData, error) {
	var vfile string
	if cfg.CachePath != "" {
		vfile = filepath.Join(cfg.CachePath, fmt.Sprintf("%s.%s_vert.npy", hemi, sid))
		if !overwrite {
			if _, err := os.Stat(vfile); err == nil {
				return readCache(vfile, sid, hemi)
			}
		}
	}

	labelFile := cfg.LabelFile(sid, hemi)
	if _, err := os.Stat(labelFile); err != nil {
		return nil, fmt.Errorf("label overlay not found for subject %s/%s: %s", sid, hemi, labelFile)
	}
	labels, err := readNpyVector(labelFile)
	if err != nil {
		return nil, err
	}

	props := make([][]float64, len(propFiles))
	for i, name := range propFiles {
		path := filepath.Join(cfg.DataPath, sid, fmt.Sprintf("%s.%s.npy", hemi, name))
		props[i], err = readNpyVector(path)
		if err != nil {
			return nil, err
		}
		if len(props[i]) != len(labels) {
			return nil, fmt.Errorf("subject %s/%s: %s has %d vertices, label overlay has %d",
				sid, hemi, name, len(props[i]), len(labels))
		}
	}

	// Keep only the labeled vertices and stack them into the cache layout:
	// one row per quantity, one column per vertex.
	var keep []int
	for i, l := range labels {
		if l > 0 {
			keep = append(keep, i)
		}
	}
	m := len(keep)
	vdata := make([]float64, cacheRows*m)
	for col, i := range keep {
		vdata[col] = labels[i]
		for row, p := range props {
			vdata[(row+1)*m+col] = p[i]
		}
	}

	if vfile != "" {
		if err := writeNpyMatrix(vfile, cacheRows, m, vdata); err != nil {
			return nil, err
		}
		logrus.WithFields(logrus.Fields{
			"subject": sid, "hemi": hemi, "vertices": m, "file": vfile,
		}).Debug("wrote vertex cache")
	}
	return hemiFromRows(vdata, m, sid, hemi), nil
}

func readCache(vfile, sid, hemi string) (*HemiData, error) {
	r, err := gonpy.NewFileReader(vfile)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache %s: %w", vfile, err)
	}
	if len(r.Shape) != 2 || r.Shape[0] != cacheRows {
		return nil, fmt.Errorf("cache %s: unexpected shape %v", vfile, r.Shape)
	}
	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("failed to read cache %s: %w", vfile, err)
	}
	return hemiFromRows(data, r.Shape[1], sid, hemi), nil
}

func hemiFromRows(vdata []float64, m int, sid, hemi string) *HemiData {
	row := func(i int) []float64 { return vdata[i*m : (i+1)*m] }
	label := make([]int, m)
	for i, l := range row(0) {
		label[i] = int(l)
	}
	return &HemiData{
		Subject:     sid,
		Hemi:        hemi,
		Label:       label,
		X:           row(1),
		Y:           row(2),
		Sigma:       row(3),
		PolarAngle:  row(4),
		Eccen:       row(5),
		Cod:         row(6),
		SurfaceArea: row(7),
	}
}

func readNpyVector(path string) ([]float64, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	data, err := r.GetFloat64()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func writeNpyMatrix(path string, rows, cols int, data []float64) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w.Shape = []int{rows, cols}
	w.Version = 2
	if err := w.WriteFloat64(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// JoinHemis concatenates left and right hemisphere data into one bilateral
// dataset. Each vertex keeps its hemisphere of origin in SourceHemi.
func JoinHemis(lh, rh *HemiData) *HemiData {
	n := lh.Len() + rh.Len()
	out := &HemiData{
		Subject:     lh.Subject,
		Hemi:        "lh+rh",
		Label:       make([]int, 0, n),
		SourceHemi:  make([]string, 0, n),
		X:           concat(lh.X, rh.X),
		Y:           concat(lh.Y, rh.Y),
		Sigma:       concat(lh.Sigma, rh.Sigma),
		PolarAngle:  concat(lh.PolarAngle, rh.PolarAngle),
		Eccen:       concat(lh.Eccen, rh.Eccen),
		Cod:         concat(lh.Cod, rh.Cod),
		SurfaceArea: concat(lh.SurfaceArea, rh.SurfaceArea),
	}
	out.Label = append(out.Label, lh.Label...)
	out.Label = append(out.Label, rh.Label...)
	for range lh.Label {
		out.SourceHemi = append(out.SourceHemi, lh.Hemi)
	}
	for range rh.Label {
		out.SourceHemi = append(out.SourceHemi, rh.Hemi)
	}
	return out
}

func concat(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}

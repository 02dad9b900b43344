package dataset_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kshedden/gonpy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vcnlab/cmagfit/dataset"
)

func writeVec(t *testing.T, path string, data []float64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	w, err := gonpy.NewFileWriter(path)
	require.NoError(t, err)
	w.Shape = []int{len(data)}
	w.Version = 2
	require.NoError(t, w.WriteFloat64(data))
}

var rawProps = []string{
	"prf_x",
	"prf_y",
	"prf_radius",
	"prf_polar_angle",
	"prf_eccentricity",
	"prf_variance_explained",
	"midgray_surface_area",
}

// writeSubject lays out a raw subject directory plus a label overlay with
// five cortical vertices, three of them labeled. Property values encode
// (property row, vertex index) so reads are traceable.
func writeSubject(t *testing.T, cfg *dataset.Config, sid, hemi string) {
	t.Helper()
	writeVec(t, cfg.LabelFile(sid, hemi), []float64{0, 1, 0, 2, 3})
	for row, name := range rawProps {
		vals := make([]float64, 5)
		for i := range vals {
			vals[i] = float64(row*10 + i)
		}
		writeVec(t, filepath.Join(cfg.DataPath, sid, fmt.Sprintf("%s.%s.npy", hemi, name)), vals)
	}
}

func testConfig(t *testing.T) *dataset.Config {
	t.Helper()
	root := t.TempDir()
	cache := filepath.Join(root, "cache")
	require.NoError(t, os.MkdirAll(cache, 0o755))
	return &dataset.Config{
		DataPath:  filepath.Join(root, "prf"),
		LabelPath: filepath.Join(root, "labels", "{hemisphere}.{sid}.npy"),
		CachePath: cache,
		FOV:       200,
		MaxEccen:  7,
	}
}

func TestLoadKeepsLabeledVertices(t *testing.T) {
	cfg := testConfig(t)
	writeSubject(t, cfg, "100610", "lh")

	d, err := dataset.Load(cfg, "100610", "lh", false)
	require.NoError(t, err)

	assert.Equal(t, "100610", d.Subject)
	assert.Equal(t, "lh", d.Hemi)
	require.Equal(t, 3, d.Len())
	assert.Equal(t, []int{1, 2, 3}, d.Label)
	// Labeled vertices are at raw indices 1, 3 and 4.
	assert.Equal(t, []float64{1, 3, 4}, d.X)       // prf_x row 0
	assert.Equal(t, []float64{11, 13, 14}, d.Y)    // prf_y row 1
	assert.Equal(t, []float64{61, 63, 64}, d.SurfaceArea)

	ecc, err := d.Prop("eccentricity")
	require.NoError(t, err)
	assert.Equal(t, []float64{41, 43, 44}, ecc)
	_, err = d.Prop("bogus")
	assert.Error(t, err)
}

func TestLoadReadsBackFromCache(t *testing.T) {
	cfg := testConfig(t)
	writeSubject(t, cfg, "100610", "lh")

	first, err := dataset.Load(cfg, "100610", "lh", false)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(cfg.CachePath, "lh.100610_vert.npy"))

	// With the raw files gone the cache must satisfy the load.
	require.NoError(t, os.RemoveAll(cfg.DataPath))
	cached, err := dataset.Load(cfg, "100610", "lh", false)
	require.NoError(t, err)
	assert.Equal(t, first.Label, cached.Label)
	assert.Equal(t, first.X, cached.X)
	assert.Equal(t, first.SurfaceArea, cached.SurfaceArea)

	// A forced rebuild needs the raw files again.
	_, err = dataset.Load(cfg, "100610", "lh", true)
	assert.Error(t, err)
}

func TestLoadMissingLabelOverlay(t *testing.T) {
	cfg := testConfig(t)
	_, err := dataset.Load(cfg, "999999", "rh", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999999")
	assert.Contains(t, err.Error(), "rh")
}

func TestLoadLengthMismatch(t *testing.T) {
	cfg := testConfig(t)
	writeSubject(t, cfg, "100610", "lh")
	// Truncate one property file below the overlay length.
	writeVec(t, filepath.Join(cfg.DataPath, "100610", "lh.prf_radius.npy"), []float64{1, 2})

	_, err := dataset.Load(cfg, "100610", "lh", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prf_radius")
}

func TestJoinHemis(t *testing.T) {
	cfg := testConfig(t)
	writeSubject(t, cfg, "100610", "lh")
	writeSubject(t, cfg, "100610", "rh")

	lh, err := dataset.Load(cfg, "100610", "lh", false)
	require.NoError(t, err)
	rh, err := dataset.Load(cfg, "100610", "rh", false)
	require.NoError(t, err)

	j := dataset.JoinHemis(lh, rh)
	assert.Equal(t, "lh+rh", j.Hemi)
	assert.Equal(t, lh.Len()+rh.Len(), j.Len())
	assert.Len(t, j.X, j.Len())
	assert.Len(t, j.SurfaceArea, j.Len())
	assert.Equal(t, "lh", j.SourceHemi[0])
	assert.Equal(t, "rh", j.SourceHemi[j.Len()-1])
}

func TestLabelLookup(t *testing.T) {
	for i, name := range dataset.LabelNames {
		if i == 0 {
			continue
		}
		got, err := dataset.LabelLookup(name)
		require.NoError(t, err)
		assert.Equal(t, i, got)
	}
	got, err := dataset.LabelLookup("v1") // case-insensitive
	require.NoError(t, err)
	assert.Equal(t, 1, got)
	_, err = dataset.LabelLookup("V99")
	assert.Error(t, err)
}

func TestAllLabels(t *testing.T) {
	labels := dataset.AllLabels()
	require.Len(t, labels, len(dataset.LabelNames)-1)
	assert.Equal(t, 1, labels[0])
	assert.Equal(t, len(dataset.LabelNames)-1, labels[len(labels)-1])
}

func TestLabelFileTemplate(t *testing.T) {
	cfg := &dataset.Config{LabelPath: "/labels/{hemisphere}.{sid}.npy"}
	assert.Equal(t, "/labels/lh.100610.npy", cfg.LabelFile("100610", "lh"))
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CMAG_DATA_PATH", "/tmp/prf-data")
	t.Setenv("CMAG_MAX_ECCEN", "9.5")

	cfg := dataset.LoadConfig()
	assert.Equal(t, "/tmp/prf-data", cfg.DataPath)
	assert.InDelta(t, 9.5, cfg.MaxEccen, 1e-12)
	// Unset keys keep their defaults.
	assert.Equal(t, 200.0, cfg.FOV)
}

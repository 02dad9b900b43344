// Package dataset loads and caches the per-subject, per-hemisphere vertex
// arrays (visual-area labels, pRF parameters, surface areas) that the cmag
// fitting routines consume.
//
// Loading from the raw per-property files is expensive, so each hemisphere's
// selected vertex rows are cached as a single .npy file and read back on
// subsequent loads. Machine-local paths are configured through CMAG_*
// environment variables.
package dataset

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config carries the machine-local paths and visual-field constants used by
// the loader and by the fitting driver.
type Config struct {
	// DataPath is the root directory of the raw per-subject pRF property
	// files, laid out as {DataPath}/{sid}/{hemi}.{property}.npy.
	DataPath string
	// LabelPath is the template for visual-area label overlay files. It may
	// contain the placeholders {hemisphere} and {sid}. Each overlay is a
	// vector of integer labels, one per cortical vertex, with 0 marking
	// unlabeled vertices.
	LabelPath string
	// CachePath is the directory for per-hemisphere vertex cache files.
	// An empty value disables caching.
	CachePath string
	// FOV is the diameter, in degrees, of the modeled field of view. The
	// magnification is so low near the periphery that fits are insensitive
	// to its exact value.
	FOV float64
	// MaxEccen is the maximum eccentricity, in degrees, assumed measured in
	// a visual area.
	MaxEccen float64
}

// LoadConfig resolves the configuration from CMAG_DATA_PATH,
// CMAG_LABEL_PATH, CMAG_CACHE_PATH, CMAG_FOV and CMAG_MAX_ECCEN, falling
// back to the compiled-in defaults for anything unset.
func LoadConfig() *Config {
	v := viper.New()
	v.SetEnvPrefix("cmag")
	v.AutomaticEnv()
	v.SetDefault("data_path", "/data/hcp/prf")
	v.SetDefault("label_path", "/data/hcp/labels/visual/{hemisphere}.{sid}.npy")
	v.SetDefault("cache_path", "/data/hcp/cmag-cache")
	v.SetDefault("fov", 200.0)
	v.SetDefault("max_eccen", 7.0)
	return &Config{
		DataPath:  v.GetString("data_path"),
		LabelPath: v.GetString("label_path"),
		CachePath: v.GetString("cache_path"),
		FOV:       v.GetFloat64("fov"),
		MaxEccen:  v.GetFloat64("max_eccen"),
	}
}

// LabelFile expands the label-path template for one subject and hemisphere.
func (c *Config) LabelFile(sid, hemi string) string {
	r := strings.NewReplacer("{sid}", sid, "{hemisphere}", hemi)
	return r.Replace(c.LabelPath)
}

// LabelNames maps label index to visual-area name. Index 0 is the
// background (unlabeled) value and has no name.
var LabelNames = []string{
	"",
	// Early visual cortex.
	"V1", "V2", "V3",
	// Ventral visual cortex.
	"hV4", "VO1", "VO2",
	// Dorsal visual cortex.
	"V3a", "V3b", "IPS0", "LO1",
}

// LabelLookup returns the label index for a visual-area name. The match is
// case-insensitive.
func LabelLookup(name string) (int, error) {
	for i, nm := range LabelNames {
		if i > 0 && strings.EqualFold(nm, name) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown visual area label %q", name)
}

// AllLabels returns the label indices of every named visual area.
func AllLabels() []int {
	labels := make([]int, 0, len(LabelNames)-1)
	for i := 1; i < len(LabelNames); i++ {
		labels = append(labels, i)
	}
	return labels
}

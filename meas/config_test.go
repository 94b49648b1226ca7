package meas

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestDefaultConfigValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config must be valid: %v", err)
	}
}

func TestLoadConfig(t *testing.T) {
	raw := `
sdss_centroid:
  sigma: 2.5
  max_iterations: 4
sdss_shape:
  tolerance_e: 1.0e-5
`
	cfg, err := LoadConfig(strings.NewReader(raw))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SdssCentroid.Sigma != 2.5 || cfg.SdssCentroid.MaxIterations != 4 {
		t.Errorf("Wrong sdss_centroid: %+v", cfg.SdssCentroid)
	}
	if cfg.SdssShape.ToleranceE != 1e-5 {
		t.Errorf("Wrong sdss_shape.tolerance_e: %v", cfg.SdssShape.ToleranceE)
	}
	defaults := DefaultConfig()
	if cfg.SdssShape.MaxIterations != defaults.SdssShape.MaxIterations || cfg.NaiveCentroid != defaults.NaiveCentroid {
		t.Errorf("Missing keys must keep defaults: %+v", cfg)
	}

	empty, err := LoadConfig(strings.NewReader(""))
	if err != nil {
		t.Fatal(err)
	}
	if empty != defaults {
		t.Errorf("Empty document must give defaults: %+v", empty)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	_, err := LoadConfig(strings.NewReader("naive_shape:\n  radius: 0\n"))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Expected ErrInvalidConfig, got %v", err)
	}
	_, err = LoadConfig(strings.NewReader("naive_shape:\n  diameter: 3\n"))
	if err == nil {
		t.Errorf("Unknown keys must be rejected")
	}
	for _, doc := range []string{
		"sdss_centroid:\n  sigma: 1e18\n",
		"sdss_centroid:\n  sigma: .inf\n",
		"sdss_centroid:\n  sigma: .nan\n",
		"sdss_shape:\n  sigma: .inf\n",
		"sdss_shape:\n  sigma: -1\n",
	} {
		_, err = LoadConfig(strings.NewReader(doc))
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%q: expected ErrInvalidConfig, got %v", doc, err)
		}
	}
	_, err = LoadConfig(strings.NewReader("sdss_shape: [1, 2"))
	if err == nil {
		t.Errorf("Malformed YAML must be rejected")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meas.yaml")
	if err := os.WriteFile(path, []byte("naive_centroid:\n  half_width: 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.NaiveCentroid.HalfWidth != 2 {
		t.Errorf("Wrong half_width: %d", cfg.NaiveCentroid.HalfWidth)
	}
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Errorf("Missing file must be an error")
	}

	// Configured instance in its own registry
	centroids := NewRegistry(CentroidFamily)
	shapes := NewRegistry(ShapeFamily)
	if err := RegisterBuiltinsInto[float32](centroids, shapes, cfg); err != nil {
		t.Fatal(err)
	}
	alg, err := CreateCentroidFrom[float32](centroids, NaiveName)
	if err != nil {
		t.Fatal(err)
	}
	img := NewImage[float32](10, 10)
	img.Set(1, 5, 100)
	if _, err := alg.Apply(img, 1, 5); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("5x5 window at x=1 must be out of bounds, got %v", err)
	}
}

package meas

import (
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// NaiveCentroidConfig configures "NAIVE" centroid
type NaiveCentroidConfig struct {
	// Half width of the square window. 1 means 3x3
	HalfWidth int `yaml:"half_width"`
}

// SdssCentroidConfig configures "SDSS" centroid
type SdssCentroidConfig struct {
	// Smoothing sigma used when no PSF is supplied
	Sigma float64 `yaml:"sigma"`
	// Max number of recentring steps
	MaxIterations int `yaml:"max_iterations"`
}

// NaiveShapeConfig configures "NAIVE" shape
type NaiveShapeConfig struct {
	// Half width of the square window
	Radius int `yaml:"radius"`
}

// SdssShapeConfig configures "SDSS" shape
type SdssShapeConfig struct {
	// Initial weight sigma used when no PSF is supplied
	Sigma         float64 `yaml:"sigma"`
	MaxIterations int     `yaml:"max_iterations"`
	// Convergence threshold on ellipticity components
	ToleranceE float64 `yaml:"tolerance_e"`
	// Convergence threshold on relative change of size
	ToleranceSize float64 `yaml:"tolerance_size"`
	// Convergence threshold on centre shift, pixels
	ToleranceShift float64 `yaml:"tolerance_shift"`
	// Max half width of the weighting window
	MaxRadius int `yaml:"max_radius"`
}

// Config holds parameters of the builtin algorithms
type Config struct {
	NaiveCentroid NaiveCentroidConfig `yaml:"naive_centroid"`
	SdssCentroid  SdssCentroidConfig  `yaml:"sdss_centroid"`
	NaiveShape    NaiveShapeConfig    `yaml:"naive_shape"`
	SdssShape     SdssShapeConfig     `yaml:"sdss_shape"`
}

// DefaultConfig returns parameters used by the process-wide registries unless SetDefaultConfig was called
func DefaultConfig() Config {
	return Config{
		NaiveCentroid: NaiveCentroidConfig{
			HalfWidth: 1,
		},
		SdssCentroid: SdssCentroidConfig{
			Sigma:         1.5,
			MaxIterations: 10,
		},
		NaiveShape: NaiveShapeConfig{
			Radius: 3,
		},
		SdssShape: SdssShapeConfig{
			Sigma:          1.5,
			MaxIterations:  100,
			ToleranceE:     1e-6,
			ToleranceSize:  1e-5,
			ToleranceShift: 1e-4,
			MaxRadius:      50,
		},
	}
}

// LoadConfig reads YAML config. Missing keys keep their default values
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "Can't decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads YAML config from file
func LoadConfigFile(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "Can't open config file %s", path)
	}
	defer file.Close()
	return LoadConfig(file)
}

// Validate checks every parameter is in range
func (cfg Config) Validate() error {
	if cfg.NaiveCentroid.HalfWidth < 1 {
		return errors.Wrapf(ErrInvalidConfig, "naive_centroid.half_width must be >= 1, got %d", cfg.NaiveCentroid.HalfWidth)
	}
	if !(cfg.SdssCentroid.Sigma > 0 && cfg.SdssCentroid.Sigma <= maxSmoothingSigma) {
		return errors.Wrapf(ErrInvalidConfig, "sdss_centroid.sigma must be in (0, %g], got %g", maxSmoothingSigma, cfg.SdssCentroid.Sigma)
	}
	if cfg.SdssCentroid.MaxIterations < 1 {
		return errors.Wrapf(ErrInvalidConfig, "sdss_centroid.max_iterations must be >= 1, got %d", cfg.SdssCentroid.MaxIterations)
	}
	if cfg.NaiveShape.Radius < 1 {
		return errors.Wrapf(ErrInvalidConfig, "naive_shape.radius must be >= 1, got %d", cfg.NaiveShape.Radius)
	}
	if !(cfg.SdssShape.Sigma > 0) || math.IsInf(cfg.SdssShape.Sigma, 1) {
		return errors.Wrapf(ErrInvalidConfig, "sdss_shape.sigma must be positive and finite, got %g", cfg.SdssShape.Sigma)
	}
	if cfg.SdssShape.MaxIterations < 1 {
		return errors.Wrapf(ErrInvalidConfig, "sdss_shape.max_iterations must be >= 1, got %d", cfg.SdssShape.MaxIterations)
	}
	if !(cfg.SdssShape.ToleranceE > 0) || !(cfg.SdssShape.ToleranceSize > 0) || !(cfg.SdssShape.ToleranceShift > 0) {
		return errors.Wrapf(ErrInvalidConfig, "sdss_shape tolerances must be positive, got %g, %g and %g", cfg.SdssShape.ToleranceE, cfg.SdssShape.ToleranceSize, cfg.SdssShape.ToleranceShift)
	}
	if cfg.SdssShape.MaxRadius < 2 {
		return errors.Wrapf(ErrInvalidConfig, "sdss_shape.max_radius must be >= 2, got %d", cfg.SdssShape.MaxRadius)
	}
	return nil
}

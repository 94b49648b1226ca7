// Package meas provides interchangeable centroid and shape measurement algorithms
// selected by name at runtime and instantiated generically over the pixel type.
package meas

import "github.com/google/uuid"

// Algorithm is the contract shared by every named measurement strategy.
// T is the pixel type and R the measurement result.
//
// Implementations must be stateless with respect to Apply: a single instance is
// shared by every caller and may be applied from several goroutines at once.
type Algorithm[T Pixel, R any] interface {
	// GetID returns identifier assigned when the instance was constructed
	GetID() uuid.UUID
	// GetName returns the name the algorithm is registered under
	GetName() string
	// Apply measures the source seeded at (x, y). The image is never modified.
	Apply(img Raster[T], x, y float64, options ...ApplyOption) (R, error)
}

// CentroidAlgorithm measures the position of a source
type CentroidAlgorithm[T Pixel] interface {
	Algorithm[T, Centroid]
}

// ShapeAlgorithm measures second moments of a source
type ShapeAlgorithm[T Pixel] interface {
	Algorithm[T, Shape]
}

// applyParams holds the auxiliary inputs of a single Apply call
type applyParams struct {
	psf        PSF
	background float64
}

// ApplyOption sets auxiliary input of Apply. Defaults: no PSF, zero background.
type ApplyOption func(*applyParams)

// WithPSF supplies point-spread function. Algorithms not modelling the PSF ignore it.
func WithPSF(psf PSF) ApplyOption {
	return func(p *applyParams) {
		p.psf = psf
	}
}

// WithBackground supplies background level subtracted from every pixel before measuring.
func WithBackground(background float64) ApplyOption {
	return func(p *applyParams) {
		p.background = background
	}
}

func newApplyParams(options []ApplyOption) applyParams {
	params := applyParams{}
	for _, option := range options {
		option(&params)
	}
	return params
}

// sigmaOr returns PSF sigma if PSF is set and sane, fallback otherwise
func (p applyParams) sigmaOr(fallback float64) float64 {
	if p.psf == nil {
		return fallback
	}
	sigma := p.psf.GetSigma()
	if !(sigma > 0) {
		return fallback
	}
	return sigma
}

package meas

import (
	"math"

	"github.com/pkg/errors"
)

// SdssCentroid smooths the image with a Gaussian matched to the PSF and fits a
// parabola through the smoothed peak along each axis. If the smoothed maximum is
// not at the current pixel it moves to the brightest neighbour and tries again.
// Running out of iterations is reported as ErrNonConvergence; no partial result
// is returned.
type SdssCentroid[T Pixel] struct {
	algorithmBase
	sigma         float64
	maxIterations int
	kernel        gaussianKernel
}

// NewSdssCentroid creates "SDSS" centroid algorithm
func NewSdssCentroid[T Pixel](cfg SdssCentroidConfig) *SdssCentroid[T] {
	alg := &SdssCentroid[T]{
		algorithmBase: newAlgorithmBase(SdssName),
		sigma:         cfg.Sigma,
		maxIterations: cfg.MaxIterations,
	}
	if cfg.Sigma > 0 && cfg.Sigma <= maxSmoothingSigma {
		alg.kernel = newGaussianKernel(cfg.Sigma)
	}
	return alg
}

// maxSmoothingSigma bounds the configured sigma whose kernel is built up front
const maxSmoothingSigma = 1000.0

// Apply measures centroid of the source seeded at (x, y).
// The smoothing window around every visited pixel must lie inside the image.
func (alg *SdssCentroid[T]) Apply(img Raster[T], x, y float64, options ...ApplyOption) (Centroid, error) {
	params := newApplyParams(options)
	ix, iy, ok := seedPixel(img, x, y)
	if !ok {
		return Centroid{}, errors.Wrapf(ErrOutOfBounds, "seed (%f, %f) is outside %dx%d image", x, y, img.Width(), img.Height())
	}

	// Checked before the kernel is built: a huge PSF must not allocate a huge kernel
	sigma := params.sigmaOr(alg.sigma)
	if !kernelFits(sigma, img.Width(), img.Height()) {
		return Centroid{}, errors.Wrapf(ErrOutOfBounds, "smoothing window for sigma %g exceeds %dx%d image", sigma, img.Width(), img.Height())
	}
	kernel := alg.kernel
	if sigma != alg.sigma || kernel.weights == nil {
		kernel = newGaussianKernel(sigma)
	}

	for iteration := 1; iteration <= alg.maxIterations; iteration++ {
		window := BoxAround(ix, iy, kernel.halfWidth+1)
		if !window.Within(img.Width(), img.Height()) {
			return Centroid{}, errors.Wrapf(ErrOutOfBounds, "%dx%d smoothing window around (%d, %d) exceeds %dx%d image", window.Width(), window.Height(), ix, iy, img.Width(), img.Height())
		}

		// 3x3 grid of smoothed values, smoothed[1][1] is the current pixel
		var smoothed [3][3]float64
		bestX, bestY := 1, 1
		for dy := 0; dy < 3; dy++ {
			for dx := 0; dx < 3; dx++ {
				smoothed[dy][dx] = smoothAt(kernel, img, ix+dx-1, iy+dy-1, params.background)
				if smoothed[dy][dx] > smoothed[bestY][bestX] {
					bestX, bestY = dx, dy
				}
			}
		}
		if bestX != 1 || bestY != 1 {
			ix += bestX - 1
			iy += bestY - 1
			continue
		}

		peak := smoothed[1][1]
		if peak <= 0 {
			return Centroid{}, errors.Wrapf(ErrNoCounts, "smoothed peak at (%d, %d) is %f", ix, iy, peak)
		}
		left, right := smoothed[1][0], smoothed[1][2]
		down, up := smoothed[0][1], smoothed[2][1]
		d2x := 2*peak - left - right
		d2y := 2*peak - down - up
		if d2x <= 0 || d2y <= 0 {
			return Centroid{}, errors.Wrapf(ErrNonConvergence, "smoothed peak at (%d, %d) is flat", ix, iy)
		}
		dx := 0.5 * (right - left) / d2x
		dy := 0.5 * (up - down) / d2y
		return NewCentroid(float64(ix)+dx, float64(iy)+dy, math.NaN(), math.NaN(), iteration), nil
	}
	return Centroid{}, errors.Wrapf(ErrNonConvergence, "no smoothed maximum found within %d iterations starting from (%f, %f)", alg.maxIterations, x, y)
}

// gaussianKernel is a normalised, separable, truncated circular Gaussian
type gaussianKernel struct {
	halfWidth int
	weights   []float64
}

// kernelFits reports whether the smoothing window of sigma, plus the one pixel
// ring used for peak interpolation, can fit inside a width x height image
func kernelFits(sigma float64, width, height int) bool {
	if !(sigma > 0) {
		return false
	}
	span := 2*(math.Ceil(3*sigma)+1) + 1
	return span <= float64(width) && span <= float64(height)
}

// newGaussianKernel builds the kernel. Callers bound sigma first.
func newGaussianKernel(sigma float64) gaussianKernel {
	halfWidth := int(math.Ceil(3 * sigma))
	weights := make([]float64, 2*halfWidth+1)
	sum := 0.0
	for i := range weights {
		d := float64(i - halfWidth)
		weights[i] = math.Exp(-0.5 * d * d / (sigma * sigma))
		sum += weights[i]
	}
	for i := range weights {
		weights[i] /= sum
	}
	return gaussianKernel{
		halfWidth: halfWidth,
		weights:   weights,
	}
}

// smoothAt returns the smoothed, background subtracted value at pixel (x, y).
// Caller guarantees the kernel footprint is inside the image.
func smoothAt[T Pixel](k gaussianKernel, img Raster[T], x, y int, background float64) float64 {
	total := 0.0
	for ky, wy := range k.weights {
		row := 0.0
		for kx, wx := range k.weights {
			row += wx * float64(img.At(x+kx-k.halfWidth, y+ky-k.halfWidth))
		}
		total += wy * row
	}
	return total - background
}

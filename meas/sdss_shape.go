package meas

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// Moments never drop below those of a single uniformly lit pixel
	pixelVariance = 1.0 / 12.0
	// Pixels further than 4 sigma of the weight function are ignored
	maxWeightExponent = 8.0
	minShapeRadius    = 2
)

// SdssShape measures adaptive second moments: the moments of the elliptical
// Gaussian weight which best matches the source. Starting from a circular weight
// of the PSF width the weight is replaced by twice the weighted moments until the
// ellipticity, size and centre stop changing. The centre is refined on every step.
//
// The weighting window is clipped to the image but the seed and every refined
// centre must be inside it. Non positive-definite moments or an exhausted budget
// are reported as ErrNonConvergence, never as a degraded result.
type SdssShape[T Pixel] struct {
	algorithmBase
	sigma          float64
	maxIterations  int
	toleranceE     float64
	toleranceSize  float64
	toleranceShift float64
	maxRadius      int
}

// NewSdssShape creates "SDSS" shape algorithm
func NewSdssShape[T Pixel](cfg SdssShapeConfig) *SdssShape[T] {
	return &SdssShape[T]{
		algorithmBase:  newAlgorithmBase(SdssName),
		sigma:          cfg.Sigma,
		maxIterations:  cfg.MaxIterations,
		toleranceE:     cfg.ToleranceE,
		toleranceSize:  cfg.ToleranceSize,
		toleranceShift: cfg.ToleranceShift,
		maxRadius:      cfg.MaxRadius,
	}
}

// Apply measures adaptive moments of the source seeded at (x, y)
func (alg *SdssShape[T]) Apply(img Raster[T], x, y float64, options ...ApplyOption) (Shape, error) {
	params := newApplyParams(options)
	if _, _, ok := seedPixel(img, x, y); !ok {
		return Shape{}, errors.Wrapf(ErrOutOfBounds, "seed (%f, %f) is outside %dx%d image", x, y, img.Width(), img.Height())
	}

	sigma := params.sigmaOr(alg.sigma)
	weight := mat.NewSymDense(2, []float64{sigma * sigma, 0, 0, sigma * sigma})
	xc, yc := x, y

	for iteration := 1; iteration <= alg.maxIterations; iteration++ {
		var chol mat.Cholesky
		if ok := chol.Factorize(weight); !ok {
			return Shape{}, errors.Wrapf(ErrNonConvergence, "weight matrix is not positive definite at iteration %d", iteration)
		}
		var inverse mat.SymDense
		if err := chol.InverseTo(&inverse); err != nil {
			return Shape{}, errors.Wrapf(ErrNonConvergence, "can't invert weight matrix at iteration %d: %v", iteration, err)
		}

		ix, iy, ok := seedPixel(img, xc, yc)
		if !ok {
			return Shape{}, errors.Wrapf(ErrOutOfBounds, "centre moved to (%f, %f) outside %dx%d image", xc, yc, img.Width(), img.Height())
		}
		window := BoxAround(ix, iy, alg.windowRadius(weight)).Clip(img.Width(), img.Height())

		m := alg.weightedMoments(img, window, xc, yc, inverse.At(0, 0), inverse.At(0, 1), inverse.At(1, 1), params.background)
		if m.sum <= 0 {
			return Shape{}, errors.Wrapf(ErrNoCounts, "weighted flux around (%f, %f) is %f", xc, yc, m.sum)
		}
		mx, my := m.mean()
		mxx, mxy, myy := m.central()
		mxx = math.Max(mxx, pixelVariance)
		myy = math.Max(myy, pixelVariance)
		previous := NewPoint(xc, yc)
		xc += mx
		yc += my
		shift := euclideanDistance(previous, NewPoint(xc, yc))

		measured := mat.NewSymDense(2, []float64{mxx, mxy, mxy, myy})
		var check mat.Cholesky
		if ok := check.Factorize(measured); !ok {
			return Shape{}, errors.Wrapf(ErrNonConvergence, "weighted moments are not positive definite at iteration %d", iteration)
		}

		next := mat.NewSymDense(2, nil)
		next.ScaleSym(2, measured)
		if shift < alg.toleranceShift && alg.converged(weight, next) {
			return NewShape(xc, yc, next.At(0, 0), next.At(0, 1), next.At(1, 1), iteration), nil
		}
		weight = next
	}
	return Shape{}, errors.Wrapf(ErrNonConvergence, "adaptive moments did not settle within %d iterations", alg.maxIterations)
}

// windowRadius returns half width of the box covering 4 sigma of the weight along its major axis
func (alg *SdssShape[T]) windowRadius(weight *mat.SymDense) int {
	var eigen mat.EigenSym
	if ok := eigen.Factorize(weight, false); !ok {
		return alg.maxRadius
	}
	values := eigen.Values(nil)
	major := math.Max(values[0], values[1])
	radius := int(math.Ceil(4 * math.Sqrt(major)))
	return minInt(maxInt(radius, minShapeRadius), alg.maxRadius)
}

// weightedMoments accumulates moments about (xc, yc) weighted by the Gaussian with inverse covariance (i11, i12, i22)
func (alg *SdssShape[T]) weightedMoments(img Raster[T], window Box, xc, yc, i11, i12, i22, background float64) moments {
	m := moments{}
	for py := window.Y0; py <= window.Y1; py++ {
		dy := float64(py) - yc
		for px := window.X0; px <= window.X1; px++ {
			dx := float64(px) - xc
			exponent := 0.5 * (i11*dx*dx + 2*i12*dx*dy + i22*dy*dy)
			if exponent > maxWeightExponent {
				continue
			}
			m.add(dx, dy, math.Exp(-exponent)*(float64(img.At(px, py))-background))
		}
	}
	return m
}

// converged compares ellipticity and size of two moment matrices
func (alg *SdssShape[T]) converged(previous, next *mat.SymDense) bool {
	e1Prev, e2Prev, sizePrev := ellipticity(previous)
	e1Next, e2Next, sizeNext := ellipticity(next)
	return math.Abs(e1Next-e1Prev) < alg.toleranceE &&
		math.Abs(e2Next-e2Prev) < alg.toleranceE &&
		math.Abs(sizeNext/sizePrev-1) < alg.toleranceSize
}

// ellipticity returns e1, e2 and the determinant size of a moment matrix
func ellipticity(matrix *mat.SymDense) (float64, float64, float64) {
	mxx, mxy, myy := matrix.At(0, 0), matrix.At(0, 1), matrix.At(1, 1)
	trace := mxx + myy
	return (mxx - myy) / trace, 2 * mxy / trace, math.Sqrt(mat.Det(matrix))
}

package meas

import (
	"math"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// algorithmBase carries what every algorithm instance has: identity and registered name
type algorithmBase struct {
	id   uuid.UUID
	name string
}

func newAlgorithmBase(name string) algorithmBase {
	return algorithmBase{
		id:   uuid.New(),
		name: name,
	}
}

// GetID returns instance identifier
func (base algorithmBase) GetID() uuid.UUID {
	return base.id
}

// GetName returns algorithm name
func (base algorithmBase) GetName() string {
	return base.name
}

// NaiveCentroid computes the first moments of background subtracted pixels
// in a square window around the seed pixel. No iteration, no PSF.
// The whole window must lie inside the image.
type NaiveCentroid[T Pixel] struct {
	algorithmBase
	halfWidth int
}

// NewNaiveCentroid creates "NAIVE" centroid algorithm
func NewNaiveCentroid[T Pixel](cfg NaiveCentroidConfig) *NaiveCentroid[T] {
	return &NaiveCentroid[T]{
		algorithmBase: newAlgorithmBase(NaiveName),
		halfWidth:     cfg.HalfWidth,
	}
}

// Apply measures centroid of the source seeded at (x, y)
func (alg *NaiveCentroid[T]) Apply(img Raster[T], x, y float64, options ...ApplyOption) (Centroid, error) {
	params := newApplyParams(options)
	ix, iy, ok := seedPixel(img, x, y)
	if !ok {
		return Centroid{}, errors.Wrapf(ErrOutOfBounds, "seed (%f, %f) is outside %dx%d image", x, y, img.Width(), img.Height())
	}
	window := BoxAround(ix, iy, alg.halfWidth)
	if !window.Within(img.Width(), img.Height()) {
		return Centroid{}, errors.Wrapf(ErrOutOfBounds, "%dx%d window around (%d, %d) exceeds %dx%d image", window.Width(), window.Height(), ix, iy, img.Width(), img.Height())
	}

	sum, sumX, sumY := 0.0, 0.0, 0.0
	for py := window.Y0; py <= window.Y1; py++ {
		for px := window.X0; px <= window.X1; px++ {
			value := float64(img.At(px, py)) - params.background
			sum += value
			sumX += value * float64(px-ix)
			sumY += value * float64(py-iy)
		}
	}
	if sum <= 0 {
		return Centroid{}, errors.Wrapf(ErrNoCounts, "window around (%d, %d) sums to %f", ix, iy, sum)
	}
	return NewCentroid(float64(ix)+sumX/sum, float64(iy)+sumY/sum, math.NaN(), math.NaN(), 0), nil
}

// NaiveShape computes unweighted second moments of background subtracted pixels
// in a square window around the seed pixel. The whole window must lie inside the image.
type NaiveShape[T Pixel] struct {
	algorithmBase
	radius int
}

// NewNaiveShape creates "NAIVE" shape algorithm
func NewNaiveShape[T Pixel](cfg NaiveShapeConfig) *NaiveShape[T] {
	return &NaiveShape[T]{
		algorithmBase: newAlgorithmBase(NaiveName),
		radius:        cfg.Radius,
	}
}

// Apply measures moments of the source seeded at (x, y). Moments refer to the first-moment centre of the window.
func (alg *NaiveShape[T]) Apply(img Raster[T], x, y float64, options ...ApplyOption) (Shape, error) {
	params := newApplyParams(options)
	ix, iy, ok := seedPixel(img, x, y)
	if !ok {
		return Shape{}, errors.Wrapf(ErrOutOfBounds, "seed (%f, %f) is outside %dx%d image", x, y, img.Width(), img.Height())
	}
	window := BoxAround(ix, iy, alg.radius)
	if !window.Within(img.Width(), img.Height()) {
		return Shape{}, errors.Wrapf(ErrOutOfBounds, "%dx%d window around (%d, %d) exceeds %dx%d image", window.Width(), window.Height(), ix, iy, img.Width(), img.Height())
	}

	m := moments{}
	for py := window.Y0; py <= window.Y1; py++ {
		for px := window.X0; px <= window.X1; px++ {
			m.add(float64(px-ix), float64(py-iy), float64(img.At(px, py))-params.background)
		}
	}
	if m.sum <= 0 {
		return Shape{}, errors.Wrapf(ErrNoCounts, "window around (%d, %d) sums to %f", ix, iy, m.sum)
	}
	mx, my := m.mean()
	mxx, mxy, myy := m.central()
	return NewShape(float64(ix)+mx, float64(iy)+my, mxx, mxy, myy, 0), nil
}

// moments accumulates zeroth, first and second moments of (possibly weighted) pixel values
type moments struct {
	sum   float64
	sumX  float64
	sumY  float64
	sumXX float64
	sumXY float64
	sumYY float64
}

func (m *moments) add(dx, dy, value float64) {
	m.sum += value
	m.sumX += value * dx
	m.sumY += value * dy
	m.sumXX += value * dx * dx
	m.sumXY += value * dx * dy
	m.sumYY += value * dy * dy
}

// mean returns first moments. Caller checks sum is positive
func (m moments) mean() (float64, float64) {
	return m.sumX / m.sum, m.sumY / m.sum
}

// central returns second moments about the mean
func (m moments) central() (float64, float64, float64) {
	mx, my := m.mean()
	return m.sumXX/m.sum - mx*mx, m.sumXY/m.sum - mx*my, m.sumYY/m.sum - my*my
}

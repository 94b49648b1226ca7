package meas

import "math"

// Centroid is the measured position of a source's light distribution.
// It is a plain value: it keeps no reference to the algorithm that produced it.
type Centroid struct {
	x          float64
	y          float64
	xErr       float64
	yErr       float64
	iterations int
}

// NewCentroid creates centroid value. Used by algorithms and by callers building expected values.
func NewCentroid(x, y, xErr, yErr float64, iterations int) Centroid {
	return Centroid{
		x:          x,
		y:          y,
		xErr:       xErr,
		yErr:       yErr,
		iterations: iterations,
	}
}

// GetX returns column position
func (c Centroid) GetX() float64 {
	return c.x
}

// GetY returns row position
func (c Centroid) GetY() float64 {
	return c.y
}

// GetXErr returns uncertainty on x (NaN when the algorithm does not estimate it)
func (c Centroid) GetXErr() float64 {
	return c.xErr
}

// GetYErr returns uncertainty on y (NaN when the algorithm does not estimate it)
func (c Centroid) GetYErr() float64 {
	return c.yErr
}

// GetIterations returns number of iterations used. Zero for non-iterative algorithms
func (c Centroid) GetIterations() int {
	return c.iterations
}

// GetPoint returns centroid as a Point
func (c Centroid) GetPoint() Point {
	return Point{X: c.x, Y: c.y}
}

// Shape holds second moments of a source's light distribution together with the centre they were measured about.
type Shape struct {
	x          float64
	y          float64
	mxx        float64
	mxy        float64
	myy        float64
	iterations int
}

// NewShape creates shape value
func NewShape(x, y, mxx, mxy, myy float64, iterations int) Shape {
	return Shape{
		x:          x,
		y:          y,
		mxx:        mxx,
		mxy:        mxy,
		myy:        myy,
		iterations: iterations,
	}
}

// GetX returns column of the centre the moments refer to
func (s Shape) GetX() float64 {
	return s.x
}

// GetY returns row of the centre the moments refer to
func (s Shape) GetY() float64 {
	return s.y
}

// GetMxx returns <x^2>
func (s Shape) GetMxx() float64 {
	return s.mxx
}

// GetMxy returns <xy>
func (s Shape) GetMxy() float64 {
	return s.mxy
}

// GetMyy returns <y^2>
func (s Shape) GetMyy() float64 {
	return s.myy
}

// GetIterations returns number of iterations used. Zero for non-iterative algorithms
func (s Shape) GetIterations() int {
	return s.iterations
}

// GetTrace returns Mxx + Myy
func (s Shape) GetTrace() float64 {
	return s.mxx + s.myy
}

// GetE1 returns (Mxx - Myy) / (Mxx + Myy)
func (s Shape) GetE1() float64 {
	trace := s.GetTrace()
	if trace == 0 {
		return 0
	}
	return (s.mxx - s.myy) / trace
}

// GetE2 returns 2 Mxy / (Mxx + Myy)
func (s Shape) GetE2() float64 {
	trace := s.GetTrace()
	if trace == 0 {
		return 0
	}
	return 2 * s.mxy / trace
}

// GetDeterminantRadius returns (Mxx*Myy - Mxy^2)^(1/4)
func (s Shape) GetDeterminantRadius() float64 {
	det := s.mxx*s.myy - s.mxy*s.mxy
	if det <= 0 {
		return 0
	}
	return math.Pow(det, 0.25)
}

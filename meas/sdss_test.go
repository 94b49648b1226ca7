package meas

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

func TestSdssCentroidSinglePixel(t *testing.T) {
	alg := NewSdssCentroid[float32](DefaultConfig().SdssCentroid)
	img := NewImage[float32](100, 100)
	img.Set(10, 20, 1000)

	centroid, err := alg.Apply(img, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(centroid.GetX(), 10, 1e-9) || !closeTo(centroid.GetY(), 20, 1e-9) {
		t.Errorf("Wrong centroid: (%v, %v), expected (10, 20)", centroid.GetX(), centroid.GetY())
	}
	if centroid.GetIterations() != 1 {
		t.Errorf("Isolated peak should need one iteration, got %d", centroid.GetIterations())
	}
}

func TestSdssCentroidGaussian(t *testing.T) {
	alg := NewSdssCentroid[float64](DefaultConfig().SdssCentroid)

	img := NewImage[float64](100, 100)
	AddSource(img, 50.3, 49.6, 1e5, NewGaussianPSF(2))
	centroid, err := alg.Apply(img, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(centroid.GetX(), 50.3, 0.02) || !closeTo(centroid.GetY(), 49.6, 0.02) {
		t.Errorf("Wrong centroid: (%v, %v), expected (50.3, 49.6)", centroid.GetX(), centroid.GetY())
	}

	// Double Gaussian PSF, smoothing width taken from the PSF
	psf := NewDoubleGaussianPSF(1.75, 3.5, 0.1)
	img = NewImage[float64](100, 100)
	AddSource(img, 60.4, 55.2, 1e5, psf)
	centroid, err = alg.Apply(img, 60, 55, WithPSF(psf))
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(centroid.GetX(), 60.4, 0.02) || !closeTo(centroid.GetY(), 55.2, 0.02) {
		t.Errorf("Wrong centroid: (%v, %v), expected (60.4, 55.2)", centroid.GetX(), centroid.GetY())
	}
}

func TestSdssCentroidRecentring(t *testing.T) {
	img := NewImage[float64](100, 100)
	AddSource(img, 48, 50, 1e5, NewGaussianPSF(2))

	alg := NewSdssCentroid[float64](DefaultConfig().SdssCentroid)
	centroid, err := alg.Apply(img, 52, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(centroid.GetX(), 48, eps) || !closeTo(centroid.GetY(), 50, eps) {
		t.Errorf("Wrong centroid: (%v, %v), expected (48, 50)", centroid.GetX(), centroid.GetY())
	}
	if centroid.GetIterations() != 5 {
		t.Errorf("Expected 4 steps plus the final fit, got %d iterations", centroid.GetIterations())
	}

	cfg := DefaultConfig().SdssCentroid
	cfg.MaxIterations = 3
	short := NewSdssCentroid[float64](cfg)
	_, err = short.Apply(img, 52, 50)
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("Expected ErrNonConvergence, got %v", err)
	}
}

func TestSdssCentroidErrors(t *testing.T) {
	alg := NewSdssCentroid[uint8](DefaultConfig().SdssCentroid)

	ramp := NewImage[uint8](100, 100)
	for y := 0; y < ramp.Height(); y++ {
		row := ramp.Row(y)
		for x := range row {
			row[x] = uint8(x)
		}
	}
	cfg := DefaultConfig().SdssCentroid
	cfg.MaxIterations = 3
	_, err := NewSdssCentroid[uint8](cfg).Apply(ramp, 50, 50)
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("Expected ErrNonConvergence on a ramp, got %v", err)
	}

	_, err = alg.Apply(NewImage[uint8](100, 100), 50, 50)
	if !errors.Is(err, ErrNoCounts) {
		t.Errorf("Expected ErrNoCounts, got %v", err)
	}

	img := NewImage[uint8](100, 100)
	img.Set(3, 50, 200)
	_, err = alg.Apply(img, 3, 50)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds for smoothing window crossing the edge, got %v", err)
	}
}

func TestSdssCentroidWideSmoothing(t *testing.T) {
	alg := NewSdssCentroid[float32](DefaultConfig().SdssCentroid)
	img := NewImage[float32](100, 100)
	AddSource(img, 50, 50, 1000, NewGaussianPSF(2))
	for _, sigma := range []float64{20, 1e6, 1e18, math.Inf(1)} {
		_, err := alg.Apply(img, 50, 50, WithPSF(NewGaussianPSF(sigma)))
		if !errors.Is(err, ErrOutOfBounds) {
			t.Errorf("PSF sigma %g: expected ErrOutOfBounds, got %v", sigma, err)
		}
	}
	// Largest width which still fits: 2*(3*7+1)+1 = 45 pixels
	centroid, err := alg.Apply(img, 50, 50, WithPSF(NewGaussianPSF(7)))
	if err != nil {
		t.Fatalf("PSF sigma 7: %v", err)
	}
	if math.Abs(centroid.GetX()-50) > 0.01 || math.Abs(centroid.GetY()-50) > 0.01 {
		t.Errorf("PSF sigma 7: (x, y) = %v, %v, expected 50, 50", centroid.GetX(), centroid.GetY())
	}

	// Not validated config: no kernel is prebuilt, Apply still reports the window
	cfg := DefaultConfig().SdssCentroid
	cfg.Sigma = 1e18
	_, err = NewSdssCentroid[float32](cfg).Apply(img, 50, 50)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Config sigma 1e18: expected ErrOutOfBounds, got %v", err)
	}
}

// ellipticalProfile is an elliptical Gaussian source profile with covariance (sxx, sxy, syy)
type ellipticalProfile struct {
	sxx, sxy, syy float64
}

func (p ellipticalProfile) GetSigma() float64 {
	return math.Sqrt(math.Max(p.sxx, p.syy))
}

func (p ellipticalProfile) Evaluate(dx, dy float64) float64 {
	det := p.sxx*p.syy - p.sxy*p.sxy
	exponent := 0.5 * (p.syy*dx*dx - 2*p.sxy*dx*dy + p.sxx*dy*dy) / det
	return math.Exp(-exponent) / (2 * math.Pi * math.Sqrt(det))
}

func TestSdssShapeSinglePixel(t *testing.T) {
	alg := NewSdssShape[float32](DefaultConfig().SdssShape)
	img := NewImage[float32](100, 100)
	img.Set(10, 20, 1000)

	shape, err := alg.Apply(img, 10, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(shape.GetX(), 10, 1e-9) || !closeTo(shape.GetY(), 20, 1e-9) {
		t.Errorf("Wrong centre: (%v, %v)", shape.GetX(), shape.GetY())
	}
	// A single pixel has the moments of a uniformly lit square: 2 * 1/12
	if !closeTo(shape.GetMxx(), 1.0/6, 1e-9) || !closeTo(shape.GetMyy(), 1.0/6, 1e-9) || !closeTo(shape.GetMxy(), 0, 1e-9) {
		t.Errorf("Wrong moments: %v %v %v", shape.GetMxx(), shape.GetMxy(), shape.GetMyy())
	}
	if shape.GetIterations() != 2 {
		t.Errorf("Expected 2 iterations, got %d", shape.GetIterations())
	}
}

func TestSdssShapeGaussian(t *testing.T) {
	alg := NewSdssShape[float64](DefaultConfig().SdssShape)
	img := NewImage[float64](100, 100)
	AddSource(img, 50.3, 49.6, 1e5, NewGaussianPSF(2))

	shape, err := alg.Apply(img, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(shape.GetX(), 50.3, 1e-3) || !closeTo(shape.GetY(), 49.6, 1e-3) {
		t.Errorf("Wrong centre: (%v, %v)", shape.GetX(), shape.GetY())
	}
	if !closeTo(shape.GetMxx(), 4, 1e-3) || !closeTo(shape.GetMyy(), 4, 1e-3) || !closeTo(shape.GetMxy(), 0, 1e-3) {
		t.Errorf("Wrong moments: %v %v %v", shape.GetMxx(), shape.GetMxy(), shape.GetMyy())
	}
	if !closeTo(shape.GetDeterminantRadius(), 2, 1e-3) {
		t.Errorf("Wrong determinant radius: %v", shape.GetDeterminantRadius())
	}

	// Starting from the right width saves iterations
	withPSF, err := alg.Apply(img, 50, 50, WithPSF(NewGaussianPSF(2)))
	if err != nil {
		t.Fatal(err)
	}
	if withPSF.GetIterations() >= shape.GetIterations() {
		t.Errorf("PSF-seeded weight should converge faster: %d >= %d", withPSF.GetIterations(), shape.GetIterations())
	}
	if !closeTo(withPSF.GetMxx(), 4, 1e-3) {
		t.Errorf("Wrong Mxx with PSF: %v", withPSF.GetMxx())
	}
}

func TestSdssShapeElliptical(t *testing.T) {
	alg := NewSdssShape[float64](DefaultConfig().SdssShape)
	img := NewImage[float64](100, 100)
	AddSource(img, 50, 50, 1e5, ellipticalProfile{sxx: 6, sxy: 1.5, syy: 3})

	shape, err := alg.Apply(img, 50, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(shape.GetMxx(), 6, 0.01) || !closeTo(shape.GetMxy(), 1.5, 0.01) || !closeTo(shape.GetMyy(), 3, 0.01) {
		t.Errorf("Wrong moments: %v %v %v", shape.GetMxx(), shape.GetMxy(), shape.GetMyy())
	}
	if !closeTo(shape.GetE1(), 1.0/3, 1e-3) || !closeTo(shape.GetE2(), 1.0/3, 1e-3) {
		t.Errorf("Wrong ellipticity: %v, %v", shape.GetE1(), shape.GetE2())
	}
}

func TestSdssShapeErrors(t *testing.T) {
	img := NewImage[float64](100, 100)
	AddSource(img, 50.3, 49.6, 1e5, NewGaussianPSF(2))

	cfg := DefaultConfig().SdssShape
	cfg.MaxIterations = 3
	_, err := NewSdssShape[float64](cfg).Apply(img, 50, 50)
	if !errors.Is(err, ErrNonConvergence) {
		t.Errorf("Expected ErrNonConvergence, got %v", err)
	}

	alg := NewSdssShape[float64](DefaultConfig().SdssShape)
	negative := NewImage[float64](100, 100)
	negative.Fill(-5)
	_, err = alg.Apply(negative, 50, 50)
	if !errors.Is(err, ErrNoCounts) {
		t.Errorf("Expected ErrNoCounts, got %v", err)
	}
	_, err = alg.Apply(img, 50, 100)
	if !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}

	// Window is clipped for sources near the edge
	edge := NewImage[float64](100, 100)
	edge.Set(0, 0, 1000)
	shape, err := alg.Apply(edge, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !closeTo(shape.GetX(), 0, 1e-9) || !closeTo(shape.GetY(), 0, 1e-9) {
		t.Errorf("Wrong centre: (%v, %v)", shape.GetX(), shape.GetY())
	}
}

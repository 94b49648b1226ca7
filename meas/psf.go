package meas

import "math"

// PSF describes the point-spread function. Algorithms which do not model the PSF ignore it.
type PSF interface {
	// GetSigma returns width of the equivalent single Gaussian
	GetSigma() float64
	// Evaluate returns normalised profile value at offset (dx, dy) from the centre
	Evaluate(dx, dy float64) float64
}

// GaussianPSF is a circular Gaussian PSF
type GaussianPSF struct {
	sigma float64
}

// NewGaussianPSF creates Gaussian PSF of given width
func NewGaussianPSF(sigma float64) *GaussianPSF {
	return &GaussianPSF{sigma: sigma}
}

// GetSigma returns Gaussian width
func (psf *GaussianPSF) GetSigma() float64 {
	return psf.sigma
}

// Evaluate returns profile at (dx, dy)
func (psf *GaussianPSF) Evaluate(dx, dy float64) float64 {
	return gaussian2D(dx, dy, psf.sigma)
}

// DoubleGaussianPSF is the sum of two concentric circular Gaussians: a core and a wider wing of relative amplitude b
type DoubleGaussianPSF struct {
	sigma1 float64
	sigma2 float64
	b      float64
}

// NewDoubleGaussianPSF creates double Gaussian PSF
func NewDoubleGaussianPSF(sigma1, sigma2, b float64) *DoubleGaussianPSF {
	return &DoubleGaussianPSF{
		sigma1: sigma1,
		sigma2: sigma2,
		b:      b,
	}
}

// GetSigma returns width of the Gaussian with the same second moment
func (psf *DoubleGaussianPSF) GetSigma() float64 {
	return math.Sqrt((psf.sigma1*psf.sigma1 + psf.b*psf.sigma2*psf.sigma2) / (1 + psf.b))
}

// Evaluate returns profile at (dx, dy)
func (psf *DoubleGaussianPSF) Evaluate(dx, dy float64) float64 {
	return (gaussian2D(dx, dy, psf.sigma1) + psf.b*gaussian2D(dx, dy, psf.sigma2)) / (1 + psf.b)
}

func gaussian2D(dx, dy, sigma float64) float64 {
	s2 := sigma * sigma
	return math.Exp(-0.5*(dx*dx+dy*dy)/s2) / (2 * math.Pi * s2)
}

// AddSource renders a source of total flux centred at (x, y) onto the image.
// The profile is sampled at pixel centres out to 5 sigma.
func AddSource[T Pixel](img *Image[T], x, y, flux float64, psf PSF) {
	halfWidth := int(math.Ceil(5 * psf.GetSigma()))
	cx, cy := NewPoint(x, y).Pixel()
	for iy := cy - halfWidth; iy <= cy+halfWidth; iy++ {
		for ix := cx - halfWidth; ix <= cx+halfWidth; ix++ {
			if !img.Contains(ix, iy) {
				continue
			}
			value := float64(img.At(ix, iy)) + flux*psf.Evaluate(float64(ix)-x, float64(iy)-y)
			img.Set(ix, iy, T(value))
		}
	}
}

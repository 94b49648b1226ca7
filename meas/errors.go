package meas

import "github.com/pkg/errors"

var (
	// ErrUnknownAlgorithm is returned when a name is not registered for the requested pixel type
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	// ErrDuplicateRegistration is returned when a (name, pixel type) pair is registered twice
	ErrDuplicateRegistration = errors.New("duplicate algorithm registration")
	// ErrOutOfBounds is returned when the seed position or the measurement window leaves the image
	ErrOutOfBounds = errors.New("measurement window is out of image bounds")
	// ErrNonConvergence is returned when an iterative algorithm exhausts its iteration budget
	ErrNonConvergence = errors.New("algorithm did not converge")
	// ErrNoCounts is returned when the measurement window holds no positive flux
	ErrNoCounts = errors.New("object has no counts")
	// ErrConstruction is returned when an algorithm factory panics or produces nothing
	ErrConstruction = errors.New("algorithm construction failed")
	// ErrInvalidConfig is returned by Config.Validate
	ErrInvalidConfig = errors.New("invalid configuration")
)

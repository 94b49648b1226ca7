package meas

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Algorithm families
const (
	CentroidFamily = "centroid"
	ShapeFamily    = "shape"
)

// Builtin algorithm names. Names are case-sensitive.
const (
	NaiveName = "NAIVE"
	SdssName  = "SDSS"
)

var (
	globalOnce      sync.Once
	globalMu        sync.Mutex
	globalConfig    = DefaultConfig()
	globalStarted   bool
	globalCentroids *Registry
	globalShapes    *Registry
)

// SetDefaultConfig sets parameters of the builtin algorithms of the process-wide registries.
// It only takes effect before the first use of CentroidRegistry, ShapeRegistry or the Create*
// functions; the returned flag tells whether it did.
func SetDefaultConfig(cfg Config) (bool, error) {
	if err := cfg.Validate(); err != nil {
		return false, err
	}
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalStarted {
		return false, nil
	}
	globalConfig = cfg
	return true, nil
}

func initGlobal() {
	globalOnce.Do(func() {
		globalMu.Lock()
		globalStarted = true
		cfg := globalConfig
		globalMu.Unlock()

		globalCentroids = NewRegistry(CentroidFamily)
		globalShapes = NewRegistry(ShapeFamily)
		mustRegisterBuiltins[float32](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[float64](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[int8](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[int16](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[int32](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[int64](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[uint8](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[uint16](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[uint32](globalCentroids, globalShapes, cfg)
		mustRegisterBuiltins[uint64](globalCentroids, globalShapes, cfg)
	})
}

// CentroidRegistry returns the process-wide centroid registry.
// It is created on first use with NAIVE and SDSS registered for every standard pixel type.
func CentroidRegistry() *Registry {
	initGlobal()
	return globalCentroids
}

// ShapeRegistry returns the process-wide shape registry.
// It is created on first use with NAIVE and SDSS registered for every standard pixel type.
func ShapeRegistry() *Registry {
	initGlobal()
	return globalShapes
}

// RegisterBuiltinsInto registers NAIVE and SDSS centroid and shape algorithms for pixel type T.
// Nothing is registered if any of the four is already taken. Concurrent registrations of the
// same names for T may still leave a partial set behind.
func RegisterBuiltinsInto[T Pixel](centroids, shapes *Registry, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	for _, r := range []*Registry{centroids, shapes} {
		for _, name := range []string{NaiveName, SdssName} {
			if Has[T](r, name) {
				return errors.Wrapf(ErrDuplicateRegistration, "%s algorithm %q for pixel type %s", r.Family(), name, reflect.TypeFor[T]())
			}
		}
	}
	if err := RegisterCentroidInto[T](centroids, NaiveName, func() CentroidAlgorithm[T] {
		return NewNaiveCentroid[T](cfg.NaiveCentroid)
	}); err != nil {
		return err
	}
	if err := RegisterCentroidInto[T](centroids, SdssName, func() CentroidAlgorithm[T] {
		return NewSdssCentroid[T](cfg.SdssCentroid)
	}); err != nil {
		return err
	}
	if err := RegisterShapeInto[T](shapes, NaiveName, func() ShapeAlgorithm[T] {
		return NewNaiveShape[T](cfg.NaiveShape)
	}); err != nil {
		return err
	}
	return RegisterShapeInto[T](shapes, SdssName, func() ShapeAlgorithm[T] {
		return NewSdssShape[T](cfg.SdssShape)
	})
}

func mustRegisterBuiltins[T Pixel](centroids, shapes *Registry, cfg Config) {
	if err := RegisterBuiltinsInto[T](centroids, shapes, cfg); err != nil {
		panic(err)
	}
}

// RegisterBuiltins adds the builtin algorithms for a custom pixel type (e.g. a named ~float32) to the process-wide registries
func RegisterBuiltins[T Pixel]() error {
	initGlobal()
	globalMu.Lock()
	cfg := globalConfig
	globalMu.Unlock()
	return RegisterBuiltinsInto[T](globalCentroids, globalShapes, cfg)
}

// RegisterCentroidInto registers centroid algorithm factory for pixel type T
func RegisterCentroidInto[T Pixel](r *Registry, name string, factory func() CentroidAlgorithm[T]) error {
	return Register[T](r, name, factory)
}

// RegisterShapeInto registers shape algorithm factory for pixel type T
func RegisterShapeInto[T Pixel](r *Registry, name string, factory func() ShapeAlgorithm[T]) error {
	return Register[T](r, name, factory)
}

// CreateCentroidFrom returns the shared centroid algorithm instance registered in r
func CreateCentroidFrom[T Pixel](r *Registry, name string) (CentroidAlgorithm[T], error) {
	return Create[T, CentroidAlgorithm[T]](r, name)
}

// CreateShapeFrom returns the shared shape algorithm instance registered in r
func CreateShapeFrom[T Pixel](r *Registry, name string) (ShapeAlgorithm[T], error) {
	return Create[T, ShapeAlgorithm[T]](r, name)
}

// RegisterCentroid registers centroid algorithm in the process-wide registry
func RegisterCentroid[T Pixel](name string, factory func() CentroidAlgorithm[T]) error {
	return RegisterCentroidInto[T](CentroidRegistry(), name, factory)
}

// RegisterShape registers shape algorithm in the process-wide registry
func RegisterShape[T Pixel](name string, factory func() ShapeAlgorithm[T]) error {
	return RegisterShapeInto[T](ShapeRegistry(), name, factory)
}

// CreateCentroid returns the shared centroid algorithm called name for pixel type T.
// Repeated calls with the same (name, T) return the identical instance.
func CreateCentroid[T Pixel](name string) (CentroidAlgorithm[T], error) {
	return CreateCentroidFrom[T](CentroidRegistry(), name)
}

// CreateShape returns the shared shape algorithm called name for pixel type T.
// Repeated calls with the same (name, T) return the identical instance.
func CreateShape[T Pixel](name string) (ShapeAlgorithm[T], error) {
	return CreateShapeFrom[T](ShapeRegistry(), name)
}

package meas

import (
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// slotKey identifies a registration: algorithm name plus pixel type
type slotKey struct {
	name  string
	pixel reflect.Type
}

// slot holds the factory and the lazily created shared instance.
// A failed construction is remembered in err and never retried.
type slot struct {
	once     sync.Once
	factory  func() any
	instance any
	err      error
}

// construct runs the factory, turning a panic or a nil instance into err
func (s *slot) construct() {
	defer func() {
		if recovered := recover(); recovered != nil {
			s.instance = nil
			s.err = errors.Errorf("factory panicked: %v", recovered)
		}
	}()
	s.instance = s.factory()
	if s.instance == nil {
		s.err = errors.New("factory returned nil")
	}
}

// Registry maps algorithm names of a single family (centroid, shape, ...) to
// per pixel type factories. Every (name, pixel type) pair yields at most one
// instance for the lifetime of the registry; it is created on first Create.
//
// Registries are independent of each other and safe for concurrent use.
type Registry struct {
	family    string
	mu        sync.RWMutex
	slots     map[slotKey]*slot
	names     map[string][]reflect.Type
	instances atomic.Int64
}

// NewRegistry creates empty registry for given algorithm family
func NewRegistry(family string) *Registry {
	return &Registry{
		family: family,
		slots:  make(map[slotKey]*slot),
		names:  make(map[string][]reflect.Type),
	}
}

// Family returns family name of the registry
func (r *Registry) Family() string {
	return r.family
}

// Names returns registered algorithm names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.names))
	for name := range r.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns pixel types the name is registered for, ordered by type name
func (r *Registry) Lookup(name string) ([]reflect.Type, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	pixels, ok := r.names[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%s algorithm %q", r.family, name)
	}
	result := make([]reflect.Type, len(pixels))
	copy(result, pixels)
	sort.Slice(result, func(i, j int) bool {
		return result[i].String() < result[j].String()
	})
	return result, nil
}

// Instances returns number of algorithm instances constructed so far
func (r *Registry) Instances() int64 {
	return r.instances.Load()
}

// Has reports whether name is registered for pixel type T
func Has[T Pixel](r *Registry, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.slots[slotKey{name: name, pixel: reflect.TypeFor[T]()}]
	return ok
}

// Register records that algorithm name is available for pixel type T.
// The factory is not called until the first Create for (name, T).
func Register[T Pixel, A any](r *Registry, name string, factory func() A) error {
	if name == "" {
		return errors.Errorf("Can't register %s algorithm with empty name", r.family)
	}
	if factory == nil {
		return errors.Errorf("Can't register %s algorithm %q with nil factory", r.family, name)
	}
	key := slotKey{name: name, pixel: reflect.TypeFor[T]()}

	r.mu.Lock()
	if _, ok := r.slots[key]; ok {
		r.mu.Unlock()
		return errors.Wrapf(ErrDuplicateRegistration, "%s algorithm %q for pixel type %s", r.family, name, key.pixel)
	}
	r.slots[key] = &slot{
		factory: func() any {
			return factory()
		},
	}
	r.names[name] = append(r.names[name], key.pixel)
	r.mu.Unlock()

	log := componentLogger("registry")
	log.Debug().Str("family", r.family).Str("algorithm", name).Str("pixel", key.pixel.String()).Msg("algorithm registered")
	return nil
}

// MustRegister is like Register but panics on error: an ambiguous registry is a programming error
func MustRegister[T Pixel, A any](r *Registry, name string, factory func() A) {
	if err := Register[T](r, name, factory); err != nil {
		panic(err)
	}
}

// Create returns the shared instance of algorithm name for pixel type T, constructing it on first call.
// Concurrent first calls construct exactly one instance and all observe it.
func Create[T Pixel, A any](r *Registry, name string) (A, error) {
	var zero A
	key := slotKey{name: name, pixel: reflect.TypeFor[T]()}

	r.mu.RLock()
	s, ok := r.slots[key]
	_, known := r.names[name]
	r.mu.RUnlock()
	if !ok {
		log := componentLogger("factory")
		log.Debug().Str("family", r.family).Str("algorithm", name).Str("pixel", key.pixel.String()).Msg("unknown algorithm requested")
		if known {
			return zero, errors.Wrapf(ErrUnknownAlgorithm, "%s algorithm %q is not registered for pixel type %s", r.family, name, key.pixel)
		}
		return zero, errors.Wrapf(ErrUnknownAlgorithm, "%s algorithm %q", r.family, name)
	}

	s.once.Do(func() {
		s.construct()
		log := componentLogger("factory")
		if s.err != nil {
			log.Error().Err(s.err).Str("family", r.family).Str("algorithm", name).Str("pixel", key.pixel.String()).Msg("algorithm construction failed")
			return
		}
		r.instances.Add(1)
		event := log.Debug().Str("family", r.family).Str("algorithm", name).Str("pixel", key.pixel.String())
		if identified, ok := s.instance.(interface{ GetID() uuid.UUID }); ok {
			event = event.Stringer("instance", identified.GetID())
		}
		event.Msg("algorithm instance created")
	})
	if s.err != nil {
		return zero, errors.Wrapf(ErrConstruction, "%s algorithm %q for pixel type %s: %v", r.family, name, key.pixel, s.err)
	}

	alg, ok := s.instance.(A)
	if !ok {
		return zero, errors.Wrapf(ErrUnknownAlgorithm, "%s algorithm %q for pixel type %s is %T, not %s", r.family, name, key.pixel, s.instance, reflect.TypeFor[A]())
	}
	return alg, nil
}

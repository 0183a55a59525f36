// Package results provides the dual-mode output path for pipeline instances:
// primitive key/value telemetry transported verbatim, and structured final
// result objects encoded into tagged binary envelopes a statically-typed
// remote client can decode safely.
package results

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Factory creates a zero-value instance of a final result type. The robot
// client uses it to decode envelopes without knowing concrete types at the
// call site.
type Factory func() any

// Registration holds the factory and metadata for one final result type.
// Registered once at startup per result type; the returned name acts as the
// opaque registration handle used by SetFinalResult.
type Registration struct {
	Name        string  `json:"name"`        // Wire type tag (e.g. "apriltag-result")
	Factory     Factory `json:"-"`           // Factory function (not serializable)
	Description string  `json:"description"` // Human-readable description

	goType reflect.Type // derived from a factory sample at registration
}

// Registry manages final result type registrations. It provides thread-safe
// registration and lookup both by wire name and by Go type, enabling
// SetFinalResult to resolve the tag for an arbitrary result object.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Registration
	byType map[reflect.Type]string
}

// NewRegistry creates a new empty result type registry
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]*Registration),
		byType: make(map[reflect.Type]string),
	}
}

// Register registers a final result type with validation. Returns the wire
// name as the registration handle, or an error if the name or Go type is
// already registered.
func (r *Registry) Register(reg *Registration) (string, error) {
	if reg == nil {
		return "", errors.WrapRegistry(errors.ErrInvalidConfig, "ResultRegistry", "Register", "registration validation")
	}
	if reg.Name == "" {
		return "", errors.WrapRegistry(errors.ErrInvalidConfig, "ResultRegistry", "Register", "name validation")
	}
	if reg.Factory == nil {
		return "", errors.WrapRegistry(errors.ErrInvalidConfig, "ResultRegistry", "Register", "factory validation")
	}

	sample := reg.Factory()
	t := indirectType(reflect.TypeOf(sample))
	if t == nil || t.Kind() != reflect.Struct {
		return "", errors.WrapRegistry(
			fmt.Errorf("%w: factory for %q must produce a struct, got %T", errors.ErrInvalidConfig, reg.Name, sample),
			"ResultRegistry", "Register", "factory sample validation")
	}
	reg.goType = t

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[reg.Name]; exists {
		return "", errors.WrapRegistry(
			fmt.Errorf("%w: %q", errors.ErrDuplicateType, reg.Name),
			"ResultRegistry", "Register", "duplicate name check")
	}
	if existing, exists := r.byType[t]; exists {
		return "", errors.WrapRegistry(
			fmt.Errorf("%w: %v already registered as %q", errors.ErrDuplicateType, t, existing),
			"ResultRegistry", "Register", "duplicate type check")
	}

	r.byName[reg.Name] = reg
	r.byType[t] = reg.Name
	return reg.Name, nil
}

// NameFor resolves the registered wire name for a result object's type
func (r *Registry) NameFor(v any) (string, bool) {
	t := indirectType(reflect.TypeOf(v))
	if t == nil {
		return "", false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	name, ok := r.byType[t]
	return name, ok
}

// New creates a zero-value instance of the named result type.
// Returns nil if the name is not registered.
func (r *Registry) New(name string) any {
	r.mu.RLock()
	reg, ok := r.byName[name]
	r.mu.RUnlock()

	if !ok {
		return nil
	}
	return reg.Factory()
}

// Lookup returns the registration for a wire name without the factory,
// preventing external mutation of the creation path.
func (r *Registry) Lookup(name string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return &Registration{
		Name:        reg.Name,
		Description: reg.Description,
		goType:      reg.goType,
	}, true
}

// Names returns all registered wire names
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

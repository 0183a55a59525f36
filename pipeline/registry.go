// Package pipeline provides the pipeline type registry and pipeline
// instances. Types are discovered in an explicit host-driven pass and bound
// to per-camera instances, each owning its own settings collection and
// results channel.
package pipeline

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/DanPeled/Synapse-sub001/errors"
	"github.com/DanPeled/Synapse-sub001/setting"
)

// Phase is the discovery state of the registry
type Phase int

// Discovery pass states. A pass moves Empty -> Scanning -> Populated;
// re-discovery moves Populated -> Scanning and replaces the set wholesale
// on completion, never mutating it partially.
const (
	PhaseEmpty Phase = iota
	PhaseScanning
	PhasePopulated
)

// String returns the string representation of Phase
func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseScanning:
		return "scanning"
	case PhasePopulated:
		return "populated"
	default:
		return "unknown"
	}
}

// SettingsFactory produces a pipeline type's own setting fields. It is
// invoked once per instance construction so every instance owns fresh
// fields, and once at registration to validate the declaration.
type SettingsFactory func() ([]*setting.Field, error)

// TypeDescriptor declares one discoverable pipeline implementation
type TypeDescriptor struct {
	TypeID      string          // Stable type identifier (e.g. "apriltag")
	Description string          // Human-readable description
	Settings    SettingsFactory // Pipeline-specific setting fields
	ResultTypes []string        // Registered final result wire names, if any
}

// Registry manages pipeline type descriptors. It is append-only during a
// discovery pass and swapped wholesale when the pass completes, so instance
// construction never observes a partially-registered set.
type Registry struct {
	mu           sync.RWMutex
	phase        Phase
	types        map[string]*TypeDescriptor
	order        []string
	pending      map[string]*TypeDescriptor
	pendingOrder []string
	logger       *slog.Logger
}

// NewRegistry creates an empty pipeline type registry
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		phase:  PhaseEmpty,
		logger: logger.With("component", "pipeline-registry"),
	}
}

// Phase returns the current discovery state
func (r *Registry) Phase() Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

// BeginDiscovery starts a discovery pass. Registrations accumulate in a
// pending set invisible to Resolve until CompleteDiscovery.
func (r *Registry) BeginDiscovery() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseScanning {
		return errors.WrapRegistry(
			errors.ErrRegistryScanning, "Registry", "BeginDiscovery", "phase check")
	}

	r.phase = PhaseScanning
	r.pending = make(map[string]*TypeDescriptor)
	r.pendingOrder = nil
	return nil
}

// Register adds a candidate pipeline type to the current discovery pass.
// The candidate's settings declaration is validated by building a pipeline
// collection from it; a malformed declaration fails with a schema error so
// the caller can skip this candidate and continue the pass.
func (r *Registry) Register(td *TypeDescriptor) error {
	if td == nil || td.TypeID == "" {
		return errors.WrapRegistry(errors.ErrInvalidConfig, "Registry", "Register", "descriptor validation")
	}
	if td.Settings == nil {
		return errors.WrapSchema(
			fmt.Errorf("%w: type %q has no settings factory", errors.ErrInvalidSchema, td.TypeID),
			"Registry", "Register", "settings factory validation")
	}

	// Validate the declaration before touching registry state
	fields, err := td.Settings()
	if err != nil {
		return errors.WrapSchema(
			fmt.Errorf("type %q: %w", td.TypeID, err),
			"Registry", "Register", "settings declaration")
	}
	if _, err := setting.NewPipelineCollection(fields...); err != nil {
		return errors.WrapSchema(
			fmt.Errorf("type %q: %w", td.TypeID, err),
			"Registry", "Register", "settings collection validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseScanning {
		return errors.WrapRegistry(
			fmt.Errorf("%w: register outside discovery pass", errors.ErrRegistryScanning),
			"Registry", "Register", "phase check")
	}
	if _, exists := r.pending[td.TypeID]; exists {
		return errors.WrapRegistry(
			fmt.Errorf("%w: %q", errors.ErrDuplicateType, td.TypeID),
			"Registry", "Register", "duplicate type check")
	}

	r.pending[td.TypeID] = td
	r.pendingOrder = append(r.pendingOrder, td.TypeID)
	return nil
}

// CompleteDiscovery finishes the pass, atomically replacing the visible
// type set with the accumulated pending set.
func (r *Registry) CompleteDiscovery() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseScanning {
		return
	}

	r.types = r.pending
	r.order = r.pendingOrder
	r.pending = nil
	r.pendingOrder = nil
	r.phase = PhasePopulated

	r.logger.Info("discovery pass complete", "types", len(r.types))
}

// Discover runs a full discovery pass over candidate descriptors. A failing
// candidate is skipped and its error collected; it never aborts the pass.
func (r *Registry) Discover(candidates []*TypeDescriptor) []error {
	if err := r.BeginDiscovery(); err != nil {
		return []error{err}
	}

	var skipped []error
	for _, td := range candidates {
		if err := r.Register(td); err != nil {
			id := "<nil>"
			if td != nil {
				id = td.TypeID
			}
			r.logger.Warn("skipping pipeline type", "type", id, "error", err)
			skipped = append(skipped, err)
		}
	}
	r.CompleteDiscovery()
	return skipped
}

// Resolve looks up a pipeline type by its identifier. It refuses while a
// discovery pass is in progress so construction never sees a partial set.
func (r *Registry) Resolve(typeID string) (*TypeDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.phase == PhaseScanning {
		return nil, errors.WrapRegistry(
			errors.ErrRegistryScanning, "Registry", "Resolve", "phase check")
	}
	td, ok := r.types[typeID]
	if !ok {
		return nil, errors.WrapRegistry(
			fmt.Errorf("%w: %q", errors.ErrUnknownType, typeID),
			"Registry", "Resolve", "type lookup")
	}
	return td, nil
}

// TypeIDs returns the registered type identifiers in registration order.
// The position of a type in this list is its selector index on the
// substrate's pipeline leaf.
func (r *Registry) TypeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// IndexOf returns a type's selector index, or -1 when absent
func (r *Registry) IndexOf(typeID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, id := range r.order {
		if id == typeID {
			return i
		}
	}
	return -1
}

// TypeAt returns the type identifier at a selector index
func (r *Registry) TypeAt(index int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 0 || index >= len(r.order) {
		return "", errors.WrapRegistry(
			fmt.Errorf("%w: index %d", errors.ErrUnknownType, index),
			"Registry", "TypeAt", "index lookup")
	}
	return r.order[index], nil
}

// Len returns the number of registered types
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types)
}

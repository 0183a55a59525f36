package results

import (
	"fmt"
	"maps"
	"sync"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Channel is a pipeline instance's output path. Primitive entries form an
// open-ended map merged across frames (a key persists until overwritten);
// the final result is a single envelope replaced last-write-wins. Writes
// never touch settings state.
//
// A rejected final result write retains the previous envelope so the robot
// client keeps seeing the last good result instead of a flickering gap.
type Channel struct {
	mu         sync.RWMutex
	registry   *Registry
	allowed    map[string]bool
	primitives map[string]any
	final      *Envelope
}

// NewChannel creates a results channel. allowedTypes lists the registered
// final result type names this pipeline may publish; an empty list means the
// pipeline declares no final result type and every SetFinalResult fails.
func NewChannel(registry *Registry, allowedTypes ...string) *Channel {
	allowed := make(map[string]bool, len(allowedTypes))
	for _, t := range allowedTypes {
		allowed[t] = true
	}
	return &Channel{
		registry:   registry,
		allowed:    allowed,
		primitives: make(map[string]any),
	}
}

// SetPrimitive stores or overwrites one telemetry entry. The value must be
// an int, float, bool, string, byte-sequence, or homogeneous array thereof;
// it is transported verbatim, without serialization.
func (ch *Channel) SetPrimitive(key string, value any) error {
	if key == "" {
		return errors.WrapSerialization(
			fmt.Errorf("%w: empty key", errors.ErrUnsupportedPrimitive),
			"Channel", "SetPrimitive", "key validation")
	}
	if err := ValidatePrimitive(value); err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.primitives[key] = value
	return nil
}

// SetFinalResult encodes a result object into the channel's envelope slot,
// replacing any previous final result. The object's type must be registered
// as a final result type permitted for this pipeline. On any failure the
// previous envelope is retained.
func (ch *Channel) SetFinalResult(v any) error {
	if ch.registry == nil {
		return errors.WrapSerialization(
			errors.ErrUnregisteredResultType, "Channel", "SetFinalResult", "registry lookup")
	}

	name, ok := ch.registry.NameFor(v)
	if !ok {
		return errors.WrapSerialization(
			fmt.Errorf("%w: %T", errors.ErrUnregisteredResultType, v),
			"Channel", "SetFinalResult", "type lookup")
	}
	if !ch.allowed[name] {
		return errors.WrapSerialization(
			fmt.Errorf("%w: %q is not declared by this pipeline", errors.ErrUnregisteredResultType, name),
			"Channel", "SetFinalResult", "pipeline type check")
	}

	env, err := Encode(name, v)
	if err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.final = env
	return nil
}

// Primitives returns a snapshot copy of the current telemetry map
func (ch *Channel) Primitives() map[string]any {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	snap := make(map[string]any, len(ch.primitives))
	maps.Copy(snap, ch.primitives)
	return snap
}

// FinalResult returns the current envelope, or ok=false when none is set
func (ch *Channel) FinalResult() (*Envelope, bool) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if ch.final == nil {
		return nil, false
	}
	cp := *ch.final
	return &cp, true
}

// Clear wipes all channel state; called on instance teardown
func (ch *Channel) Clear() {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	ch.primitives = make(map[string]any)
	ch.final = nil
}

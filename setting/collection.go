package setting

import (
	"fmt"
	"sync"

	"github.com/DanPeled/Synapse-sub001/errors"
)

// Collection is an ordered mapping of setting name to Field plus the current
// canonical values. Invariants: the value set and the field set always have
// identical keys, and every stored value has passed its field's constraint.
//
// A Collection is safe for concurrent use; the frame-processing worker reads
// while the reconciliation loop applies proposed writes. Locking is
// per-collection, never global.
type Collection struct {
	mu     sync.RWMutex
	fields []*Field
	index  map[string]int
	values map[string]any
}

// Builder accumulates field declarations into a Collection. It collects the
// first declaration error and reports it at Build so call sites can chain
// Add without per-call checks.
type Builder struct {
	fields []*Field
	err    error
}

// NewBuilder creates an empty collection builder
func NewBuilder() *Builder {
	return &Builder{}
}

// Add declares a field from its configuration
func (b *Builder) Add(cfg FieldConfig) *Builder {
	if b.err != nil {
		return b
	}
	f, err := NewField(cfg)
	if err != nil {
		b.err = err
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

// AddField appends an already-constructed field
func (b *Builder) AddField(f *Field) *Builder {
	if b.err != nil {
		return b
	}
	if f == nil {
		b.err = errors.WrapSchema(errors.ErrInvalidSchema, "Builder", "AddField", "field validation")
		return b
	}
	b.fields = append(b.fields, f)
	return b
}

// Build finalizes the collection, seeding every value with its field's
// default. Duplicate field names are a schema error.
func (b *Builder) Build() (*Collection, error) {
	if b.err != nil {
		return nil, b.err
	}

	c := &Collection{
		fields: make([]*Field, 0, len(b.fields)),
		index:  make(map[string]int, len(b.fields)),
		values: make(map[string]any, len(b.fields)),
	}
	for _, f := range b.fields {
		if _, exists := c.index[f.Name]; exists {
			return nil, errors.WrapSchema(
				fmt.Errorf("%w: %q", errors.ErrDuplicateField, f.Name),
				"Builder", "Build", "duplicate field check")
		}
		c.index[f.Name] = len(c.fields)
		c.fields = append(c.fields, f)
		c.values[f.Name] = deepCopy(f.Default)
	}
	return c, nil
}

// ValidateAndApply validates a proposed value for the named setting and, on
// success, stores and returns the canonical value. On failure the previous
// value remains authoritative. This is the only path by which external
// processes may mutate a setting; substrate writes that bypass it must be
// re-validated through here before being trusted.
func (c *Collection) ValidateAndApply(name string, raw any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[name]
	if !ok {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: %q", errors.ErrUnknownSetting, name),
			"Collection", "ValidateAndApply", "setting lookup")
	}

	canonical, err := c.fields[i].Constraint.Validate(raw)
	if err != nil {
		return nil, errors.Wrap(err, "Collection", "ValidateAndApply", name+" validation")
	}

	c.values[name] = canonical
	return canonical, nil
}

// Get returns the current canonical value for a setting
func (c *Collection) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.values[name]
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// Reset restores a setting to its field's default, returning the default.
func (c *Collection) Reset(name string) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.index[name]
	if !ok {
		return nil, errors.WrapConstraint(
			fmt.Errorf("%w: %q", errors.ErrUnknownSetting, name),
			"Collection", "Reset", "setting lookup")
	}
	def := deepCopy(c.fields[i].Default)
	c.values[name] = def
	return deepCopy(def), nil
}

// Snapshot returns an immutable copy of the current values for publication.
// It never exposes live references into the collection.
func (c *Collection) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := make(map[string]any, len(c.values))
	for name, v := range c.values {
		snap[name] = deepCopy(v)
	}
	return snap
}

// Schema returns the published description of every field in declared order
func (c *Collection) Schema() []FieldSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()

	schema := make([]FieldSchema, len(c.fields))
	for i, f := range c.fields {
		schema[i] = f.Schema()
	}
	return schema
}

// Names returns the setting names in declared order
func (c *Collection) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, len(c.fields))
	for i, f := range c.fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether the collection declares the named setting
func (c *Collection) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, ok := c.index[name]
	return ok
}

// Len returns the number of declared fields
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.fields)
}

// deepCopy copies the container shapes canonical values can take so snapshot
// readers can never corrupt canonical state.
func deepCopy(v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = deepCopy(e)
		}
		return out
	case [][]float64:
		out := make([][]float64, len(t))
		for i, row := range t {
			out[i] = append([]float64(nil), row...)
		}
		return out
	case []float64:
		return append([]float64(nil), t...)
	case []byte:
		return append([]byte(nil), t...)
	default:
		return v
	}
}

package field

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/leapcollect/pkg/core"
)

// Factory builds a field variant around a populated Base.
// Factories set the column type and return the variant.
type Factory func(b *Base) Field

// Registry maps type names to factories. The zero value is empty; use
// NewRegistry for one preloaded with the built-in types.
type Registry struct {
	mu        sync.RWMutex
	factories map[Type]Factory
}

// NewRegistry returns a registry with all built-in field types registered.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[Type]Factory)}
	r.Register(TypeString, newStringField)
	r.Register(TypeText, newTextField)
	r.Register(TypeInteger, newIntegerField)
	r.Register(TypeBigInt, newBigIntField)
	r.Register(TypeDecimal, newDecimalField)
	r.Register(TypeBoolean, newBooleanField)
	r.Register(TypeDate, newDateField)
	r.Register(TypeDateTime, newDateTimeField)
	r.Register(TypeTimestamp, newTimestampField)
	r.Register(TypeJSON, newJSONField)
	r.Register(TypeFile, newFileField)
	r.Register(TypeImage, newImageField)
	r.Register(TypeSelect, newChoiceField)
	r.Register(TypeRadio, newChoiceField)
	r.Register(TypeCheckbox, newCheckboxField)
	return r
}

// Register adds or replaces a factory.
func (r *Registry) Register(t Type, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.factories == nil {
		r.factories = make(map[Type]Factory)
	}
	r.factories[normalizeType(t)] = factory
}

// Has reports whether a type is registered.
func (r *Registry) Has(t Type) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[normalizeType(t)]
	return ok
}

// Types returns all registered type names (sorted).
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for t := range r.factories {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// Create builds a field of the given type. The title, nullable and default keys
// of options configure the field itself; every other key is a constraint.
func (r *Registry) Create(t Type, name string, options map[string]any) (Field, error) {
	t = normalizeType(t)

	r.mu.RLock()
	factory, ok := r.factories[t]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownFieldTypeError{Type: string(t), Available: r.Types()}
	}

	if err := core.ValidateIdentifier("field", name); err != nil {
		return nil, err
	}

	b := &Base{name: name, typ: t}
	constraints := make(map[string]any, len(options))
	for k, v := range options {
		switch k {
		case KeyTitle:
			if s, ok := v.(string); ok {
				b.title = s
			}
		case KeyNullable:
			b.nullable = truthy(v)
		case KeyDefault:
			b.def = normalizeValue(v)
		default:
			constraints[k] = v
		}
	}
	if b.title == "" {
		b.title = DefaultTitle(name)
	}

	opts, err := DecodeOptions(constraints)
	if err != nil {
		return nil, &core.DefinitionError{Kind: "field", Name: name, Reason: err.Error()}
	}
	if err := checkOptions(opts); err != nil {
		return nil, &core.DefinitionError{Kind: "field", Name: name, Reason: err.Error()}
	}
	b.opts = opts

	return factory(b), nil
}

// FromDefinition rebuilds a field from its serialized form.
// The stored DBType is ignored; it is re-derived from type and options.
func (r *Registry) FromDefinition(d Definition) (Field, error) {
	options := make(map[string]any, len(d.Options)+3)
	for k, v := range d.Options {
		options[k] = v
	}
	options[KeyTitle] = d.Title
	options[KeyNullable] = d.Nullable
	if d.Default != nil {
		options[KeyDefault] = d.Default
	}
	return r.Create(d.Type, d.Name, options)
}

func checkOptions(o Options) error {
	positive := map[string]*int{"length": o.Length, "max_length": o.MaxLength, "precision": o.Precision}
	for key, v := range positive {
		if v != nil && *v <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if o.MinLength != nil && *o.MinLength < 0 {
		return fmt.Errorf("min_length must not be negative")
	}
	if o.MinLength != nil && o.MaxLength != nil && *o.MinLength > *o.MaxLength {
		return fmt.Errorf("min_length %d exceeds max_length %d", *o.MinLength, *o.MaxLength)
	}
	if o.Scale != nil && *o.Scale < 0 {
		return fmt.Errorf("scale must not be negative")
	}
	if o.Precision != nil && o.Scale != nil && *o.Scale > *o.Precision {
		return fmt.Errorf("scale %d exceeds precision %d", *o.Scale, *o.Precision)
	}
	if o.Minimum != nil && o.Maximum != nil && *o.Minimum > *o.Maximum {
		return fmt.Errorf("minimum exceeds maximum")
	}
	if o.Pattern != "" {
		if _, err := compilePattern(o.Pattern); err != nil {
			return fmt.Errorf("invalid pattern: %w", err)
		}
	}
	return nil
}

func normalizeType(t Type) Type {
	return Type(strings.ToLower(strings.TrimSpace(string(t))))
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		switch strings.ToLower(x) {
		case "1", "true", "yes", "on":
			return true
		}
		return false
	}
	n, ok := toInt64(v)
	return ok && n != 0
}

// UnknownFieldTypeError is returned when a field type has no registered factory.
type UnknownFieldTypeError struct {
	Type      string
	Available []string
}

func (e *UnknownFieldTypeError) Error() string {
	return fmt.Sprintf("unknown field type %q\nAvailable types: %v", e.Type, e.Available)
}

package field

import (
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/go-viper/mapstructure/v2"
	"github.com/goccy/go-json"
)

// Options are the constraints a field validates against and derives its
// column type from. Unset numeric options are nil.
type Options struct {
	MinLength         *int           `mapstructure:"min_length"`
	MaxLength         *int           `mapstructure:"max_length"`
	Length            *int           `mapstructure:"length"`
	Precision         *int           `mapstructure:"precision"`
	Scale             *int           `mapstructure:"scale"`
	Minimum           *float64       `mapstructure:"minimum"`
	Maximum           *float64       `mapstructure:"maximum"`
	Enum              []any          `mapstructure:"enum"`
	Pattern           string         `mapstructure:"pattern"`
	AllowedExtensions []string       `mapstructure:"allowed_extensions"`
	MaxSize           *int64         `mapstructure:"max_size"`
	MaxWidth          *int           `mapstructure:"max_width"`
	MaxHeight         *int           `mapstructure:"max_height"`
	Unsigned          bool           `mapstructure:"unsigned"`
	Extra             map[string]any `mapstructure:",remain"`
}

// DecodeOptions decodes a loosely typed option map (from YAML, JSON or CLI
// flags) into Options. Strings are coerced to numbers where needed and a
// comma separated string is accepted for allowed_extensions.
func DecodeOptions(raw map[string]any) (Options, error) {
	var opts Options
	if len(raw) == 0 {
		return opts, nil
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		Result:           &opts,
	})
	if err != nil {
		return opts, fmt.Errorf("failed to create options decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return opts, fmt.Errorf("failed to decode field options: %w", err)
	}

	for i, v := range opts.Enum {
		opts.Enum[i] = normalizeValue(v)
	}
	for k, v := range opts.Extra {
		opts.Extra[k] = normalizeValue(v)
	}
	if len(opts.Extra) == 0 {
		opts.Extra = nil
	}
	return opts, nil
}

// Map returns the options as a plain map containing only the keys that are set.
// The result decodes back to an identical Options value.
func (o Options) Map() map[string]any {
	m := make(map[string]any)
	for k, v := range o.Extra {
		m[k] = v
	}
	setInt := func(key string, v *int) {
		if v != nil {
			m[key] = int64(*v)
		}
	}
	setInt("min_length", o.MinLength)
	setInt("max_length", o.MaxLength)
	setInt("length", o.Length)
	setInt("precision", o.Precision)
	setInt("scale", o.Scale)
	setInt("max_width", o.MaxWidth)
	setInt("max_height", o.MaxHeight)
	if o.MaxSize != nil {
		m["max_size"] = *o.MaxSize
	}
	if o.Minimum != nil {
		m["minimum"] = normalizeValue(*o.Minimum)
	}
	if o.Maximum != nil {
		m["maximum"] = normalizeValue(*o.Maximum)
	}
	if len(o.Enum) > 0 {
		enum := make([]any, len(o.Enum))
		copy(enum, o.Enum)
		m["enum"] = enum
	}
	if o.Pattern != "" {
		m["pattern"] = o.Pattern
	}
	if len(o.AllowedExtensions) > 0 {
		exts := make([]any, len(o.AllowedExtensions))
		for i, e := range o.AllowedExtensions {
			exts[i] = e
		}
		m["allowed_extensions"] = exts
	}
	if o.Unsigned {
		m["unsigned"] = true
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// normalizeValue folds the numeric representations produced by the various
// decoders (int, float64 from JSON, json.Number, uint64 from YAML) onto int64
// for integral values and float64 otherwise, recursively through maps and slices.
// It keeps definitions value-equal after a persistence round trip.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool:
		return x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = normalizeValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = normalizeValue(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u <= math.MaxInt64 {
			return int64(u)
		}
		return strconv.FormatUint(u, 10)
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = normalizeValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = normalizeValue(iter.Value().Interface())
		}
		return out
	}
	return v
}

func normalizeFloat(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<53 {
		return int64(f)
	}
	return f
}

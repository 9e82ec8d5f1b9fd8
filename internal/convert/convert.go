// Package convert coerces values between incompatible primitive, temporal,
// enumerated and collection representations. Conversion failures are
// recoverable by contract: the caller logs the error and keeps the original
// value.
package convert

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"objmap/internal/meta"
)

// ErrCannotConvert is the sentinel wrapped by unsupported coercions.
var ErrCannotConvert = errors.New("convert: unsupported coercion")

var (
	timeType     = reflect.TypeOf(time.Time{})
	durationType = reflect.TypeOf(time.Duration(0))
	stringerType = reflect.TypeOf((*fmt.Stringer)(nil)).Elem()
)

// Converter performs directive-aware type coercion.
type Converter struct {
	log hclog.Logger
}

// New creates a converter.
func New(log hclog.Logger) *Converter {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Converter{log: log.Named("convert")}
}

// Convert coerces val to the target type. A no-op when val already satisfies
// the target. On an unsupported coercion the original value is returned with
// a non-nil error; the caller decides whether to keep or drop it. Enum
// lookups that fail return an *InvalidEnumError.
func (c *Converter) Convert(val reflect.Value, target reflect.Type, d meta.Directives) (reflect.Value, error) {
	if !val.IsValid() {
		return val, nil
	}
	for target.Kind() == reflect.Pointer {
		target = target.Elem()
	}
	val = meta.DerefValue(val)
	if !val.IsValid() {
		return val, nil
	}

	// Directive-declared transformers run before coercion.
	if d.Transform != "" && val.Kind() == reflect.String {
		if fn, ok := transformerFor(d.Transform); ok {
			val = reflect.ValueOf(fn(val.String())).Convert(val.Type())
		} else {
			c.log.Debug("unknown transformer", "name", d.Transform)
		}
	}

	if val.Type().AssignableTo(target) {
		return val, nil
	}

	if out, err, handled := c.convertEnum(val, target); handled {
		return out, err
	}
	if out, ok := c.convertTemporal(val, target, d); ok {
		return out, nil
	}
	if out, ok := convertBool(val, target); ok {
		return out, nil
	}
	if out, ok := convertString(val, target); ok {
		return out, nil
	}
	if out, ok, err := c.convertCollection(val, target, d); ok {
		if err != nil {
			return val, err
		}
		return out, nil
	}

	// Numeric widening/narrowing and remaining safe Go conversions.
	if val.Type().ConvertibleTo(target) && !isRuneStringTrap(val.Type(), target) {
		return val.Convert(target), nil
	}

	return val, fmt.Errorf("%w: %s -> %s", ErrCannotConvert, val.Type(), target)
}

// convertEnum handles registered enumerated types and the IsValid
// convention. handled is false when neither side is an enum.
func (c *Converter) convertEnum(val reflect.Value, target reflect.Type) (reflect.Value, error, bool) {
	// String-ish -> enum.
	if set, ok := enumFor(target); ok && val.Kind() == reflect.String {
		if val.String() == "" {
			// Blank means unset, not invalid.
			return reflect.Zero(target), nil, true
		}
		out, err := set.lookup(val.String())
		if err != nil {
			return val, err, true
		}
		return out, nil, true
	}

	// Enum -> string: registered name first, then the value's own string form.
	if set, ok := enumFor(val.Type()); ok && target.Kind() == reflect.String {
		if name, ok := set.name(val); ok {
			return reflect.ValueOf(name).Convert(target), nil, true
		}
	}
	if val.Type().Implements(stringerType) && target.Kind() == reflect.String && val.Kind() != reflect.Struct {
		s := val.Interface().(fmt.Stringer).String()
		return reflect.ValueOf(s).Convert(target), nil, true
	}

	// Unregistered named string type following the IsValid convention.
	if val.Kind() == reflect.String && target.Kind() == reflect.String &&
		reflect.PointerTo(target).Implements(validatableType) && target != val.Type() {
		if val.String() == "" {
			return reflect.Zero(target), nil, true
		}
		out := val.Convert(target)
		if v, ok := out.Interface().(validatable); ok && !v.IsValid() {
			// Try the case-insensitive upper form before rejecting.
			upper := reflect.ValueOf(strings.ToUpper(val.String())).Convert(target)
			if v, ok := upper.Interface().(validatable); ok && v.IsValid() {
				return upper, nil, true
			}
			return val, &InvalidEnumError{Type: target, Value: val.String()}, true
		}
		return out, nil, true
	}

	return val, nil, false
}

// convertTemporal handles time.Time and time.Duration in both directions,
// using the directive-supplied layout for string forms.
func (c *Converter) convertTemporal(val reflect.Value, target reflect.Type, d meta.Directives) (reflect.Value, bool) {
	layout := d.Format
	if layout == "" {
		layout = time.RFC3339
	}

	switch target {
	case timeType:
		switch {
		case val.Kind() == reflect.String:
			if t, err := time.Parse(layout, val.String()); err == nil {
				return reflect.ValueOf(t), true
			}
			c.log.Debug("temporal parse failed", "value", val.String(), "layout", layout)
			return reflect.Value{}, false
		case isInteger(val.Type()):
			return reflect.ValueOf(time.Unix(intValue(val), 0).UTC()), true
		}
	case durationType:
		switch {
		case val.Kind() == reflect.String:
			if dur, err := time.ParseDuration(val.String()); err == nil {
				return reflect.ValueOf(dur), true
			}
			return reflect.Value{}, false
		case isInteger(val.Type()):
			return reflect.ValueOf(time.Duration(intValue(val))), true
		case isFloat(val.Type()):
			return reflect.ValueOf(time.Duration(val.Float() * float64(time.Second))), true
		}
	}

	if val.Type() == timeType {
		t := val.Interface().(time.Time)
		switch {
		case target.Kind() == reflect.String:
			return reflect.ValueOf(t.Format(layout)).Convert(target), true
		case isInteger(target):
			return reflect.ValueOf(t.Unix()).Convert(target), true
		}
	}
	if val.Type() == durationType {
		dur := val.Interface().(time.Duration)
		switch {
		case target.Kind() == reflect.String:
			return reflect.ValueOf(dur.String()).Convert(target), true
		case isInteger(target):
			return reflect.ValueOf(int64(dur)).Convert(target), true
		case isFloat(target):
			return reflect.ValueOf(dur.Seconds()).Convert(target), true
		}
	}

	return reflect.Value{}, false
}

// textualBools extends strconv.ParseBool with the common yes/no/on/off
// spellings.
var textualBools = map[string]bool{
	"yes": true, "no": false,
	"on": true, "off": false,
}

func convertBool(val reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if target.Kind() == reflect.Bool {
		switch {
		case val.Kind() == reflect.String:
			s := strings.ToLower(strings.TrimSpace(val.String()))
			if b, ok := textualBools[s]; ok {
				return reflect.ValueOf(b).Convert(target), true
			}
			if b, err := strconv.ParseBool(s); err == nil {
				return reflect.ValueOf(b).Convert(target), true
			}
		case isInteger(val.Type()):
			return reflect.ValueOf(intValue(val) != 0).Convert(target), true
		}
		return reflect.Value{}, false
	}

	if val.Kind() == reflect.Bool {
		switch {
		case target.Kind() == reflect.String:
			return reflect.ValueOf(strconv.FormatBool(val.Bool())).Convert(target), true
		case isInteger(target):
			n := int64(0)
			if val.Bool() {
				n = 1
			}
			return reflect.ValueOf(n).Convert(target), true
		}
	}

	return reflect.Value{}, false
}

// convertString handles string <-> number coercions through strconv, the
// textual number representation rather than Go's rune conversion.
func convertString(val reflect.Value, target reflect.Type) (reflect.Value, bool) {
	if target.Kind() == reflect.String {
		switch {
		case isInteger(val.Type()):
			if isUnsigned(val.Type()) {
				return reflect.ValueOf(strconv.FormatUint(val.Uint(), 10)).Convert(target), true
			}
			return reflect.ValueOf(strconv.FormatInt(val.Int(), 10)).Convert(target), true
		case isFloat(val.Type()):
			s := strconv.FormatFloat(val.Float(), 'g', -1, 64)
			return reflect.ValueOf(s).Convert(target), true
		}
		return reflect.Value{}, false
	}

	if val.Kind() != reflect.String {
		return reflect.Value{}, false
	}
	s := strings.TrimSpace(val.String())

	switch {
	case isUnsigned(target):
		if n, err := strconv.ParseUint(s, 10, target.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(target), true
		}
	case isInteger(target):
		if n, err := strconv.ParseInt(s, 10, target.Bits()); err == nil {
			return reflect.ValueOf(n).Convert(target), true
		}
	case isFloat(target):
		if f, err := strconv.ParseFloat(s, target.Bits()); err == nil {
			return reflect.ValueOf(f).Convert(target), true
		}
	}
	return reflect.Value{}, false
}

// convertCollection re-buckets between list-like and set-like containers,
// coercing each element as needed.
func (c *Converter) convertCollection(val reflect.Value, target reflect.Type, d meta.Directives) (reflect.Value, bool, error) {
	srcList := val.Kind() == reflect.Slice || val.Kind() == reflect.Array
	srcSet := isSet(val.Type())
	dstList := target.Kind() == reflect.Slice
	dstSet := isSet(target)

	if !(srcList || srcSet) || !(dstList || dstSet) {
		return reflect.Value{}, false, nil
	}

	var elems []reflect.Value
	if srcList {
		for i := 0; i < val.Len(); i++ {
			elems = append(elems, val.Index(i))
		}
	} else {
		iter := val.MapRange()
		for iter.Next() {
			elems = append(elems, iter.Key())
		}
	}

	if dstList {
		out := reflect.MakeSlice(target, 0, len(elems))
		for _, e := range elems {
			converted, err := c.Convert(e, target.Elem(), d)
			if err != nil || !converted.Type().AssignableTo(target.Elem()) {
				return reflect.Value{}, true, fmt.Errorf("%w: %s -> %s element", ErrCannotConvert, val.Type(), target)
			}
			out = reflect.Append(out, converted)
		}
		return out, true, nil
	}

	out := reflect.MakeMapWithSize(target, len(elems))
	empty := reflect.ValueOf(struct{}{})
	for _, e := range elems {
		converted, err := c.Convert(e, target.Key(), d)
		if err != nil || !converted.Type().AssignableTo(target.Key()) {
			return reflect.Value{}, true, fmt.Errorf("%w: %s -> %s element", ErrCannotConvert, val.Type(), target)
		}
		out.SetMapIndex(converted, empty)
	}
	return out, true, nil
}

// isSet reports the map[T]struct{} set form.
func isSet(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == reflect.TypeOf(struct{}{})
}

// isRuneStringTrap flags the integer -> string conversion Go performs as a
// rune cast, which is never the intended mapping.
func isRuneStringTrap(src, dst reflect.Type) bool {
	return isInteger(src) && dst.Kind() == reflect.String
}

func isInteger(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// intValue reads any integer kind as int64.
func intValue(v reflect.Value) int64 {
	if isUnsigned(v.Type()) {
		return int64(v.Uint())
	}
	return v.Int()
}

func isFloat(t reflect.Type) bool {
	return t.Kind() == reflect.Float32 || t.Kind() == reflect.Float64
}

func isUnsigned(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// FromString coerces a string-encoded directive default into the target
// type. Shared by the plan executor for `default=` handling.
func (c *Converter) FromString(s string, target reflect.Type, d meta.Directives) (reflect.Value, error) {
	return c.Convert(reflect.ValueOf(s), target, d)
}

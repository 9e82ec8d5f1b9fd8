// Package match scores how well a source type or property name lines up
// with a target, for the resolver's nested-mapping and decomposition
// heuristics.
package match

import (
	"reflect"
	"time"
)

// Compatibility represents the level of compatibility between two types.
type Compatibility int

const (
	// Incompatible means the types cannot be converted.
	Incompatible Compatibility = iota
	// NeedsMapping means conversion requires recursive struct or element
	// mapping, or a value transform.
	NeedsMapping
	// Convertible means types are convertible using Go's type conversion.
	Convertible
	// Assignable means the source type can be directly assigned to the target.
	Assignable
	// Identical means the types are exactly the same.
	Identical
)

// String returns a human-readable name for the compatibility level.
func (c Compatibility) String() string {
	switch c {
	case Identical:
		return "identical"
	case Assignable:
		return "assignable"
	case Convertible:
		return "convertible"
	case NeedsMapping:
		return "needs_mapping"
	case Incompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

var timeType = reflect.TypeOf(time.Time{})

// Score determines the compatibility between a source and target type.
func Score(source, target reflect.Type) Compatibility {
	if source == nil || target == nil {
		return Incompatible
	}

	if source == target {
		return Identical
	}
	if source.AssignableTo(target) {
		return Assignable
	}
	if source.ConvertibleTo(target) {
		// Integer -> string converts to a rune string in Go; that is never
		// the intended mapping, so leave it to the value transformer.
		if isInteger(source) && target.Kind() == reflect.String {
			return NeedsMapping
		}
		return Convertible
	}

	return scoreStructural(source, target)
}

// scoreStructural checks the cases that need recursive mapping rather than a
// plain conversion: pointer lifts, element-wise collections and struct pairs.
func scoreStructural(source, target reflect.Type) Compatibility {
	// *T -> T and T -> *T.
	if source.Kind() == reflect.Pointer {
		if inner := Score(source.Elem(), target); inner >= NeedsMapping {
			return NeedsMapping
		}
	}
	if target.Kind() == reflect.Pointer {
		if inner := Score(source, target.Elem()); inner >= NeedsMapping {
			return NeedsMapping
		}
	}

	// Collections with compatible element types.
	if isListLike(source) && isListLike(target) {
		if Score(source.Elem(), target.Elem()) >= NeedsMapping {
			return NeedsMapping
		}
	}
	if isSetLike(source) && isListLike(target) {
		if Score(source.Key(), target.Elem()) >= NeedsMapping {
			return NeedsMapping
		}
	}
	if isListLike(source) && isSetLike(target) {
		if Score(source.Elem(), target.Key()) >= NeedsMapping {
			return NeedsMapping
		}
	}

	// Struct pairs may have mappable properties. time.Time is a value, not
	// an object graph.
	if IsStructured(source) && IsStructured(target) {
		return NeedsMapping
	}

	return Incompatible
}

// IsStructured reports whether t is a struct type the engine should recurse
// into (after pointer indirection), as opposed to a value-like struct such
// as time.Time.
func IsStructured(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != timeType
}

// isListLike reports whether t holds an ordered collection of elements.
func isListLike(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

// isSetLike reports whether t is the map[T]struct{} set form.
func isSetLike(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == reflect.TypeOf(struct{}{})
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

package convert

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// InvalidEnumError reports a value that matches no enumerated constant under
// exact or case-insensitive comparison.
type InvalidEnumError struct {
	// Type is the enumerated target type.
	Type reflect.Type
	// Value is the rejected input.
	Value string
	// Accepted lists the legal constant names, taken from the registered
	// constant set. Types validated only through their IsValid method have
	// no enumerable constants, so Accepted is empty for them; register the
	// type to get the listing.
	Accepted []string
}

func (e *InvalidEnumError) Error() string {
	if len(e.Accepted) == 0 {
		return fmt.Sprintf("convert: %q is not a valid %s value", e.Value, e.Type)
	}
	return fmt.Sprintf("convert: %q is not a valid %s value (accepted: %s)",
		e.Value, e.Type, strings.Join(e.Accepted, ", "))
}

// enumSet holds the registered constants of one enumerated type.
type enumSet struct {
	typ    reflect.Type
	names  []string
	byName map[string]reflect.Value
	byFold map[string]reflect.Value
	toName map[any]string
}

var (
	enumMu sync.RWMutex
	enums  = make(map[reflect.Type]*enumSet)
)

// RegisterEnum declares the legal constants of an enumerated type, keyed by
// constant name. Lookup during conversion tries the exact name first, then a
// case-insensitive fallback.
func RegisterEnum[E any](values map[string]E) {
	var zero E
	t := reflect.TypeOf(zero)

	set := &enumSet{
		typ:    t,
		byName: make(map[string]reflect.Value, len(values)),
		byFold: make(map[string]reflect.Value, len(values)),
		toName: make(map[any]string, len(values)),
	}
	for name, v := range values {
		rv := reflect.ValueOf(v)
		set.names = append(set.names, name)
		set.byName[name] = rv
		set.byFold[strings.ToLower(name)] = rv
		set.toName[v] = name
	}
	sort.Strings(set.names)

	enumMu.Lock()
	enums[t] = set
	enumMu.Unlock()
}

func enumFor(t reflect.Type) (*enumSet, bool) {
	enumMu.RLock()
	set, ok := enums[t]
	enumMu.RUnlock()
	return set, ok
}

// lookup resolves a name to the enum constant, exact then case-insensitive.
func (s *enumSet) lookup(name string) (reflect.Value, error) {
	if v, ok := s.byName[name]; ok {
		return v, nil
	}
	if v, ok := s.byFold[strings.ToLower(name)]; ok {
		return v, nil
	}
	return reflect.Value{}, &InvalidEnumError{Type: s.typ, Value: name, Accepted: s.names}
}

// name returns the constant name for a registered enum value, when known.
func (s *enumSet) name(v reflect.Value) (string, bool) {
	if !v.CanInterface() {
		return "", false
	}
	name, ok := s.toName[v.Interface()]
	return name, ok
}

// validatable mirrors the IsValid convention enum types follow.
type validatable interface{ IsValid() bool }

var validatableType = reflect.TypeOf((*validatable)(nil)).Elem()

package objmap

import (
	"fmt"
	"reflect"

	"objmap/internal/convert"
	"objmap/internal/meta"
	"objmap/internal/plan"
)

// ErrNotStruct is returned when a mapping endpoint is not a struct type.
var ErrNotStruct = meta.ErrNotStruct

// PlanError is a fatal plan-compilation failure: the type pair is
// structurally unmappable (for example, the target is not a constructible
// struct).
type PlanError = plan.Error

// InvalidEnumError reports a value that matches no enumerated constant; it
// lists the accepted constants.
type InvalidEnumError = convert.InvalidEnumError

// RequiredFieldError reports a property marked required whose resolved
// source value is missing. It aborts mapping of the single object it
// occurred in.
type RequiredFieldError struct {
	// Property is the target property name.
	Property string
	// Source is the source type the value could not be resolved from.
	Source reflect.Type
}

func (e *RequiredFieldError) Error() string {
	return fmt.Sprintf("objmap: required property %q has no value in source %v", e.Property, e.Source)
}

// MappingError wraps a mapping failure with the type pair it occurred on.
// Batch conversions record the element index.
type MappingError struct {
	Source reflect.Type
	Target reflect.Type
	// Index is the batch element index, or -1 for single-object mapping.
	Index int
	Err   error
}

func (e *MappingError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("objmap: element %d (%v -> %v): %v", e.Index, e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("objmap: %v -> %v: %v", e.Source, e.Target, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

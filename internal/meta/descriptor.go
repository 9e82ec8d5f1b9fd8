// Package meta builds and caches per-type metadata for the mapping engine:
// flattened property lists (embedded fields included), audit-property sets,
// constructors and resolved property accessors.
package meta

import (
	"errors"
	"reflect"
	"strings"

	"github.com/hashicorp/go-hclog"

	"objmap/internal/cache"
)

// ErrNotStruct is returned when a descriptor is requested for a type that is
// not a struct (after pointer indirection).
var ErrNotStruct = errors.New("meta: type is not a struct")

// PropertyDescriptor describes one named, typed property of a struct type
// together with its parsed mapping directives.
type PropertyDescriptor struct {
	// Name is the property name, unique within the flattened list.
	Name string
	// Type is the declared property type.
	Type reflect.Type
	// Index is the field index path from the owning struct, including hops
	// through embedded fields.
	Index []int
	// Owner is the struct type the flattened list belongs to.
	Owner reflect.Type
	// Directives carries the parsed `map` tag.
	Directives Directives
}

// TypeDescriptor is the cached, immutable metadata for one struct type.
type TypeDescriptor struct {
	// Type is the described struct type.
	Type reflect.Type
	// Properties is the flattened, ordered property list. Embedded fields
	// are expanded in declaration order; on a name collision the
	// closest-declaring type wins.
	Properties []*PropertyDescriptor

	byName map[string]*PropertyDescriptor
	byFold map[string]*PropertyDescriptor
	audit  map[string]struct{}
}

// Property returns the property with the exact name.
func (d *TypeDescriptor) Property(name string) (*PropertyDescriptor, bool) {
	p, ok := d.byName[name]
	return p, ok
}

// PropertyFold returns the property matching the name case-insensitively.
// An exact match wins over a folded one.
func (d *TypeDescriptor) PropertyFold(name string) (*PropertyDescriptor, bool) {
	if p, ok := d.byName[name]; ok {
		return p, true
	}
	p, ok := d.byFold[strings.ToLower(name)]
	return p, ok
}

// IsAudit reports whether the named property is audit-managed.
func (d *TypeDescriptor) IsAudit(name string) bool {
	_, ok := d.audit[name]
	return ok
}

// New returns a fresh addressable zero value of the described type.
func (d *TypeDescriptor) New() reflect.Value {
	return reflect.New(d.Type).Elem()
}

// Registry owns the process-wide descriptor and accessor caches.
type Registry struct {
	log         hclog.Logger
	descriptors *cache.Cache[reflect.Type, *TypeDescriptor]
	accessors   *cache.Cache[accessorKey, accessor]
}

// NewRegistry creates a registry and registers its caches for management.
func NewRegistry(log hclog.Logger, caches *cache.Registry) *Registry {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	r := &Registry{
		log:         log.Named("meta"),
		descriptors: cache.New[reflect.Type, *TypeDescriptor](nil),
		accessors:   cache.New[accessorKey, accessor](nil),
	}
	if caches != nil {
		caches.Register("descriptors", r.descriptors)
		caches.Register("accessors", r.accessors)
	}
	return r
}

// Describe returns the memoized descriptor for t, building it on first use.
// Pointer types are described by their element type.
func (r *Registry) Describe(t reflect.Type) (*TypeDescriptor, error) {
	t = Deref(t)
	if t.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	return r.descriptors.GetOrCompute(t, func() (*TypeDescriptor, error) {
		return buildDescriptor(t), nil
	})
}

// Deref unwraps pointer types down to their element type.
func Deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func buildDescriptor(t reflect.Type) *TypeDescriptor {
	d := &TypeDescriptor{
		Type:   t,
		byName: make(map[string]*PropertyDescriptor),
		byFold: make(map[string]*PropertyDescriptor),
	}

	depths := make(map[string]int)
	collectProperties(t, t, nil, 0, d, depths)
	d.audit = auditSet(t, d)

	return d
}

// collectProperties flattens the struct's fields into d, expanding embedded
// structs in place. A name declared at a shallower embedding depth shadows
// deeper declarations.
func collectProperties(owner, t reflect.Type, index []int, depth int, d *TypeDescriptor, depths map[string]int) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldIndex := append(append([]int{}, index...), i)

		if field.Anonymous {
			ft := Deref(field.Type)
			if ft.Kind() == reflect.Struct {
				collectProperties(owner, ft, fieldIndex, depth+1, d, depths)
				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if prev, ok := depths[field.Name]; ok && prev <= depth {
			continue
		}

		directives := ParseTag(field.Tag.Get(TagKey))
		if directives.Ignore {
			// Ignored properties are invisible to enumeration and lookup.
			// A shallower ignored field still shadows a promoted deeper one.
			if _, ok := depths[field.Name]; ok {
				removeProperty(d, field.Name)
			}
			depths[field.Name] = depth
			continue
		}

		prop := &PropertyDescriptor{
			Name:       field.Name,
			Type:       field.Type,
			Index:      fieldIndex,
			Owner:      owner,
			Directives: directives,
		}

		if _, ok := depths[field.Name]; ok {
			// Shallower redeclaration replaces the promoted one in place.
			// A previously ignored name has no slot and appends instead.
			replaced := false
			for j, existing := range d.Properties {
				if existing.Name == field.Name {
					d.Properties[j] = prop
					replaced = true
					break
				}
			}
			if !replaced {
				d.Properties = append(d.Properties, prop)
			}
		} else {
			d.Properties = append(d.Properties, prop)
		}

		depths[field.Name] = depth
		d.byName[field.Name] = prop
		d.byFold[strings.ToLower(field.Name)] = prop
	}
}

func removeProperty(d *TypeDescriptor, name string) {
	for j, existing := range d.Properties {
		if existing.Name == name {
			d.Properties = append(d.Properties[:j], d.Properties[j+1:]...)
			break
		}
	}
	if prop, ok := d.byName[name]; ok {
		fold := strings.ToLower(name)
		if d.byFold[fold] == prop {
			delete(d.byFold, fold)
		}
		delete(d.byName, name)
	}
}

package resolve

import (
	"reflect"
	"strings"

	"objmap/internal/meta"
)

// FieldPath is an ordered traversal from a root object to a value, possibly
// through intermediate nested objects. Immutable once resolved.
type FieldPath struct {
	// Props are the property descriptors along the path, outermost first.
	Props []*meta.PropertyDescriptor
}

// Leaf returns the final property descriptor.
func (p *FieldPath) Leaf() *meta.PropertyDescriptor {
	return p.Props[len(p.Props)-1]
}

// Nested reports whether the path traverses intermediate objects.
func (p *FieldPath) Nested() bool { return len(p.Props) > 1 }

// String returns the dotted property names, for diagnostics.
func (p *FieldPath) String() string {
	names := make([]string, len(p.Props))
	for i, prop := range p.Props {
		names[i] = prop.Name
	}
	return strings.Join(names, ".")
}

// Get reads the value at the path starting from root. A missing or nil
// intermediate yields the zero reflect.Value.
func (p *FieldPath) Get(reg *meta.Registry, root reflect.Value) reflect.Value {
	v := root
	for _, prop := range p.Props {
		v = reg.Get(v, prop)
		if !v.IsValid() {
			return reflect.Value{}
		}
	}
	return v
}

func (p *FieldPath) append(prop *meta.PropertyDescriptor) *FieldPath {
	props := make([]*meta.PropertyDescriptor, 0, len(p.Props)+1)
	props = append(props, p.Props...)
	props = append(props, prop)
	return &FieldPath{Props: props}
}

package meta

import "reflect"

// accessorKey identifies one resolved accessor: (owning type, property,
// read/write side).
type accessorKey struct {
	typ  reflect.Type
	name string
	set  bool
}

// accessor is a resolved access strategy. Method access is preferred;
// the field index path is kept as fallback so a cached method accessor still
// works on values the method cannot be called on.
type accessor struct {
	method string
	index  []int
	valid  bool
}

// resolveGetter picks the read strategy for a property: a zero-argument
// single-result method named after the property (Name or GetName), falling
// back to direct field access.
func (r *Registry) resolveGetter(t reflect.Type, prop *PropertyDescriptor) accessor {
	key := accessorKey{typ: t, name: prop.Name, set: false}
	acc, _ := r.accessors.GetOrCompute(key, func() (accessor, error) {
		acc := accessor{index: prop.Index, valid: true}
		pt := reflect.PointerTo(t)
		for _, name := range []string{prop.Name, "Get" + prop.Name} {
			if m, ok := pt.MethodByName(name); ok {
				// Func includes the receiver as the first input.
				if m.Func.Type().NumIn() == 1 && m.Func.Type().NumOut() == 1 {
					acc.method = name
					break
				}
			}
		}
		return acc, nil
	})
	return acc
}

// resolveSetter picks the write strategy: a single-argument SetName method,
// falling back to direct field access.
func (r *Registry) resolveSetter(t reflect.Type, prop *PropertyDescriptor) accessor {
	key := accessorKey{typ: t, name: prop.Name, set: true}
	acc, _ := r.accessors.GetOrCompute(key, func() (accessor, error) {
		acc := accessor{index: prop.Index, valid: true}
		if m, ok := reflect.PointerTo(t).MethodByName("Set" + prop.Name); ok {
			if m.Func.Type().NumIn() == 2 {
				acc.method = "Set" + prop.Name
			}
		}
		return acc, nil
	})
	return acc
}

// Get reads a property from obj. The zero reflect.Value signals a read that
// could not resolve; per the accessor contract that is not an error.
func (r *Registry) Get(obj reflect.Value, prop *PropertyDescriptor) reflect.Value {
	obj = derefValue(obj)
	if !obj.IsValid() || obj.Kind() != reflect.Struct {
		r.log.Debug("property read on non-struct value", "property", prop.Name)
		return reflect.Value{}
	}

	acc := r.resolveGetter(obj.Type(), prop)

	if acc.method != "" {
		if m := methodOn(obj, acc.method); m.IsValid() {
			out := m.Call(nil)
			return out[0]
		}
	}

	v, ok := fieldByIndex(obj, acc.index)
	if !ok {
		r.log.Debug("property read could not resolve",
			"type", obj.Type().String(), "property", prop.Name)
		return reflect.Value{}
	}
	return v
}

// Set writes a property on an addressable struct value. A write that cannot
// resolve is silently skipped; Set reports whether the value was written.
func (r *Registry) Set(obj reflect.Value, prop *PropertyDescriptor, val reflect.Value) bool {
	if !obj.IsValid() || obj.Kind() != reflect.Struct || !val.IsValid() {
		return false
	}

	acc := r.resolveSetter(obj.Type(), prop)

	if acc.method != "" && obj.CanAddr() {
		m := obj.Addr().MethodByName(acc.method)
		if m.IsValid() && m.Type().NumIn() == 1 && val.Type().AssignableTo(m.Type().In(0)) {
			m.Call([]reflect.Value{val})
			return true
		}
	}

	f, ok := settableFieldByIndex(obj, acc.index)
	if !ok || !f.CanSet() {
		return false
	}

	if val.Type().AssignableTo(f.Type()) {
		f.Set(val)
		return true
	}
	// Pointer target with a plain value in hand.
	if f.Kind() == reflect.Pointer && val.Type().AssignableTo(f.Type().Elem()) {
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(val)
		f.Set(p)
		return true
	}
	return false
}

// methodOn finds a callable method on v, preferring the pointer receiver
// when v is addressable.
func methodOn(v reflect.Value, name string) reflect.Value {
	if v.CanAddr() {
		if m := v.Addr().MethodByName(name); m.IsValid() {
			return m
		}
	}
	return v.MethodByName(name)
}

// fieldByIndex walks an index path, stopping at nil embedded pointers
// instead of panicking.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct || i >= v.NumField() {
			return reflect.Value{}, false
		}
		v = v.Field(i)
	}
	return v, true
}

// settableFieldByIndex walks an index path for writing, allocating nil
// embedded pointers along the way.
func settableFieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for _, i := range index {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, false
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct || i >= v.NumField() {
			return reflect.Value{}, false
		}
		v = v.Field(i)
	}
	return v, true
}

// derefValue unwraps pointers and interfaces down to the concrete value.
// The zero reflect.Value is returned for nil.
func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// DerefValue is the exported form used by the engine and resolver.
func DerefValue(v reflect.Value) reflect.Value { return derefValue(v) }

package objmap

import (
	"errors"
	"reflect"

	"github.com/davecgh/go-spew/spew"

	"objmap/internal/match"
	"objmap/internal/meta"
	"objmap/internal/plan"
)

// visitKey identifies one (source type, target type) pair on the active
// recursion stack. Revisiting a pair means a cycle.
type visitKey struct {
	src reflect.Type
	dst reflect.Type
}

// mapContext is per-call recursion state. It is never shared across
// goroutines, so no locking.
type mapContext struct {
	depth   int
	visited map[visitKey]struct{}
}

func newMapContext() *mapContext {
	return &mapContext{visited: make(map[visitKey]struct{})}
}

// mapObject executes the compiled plan for the pair onto dst, which must be
// an addressable struct value. A null source is a no-op.
func (m *Mapper) mapObject(src, dst reflect.Value, dir Direction, update bool, ctx *mapContext) error {
	src = meta.DerefValue(src)
	if !src.IsValid() {
		return nil
	}

	p, err := m.compiler.Compile(plan.Key{
		Source: src.Type(),
		Target: dst.Type(),
		Dir:    dir,
		Update: update,
	})
	if err != nil {
		return &MappingError{Source: src.Type(), Target: dst.Type(), Index: -1, Err: err}
	}

	for i := range p.Fields {
		if err := m.applyField(src, dst, &p.Fields[i], dir, update, ctx); err != nil {
			return &MappingError{Source: src.Type(), Target: dst.Type(), Index: -1, Err: err}
		}
	}
	return nil
}

// applyField executes a single plan step. Only required-property violations
// and invalid enum values abort the object; other conversion failures keep
// the original value and continue.
func (m *Mapper) applyField(src, dst reflect.Value, fm *plan.FieldMapping, dir Direction, update bool, ctx *mapContext) error {
	var val reflect.Value
	if fm.Source != nil {
		val = fm.Source.Get(m.meta, src)
	}

	if !val.IsValid() || isNilValue(val) {
		return m.applyMissing(src, dst, fm, update)
	}

	if out, handled, err := m.mapNested(val, fm, dir, ctx); handled {
		if err != nil {
			return err
		}
		if out.IsValid() {
			m.meta.Set(dst, fm.Target, out)
		}
		return nil
	}

	out := meta.DerefValue(val)
	target := meta.Deref(fm.Target.Type)
	if fm.NeedsConvert || !out.Type().AssignableTo(target) || fm.Directives.Transform != "" {
		converted, err := m.converter.Convert(out, fm.Target.Type, fm.Directives)
		if err != nil {
			var enumErr *InvalidEnumError
			if errors.As(err, &enumErr) {
				return err
			}
			m.log.Debug("conversion failed, keeping original value",
				"property", fm.Target.Name,
				"from", out.Type().String(),
				"to", fm.Target.Type.String(),
				"error", err)
			if m.log.IsTrace() {
				m.log.Trace("unconvertible value", "dump", spew.Sdump(out.Interface()))
			}
		} else {
			out = converted
		}
	}
	m.meta.Set(dst, fm.Target, out)
	return nil
}

// applyMissing handles a step whose source value is null or unresolvable:
// null-to-empty collections, declared defaults, required violations, and
// the update-mode skip.
func (m *Mapper) applyMissing(src, dst reflect.Value, fm *plan.FieldMapping, update bool) error {
	if update {
		// Partial update: absent source values leave the target untouched.
		return nil
	}
	target := meta.Deref(fm.Target.Type)
	if fm.Directives.NullEmpty && isCollectionKind(target) {
		m.meta.Set(dst, fm.Target, emptyCollection(target))
		return nil
	}
	if fm.Directives.HasDefault {
		dv, err := m.converter.FromString(fm.Directives.Default, fm.Target.Type, fm.Target.Directives)
		if err != nil {
			m.log.Debug("default value unusable", "property", fm.Target.Name, "error", err)
		} else {
			m.meta.Set(dst, fm.Target, dv)
			return nil
		}
	}
	if fm.Directives.Required {
		return &RequiredFieldError{Property: fm.Target.Name, Source: src.Type()}
	}
	// Null propagates: the target keeps its zero value.
	return nil
}

// mapNested recursively maps structured values and collections of
// structured values. handled reports whether this step consumed the value;
// when false the caller falls through to plain conversion.
func (m *Mapper) mapNested(val reflect.Value, fm *plan.FieldMapping, dir Direction, ctx *mapContext) (reflect.Value, bool, error) {
	bare := meta.DerefValue(val)
	target := meta.Deref(fm.Target.Type)

	if isListKind(target) && isListKind(bare.Type()) {
		return m.mapCollection(bare, fm, target, dir, ctx)
	}
	if isSetKind(target) && isSetKind(bare.Type()) {
		return m.mapSet(bare, fm, target, dir, ctx)
	}

	if !match.IsStructured(target) || !match.IsStructured(bare.Type()) {
		return reflect.Value{}, false, nil
	}
	if bare.Type() == target && !fm.Directives.Nested {
		// Same shape on both sides: plain assignment is cheaper and
		// semantically identical.
		return reflect.Value{}, false, nil
	}
	if !fm.Directives.Nested && !m.shouldRecurse(bare.Type(), target) {
		return reflect.Value{}, false, nil
	}

	out, err := m.recurse(bare, target, fm, dir, ctx)
	return out, true, err
}

// shouldRecurse applies the nested-mapping heuristic for steps without an
// explicit nested directive: the pair must need recursive mapping and carry
// related names, or be struct-compatible outright.
func (m *Mapper) shouldRecurse(src, dst reflect.Type) bool {
	switch match.Score(src, dst) {
	case match.Assignable, match.Identical, match.Convertible:
		return false
	case match.NeedsMapping:
		return true
	default:
		return match.SimilarNames(src.Name(), dst.Name())
	}
}

// recurse maps one structured value into a fresh target, guarded by the
// depth cap and the cycle set. Truncated branches yield an invalid value,
// which the caller leaves null.
func (m *Mapper) recurse(src reflect.Value, target reflect.Type, fm *plan.FieldMapping, dir Direction, ctx *mapContext) (reflect.Value, error) {
	maxDepth := m.maxDepth
	if fm.Directives.MaxDepth > 0 {
		maxDepth = fm.Directives.MaxDepth
	}
	if ctx.depth >= maxDepth {
		m.log.Debug("nested depth limit reached, truncating branch",
			"property", fm.Target.Name, "depth", ctx.depth)
		return reflect.Value{}, nil
	}
	key := visitKey{src: src.Type(), dst: target}
	if _, seen := ctx.visited[key]; seen {
		m.log.Debug("cycle detected, truncating branch",
			"property", fm.Target.Name, "pair", key.src.String()+" -> "+key.dst.String())
		return reflect.Value{}, nil
	}
	ctx.visited[key] = struct{}{}
	ctx.depth++
	defer func() {
		delete(ctx.visited, key)
		ctx.depth--
	}()

	out := reflect.New(target).Elem()
	if err := m.mapObject(src, out, dir, false, ctx); err != nil {
		return reflect.Value{}, err
	}
	return out, nil
}

// mapCollection maps a list into the target list type, per element. When no
// element needs mapping it defers to the plain conversion path, which
// copies or re-buckets cheaply.
func (m *Mapper) mapCollection(src reflect.Value, fm *plan.FieldMapping, target reflect.Type, dir Direction, ctx *mapContext) (reflect.Value, bool, error) {
	elemType := meta.Deref(target.Elem())
	if !match.IsStructured(elemType) {
		return reflect.Value{}, false, nil
	}

	needsMapping := meta.Deref(src.Type().Elem()) != elemType
	if !needsMapping {
		for i := 0; i < src.Len(); i++ {
			e := meta.DerefValue(src.Index(i))
			if e.IsValid() && e.Type() != elemType {
				needsMapping = true
				break
			}
		}
	}
	if !needsMapping {
		return reflect.Value{}, false, nil
	}

	out := reflect.MakeSlice(reflect.SliceOf(target.Elem()), src.Len(), src.Len())
	for i := 0; i < src.Len(); i++ {
		e := meta.DerefValue(src.Index(i))
		if !e.IsValid() {
			continue // null element stays null
		}
		mapped, err := m.recurse(e, elemType, fm, dir, ctx)
		if err != nil {
			return reflect.Value{}, true, err
		}
		if !mapped.IsValid() {
			continue
		}
		slot := out.Index(i)
		if slot.Kind() == reflect.Pointer {
			p := reflect.New(elemType)
			p.Elem().Set(mapped)
			slot.Set(p)
		} else {
			slot.Set(mapped)
		}
	}
	if target.Kind() == reflect.Array {
		arr := reflect.New(target).Elem()
		n := out.Len()
		if n > target.Len() {
			n = target.Len()
		}
		reflect.Copy(arr.Slice(0, n), out.Slice(0, n))
		return arr, true, nil
	}
	return out, true, nil
}

// mapSet re-buckets a set into the target set type, mapping each member
// struct. Matching member types and non-structured members defer to the
// plain conversion path.
func (m *Mapper) mapSet(src reflect.Value, fm *plan.FieldMapping, target reflect.Type, dir Direction, ctx *mapContext) (reflect.Value, bool, error) {
	keyType := meta.Deref(target.Key())
	if !match.IsStructured(keyType) {
		return reflect.Value{}, false, nil
	}
	if meta.Deref(src.Type().Key()) == keyType {
		return reflect.Value{}, false, nil
	}

	out := reflect.MakeMapWithSize(target, src.Len())
	member := reflect.ValueOf(struct{}{})
	iter := src.MapRange()
	for iter.Next() {
		e := meta.DerefValue(iter.Key())
		if !e.IsValid() {
			continue // null member stays out of the set
		}
		mapped, err := m.recurse(e, keyType, fm, dir, ctx)
		if err != nil {
			return reflect.Value{}, true, err
		}
		if !mapped.IsValid() {
			continue
		}
		if target.Key().Kind() == reflect.Pointer {
			p := reflect.New(keyType)
			p.Elem().Set(mapped)
			out.SetMapIndex(p, member)
		} else {
			out.SetMapIndex(mapped, member)
		}
	}
	return out, true, nil
}

// isNilValue reports whether v holds a nil of a nilable kind.
func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
		return v.IsNil()
	default:
		return false
	}
}

func isListKind(t reflect.Type) bool {
	return t.Kind() == reflect.Slice || t.Kind() == reflect.Array
}

var emptyStructType = reflect.TypeOf(struct{}{})

// isSetKind reports the map[T]struct{} set form.
func isSetKind(t reflect.Type) bool {
	return t.Kind() == reflect.Map && t.Elem() == emptyStructType
}

func isCollectionKind(t reflect.Type) bool {
	return isListKind(t) || t.Kind() == reflect.Map
}

func emptyCollection(t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.Slice:
		return reflect.MakeSlice(t, 0, 0)
	case reflect.Map:
		return reflect.MakeMap(t)
	default:
		return reflect.New(t).Elem()
	}
}

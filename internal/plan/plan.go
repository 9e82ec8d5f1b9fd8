// Package plan compiles and caches, per (source type, target type,
// direction, update) key, the ordered list of per-property mapping steps the
// engine executes. Compilation pays the path-resolution cost once; every
// later conversion for the same key reuses the stored plan.
package plan

import (
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"objmap/internal/cache"
	"objmap/internal/meta"
	"objmap/internal/resolve"
)

// Key identifies one compiled plan.
type Key struct {
	// Source is the source struct type (pointers stripped).
	Source reflect.Type
	// Target is the target struct type (pointers stripped).
	Target reflect.Type
	// Dir is the mapping direction.
	Dir meta.Direction
	// Update marks the partial-update plan variant.
	Update bool
}

// Error is a plan-compilation failure. Unlike per-property resolution
// misses, it is fatal and surfaced immediately: it indicates a structural
// misconfiguration, not a per-record data problem.
type Error struct {
	Source reflect.Type
	Target reflect.Type
	Reason string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("plan: %v -> %v: %s", e.Source, e.Target, e.Reason)
}

func (e *Error) Unwrap() error { return e.Err }

// FieldMapping is one per-property step of a plan.
type FieldMapping struct {
	// Target is the property being populated.
	Target *meta.PropertyDescriptor
	// Source is the resolved path into the source shape; nil when
	// resolution failed but the step is kept for its default or required
	// directive.
	Source *resolve.FieldPath
	// NeedsConvert is set when the declared source and target types differ.
	NeedsConvert bool
	// Directives is the target property's directive bundle.
	Directives meta.Directives
}

// Plan is the compiled, immutable mapping for one key.
type Plan struct {
	Key Key
	// TargetDesc carries the constructor and accessor metadata for the
	// target type.
	TargetDesc *meta.TypeDescriptor
	// Fields are the mapping steps, in target property order.
	Fields []FieldMapping
}

// Compiler compiles and memoizes plans.
type Compiler struct {
	meta     *meta.Registry
	resolver *resolve.Resolver
	plans    *cache.Cache[Key, *Plan]
	log      hclog.Logger
}

// NewCompiler creates a compiler. Its plan cache is registered with caches
// under "plans".
func NewCompiler(log hclog.Logger, reg *meta.Registry, r *resolve.Resolver, caches *cache.Registry) *Compiler {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	c := &Compiler{
		meta:     reg,
		resolver: r,
		plans:    cache.New[Key, *Plan](nil),
		log:      log.Named("plan"),
	}
	if caches != nil {
		caches.Register("plans", c.plans)
	}
	return c
}

// Compile returns the memoized plan for key, building it on first use.
// Repeated calls with the same key return the identical plan instance.
func (c *Compiler) Compile(key Key) (*Plan, error) {
	key.Source = meta.Deref(key.Source)
	key.Target = meta.Deref(key.Target)

	return c.plans.GetOrCompute(key, func() (*Plan, error) {
		return c.compile(key)
	})
}

func (c *Compiler) compile(key Key) (*Plan, error) {
	targetDesc, err := c.meta.Describe(key.Target)
	if err != nil {
		return nil, &Error{
			Source: key.Source, Target: key.Target,
			Reason: "target type is not a constructible struct", Err: err,
		}
	}
	if _, err := c.meta.Describe(key.Source); err != nil {
		return nil, &Error{
			Source: key.Source, Target: key.Target,
			Reason: "source type is not a struct", Err: err,
		}
	}

	p := &Plan{Key: key, TargetDesc: targetDesc}

	for _, prop := range targetDesc.Properties {
		d := prop.Directives
		// Audit properties are managed by the persistence layer, never by
		// inbound mapping.
		if targetDesc.IsAudit(prop.Name) && (key.Dir == meta.RequestToEntity || key.Update) {
			continue
		}
		if key.Update && d.Immutable {
			continue
		}

		path, ok := c.resolver.Resolve(key.Source, prop.Name, d, key.Dir)
		if !ok {
			if !d.HasDefault && !d.Required {
				// Left unset; not reported.
				continue
			}
			path = nil
		}

		fm := FieldMapping{
			Target:     prop,
			Source:     path,
			Directives: d,
		}
		if path != nil {
			fm.NeedsConvert = path.Leaf().Type != prop.Type
		}
		p.Fields = append(p.Fields, fm)
	}

	c.log.Debug("compiled mapping plan",
		"source", key.Source.String(), "target", key.Target.String(),
		"direction", key.Dir.String(), "update", key.Update,
		"fields", len(p.Fields))

	return p, nil
}

// Package resolve locates, for a target property name, a corresponding path
// through a source type's shape. Resolution runs a four-tier waterfall:
// explicit dotted path, direct match, camel-case flattened decomposition,
// then bounded deep search. Results, including misses, are cached per
// (source type, name, direction).
package resolve

import (
	"reflect"
	"strings"

	"github.com/hashicorp/go-hclog"

	"objmap/internal/cache"
	"objmap/internal/match"
	"objmap/internal/meta"
)

// Config holds the resolver's search bounds.
type Config struct {
	// MaxSearchDepth limits how many nesting levels the deep search visits.
	MaxSearchDepth int
}

// DefaultConfig returns the default resolution configuration.
func DefaultConfig() Config {
	return Config{MaxSearchDepth: 4}
}

type pathKey struct {
	src  reflect.Type
	name string
	dir  meta.Direction
}

// Resolver resolves and caches field paths.
type Resolver struct {
	meta  *meta.Registry
	paths *cache.Cache[pathKey, *FieldPath]
	cfg   Config
	log   hclog.Logger
}

// New creates a resolver backed by the given metadata registry. Its path
// cache is registered with caches under "paths".
func New(log hclog.Logger, reg *meta.Registry, caches *cache.Registry, cfg Config) *Resolver {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if cfg.MaxSearchDepth <= 0 {
		cfg.MaxSearchDepth = DefaultConfig().MaxSearchDepth
	}
	r := &Resolver{
		meta:  reg,
		paths: cache.New[pathKey, *FieldPath](nil),
		cfg:   cfg,
		log:   log.Named("resolve"),
	}
	if caches != nil {
		caches.Register("paths", r.paths)
	}
	return r
}

// Resolve finds a path through src for the target property. The second
// return is false when no strategy succeeds; the caller falls back to a
// directive default or leaves the property unset.
func (r *Resolver) Resolve(src reflect.Type, targetName string, d meta.Directives, dir meta.Direction) (*FieldPath, bool) {
	name := targetName
	if d.Source != "" {
		name = d.Source
	}

	key := pathKey{src: meta.Deref(src), name: name, dir: dir}
	path, err := r.paths.GetOrCompute(key, func() (*FieldPath, error) {
		p := r.resolve(key.src, name)
		if p == nil {
			r.log.Debug("no field path found",
				"source", key.src.String(), "property", targetName)
		}
		return p, nil
	})
	if err != nil || path == nil {
		return nil, false
	}
	return path, true
}

func (r *Resolver) resolve(src reflect.Type, name string) *FieldPath {
	desc, err := r.meta.Describe(src)
	if err != nil {
		return nil
	}

	// Tier 1: explicit dotted path from the directive.
	if strings.Contains(name, ".") {
		return r.walkExplicit(desc, strings.Split(name, "."))
	}

	// Tier 2: direct match, exact then case-insensitive.
	if prop, ok := desc.PropertyFold(name); ok {
		return &FieldPath{Props: []*meta.PropertyDescriptor{prop}}
	}

	// Tier 3: camel-case flattened decomposition.
	if p := r.decompose(desc, name); p != nil {
		return p
	}

	// Tier 4: bounded deep search through nested objects.
	return r.deepSearch(desc, name)
}

// walkExplicit follows each dotted segment through nested types; any absent
// segment fails the whole path.
func (r *Resolver) walkExplicit(desc *meta.TypeDescriptor, segments []string) *FieldPath {
	path := &FieldPath{}
	for i, segment := range segments {
		prop, ok := desc.PropertyFold(segment)
		if !ok {
			return nil
		}
		path = path.append(prop)

		if i == len(segments)-1 {
			return path
		}
		if !match.IsStructured(prop.Type) {
			return nil
		}
		var err error
		desc, err = r.meta.Describe(prop.Type)
		if err != nil {
			return nil
		}
	}
	return nil
}

// decompose tries every camel-case split of name as (nested-object prefix,
// inner suffix). The suffix may itself resolve directly, by recursive
// decomposition, or by deep search inside the prefix type.
func (r *Resolver) decompose(desc *meta.TypeDescriptor, name string) *FieldPath {
	for _, split := range match.SplitPoints(name) {
		prefix, ok := desc.PropertyFold(split.Prefix)
		if !ok || !match.IsStructured(prefix.Type) {
			continue
		}

		inner, err := r.meta.Describe(prefix.Type)
		if err != nil {
			continue
		}

		var tail *FieldPath
		if prop, ok := inner.PropertyFold(split.Suffix); ok {
			tail = &FieldPath{Props: []*meta.PropertyDescriptor{prop}}
		} else if tail = r.decompose(inner, split.Suffix); tail == nil {
			tail = r.deepSearch(inner, split.Suffix)
		}
		if tail == nil {
			continue
		}

		props := append([]*meta.PropertyDescriptor{prefix}, tail.Props...)
		return &FieldPath{Props: props}
	}
	return nil
}

// deepSearch walks nested object properties breadth-first looking for a
// property with the target name anywhere in the graph, bounded by the
// configured depth and a visited-type set.
func (r *Resolver) deepSearch(root *meta.TypeDescriptor, name string) *FieldPath {
	type frame struct {
		desc  *meta.TypeDescriptor
		path  *FieldPath
		depth int
	}

	visited := map[reflect.Type]struct{}{root.Type: {}}
	queue := []frame{{desc: root, path: &FieldPath{}, depth: 0}}

	for len(queue) > 0 {
		f := queue[0]
		queue = queue[1:]

		// The root level was already covered by the direct-match tier.
		if f.depth > 0 {
			if prop, ok := f.desc.PropertyFold(name); ok {
				return f.path.append(prop)
			}
		}

		if f.depth >= r.cfg.MaxSearchDepth {
			continue
		}

		for _, prop := range f.desc.Properties {
			if !match.IsStructured(prop.Type) {
				continue
			}
			t := meta.Deref(prop.Type)
			if _, seen := visited[t]; seen {
				continue
			}
			visited[t] = struct{}{}

			inner, err := r.meta.Describe(t)
			if err != nil {
				continue
			}
			queue = append(queue, frame{
				desc:  inner,
				path:  f.path.append(prop),
				depth: f.depth + 1,
			})
		}
	}
	return nil
}

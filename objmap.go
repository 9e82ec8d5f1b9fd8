// Package objmap maps values between unrelated Go struct shapes at
// runtime, without generated code or per-pair registration. Property
// correspondences are discovered by name with case-insensitive matching,
// camel-case decomposition of flattened names and a bounded search through
// nested structures, then compiled once per type pair into a cached plan
// that later calls replay.
package objmap

import (
	"reflect"

	"github.com/hashicorp/go-hclog"

	"objmap/internal/cache"
	"objmap/internal/convert"
	"objmap/internal/meta"
	"objmap/internal/plan"
	"objmap/internal/resolve"
)

// Direction orients a mapping. It selects which side of the boundary the
// target sits on and drives the audit-field filter.
type Direction = meta.Direction

const (
	// RequestToEntity maps inbound payloads onto domain entities. Audit
	// properties on the target are never written.
	RequestToEntity = meta.RequestToEntity
	// EntityToResponse maps domain entities onto outbound payloads.
	EntityToResponse = meta.EntityToResponse
)

// RegisterEnum makes the named constants of a string-backed enumerated type
// available to value coercion, in both directions.
func RegisterEnum[E any](values map[string]E) { convert.RegisterEnum(values) }

// RegisterTransformer installs a named string transformer usable from the
// transform directive.
func RegisterTransformer(name string, fn func(string) string) {
	convert.RegisterTransformer(name, fn)
}

const (
	// DefaultMaxDepth bounds nested recursion per mapping call.
	DefaultMaxDepth = 15
	// DefaultSearchDepth bounds the deep property search within a source type.
	DefaultSearchDepth = 4
	// DefaultParallelThreshold is the batch size at which slice mapping
	// fans out across goroutines.
	DefaultParallelThreshold = 64
)

type config struct {
	logger            hclog.Logger
	maxDepth          int
	searchDepth       int
	parallelThreshold int
	failFast          bool
}

// Option configures a Mapper at construction.
type Option func(*config)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l hclog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMaxDepth caps nested recursion. Branches past the cap map to null.
func WithMaxDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// WithSearchDepth caps how deep the resolver searches nested source
// structures for a matching property.
func WithSearchDepth(depth int) Option {
	return func(c *config) {
		if depth > 0 {
			c.searchDepth = depth
		}
	}
}

// WithParallelThreshold sets the batch size at which ToSlice maps elements
// concurrently.
func WithParallelThreshold(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.parallelThreshold = n
		}
	}
}

// WithFailFast makes batch mapping stop at the first failing element
// instead of collecting per-element errors.
func WithFailFast() Option {
	return func(c *config) { c.failFast = true }
}

// Mapper maps objects between struct shapes. It is safe for concurrent use;
// all caches are internally synchronized. Construct one per application and
// reuse it, since discovery work is amortized into its caches.
type Mapper struct {
	log       hclog.Logger
	caches    *cache.Registry
	meta      *meta.Registry
	compiler  *plan.Compiler
	converter *convert.Converter

	maxDepth          int
	parallelThreshold int
	failFast          bool
}

// New builds a Mapper with fresh caches.
func New(opts ...Option) *Mapper {
	cfg := config{
		logger:            hclog.NewNullLogger(),
		maxDepth:          DefaultMaxDepth,
		searchDepth:       DefaultSearchDepth,
		parallelThreshold: DefaultParallelThreshold,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.logger.Named("objmap")
	caches := cache.NewRegistry()
	metaReg := meta.NewRegistry(log, caches)
	resolver := resolve.New(log, metaReg, caches, resolve.Config{MaxSearchDepth: cfg.searchDepth})
	compiler := plan.NewCompiler(log, metaReg, resolver, caches)

	return &Mapper{
		log:               log,
		caches:            caches,
		meta:              metaReg,
		compiler:          compiler,
		converter:         convert.New(log),
		maxDepth:          cfg.maxDepth,
		parallelThreshold: cfg.parallelThreshold,
		failFast:          cfg.failFast,
	}
}

// CacheStats reports entry counts per internal cache, keyed by cache name.
func (m *Mapper) CacheStats() map[string]int { return m.caches.Stats() }

// ClearCaches drops all cached descriptors, accessors, paths and plans.
// Subsequent calls rediscover and recompile on demand.
func (m *Mapper) ClearCaches() { m.caches.Clear() }

type mapOptions struct {
	dir      Direction
	failFast bool
}

// MapOption configures a single mapping call.
type MapOption func(*mapOptions)

// WithDirection sets the mapping direction for this call.
func WithDirection(d Direction) MapOption {
	return func(o *mapOptions) { o.dir = d }
}

// FailFast stops a batch call at the first failing element.
func FailFast() MapOption {
	return func(o *mapOptions) { o.failFast = true }
}

func (m *Mapper) callOptions(dir Direction, opts []MapOption) mapOptions {
	o := mapOptions{dir: dir, failFast: m.failFast}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// To maps src into a newly constructed T. A nil source yields the zero T
// with no error. The default direction is EntityToResponse; inbound
// mappings pass WithDirection(RequestToEntity) to engage the audit filter.
func To[T any](m *Mapper, src any, opts ...MapOption) (T, error) {
	var dst T
	o := m.callOptions(EntityToResponse, opts)

	srcVal := meta.DerefValue(reflect.ValueOf(src))
	if !srcVal.IsValid() {
		return dst, nil
	}
	dstVal := reflect.ValueOf(&dst).Elem()
	if err := m.mapRoot(srcVal, dstVal, o.dir, false); err != nil {
		return dst, err
	}
	return dst, nil
}

// Update maps src onto an existing dst, skipping any source property whose
// value is null and leaving audit and immutable target properties untouched.
// The default direction is RequestToEntity.
func Update[T any](m *Mapper, src any, dst *T, opts ...MapOption) error {
	if dst == nil {
		return &MappingError{Source: reflect.TypeOf(src), Index: -1, Err: ErrNotStruct}
	}
	o := m.callOptions(RequestToEntity, opts)

	srcVal := meta.DerefValue(reflect.ValueOf(src))
	if !srcVal.IsValid() {
		return nil
	}
	return m.mapRoot(srcVal, reflect.ValueOf(dst).Elem(), o.dir, true)
}

// mapRoot dereferences pointer targets, allocating as needed, and runs the
// compiled plan for the pair.
func (m *Mapper) mapRoot(src, dst reflect.Value, dir Direction, update bool) error {
	for dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		dst = dst.Elem()
	}
	ctx := newMapContext()
	ctx.visited[visitKey{src: src.Type(), dst: dst.Type()}] = struct{}{}
	return m.mapObject(src, dst, dir, update, ctx)
}

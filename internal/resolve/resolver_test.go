package resolve

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objmap/internal/cache"
	"objmap/internal/meta"
)

type contact struct {
	Email string
	Phone string
}

type address struct {
	Street string
	City   string
}

type customer struct {
	ID       int64
	FullName string
	Address  address
	Contact  contact
}

func newTestResolver(cfg Config) *Resolver {
	return New(nil, meta.NewRegistry(nil, nil), nil, cfg)
}

func TestResolve_DirectMatch(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "FullName", meta.Directives{}, meta.RequestToEntity)
	require.True(t, ok)
	assert.Equal(t, "FullName", p.String())
	assert.False(t, p.Nested())
}

func TestResolve_IgnoredSourcePropertyInvisible(t *testing.T) {
	type credentials struct {
		Login  string
		Secret string `map:"-"`
	}
	r := newTestResolver(Config{})
	src := reflect.TypeOf(credentials{})

	// No tier may surface an ignored source property, exact or folded.
	_, ok := r.Resolve(src, "Secret", meta.Directives{}, meta.RequestToEntity)
	assert.False(t, ok)
	_, ok = r.Resolve(src, "secret", meta.Directives{}, meta.RequestToEntity)
	assert.False(t, ok)
}

func TestResolve_DirectMatchCaseFold(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "fullname", meta.Directives{}, meta.RequestToEntity)
	require.True(t, ok)
	assert.Equal(t, "FullName", p.Leaf().Name)
}

func TestResolve_ExplicitDottedPath(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "Country", meta.Directives{Source: "address.city"}, meta.RequestToEntity)
	require.True(t, ok)
	assert.Equal(t, "Address.City", p.String())
	assert.True(t, p.Nested())
}

func TestResolve_ExplicitPathMissingSegment(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	_, ok := r.Resolve(src, "X", meta.Directives{Source: "address.region"}, meta.RequestToEntity)
	assert.False(t, ok)
}

func TestResolve_SourceNameOverride(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "DisplayName", meta.Directives{Source: "FullName"}, meta.RequestToEntity)
	require.True(t, ok)
	assert.Equal(t, "FullName", p.Leaf().Name)
}

func TestResolve_FlattenedDecomposition(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "AddressCity", meta.Directives{}, meta.EntityToResponse)
	require.True(t, ok)
	assert.Equal(t, "Address.City", p.String())
}

func TestResolve_DeepSearch(t *testing.T) {
	r := newTestResolver(Config{})
	src := reflect.TypeOf(customer{})

	// Email exists only inside the nested Contact block.
	p, ok := r.Resolve(src, "Email", meta.Directives{}, meta.EntityToResponse)
	require.True(t, ok)
	assert.Equal(t, "Contact.Email", p.String())
}

func TestResolve_DeepSearchBounded(t *testing.T) {
	type level3 struct{ Secret string }
	type level2 struct{ L3 level3 }
	type level1 struct{ L2 level2 }
	type root struct{ L1 level1 }

	shallow := newTestResolver(Config{MaxSearchDepth: 2})
	_, ok := shallow.Resolve(reflect.TypeOf(root{}), "Secret", meta.Directives{}, meta.RequestToEntity)
	assert.False(t, ok)

	deep := newTestResolver(Config{MaxSearchDepth: 3})
	p, ok := deep.Resolve(reflect.TypeOf(root{}), "Secret", meta.Directives{}, meta.RequestToEntity)
	require.True(t, ok)
	assert.Equal(t, "L1.L2.L3.Secret", p.String())
}

func TestResolve_MissIsCached(t *testing.T) {
	caches := cache.NewRegistry()
	r := New(nil, meta.NewRegistry(nil, nil), caches, Config{})
	src := reflect.TypeOf(customer{})

	_, ok := r.Resolve(src, "NoSuchField", meta.Directives{}, meta.RequestToEntity)
	require.False(t, ok)
	assert.Equal(t, 1, caches.Stats()["paths"])

	// The cached miss answers without re-searching.
	_, ok = r.Resolve(src, "NoSuchField", meta.Directives{}, meta.RequestToEntity)
	assert.False(t, ok)
	assert.Equal(t, 1, caches.Stats()["paths"])
}

func TestFieldPath_Get(t *testing.T) {
	r := newTestResolver(Config{})
	reg := meta.NewRegistry(nil, nil)
	src := reflect.TypeOf(customer{})

	p, ok := r.Resolve(src, "AddressCity", meta.Directives{}, meta.EntityToResponse)
	require.True(t, ok)

	c := customer{Address: address{City: "Lisbon"}}
	v := p.Get(reg, reflect.ValueOf(c))
	require.True(t, v.IsValid())
	assert.Equal(t, "Lisbon", v.String())
}

func TestFieldPath_GetNilIntermediate(t *testing.T) {
	type wrapper struct {
		Customer *customer
	}
	r := newTestResolver(Config{})
	reg := meta.NewRegistry(nil, nil)

	p, ok := r.Resolve(reflect.TypeOf(wrapper{}), "FullName", meta.Directives{}, meta.RequestToEntity)
	require.True(t, ok)

	v := p.Get(reg, reflect.ValueOf(wrapper{}))
	assert.False(t, v.IsValid())
}

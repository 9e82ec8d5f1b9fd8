package objmap_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"objmap"
	"objmap/store"
	"objmap/warehouse"
)

func init() {
	objmap.RegisterEnum(map[string]store.Priority{
		"STANDARD":  store.PriorityStandard,
		"EXPRESS":   store.PriorityExpress,
		"OVERNIGHT": store.PriorityOvernight,
	})
}

func boolPtr(b bool) *bool { return &b }

func sampleCustomerRequest() warehouse.CustomerRequest {
	return warehouse.CustomerRequest{
		FullName: "Ada Lovelace",
		Contact: warehouse.ContactPayload{
			Email: "ada@example.com",
			Phone: "+44 20 7946 0000",
		},
		Address: warehouse.AddressPayload{
			Street:     "12 St James's Square",
			City:       "London",
			PostalCode: "SW1Y 4JH",
			Country:    "GB",
		},
		IsActive: boolPtr(true),
	}
}

func sampleCustomer() store.Customer {
	return store.Customer{
		ID:       7,
		FullName: "Ada Lovelace",
		Address: store.Address{
			Street:     "12 St James's Square",
			City:       "London",
			PostalCode: "SW1Y 4JH",
			Country:    "GB",
		},
		Contact: store.ContactInfo{
			Email: "ada@example.com",
			Phone: "+44 20 7946 0000",
		},
		IsActive:  true,
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Version:   3,
	}
}

func TestTo_RequestToEntity(t *testing.T) {
	m := objmap.New()

	entity, err := objmap.To[store.Customer](m, sampleCustomerRequest(),
		objmap.WithDirection(objmap.RequestToEntity))
	require.NoError(t, err)

	assert.Equal(t, "Ada Lovelace", entity.FullName)
	assert.Equal(t, "ada@example.com", entity.Contact.Email)
	assert.Equal(t, "+44 20 7946 0000", entity.Contact.Phone)
	assert.Equal(t, "London", entity.Address.City)
	assert.Equal(t, "GB", entity.Address.Country)
	assert.True(t, entity.IsActive)

	// Audit properties are never written inbound.
	assert.True(t, entity.CreatedAt.IsZero())
	assert.True(t, entity.UpdatedAt.IsZero())
	assert.Zero(t, entity.Version)
}

func TestTo_OrderRequestWithCoercions(t *testing.T) {
	m := objmap.New()

	req := warehouse.OrderRequest{
		Reference:  "ORD-2024-001",
		Status:     "paid",
		Priority:   "EXPRESS",
		TotalCents: 12900,
		Items: []warehouse.ItemPayload{
			{SKU: "SKU-1", Name: "Widget", Quantity: 2, UnitPriceCents: 4500},
			{SKU: "SKU-2", Name: "Gadget", Quantity: 1, UnitPriceCents: 3900},
		},
		PlacedAt: "2024-06-01T12:30:00Z",
	}

	order, err := objmap.To[store.Order](m, req,
		objmap.WithDirection(objmap.RequestToEntity))
	require.NoError(t, err)

	assert.Equal(t, "ORD-2024-001", order.Reference)
	assert.Equal(t, store.StatusPaid, order.Status)
	assert.Equal(t, store.PriorityExpress, order.Priority)
	assert.Equal(t, int64(12900), order.TotalCents)
	assert.Equal(t, 2024, order.PlacedAt.Year())

	require.Len(t, order.Items, 2)
	assert.Equal(t, store.OrderItem{SKU: "SKU-1", Name: "Widget", Quantity: 2, UnitPriceCents: 4500}, order.Items[0])
}

func TestTo_EntityToResponse(t *testing.T) {
	m := objmap.New()

	resp, err := objmap.To[warehouse.CustomerResponse](m, sampleCustomer())
	require.NoError(t, err)

	assert.Equal(t, int64(7), resp.ID)
	assert.Equal(t, "Ada Lovelace", resp.FullName)
	// Deep search pulls Email out of the nested contact block.
	assert.Equal(t, "ada@example.com", resp.Email)
	// Flattened decomposition.
	assert.Equal(t, "London", resp.AddressCity)
	// Explicit dotted path.
	assert.Equal(t, "GB", resp.Country)
	// nullempty turns the absent order list into an empty one.
	require.NotNil(t, resp.Orders)
	assert.Empty(t, resp.Orders)
}

func TestTo_NestedOrderResponse(t *testing.T) {
	m := objmap.New()

	order := store.Order{
		ID:         42,
		Reference:  "ORD-42",
		Status:     store.StatusShipped,
		Priority:   store.PriorityOvernight,
		TotalCents: 5600,
		Items: []store.OrderItem{
			{SKU: "SKU-9", Name: "Sprocket", Quantity: 4, UnitPriceCents: 1400},
		},
		PlacedAt: time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC),
	}

	resp, err := objmap.To[warehouse.OrderResponse](m, order,
		objmap.WithDirection(objmap.EntityToResponse))
	require.NoError(t, err)

	assert.Equal(t, "SHIPPED", resp.Status)
	assert.Equal(t, "OVERNIGHT", resp.Priority)
	// Formatted by the format directive.
	assert.Equal(t, "2024-06-01", resp.PlacedAt)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Sprocket", resp.Items[0].Name)
	assert.Nil(t, resp.Customer)
}

func TestTo_CircularReferenceTruncates(t *testing.T) {
	m := objmap.New()

	customer := sampleCustomer()
	order := store.Order{ID: 1, Reference: "ORD-1", Status: store.StatusPending, Customer: &customer}
	customer.Orders = []store.Order{order}
	customer.Orders[0].Customer = &customer

	resp, err := objmap.To[warehouse.CustomerResponse](m, &customer)
	require.NoError(t, err)

	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "ORD-1", resp.Orders[0].Reference)
	// The back-reference to the customer is cut, not followed forever.
	assert.Nil(t, resp.Orders[0].Customer)
}

func TestTo_NilSourceYieldsZero(t *testing.T) {
	m := objmap.New()

	entity, err := objmap.To[store.Customer](m, nil)
	require.NoError(t, err)
	assert.Zero(t, entity)

	var req *warehouse.CustomerRequest
	entity, err = objmap.To[store.Customer](m, req)
	require.NoError(t, err)
	assert.Zero(t, entity)
}

func TestTo_PointerTarget(t *testing.T) {
	m := objmap.New()

	entity, err := objmap.To[*store.Customer](m, sampleCustomerRequest(),
		objmap.WithDirection(objmap.RequestToEntity))
	require.NoError(t, err)
	require.NotNil(t, entity)
	assert.Equal(t, "Ada Lovelace", entity.FullName)
}

type orderPatch struct {
	Reference  *string
	Status     *string
	TotalCents *int64
}

func strPtr(s string) *string { return &s }
func i64Ptr(n int64) *int64   { return &n }

func TestUpdate_SkipsNilAndProtectedFields(t *testing.T) {
	m := objmap.New()

	order := store.Order{
		Reference:  "ORD-KEEP",
		Status:     store.StatusPending,
		TotalCents: 100,
		UpdatedAt:  time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Version:    5,
	}

	patch := orderPatch{
		Reference:  strPtr("ORD-EVIL"),
		TotalCents: i64Ptr(500),
	}
	require.NoError(t, objmap.Update(m, patch, &order))

	assert.Equal(t, int64(500), order.TotalCents)
	// Nil patch value leaves the field alone.
	assert.Equal(t, store.StatusPending, order.Status)
	// Immutable and audit fields resist the update.
	assert.Equal(t, "ORD-KEEP", order.Reference)
	assert.Equal(t, int64(5), order.Version)
	assert.Equal(t, 2024, order.UpdatedAt.Year())
}

func TestUpdate_CoercesValues(t *testing.T) {
	m := objmap.New()

	order := store.Order{Status: store.StatusPending}
	patch := orderPatch{Status: strPtr("shipped")}
	require.NoError(t, objmap.Update(m, patch, &order))
	assert.Equal(t, store.StatusShipped, order.Status)
}

func TestUpdate_NilTarget(t *testing.T) {
	m := objmap.New()

	err := objmap.Update[store.Order](m, orderPatch{}, nil)
	assert.Error(t, err)
}

type requiredTarget struct {
	Email string `map:"required"`
	Name  string
}

func TestTo_RequiredViolation(t *testing.T) {
	type bareSource struct{ Name string }
	m := objmap.New()

	_, err := objmap.To[requiredTarget](m, bareSource{Name: "x"})
	var reqErr *objmap.RequiredFieldError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "Email", reqErr.Property)
}

type defaultedTarget struct {
	Status string `map:"default=PENDING"`
	Tries  int    `map:"default=3"`
	Name   string
}

func TestTo_DefaultsApplied(t *testing.T) {
	type bareSource struct{ Name string }
	m := objmap.New()

	out, err := objmap.To[defaultedTarget](m, bareSource{Name: "x"})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", out.Status)
	assert.Equal(t, 3, out.Tries)
	assert.Equal(t, "x", out.Name)
}

func TestTo_InvalidEnumSurfaces(t *testing.T) {
	m := objmap.New()

	req := warehouse.OrderRequest{Reference: "ORD-X", Priority: "TURBO"}
	_, err := objmap.To[store.Order](m, req)
	var enumErr *objmap.InvalidEnumError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "TURBO", enumErr.Value)
}

func TestTo_ConversionFailureKeepsOriginalSilently(t *testing.T) {
	type src struct{ Age string }
	type dst struct{ Age int }
	m := objmap.New()

	out, err := objmap.To[dst](m, src{Age: "not-a-number"})
	require.NoError(t, err)
	assert.Zero(t, out.Age)
}

func TestCacheStats_PlansCompiledOnce(t *testing.T) {
	m := objmap.New()

	_, err := objmap.To[store.Customer](m, sampleCustomerRequest())
	require.NoError(t, err)
	first := m.CacheStats()

	_, err = objmap.To[store.Customer](m, sampleCustomerRequest())
	require.NoError(t, err)
	assert.Equal(t, first, m.CacheStats())

	assert.Positive(t, first["plans"])
	assert.Positive(t, first["descriptors"])
	assert.Positive(t, first["paths"])

	m.ClearCaches()
	for name, n := range m.CacheStats() {
		assert.Zero(t, n, name)
	}

	// Everything recompiles on demand after a clear.
	entity, err := objmap.To[store.Customer](m, sampleCustomerRequest())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", entity.FullName)
}

func TestToSlice_MatchesSequentialMapping(t *testing.T) {
	reqs := make([]warehouse.CustomerRequest, 10)
	for i := range reqs {
		reqs[i] = sampleCustomerRequest()
	}

	sequential := objmap.New()
	parallel := objmap.New(objmap.WithParallelThreshold(2))

	want, err := objmap.ToSlice[store.Customer](sequential, reqs)
	require.NoError(t, err)
	got, err := objmap.ToSlice[store.Customer](parallel, reqs)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	require.Len(t, got, 10)
}

func TestToSlice_PartialFailureKeepsSuccesses(t *testing.T) {
	m := objmap.New()

	reqs := []warehouse.OrderRequest{
		{Reference: "ORD-1", Priority: "EXPRESS", TotalCents: 10},
		{Reference: "ORD-2", Priority: "TURBO", TotalCents: 20},
		{Reference: "ORD-3", Priority: "STANDARD", TotalCents: 30},
	}

	out, err := objmap.ToSlice[store.Order](m, reqs)
	require.Error(t, err)

	var mapErr *objmap.MappingError
	require.True(t, errors.As(err, &mapErr))
	assert.Equal(t, 1, mapErr.Index)

	assert.Equal(t, "ORD-1", out[0].Reference)
	assert.Equal(t, int64(30), out[2].TotalCents)
}

func TestToSlice_FailFastStopsEarly(t *testing.T) {
	m := objmap.New()

	reqs := []warehouse.OrderRequest{
		{Reference: "ORD-1", Priority: "TURBO"},
		{Reference: "ORD-2", Priority: "EXPRESS"},
	}

	_, err := objmap.ToSlice[store.Order](m, reqs, objmap.FailFast())
	require.Error(t, err)

	var enumErr *objmap.InvalidEnumError
	assert.ErrorAs(t, err, &enumErr)
}

func TestToSlice_NilInput(t *testing.T) {
	m := objmap.New()

	out, err := objmap.ToSlice[store.Customer](m, []warehouse.CustomerRequest(nil))
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestTo_DefaultDirectionKeepsAuditFields(t *testing.T) {
	type customerView struct {
		FullName  string
		CreatedAt time.Time
		Version   int64
	}
	m := objmap.New()

	// Outbound is the default, so audit-named properties come through
	// without an explicit direction.
	view, err := objmap.To[customerView](m, sampleCustomer())
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", view.FullName)
	assert.Equal(t, 2024, view.CreatedAt.Year())
	assert.Equal(t, int64(3), view.Version)
}

func TestTo_IgnoredSourceFieldNotCopied(t *testing.T) {
	type credentials struct {
		Login  string
		Secret string `map:"-"`
	}
	type loginView struct {
		Login  string
		Secret string
	}
	m := objmap.New()

	view, err := objmap.To[loginView](m, credentials{Login: "ada", Secret: "s3cret"})
	require.NoError(t, err)
	assert.Equal(t, "ada", view.Login)
	assert.Empty(t, view.Secret)
}

type tagEntity struct {
	Code   string
	Weight int
}

type tagView struct {
	Code string
}

func TestTo_SetOfStructsRebuckets(t *testing.T) {
	type entity struct {
		Tags map[tagEntity]struct{}
	}
	type view struct {
		Tags map[tagView]struct{}
	}
	m := objmap.New()

	out, err := objmap.To[view](m, entity{Tags: map[tagEntity]struct{}{
		{Code: "fragile", Weight: 2}: {},
		{Code: "bulky", Weight: 9}:   {},
	}})
	require.NoError(t, err)

	require.Len(t, out.Tags, 2)
	assert.Contains(t, out.Tags, tagView{Code: "fragile"})
	assert.Contains(t, out.Tags, tagView{Code: "bulky"})
}

func TestMapper_ConcurrentUse(t *testing.T) {
	m := objmap.New()
	req := sampleCustomerRequest()

	done := make(chan error, 16)
	for i := 0; i < 16; i++ {
		go func() {
			_, err := objmap.To[store.Customer](m, req)
			done <- err
		}()
	}
	for i := 0; i < 16; i++ {
		assert.NoError(t, <-done)
	}
}

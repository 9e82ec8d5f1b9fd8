// Package warehouse holds the wire payloads of the fulfilment API the
// examples and integration tests map against. Shapes deliberately disagree
// with package store: response names are flattened, enums travel as strings
// and timestamps as formatted text.
package warehouse

// AddressPayload is an address on the wire.
type AddressPayload struct {
	Street     string `json:"street"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// ContactPayload groups contact details on the wire.
type ContactPayload struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// CustomerRequest is the inbound customer payload.
type CustomerRequest struct {
	FullName string         `json:"full_name"`
	Contact  ContactPayload `json:"contact"`
	Address  AddressPayload `json:"address"`
	IsActive *bool          `json:"is_active,omitempty"`
}

// CustomerResponse is the outbound customer payload. Address fields are
// flattened and Email is pulled out of the nested contact block.
type CustomerResponse struct {
	ID          int64           `json:"id"`
	FullName    string          `json:"full_name"`
	Email       string          `json:"email"`
	AddressCity string          `json:"address_city"`
	Country     string          `json:"country" map:"address.country"`
	Orders      []OrderResponse `json:"orders"  map:"nullempty"`
}

// OrderRequest is the inbound order payload.
type OrderRequest struct {
	Reference  string        `json:"reference"`
	Status     string        `json:"status"`
	Priority   string        `json:"priority"`
	TotalCents int64         `json:"total_cents"`
	Items      []ItemPayload `json:"items"`
	PlacedAt   string        `json:"placed_at"`
}

// OrderResponse is the outbound order payload.
type OrderResponse struct {
	ID         int64             `json:"id"`
	Reference  string            `json:"reference"`
	Status     string            `json:"status"`
	Priority   string            `json:"priority"`
	TotalCents int64             `json:"total_cents"`
	Items      []ItemPayload     `json:"items" map:"nullempty"`
	PlacedAt   string            `json:"placed_at" map:"format=2006-01-02"`
	Customer   *CustomerResponse `json:"customer,omitempty"`
}

// ItemPayload is one order line on the wire.
type ItemPayload struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

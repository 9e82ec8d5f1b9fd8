package meta

// Direction selects which side of the request/entity/response pipeline a
// mapping serves. It participates in path and plan cache keys because
// direction-aware filtering changes which properties take part.
type Direction int

const (
	// RequestToEntity maps an inbound request shape onto a persistent entity.
	// Audit-managed target properties are skipped in this direction.
	RequestToEntity Direction = iota
	// EntityToResponse maps a persistent entity onto an outbound response
	// shape. Audit properties are carried through.
	EntityToResponse
)

// String returns a human-readable direction name.
func (d Direction) String() string {
	switch d {
	case RequestToEntity:
		return "request_to_entity"
	case EntityToResponse:
		return "entity_to_response"
	default:
		return "unknown"
	}
}

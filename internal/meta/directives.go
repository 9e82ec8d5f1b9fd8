package meta

import (
	"strconv"
	"strings"
)

// TagKey is the struct tag consulted for mapping directives.
const TagKey = "map"

// Directives is the plain data bundle of per-property mapping hints parsed
// from a `map:"..."` struct tag. The zero value means "no directives".
type Directives struct {
	// Ignore excludes the property from mapping entirely (`map:"-"`).
	Ignore bool
	// Source overrides the source property name, or supplies an explicit
	// dotted path ("customer.address.city").
	Source string
	// Required rejects the whole object when the resolved value is missing.
	Required bool
	// Default is the string-encoded fallback applied when resolution fails.
	Default string
	// HasDefault distinguishes an explicit empty default from no default.
	HasDefault bool
	// Transform names a registered value transformer applied before coercion.
	Transform string
	// Format is the temporal layout used for string/time conversions.
	Format string
	// Nested forces nested mapping even when the heuristics would not.
	Nested bool
	// MaxDepth caps recursion below this property; 0 means the engine default.
	MaxDepth int
	// NullEmpty substitutes an empty collection for a nil source value when
	// the target is collection-typed.
	NullEmpty bool
	// Immutable excludes the property from update-mode mapping.
	Immutable bool
}

// flag tokens understood without a value.
var directiveFlags = map[string]struct{}{
	"required":  {},
	"nested":    {},
	"nullempty": {},
	"immutable": {},
}

// ParseTag parses a `map` tag value into a directive bundle.
//
// Grammar: comma-separated tokens. The first token, when it is neither a
// known flag nor a key=value pair, is the source-name override (possibly a
// dotted path). A single "-" ignores the property.
func ParseTag(tag string) Directives {
	var d Directives
	if tag == "" {
		return d
	}
	if tag == "-" {
		d.Ignore = true
		return d
	}

	for i, token := range strings.Split(tag, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		if key, value, ok := strings.Cut(token, "="); ok {
			switch key {
			case "source":
				d.Source = value
			case "default":
				d.Default = value
				d.HasDefault = true
			case "transform":
				d.Transform = value
			case "format":
				d.Format = value
			case "depth":
				if n, err := strconv.Atoi(value); err == nil && n > 0 {
					d.MaxDepth = n
				}
			}
			continue
		}

		if _, ok := directiveFlags[token]; ok {
			switch token {
			case "required":
				d.Required = true
			case "nested":
				d.Nested = true
			case "nullempty":
				d.NullEmpty = true
			case "immutable":
				d.Immutable = true
			}
			continue
		}

		// Positional source override, json-tag style.
		if i == 0 {
			d.Source = token
		}
	}

	return d
}

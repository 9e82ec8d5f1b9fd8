package match

import (
	"strings"
	"unicode"
)

// commonSuffixes are the transport-shape suffixes stripped before comparing
// type or property names.
var commonSuffixes = []string{
	"Request",
	"Response",
	"DTO",
	"Dto",
	"Entity",
	"Model",
}

// Normalize lowers an identifier and strips separators so that CamelCase and
// snake_case spellings compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// StripSuffix removes one common transport-shape suffix from a name.
// "CustomerResponse" -> "Customer".
func StripSuffix(name string) string {
	for _, suffix := range commonSuffixes {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != name && trimmed != "" {
			return trimmed
		}
	}
	return name
}

// SimilarNames reports whether two type names plausibly describe the same
// shape: equal after normalization and suffix stripping, or one containing
// the other as a prefix/suffix.
func SimilarNames(a, b string) bool {
	na := Normalize(StripSuffix(a))
	nb := Normalize(StripSuffix(b))
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	return strings.HasPrefix(na, nb) || strings.HasPrefix(nb, na) ||
		strings.HasSuffix(na, nb) || strings.HasSuffix(nb, na)
}

// SplitPoint is one camel-case decomposition of a compound property name
// into a nested-object prefix and an inner property suffix.
type SplitPoint struct {
	Prefix string
	Suffix string
}

// SplitPoints returns every camel-case split of a compound name, shortest
// prefix first. "CustomerAddressCity" yields (Customer, AddressCity) and
// (CustomerAddress, City).
func SplitPoints(name string) []SplitPoint {
	runes := []rune(name)
	var points []SplitPoint
	for i := 1; i < len(runes); i++ {
		if unicode.IsUpper(runes[i]) && !unicode.IsUpper(runes[i-1]) {
			points = append(points, SplitPoint{
				Prefix: string(runes[:i]),
				Suffix: string(runes[i:]),
			})
		}
	}
	return points
}

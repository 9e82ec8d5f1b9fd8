package convert

import (
	"strings"
	"sync"
	"unicode"
)

// Transformer rewrites a string value before type coercion.
type Transformer func(string) string

var (
	transformMu  sync.RWMutex
	transformers = map[string]Transformer{
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"trim":  strings.TrimSpace,
		"title": titleCase,
	}
)

// RegisterTransformer adds or replaces a named transformer available to the
// `transform=` directive.
func RegisterTransformer(name string, fn Transformer) {
	transformMu.Lock()
	transformers[name] = fn
	transformMu.Unlock()
}

func transformerFor(name string) (Transformer, bool) {
	transformMu.RLock()
	fn, ok := transformers[name]
	transformMu.RUnlock()
	return fn, ok
}

// titleCase upper-cases the first rune only.
func titleCase(s string) string {
	for i, r := range s {
		return string(unicode.ToUpper(r)) + s[i+len(string(r)):]
	}
	return s
}

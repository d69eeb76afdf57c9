package gateway

import "strings"

const (
	toolSeparator     = "_"
	resourceSeparator = ":"
)

// prefixedToolName builds the aggregated name for a tool or prompt
// exported by backend (spec §4.5: "<backend.name>_<item.name>").
func prefixedToolName(backend, name string) string {
	return backend + toolSeparator + name
}

// prefixedResourceURI builds the aggregated URI for a resource exported
// by backend (spec §4.5: "<backend.name>:<uri>").
func prefixedResourceURI(backend, uri string) string {
	return backend + resourceSeparator + uri
}

// splitPrefixed finds, among candidateBackends, the one whose name is the
// longest prefix of prefixed followed by sep, and returns the backend
// name and the original (unprefixed) item name. The longest match wins
// when one backend's name is itself a prefix of another's (§4.5's
// "collision within a single backend" note); among equal-length matches
// the first in iteration order wins.
func splitPrefixed(prefixed, sep string, candidateBackends []string) (backend, original string, ok bool) {
	bestLen := -1
	for _, name := range candidateBackends {
		p := name + sep
		if !strings.HasPrefix(prefixed, p) {
			continue
		}
		if len(name) > bestLen {
			bestLen = len(name)
			backend = name
			original = strings.TrimPrefix(prefixed, p)
			ok = true
		}
	}
	return backend, original, ok
}

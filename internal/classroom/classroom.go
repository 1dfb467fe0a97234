package classroom

import "sort"

// Allowed is the closed set of valid classroom codes. It is the single
// definition consumed by every call site; classrooms cannot be created,
// renamed or deleted through the API.
var Allowed = []string{"D15A", "D15B", "D15C", "D5A", "D5B", "D5C"}

var allowedSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Allowed))
	for _, name := range Allowed {
		m[name] = struct{}{}
	}
	return m
}()

// IsAllowed reports whether name is a valid classroom code.
func IsAllowed(name string) bool {
	_, ok := allowedSet[name]
	return ok
}

// Names returns the allowed codes sorted by name.
func Names() []string {
	out := make([]string, len(Allowed))
	copy(out, Allowed)
	sort.Strings(out)
	return out
}

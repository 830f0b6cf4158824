// Package tz holds the table of timezones the export supports and resolves
// user input (IANA ids, labels, EST/EDT style abbreviations) against it.
package tz

// Descriptor describes one supported zone.
type Descriptor struct {
	// IANA is the canonical zone id, e.g. "America/New_York".
	IANA string `json:"iana"`
	// Label is the human readable name used in the UI and the CSV Time Zone column.
	Label string `json:"label"`
	// Aliases are additional inputs that resolve to this zone.
	Aliases []string `json:"aliases"`
}

// Option is a value/label pair for zone pickers.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Registry resolves inputs against a fixed set of descriptors. A Registry is
// never modified after construction and is safe for concurrent use.
type Registry struct {
	descs  []Descriptor
	byIANA map[string]int
	byName map[string]int
}

// NewRegistry builds a registry from descs. When an alias is claimed by more
// than one descriptor the first one wins.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{
		descs:  make([]Descriptor, 0, len(descs)),
		byIANA: make(map[string]int, len(descs)),
		byName: make(map[string]int),
	}
	for _, d := range descs {
		d.Aliases = append([]string(nil), d.Aliases...)
		idx := len(r.descs)
		r.descs = append(r.descs, d)
		if _, dup := r.byIANA[d.IANA]; !dup {
			r.byIANA[d.IANA] = idx
		}
		for _, a := range d.Aliases {
			if _, dup := r.byName[a]; !dup {
				r.byName[a] = idx
			}
		}
	}
	return r
}

var defaultRegistry = NewRegistry(
	Descriptor{IANA: "America/New_York", Label: "Eastern", Aliases: []string{"EST", "EDT", "Eastern"}},
	Descriptor{IANA: "America/Chicago", Label: "Central", Aliases: []string{"CST", "CDT", "Central"}},
	Descriptor{IANA: "America/Denver", Label: "Mountain", Aliases: []string{"MST", "MDT", "Mountain"}},
	Descriptor{IANA: "America/Los_Angeles", Label: "Pacific", Aliases: []string{"PST", "PDT", "Pacific"}},
	Descriptor{IANA: "America/Anchorage", Label: "Alaska", Aliases: []string{"AKST", "AKDT"}},
	Descriptor{IANA: "Europe/Amsterdam", Label: "Central European Time", Aliases: []string{"CET", "CEST"}},
)

// Default returns the process-wide registry of supported zones.
func Default() *Registry {
	return defaultRegistry
}

// Lookup finds the descriptor for an IANA id first, then for an alias.
// Matching is exact.
func (r *Registry) Lookup(input string) (Descriptor, bool) {
	if idx, ok := r.byIANA[input]; ok {
		return r.descs[idx], true
	}
	if idx, ok := r.byName[input]; ok {
		return r.descs[idx], true
	}
	return Descriptor{}, false
}

// ResolveIANA returns the IANA id for input, or input unchanged when it is
// not in the registry.
func (r *Registry) ResolveIANA(input string) string {
	if d, ok := r.Lookup(input); ok {
		return d.IANA
	}
	return input
}

// ResolveLabel returns the display label for input, or input unchanged when
// it is not in the registry.
func (r *Registry) ResolveLabel(input string) string {
	if d, ok := r.Lookup(input); ok {
		return d.Label
	}
	return input
}

// Supported reports whether input resolves to a registry entry.
func (r *Registry) Supported(input string) bool {
	_, ok := r.Lookup(input)
	return ok
}

// All returns a copy of the registry table in declaration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, len(r.descs))
	for i, d := range r.descs {
		d.Aliases = append([]string(nil), d.Aliases...)
		out[i] = d
	}
	return out
}

// Options returns value/label pairs for zone pickers.
func (r *Registry) Options() []Option {
	out := make([]Option, 0, len(r.descs))
	for _, d := range r.descs {
		out = append(out, Option{Value: d.IANA, Label: d.Label})
	}
	return out
}

// Lookup calls Lookup on the Default registry.
func Lookup(input string) (Descriptor, bool) { return defaultRegistry.Lookup(input) }

// ResolveIANA calls ResolveIANA on the Default registry.
func ResolveIANA(input string) string { return defaultRegistry.ResolveIANA(input) }

// ResolveLabel calls ResolveLabel on the Default registry.
func ResolveLabel(input string) string { return defaultRegistry.ResolveLabel(input) }

// Supported calls Supported on the Default registry.
func Supported(input string) bool { return defaultRegistry.Supported(input) }

// All calls All on the Default registry.
func All() []Descriptor { return defaultRegistry.All() }

// Options calls Options on the Default registry.
func Options() []Option { return defaultRegistry.Options() }

package authz

import "fmt"

// Capability is a named permission not tied to a specific data source.
// The set is closed so the resolver can be checked for exhaustiveness.
type Capability string

const (
	// CapabilityViewCachedResults lets a member view the latest stored result
	// of a query without an execute grant. Dashboard-only groups always carry
	// it; it never substitutes for a data-source grant.
	CapabilityViewCachedResults Capability = "view_cached_results"

	// CapabilityScheduleQueries lets a member attach refresh schedules to
	// queries they can execute.
	CapabilityScheduleQueries Capability = "schedule_queries"

	// CapabilityCreateDashboards lets a member create new dashboards.
	CapabilityCreateDashboards Capability = "create_dashboards"
)

var knownCapabilities = map[Capability]struct{}{
	CapabilityViewCachedResults: {},
	CapabilityScheduleQueries:   {},
	CapabilityCreateDashboards:  {},
}

// ParseCapability validates a wire-format capability flag.
func ParseCapability(s string) (Capability, error) {
	c := Capability(s)
	if _, ok := knownCapabilities[c]; !ok {
		return "", fmt.Errorf("unknown capability %q: %w", s, ErrValidation)
	}
	return c, nil
}

// CapabilitySet is an unordered set of capability flags.
type CapabilitySet map[Capability]struct{}

// NewCapabilitySet builds a set from already-validated flags.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

// ParseCapabilitySet validates wire-format flags into a set. Any unknown flag
// fails the whole parse; no partial sets are produced.
func ParseCapabilitySet(names []string) (CapabilitySet, error) {
	s := make(CapabilitySet, len(names))
	for _, name := range names {
		c, err := ParseCapability(name)
		if err != nil {
			return nil, err
		}
		s[c] = struct{}{}
	}
	return s, nil
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// Union merges other into a new set; neither input is modified.
func (s CapabilitySet) Union(other CapabilitySet) CapabilitySet {
	merged := make(CapabilitySet, len(s)+len(other))
	for c := range s {
		merged[c] = struct{}{}
	}
	for c := range other {
		merged[c] = struct{}{}
	}
	return merged
}

// Strings returns the flags in wire format, for serialization. Order is
// unspecified; callers that need stable output must sort.
func (s CapabilitySet) Strings() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, string(c))
	}
	return out
}

package authz

import "fmt"

// AccessLevel is the strength of a group's grant on a data source.
// Ordered: AccessNone < AccessViewOnly < AccessFull.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessViewOnly
	AccessFull
)

const (
	accessNone     = "none"
	accessViewOnly = "view_only"
	accessFull     = "full"
)

func (l AccessLevel) String() string {
	switch l {
	case AccessViewOnly:
		return accessViewOnly
	case AccessFull:
		return accessFull
	default:
		return accessNone
	}
}

// AtLeast reports whether l grants at least the strength of min.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

// MaxAccess returns the stronger of two levels.
func MaxAccess(a, b AccessLevel) AccessLevel {
	if a > b {
		return a
	}
	return b
}

// ParseAccessLevel parses a wire-format level string. Unknown strings are a
// validation error, never silently AccessNone.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case accessNone:
		return AccessNone, nil
	case accessViewOnly:
		return AccessViewOnly, nil
	case accessFull:
		return AccessFull, nil
	default:
		return AccessNone, fmt.Errorf("unknown access level %q: %w", s, ErrValidation)
	}
}

// ParseGrantLevel is ParseAccessLevel restricted to levels that may be stored
// on a grant row. "none" is expressed by removing the grant, not storing it.
func ParseGrantLevel(s string) (AccessLevel, error) {
	level, err := ParseAccessLevel(s)
	if err != nil {
		return AccessNone, err
	}
	if level == AccessNone {
		return AccessNone, fmt.Errorf("grant level must be %q or %q: %w", accessViewOnly, accessFull, ErrValidation)
	}
	return level, nil
}

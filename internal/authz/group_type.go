package authz

import "fmt"

// GroupType distinguishes regular groups from dashboard-only groups, whose
// members see dashboard content without holding execute rights.
type GroupType string

const (
	GroupTypeRegular       GroupType = "regular"
	GroupTypeDashboardOnly GroupType = "dashboard_only"
)

// ParseGroupType validates a wire-format group type. Empty defaults to regular.
func ParseGroupType(s string) (GroupType, error) {
	switch GroupType(s) {
	case "":
		return GroupTypeRegular, nil
	case GroupTypeRegular:
		return GroupTypeRegular, nil
	case GroupTypeDashboardOnly:
		return GroupTypeDashboardOnly, nil
	default:
		return "", fmt.Errorf("unknown group type %q: %w", s, ErrValidation)
	}
}

// ClampLevel enforces the dashboard-only invariant: such groups never hold a
// grant stronger than view_only. Applied at the grant-store boundary and again
// when combining grants at resolution time.
func (t GroupType) ClampLevel(level AccessLevel) AccessLevel {
	if t == GroupTypeDashboardOnly && level > AccessViewOnly {
		return AccessViewOnly
	}
	return level
}

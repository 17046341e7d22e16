package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAccessLevel(t *testing.T) {
	level, err := ParseAccessLevel("view_only")
	require.NoError(t, err)
	assert.Equal(t, AccessViewOnly, level)

	level, err = ParseAccessLevel("full")
	require.NoError(t, err)
	assert.Equal(t, AccessFull, level)

	_, err = ParseAccessLevel("admin")
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseGrantLevelRejectsNone(t *testing.T) {
	_, err := ParseGrantLevel("none")
	require.ErrorIs(t, err, ErrValidation)

	level, err := ParseGrantLevel("full")
	require.NoError(t, err)
	assert.Equal(t, AccessFull, level)
}

func TestAccessLevelOrdering(t *testing.T) {
	assert.True(t, AccessFull.AtLeast(AccessViewOnly))
	assert.True(t, AccessViewOnly.AtLeast(AccessViewOnly))
	assert.False(t, AccessNone.AtLeast(AccessViewOnly))
	assert.Equal(t, AccessFull, MaxAccess(AccessViewOnly, AccessFull))
	assert.Equal(t, AccessViewOnly, MaxAccess(AccessViewOnly, AccessNone))
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, AccessViewOnly, GroupTypeDashboardOnly.ClampLevel(AccessFull))
	assert.Equal(t, AccessViewOnly, GroupTypeDashboardOnly.ClampLevel(AccessViewOnly))
	assert.Equal(t, AccessFull, GroupTypeRegular.ClampLevel(AccessFull))
}

func TestParseGroupType(t *testing.T) {
	gt, err := ParseGroupType("")
	require.NoError(t, err)
	assert.Equal(t, GroupTypeRegular, gt)

	gt, err = ParseGroupType("dashboard_only")
	require.NoError(t, err)
	assert.Equal(t, GroupTypeDashboardOnly, gt)

	_, err = ParseGroupType("superuser")
	require.ErrorIs(t, err, ErrValidation)
}

func TestParseCapabilitySetAllOrNothing(t *testing.T) {
	caps, err := ParseCapabilitySet([]string{"schedule_queries", "create_dashboards"})
	require.NoError(t, err)
	assert.True(t, caps.Has(CapabilityScheduleQueries))
	assert.True(t, caps.Has(CapabilityCreateDashboards))

	_, err = ParseCapabilitySet([]string{"schedule_queries", "fly"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCapabilitySetUnion(t *testing.T) {
	a := NewCapabilitySet(CapabilityScheduleQueries)
	b := NewCapabilitySet(CapabilityViewCachedResults)
	merged := a.Union(b)

	assert.Len(t, merged, 2)
	assert.Len(t, a, 1, "union must not mutate its receiver")
	assert.ElementsMatch(t, []string{"schedule_queries", "view_cached_results"}, merged.Strings())
}

package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuard(store *fakeStore) *ExecutionGuard {
	return NewExecutionGuard(NewResolver(store, nil), store)
}

func guardFixture(level AccessLevel, groupType GroupType, caps ...string) *fakeStore {
	store := newFakeStore()
	store.addUser("alice")
	store.addDataSource("ds1")
	store.addGroup("g", groupType, caps...)
	store.addMember("g", "alice")
	if level > AccessNone {
		store.addGrant("g", "ds1", level)
	}
	store.addQuery("q1", "ds1")
	return store
}

func TestCanExecuteRequiresFull(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		level AccessLevel
		want  bool
	}{
		{"full", AccessFull, true},
		{"view_only", AccessViewOnly, false},
		{"none", AccessNone, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := newGuard(guardFixture(tt.level, GroupTypeRegular))
			ok, err := guard.CanExecute(ctx, "alice", "q1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCanExecuteUnknownQuery(t *testing.T) {
	guard := newGuard(guardFixture(AccessFull, GroupTypeRegular))
	_, err := guard.CanExecute(context.Background(), "alice", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestCanExecuteClampedByDashboardOnlyGroup(t *testing.T) {
	// A full grant reached only through a dashboard_only group resolves to
	// view_only, so execution stays denied.
	guard := newGuard(guardFixture(AccessFull, GroupTypeDashboardOnly))
	ok, err := guard.CanExecute(context.Background(), "alice", "q1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAuthorizeExecutionDenialCarriesReason(t *testing.T) {
	guard := newGuard(guardFixture(AccessViewOnly, GroupTypeRegular))
	err := guard.AuthorizeExecution(context.Background(), "alice", "q1")
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Contains(t, err.Error(), "q1")
}

func TestAuthorizeExecutionGranted(t *testing.T) {
	guard := newGuard(guardFixture(AccessFull, GroupTypeRegular))
	require.NoError(t, guard.AuthorizeExecution(context.Background(), "alice", "q1"))
}

func TestCanViewResult(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		level     AccessLevel
		groupType GroupType
		caps      []string
		want      bool
	}{
		{"full always views", AccessFull, GroupTypeRegular, nil, true},
		{"view_only regular path", AccessViewOnly, GroupTypeRegular, nil, true},
		{"view_only dashboard_only with capability", AccessViewOnly, GroupTypeDashboardOnly,
			[]string{string(CapabilityViewCachedResults)}, true},
		{"view_only dashboard_only without capability", AccessViewOnly, GroupTypeDashboardOnly, nil, false},
		{"no grant", AccessNone, GroupTypeRegular, nil, false},
		{"capability without grant", AccessNone, GroupTypeDashboardOnly,
			[]string{string(CapabilityViewCachedResults)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			guard := newGuard(guardFixture(tt.level, tt.groupType, tt.caps...))
			ok, err := guard.CanViewResult(ctx, "alice", "q1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

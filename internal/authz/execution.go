package authz

import (
	"context"
	"fmt"

	"github.com/quickboard/quickboard-backend/internal/pkg/metrics"
)

// ExecutionGuard gates query execution on effective data-source access.
// view_only permits viewing the latest stored result but never triggering a
// new run, regardless of how the viewer reached the query.
type ExecutionGuard struct {
	resolver *Resolver
	graph    Graph
}

func NewExecutionGuard(resolver *Resolver, graph Graph) *ExecutionGuard {
	return &ExecutionGuard{resolver: resolver, graph: graph}
}

// CanExecute reports whether the user may trigger a new run of the query:
// true iff the effective level on the query's data source is full.
func (g *ExecutionGuard) CanExecute(ctx context.Context, userID, queryID string) (bool, error) {
	q, err := g.graph.GetQuery(ctx, queryID)
	if err != nil {
		return false, err
	}
	snap, err := g.resolver.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return snap.Level(q.DataSourceID) == AccessFull, nil
}

// AuthorizeExecution returns nil when the user may execute the query, and an
// ErrPermissionDenied carrying the specific denial reason otherwise. The
// caller must surface the message rather than silently no-op.
func (g *ExecutionGuard) AuthorizeExecution(ctx context.Context, userID, queryID string) error {
	ok, err := g.CanExecute(ctx, userID, queryID)
	if err != nil {
		return err
	}
	if !ok {
		metrics.AuthzDecisionsTotal.WithLabelValues("query_execute", "denied").Inc()
		return fmt.Errorf("insufficient data-source permission to execute query %s: %w", queryID, ErrPermissionDenied)
	}
	metrics.AuthzDecisionsTotal.WithLabelValues("query_execute", "granted").Inc()
	return nil
}

// CanViewResult reports whether the user may read the latest stored result of
// the query. full access always may; view_only may when the user has a
// regular access path, or holds the view-cached-results capability via a
// dashboard-only group. The capability never substitutes for the grant
// itself: without at least view_only on the data source the answer is no.
func (g *ExecutionGuard) CanViewResult(ctx context.Context, userID, queryID string) (bool, error) {
	q, err := g.graph.GetQuery(ctx, queryID)
	if err != nil {
		return false, err
	}
	snap, err := g.resolver.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}

	switch snap.Level(q.DataSourceID) {
	case AccessFull:
		return true, nil
	case AccessViewOnly:
		if !snap.DashboardOnly {
			return true, nil
		}
		return snap.Capabilities.Has(CapabilityViewCachedResults), nil
	default:
		return false, nil
	}
}

package authz

import "errors"

// Sentinel errors for the permission engine. Callers match with errors.Is;
// the repository and resolver wrap these with entity context.
var (
	// ErrNotFound means a referenced user, group, data source, query or
	// dashboard does not exist. It is never coerced into an access decision.
	ErrNotFound = errors.New("not found")

	// ErrPermissionDenied means the resolved access level is insufficient
	// for the requested operation.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation means the request was malformed (unknown access level,
	// unknown capability, group type mismatch). Rejected before any write.
	ErrValidation = errors.New("validation failed")
)

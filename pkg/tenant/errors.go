package tenant

import "errors"

var (
	// ErrInvalidIdentifier is returned when the tenant identifier cannot be resolved.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrTenantRequired is reported by RequireTenant when no tenant is in scope.
	ErrTenantRequired = errors.New("tenant required")
)

package domain

import "errors"

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	// ErrConfig means provisioning credentials or the base URL are missing.
	// Retrying will not help until an operator fixes the environment.
	ErrConfig = errors.New("tenant_config_error")
	// ErrProvisioning covers unreachable provider APIs, non-idempotent
	// failures, timeouts and failed tenant migrations. Safe to retry.
	ErrProvisioning = errors.New("tenant_provisioning_error")
)

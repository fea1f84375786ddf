package tenant

import (
	"context"
	"errors"
)

// Context keys for tenant information
type contextKey string

const (
	tenantIDKey  contextKey = "tenantId"
	networkIDKey contextKey = "networkId"
	userIDKey    contextKey = "userId"
	roleKey      contextKey = "role"
)

// Errors for tenant context operations
var (
	ErrMissingTenantContext = errors.New("tenant context is required")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to tenant resource")
	ErrMissingTenantID      = errors.New("tenantId is required")
)

// Context holds the identifiers that scope every operation to a single
// restaurant location and, optionally, its cross-tenant network.
type Context struct {
	// TenantID is a single restaurant location with isolated data by default.
	TenantID string `json:"tenantId"`

	// NetworkID is the group of tenants that opted into cross-tenant shift
	// visibility. Empty for tenants outside any network.
	NetworkID string `json:"networkId"`

	// UserID is the acting user (manager or worker).
	UserID string `json:"userId"`

	// Role is the acting user's role at the tenant ("manager", "worker").
	Role string `json:"role"`
}

// FromContext extracts the tenant Context from a context.Context.
// Returns an error if no tenant scope is present.
func FromContext(ctx context.Context) (*Context, error) {
	tc := &Context{}

	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		tc.TenantID = v
	}
	if v, ok := ctx.Value(networkIDKey).(string); ok {
		tc.NetworkID = v
	}
	if v, ok := ctx.Value(userIDKey).(string); ok {
		tc.UserID = v
	}
	if v, ok := ctx.Value(roleKey).(string); ok {
		tc.Role = v
	}

	if tc.TenantID == "" {
		return nil, ErrMissingTenantContext
	}

	return tc, nil
}

// FromContextOptional extracts the tenant Context, returning an empty
// context instead of an error when none exists.
func FromContextOptional(ctx context.Context) *Context {
	tc, _ := FromContext(ctx)
	if tc == nil {
		return &Context{}
	}
	return tc
}

// ToContext adds the tenant Context values to a context.Context.
func ToContext(ctx context.Context, tc *Context) context.Context {
	if tc == nil {
		return ctx
	}
	if tc.TenantID != "" {
		ctx = context.WithValue(ctx, tenantIDKey, tc.TenantID)
	}
	if tc.NetworkID != "" {
		ctx = context.WithValue(ctx, networkIDKey, tc.NetworkID)
	}
	if tc.UserID != "" {
		ctx = context.WithValue(ctx, userIDKey, tc.UserID)
	}
	if tc.Role != "" {
		ctx = context.WithValue(ctx, roleKey, tc.Role)
	}
	return ctx
}

// WithTenantID returns a new context with the tenant ID set.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithNetworkID returns a new context with the network ID set.
func WithNetworkID(ctx context.Context, networkID string) context.Context {
	return context.WithValue(ctx, networkIDKey, networkID)
}

// WithUserID returns a new context with the acting user ID set.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetTenantID extracts the tenant ID from context.
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// GetNetworkID extracts the network ID from context.
func GetNetworkID(ctx context.Context) string {
	if v, ok := ctx.Value(networkIDKey).(string); ok {
		return v
	}
	return ""
}

// GetUserID extracts the acting user ID from context.
func GetUserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

// IsEmpty returns true if the context has no tenant identifiers set.
func (tc *Context) IsEmpty() bool {
	return tc.TenantID == "" && tc.NetworkID == ""
}

// HasNetwork returns true if the tenant belongs to a network.
func (tc *Context) HasNetwork() bool {
	return tc.NetworkID != ""
}

// Validate checks that required tenant context fields are present.
func (tc *Context) Validate() error {
	if tc.TenantID == "" {
		return ErrMissingTenantID
	}
	return nil
}

// ValidateOwnership verifies that a resource belongs to this tenant scope.
// A resource in the same network as the caller is visible; a resource at an
// unrelated tenant is not.
func (tc *Context) ValidateOwnership(resourceTenantID, resourceNetworkID string) error {
	if tc.TenantID != "" && resourceTenantID != "" && tc.TenantID == resourceTenantID {
		return nil
	}
	if tc.NetworkID != "" && resourceNetworkID != "" && tc.NetworkID == resourceNetworkID {
		return nil
	}
	return ErrUnauthorizedAccess
}

package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/errors"
	"github.com/chrbailey/restaurant-scheduler-sub006/pkg/tenant"
)

// Tenant header names
const (
	HeaderTenantID  = "X-Tenant-ID"
	HeaderNetworkID = "X-Network-ID"
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
)

// TenantAuthConfig holds configuration for the tenant middleware
type TenantAuthConfig struct {
	// Required rejects requests without a tenant header when true
	Required bool
}

// TenantAuth extracts tenant context from request headers and attaches it to
// the request context so repositories and services can scope their queries.
func TenantAuth(config *TenantAuthConfig) gin.HandlerFunc {
	if config == nil {
		config = &TenantAuthConfig{Required: true}
	}

	return func(c *gin.Context) {
		tc := &tenant.Context{
			TenantID:  c.GetHeader(HeaderTenantID),
			NetworkID: c.GetHeader(HeaderNetworkID),
			UserID:    c.GetHeader(HeaderUserID),
			Role:      c.GetHeader(HeaderUserRole),
		}

		if config.Required {
			if err := tc.Validate(); err != nil {
				AbortWithAppError(c, errors.ErrUnauthorized("tenant context is required"))
				return
			}
		}

		if !tc.IsEmpty() {
			c.Request = c.Request.WithContext(tenant.ToContext(c.Request.Context(), tc))
		}

		c.Next()
	}
}

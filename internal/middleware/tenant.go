package middleware

import (
	"github.com/gin-gonic/gin"
)

// TenantMiddleware resolves the tenant a request acts for.
// IstioAuth may already have set tenant_id from the JWT claims; otherwise the
// X-Vendor-ID and X-Tenant-ID headers are read, then the deployment tenant.
func TenantMiddleware(defaultTenantID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetString("tenant_id")
		if tenantID == "" {
			tenantID = c.GetHeader("X-Vendor-ID")
		}
		if tenantID == "" {
			tenantID = c.GetHeader("X-Tenant-ID")
		}
		if tenantID == "" {
			tenantID = defaultTenantID
		}

		c.Set("tenantId", tenantID)
		c.Set("tenant_id", tenantID)
		c.Next()
	}
}

// GetTenantID retrieves the tenant ID from gin context
func GetTenantID(c *gin.Context) string {
	if tid := c.GetString("tenant_id"); tid != "" {
		return tid
	}
	return c.GetString("tenantId")
}

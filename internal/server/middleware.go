package server

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/prizewheel/internal/reward/shopify"
	"github.com/smallbiznis/prizewheel/pkg/tenantctx"
)

const (
	HeaderShop       = "X-Shop-Domain"
	contextTenantKey = "tenant_id"
)

// ProxySignatureRequired rejects storefront calls whose app-proxy signature
// does not match SHOPIFY_API_SECRET. It runs before ShopContext so the
// `shop` parameter is only trusted once signed. Without a secret the check
// is skipped outside production.
func (s *Server) ProxySignatureRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		secret := s.cfg.Shopify.APISecret
		if secret == "" {
			if s.cfg.Environment == "production" {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			c.Next()
			return
		}
		if !shopify.VerifyProxySignature(secret, c.Request.URL.Query()) {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

// ShopContext resolves the tenant from the app-proxy `shop` query
// parameter or the X-Shop-Domain header. Storefront routes must sit behind
// ProxySignatureRequired; admin routes behind AdminAuthRequired.
func ShopContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		shop := strings.ToLower(strings.TrimSpace(c.Query("shop")))
		if shop == "" {
			shop = strings.ToLower(strings.TrimSpace(c.GetHeader(HeaderShop)))
		}
		if shop == "" || !shopify.ValidShopDomain(shop) {
			AbortWithError(c, ErrShopRequired)
			return
		}

		c.Set(contextTenantKey, shop)
		c.Request = c.Request.WithContext(tenantctx.WithTenantID(c.Request.Context(), shop))
		c.Next()
	}
}

func tenantFromContext(c *gin.Context) string {
	return c.GetString(contextTenantKey)
}

// AdminAuthRequired checks the bearer token against ADMIN_API_TOKEN.
// Without a token, admin routes stay open only outside production.
func (s *Server) AdminAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := s.cfg.AdminToken
		if expected == "" {
			if s.cfg.Environment == "production" {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			c.Next()
			return
		}

		header := strings.TrimSpace(c.GetHeader("Authorization"))
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), []byte(expected)) != 1 {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

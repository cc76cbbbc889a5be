package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/prizewheel/internal/observability/logger"
	"go.uber.org/zap"
)

const rateLimitReasonClientRate = "client-rate"

// SpinRateLimit throttles spins per tenant and client IP. Redis errors
// let the request through; the play ledger still holds the line.
func (s *Server) SpinRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		tenantID := tenantFromContext(c)
		res, err := s.limiter.AllowClient(ctx, tenantID, c.ClientIP())
		if err != nil {
			logger.FromContext(ctx).Warn("spin rate limit check failed", zap.Error(err))
			c.Next()
			return
		}
		if res.Allowed {
			c.Next()
			return
		}

		logger.FromContext(ctx).Warn("spin rate limit exceeded",
			zap.String("reason", rateLimitReasonClientRate),
		)
		s.metrics.RecordRateLimitDenied(ctx, tenantID, rateLimitReasonClientRate)

		retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.Set("spin_outcome", "rate_limited")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, proxyResponse{
			OK:      false,
			Message: "Too many attempts, please try again shortly.",
		})
	}
}

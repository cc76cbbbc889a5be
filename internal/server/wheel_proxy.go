package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/prizewheel/internal/observability/logger"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	rewarddomain "github.com/smallbiznis/prizewheel/internal/reward/domain"
	spindomain "github.com/smallbiznis/prizewheel/internal/spin/domain"
	tenantdomain "github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"go.uber.org/zap"
)

const (
	messageAlreadyPlayed = "You have already played."
	messageUnavailable   = "The wheel is temporarily unavailable, please try again later."
	messageInternal      = "Something went wrong, please try again later."
)

// The storefront widget reads its own envelope rather than the admin
// error payload.
type proxyResponse struct {
	OK            bool         `json:"ok"`
	Message       string       `json:"message,omitempty"`
	Result        *spinResult  `json:"result,omitempty"`
	ExistingCode  string       `json:"existingCode,omitempty"`
	ExistingLabel string       `json:"existingLabel,omitempty"`
	Segments      []wheelSlice `json:"segments,omitempty"`
}

type spinResult struct {
	Label string `json:"label"`
	Code  string `json:"code"`
	Index int    `json:"index"`
}

type wheelSlice struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

type spinRequest struct {
	Identity      string `json:"identity" form:"identity"`
	Email         string `json:"email" form:"email"`
	DeviceType    string `json:"deviceType" form:"deviceType"`
	DeviceTypeAlt string `json:"device_type" form:"device_type"`
	Honeypot      string `json:"hp" form:"hp"`
}

func (r spinRequest) identity() string {
	if v := strings.TrimSpace(r.Identity); v != "" {
		return v
	}
	return strings.TrimSpace(r.Email)
}

func (r spinRequest) deviceType() string {
	if v := strings.TrimSpace(r.DeviceType); v != "" {
		return v
	}
	return strings.TrimSpace(r.DeviceTypeAlt)
}

func (s *Server) GetPublicWheel(c *gin.Context) {
	catalog, err := s.prizeSvc.Get(c.Request.Context(), tenantFromContext(c))
	if err != nil {
		if errors.Is(err, prizedomain.ErrNotFound) {
			c.JSON(http.StatusOK, proxyResponse{OK: false, Message: spindomain.ErrCatalogUnavailable.Error()})
			return
		}
		s.writeProxyError(c, err)
		return
	}

	enabled := catalog.EnabledSegments()
	slices := make([]wheelSlice, 0, len(enabled))
	for _, seg := range enabled {
		slices = append(slices, wheelSlice{Index: seg.Index, Label: seg.Label})
	}
	c.JSON(http.StatusOK, proxyResponse{OK: true, Segments: slices})
}

func (s *Server) SpinWheel(c *gin.Context) {
	var req spinRequest
	if err := c.ShouldBind(&req); err != nil {
		c.Set("spin_outcome", "bad_request")
		c.JSON(http.StatusBadRequest, proxyResponse{OK: false, Message: "invalid request"})
		return
	}

	result, err := s.spinSvc.Spin(c.Request.Context(), spindomain.Request{
		TenantID:   tenantFromContext(c),
		Identity:   req.identity(),
		DeviceType: req.deviceType(),
		Honeypot:   req.Honeypot,
	})
	if err != nil {
		s.writeProxyError(c, err)
		return
	}

	c.Set("spin_outcome", string(result.Status))
	switch result.Status {
	case spindomain.StatusWon:
		c.JSON(http.StatusOK, proxyResponse{
			OK:     true,
			Result: &spinResult{Label: result.Label, Code: result.Code, Index: result.Index},
		})
	case spindomain.StatusAlreadyPlayed:
		c.JSON(http.StatusOK, proxyResponse{
			OK:            false,
			Message:       messageAlreadyPlayed,
			ExistingCode:  result.ExistingCode,
			ExistingLabel: result.ExistingLabel,
		})
	default:
		message := messageUnavailable
		if result.Reason != nil {
			message = result.Reason.Error()
		}
		c.JSON(http.StatusOK, proxyResponse{OK: false, Message: message})
	}
}

func (s *Server) writeProxyError(c *gin.Context, err error) {
	status, message, outcome := http.StatusInternalServerError, messageInternal, "error"
	switch {
	case errors.Is(err, spindomain.ErrSuspicious):
		status, message, outcome = http.StatusOK, err.Error(), "suspicious"
	case errors.Is(err, spindomain.ErrInvalidIdentity):
		status, message, outcome = http.StatusBadRequest, err.Error(), "invalid_identity"
	case errors.Is(err, spindomain.ErrSpinInProgress):
		status, message, outcome = http.StatusConflict, "Your spin is already being processed.", "in_progress"
	case errors.Is(err, rewarddomain.ErrIssue):
		status, message, outcome = http.StatusOK, spindomain.ErrRewardUnavailable.Error(), "issue_failed"
	case errors.Is(err, tenantdomain.ErrProvisioning):
		status, message, outcome = http.StatusServiceUnavailable, messageUnavailable, "provisioning_error"
	case errors.Is(err, tenantdomain.ErrInvalidTenant):
		status, message, outcome = http.StatusBadRequest, "invalid request", "bad_request"
	}

	if status >= http.StatusInternalServerError || outcome == "issue_failed" {
		logger.FromContext(c.Request.Context()).Error("storefront request failed",
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}
	c.Set("spin_outcome", outcome)
	c.JSON(status, proxyResponse{OK: false, Message: message})
}

package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	playdomain "github.com/smallbiznis/prizewheel/internal/play/domain"
	prizedomain "github.com/smallbiznis/prizewheel/internal/prize/domain"
	rewarddomain "github.com/smallbiznis/prizewheel/internal/reward/domain"
	spindomain "github.com/smallbiznis/prizewheel/internal/spin/domain"
	tenantdomain "github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrShopRequired = errors.New("shop_required")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if cErr := asCatalogValidationError(err); cErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: cErr.Error(),
			Errors:  catalogValidationErrors(cErr),
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrShopRequired),
		errors.Is(err, tenantdomain.ErrInvalidTenant),
		errors.Is(err, spindomain.ErrInvalidIdentity):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, spindomain.ErrSpinInProgress):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "a spin is already in progress",
		}
	case errors.Is(err, tenantdomain.ErrProvisioning):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func asCatalogValidationError(err error) *prizedomain.ValidationError {
	var vErr *prizedomain.ValidationError
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// catalogValidationErrors keeps the domain messages as-is; the admin form
// shows them verbatim next to the offending segment.
func catalogValidationErrors(vErr *prizedomain.ValidationError) []ValidationError {
	out := make([]ValidationError, 0, len(vErr.Errors))
	for _, err := range vErr.Errors {
		field := "segments"
		var segErr *prizedomain.SegmentError
		if errors.As(err, &segErr) {
			field = fmt.Sprintf("segments[%d]", segErr.Index)
		}
		out = append(out, ValidationError{
			Field:   field,
			Code:    catalogErrorCode(err),
			Message: err.Error(),
		})
	}
	return out
}

func catalogErrorCode(err error) string {
	switch {
	case errors.Is(err, prizedomain.ErrNoSegments):
		return "required"
	case errors.Is(err, prizedomain.ErrEmptyLabel):
		return "invalid_label"
	case errors.Is(err, prizedomain.ErrInvalidDiscountType):
		return "invalid_discount_type"
	case errors.Is(err, prizedomain.ErrInvalidDiscountValue),
		errors.Is(err, prizedomain.ErrPercentOutOfRange):
		return "invalid_discount_value"
	default:
		return "invalid_chance"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, prizedomain.ErrNotFound),
		errors.Is(err, playdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

// classifyErrorForLog returns (error_type, error_code) for request logs.
func classifyErrorForLog(err error) (string, string) {
	switch {
	case err == nil:
		return "", ""
	case asValidationErrors(err) != nil, asCatalogValidationError(err) != nil:
		return "validation", "invalid_request"
	case errors.Is(err, tenantdomain.ErrConfig):
		return "config", "tenant_config_error"
	case errors.Is(err, tenantdomain.ErrProvisioning):
		return "provisioning", "tenant_provisioning_error"
	case errors.Is(err, rewarddomain.ErrIssue):
		return "external", "reward_issue_failed"
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError && payload.Type == "internal_error" {
		return "internal", "internal_error"
	}
	return "client", payload.Type
}

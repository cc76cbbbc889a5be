package tracing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSafeAttributesDropsPII(t *testing.T) {
	attrs := SafeAttributes(
		attribute.String("tenant_id", "shop-x.myshopify.com"),
		attribute.String("email", "a@b.co"),
		attribute.String("discount_code", "WHEEL-ABC"),
	)
	assert.Len(t, attrs, 1)
	assert.Equal(t, attribute.Key("tenant_id"), attrs[0].Key)
}

func TestSafeErrorKeepsOutermostMessage(t *testing.T) {
	err := fmt.Errorf("create discount: %w", errors.New("customer a@b.co rejected"))
	assert.Equal(t, "create discount", SafeError(err).Error())
	assert.Nil(t, SafeError(nil))
}

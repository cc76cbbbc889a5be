package tenantctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantIDRoundTrip(t *testing.T) {
	ctx := WithTenantID(context.Background(), "  shop-x.myshopify.com ")
	id, ok := TenantID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "shop-x.myshopify.com", id)
}

func TestTenantIDMissing(t *testing.T) {
	_, ok := TenantID(context.Background())
	assert.False(t, ok)

	_, ok = TenantID(WithTenantID(context.Background(), " "))
	assert.False(t, ok)
}

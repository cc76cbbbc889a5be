package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadTenantDefaults(t *testing.T) {
	t.Setenv("TENANT_DB_PREFIX", "")
	t.Setenv("AUTO_MIGRATE_TENANT_DB", "")
	t.Setenv("TENANT_PROVISIONER", "")
	t.Setenv("TENANT_PROVISION_TIMEOUT", "")

	cfg := Load()

	assert.Equal(t, "tenant", cfg.Tenant.DBPrefix)
	assert.False(t, cfg.Tenant.AutoMigrate)
	assert.Equal(t, ProvisionerNeon, cfg.Tenant.Provisioner)
	assert.Equal(t, 30*time.Second, cfg.Tenant.ProvisionTimeout)
	assert.Equal(t, 12*time.Second, cfg.Shopify.RequestTimeout)
}

func TestLoadTenantOverrides(t *testing.T) {
	t.Setenv("TENANT_DB_PREFIX", "shopdb")
	t.Setenv("AUTO_MIGRATE_TENANT_DB", "true")
	t.Setenv("TENANT_PROVISIONER", "PG")
	t.Setenv("TENANT_PROVISION_TIMEOUT", "45")
	t.Setenv("NEON_API_URL", "http://neon.local/api/v2/")

	cfg := Load()

	assert.Equal(t, "shopdb", cfg.Tenant.DBPrefix)
	assert.True(t, cfg.Tenant.AutoMigrate)
	assert.Equal(t, ProvisionerPostgres, cfg.Tenant.Provisioner)
	assert.Equal(t, 45*time.Second, cfg.Tenant.ProvisionTimeout)
	assert.Equal(t, "http://neon.local/api/v2", cfg.Tenant.NeonAPIURL)
}

func TestGetenvDuration(t *testing.T) {
	t.Setenv("X_TIMEOUT", "1500ms")
	assert.Equal(t, 1500*time.Millisecond, getenvDuration("X_TIMEOUT", time.Second))

	t.Setenv("X_TIMEOUT", "nope")
	assert.Equal(t, time.Second, getenvDuration("X_TIMEOUT", time.Second))
}

func TestRewardPolicyValidation(t *testing.T) {
	assert.NoError(t, validateRewardPolicy(DefaultRewardPolicy()))

	policy := DefaultRewardPolicy()
	policy.ValidityDays = 0
	assert.Error(t, validateRewardPolicy(policy))

	var holder *RewardPolicyHolder
	assert.Equal(t, DefaultRewardPolicy(), holder.Get())
}

package provisioner

import (
	"github.com/smallbiznis/prizewheel/internal/config"
	"github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"go.uber.org/zap"
)

// New picks the provisioner configured by TENANT_PROVISIONER.
func New(cfg config.Config, log *zap.Logger) domain.Provisioner {
	if cfg.Tenant.Provisioner == config.ProvisionerPostgres {
		return NewPostgres(cfg.Tenant, log)
	}
	return NewNeon(cfg.Tenant, log)
}

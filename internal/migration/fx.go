package migration

import (
	shopsessiondomain "github.com/smallbiznis/prizewheel/internal/shopsession/domain"
	tenantdomain "github.com/smallbiznis/prizewheel/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Provide(NewTenantRunner),
	fx.Invoke(migrateControlPlane),
)

func migrateControlPlane(conn *gorm.DB, log *zap.Logger) error {
	if conn.Dialector.Name() != "postgres" {
		// Local sqlite/mysql setups get the control-plane tables from the models.
		log.Warn("control plane is not postgres, falling back to automigrate",
			zap.String("dialect", conn.Dialector.Name()),
		)
		return conn.AutoMigrate(&tenantdomain.TenantDatabase{}, &shopsessiondomain.Session{})
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB, ControlPlane)
}

package migration

import (
	"github.com/pelletworks/pelletport/internal/config"
	"github.com/pelletworks/pelletport/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		}

		if cfg.BootstrapAdminEmail == "" {
			return seed.EnsureSellerOrg(conn, cfg.SellerOrgID)
		}
		return seed.EnsureSellerOrgAndAdmin(conn, cfg.SellerOrgID, cfg.BootstrapAdminEmail, cfg.BootstrapAdminPassword)
	}),
)

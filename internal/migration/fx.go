package migration

import (
	"github.com/healthlane/claimflow/internal/config"
	"github.com/healthlane/claimflow/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if conn.Dialector.Name() == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := Migrate(conn); err != nil {
				return err
			}
		}

		if cfg.SeedInsurers {
			return seed.EnsureInsurers(conn)
		}
		return nil
	}),
)

package migration

import (
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		if cfg.DBType != "postgres" {
			// Embedded migrations are postgres DDL; other dialects are for
			// tests, which create their schema explicitly.
			log.Warn("skipping migrations for non-postgres warehouse", zap.String("db_type", cfg.DBType))
			return nil
		}
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)

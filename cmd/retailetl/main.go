package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/clock"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/config"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/logger"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/migration"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline"
	pipelinedomain "github.com/kizamehoshigaki/retail-analytics-dashboard/internal/pipeline/domain"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/internal/warehouse"
	"github.com/kizamehoshigaki/retail-analytics-dashboard/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		warehouse.Module,
		pipeline.Module,
		fx.Invoke(runOnce),
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

// runOnce executes one batch after the app graph is up, then shuts the
// process down with the run's exit code.
func runOnce(lc fx.Lifecycle, sh fx.Shutdowner, svc *pipeline.Service, log *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				report, err := svc.Run(context.Background())
				log.Info("run report", zap.Any("report", report))
				_ = sh.Shutdown(fx.ExitCode(pipelinedomain.ExitCode(err)))
			}()
			return nil
		},
	})
}

package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/Sasidhar-2001/HMS/internal/billing"
	"github.com/Sasidhar-2001/HMS/internal/clock"
	"github.com/Sasidhar-2001/HMS/internal/config"
	"github.com/Sasidhar-2001/HMS/internal/events"
	"github.com/Sasidhar-2001/HMS/internal/fee"
	"github.com/Sasidhar-2001/HMS/internal/migration"
	"github.com/Sasidhar-2001/HMS/internal/observability/logger"
	"github.com/Sasidhar-2001/HMS/internal/observability/tracing"
	"github.com/Sasidhar-2001/HMS/internal/occupancy"
	"github.com/Sasidhar-2001/HMS/internal/room"
	"github.com/Sasidhar-2001/HMS/internal/scheduler"
	"github.com/Sasidhar-2001/HMS/internal/seed"
	"github.com/Sasidhar-2001/HMS/internal/server"
	"github.com/Sasidhar-2001/HMS/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func(cfg config.Config) tracing.Config {
			return tracing.Config{
				Enabled:          cfg.TracingEnabled,
				ServiceName:      "hms",
				ServiceVersion:   version,
				Environment:      cfg.Environment,
				ExporterEndpoint: cfg.TracingEndpoint,
				ExporterProtocol: cfg.TracingProtocol,
				SamplingRatio:    cfg.TracingSampleRatio,
			}
		}),
		tracing.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,
		fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, cfg config.Config) error {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := migration.RunMigrations(sqlDB); err != nil {
				return err
			}
			if cfg.Bootstrap.EnsureDefaultAdmin {
				if err := seed.EnsureDefaultAdmin(conn, node, cfg); err != nil {
					return err
				}
			}
			if !cfg.IsProduction() && cfg.Bootstrap.SeedSampleRooms {
				return seed.EnsureSampleRooms(conn, node)
			}
			return nil
		}),
		events.Module,
		room.Module,
		occupancy.Module,
		fee.Module,
		billing.Module,
		scheduler.Module,
		server.Module,
	)
	app.Run()
}

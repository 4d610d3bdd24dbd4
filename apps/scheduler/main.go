package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/catalog"
	"github.com/marugo/torioki/internal/clock"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/history"
	"github.com/marugo/torioki/internal/joblock"
	"github.com/marugo/torioki/internal/migration"
	"github.com/marugo/torioki/internal/notification"
	"github.com/marugo/torioki/internal/providers/line"
	"github.com/marugo/torioki/internal/reminder"
	"github.com/marugo/torioki/internal/reservation"
	"github.com/marugo/torioki/internal/scheduler"
	"github.com/marugo/torioki/pkg/db"
	"github.com/marugo/torioki/pkg/log"
	"go.uber.org/fx"
)

// Standalone batch runner for deployments that keep the HTTP API and the
// scheduled jobs in separate processes. The redis job lock keeps a run
// exclusive when both this and the monolith are deployed.
func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the jobs.
		scheduler.Module,
		history.Module,
		reminder.Module,
		reservation.Module,
		notification.Module,
		catalog.Module,
		line.Module,
		joblock.Module,

		// No server module.
		fx.Invoke(scheduler.StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

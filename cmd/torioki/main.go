package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/marugo/torioki/internal/clock"
	"github.com/marugo/torioki/internal/config"
	"github.com/marugo/torioki/internal/migration"
	"github.com/marugo/torioki/internal/scheduler"
	"github.com/marugo/torioki/internal/server"
	"github.com/marugo/torioki/pkg/db"
	"github.com/marugo/torioki/pkg/log"
	"go.uber.org/fx"
)

// The monolith entrypoint: HTTP API plus the in-process batch scheduler.
func main() {
	app := fx.New(
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		server.Module,

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

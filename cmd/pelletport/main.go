package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pelletworks/pelletport/internal/config"
	"github.com/pelletworks/pelletport/internal/migration"
	"github.com/pelletworks/pelletport/internal/observability"
	"github.com/pelletworks/pelletport/internal/server"
	"github.com/pelletworks/pelletport/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
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

package main

import (
	"github.com/reglens/backend/internal/server"
	"github.com/reglens/backend/internal/util"
	"github.com/reglens/backend/pkg/logger"
	"github.com/reglens/backend/pkg/logger/console"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aligned-app/aligned/internal/buildinfo"
	"github.com/aligned-app/aligned/internal/client/cli"
	"github.com/aligned-app/aligned/internal/client/config"
	"github.com/aligned-app/aligned/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app.Run(ctx)

}

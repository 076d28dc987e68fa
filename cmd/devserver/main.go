package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aligned-app/aligned/internal/buildinfo"
	"github.com/aligned-app/aligned/internal/devserver"
	"github.com/aligned-app/aligned/internal/devserver/config"
	"github.com/aligned-app/aligned/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	cfg := config.Load(os.Args[1:])
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}

	app, err := devserver.NewApp(cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}

}

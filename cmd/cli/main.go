package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rentsaathi/listingsync/internal/client/cli"
	"github.com/rentsaathi/listingsync/internal/client/client"
	"github.com/rentsaathi/listingsync/internal/client/config"
	"github.com/rentsaathi/listingsync/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	logger := logging.New(cfg.LogFormat, cfg.LogLevel, os.Stderr)

	core, err := client.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer func() {
		if err := core.Close(context.Background()); err != nil {
			logger.Error(context.Background(), "shutdown", "error", err)
		}
	}()

	cli.NewApp(core).Run(ctx)
}

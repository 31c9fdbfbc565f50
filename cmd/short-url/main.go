package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jrg-tools/short-url/internal/app"
	"github.com/jrg-tools/short-url/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("Application error occurred: %v", err)
	}
}

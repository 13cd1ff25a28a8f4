package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"grinkit/internal/cli"
	"grinkit/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cli.Execute(ctx)
	observability.Sync()
	if err != nil {
		os.Exit(1)
	}
}

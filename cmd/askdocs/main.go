// Command askdocs answers questions about the documents in a Google Drive
// folder or a local directory.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/custodia-labs/askdocs/internal/adapters/driving/cli"
	"github.com/custodia-labs/askdocs/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("reading .env: %v", err)
	}

	cli.SetBootstrap(wire)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

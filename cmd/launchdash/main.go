// Package main is the entry point for the launch dashboard server.
package main

import (
	"os"

	"github.com/orbitalops/launchdash/cmd/launchdash/app"
	"github.com/orbitalops/launchdash/internal/logger"
)

func main() {
	logger.Initialize()
	defer func() { _ = logger.Sync() }()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"context"
	"embed"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/tigerroll/buildmeta/pkg/batch/support/util/logger"
)

// embeddedConfig embeds the application's YAML configuration.
//
//go:embed resources/application.yaml
var embeddedConfig []byte

// applicationMigrationsFS embeds the schema of the tables the migration reads and writes.
//
//go:embed all:resources/migrations
var applicationMigrationsFS embed.FS

// migrationsFS strips the embed prefix so the migrator sees one directory per database type.
func migrationsFS() fs.FS {
	sub, err := fs.Sub(applicationMigrationsFS, "resources/migrations")
	if err != nil {
		logger.Fatalf("Failed to create subdirectory for application migration FS: %v", err)
	}
	return sub
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Warnf("Received signal '%v'. Stopping after the current sub-batch...", sig)
		cancel()
	}()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// Package main is the entry point for the datesync CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"datesync/internal/backend/asana"
	"datesync/internal/cli"
	"datesync/internal/commands"
	"datesync/internal/config"
	"datesync/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create service factory
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return asana.New(ctx, cfg, commands.NewLogger(os.Stderr, cfg.Debug))
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory, os.Getenv)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	os.Exit(code)
}

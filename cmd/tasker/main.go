// Package main is the entry point for the tasker CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tasker/internal/backend/restapi"
	"tasker/internal/cli"
	"tasker/internal/commands"
	"tasker/internal/config"
	"tasker/internal/service"
)

func main() {
	// Cancel in-flight requests and the OAuth wait on interrupt
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return restapi.New(cfg.APIURL, restapi.WithLogger(cfg.Log())), nil
	}

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

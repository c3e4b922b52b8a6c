// Command tools is a small CLI that dispatches company commands and queries
// through the in-process buses.
//
//	tools create -name "Acme Corp" -code acme
//	tools rename -id <uuid> -name "Acme Inc"
//	tools deactivate -id <uuid>
//	tools get -id <uuid> | -code ACME
//	tools list -offset 0 -limit 20
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lllypuk/corebus/internal/app"
	"github.com/lllypuk/corebus/internal/config"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger := app.NewLogger(cfg, os.Stderr)

	ctx := context.Background()
	container, err := app.NewContainer(ctx, cfg, app.WithLogger(logger))
	if err != nil {
		logger.Error("failed to initialize", slog.String("error", err.Error()))
		return 1
	}
	defer func() {
		if closeErr := container.Close(context.Background()); closeErr != nil {
			logger.Error("failed to close container", slog.String("error", closeErr.Error()))
		}
	}()

	cli := newCLI(container, os.Stdout)
	if runErr := cli.Run(ctx, args); runErr != nil {
		if errors.Is(runErr, errUsage) {
			return 2
		}
		logger.Error("command failed", slog.String("error", runErr.Error()))
		return 1
	}
	return 0
}

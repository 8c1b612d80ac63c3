package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/infracollect/tzline/internal/runner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Read requests from stdin and write responses to stdout (default)",
	Action: serve,
}

func serve(ctx context.Context, command *cli.Command) error {
	logger := getLogger(ctx).With(zap.String("session_id", uuid.NewString()))

	cfg, err := loadServerConfig(command)
	if err != nil {
		return err
	}

	r, err := runner.New(logger.Named("runner"), cfg)
	if err != nil {
		return fmt.Errorf("failed to create runner: %w", err)
	}

	if isInteractive(ctx) {
		logger.Info("reading requests from the terminal, one JSON object per line (Ctrl-D to end)")
	}

	// Closing stdin unblocks a pending read once a shutdown signal arrives.
	stop := context.AfterFunc(ctx, func() {
		_ = os.Stdin.Close()
	})
	defer stop()

	return r.Serve(ctx, os.Stdin, os.Stdout)
}

// loadServerConfig reads --config when given and applies --zoneinfo on top.
func loadServerConfig(command *cli.Command) (v1.ServerConfig, error) {
	cfg := runner.DefaultServerConfig()

	if path := command.String("config"); path != "" {
		loaded, err := runner.LoadServerConfig(afero.NewOsFs(), path)
		if err != nil {
			return v1.ServerConfig{}, fmt.Errorf("failed to load config '%s': %w", path, formatValidationError(err))
		}
		cfg = loaded
	}

	if dir := command.String("zoneinfo"); dir != "" {
		cfg.Spec.TimezoneDatabase = &v1.TimezoneDatabaseSpec{
			Directory: &v1.DirectoryDatabaseSpec{Path: dir},
		}
	}

	return cfg, nil
}

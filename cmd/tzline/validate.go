package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/infracollect/tzline/internal/runner"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

var validateCommand = &cli.Command{
	Name:  "validate",
	Usage: "Validate a server configuration file",
	Arguments: []cli.Argument{
		&cli.StringArg{
			Name:      "config",
			UsageText: "The configuration file to validate",
		},
	},
	Action: func(ctx context.Context, command *cli.Command) error {
		logger := getLogger(ctx)

		configFilename := command.StringArg("config")
		if configFilename == "" {
			return fmt.Errorf("no config file provided")
		}

		data, err := afero.ReadFile(afero.NewOsFs(), configFilename)
		if err != nil {
			return fmt.Errorf("failed to read config file '%s': %w", configFilename, err)
		}

		logger = logger.With(zap.String("config_filename", configFilename))
		logger.Debug("validating config file")

		cfg, err := runner.ParseServerConfig(data)
		if err != nil {
			fmt.Println(formatValidationError(err))
			return fmt.Errorf("config file '%s' is invalid", configFilename)
		}

		provider, err := runner.BuildProvider(cfg)
		if err != nil {
			return fmt.Errorf("failed to build timezone provider: %w", err)
		}

		if _, err := provider.Resolve(cfg.Spec.DefaultTimezone); err != nil {
			return fmt.Errorf("default timezone %s is not in the timezone database: %w", cfg.Spec.DefaultTimezone, err)
		}

		fmt.Printf("✓ Config file '%s' is valid\n", configFilename)
		return nil
	},
}

func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("config file has %d validation error(s):", len(validationErrs)))
		for _, fe := range validationErrs {
			sb.WriteString(fmt.Sprintf("\n  • %s: failed '%s' validation", fe.Namespace(), fe.Tag()))
			if fe.Param() != "" {
				sb.WriteString(fmt.Sprintf(" (param: %s)", fe.Param()))
			}
		}
		return errors.New(sb.String())
	}
	return err
}

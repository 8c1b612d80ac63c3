package runner

import (
	"context"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/infracollect/tzline/internal/commands"
	"github.com/infracollect/tzline/internal/engine"
	"github.com/infracollect/tzline/internal/server"
	"github.com/infracollect/tzline/internal/tz"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

var (
	defaultValidator = validator.New(validator.WithRequiredStructEnabled())
)

// DefaultServerConfig is used when no configuration file is given.
func DefaultServerConfig() v1.ServerConfig {
	return v1.ServerConfig{
		Kind:     v1.ServerConfigKind,
		Metadata: v1.Metadata{Name: "default"},
		Spec: v1.ServerConfigSpec{
			DefaultTimezone: commands.DefaultTimezone,
		},
	}
}

// ParseServerConfig parses a YAML or JSON configuration file and validates it.
// It returns a validated ServerConfig or an error if parsing or validation fails.
func ParseServerConfig(data []byte) (v1.ServerConfig, error) {
	var cfg v1.ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return v1.ServerConfig{}, fmt.Errorf("failed to unmarshal config data: %w", err)
	}

	if err := defaultValidator.Struct(cfg); err != nil {
		return v1.ServerConfig{}, fmt.Errorf("failed to validate config: %w", err)
	}

	if _, err := ResolveDatabaseSpec(cfg.Spec.TimezoneDatabase); err != nil {
		return v1.ServerConfig{}, fmt.Errorf("failed to validate config: %w", err)
	}

	if cfg.Spec.DefaultTimezone == "" {
		cfg.Spec.DefaultTimezone = commands.DefaultTimezone
	}

	return cfg, nil
}

// LoadServerConfig reads and parses the configuration file at path.
func LoadServerConfig(fs afero.Fs, path string) (v1.ServerConfig, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return v1.ServerConfig{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseServerConfig(data)
}

// BuildProvider creates the timezone provider selected by the configuration.
func BuildProvider(cfg v1.ServerConfig) (tz.Provider, error) {
	resolved, err := ResolveDatabaseSpec(cfg.Spec.TimezoneDatabase)
	if err != nil {
		return nil, err
	}

	switch resolved.Kind {
	case SystemDatabaseKind:
		return tz.NewSystemProvider(), nil
	case DirectoryDatabaseKind:
		spec := resolved.Spec.(*v1.DirectoryDatabaseSpec)
		provider, err := tz.NewDirectoryProviderFromPath(spec.Path)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unsupported timezone database %q", resolved.Kind)
	}
}

type Runner struct {
	logger   *zap.Logger
	config   v1.ServerConfig
	registry *engine.Registry
	server   *server.Server
}

type Option func(*options)

type options struct {
	clock    tz.Clock
	provider tz.Provider
}

// WithClock replaces the system clock.
func WithClock(clock tz.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithProvider replaces the provider selected by the configuration.
func WithProvider(provider tz.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

func New(logger *zap.Logger, cfg v1.ServerConfig, opts ...Option) (*Runner, error) {
	logger.Info("creating runner", zap.String("config_name", cfg.Metadata.Name))

	o := options{clock: tz.RealClock{}}
	for _, opt := range opts {
		opt(&o)
	}

	if o.provider == nil {
		provider, err := BuildProvider(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to build timezone provider: %w", err)
		}
		o.provider = provider
	}

	defaultTimezone := cfg.Spec.DefaultTimezone
	if defaultTimezone == "" {
		defaultTimezone = commands.DefaultTimezone
	}
	if _, err := o.provider.Resolve(defaultTimezone); err != nil {
		return nil, fmt.Errorf("default timezone %s is not in the timezone database: %w", defaultTimezone, err)
	}

	registry := engine.NewRegistry(logger.Named("commands"))
	commands.Register(registry, commands.Config{
		Provider:        o.provider,
		Clock:           o.clock,
		DefaultTimezone: defaultTimezone,
	})

	dispatcher := engine.NewDispatcher(logger.Named("dispatcher"), registry)

	return &Runner{
		logger:   logger,
		config:   cfg,
		registry: registry,
		server:   server.New(logger.Named("server"), dispatcher),
	}, nil
}

// Commands returns the names of the commands the runner serves.
func (r *Runner) Commands() []string {
	return r.registry.AvailableCommands()
}

// Serve answers requests from in on out until in is exhausted or ctx is done.
func (r *Runner) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	r.logger.Info("serving requests", zap.Strings("commands", r.Commands()))

	if err := r.server.Serve(ctx, in, out); err != nil {
		return fmt.Errorf("failed to serve requests: %w", err)
	}

	return nil
}

package engine

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-json"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// Handler serves a single command. Args is the raw "args" member of the
// request and is always a JSON document ("{}" when the request had none).
type Handler interface {
	Command() string
	Handle(ctx context.Context, args json.RawMessage) (any, error)
}

// TypedHandlerFunc is a strongly-typed command implementation.
// A is the argument struct the raw args are decoded into.
type TypedHandlerFunc[A any] func(ctx context.Context, logger *zap.Logger, args A) (any, error)

type typedHandler[A any] struct {
	command string
	logger  *zap.Logger
	fn      TypedHandlerFunc[A]
}

// NewHandler wraps a typed handler into a generic Handler.
// It centralizes decoding of the raw args into A and reports a clear error if
// the args do not fit.
func NewHandler[A any](command string, logger *zap.Logger, fn TypedHandlerFunc[A]) Handler {
	return &typedHandler[A]{
		command: command,
		logger:  logger.With(zap.String("command", command)),
		fn:      fn,
	}
}

func (h *typedHandler[A]) Command() string {
	return h.command
}

func (h *typedHandler[A]) Handle(ctx context.Context, args json.RawMessage) (any, error) {
	var typed A
	if err := json.Unmarshal(ArgsOrEmpty(args), &typed); err != nil {
		return nil, fmt.Errorf("invalid args for %s: %w", h.command, err)
	}
	return h.fn(ctx, h.logger, typed)
}

// ArgsOrEmpty returns args, or an empty object when args is absent or null.
func ArgsOrEmpty(args json.RawMessage) json.RawMessage {
	if len(args) == 0 || string(args) == "null" {
		return json.RawMessage("{}")
	}
	return args
}

// UnsupportedCommandError is returned when a command is not registered.
type UnsupportedCommandError struct {
	Command   string   // the requested command, rendered for display
	Available []string // registered commands
}

func (e *UnsupportedCommandError) Error() string {
	return "Unsupported command: " + e.Command
}

// Registry maps command names to handlers. It is filled once at startup and
// only read while serving.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		logger:   logger,
	}
}

// Logger is handed to handler constructors so they log under the registry's name.
func (r *Registry) Logger() *zap.Logger {
	return r.logger
}

func (r *Registry) Register(handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[handler.Command()] = handler
}

func (r *Registry) Lookup(command string) (Handler, error) {
	r.mu.RLock()
	handler, ok := r.handlers[command]
	available := r.availableCommands()
	r.mu.RUnlock()
	if !ok {
		return nil, &UnsupportedCommandError{Command: command, Available: available}
	}
	return handler, nil
}

func (r *Registry) AvailableCommands() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableCommands()
}

func (r *Registry) availableCommands() []string {
	commands := lo.Keys(r.handlers)
	slices.Sort(commands)
	return commands
}

package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	v1 "github.com/infracollect/tzline/apis/v1"
	"go.uber.org/zap"
)

// Dispatcher turns one raw request line into exactly one response.
type Dispatcher struct {
	logger   *zap.Logger
	registry *Registry
}

func NewDispatcher(logger *zap.Logger, registry *Registry) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		registry: registry,
	}
}

// Dispatch decodes, validates and routes a request. It never returns an error
// and never panics: every failure is folded into an error response.
func (d *Dispatcher) Dispatch(ctx context.Context, line []byte) v1.Response {
	result, err := d.dispatch(ctx, line)
	if err != nil {
		var reqErr *Error
		if !errors.As(err, &reqErr) {
			reqErr = handlerFault(err)
		}
		d.logger.Debug("request failed", zap.String("kind", string(reqErr.Kind)), zap.Error(err))
		return v1.Failure(reqErr.Message)
	}
	return v1.Success(result)
}

func (d *Dispatcher) dispatch(ctx context.Context, line []byte) (any, error) {
	if !json.Valid(line) {
		return nil, NewError(MalformedInput, MessageInvalidJSON)
	}

	var request map[string]json.RawMessage
	if err := json.Unmarshal(line, &request); err != nil {
		// Valid JSON but not an object.
		return nil, WrapError(MissingCommand, MessageMissingCommand, err)
	}

	rawCommand, ok := request["command"]
	if !ok {
		return nil, NewError(MissingCommand, MessageMissingCommand)
	}

	command := renderCommand(rawCommand)
	handler, err := d.registry.Lookup(command)
	if err != nil || !isJSONString(rawCommand) {
		var unsupported *UnsupportedCommandError
		if !errors.As(err, &unsupported) {
			unsupported = &UnsupportedCommandError{Command: command, Available: d.registry.AvailableCommands()}
		}
		d.logger.Debug("unsupported command", zap.String("command", command), zap.Strings("available", unsupported.Available))
		return nil, WrapError(UnsupportedCommand, unsupported.Error(), unsupported)
	}

	return d.invoke(ctx, handler, request["args"])
}

func (d *Dispatcher) invoke(ctx context.Context, handler Handler, args json.RawMessage) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("handler panicked", zap.String("command", handler.Command()), zap.Any("panic", r))
			result, err = nil, handlerFault(fmt.Errorf("%v", r))
		}
	}()

	result, err = handler.Handle(ctx, args)
	if err != nil {
		var reqErr *Error
		if errors.As(err, &reqErr) {
			return nil, reqErr
		}
		return nil, handlerFault(err)
	}
	return result, nil
}

// renderCommand returns a string command as is and any other JSON value as
// its compact JSON text.
func renderCommand(raw json.RawMessage) string {
	if isJSONString(raw) {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isJSONString(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '"'
}

// Package server runs the newline-delimited JSON request loop.
package server

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	v1 "github.com/infracollect/tzline/apis/v1"
	"go.uber.org/zap"
)

// Dispatcher produces exactly one response per request line.
type Dispatcher interface {
	Dispatch(ctx context.Context, line []byte) v1.Response
}

type Server struct {
	logger     *zap.Logger
	dispatcher Dispatcher
}

func New(logger *zap.Logger, dispatcher Dispatcher) *Server {
	return &Server{
		logger:     logger,
		dispatcher: dispatcher,
	}
}

// Serve reads requests from r until EOF, writing and flushing one response
// line to w per request. Request failures are answered and never stop the
// loop; only I/O errors do. Cancellation is checked between lines.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	reader := bufio.NewReader(r)
	writer := bufio.NewWriter(w)

	handled := 0
	for {
		if err := ctx.Err(); err != nil {
			s.logger.Info("stopping server", zap.Int("requests", handled), zap.Error(err))
			return nil
		}

		line, readErr := reader.ReadBytes('\n')
		if len(line) > 0 {
			handled++
			if err := s.handleLine(ctx, writer, handled, line); err != nil {
				return err
			}
		}

		switch {
		case readErr == nil:
		case errors.Is(readErr, io.EOF):
			s.logger.Info("input closed", zap.Int("requests", handled))
			return nil
		case ctx.Err() != nil:
			// The input is closed on shutdown to unblock the read.
			s.logger.Info("stopping server", zap.Int("requests", handled), zap.Error(ctx.Err()))
			return nil
		default:
			return fmt.Errorf("failed to read request: %w", readErr)
		}
	}
}

func (s *Server) handleLine(ctx context.Context, w *bufio.Writer, lineNo int, line []byte) error {
	start := time.Now()
	response := s.dispatcher.Dispatch(ctx, line)

	if err := writeResponse(w, response); err != nil {
		return fmt.Errorf("failed to write response for line %d: %w", lineNo, err)
	}

	if ce := s.logger.Check(zap.DebugLevel, "handled request"); ce != nil {
		fields := []zap.Field{
			zap.Int("line", lineNo),
			zap.String("status", response.Status),
			zap.Duration("duration", time.Since(start)),
		}
		if response.Error != nil {
			fields = append(fields, zap.String("error", response.Error.Message))
		}
		ce.Write(fields...)
	}
	return nil
}

// writeResponse encodes response as one compact JSON line and flushes it.
func writeResponse(w *bufio.Writer, response v1.Response) error {
	data, err := encodeResponse(response)
	if err != nil {
		data, err = encodeResponse(v1.Failure("Error processing command: " + err.Error()))
		if err != nil {
			return err
		}
	}

	if _, err := w.Write(data); err != nil {
		return err
	}
	return w.Flush()
}

func encodeResponse(response v1.Response) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(response); err != nil {
		return nil, fmt.Errorf("failed to encode response: %w", err)
	}
	return buf.Bytes(), nil
}

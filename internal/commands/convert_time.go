package commands

import (
	"context"
	"strconv"
	"strings"
	"time"

	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/infracollect/tzline/internal/engine"
	"github.com/infracollect/tzline/internal/tz"
	"go.uber.org/zap"
)

const invalidTimeFormat = "Invalid time format. Use HH:MM in 24-hour format"

type ConvertTimeArgs struct {
	SourceTimezone *string `json:"source_timezone"`
	TargetTimezone *string `json:"target_timezone"`
	Time           *string `json:"time"`
}

func newConvertTimeHandler(cfg Config) engine.TypedHandlerFunc[ConvertTimeArgs] {
	return func(_ context.Context, logger *zap.Logger, args ConvertTimeArgs) (any, error) {
		sourceName := stringOr(args.SourceTimezone, cfg.DefaultTimezone)
		targetName := stringOr(args.TargetTimezone, cfg.DefaultTimezone)

		// The clock time is validated before either zone is looked up.
		clock := stringOr(args.Time, "")
		if clock == "" {
			return nil, engine.NewError(engine.MissingArgument, "Missing time parameter")
		}

		hour, minute, err := ParseClockTime(clock)
		if err != nil {
			return nil, err
		}

		sourceLoc, err := resolveZone(cfg.Provider, sourceName)
		if err != nil {
			return nil, err
		}

		today := cfg.Clock.Now().In(sourceLoc)
		source := time.Date(today.Year(), today.Month(), today.Day(), hour, minute, 0, 0, sourceLoc)

		targetLoc, err := resolveZone(cfg.Provider, targetName)
		if err != nil {
			return nil, err
		}

		target := source.In(targetLoc)

		_, sourceOffset := source.Zone()
		_, targetOffset := target.Zone()

		logger.Debug("converted time",
			zap.String("source_timezone", sourceName),
			zap.String("target_timezone", targetName),
			zap.Int("source_offset", sourceOffset),
			zap.Int("target_offset", targetOffset),
		)

		return v1.ConversionResult{
			Source:         zonedTime(sourceName, source),
			Target:         zonedTime(targetName, target),
			TimeDifference: tz.OffsetDifference(sourceOffset, targetOffset),
		}, nil
	}
}

// ParseClockTime parses an HH:MM wall-clock time. Malformed and out of range
// input share one error message.
func ParseClockTime(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, engine.NewError(engine.InvalidFormat, invalidTimeFormat)
	}

	hour, err = strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, engine.WrapError(engine.InvalidFormat, invalidTimeFormat, err)
	}
	minute, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, engine.WrapError(engine.InvalidFormat, invalidTimeFormat, err)
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, engine.NewError(engine.InvalidFormat, invalidTimeFormat)
	}
	return hour, minute, nil
}

package commands

import (
	"context"

	"github.com/infracollect/tzline/internal/engine"
	"go.uber.org/zap"
)

type CurrentTimeArgs struct {
	Timezone *string `json:"timezone"`
}

func newCurrentTimeHandler(cfg Config) engine.TypedHandlerFunc[CurrentTimeArgs] {
	return func(_ context.Context, logger *zap.Logger, args CurrentTimeArgs) (any, error) {
		name := stringOr(args.Timezone, cfg.DefaultTimezone)

		loc, err := resolveZone(cfg.Provider, name)
		if err != nil {
			return nil, err
		}

		now := cfg.Clock.Now().In(loc)
		logger.Debug("resolved current time", zap.String("timezone", name), zap.Time("now", now))

		return zonedTime(name, now), nil
	}
}

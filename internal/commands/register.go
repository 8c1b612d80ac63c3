// Package commands implements the get_current_time and convert_time handlers.
package commands

import (
	"errors"
	"fmt"
	"time"

	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/infracollect/tzline/internal/engine"
	"github.com/infracollect/tzline/internal/tz"
)

const DefaultTimezone = "UTC"

// Config carries the capabilities shared by the handlers.
type Config struct {
	Provider tz.Provider
	Clock    tz.Clock

	// DefaultTimezone replaces any timezone argument the request omits. Defaults to "UTC".
	DefaultTimezone string
}

func Register(registry *engine.Registry, cfg Config) {
	if cfg.Clock == nil {
		cfg.Clock = tz.RealClock{}
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = DefaultTimezone
	}

	logger := registry.Logger()
	registry.Register(engine.NewHandler(v1.CommandGetCurrentTime, logger, newCurrentTimeHandler(cfg)))
	registry.Register(engine.NewHandler(v1.CommandConvertTime, logger, newConvertTimeHandler(cfg)))
}

func stringOr(value *string, fallback string) string {
	if value == nil {
		return fallback
	}
	return *value
}

// resolveZone maps provider lookup failures to the client-facing unknown
// timezone error. Other provider failures are returned as is.
func resolveZone(provider tz.Provider, name string) (*time.Location, error) {
	loc, err := provider.Resolve(name)
	if err != nil {
		var unknown *tz.UnknownTimeZoneError
		if errors.As(err, &unknown) {
			return nil, engine.WrapError(engine.UnknownTimeZone, "Unknown timezone: "+name, err)
		}
		return nil, fmt.Errorf("failed to resolve timezone %s: %w", name, err)
	}
	return loc, nil
}

func zonedTime(name string, t time.Time) v1.ZonedTime {
	return v1.ZonedTime{
		Timezone: name,
		Datetime: tz.FormatISO(t),
		IsDST:    t.IsDST(),
	}
}

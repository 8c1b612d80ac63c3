package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	v1 "github.com/infracollect/tzline/apis/v1"
	"github.com/infracollect/tzline/internal/engine"
	"github.com/infracollect/tzline/internal/tz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newDispatcher(t *testing.T, cfg Config) *engine.Dispatcher {
	t.Helper()
	logger := zap.NewNop()
	registry := engine.NewRegistry(logger)
	if cfg.Provider == nil {
		cfg.Provider = tz.NewSystemProvider()
	}
	Register(registry, cfg)
	return engine.NewDispatcher(logger, registry)
}

func at(t *testing.T, value string) tz.FixedClock {
	t.Helper()
	instant, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return tz.FixedClock(instant)
}

func dispatch(t *testing.T, d *engine.Dispatcher, line string) string {
	t.Helper()
	b, err := json.Marshal(d.Dispatch(t.Context(), []byte(line)))
	require.NoError(t, err)
	return string(b)
}

func errorJSON(message string) string {
	return `{"status":"error","error":{"message":"` + message + `"}}`
}

func TestRegister(t *testing.T) {
	registry := engine.NewRegistry(zap.NewNop())
	Register(registry, Config{Provider: tz.NewSystemProvider()})
	assert.Equal(t, []string{"convert_time", "get_current_time"}, registry.AvailableCommands())
}

func TestGetCurrentTime(t *testing.T) {
	tests := []struct {
		name  string
		clock string
		line  string
		want  string
	}{
		{
			name:  "defaults to utc without args",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time"}`,
			want:  `{"status":"success","result":{"timezone":"UTC","datetime":"2024-01-15T12:00:00+00:00","is_dst":false}}`,
		},
		{
			name:  "defaults to utc with empty args",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time","args":{}}`,
			want:  `{"status":"success","result":{"timezone":"UTC","datetime":"2024-01-15T12:00:00+00:00","is_dst":false}}`,
		},
		{
			name:  "northern summer is dst",
			clock: "2024-07-04T16:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"America/New_York"}}`,
			want:  `{"status":"success","result":{"timezone":"America/New_York","datetime":"2024-07-04T12:00:00-04:00","is_dst":true}}`,
		},
		{
			name:  "northern winter is not dst",
			clock: "2024-01-15T17:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"America/New_York"}}`,
			want:  `{"status":"success","result":{"timezone":"America/New_York","datetime":"2024-01-15T12:00:00-05:00","is_dst":false}}`,
		},
		{
			name:  "southern summer is dst",
			clock: "2024-01-15T00:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"Australia/Sydney"}}`,
			want:  `{"status":"success","result":{"timezone":"Australia/Sydney","datetime":"2024-01-15T11:00:00+11:00","is_dst":true}}`,
		},
		{
			name:  "southern winter is not dst",
			clock: "2024-07-15T00:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"Australia/Sydney"}}`,
			want:  `{"status":"success","result":{"timezone":"Australia/Sydney","datetime":"2024-07-15T10:00:00+10:00","is_dst":false}}`,
		},
		{
			name:  "zone without dst",
			clock: "2024-07-15T00:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"Asia/Kolkata"}}`,
			want:  `{"status":"success","result":{"timezone":"Asia/Kolkata","datetime":"2024-07-15T05:30:00+05:30","is_dst":false}}`,
		},
		{
			name:  "fractional seconds",
			clock: "2024-01-15T12:00:00.25Z",
			line:  `{"command":"get_current_time"}`,
			want:  `{"status":"success","result":{"timezone":"UTC","datetime":"2024-01-15T12:00:00.250000+00:00","is_dst":false}}`,
		},
		{
			name:  "lower case name resolves and is echoed as given",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"utc"}}`,
			want:  `{"status":"success","result":{"timezone":"utc","datetime":"2024-01-15T12:00:00+00:00","is_dst":false}}`,
		},
		{
			name:  "mixed case name resolves",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"Utc"}}`,
			want:  `{"status":"success","result":{"timezone":"Utc","datetime":"2024-01-15T12:00:00+00:00","is_dst":false}}`,
		},
		{
			name:  "unknown timezone",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":"Not/AZone"}}`,
			want:  errorJSON("Unknown timezone: Not/AZone"),
		},
		{
			name:  "empty timezone is unknown",
			clock: "2024-01-15T12:00:00Z",
			line:  `{"command":"get_current_time","args":{"timezone":""}}`,
			want:  errorJSON("Unknown timezone: "),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, Config{Clock: at(t, tt.clock)})
			assert.Equal(t, tt.want, dispatch(t, d, tt.line))
		})
	}
}

func TestGetCurrentTime_ConfiguredDefault(t *testing.T) {
	d := newDispatcher(t, Config{
		Clock:           at(t, "2024-01-15T12:00:00Z"),
		DefaultTimezone: "Europe/Helsinki",
	})

	assert.Equal(t,
		`{"status":"success","result":{"timezone":"Europe/Helsinki","datetime":"2024-01-15T14:00:00+02:00","is_dst":false}}`,
		dispatch(t, d, `{"command":"get_current_time"}`),
	)
}

func TestConvertTime(t *testing.T) {
	tests := []struct {
		name  string
		clock string
		args  string
		want  string
	}{
		{
			name:  "utc to kolkata",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"source_timezone":"UTC","target_timezone":"Asia/Kolkata","time":"12:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-01-15T12:00:00+00:00","is_dst":false},` +
				`"target":{"timezone":"Asia/Kolkata","datetime":"2024-01-15T17:30:00+05:30","is_dst":false},` +
				`"time_difference":"+5.5h"}}`,
		},
		{
			// Equal offsets fail the strict greater-than test, so no plus sign.
			name:  "same zone has unsigned zero difference",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"source_timezone":"Europe/Paris","target_timezone":"Europe/Paris","time":"08:15"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Europe/Paris","datetime":"2024-01-15T08:15:00+01:00","is_dst":false},` +
				`"target":{"timezone":"Europe/Paris","datetime":"2024-01-15T08:15:00+01:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
		{
			name:  "both zones default to utc",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"time":"23:59"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-01-15T23:59:00+00:00","is_dst":false},` +
				`"target":{"timezone":"UTC","datetime":"2024-01-15T23:59:00+00:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
		{
			name:  "negative difference keeps its own sign",
			clock: "2024-07-04T12:00:00Z",
			args:  `{"source_timezone":"UTC","target_timezone":"America/Los_Angeles","time":"12:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-07-04T12:00:00+00:00","is_dst":false},` +
				`"target":{"timezone":"America/Los_Angeles","datetime":"2024-07-04T05:00:00-07:00","is_dst":true},` +
				`"time_difference":"-7.0h"}}`,
		},
		{
			name:  "offsets follow the season",
			clock: "2024-01-15T12:00:00Z",
			args:  `{"source_timezone":"UTC","target_timezone":"America/Los_Angeles","time":"12:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-01-15T12:00:00+00:00","is_dst":false},` +
				`"target":{"timezone":"America/Los_Angeles","datetime":"2024-01-15T04:00:00-08:00","is_dst":false},` +
				`"time_difference":"-8.0h"}}`,
		},
		{
			name:  "target date rolls over",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"source_timezone":"UTC","target_timezone":"Asia/Tokyo","time":"23:30"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-01-15T23:30:00+00:00","is_dst":false},` +
				`"target":{"timezone":"Asia/Tokyo","datetime":"2024-01-16T08:30:00+09:00","is_dst":false},` +
				`"time_difference":"+9.0h"}}`,
		},
		{
			// 20:00 UTC on the 15th is already the 16th in Auckland.
			name:  "today is taken in the source zone",
			clock: "2024-01-15T20:00:00Z",
			args:  `{"source_timezone":"Pacific/Auckland","target_timezone":"UTC","time":"09:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Pacific/Auckland","datetime":"2024-01-16T09:00:00+13:00","is_dst":true},` +
				`"target":{"timezone":"UTC","datetime":"2024-01-15T20:00:00+00:00","is_dst":false},` +
				`"time_difference":"-13.0h"}}`,
		},
		{
			name:  "before dst starts on transition day",
			clock: "2024-03-31T12:00:00Z",
			args:  `{"source_timezone":"Europe/London","target_timezone":"UTC","time":"00:30"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Europe/London","datetime":"2024-03-31T00:30:00+00:00","is_dst":false},` +
				`"target":{"timezone":"UTC","datetime":"2024-03-31T00:30:00+00:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
		{
			name:  "after dst starts on transition day",
			clock: "2024-03-31T12:00:00Z",
			args:  `{"source_timezone":"Europe/London","target_timezone":"UTC","time":"03:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Europe/London","datetime":"2024-03-31T03:00:00+01:00","is_dst":true},` +
				`"target":{"timezone":"UTC","datetime":"2024-03-31T02:00:00+00:00","is_dst":false},` +
				`"time_difference":"-1.0h"}}`,
		},
		{
			// 01:30 does not exist on the spring forward day and moves past the gap.
			name:  "time in dst gap is moved forward",
			clock: "2024-03-31T12:00:00Z",
			args:  `{"source_timezone":"Europe/London","target_timezone":"UTC","time":"01:30"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Europe/London","datetime":"2024-03-31T02:30:00+01:00","is_dst":true},` +
				`"target":{"timezone":"UTC","datetime":"2024-03-31T01:30:00+00:00","is_dst":false},` +
				`"time_difference":"-1.0h"}}`,
		},
		{
			// 01:30 occurs twice on the fall back day and resolves to standard time.
			name:  "time in dst overlap resolves to standard time",
			clock: "2024-10-27T12:00:00Z",
			args:  `{"source_timezone":"Europe/London","target_timezone":"UTC","time":"01:30"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"Europe/London","datetime":"2024-10-27T01:30:00+00:00","is_dst":false},` +
				`"target":{"timezone":"UTC","datetime":"2024-10-27T01:30:00+00:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
		{
			name:  "zone names are case-insensitive",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"source_timezone":"utc","target_timezone":"UTC","time":"10:00"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"utc","datetime":"2024-01-15T10:00:00+00:00","is_dst":false},` +
				`"target":{"timezone":"UTC","datetime":"2024-01-15T10:00:00+00:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
		{
			name:  "single digit fields are accepted",
			clock: "2024-01-15T08:00:00Z",
			args:  `{"time":"9:5"}`,
			want: `{"status":"success","result":{` +
				`"source":{"timezone":"UTC","datetime":"2024-01-15T09:05:00+00:00","is_dst":false},` +
				`"target":{"timezone":"UTC","datetime":"2024-01-15T09:05:00+00:00","is_dst":false},` +
				`"time_difference":"0.0h"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDispatcher(t, Config{Clock: at(t, tt.clock)})
			assert.Equal(t, tt.want, dispatch(t, d, `{"command":"convert_time","args":`+tt.args+`}`))
		})
	}
}

func TestRepeatedRequests(t *testing.T) {
	t.Run("convert_time does not depend on the time of day", func(t *testing.T) {
		const line = `{"command":"convert_time","args":{"source_timezone":"America/New_York","target_timezone":"Asia/Tokyo","time":"09:15"}}`

		morning := newDispatcher(t, Config{Clock: at(t, "2024-05-10T12:00:00Z")})
		evening := newDispatcher(t, Config{Clock: at(t, "2024-05-10T23:45:00Z")})

		first := dispatch(t, morning, line)
		assert.Equal(t, first, dispatch(t, morning, line))
		assert.Equal(t, first, dispatch(t, evening, line))
		assert.Contains(t, first, `"status":"success"`)
	})

	t.Run("get_current_time differs only in datetime", func(t *testing.T) {
		const line = `{"command":"get_current_time","args":{"timezone":"Europe/Berlin"}}`

		var results []v1.ZonedTime
		for _, clock := range []string{"2024-05-10T08:00:00Z", "2024-05-10T09:30:00Z"} {
			d := newDispatcher(t, Config{Clock: at(t, clock)})
			resp := d.Dispatch(t.Context(), []byte(line))
			require.Equal(t, v1.StatusSuccess, resp.Status)
			require.Nil(t, resp.Error)

			result, ok := resp.Result.(v1.ZonedTime)
			require.True(t, ok)
			results = append(results, result)
		}

		assert.Equal(t, "2024-05-10T10:00:00+02:00", results[0].Datetime)
		assert.Equal(t, "2024-05-10T11:30:00+02:00", results[1].Datetime)

		results[1].Datetime = results[0].Datetime
		assert.Equal(t, results[0], results[1])
	})
}

func TestConvertTime_Errors(t *testing.T) {
	const invalid = "Invalid time format. Use HH:MM in 24-hour format"

	tests := []struct {
		name string
		args string
		want string
	}{
		{name: "no args", args: `null`, want: "Missing time parameter"},
		{name: "absent time", args: `{"source_timezone":"UTC"}`, want: "Missing time parameter"},
		{name: "empty time", args: `{"time":""}`, want: "Missing time parameter"},
		{name: "null time", args: `{"time":null}`, want: "Missing time parameter"},
		{name: "no colon", args: `{"time":"1200"}`, want: invalid},
		{name: "seconds", args: `{"time":"12:00:00"}`, want: invalid},
		{name: "letters", args: `{"time":"ab:cd"}`, want: invalid},
		{name: "empty minute", args: `{"time":"12:"}`, want: invalid},
		// Out of range values share the malformed input message.
		{name: "hour too large", args: `{"time":"24:00","source_timezone":"UTC","target_timezone":"UTC"}`, want: invalid},
		{name: "hour way too large", args: `{"time":"25:00","source_timezone":"UTC","target_timezone":"UTC"}`, want: invalid},
		{name: "minute too large", args: `{"time":"12:60"}`, want: invalid},
		{name: "negative hour", args: `{"time":"-1:00"}`, want: invalid},
		{name: "time checked before source zone", args: `{"time":"25:00","source_timezone":"Not/AZone"}`, want: invalid},
		{name: "time checked before target zone", args: `{"time":"x","target_timezone":"Not/AZone"}`, want: invalid},
		{name: "unknown source", args: `{"time":"12:00","source_timezone":"Not/AZone","target_timezone":"Nor/This"}`, want: "Unknown timezone: Not/AZone"},
		{name: "unknown target", args: `{"time":"12:00","source_timezone":"UTC","target_timezone":"Nor/This"}`, want: "Unknown timezone: Nor/This"},
	}

	d := newDispatcher(t, Config{Clock: at(t, "2024-01-15T08:00:00Z")})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, errorJSON(tt.want), dispatch(t, d, `{"command":"convert_time","args":`+tt.args+`}`))
		})
	}
}

func TestConvertTime_NonStringTimeIsHandlerFault(t *testing.T) {
	d := newDispatcher(t, Config{Clock: at(t, "2024-01-15T08:00:00Z")})

	resp := d.Dispatch(t.Context(), []byte(`{"command":"convert_time","args":{"time":1200}}`))
	require.Equal(t, v1.StatusError, resp.Status)
	assert.Contains(t, resp.Error.Message, "Error processing command: ")
}

type brokenProvider struct{}

func (brokenProvider) Resolve(string) (*time.Location, error) {
	return nil, errors.New("database unavailable")
}

func TestProviderFailureIsHandlerFault(t *testing.T) {
	d := newDispatcher(t, Config{Provider: brokenProvider{}, Clock: at(t, "2024-01-15T08:00:00Z")})

	assert.Equal(t,
		errorJSON("Error processing command: failed to resolve timezone UTC: database unavailable"),
		dispatch(t, d, `{"command":"get_current_time"}`),
	)
}

// fakeProvider serves fixed zones so that offsets are independent of tzdata.
type fakeProvider map[string]*time.Location

func (p fakeProvider) Resolve(name string) (*time.Location, error) {
	loc, ok := p[name]
	if !ok {
		return nil, &tz.UnknownTimeZoneError{Name: name}
	}
	return loc, nil
}

func TestConvertTime_FakeProvider(t *testing.T) {
	provider := fakeProvider{
		"Test/Minus330": time.FixedZone("M330", -(3*3600 + 30*60)),
		"Test/Plus0545": time.FixedZone("P545", 5*3600+45*60),
	}
	d := newDispatcher(t, Config{Provider: provider, Clock: at(t, "2024-01-15T08:00:00Z")})

	assert.Equal(t,
		`{"status":"success","result":{`+
			`"source":{"timezone":"Test/Minus330","datetime":"2024-01-15T10:00:00-03:30","is_dst":false},`+
			`"target":{"timezone":"Test/Plus0545","datetime":"2024-01-15T19:15:00+05:45","is_dst":false},`+
			`"time_difference":"+9.2h"}}`,
		dispatch(t, d, `{"command":"convert_time","args":{"source_timezone":"Test/Minus330","target_timezone":"Test/Plus0545","time":"10:00"}}`),
	)

	assert.Equal(t,
		errorJSON("Unknown timezone: UTC"),
		dispatch(t, d, `{"command":"convert_time","args":{"source_timezone":"Test/Minus330","time":"10:00"}}`),
	)
}

func TestParseClockTime(t *testing.T) {
	tests := []struct {
		in         string
		hour, min  int
		wantErrMsg string
	}{
		{in: "00:00", hour: 0, min: 0},
		{in: "23:59", hour: 23, min: 59},
		{in: "07:05", hour: 7, min: 5},
		{in: " 7:05 ", hour: 7, min: 5},
		{in: "24:00", wantErrMsg: "Invalid time format. Use HH:MM in 24-hour format"},
		{in: "7", wantErrMsg: "Invalid time format. Use HH:MM in 24-hour format"},
		{in: "7.5:00", wantErrMsg: "Invalid time format. Use HH:MM in 24-hour format"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			hour, minute, err := ParseClockTime(tt.in)
			if tt.wantErrMsg != "" {
				var reqErr *engine.Error
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, engine.InvalidFormat, reqErr.Kind)
				assert.EqualError(t, err, tt.wantErrMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.hour, hour)
			assert.Equal(t, tt.min, minute)
		})
	}
}

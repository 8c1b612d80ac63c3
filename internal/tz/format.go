package tz

import (
	"fmt"
	"time"
)

const (
	isoSeconds      = "2006-01-02T15:04:05-07:00"
	isoMicroseconds = "2006-01-02T15:04:05.000000-07:00"
)

// FormatISO renders t as ISO-8601 with a numeric UTC offset. The fraction is
// printed with microsecond precision, and only when it is non-zero.
func FormatISO(t time.Time) string {
	t = t.Truncate(time.Microsecond)
	if t.Nanosecond() == 0 {
		return t.Format(isoSeconds)
	}
	return t.Format(isoMicroseconds)
}

// OffsetDifference formats the difference between two UTC offsets (in
// seconds) as signed hours with one decimal, e.g. "+5.5h" or "-3.0h". The
// plus sign is only added when target is strictly ahead of source, so equal
// offsets yield "0.0h".
func OffsetDifference(sourceOffset, targetOffset int) string {
	hours := float64(targetOffset-sourceOffset) / 3600
	sign := ""
	if targetOffset > sourceOffset {
		sign = "+"
	}
	return fmt.Sprintf("%s%.1fh", sign, hours)
}

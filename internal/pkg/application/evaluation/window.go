package evaluation

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

type Range string

const (
	Range1h  Range = "1h"
	Range3h  Range = "3h"
	Range24h Range = "24h"
	Range7d  Range = "7d"
	Range30d Range = "30d"

	DefaultRange = Range24h
)

var ErrUnknownRange = errors.New("unknown time range")

type offset struct {
	hours int
	days  int
}

var offsets = map[Range]offset{
	Range1h:  {hours: 1},
	Range3h:  {hours: 3},
	Range24h: {hours: 24},
	Range7d:  {days: 7},
	Range30d: {days: 30},
}

func ParseRange(s string) (Range, error) {
	if s == "" {
		return DefaultRange, nil
	}

	r := Range(s)
	if _, ok := offsets[r]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownRange, s)
	}

	return r, nil
}

// Cutoff subtracts the range from the hour or day field of now, in now's location.
// Near a DST transition this differs from subtracting a fixed duration.
func (r Range) Cutoff(now time.Time) time.Time {
	o := offsets[r]
	return time.Date(
		now.Year(), now.Month(), now.Day()-o.days,
		now.Hour()-o.hours, now.Minute(), now.Second(), now.Nanosecond(),
		now.Location(),
	)
}

// FilterWindow returns the samples taken at or after the range cutoff, oldest first.
func FilterWindow(samples []types.Sample, r Range, now time.Time) []types.Sample {
	cutoff := r.Cutoff(now)

	filtered := make([]types.Sample, 0, len(samples))
	for _, s := range samples {
		if s.Timestamp.IsZero() || s.Timestamp.Before(cutoff) {
			continue
		}
		filtered = append(filtered, s)
	}

	SortByTime(filtered)

	return filtered
}

// SortByTime sorts samples oldest first, keeping the input order of equal timestamps.
func SortByTime(samples []types.Sample) {
	slices.SortStableFunc(samples, func(a, b types.Sample) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
}

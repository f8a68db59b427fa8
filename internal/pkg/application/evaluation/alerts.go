package evaluation

import (
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

// Latest returns the most recent sample. Equal timestamps resolve to the one
// that comes last in the input.
func Latest(samples []types.Sample) (types.Sample, bool) {
	if len(samples) == 0 {
		return types.Sample{}, false
	}

	latest := samples[0]
	for _, s := range samples[1:] {
		if !s.Timestamp.Before(latest.Timestamp) {
			latest = s
		}
	}

	return latest, true
}

// DeriveAlerts evaluates the latest sample of every online room and returns one
// warning per breached metric, in room order and then co2, temperature, humidity.
func DeriveAlerts(rooms []types.Room, samplesByRoom map[string][]types.Sample, now time.Time) []types.Alert {
	alerts := make([]types.Alert, 0)

	for _, room := range rooms {
		samples := samplesByRoom[room.ID]
		if !IsOnline(samples, now) {
			continue
		}

		latest, ok := Latest(samples)
		if !ok {
			continue
		}

		for _, m := range types.Metrics {
			value := latest.Value(m)

			v := Evaluate(m, value)
			if v.InRange {
				continue
			}

			alerts = append(alerts, types.Alert{
				RoomID:     room.ID,
				RoomName:   room.Name,
				MetricType: m,
				Value:      value,
				Threshold:  v.Threshold,
				Timestamp:  latest.Timestamp,
				Status:     types.AlertStatusWarning,
			})
		}
	}

	return alerts
}

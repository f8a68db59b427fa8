package monitor

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/application/evaluation"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/pkg/types"
)

// Snapshot is the outcome of one refresh cycle. It is never modified after it
// has been returned from Evaluate.
type Snapshot struct {
	Rooms       []types.Room
	Samples     map[string][]types.Sample
	Alerts      []types.Alert
	EvaluatedAt time.Time
}

func (s Snapshot) Room(roomID string) (types.Room, bool) {
	i := slices.IndexFunc(s.Rooms, func(r types.Room) bool { return r.ID == roomID })
	if i < 0 {
		return types.Room{}, false
	}
	return s.Rooms[i], true
}

func (s Snapshot) OnlineCount() int {
	n := 0
	for _, r := range s.Rooms {
		if r.IsOnline {
			n++
		}
	}
	return n
}

// Evaluate derives room liveness and the alert set from freshly fetched data.
// The previous alert slice is carried over when the new set is equal by value,
// and changed reports whether it was replaced.
func Evaluate(previous Snapshot, rooms []types.Room, samples map[string][]types.Sample, now time.Time) (Snapshot, bool) {
	evaluated := make([]types.Room, 0, len(rooms))
	for _, r := range rooms {
		r.IsOnline = evaluation.IsOnline(samples[r.ID], now)
		evaluated = append(evaluated, r)
	}

	alerts := evaluation.DeriveAlerts(evaluated, samples, now)

	changed := !slices.EqualFunc(previous.Alerts, alerts, alertsEqual)
	if !changed {
		alerts = previous.Alerts
	}

	return Snapshot{
		Rooms:       evaluated,
		Samples:     samples,
		Alerts:      alerts,
		EvaluatedAt: now,
	}, changed
}

// Tick fetches rooms and samples through the gateway and evaluates them. If any
// fetch fails the previous snapshot is returned untouched along with the error.
func Tick(ctx context.Context, gw gateway.Gateway, previous Snapshot, now time.Time) (Snapshot, bool, error) {
	rooms, err := gw.FetchRooms(ctx)
	if err != nil {
		return previous, false, fmt.Errorf("could not fetch rooms: %w", err)
	}

	samples := make(map[string][]types.Sample, len(rooms))

	for _, r := range rooms {
		s, err := gw.FetchEnvironmentData(ctx, r.ID)
		if err != nil {
			return previous, false, fmt.Errorf("could not fetch environment data for room %s: %w", r.ID, err)
		}
		samples[r.ID] = s
	}

	next, changed := Evaluate(previous, rooms, samples, now)

	return next, changed, nil
}

func alertsEqual(a, b types.Alert) bool {
	return a.RoomID == b.RoomID &&
		a.RoomName == b.RoomName &&
		a.MetricType == b.MetricType &&
		a.Value == b.Value &&
		a.Threshold == b.Threshold &&
		a.Timestamp.Equal(b.Timestamp) &&
		a.Status == b.Status
}

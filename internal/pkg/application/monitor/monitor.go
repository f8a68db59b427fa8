package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultInterval = 60 * time.Second

var ErrRoomNotFound = errors.New("room not found")

var tracer = otel.Tracer("iot-room-monitor/monitor")

type Monitor interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context)
	Refresh(ctx context.Context) error

	Snapshot() Snapshot
	Rooms() []types.Room
	Room(roomID string) (types.Room, error)
	Alerts() []types.Alert
	Samples(ctx context.Context, roomID string) ([]types.Sample, error)
}

// Notifier is told about every change of the alert set.
type Notifier interface {
	Notify(ctx context.Context, previous, current []types.Alert) error
}

type Config struct {
	Interval time.Duration
	Clock    func() time.Time
}

type monitor struct {
	gw        gateway.Gateway
	notifiers []Notifier
	interval  time.Duration
	now       func() time.Time

	current   atomic.Pointer[Snapshot]
	scheduler *cron.Cron
}

func New(gw gateway.Gateway, cfg Config, notifiers ...Notifier) Monitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	now := cfg.Clock
	if now == nil {
		now = time.Now
	}

	m := &monitor{
		gw:        gw,
		notifiers: notifiers,
		interval:  interval,
		now:       now,
	}
	m.current.Store(&Snapshot{
		Rooms:   []types.Room{},
		Samples: map[string][]types.Sample{},
		Alerts:  []types.Alert{},
	})

	return m
}

// Start runs a first refresh right away and then one per interval. Runs are not
// serialised against each other, the last one to finish wins.
func (m *monitor) Start(ctx context.Context) error {
	log := logging.GetLoggerFromContext(ctx)

	m.scheduler = cron.New()

	_, err := m.scheduler.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		if err := m.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("refresh failed, keeping previous state")
		}
	})
	if err != nil {
		return fmt.Errorf("could not schedule refresh: %w", err)
	}

	m.scheduler.Start()

	go func() {
		if err := m.Refresh(ctx); err != nil {
			log.Error().Err(err).Msg("initial refresh failed")
		}
	}()

	log.Info().Msgf("refreshing room data every %s", m.interval)

	return nil
}

func (m *monitor) Stop(ctx context.Context) {
	if m.scheduler == nil {
		return
	}

	select {
	case <-m.scheduler.Stop().Done():
	case <-ctx.Done():
	}
}

func (m *monitor) Refresh(ctx context.Context) error {
	var err error
	ctx, span := tracer.Start(ctx, "refresh")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetLoggerFromContext(ctx)

	previous := *m.current.Load()

	next, changed, err := Tick(ctx, m.gw, previous, m.now())
	if err != nil {
		refreshes.WithLabelValues("failure").Inc()
		return err
	}

	m.current.Store(&next)

	refreshes.WithLabelValues("success").Inc()
	activeAlerts.Set(float64(len(next.Alerts)))
	roomsOnline.Set(float64(next.OnlineCount()))

	span.SetAttributes(
		attribute.Int("rooms", len(next.Rooms)),
		attribute.Int("alerts", len(next.Alerts)),
	)

	if !changed {
		return nil
	}

	log.Info().Int("alerts", len(next.Alerts)).Msg("alert set changed")

	for _, n := range m.notifiers {
		if nerr := n.Notify(ctx, previous.Alerts, next.Alerts); nerr != nil {
			log.Error().Err(nerr).Msg("failed to notify about changed alerts")
		}
	}

	return nil
}

func (m *monitor) Snapshot() Snapshot {
	return *m.current.Load()
}

func (m *monitor) Rooms() []types.Room {
	return m.current.Load().Rooms
}

func (m *monitor) Room(roomID string) (types.Room, error) {
	r, ok := m.current.Load().Room(roomID)
	if !ok {
		return types.Room{}, fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return r, nil
}

func (m *monitor) Alerts() []types.Alert {
	return m.current.Load().Alerts
}

// Samples returns the samples of the latest snapshot, or reads them through the
// gateway for rooms the snapshot does not know about yet.
func (m *monitor) Samples(ctx context.Context, roomID string) ([]types.Sample, error) {
	if s, ok := m.current.Load().Samples[roomID]; ok {
		return s, nil
	}

	s, err := m.gw.FetchEnvironmentData(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = []types.Sample{}
	}

	return s, nil
}

package notifications

import (
	"context"
	"errors"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/samber/lo"
	"golang.org/x/sys/unix"
)

type AlertNotifier interface {
	Notify(ctx context.Context, previous, current []types.Alert) error
}

type eventSender struct {
	client      cloudevents.Client
	subscribers []SubscriberConfig
}

// New returns a notifier that sends a cloud event to every subscriber of
// RoomAlertEventType for each alert that was not present in the previous set.
func New(cfg *Config) (AlertNotifier, error) {
	c, err := cloudevents.NewClientHTTP()
	if err != nil {
		return nil, err
	}

	e := &eventSender{
		client:      c,
		subscribers: []SubscriberConfig{},
	}

	if cfg != nil {
		for _, n := range cfg.Notifications {
			if n.Type == RoomAlertEventType {
				e.subscribers = append(e.subscribers, n.Subscribers...)
			}
		}
	}

	return e, nil
}

func (e *eventSender) Notify(ctx context.Context, previous, current []types.Alert) error {
	if len(e.subscribers) == 0 {
		return nil
	}

	logger := logging.GetLoggerFromContext(ctx)

	var errs []error

	for _, a := range NewlyRaised(previous, current) {
		event, err := newEvent(a)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, s := range e.subscribers {
			ctxWithTarget := cloudevents.ContextWithTarget(ctx, s.Endpoint)

			result := e.client.Send(ctxWithTarget, event)
			if cloudevents.IsUndelivered(result) || errors.Is(result, unix.ECONNREFUSED) {
				logger.Error().Err(result).Msgf("failed to send event to %s", s.Endpoint)
				errs = append(errs, fmt.Errorf("%w", result))
			}
		}
	}

	return errors.Join(errs...)
}

// NewlyRaised returns the alerts in current whose room and metric were not
// alerting in previous.
func NewlyRaised(previous, current []types.Alert) []types.Alert {
	known := lo.Associate(previous, func(a types.Alert) (string, struct{}) {
		return a.Tag(), struct{}{}
	})

	return lo.Filter(current, func(a types.Alert, _ int) bool {
		_, ok := known[a.Tag()]
		return !ok
	})
}

func newEvent(a types.Alert) (cloudevents.Event, error) {
	event := cloudevents.NewEvent()
	event.SetID(fmt.Sprintf("%s:%d", a.Tag(), a.Timestamp.Unix()))
	event.SetTime(a.Timestamp)
	event.SetSource("github.com/diwise/iot-room-monitor")
	event.SetType(RoomAlertEventType)
	event.SetSubject(a.RoomID)

	title, body := Message(a)

	err := event.SetData(cloudevents.ApplicationJSON, &types.AlertRaised{
		Alert: a,
		Title: title,
		Body:  body,
	})

	return event, err
}

// Message renders the human readable title and body of an alert.
func Message(a types.Alert) (string, string) {
	label, unit := "", ""

	switch a.MetricType {
	case types.MetricCO2:
		label, unit = "CO2", "ppm"
	case types.MetricTemperature:
		label, unit = "Température", "°C"
	case types.MetricHumidity:
		label, unit = "Humidité", "%"
	}

	return "Alerte " + a.RoomName, fmt.Sprintf("%s: %.1f %s", label, a.Value, unit)
}

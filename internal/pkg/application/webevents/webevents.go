package webevents

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	gosse "github.com/alexandrevicenzi/go-sse"
	"github.com/diwise/iot-room-monitor/pkg/types"
)

const AlertsChangedEvent string = "alertsChanged"

// WebEvents pushes alert changes to dashboards connected as server-sent event
// clients. Every client receives every message regardless of the path it
// connected on.
type WebEvents interface {
	http.Handler
	Notify(ctx context.Context, previous, current []types.Alert) error
	Publish(event string, data any) error
	Shutdown()
}

type webEvents struct {
	s *gosse.Server
}

func New() WebEvents {
	return &webEvents{
		s: gosse.NewServer(&gosse.Options{
			Headers: map[string]string{
				"Access-Control-Allow-Origin": "*",
			},
		}),
	}
}

func (we *webEvents) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	we.s.ServeHTTP(w, r)
}

func (we *webEvents) Shutdown() {
	we.s.Shutdown()
}

func (we *webEvents) Notify(ctx context.Context, previous, current []types.Alert) error {
	return we.Publish(AlertsChangedEvent, types.AlertsChanged{
		Alerts:    current,
		Count:     len(current),
		Timestamp: time.Now().UTC(),
	})
}

func (we *webEvents) Publish(event string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}

	message := gosse.NewMessage("", string(b), event)
	we.s.SendMessage("", message)

	return nil
}

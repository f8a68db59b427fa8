package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/matryer/is"
)

func TestNewlyRaised(t *testing.T) {
	is := is.New(t)

	previous := []types.Alert{alert("101", types.MetricCO2, 1100)}
	current := []types.Alert{
		alert("101", types.MetricCO2, 1200),
		alert("101", types.MetricHumidity, 80),
	}

	raised := NewlyRaised(previous, current)
	is.Equal(len(raised), 1)
	is.Equal(raised[0].MetricType, types.MetricHumidity)
}

func TestMessage(t *testing.T) {
	is := is.New(t)

	title, body := Message(alert("101", types.MetricCO2, 1234.56))
	is.Equal(title, "Alerte Salle 101")
	is.Equal(body, "CO2: 1234.6 ppm")

	_, body = Message(alert("101", types.MetricTemperature, 26))
	is.Equal(body, "Température: 26.0 °C")

	_, body = Message(alert("101", types.MetricHumidity, 75))
	is.Equal(body, "Humidité: 75.0 %")
}

func TestNotifySendsOneEventPerNewAlert(t *testing.T) {
	is := is.New(t)

	var mu sync.Mutex
	received := []string{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)

		mu.Lock()
		received = append(received, r.Header.Get("Ce-Type")+" "+string(b))
		mu.Unlock()

		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := &Config{Notifications: []Notification{{
		ID:          "alerts",
		Type:        RoomAlertEventType,
		Subscribers: []SubscriberConfig{{Endpoint: server.URL}},
	}}}

	n, err := New(cfg)
	is.NoErr(err)

	current := []types.Alert{
		alert("101", types.MetricCO2, 1200),
		alert("102", types.MetricTemperature, 27),
	}

	err = n.Notify(context.Background(), current[:1], current)
	is.NoErr(err)

	mu.Lock()
	defer mu.Unlock()

	is.Equal(len(received), 1)
	is.True(strings.HasPrefix(received[0], RoomAlertEventType))
	is.True(strings.Contains(received[0], `"roomId":"102"`))
	is.True(strings.Contains(received[0], `"title":"Alerte Salle 102"`))
}

func TestNotifyWithoutSubscribersDoesNothing(t *testing.T) {
	is := is.New(t)

	n, err := New(nil)
	is.NoErr(err)
	is.NoErr(n.Notify(context.Background(), nil, []types.Alert{alert("1", types.MetricCO2, 2000)}))
}

func alert(roomID string, m types.MetricType, v float64) types.Alert {
	return types.Alert{
		RoomID:     roomID,
		RoomName:   "Salle " + roomID,
		MetricType: m,
		Value:      v,
		Timestamp:  time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Status:     types.AlertStatusWarning,
	}
}

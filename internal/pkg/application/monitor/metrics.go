package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeAlerts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "room_monitor_active_alerts",
		Help: "Number of active warning alerts.",
	})

	roomsOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "room_monitor_rooms_online",
		Help: "Number of rooms that reported a sample within the last minute.",
	})

	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "room_monitor_refresh_total",
		Help: "Refresh cycles by result.",
	}, []string{"result"})
)

package types

import "time"

type AlertsChanged struct {
	Alerts    []Alert   `json:"alerts"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

func (a *AlertsChanged) ContentType() string {
	return "application/json"
}
func (a *AlertsChanged) TopicName() string {
	return "room-monitor.alertsChanged"
}

type AlertRaised struct {
	Alert
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (a *AlertRaised) ContentType() string {
	return "application/json"
}
func (a *AlertRaised) TopicName() string {
	return "room-monitor.alertRaised"
}

package types

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type MetricType string

const (
	MetricCO2         MetricType = "co2"
	MetricTemperature MetricType = "temperature"
	MetricHumidity    MetricType = "humidity"
)

// Metrics lists every metric type in the order alerts are evaluated and reported.
var Metrics = []MetricType{MetricCO2, MetricTemperature, MetricHumidity}

type Floor string

const (
	FloorBasement Floor = "sous-sol"
	FloorGround   Floor = "rdc"
)

type Room struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Floor    Floor  `json:"floor"`
	IsOnline bool   `json:"isOnline"`
}

// NewRoom derives name and floor from a room id. Online status is left false
// and is decided by the caller from the room's samples.
func NewRoom(id string) Room {
	return Room{
		ID:    id,
		Name:  "Salle " + id,
		Floor: floorFromID(id),
	}
}

func floorFromID(id string) Floor {
	switch {
	case id == "":
		return Floor("")
	case strings.HasPrefix(id, "S"):
		return FloorBasement
	case strings.HasPrefix(id, "R"):
		return FloorGround
	default:
		return Floor(id[:1])
	}
}

type Sample struct {
	Timestamp   time.Time `json:"date"`
	CO2         float64   `json:"co2"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
}

func (s Sample) Value(m MetricType) float64 {
	switch m {
	case MetricCO2:
		return s.CO2
	case MetricTemperature:
		return s.Temperature
	case MetricHumidity:
		return s.Humidity
	}
	return 0
}

// UnmarshalJSON accepts the date either as a string or as epoch milliseconds.
// A date that cannot be parsed leaves Timestamp as the zero time.
func (s *Sample) UnmarshalJSON(data []byte) error {
	var raw struct {
		Date        json.RawMessage `json:"date"`
		CO2         float64         `json:"co2"`
		Temperature float64         `json:"temperature"`
		Humidity    float64         `json:"humidity"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.Timestamp = parseDate(raw.Date)
	s.CO2 = raw.CO2
	s.Temperature = raw.Temperature
	s.Humidity = raw.Humidity

	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseDate(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	if raw[0] != '"' {
		ms, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms)).UTC()
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return time.Time{}
	}

	return ParseTimestamp(str)
}

// ParseTimestamp parses the date formats sensors are known to send. It returns
// the zero time for anything else.
func ParseTimestamp(str string) time.Time {
	str = strings.TrimSpace(str)

	if ms, err := strconv.ParseInt(str, 10, 64); err == nil {
		return time.UnixMilli(ms).UTC()
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, str); err == nil {
			return t
		}
	}

	return time.Time{}
}

type AlertStatus string

const (
	AlertStatusNone    AlertStatus = "none"
	AlertStatusWarning AlertStatus = "warning"
)

type Alert struct {
	RoomID     string      `json:"roomId"`
	RoomName   string      `json:"roomName"`
	MetricType MetricType  `json:"type"`
	Value      float64     `json:"value"`
	Threshold  float64     `json:"threshold"`
	Timestamp  time.Time   `json:"timestamp"`
	Status     AlertStatus `json:"status"`
}

// Tag identifies an alert across refresh cycles.
func (a Alert) Tag() string {
	return a.RoomID + "-" + string(a.MetricType)
}

type Averages struct {
	CO2         float64 `json:"co2"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
}

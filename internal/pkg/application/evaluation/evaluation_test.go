package evaluation

import (
	"math"
	"testing"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/matryer/is"
)

func TestThresholdBoundaries(t *testing.T) {
	is := is.New(t)

	cases := []struct {
		metric  types.MetricType
		value   float64
		inRange bool
	}{
		{types.MetricCO2, 999.999, true},
		{types.MetricCO2, 1000, false},
		{types.MetricTemperature, 25, true},
		{types.MetricTemperature, 25.001, false},
		{types.MetricTemperature, 19, true},
		{types.MetricTemperature, 18.999, false},
		{types.MetricHumidity, 30, false},
		{types.MetricHumidity, 30.001, true},
		{types.MetricHumidity, 70, true},
		{types.MetricHumidity, 70.001, false},
	}

	for _, c := range cases {
		v := Evaluate(c.metric, c.value)
		is.Equal(v.InRange, c.inRange) // unexpected verdict
	}
}

func TestThresholdReportsBreachedBound(t *testing.T) {
	is := is.New(t)

	is.Equal(Evaluate(types.MetricTemperature, 17).Threshold, TemperatureMin)
	is.Equal(Evaluate(types.MetricTemperature, 27).Threshold, TemperatureMax)
	is.Equal(Evaluate(types.MetricHumidity, 20).Threshold, HumidityMin)
	is.Equal(Evaluate(types.MetricHumidity, 80).Severity, SeverityWarning)
}

func TestNaNIsInRange(t *testing.T) {
	is := is.New(t)

	for _, m := range types.Metrics {
		is.True(Evaluate(m, math.NaN()).InRange)
	}
}

func TestUnknownMetricIsInRange(t *testing.T) {
	is := is.New(t)
	is.True(Evaluate(types.MetricType("pressure"), 5000).InRange)
}

func TestIsOnline(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	is.True(!IsOnline(nil, now))
	is.True(!IsOnline([]types.Sample{}, now))
	is.True(IsOnline([]types.Sample{{Timestamp: now.Add(-30 * time.Second)}}, now))
	is.True(!IsOnline([]types.Sample{{Timestamp: now.Add(-61 * time.Second)}}, now))
	is.True(!IsOnline([]types.Sample{{Timestamp: now.Add(-60 * time.Second)}}, now))
	is.True(!IsOnline([]types.Sample{{}}, now))
}

func TestAverage(t *testing.T) {
	is := is.New(t)

	is.Equal(Average(nil), types.Averages{})

	avg := Average([]types.Sample{
		{CO2: 400, Temperature: 20, Humidity: 40},
		{CO2: 600, Temperature: 22, Humidity: 50},
	})
	is.Equal(avg, types.Averages{CO2: 500, Temperature: 21, Humidity: 45})
}

func TestAverageRoundsToTwoDecimals(t *testing.T) {
	is := is.New(t)

	avg := Average([]types.Sample{
		{CO2: 400, Temperature: 20, Humidity: 40},
		{CO2: 400, Temperature: 20, Humidity: 40},
		{CO2: 401, Temperature: 21, Humidity: 41},
	})
	is.Equal(avg.CO2, 400.33)
	is.Equal(avg.Temperature, 20.33)
	is.Equal(avg.Humidity, 40.33)
}

func TestFilterWindowSevenDays(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	// ten samples spanning eight days, deliberately out of order
	samples := []types.Sample{}
	for i := 9; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * 1280 * time.Minute)
		samples = append(samples, types.Sample{Timestamp: ts, CO2: float64(i)})
	}
	samples[2], samples[7] = samples[7], samples[2]

	filtered := FilterWindow(samples, Range7d, now)

	cutoff := time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)
	is.Equal(len(filtered), 8)
	for i, s := range filtered {
		is.True(!s.Timestamp.Before(cutoff))
		if i > 0 {
			is.True(!s.Timestamp.Before(filtered[i-1].Timestamp))
		}
	}
}

func TestFilterWindowKeepsSampleAtCutoff(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		rng    Range
		cutoff time.Time
	}{
		{Range1h, time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC)},
		{Range24h, time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)},
		{Range7d, time.Date(2024, 3, 3, 12, 0, 0, 0, time.UTC)},
		{Range30d, time.Date(2024, 2, 9, 12, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		is.True(c.rng.Cutoff(now).Equal(c.cutoff)) // unexpected cutoff

		samples := []types.Sample{
			{Timestamp: c.cutoff.Add(-time.Nanosecond), CO2: 1},
			{Timestamp: c.cutoff, CO2: 2},
			{Timestamp: now, CO2: 3},
		}

		filtered := FilterWindow(samples, c.rng, now)
		is.Equal(len(filtered), 2)     // sample at the cutoff is kept
		is.Equal(filtered[0].CO2, 2.0) // sample just before the cutoff is dropped
	}
}

func TestFilterWindowOneHour(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	samples := []types.Sample{
		{Timestamp: now.Add(-2 * time.Hour)},
		{Timestamp: now.Add(-30 * time.Minute)},
		{Timestamp: now.Add(-61 * time.Minute)},
		{Timestamp: now.Add(-5 * time.Minute)},
	}

	filtered := FilterWindow(samples, Range1h, now)
	is.Equal(len(filtered), 2)
	is.True(filtered[0].Timestamp.Equal(now.Add(-30 * time.Minute)))
	is.True(filtered[1].Timestamp.Equal(now.Add(-5 * time.Minute)))
}

func TestFilterWindowThirtyDaysAcrossMonths(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	samples := []types.Sample{
		{Timestamp: time.Date(2024, 2, 9, 11, 59, 59, 0, time.UTC)},
		{Timestamp: time.Date(2024, 2, 29, 8, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
		{Timestamp: time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)},
	}

	filtered := FilterWindow(samples, Range30d, now)
	is.Equal(len(filtered), 2)
	is.True(filtered[0].Timestamp.Equal(time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
}

func TestFilterWindowEmpty(t *testing.T) {
	is := is.New(t)

	filtered := FilterWindow(nil, Range1h, time.Now())
	is.True(filtered != nil)
	is.Equal(len(filtered), 0)
}

func TestFilterWindowDropsUnparsableDates(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	filtered := FilterWindow([]types.Sample{{}, {Timestamp: now}}, Range30d, now)
	is.Equal(len(filtered), 1)
}

func TestCutoffUsesCalendarFields(t *testing.T) {
	is := is.New(t)

	loc, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("timezone database not available")
	}

	// the night between 30 and 31 March 2024 is one hour short in Paris
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, loc)

	is.Equal(Range24h.Cutoff(now), time.Date(2024, 3, 30, 12, 0, 0, 0, loc))
	is.Equal(now.Sub(Range24h.Cutoff(now)), 23*time.Hour)
	is.Equal(Range7d.Cutoff(now), time.Date(2024, 3, 24, 12, 0, 0, 0, loc))
}

func TestParseRange(t *testing.T) {
	is := is.New(t)

	r, err := ParseRange("")
	is.NoErr(err)
	is.Equal(r, DefaultRange)

	r, err = ParseRange("3h")
	is.NoErr(err)
	is.Equal(r, Range3h)

	_, err = ParseRange("2w")
	is.True(err != nil)
}

func TestDeriveAlertsForOnlineRoom(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	room := types.NewRoom("101")
	samples := map[string][]types.Sample{
		"101": {{Timestamp: now.Add(-10 * time.Second), CO2: 1200, Temperature: 22, Humidity: 50}},
	}

	alerts := DeriveAlerts([]types.Room{room}, samples, now)
	is.Equal(len(alerts), 1)
	is.Equal(alerts[0].MetricType, types.MetricCO2)
	is.Equal(alerts[0].Status, types.AlertStatusWarning)
	is.Equal(alerts[0].Value, 1200.0)
	is.Equal(alerts[0].Threshold, CO2Warning)
	is.Equal(alerts[0].RoomName, "Salle 101")
}

func TestDeriveAlertsForOfflineRoom(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	samples := map[string][]types.Sample{
		"101": {{Timestamp: now.Add(-5 * time.Minute), CO2: 1200, Temperature: 22, Humidity: 50}},
	}

	alerts := DeriveAlerts([]types.Room{types.NewRoom("101")}, samples, now)
	is.Equal(len(alerts), 0)
}

func TestDeriveAlertsUsesChronologicallyLatestSample(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	samples := map[string][]types.Sample{
		"R01": {
			{Timestamp: now.Add(-5 * time.Second), CO2: 500, Temperature: 30, Humidity: 20},
			{Timestamp: now.Add(-50 * time.Second), CO2: 1500, Temperature: 22, Humidity: 50},
		},
		"S02": {{Timestamp: now.Add(-1 * time.Second), CO2: 1000, Temperature: 18, Humidity: 71}},
		"3":   nil,
	}
	rooms := []types.Room{types.NewRoom("R01"), types.NewRoom("3"), types.NewRoom("S02")}

	alerts := DeriveAlerts(rooms, samples, now)
	is.Equal(len(alerts), 5)

	is.Equal(alerts[0].Tag(), "R01-temperature")
	is.Equal(alerts[1].Tag(), "R01-humidity")
	is.Equal(alerts[2].Tag(), "S02-co2")
	is.Equal(alerts[3].Tag(), "S02-temperature")
	is.Equal(alerts[4].Tag(), "S02-humidity")
}

func TestDeriveAlertsIsIdempotent(t *testing.T) {
	is := is.New(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	rooms := []types.Room{types.NewRoom("1A"), types.NewRoom("2B")}
	samples := map[string][]types.Sample{
		"1A": {{Timestamp: now, CO2: 1100, Temperature: 26, Humidity: 80}},
		"2B": {{Timestamp: now, CO2: 300, Temperature: 10, Humidity: 10}},
	}

	is.Equal(DeriveAlerts(rooms, samples, now), DeriveAlerts(rooms, samples, now))
}

func TestLatestPrefersLastOfEqualTimestamps(t *testing.T) {
	is := is.New(t)
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	latest, ok := Latest([]types.Sample{{Timestamp: ts, CO2: 1}, {Timestamp: ts, CO2: 2}})
	is.True(ok)
	is.Equal(latest.CO2, 2.0)

	_, ok = Latest(nil)
	is.True(!ok)
}

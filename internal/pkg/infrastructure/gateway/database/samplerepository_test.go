package database

import (
	"context"
	"testing"
	"time"

	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/matryer/is"
	"github.com/rs/zerolog"
)

func TestAddAndFetchSamples(t *testing.T) {
	is, ctx, r := testSetup(t)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	is.NoErr(r.Add(ctx, "R04", types.Sample{Timestamp: now, CO2: 800}))
	is.NoErr(r.Add(ctx, "R04", types.Sample{Timestamp: now.Add(-time.Minute), CO2: 400}))
	is.NoErr(r.Add(ctx, "S12", types.Sample{Timestamp: now, CO2: 1200}))

	samples, err := r.FetchEnvironmentData(ctx, "R04")
	is.NoErr(err)
	is.Equal(len(samples), 2)
	is.Equal(samples[0].CO2, 400.0)
	is.True(samples[1].Timestamp.Equal(now))
}

func TestFetchRoomsReturnsDistinctRooms(t *testing.T) {
	is, ctx, r := testSetup(t)
	now := time.Now().UTC()

	is.NoErr(r.Add(ctx, "S12", types.Sample{Timestamp: now}))
	is.NoErr(r.Add(ctx, "R04", types.Sample{Timestamp: now}))
	is.NoErr(r.Add(ctx, "R04", types.Sample{Timestamp: now}))

	rooms, err := r.FetchRooms(ctx)
	is.NoErr(err)
	is.Equal(len(rooms), 2)
	is.Equal(rooms[0].ID, "R04")
	is.Equal(rooms[0].Floor, types.FloorGround)
	is.Equal(rooms[1].Name, "Salle S12")
}

func TestFetchFromEmptyStore(t *testing.T) {
	is, ctx, r := testSetup(t)

	rooms, err := r.FetchRooms(ctx)
	is.NoErr(err)
	is.Equal(len(rooms), 0)

	samples, err := r.FetchEnvironmentData(ctx, "nosuchroom")
	is.NoErr(err)
	is.Equal(len(samples), 0)
}

func TestAddRequiresRoomID(t *testing.T) {
	is, ctx, r := testSetup(t)
	is.True(r.Add(ctx, "", types.Sample{}) != nil)
}

func TestPrune(t *testing.T) {
	is, ctx, r := testSetup(t)
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)

	is.NoErr(r.Add(ctx, "1", types.Sample{Timestamp: now.AddDate(0, 0, -40)}))
	is.NoErr(r.Add(ctx, "1", types.Sample{Timestamp: now.AddDate(0, 0, -31)}))
	is.NoErr(r.Add(ctx, "1", types.Sample{Timestamp: now.AddDate(0, 0, -1)}))

	n, err := r.Prune(ctx, now.AddDate(0, 0, -30))
	is.NoErr(err)
	is.Equal(n, int64(2))

	samples, err := r.FetchEnvironmentData(ctx, "1")
	is.NoErr(err)
	is.Equal(len(samples), 1)
}

func testSetup(t *testing.T) (*is.I, context.Context, SampleRepository) {
	is := is.New(t)
	ctx := context.Background()

	r, err := NewSampleRepository(NewSQLiteConnector(ctx))
	is.NoErr(err)

	return is, ctx, r
}

func TestLoadConfigFromEnv(t *testing.T) {
	is := is.New(t)
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "monitor")

	cfg := LoadConfigFromEnv(zerolog.Nop())
	is.Equal(cfg.Host, "db")
	is.Equal(cfg.Username, "monitor")
	is.Equal(cfg.Port, "5432")
	is.Equal(cfg.DbName, "diwise")
	is.Equal(cfg.SslMode, "disable")
}

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

var ErrNotFound = errors.New("not found")

type RoomMonitorClient interface {
	GetRooms(ctx context.Context, floor string) ([]types.Room, error)
	GetRoom(ctx context.Context, roomID string) (types.Room, error)
	GetSamples(ctx context.Context, roomID, timeRange string) ([]types.Sample, error)
	GetAverages(ctx context.Context, roomID, timeRange string) (types.Averages, error)
	GetAlerts(ctx context.Context) ([]types.Alert, error)
}

type roomMonitorClient struct {
	url        string
	httpClient http.Client
}

var tracer = otel.Tracer("room-monitor-client")

func New(roomMonitorURL string) RoomMonitorClient {
	return &roomMonitorClient{
		url: strings.TrimSuffix(roomMonitorURL, "/"),
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// GetRooms returns the rooms on the given floor, or every room when floor is
// empty or "all".
func (c *roomMonitorClient) GetRooms(ctx context.Context, floor string) ([]types.Room, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-rooms")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	var params url.Values
	if floor != "" {
		params = url.Values{"floor": []string{floor}}
	}

	rooms := []types.Room{}
	err = c.get(ctx, "/api/v0/rooms", params, &rooms)

	return rooms, err
}

func (c *roomMonitorClient) GetRoom(ctx context.Context, roomID string) (types.Room, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-room")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	room := types.Room{}
	err = c.get(ctx, "/api/v0/rooms/"+url.PathEscape(roomID), nil, &room)

	return room, err
}

func (c *roomMonitorClient) GetSamples(ctx context.Context, roomID, timeRange string) ([]types.Sample, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-samples")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	samples := []types.Sample{}
	err = c.get(ctx, "/api/v0/rooms/"+url.PathEscape(roomID)+"/samples", rangeParams(timeRange), &samples)

	return samples, err
}

func (c *roomMonitorClient) GetAverages(ctx context.Context, roomID, timeRange string) (types.Averages, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-averages")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	avg := types.Averages{}
	err = c.get(ctx, "/api/v0/rooms/"+url.PathEscape(roomID)+"/averages", rangeParams(timeRange), &avg)

	return avg, err
}

func (c *roomMonitorClient) GetAlerts(ctx context.Context) ([]types.Alert, error) {
	var err error
	ctx, span := tracer.Start(ctx, "get-alerts")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	alerts := []types.Alert{}
	err = c.get(ctx, "/api/v0/alerts", nil, &alerts)

	return alerts, err
}

func (c *roomMonitorClient) get(ctx context.Context, path string, params url.Values, data any) error {
	log := logging.GetLoggerFromContext(ctx)

	u := c.url + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to retrieve %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if resp.StatusCode != http.StatusOK {
		log.Error().Msgf("request to %s failed with status code %d", path, resp.StatusCode)
		return fmt.Errorf("request failed with status code %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	response := struct {
		Data json.RawMessage `json:"data"`
	}{}

	if err = json.Unmarshal(respBody, &response); err != nil {
		return fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	if err = json.Unmarshal(response.Data, data); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}

	return nil
}

func rangeParams(timeRange string) url.Values {
	if timeRange == "" {
		return nil
	}
	return url.Values{"range": []string{timeRange}}
}

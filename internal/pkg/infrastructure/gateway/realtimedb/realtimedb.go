package realtimedb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const rootCollection = "environment"

var tracer = otel.Tracer("iot-room-monitor/realtimedb")

type Config struct {
	URL     string
	Secret  string
	Timeout time.Duration
}

type client struct {
	baseURL    string
	secret     string
	httpClient http.Client
}

// New returns a gateway that reads rooms and samples from the REST interface of
// a hosted real-time database, below the "environment" root.
func New(cfg Config) gateway.Gateway {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &client{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		secret:  cfg.Secret,
		httpClient: http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

func (c *client) FetchRooms(ctx context.Context) ([]types.Room, error) {
	var err error
	ctx, span := tracer.Start(ctx, "fetch-rooms")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	params := url.Values{}
	params.Set("shallow", "true")

	body, err := c.get(ctx, rootCollection, params)
	if err != nil {
		return nil, err
	}

	if isNull(body) {
		return []types.Room{}, nil
	}

	keys := map[string]json.RawMessage{}
	err = json.Unmarshal(body, &keys)
	if err != nil {
		err = fmt.Errorf("failed to unmarshal room keys: %w", err)
		return nil, err
	}

	ids := lo.Keys(keys)
	slices.SortFunc(ids, compareKeys)

	return lo.Map(ids, func(id string, _ int) types.Room {
		return types.NewRoom(id)
	}), nil
}

func (c *client) FetchEnvironmentData(ctx context.Context, roomID string) ([]types.Sample, error) {
	var err error
	ctx, span := tracer.Start(ctx, "fetch-environment-data")
	span.SetAttributes(attribute.String("room_id", roomID))
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	log := logging.GetLoggerFromContext(ctx)

	body, err := c.get(ctx, rootCollection+"/"+url.PathEscape(roomID), nil)
	if err != nil {
		return nil, err
	}

	samples, skipped, err := decodeSamples(body)
	if err != nil {
		err = fmt.Errorf("failed to decode samples for room %s: %w", roomID, err)
		return nil, err
	}

	if skipped > 0 {
		log.Debug().Str("room_id", roomID).Msgf("skipped %d entries that were not samples", skipped)
	}

	return samples, nil
}

func (c *client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if params == nil {
		params = url.Values{}
	}
	if c.secret != "" {
		params.Set("auth", c.secret)
	}

	u := c.baseURL + "/" + path + ".json"
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request for %s failed with status code %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return body, nil
}

// decodeSamples accepts both object and array shaped collections. Object keys
// are visited in key order, which is chronological for generated push keys.
func decodeSamples(body []byte) ([]types.Sample, int, error) {
	samples := []types.Sample{}

	if isNull(body) {
		return samples, 0, nil
	}

	var entries []json.RawMessage

	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("[")) {
		err := json.Unmarshal(body, &entries)
		if err != nil {
			return nil, 0, err
		}
	} else {
		byKey := map[string]json.RawMessage{}
		err := json.Unmarshal(body, &byKey)
		if err != nil {
			return nil, 0, err
		}

		keys := lo.Keys(byKey)
		slices.SortFunc(keys, compareKeys)

		for _, k := range keys {
			entries = append(entries, byKey[k])
		}
	}

	skipped := 0

	for _, e := range entries {
		if !bytes.HasPrefix(bytes.TrimSpace(e), []byte("{")) {
			skipped++
			continue
		}

		s := types.Sample{}
		if err := json.Unmarshal(e, &s); err != nil {
			skipped++
			continue
		}

		samples = append(samples, s)
	}

	return samples, skipped, nil
}

// compareKeys orders integer-like keys numerically and before any other key,
// and other keys lexicographically.
func compareKeys(a, b string) int {
	ai, aErr := strconv.ParseUint(a, 10, 64)
	bi, bErr := strconv.ParseUint(b, 10, 64)

	switch {
	case aErr == nil && bErr == nil:
		if ai < bi {
			return -1
		} else if ai > bi {
			return 1
		}
		return 0
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	}

	return strings.Compare(a, b)
}

func isNull(body []byte) bool {
	trimmed := bytes.TrimSpace(body)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

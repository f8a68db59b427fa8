package gateway

import (
	"context"
	"errors"

	"github.com/diwise/iot-room-monitor/pkg/types"
)

var ErrReadOnly = errors.New("gateway does not accept samples")

//go:generate moq -rm -out gateway_mock.go . Gateway

// Gateway is the source of truth for rooms and their samples. A missing root or
// an unknown room yields an empty result, errors are reserved for transport failures.
type Gateway interface {
	FetchRooms(ctx context.Context) ([]types.Room, error)
	FetchEnvironmentData(ctx context.Context, roomID string) ([]types.Sample, error)
}

//go:generate moq -rm -out writer_mock.go . Writer

type Writer interface {
	Add(ctx context.Context, roomID string, sample types.Sample) error
}

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("iot-room-monitor/database")

type Sample struct {
	ID          uint      `gorm:"primarykey"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	Key         string    `gorm:"uniqueIndex"`
	RoomID      string    `gorm:"index;not null"`
	Timestamp   time.Time `gorm:"column:observed_at;index"`
	CO2         float64   `gorm:"column:co2"`
	Temperature float64
	Humidity    float64
}

type SampleRepository interface {
	gateway.Gateway
	gateway.Writer
	Prune(ctx context.Context, before time.Time) (int64, error)
}

type sampleRepository struct {
	db *gorm.DB
}

func NewSampleRepository(connect ConnectorFunc) (SampleRepository, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Sample{})
	if err != nil {
		return nil, err
	}

	return &sampleRepository{
		db: impl,
	}, nil
}

func (r *sampleRepository) FetchRooms(ctx context.Context) ([]types.Room, error) {
	var err error
	ctx, span := tracer.Start(ctx, "fetch-rooms")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	ids := []string{}

	err = r.db.WithContext(ctx).
		Model(&Sample{}).
		Distinct().
		Order("room_id").
		Pluck("room_id", &ids).
		Error
	if err != nil {
		err = fmt.Errorf("could not query rooms: %w", err)
		return nil, err
	}

	return lo.Map(ids, func(id string, _ int) types.Room {
		return types.NewRoom(id)
	}), nil
}

func (r *sampleRepository) FetchEnvironmentData(ctx context.Context, roomID string) ([]types.Sample, error) {
	var err error
	ctx, span := tracer.Start(ctx, "fetch-environment-data")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	rows := []Sample{}

	err = r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("observed_at asc").
		Order("id asc").
		Find(&rows).
		Error
	if err != nil {
		err = fmt.Errorf("could not query samples for room %s: %w", roomID, err)
		return nil, err
	}

	return lo.Map(rows, func(row Sample, _ int) types.Sample {
		return types.Sample{
			Timestamp:   row.Timestamp.UTC(),
			CO2:         row.CO2,
			Temperature: row.Temperature,
			Humidity:    row.Humidity,
		}
	}), nil
}

func (r *sampleRepository) Add(ctx context.Context, roomID string, sample types.Sample) error {
	if roomID == "" {
		return fmt.Errorf("no room id is set on sample")
	}

	ts := sample.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	row := Sample{
		Key:         uuid.NewString(),
		RoomID:      roomID,
		Timestamp:   ts.UTC(),
		CO2:         sample.CO2,
		Temperature: sample.Temperature,
		Humidity:    sample.Humidity,
	}

	return r.db.WithContext(ctx).Create(&row).Error
}

// Prune removes samples older than before and returns how many were removed.
func (r *sampleRepository) Prune(ctx context.Context, before time.Time) (int64, error) {
	logger := logging.GetLoggerFromContext(ctx)

	result := r.db.WithContext(ctx).
		Where("observed_at < ?", before.UTC()).
		Delete(&Sample{})

	if result.Error != nil {
		return 0, result.Error
	}

	logger.Debug().Msgf("pruned %d samples older than %s", result.RowsAffected, before.Format(time.RFC3339))

	return result.RowsAffected, nil
}

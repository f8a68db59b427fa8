package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/application/evaluation"
	"github.com/diwise/iot-room-monitor/internal/pkg/application/export"
	"github.com/diwise/iot-room-monitor/internal/pkg/application/monitor"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("iot-room-monitor/api")

const allFloors string = "all"

// RegisterHandlers mounts the room monitor api on the router. Samples can only
// be posted when a writer is given, and the event stream is only served when
// an events handler is.
func RegisterHandlers(ctx context.Context, router *chi.Mux, mon monitor.Monitor, writer gateway.Writer, events http.Handler) *chi.Mux {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Handle("/metrics", promhttp.Handler())

	log := logging.GetLoggerFromContext(ctx)

	router.Route("/api/v0", func(r chi.Router) {
		r.Route("/rooms", func(r chi.Router) {
			r.Get("/", getRoomsHandler(log, mon))
			r.Get("/{roomID}", getRoomHandler(log, mon))
			r.Get("/{roomID}/samples", getSamplesHandler(log, mon))
			r.Post("/{roomID}/samples", addSampleHandler(log, writer))
			r.Get("/{roomID}/averages", getAveragesHandler(log, mon))
			r.Get("/{roomID}/export", exportHandler(log, mon))
		})

		r.Get("/alerts", getAlertsHandler(log, mon))

		if events != nil {
			r.Handle("/events", events)
		}
	})

	return router
}

func getRoomsHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-rooms")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		all := mon.Rooms()
		rooms := roomsOnFloor(all, r.URL.Query().Get("floor"))

		writeJSON(w, http.StatusOK, newCollectionResponse(rooms, len(all)))
	}
}

// roomsOnFloor keeps the rooms on the given floor. An empty floor or "all"
// keeps every room.
func roomsOnFloor(rooms []types.Room, floor string) []types.Room {
	if floor == "" || floor == allFloors {
		return rooms
	}

	return lo.Filter(rooms, func(r types.Room, _ int) bool {
		return r.Floor == types.Floor(floor)
	})
}

func getRoomHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-room")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, _, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		roomID := chi.URLParam(r, "roomID")

		room, err := mon.Room(roomID)
		if err != nil {
			requestLogger.Debug().Str("room_id", roomID).Msg("room not found")
			w.WriteHeader(http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, ApiResponse{Data: room})
	}
}

func getSamplesHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-samples")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		roomID := chi.URLParam(r, "roomID")

		rng, err := evaluation.ParseRange(r.URL.Query().Get("range"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("bad range")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		samples, err := mon.Samples(ctx, roomID)
		if err != nil {
			requestLogger.Error().Err(err).Str("room_id", roomID).Msg("could not fetch samples")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		windowed := evaluation.FilterWindow(samples, rng, time.Now())

		rangeName := string(rng)
		response := newCollectionResponse(windowed, len(samples))
		response.Meta.Range = &rangeName

		writeJSON(w, http.StatusOK, response)
	}
}

func getAveragesHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "get-averages")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		roomID := chi.URLParam(r, "roomID")

		rng, err := evaluation.ParseRange(r.URL.Query().Get("range"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("bad range")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		samples, err := mon.Samples(ctx, roomID)
		if err != nil {
			requestLogger.Error().Err(err).Str("room_id", roomID).Msg("could not fetch samples")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		avg := evaluation.Average(evaluation.FilterWindow(samples, rng, time.Now()))

		writeJSON(w, http.StatusOK, ApiResponse{Data: avg})
	}
}

func exportHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "export-samples")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		roomID := chi.URLParam(r, "roomID")
		query := r.URL.Query()

		format, err := export.ParseFormat(query.Get("format"))
		if err != nil {
			requestLogger.Debug().Err(err).Msg("bad export format")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		samples, err := mon.Samples(ctx, roomID)
		if err != nil {
			requestLogger.Error().Err(err).Str("room_id", roomID).Msg("could not fetch samples")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		if query.Has("range") {
			var rng evaluation.Range
			rng, err = evaluation.ParseRange(query.Get("range"))
			if err != nil {
				requestLogger.Debug().Err(err).Msg("bad range")
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			samples = evaluation.FilterWindow(samples, rng, time.Now())
		} else {
			samples = slices.Clone(samples)
			evaluation.SortByTime(samples)
		}

		w.Header().Add("Content-Type", format.ContentType())
		w.Header().Add("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(roomID)))
		w.WriteHeader(http.StatusOK)

		err = export.Write(w, format, roomID, samples)
		if err != nil {
			requestLogger.Error().Err(err).Str("room_id", roomID).Msg("export failed")
		}
	}
}

func addSampleHandler(log zerolog.Logger, writer gateway.Writer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "add-sample")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()
		_, ctx, requestLogger := logging.AddTraceIDToLoggerAndStoreInContext(span, log, ctx)

		if writer == nil {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		roomID := chi.URLParam(r, "roomID")

		body, err := io.ReadAll(r.Body)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to read body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		var s types.Sample
		err = json.Unmarshal(body, &s)
		if err != nil {
			requestLogger.Error().Err(err).Msg("unable to unmarshal body")
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		if s.Timestamp.IsZero() {
			s.Timestamp = time.Now().UTC()
		}

		err = writer.Add(ctx, roomID, s)
		if errors.Is(err, gateway.ErrReadOnly) {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err != nil {
			requestLogger.Error().Err(err).Str("room_id", roomID).Msg("unable to store sample")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusCreated)
	}
}

func getAlertsHandler(log zerolog.Logger, mon monitor.Monitor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		_, span := tracer.Start(r.Context(), "get-alerts")
		defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

		alerts := mon.Alerts()

		writeJSON(w, http.StatusOK, newCollectionResponse(alerts, len(alerts)))
	}
}

func writeJSON(w http.ResponseWriter, status int, response ApiResponse) {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(response.Byte())
}

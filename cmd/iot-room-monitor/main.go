package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/application/monitor"
	"github.com/diwise/iot-room-monitor/internal/pkg/application/notifications"
	"github.com/diwise/iot-room-monitor/internal/pkg/application/webevents"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway/database"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway/realtimedb"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/ingest"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/router"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/tracing"
	"github.com/diwise/iot-room-monitor/internal/pkg/presentation/api"
	"github.com/diwise/messaging-golang/pkg/messaging"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	"github.com/go-chi/chi/v5"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

const serviceName string = "iot-room-monitor"

func main() {
	serviceVersion := version()

	ctx, logger := logging.NewLogger(context.Background(), serviceName, serviceVersion)
	ctx, flags := parseExternalConfig(ctx, defaultFlags())
	logger.Info().Msg("starting up ...")

	cleanup, err := tracing.Init(ctx, logger, serviceName, serviceVersion)
	exitIf(err, logger, "failed to init tracing")
	defer cleanup()

	cfg, err := loadAppConfig(flags[configurationFile])
	exitIf(err, logger, "could not load configuration file")

	err = cfg.resolve(flags)
	exitIf(err, logger, "invalid configuration")

	ctx, stop := signal.NotifyContext(ctx, unix.SIGINT, unix.SIGTERM)
	defer stop()

	svc, err := initialize(ctx, flags, cfg)
	exitIf(err, logger, "failed to initialize service")

	err = svc.start(ctx)
	exitIf(err, logger, "failed to start service")

	server := &http.Server{
		Addr:    net.JoinHostPort(flags[listenAddress], flags[servicePort]),
		Handler: svc.router,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info().Str("port", flags[servicePort]).Msg("starting to listen for connections")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("failed to start request router")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	server.Shutdown(shutdownCtx)
	svc.shutdown(shutdownCtx)
}

type service struct {
	router  *chi.Mux
	monitor monitor.Monitor

	mqttCfg   ingest.Config
	retention time.Duration
	repo      database.SampleRepository

	pruner     *cron.Cron
	subscriber *ingest.Subscriber
	messenger  messaging.MsgContext
	webEvents  webevents.WebEvents
}

func initialize(ctx context.Context, flags flagMap, cfg *appConfig) (*service, error) {
	log := logging.GetLoggerFromContext(ctx)

	svc := &service{
		mqttCfg: ingest.LoadConfiguration(serviceName, log),
	}

	var gw gateway.Gateway
	var writer gateway.Writer

	switch cfg.Gateway {
	case gatewayDatabase:
		connect := database.NewPostgreSQLConnector(ctx, database.LoadConfigFromEnv(log))
		if flags[devmode] == "true" {
			log.Warn().Msg("running in dev mode with an in-memory database")
			connect = database.NewSQLiteConnector(ctx)
		}

		repo, err := database.NewSampleRepository(connect)
		if err != nil {
			return nil, fmt.Errorf("could not create or connect to database: %w", err)
		}

		svc.repo = repo
		svc.retention, _ = cfg.retention()
		gw, writer = repo, repo
	default:
		if flags[realtimeDbURL] == "" {
			return nil, errors.New("REALTIMEDB_URL is required for the realtimedb gateway")
		}
		gw = realtimedb.New(realtimedb.Config{
			URL:    flags[realtimeDbURL],
			Secret: flags[realtimeDbSecret],
		})
	}

	notifier, err := notifications.New(&cfg.Config)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifier: %w", err)
	}
	svc.webEvents = webevents.New()
	notifiers := []monitor.Notifier{notifier, svc.webEvents}

	if env.GetVariableOrDefault(log, "RABBITMQ_HOST", "") != "" {
		svc.messenger, err = messaging.Initialize(messaging.LoadConfiguration(serviceName, log))
		if err != nil {
			return nil, fmt.Errorf("failed to init messenger: %w", err)
		}
		notifiers = append(notifiers, notifications.NewTopicNotifier(svc.messenger))
	}

	interval, _ := cfg.interval()
	svc.monitor = monitor.New(gw, monitor.Config{Interval: interval}, notifiers...)

	svc.router = router.New(serviceName)
	api.RegisterHandlers(ctx, svc.router, svc.monitor, writer, svc.webEvents)

	return svc, nil
}

func (svc *service) start(ctx context.Context) error {
	log := logging.GetLoggerFromContext(ctx)

	if err := svc.monitor.Start(ctx); err != nil {
		return err
	}

	if svc.repo == nil {
		if svc.mqttCfg.Enabled() {
			log.Warn().Msg("mqtt ingestion needs the database gateway, ignoring MQTT_HOST")
		}
		return nil
	}

	svc.pruner = cron.New()
	_, err := svc.pruner.AddFunc("@daily", func() {
		before := time.Now().Add(-svc.retention)
		n, err := svc.repo.Prune(ctx, before)
		if err != nil {
			log.Error().Err(err).Msg("failed to prune samples")
			return
		}
		log.Info().Int64("removed", n).Msgf("pruned samples older than %s", before.Format(time.RFC3339))
	})
	if err != nil {
		return err
	}
	svc.pruner.Start()

	if svc.mqttCfg.Enabled() {
		svc.subscriber, err = ingest.NewSubscriber(ctx, svc.mqttCfg, svc.repo)
		if err != nil {
			return err
		}
	}

	return nil
}

func (svc *service) shutdown(ctx context.Context) {
	svc.monitor.Stop(ctx)

	if svc.pruner != nil {
		svc.pruner.Stop()
	}
	if svc.subscriber != nil {
		svc.subscriber.Close()
	}
	if svc.messenger != nil {
		svc.messenger.Close()
	}

	svc.webEvents.Shutdown()
}

func parseExternalConfig(ctx context.Context, flags flagMap) (context.Context, flagMap) {
	// Allow environment variables to override certain defaults
	envOrDef := env.GetVariableOrDefault
	log := logging.GetLoggerFromContext(ctx)

	flags[listenAddress] = envOrDef(log, "LISTEN_ADDRESS", flags[listenAddress])
	flags[servicePort] = envOrDef(log, "SERVICE_PORT", flags[servicePort])
	flags[configurationFile] = envOrDef(log, "CONFIG_FILE", flags[configurationFile])

	flags[gatewayType] = envOrDef(log, "GATEWAY", flags[gatewayType])
	flags[realtimeDbURL] = envOrDef(log, "REALTIMEDB_URL", flags[realtimeDbURL])
	flags[realtimeDbSecret] = envOrDef(log, "REALTIMEDB_SECRET", flags[realtimeDbSecret])

	flags[refreshInterval] = envOrDef(log, "REFRESH_INTERVAL", flags[refreshInterval])
	flags[retention] = envOrDef(log, "RETENTION", flags[retention])

	apply := func(f flagType) func(string) error {
		return func(value string) error {
			flags[f] = value
			return nil
		}
	}

	// Allow command line arguments to override defaults and environment variables
	flag.Func("config", "room monitor configuration file", apply(configurationFile))
	flag.Func("gateway", "data gateway, realtimedb or database", apply(gatewayType))
	flag.Func("interval", "time between refreshes", apply(refreshInterval))
	flag.Func("devmode", "use an in-memory database", apply(devmode))
	flag.Parse()

	return ctx, flags
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Error().Err(err).Msg(msg)
		time.Sleep(2 * time.Second)
		os.Exit(1)
	}
}

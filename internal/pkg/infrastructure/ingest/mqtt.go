package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/gateway"
	"github.com/diwise/iot-room-monitor/internal/pkg/infrastructure/logging"
	"github.com/diwise/iot-room-monitor/pkg/types"
	"github.com/diwise/service-chassis/pkg/infrastructure/env"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

const DefaultTopic = "environment/+/samples"

const connectTimeout = 10 * time.Second

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	Topic    string
	ClientID string
}

// LoadConfiguration reads the broker settings from the environment. An empty
// Host means ingestion is disabled.
func LoadConfiguration(serviceName string, log zerolog.Logger) Config {
	return Config{
		Host:     env.GetVariableOrDefault(log, "MQTT_HOST", ""),
		Port:     env.GetVariableOrDefault(log, "MQTT_PORT", "1883"),
		User:     env.GetVariableOrDefault(log, "MQTT_USER", ""),
		Password: env.GetVariableOrDefault(log, "MQTT_PASSWORD", ""),
		Topic:    env.GetVariableOrDefault(log, "MQTT_TOPIC", DefaultTopic),
		ClientID: env.GetVariableOrDefault(log, "MQTT_CLIENT_ID", serviceName),
	}
}

func (c Config) Enabled() bool {
	return c.Host != ""
}

func (c Config) Broker() string {
	return fmt.Sprintf("tcp://%s:%s", c.Host, c.Port)
}

type Subscriber struct {
	client mqtt.Client
}

// NewSubscriber connects to the broker and writes every sample received on the
// configured topic. The subscription is renewed whenever the client reconnects.
func NewSubscriber(ctx context.Context, cfg Config, writer gateway.Writer) (*Subscriber, error) {
	log := logging.GetLoggerFromContext(ctx)

	handler := NewMessageHandler(ctx, writer)

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker())
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(c mqtt.Client, err error) {
		log.Warn().Err(err).Msg("lost connection to mqtt broker")
	})
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(cfg.Topic, 1, handler)
		if token.Wait() && token.Error() != nil {
			log.Error().Err(token.Error()).Msgf("failed to subscribe to %s", cfg.Topic)
			return
		}
		log.Info().Msgf("subscribed to %s", cfg.Topic)
	})

	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("timed out connecting to mqtt broker %s", cfg.Broker())
	}
	if token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker(), token.Error())
	}

	return &Subscriber{client: client}, nil
}

func (s *Subscriber) Close() {
	s.client.Disconnect(250)
}

// NewMessageHandler decodes a json sample and stores it for the room named by
// the second topic level. Samples without a date are stamped on arrival.
func NewMessageHandler(ctx context.Context, writer gateway.Writer) mqtt.MessageHandler {
	log := logging.GetLoggerFromContext(ctx)

	return func(c mqtt.Client, msg mqtt.Message) {
		roomID, ok := RoomIDFromTopic(msg.Topic())
		if !ok {
			log.Warn().Str("topic", msg.Topic()).Msg("ignoring message on unexpected topic")
			return
		}

		var s types.Sample
		if err := json.Unmarshal(msg.Payload(), &s); err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("unable to unmarshal sample")
			return
		}

		if s.Timestamp.IsZero() {
			s.Timestamp = time.Now().UTC()
		}

		storeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		err := writer.Add(storeCtx, roomID, s)
		if errors.Is(err, gateway.ErrReadOnly) {
			log.Warn().Msg("gateway is read only, dropping sample")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("room_id", roomID).Msg("failed to store sample")
			return
		}

		log.Debug().Str("room_id", roomID).Msg("sample stored")
	}
}

func RoomIDFromTopic(topic string) (string, bool) {
	levels := strings.Split(topic, "/")
	if len(levels) < 2 || levels[1] == "" {
		return "", false
	}
	return levels[1], true
}

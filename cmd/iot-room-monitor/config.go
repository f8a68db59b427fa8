package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/diwise/iot-room-monitor/internal/pkg/application/notifications"
	yaml "gopkg.in/yaml.v2"
)

type flagType int
type flagMap map[flagType]string

const (
	listenAddress flagType = iota
	servicePort
	configurationFile

	gatewayType
	realtimeDbURL
	realtimeDbSecret

	refreshInterval
	retention

	devmode
)

const (
	gatewayRealtimeDB = "realtimedb"
	gatewayDatabase   = "database"
)

type appConfig struct {
	RefreshInterval string `yaml:"refreshInterval"`
	Gateway         string `yaml:"gateway"`
	Retention       string `yaml:"retention"`

	notifications.Config `yaml:",inline"`
}

func defaultFlags() flagMap {
	return flagMap{
		listenAddress:     "0.0.0.0",
		servicePort:       "8080",
		configurationFile: "/opt/diwise/config/room-monitor.yaml",

		gatewayType:      "",
		realtimeDbURL:    "",
		realtimeDbSecret: "",

		refreshInterval: "",
		retention:       "",

		devmode: "false",
	}
}

// loadAppConfig reads the yaml configuration file. A missing file is not an
// error, the service then runs on flags and environment alone.
func loadAppConfig(path string) (*appConfig, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &appConfig{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return parseAppConfig(f)
}

func parseAppConfig(r io.Reader) (*appConfig, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	cfg := &appConfig{}
	if err = yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not parse configuration: %w", err)
	}

	return cfg, nil
}

// resolve lets non empty flags and environment variables win over the file.
func (cfg *appConfig) resolve(flags flagMap) error {
	if flags[gatewayType] != "" {
		cfg.Gateway = flags[gatewayType]
	}
	if cfg.Gateway == "" {
		cfg.Gateway = gatewayRealtimeDB
	}
	if cfg.Gateway != gatewayRealtimeDB && cfg.Gateway != gatewayDatabase {
		return fmt.Errorf("unknown gateway %q", cfg.Gateway)
	}

	if flags[refreshInterval] != "" {
		cfg.RefreshInterval = flags[refreshInterval]
	}
	if flags[retention] != "" {
		cfg.Retention = flags[retention]
	}
	if cfg.Retention == "" {
		cfg.Retention = "720h"
	}

	if _, err := cfg.interval(); err != nil {
		return err
	}
	if _, err := cfg.retention(); err != nil {
		return err
	}

	return nil
}

func (cfg *appConfig) interval() (time.Duration, error) {
	if cfg.RefreshInterval == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(cfg.RefreshInterval)
	if err != nil {
		return 0, fmt.Errorf("bad refresh interval %q: %w", cfg.RefreshInterval, err)
	}

	return d, nil
}

func (cfg *appConfig) retention() (time.Duration, error) {
	d, err := time.ParseDuration(cfg.Retention)
	if err != nil {
		return 0, fmt.Errorf("bad retention %q: %w", cfg.Retention, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("retention must be positive, got %s", cfg.Retention)
	}

	return d, nil
}

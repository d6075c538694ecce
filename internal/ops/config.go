// Package ops loads and validates the JSON runtime configuration shared
// by the command-line tools.
package ops

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"main/internal/client"
	"main/pkg/conn"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Gateway GatewayConfig `json:"gateway"`
	Store   StoreConfig   `json:"store"`
	Tape    TapeConfig    `json:"tape"`
}

// GatewayConfig locates the TWS/Gateway endpoint.
type GatewayConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	ClientID int64  `json:"clientId"`

	// Timeouts in seconds; zero picks the client defaults.
	DialTimeoutSec      int `json:"dialTimeoutSec"`
	HandshakeTimeoutSec int `json:"handshakeTimeoutSec"`
	RequestTimeoutSec   int `json:"requestTimeoutSec"`
	WatchIntervalSec    int `json:"watchIntervalSec"`
	EventQueueSize      int `json:"eventQueueSize"`
}

// StoreConfig describes the optional Postgres cache.
type StoreConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslMode"`
}

// TapeConfig describes optional wire-frame recording.
type TapeConfig struct {
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Client client.Config
	Store  *conn.Option
	Tape   TapeConfig
}

// Load reads a JSON config file and resolves it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}

	clientCfg, err := resolveGateway(cfg.Gateway)
	if err != nil {
		return Loaded{}, err
	}
	tape, err := resolveTape(cfg.Tape)
	if err != nil {
		return Loaded{}, err
	}

	loaded := Loaded{Client: clientCfg, Tape: tape}
	if cfg.Store.Enabled {
		loaded.Store = &conn.Option{
			Host:     cfg.Store.Host,
			Port:     cfg.Store.Port,
			User:     cfg.Store.User,
			Password: cfg.Store.Password,
			Database: cfg.Store.Database,
			SSLMode:  cfg.Store.SSLMode,
		}
	}
	return loaded, nil
}

func resolveGateway(cfg GatewayConfig) (client.Config, error) {
	if cfg.Host == "" {
		return client.Config{}, fmt.Errorf("gateway host is empty")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return client.Config{}, fmt.Errorf("gateway port out of range: %d", cfg.Port)
	}
	if cfg.ClientID < 0 {
		return client.Config{}, fmt.Errorf("gateway clientId must be >= 0")
	}
	return client.Config{
		Host:             cfg.Host,
		Port:             cfg.Port,
		ClientID:         cfg.ClientID,
		DialTimeout:      time.Duration(cfg.DialTimeoutSec) * time.Second,
		HandshakeTimeout: time.Duration(cfg.HandshakeTimeoutSec) * time.Second,
		RequestTimeout:   time.Duration(cfg.RequestTimeoutSec) * time.Second,
		WatchInterval:    time.Duration(cfg.WatchIntervalSec) * time.Second,
		EventQueueSize:   cfg.EventQueueSize,
	}, nil
}

func resolveTape(cfg TapeConfig) (TapeConfig, error) {
	if cfg.Enabled && cfg.Dir == "" {
		return TapeConfig{}, fmt.Errorf("tape dir is empty")
	}
	return cfg, nil
}

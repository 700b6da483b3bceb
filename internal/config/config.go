// Package config loads pilot settings from the environment. A .env file in
// the working directory is read first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/session"
	"github.com/stobo-app/pilot/internal/transport"
)

const Prefix = "PILOT"

// Config validation errors
var (
	ErrEmptyDataPath       = errors.New("data_path cannot be empty")
	ErrEmptyServiceType    = errors.New("service_type cannot be empty")
	ErrInvalidLogLevel     = errors.New("log_level must be debug, info, warn, or error")
	ErrInvalidReconnect    = errors.New("reconnect_attempts must be -1 or more")
	ErrInvalidSendQueue    = errors.New("send_queue_size must be positive")
	ErrInvalidTimeout      = errors.New("dial_timeout and flush_timeout must be positive")
	ErrInvalidRestartDelay = errors.New("restart_delay cannot be negative")
	ErrInvalidBrowseWindow = errors.New("browse_window must be positive")
)

type Config struct {
	AppName string `envconfig:"APP_NAME" default:"Storyboard"`
	// DeviceID overrides the id kept in the database.
	DeviceID string `envconfig:"DEVICE_ID"`
	DataPath string `envconfig:"DATA_PATH" default:"pilot.sqlite3"`

	ServiceType string `envconfig:"SERVICE_TYPE" default:"_storyboard._tcp"`
	Domain      string `envconfig:"DOMAIN" default:"local."`
	ListenAddr  string `envconfig:"LISTEN_ADDR" default:":0"`
	// BrowseWindow is how long each mDNS resolver runs before it is replaced.
	BrowseWindow time.Duration `envconfig:"BROWSE_WINDOW" default:"3s"`
	// RegistrationCheck of zero or less turns off self lookups.
	RegistrationCheck time.Duration `envconfig:"REGISTRATION_CHECK" default:"30s"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// MetricsAddr enables the /metrics endpoint when set.
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// ReconnectAttempts of -1 retries forever, 0 never retries.
	ReconnectAttempts int           `envconfig:"RECONNECT_ATTEMPTS" default:"10"`
	ReconnectBackoff  time.Duration `envconfig:"RECONNECT_BACKOFF" default:"200ms"`
	RestartDelay      time.Duration `envconfig:"RESTART_DELAY" default:"1s"`
	DialTimeout       time.Duration `envconfig:"DIAL_TIMEOUT" default:"10s"`
	FlushTimeout      time.Duration `envconfig:"FLUSH_TIMEOUT" default:"2s"`
	SendQueueSize     int           `envconfig:"SEND_QUEUE_SIZE" default:"64"`
}

func DefaultConfig() Config {
	return Config{
		AppName:           "Storyboard",
		DataPath:          "pilot.sqlite3",
		ServiceType:       transport.DefaultServiceType,
		Domain:            transport.DefaultDomain,
		ListenAddr:        ":0",
		BrowseWindow:      3 * time.Second,
		RegistrationCheck: 30 * time.Second,
		LogLevel:          "info",
		ReconnectAttempts: 10,
		ReconnectBackoff:  200 * time.Millisecond,
		RestartDelay:      time.Second,
		DialTimeout:       10 * time.Second,
		FlushTimeout:      2 * time.Second,
		SendQueueSize:     64,
	}
}

// Load reads envFiles (".env" when none are given, skipped if missing) and
// then the PILOT_* environment. Variables already set win over the files.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("processing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DataPath == "" {
		return ErrEmptyDataPath
	}
	if c.ServiceType == "" {
		return ErrEmptyServiceType
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return ErrInvalidLogLevel
	}
	if c.ReconnectAttempts < peer.Unlimited {
		return ErrInvalidReconnect
	}
	if c.SendQueueSize <= 0 {
		return ErrInvalidSendQueue
	}
	if c.DialTimeout <= 0 || c.FlushTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RestartDelay < 0 {
		return ErrInvalidRestartDelay
	}
	if c.BrowseWindow <= 0 {
		return ErrInvalidBrowseWindow
	}
	if c.AppName != "" {
		if err := peer.ValidateAppName(c.AppName); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) Transport() transport.Config {
	check := c.RegistrationCheck
	if check <= 0 {
		check = -1
	}
	return transport.Config{
		ListenAddr:        c.ListenAddr,
		ConnectTimeout:    c.DialTimeout,
		BrowseWindow:      c.BrowseWindow,
		RegistrationCheck: check,
	}
}

func (c *Config) Peer(log *logrus.Logger) peer.Options {
	return peer.Options{
		Logger: log,
		Reconnect: peer.ReconnectPolicy{
			MaxAttempts: c.ReconnectAttempts,
			Backoff:     c.ReconnectBackoff,
		},
		SendQueueSize: c.SendQueueSize,
		DialTimeout:   c.DialTimeout,
		FlushTimeout:  c.FlushTimeout,
	}
}

// Session assembles the manager configuration for network and deviceID.
func (c *Config) Session(network transport.Network, deviceID string, log *logrus.Logger) session.Config {
	return session.Config{
		Network:      network,
		DeviceID:     deviceID,
		Logger:       log,
		ServiceType:  c.ServiceType,
		Domain:       c.Domain,
		RestartDelay: c.RestartDelay,
		Connection:   c.Peer(log),
	}
}

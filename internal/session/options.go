package session

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/transport"
)

var (
	ErrNoNetwork      = errors.New("network is required")
	ErrNoDeviceID     = errors.New("device id is required")
	ErrNotDiscovering = errors.New("connect is only valid while discovering")
	ErrNotRunning     = errors.New("session manager is not running")
	ErrNoConnection   = errors.New("no active connection")
)

type Config struct {
	Network  transport.Network
	DeviceID string
	Logger   *logrus.Logger

	ServiceType  string
	Domain       string
	RestartDelay time.Duration
	Connection   peer.Options
}

func (c Config) validate() error {
	if c.Network == nil {
		return ErrNoNetwork
	}
	if c.DeviceID == "" {
		return ErrNoDeviceID
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.ServiceType == "" {
		c.ServiceType = transport.DefaultServiceType
	}
	if c.Domain == "" {
		c.Domain = transport.DefaultDomain
	}
	if c.Connection.Logger == nil {
		c.Connection.Logger = c.Logger
	}
	return c
}

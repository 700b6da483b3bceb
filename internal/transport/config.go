package transport

import "time"

type Config struct {
	// ListenAddr is handed to net.Listen; the port is normally 0.
	ListenAddr     string
	ConnectTimeout time.Duration
	KeepAlive      time.Duration
	// BrowseWindow is how long each resolver runs before a fresh one
	// replaces it.
	BrowseWindow time.Duration
	// RegistrationCheck is the interval between lookups of our own
	// advertisement. Negative disables the check.
	RegistrationCheck time.Duration
}

func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":0",
		ConnectTimeout:    10 * time.Second,
		KeepAlive:         10 * time.Second,
		BrowseWindow:      3 * time.Second,
		RegistrationCheck: 30 * time.Second,
	}
}

func (c *Config) setDefaults() {
	def := DefaultConfig()
	if c.ListenAddr == "" {
		c.ListenAddr = def.ListenAddr
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.KeepAlive == 0 {
		c.KeepAlive = def.KeepAlive
	}
	if c.BrowseWindow <= 0 {
		c.BrowseWindow = def.BrowseWindow
	}
	if c.RegistrationCheck == 0 {
		c.RegistrationCheck = def.RegistrationCheck
	}
}

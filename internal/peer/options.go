package peer

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/protocol"
)

// Unlimited disables the reconnect cap.
const Unlimited = -1

// ReconnectPolicy bounds automatic reconnects after a transient abort. The
// n-th consecutive attempt waits n*Backoff. The count resets once the
// connection is ready again.
type ReconnectPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

func DefaultReconnectPolicy() ReconnectPolicy {
	return ReconnectPolicy{MaxAttempts: 10, Backoff: 200 * time.Millisecond}
}

func (p ReconnectPolicy) allows(attempt int) bool {
	return p.MaxAttempts == Unlimited || attempt <= p.MaxAttempts
}

func (p ReconnectPolicy) delay(attempt int) time.Duration {
	if p.Backoff <= 0 {
		return 0
	}
	return time.Duration(attempt) * p.Backoff
}

type Options struct {
	Logger *logrus.Logger
	Codec  *protocol.Codec

	// Reconnect defaults to DefaultReconnectPolicy when left zero.
	Reconnect     ReconnectPolicy
	SendQueueSize int
	DialTimeout   time.Duration
	// FlushTimeout bounds how long Cancel waits for queued frames.
	FlushTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		Reconnect:     DefaultReconnectPolicy(),
		SendQueueSize: 64,
		DialTimeout:   10 * time.Second,
		FlushTimeout:  2 * time.Second,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.Codec == nil {
		o.Codec = protocol.NewCodec()
	}
	if o.Reconnect == (ReconnectPolicy{}) {
		o.Reconnect = def.Reconnect
	}
	if o.SendQueueSize <= 0 {
		o.SendQueueSize = def.SendQueueSize
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = def.DialTimeout
	}
	if o.FlushTimeout <= 0 {
		o.FlushTimeout = def.FlushTimeout
	}
	return o
}

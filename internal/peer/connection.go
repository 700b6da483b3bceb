package peer

import (
	"context"
	"errors"
	"fmt"

	"github.com/LukaGiorgadze/gonull"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/eventloop"
	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/transport"
)

var (
	ErrConnectionClosed   = errors.New("connection closed")
	ErrSendQueueFull      = errors.New("send queue full")
	ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
)

type Direction int

const (
	Inbound Direction = iota
	Outbound
)

func (d Direction) String() string {
	if d == Outbound {
		return "outbound"
	}
	return "inbound"
}

type State int

const (
	StateSetup State = iota
	StateReady
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Handler receives connection events on the control loop. Each connection
// delivers exactly one of ConnectionFailed or ConnectionLost.
type Handler interface {
	ConnectionReady(c *Connection)
	ConnectionFailed(c *Connection, err error)
	ConnectionLost(c *Connection)
	ConnectionMessage(c *Connection, msg protocol.Message)
}

type pendingSend struct {
	msg  protocol.Message
	done func(error)
}

// Connection owns one stream to a peer. Its methods must be called on the
// control loop.
type Connection struct {
	loop      eventloop.Poster
	network   transport.Network
	handler   Handler
	opts      Options
	log       *logrus.Entry
	direction Direction
	remote    gonull.Nullable[transport.Endpoint]

	state      State
	gen        uint64
	link       *link
	pending    []pendingSend
	attempts   int
	cancelDial context.CancelFunc
	stopRetry  func() bool
}

// Dial opens an outbound connection to ep. Ready or a terminal event
// follows on the loop.
func Dial(loop eventloop.Poster, network transport.Network, ep transport.Endpoint, h Handler, opts Options) *Connection {
	c := newConnection(loop, h, opts, Outbound)
	c.network = network
	c.remote = gonull.NewNullable(ep)
	c.log = c.log.WithField("remote", ep.Label)
	c.open()
	return c
}

// Accept wraps an inbound stream. The connection turns ready on the next
// loop iteration.
func Accept(loop eventloop.Poster, stream transport.Stream, h Handler, opts Options) *Connection {
	c := newConnection(loop, h, opts, Inbound)
	if addr := stream.RemoteAddr(); addr != nil {
		c.log = c.log.WithField("remote", addr.String())
	}

	c.gen++
	gen := c.gen
	if !loop.Post(func() { c.accepted(gen, stream) }) {
		_ = stream.Close()
	}
	return c
}

func newConnection(loop eventloop.Poster, h Handler, opts Options, dir Direction) *Connection {
	opts = opts.withDefaults()
	return &Connection{
		loop:      loop,
		handler:   h,
		opts:      opts,
		direction: dir,
		log:       opts.Logger.WithFields(logrus.Fields{"component": "connection", "direction": dir.String()}),
	}
}

func (c *Connection) Direction() Direction { return c.direction }

// Remote is set for outbound connections only.
func (c *Connection) Remote() gonull.Nullable[transport.Endpoint] { return c.remote }

func (c *Connection) State() State { return c.state }

func (c *Connection) terminal() bool {
	return c.state == StateFailed || c.state == StateCancelled
}

// Send queues msg. done, if set, runs on the loop exactly once with the
// write result. Messages sent before the connection is ready are held until
// it is.
func (c *Connection) Send(msg protocol.Message, done func(error)) {
	switch {
	case c.terminal():
		c.complete(done, ErrConnectionClosed)
	case c.state == StateSetup:
		if len(c.pending) >= c.opts.SendQueueSize {
			c.complete(done, ErrSendQueueFull)
			return
		}
		c.pending = append(c.pending, pendingSend{msg: msg, done: done})
	default:
		c.link.send(msg, done)
	}
}

// Cancel closes the connection after a best effort flush of queued frames.
// ConnectionLost follows on the loop.
func (c *Connection) Cancel() {
	if c.terminal() {
		return
	}

	c.log.Debug("Cancelling connection")
	c.teardown()
	c.state = StateCancelled
	c.dropPending(ErrConnectionClosed)
	c.loop.Post(func() { c.handler.ConnectionLost(c) })
}

func (c *Connection) open() {
	c.gen++
	gen := c.gen
	ep := c.remote.Val

	ctx, cancel := context.WithTimeout(context.Background(), c.opts.DialTimeout)
	c.cancelDial = cancel

	go func() {
		stream, err := c.network.Dial(ctx, ep)
		cancel()
		if !c.loop.Post(func() { c.dialed(gen, stream, err) }) && stream != nil {
			_ = stream.Close()
		}
	}()
}

func (c *Connection) dialed(gen uint64, stream transport.Stream, err error) {
	if gen != c.gen || c.terminal() {
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	c.cancelDial = nil

	if err != nil {
		c.fail(gen, fmt.Errorf("dialing %s: %w", c.remote.Val, err))
		return
	}
	c.ready(stream)
}

func (c *Connection) accepted(gen uint64, stream transport.Stream) {
	if gen != c.gen || c.terminal() {
		_ = stream.Close()
		return
	}
	c.ready(stream)
}

func (c *Connection) ready(stream transport.Stream) {
	c.state = StateReady
	c.attempts = 0
	c.link = newLink(c, c.gen, stream)

	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		c.link.send(p.msg, p.done)
	}

	metrics.ConnectionsTotal.WithLabelValues(c.direction.String()).Inc()
	c.log.Info("Connection ready")
	c.handler.ConnectionReady(c)
}

func (c *Connection) received(gen uint64, msg protocol.Message) {
	if gen != c.gen || c.terminal() {
		return
	}
	c.handler.ConnectionMessage(c, msg)
}

func (c *Connection) closed(gen uint64) {
	if gen != c.gen || c.terminal() {
		return
	}

	c.log.Info("Peer closed connection")
	c.teardown()
	c.state = StateCancelled
	c.dropPending(ErrConnectionClosed)
	c.handler.ConnectionLost(c)
}

// fail applies the reconnect policy: only an outbound transient abort is
// retried, everything else is terminal.
func (c *Connection) fail(gen uint64, err error) {
	if gen != c.gen || c.terminal() {
		return
	}

	reason := "io"
	if c.state == StateSetup {
		reason = "dial"
	}
	c.teardown()

	if c.direction == Outbound && transport.IsTransientAbort(err) {
		attempt := c.attempts + 1
		if c.opts.Reconnect.allows(attempt) {
			c.attempts = attempt
			c.state = StateSetup
			metrics.ReconnectAttemptsTotal.Inc()

			delay := c.opts.Reconnect.delay(attempt)
			c.log.WithError(err).Warnf("Transient abort, reconnecting (attempt %d) in %s", attempt, delay)
			if delay == 0 {
				c.open()
				return
			}

			retryGen := c.gen
			c.stopRetry = c.loop.PostAfter(delay, func() {
				if retryGen == c.gen && !c.terminal() {
					c.stopRetry = nil
					c.open()
				}
			})
			return
		}

		reason = "reconnect_exhausted"
		err = fmt.Errorf("%w after %d attempts: %w", ErrReconnectExhausted, c.attempts, err)
	}

	if errors.Is(err, protocol.ErrFrameTooLarge) {
		reason = "protocol"
	}

	c.log.WithError(err).Error("Connection failed")
	metrics.ConnectionFailuresTotal.WithLabelValues(reason).Inc()
	c.state = StateFailed
	c.dropPending(ErrConnectionClosed)
	c.handler.ConnectionFailed(c, err)
}

// teardown releases the current stream or dial and invalidates callbacks
// that were posted for it.
func (c *Connection) teardown() {
	c.gen++
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.stopRetry != nil {
		c.stopRetry()
		c.stopRetry = nil
	}
	if c.link != nil {
		c.link.close(c.opts.FlushTimeout)
		c.link = nil
	}
}

func (c *Connection) dropPending(err error) {
	pending := c.pending
	c.pending = nil
	for _, p := range pending {
		c.complete(p.done, err)
	}
}

func (c *Connection) complete(done func(error), err error) {
	if done == nil {
		return
	}
	c.loop.Post(func() { done(err) })
}

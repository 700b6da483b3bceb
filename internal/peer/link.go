package peer

import (
	"errors"
	"sync"
	"time"

	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/transport"
)

type outFrame struct {
	data    []byte
	msgType protocol.MessageType
	done    func(error)
}

// link runs the reader and writer goroutines for one stream. Results are
// posted back to the connection tagged with gen.
type link struct {
	c      *Connection
	gen    uint64
	stream transport.Stream
	out    chan outFrame
	quit   chan struct{}
	once   sync.Once
}

func newLink(c *Connection, gen uint64, stream transport.Stream) *link {
	l := &link{
		c:      c,
		gen:    gen,
		stream: stream,
		out:    make(chan outFrame, c.opts.SendQueueSize),
		quit:   make(chan struct{}),
	}
	go l.readLoop()
	go l.writeLoop()
	return l
}

func (l *link) send(msg protocol.Message, done func(error)) {
	data, err := l.c.opts.Codec.EncodeToBytes(msg)
	if err != nil {
		l.c.complete(done, err)
		return
	}

	select {
	case l.out <- outFrame{data: data, msgType: msg.Type(), done: done}:
	default:
		l.c.complete(done, ErrSendQueueFull)
	}
}

// close stops the link. Frames already queued get until the flush deadline
// to be written, then the stream is closed.
func (l *link) close(flush time.Duration) {
	l.once.Do(func() {
		_ = l.stream.SetWriteDeadline(time.Now().Add(flush))
		close(l.quit)
	})
}

func (l *link) closing() bool {
	select {
	case <-l.quit:
		return true
	default:
		return false
	}
}

func (l *link) writeLoop() {
	for {
		select {
		case f := <-l.out:
			l.write(f)
		case <-l.quit:
			for {
				select {
				case f := <-l.out:
					l.write(f)
				default:
					_ = l.stream.Close()
					return
				}
			}
		}
	}
}

func (l *link) write(f outFrame) {
	_, err := l.stream.Write(f.data)
	if err == nil {
		metrics.MessagesSentTotal.WithLabelValues(f.msgType.String()).Inc()
	}
	l.c.complete(f.done, err)

	if err != nil && !l.closing() {
		gen := l.gen
		l.c.loop.Post(func() { l.c.fail(gen, err) })
	}
}

func (l *link) readLoop() {
	dec := protocol.NewFrameDecoder(l.c.opts.Codec)
	buf := make([]byte, protocol.ReadChunkSize)
	gen := l.gen

	for {
		n, err := l.stream.Read(buf)
		if n > 0 {
			dec.Feed(buf[:n])
			if !l.drain(dec) {
				return
			}
		}

		if err != nil {
			if l.closing() {
				return
			}
			if transport.IsClosed(err) {
				l.c.loop.Post(func() { l.c.closed(gen) })
			} else {
				l.c.loop.Post(func() { l.c.fail(gen, err) })
			}
			return
		}
	}
}

// drain dispatches every complete frame. It returns false when the stream
// can no longer be trusted.
func (l *link) drain(dec *protocol.FrameDecoder) bool {
	gen := l.gen

	for {
		msg, ok, err := dec.Next()
		if err != nil {
			var decodeErr *protocol.DecodeError
			if errors.As(err, &decodeErr) {
				metrics.DecodeErrorsTotal.Inc()
				l.c.log.WithError(err).Warn("Dropping undecodable message")
				continue
			}
			l.c.loop.Post(func() { l.c.fail(gen, err) })
			return false
		}
		if !ok {
			return true
		}

		metrics.MessagesReceivedTotal.WithLabelValues(msg.Type().String()).Inc()
		l.c.loop.Post(func() { l.c.received(gen, msg) })
	}
}

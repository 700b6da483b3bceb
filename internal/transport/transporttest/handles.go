package transporttest

import (
	"net"
	"sync"

	"github.com/stobo-app/pilot/internal/transport"
)

type Listener struct {
	net    *Network
	port   uint16
	accept chan *Stream
	done   chan struct{}
	once   sync.Once
}

func (l *Listener) Accept() (transport.Stream, error) {
	select {
	case s := <-l.accept:
		return s, nil
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.done)
		l.net.removeListener(l.port)
		for {
			select {
			case s := <-l.accept:
				_ = s.Close()
			default:
				return
			}
		}
	})
	return nil
}

func (l *Listener) Port() uint16 { return l.port }

func (l *Listener) deliver(s *Stream) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.accept <- s:
		return true
	case <-l.done:
		return false
	}
}

type Registration struct {
	net    *Network
	svc    transport.Service
	failed chan error
	once   sync.Once
}

func (r *Registration) Service() transport.Service { return r.svc }

func (r *Registration) Failed() <-chan error { return r.failed }

// Fail delivers an asynchronous registration fault.
func (r *Registration) Fail(err error) {
	select {
	case r.failed <- err:
	default:
	}
}

func (r *Registration) Close() error {
	r.once.Do(func() { r.net.removeRegistration(r) })
	return nil
}

type Browse struct {
	net         *Network
	serviceType string
	domain      string
	results     chan []transport.BrowseResult
	failed      chan error
	once        sync.Once
}

func (b *Browse) ServiceType() string { return b.serviceType }

func (b *Browse) Results() <-chan []transport.BrowseResult { return b.results }

func (b *Browse) Failed() <-chan error { return b.failed }

// Publish replaces the visible result set with set.
func (b *Browse) Publish(set []transport.BrowseResult) {
	b.replace(set)
}

func (b *Browse) Fail(err error) {
	select {
	case b.failed <- err:
	default:
	}
}

func (b *Browse) Close() error {
	b.once.Do(func() { b.net.removeBrowse(b) })
	return nil
}

func (b *Browse) replace(set []transport.BrowseResult) {
	select {
	case <-b.results:
	default:
	}
	select {
	case b.results <- set:
	default:
	}
}

// Stream is one end of an in-memory connection.
type Stream struct {
	net.Conn

	label    string
	peer     *Stream
	dialed   bool
	accepted bool

	mu     sync.Mutex
	closed bool
	broken error
}

func (s *Stream) Label() string { return s.label }

// Peer returns the other end of the connection.
func (s *Stream) Peer() *Stream { return s.peer }

func (s *Stream) Read(p []byte) (int, error) {
	n, err := s.Conn.Read(p)
	if err != nil {
		if b := s.brokenErr(); b != nil {
			return n, b
		}
	}
	return n, err
}

func (s *Stream) Write(p []byte) (int, error) {
	if b := s.brokenErr(); b != nil {
		return 0, b
	}
	n, err := s.Conn.Write(p)
	if err != nil {
		if b := s.brokenErr(); b != nil {
			return n, b
		}
	}
	return n, err
}

// Break fails the stream with err: pending and future reads and writes on
// this end return it and the peer sees the connection close.
func (s *Stream) Break(err error) {
	s.mu.Lock()
	s.broken = err
	s.mu.Unlock()
	_ = s.Conn.Close()
}

func (s *Stream) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return s.Conn.Close()
}

func (s *Stream) IsClosed() bool { return s.isClosed() }

func (s *Stream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Stream) brokenErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.broken
}

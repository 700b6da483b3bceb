package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"
)

const (
	DefaultServiceType = "_storyboard._tcp"
	DefaultDomain      = "local."
)

// Stream is a reliable ordered byte stream. *net.TCPConn satisfies it.
type Stream interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetWriteDeadline(t time.Time) error
	RemoteAddr() net.Addr
}

type Listener interface {
	Accept() (Stream, error)
	Close() error
	Port() uint16
}

// Endpoint is where an advertised service can be reached.
type Endpoint struct {
	Label string
	Host  string
	Addrs []netip.Addr
	Port  uint16
}

func (e Endpoint) String() string {
	if len(e.Addrs) > 0 {
		return netip.AddrPortFrom(e.Addrs[0], e.Port).String()
	}
	if e.Host != "" {
		return net.JoinHostPort(e.Host, strconv.Itoa(int(e.Port)))
	}
	return fmt.Sprintf("%s:%d", e.Label, e.Port)
}

// AddrPorts returns one dial target per known address.
func (e Endpoint) AddrPorts() []netip.AddrPort {
	out := make([]netip.AddrPort, 0, len(e.Addrs))
	for _, a := range e.Addrs {
		out = append(out, netip.AddrPortFrom(a, e.Port))
	}
	return out
}

type Service struct {
	Instance string
	Type     string
	Domain   string
	Port     uint16
	Text     []string
}

// Registration is a published service. Failed delivers asynchronous
// registration faults; it is never closed.
type Registration interface {
	Failed() <-chan error
	Close() error
}

type BrowseResult struct {
	Instance    string
	ServiceType string
	Domain      string
	Endpoint    Endpoint
}

// BrowseSession delivers the complete set of visible services on every
// change. A new set replaces the previous one.
type BrowseSession interface {
	Results() <-chan []BrowseResult
	Failed() <-chan error
	Close() error
}

type Network interface {
	Listen(ctx context.Context) (Listener, error)
	Dial(ctx context.Context, ep Endpoint) (Stream, error)
	Advertise(ctx context.Context, svc Service) (Registration, error)
	Browse(ctx context.Context, serviceType, domain string) (BrowseSession, error)
}

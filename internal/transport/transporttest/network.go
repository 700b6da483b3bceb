// Package transporttest provides an in-memory transport.Network for tests.
// Every handle it hands out is counted while open so tests can assert that
// nothing leaks across mode changes.
package transporttest

import (
	"context"
	"fmt"
	"net"
	"sort"
	"sync"
	"syscall"

	"github.com/stobo-app/pilot/internal/transport"
)

const firstPort = 40000

type Network struct {
	mu sync.Mutex

	nextPort  uint16
	listeners map[uint16]*Listener
	services  map[string]*Registration
	browses   []*Browse
	streams   []*Stream
	dials     []transport.Endpoint

	failDial      []error
	failAdvertise []error
	failBrowse    []error
}

var _ transport.Network = (*Network)(nil)

func NewNetwork() *Network {
	return &Network{
		nextPort:  firstPort,
		listeners: make(map[uint16]*Listener),
		services:  make(map[string]*Registration),
	}
}

// FailNextDial makes the next Dial return err without connecting.
func (n *Network) FailNextDial(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failDial = append(n.failDial, err)
}

func (n *Network) FailNextAdvertise(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failAdvertise = append(n.failAdvertise, err)
}

func (n *Network) FailNextBrowse(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failBrowse = append(n.failBrowse, err)
}

func (n *Network) Listen(_ context.Context) (transport.Listener, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	port := n.nextPort
	n.nextPort++

	l := &Listener{
		net:    n,
		port:   port,
		accept: make(chan *Stream, 16),
		done:   make(chan struct{}),
	}
	n.listeners[port] = l
	return l, nil
}

func (n *Network) Dial(ctx context.Context, ep transport.Endpoint) (transport.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.dials = append(n.dials, ep)
	if len(n.failDial) > 0 {
		err := n.failDial[0]
		n.failDial = n.failDial[1:]
		n.mu.Unlock()
		return nil, err
	}
	l, ok := n.listeners[ep.Port]
	n.mu.Unlock()

	if !ok {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}

	local, remote := n.pipe(ep.Label, true)
	if !l.deliver(remote) {
		_ = local.Close()
		_ = remote.Close()
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}
	}
	return local, nil
}

// Connect opens a stream to the listener on port as a remote peer would and
// returns the remote end.
func (n *Network) Connect(port uint16) (*Stream, error) {
	n.mu.Lock()
	l, ok := n.listeners[port]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no listener on port %d", port)
	}

	remote, local := n.pipe(fmt.Sprintf("remote:%d", port), false)
	if !l.deliver(local) {
		_ = local.Close()
		_ = remote.Close()
		return nil, fmt.Errorf("listener on port %d closed", port)
	}
	return remote, nil
}

func (n *Network) Advertise(_ context.Context, svc transport.Service) (transport.Registration, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.failAdvertise) > 0 {
		err := n.failAdvertise[0]
		n.failAdvertise = n.failAdvertise[1:]
		return nil, err
	}

	r := &Registration{net: n, svc: svc, failed: make(chan error, 1)}
	n.services[svc.Instance] = r
	n.publishLocked()
	return r, nil
}

func (n *Network) Browse(_ context.Context, serviceType, domain string) (transport.BrowseSession, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if len(n.failBrowse) > 0 {
		err := n.failBrowse[0]
		n.failBrowse = n.failBrowse[1:]
		return nil, err
	}

	b := &Browse{
		net:         n,
		serviceType: serviceType,
		domain:      domain,
		results:     make(chan []transport.BrowseResult, 1),
		failed:      make(chan error, 1),
	}
	n.browses = append(n.browses, b)
	b.replace(n.visibleLocked(serviceType))
	return b, nil
}

// Dials returns every endpoint passed to Dial, including failed attempts.
func (n *Network) Dials() []transport.Endpoint {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]transport.Endpoint(nil), n.dials...)
}

// Streams returns every stream end created so far, open or not.
func (n *Network) Streams() []*Stream {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Stream(nil), n.streams...)
}

// DialedStreams returns the local ends handed out by Dial.
func (n *Network) DialedStreams() []*Stream {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*Stream
	for _, s := range n.streams {
		if s.dialed {
			out = append(out, s)
		}
	}
	return out
}

// AcceptedStreams returns the ends delivered to listeners.
func (n *Network) AcceptedStreams() []*Stream {
	n.mu.Lock()
	defer n.mu.Unlock()

	var out []*Stream
	for _, s := range n.streams {
		if s.accepted {
			out = append(out, s)
		}
	}
	return out
}

// Registrations returns the open registrations ordered by instance name.
func (n *Network) Registrations() []*Registration {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]*Registration, 0, len(n.services))
	for _, r := range n.services {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].svc.Instance < out[j].svc.Instance })
	return out
}

// Browses returns the open browse sessions in creation order.
func (n *Network) Browses() []*Browse {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]*Browse(nil), n.browses...)
}

func (n *Network) LiveListeners() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.listeners)
}

func (n *Network) LiveRegistrations() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.services)
}

func (n *Network) LiveBrowses() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.browses)
}

func (n *Network) LiveStreams() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	count := 0
	for _, s := range n.streams {
		if !s.isClosed() {
			count++
		}
	}
	return count
}

// Live is the total number of open handles of every kind.
func (n *Network) Live() int {
	return n.LiveListeners() + n.LiveRegistrations() + n.LiveBrowses() + n.LiveStreams()
}

// pipe returns the client end and the end a listener will accept.
func (n *Network) pipe(label string, dialed bool) (*Stream, *Stream) {
	a, b := net.Pipe()
	client := &Stream{Conn: a, label: label, dialed: dialed}
	server := &Stream{Conn: b, label: label, accepted: true}
	client.peer = server
	server.peer = client

	n.mu.Lock()
	n.streams = append(n.streams, client, server)
	n.mu.Unlock()
	return client, server
}

func (n *Network) visibleLocked(serviceType string) []transport.BrowseResult {
	out := make([]transport.BrowseResult, 0, len(n.services))
	for _, r := range n.services {
		if r.svc.Type != serviceType {
			continue
		}
		out = append(out, transport.BrowseResult{
			Instance:    r.svc.Instance,
			ServiceType: r.svc.Type,
			Domain:      r.svc.Domain,
			Endpoint:    transport.Endpoint{Label: r.svc.Instance, Host: "fake.local", Port: r.svc.Port},
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instance < out[j].Instance })
	return out
}

func (n *Network) publishLocked() {
	for _, b := range n.browses {
		b.replace(n.visibleLocked(b.serviceType))
	}
}

func (n *Network) removeListener(port uint16) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.listeners, port)
}

func (n *Network) removeRegistration(r *Registration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.services[r.svc.Instance] == r {
		delete(n.services, r.svc.Instance)
		n.publishLocked()
	}
}

func (n *Network) removeBrowse(b *Browse) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, x := range n.browses {
		if x == b {
			n.browses = append(n.browses[:i], n.browses[i+1:]...)
			return
		}
	}
}

package advertiser

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/eventloop"
	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/transport"
)

// Owner holds the single active connection. Its methods run on the loop.
type Owner interface {
	peer.Handler
	ActiveConnection() *peer.Connection
	InstallConnection(c *peer.Connection)
	AdvertiserFailed(err error)
}

type Options struct {
	Logger       *logrus.Logger
	ServiceType  string
	Domain       string
	RestartDelay time.Duration
	Connection   peer.Options
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logrus.StandardLogger()
	}
	if o.ServiceType == "" {
		o.ServiceType = transport.DefaultServiceType
	}
	if o.Domain == "" {
		o.Domain = transport.DefaultDomain
	}
	if o.RestartDelay <= 0 {
		o.RestartDelay = time.Second
	}
	if o.Connection.Logger == nil {
		o.Connection.Logger = o.Logger
	}
	return o
}

// Advertiser publishes a label and hands the first inbound stream to its
// owner. It must be used from the control loop.
type Advertiser struct {
	loop    eventloop.Poster
	network transport.Network
	owner   Owner
	opts    Options
	log     *logrus.Entry

	label   string
	running bool
	gen     uint64

	ln          transport.Listener
	reg         transport.Registration
	cancel      context.CancelFunc
	stopRestart func() bool
}

func New(loop eventloop.Poster, network transport.Network, owner Owner, opts Options) *Advertiser {
	opts = opts.withDefaults()
	return &Advertiser{
		loop:    loop,
		network: network,
		owner:   owner,
		opts:    opts,
		log:     opts.Logger.WithField("component", "advertiser"),
	}
}

func (a *Advertiser) Label() string { return a.label }

func (a *Advertiser) Running() bool { return a.running }

// Port is the listening port, or 0 while not published.
func (a *Advertiser) Port() uint16 {
	if a.ln == nil {
		return 0
	}
	return a.ln.Port()
}

func (a *Advertiser) Start(label string) {
	a.teardown()
	a.label = label
	a.running = true
	a.log = a.opts.Logger.WithFields(logrus.Fields{"component": "advertiser", "label": label})
	a.startInstance()
}

// Stop withdraws the advertisement and closes the listener. The active
// connection, if any, is left to its owner.
func (a *Advertiser) Stop() {
	if !a.running {
		return
	}
	a.running = false
	a.teardown()
	a.log.Info("Advertising stopped")
}

func (a *Advertiser) startInstance() {
	a.gen++
	gen := a.gen
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	svc := transport.Service{
		Instance: a.label,
		Type:     a.opts.ServiceType,
		Domain:   a.opts.Domain,
	}

	go func() {
		ln, err := a.network.Listen(ctx)
		if err != nil {
			a.loop.Post(func() { a.failed(gen, err) })
			return
		}

		svc.Port = ln.Port()
		reg, err := a.network.Advertise(ctx, svc)
		if err != nil {
			_ = ln.Close()
			a.loop.Post(func() { a.failed(gen, err) })
			return
		}

		if !a.loop.Post(func() { a.started(ctx, gen, ln, reg) }) {
			_ = reg.Close()
			_ = ln.Close()
		}
	}()
}

func (a *Advertiser) started(ctx context.Context, gen uint64, ln transport.Listener, reg transport.Registration) {
	if gen != a.gen || !a.running {
		_ = reg.Close()
		_ = ln.Close()
		return
	}

	a.ln = ln
	a.reg = reg
	a.log.Infof("Advertising on port %d", ln.Port())

	go a.acceptLoop(ctx, gen, ln)
	go a.watch(ctx, gen, reg)
}

func (a *Advertiser) acceptLoop(ctx context.Context, gen uint64, ln transport.Listener) {
	for {
		stream, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			a.loop.Post(func() { a.failed(gen, err) })
			return
		}

		if !a.loop.Post(func() { a.inbound(gen, stream) }) {
			_ = stream.Close()
		}
	}
}

func (a *Advertiser) watch(ctx context.Context, gen uint64, reg transport.Registration) {
	select {
	case err := <-reg.Failed():
		a.loop.Post(func() { a.failed(gen, err) })
	case <-ctx.Done():
	}
}

func (a *Advertiser) inbound(gen uint64, stream transport.Stream) {
	if gen != a.gen || !a.running {
		_ = stream.Close()
		return
	}

	if a.owner.ActiveConnection() != nil {
		a.log.Warnf("Rejecting inbound connection from %s, already connected", stream.RemoteAddr())
		metrics.InboundRejectedTotal.Inc()
		_ = stream.Close()
		return
	}

	a.log.Infof("Accepted inbound connection from %s", stream.RemoteAddr())
	c := peer.Accept(a.loop, stream, a.owner, a.opts.Connection)
	a.owner.InstallConnection(c)
}

func (a *Advertiser) failed(gen uint64, err error) {
	if gen != a.gen || !a.running {
		return
	}

	a.teardown()

	if transport.IsDefunct(err) {
		metrics.RestartsTotal.WithLabelValues("advertiser").Inc()
		a.log.WithError(err).Warnf("Advertisement defunct, restarting in %s", a.opts.RestartDelay)

		restartGen := a.gen
		a.stopRestart = a.loop.PostAfter(a.opts.RestartDelay, func() {
			if restartGen == a.gen && a.running {
				a.stopRestart = nil
				a.startInstance()
			}
		})
		return
	}

	a.log.WithError(err).Error("Advertising failed")
	a.running = false
	a.owner.AdvertiserFailed(err)
}

func (a *Advertiser) teardown() {
	a.gen++
	if a.stopRestart != nil {
		a.stopRestart()
		a.stopRestart = nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.reg != nil {
		_ = a.reg.Close()
		a.reg = nil
	}
	if a.ln != nil {
		_ = a.ln.Close()
		a.ln = nil
	}
}

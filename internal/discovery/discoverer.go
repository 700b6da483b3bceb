package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/eventloop"
	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/transport"
)

// Owner receives discovery events on the loop.
type Owner interface {
	PeersChanged(peers []peer.Identity)
	DiscovererFailed(err error)
}

type Options struct {
	Logger       *logrus.Logger
	ServiceType  string
	Domain       string
	RestartDelay time.Duration
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
	return o
}

// Discoverer browses for the service type and reports the full set of
// peers on every change. It must be used from the control loop.
type Discoverer struct {
	loop    eventloop.Poster
	network transport.Network
	owner   Owner
	opts    Options
	log     *logrus.Entry

	running bool
	gen     uint64
	peers   []peer.Identity

	session     transport.BrowseSession
	cancel      context.CancelFunc
	stopRestart func() bool
}

func New(loop eventloop.Poster, network transport.Network, owner Owner, opts Options) *Discoverer {
	opts = opts.withDefaults()
	return &Discoverer{
		loop:    loop,
		network: network,
		owner:   owner,
		opts:    opts,
		log:     opts.Logger.WithFields(logrus.Fields{"component": "discoverer", "service": opts.ServiceType}),
	}
}

func (d *Discoverer) Running() bool { return d.running }

// Peers returns the latest snapshot.
func (d *Discoverer) Peers() []peer.Identity { return d.peers }

func (d *Discoverer) Start() {
	d.teardown()
	d.running = true
	d.startBrowse()
}

func (d *Discoverer) Stop() {
	if !d.running {
		return
	}
	d.running = false
	d.teardown()
	d.log.Info("Browsing stopped")
}

func (d *Discoverer) startBrowse() {
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(context.Background())
	d.cancel = cancel

	go func() {
		session, err := d.network.Browse(ctx, d.opts.ServiceType, d.opts.Domain)
		if err != nil {
			d.loop.Post(func() { d.failed(gen, err) })
			return
		}
		if !d.loop.Post(func() { d.started(ctx, gen, session) }) {
			_ = session.Close()
		}
	}()
}

func (d *Discoverer) started(ctx context.Context, gen uint64, session transport.BrowseSession) {
	if gen != d.gen || !d.running {
		_ = session.Close()
		return
	}

	d.session = session
	d.log.Info("Browsing started")
	go d.pump(ctx, gen, session)
}

func (d *Discoverer) pump(ctx context.Context, gen uint64, session transport.BrowseSession) {
	for {
		select {
		case <-ctx.Done():
			return
		case set := <-session.Results():
			d.loop.Post(func() { d.update(gen, set) })
		case err := <-session.Failed():
			d.loop.Post(func() { d.failed(gen, err) })
			return
		}
	}
}

// update rebuilds the snapshot from a complete result set.
func (d *Discoverer) update(gen uint64, set []transport.BrowseResult) {
	if gen != d.gen || !d.running {
		return
	}

	peers := make([]peer.Identity, 0, len(set))
	for _, r := range set {
		if !sameServiceType(r.ServiceType, d.opts.ServiceType) {
			continue
		}
		id, err := peer.ParseLabel(r.Instance, r.Endpoint)
		if err != nil {
			d.log.WithError(err).Warn("Ignoring advertised service")
			continue
		}
		peers = append(peers, id)
	}

	d.peers = peers
	metrics.DiscoveredPeers.Set(float64(len(peers)))
	d.log.Debugf("%d peers visible", len(peers))
	d.owner.PeersChanged(peers)
}

func (d *Discoverer) failed(gen uint64, err error) {
	if gen != d.gen || !d.running {
		return
	}

	d.teardown()

	if transport.IsDefunct(err) {
		metrics.RestartsTotal.WithLabelValues("discoverer").Inc()
		d.log.WithError(err).Warnf("Browse defunct, restarting in %s", d.opts.RestartDelay)

		restartGen := d.gen
		d.stopRestart = d.loop.PostAfter(d.opts.RestartDelay, func() {
			if restartGen == d.gen && d.running {
				d.stopRestart = nil
				d.startBrowse()
			}
		})
		return
	}

	d.log.WithError(err).Error("Browsing failed")
	d.running = false
	d.owner.DiscovererFailed(err)
}

func (d *Discoverer) teardown() {
	d.gen++
	if d.stopRestart != nil {
		d.stopRestart()
		d.stopRestart = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.session != nil {
		_ = d.session.Close()
		d.session = nil
	}
}

func sameServiceType(a, b string) bool {
	return strings.EqualFold(strings.TrimSuffix(a, "."), strings.TrimSuffix(b, "."))
}

package transport

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/sirupsen/logrus"
)

const (
	// browseMissLimit is how many windows in a row an instance may be absent
	// before it is dropped from the result set.
	browseMissLimit = 2
	// registrationMissLimit is how many failed self lookups mark a
	// registration defunct.
	registrationMissLimit = 2

	entryBuffer  = 16
	drainTimeout = 2 * time.Second
)

// resolveFunc runs one resolver query and delivers entries until ctx ends.
type resolveFunc func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error

func zeroconfBrowser(serviceType, domain string) resolveFunc {
	return func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
		resolver, err := zeroconf.NewResolver()
		if err != nil {
			return fmt.Errorf("creating resolver: %w", err)
		}
		if err := resolver.Browse(ctx, serviceType, domain, entries); err != nil {
			return fmt.Errorf("browsing %s: %w", serviceType, err)
		}
		return nil
	}
}

func zeroconfLookup(instance, serviceType, domain string) resolveFunc {
	return func(ctx context.Context, entries chan<- *zeroconf.ServiceEntry) error {
		resolver, err := zeroconf.NewResolver()
		if err != nil {
			return fmt.Errorf("creating resolver: %w", err)
		}
		if err := resolver.Lookup(ctx, instance, serviceType, domain, entries); err != nil {
			return fmt.Errorf("looking up %s.%s: %w", instance, serviceType, err)
		}
		return nil
	}
}

// zeroconfRegistration keeps a published service and, when checking is
// enabled, periodically looks itself up. A registration that stops
// answering is reported on Failed as ErrDefunct.
type zeroconfRegistration struct {
	log      *logrus.Entry
	shutdown func()
	ctx      context.Context
	cancel   context.CancelFunc
	failed   chan error
	once     sync.Once
}

func registerZeroconf(cfg Config, log *logrus.Entry, svc Service) (*zeroconfRegistration, error) {
	domain := svc.Domain
	if domain == "" {
		domain = DefaultDomain
	}

	server, err := zeroconf.Register(svc.Instance, svc.Type, domain, int(svc.Port), svc.Text, nil)
	if err != nil {
		return nil, fmt.Errorf("registering %s.%s: %w", svc.Instance, svc.Type, err)
	}

	r := newZeroconfRegistration(log, server.Shutdown)
	if cfg.RegistrationCheck > 0 {
		go r.watch(cfg.RegistrationCheck, zeroconfLookup(svc.Instance, svc.Type, domain))
	}
	return r, nil
}

func newZeroconfRegistration(log *logrus.Entry, shutdown func()) *zeroconfRegistration {
	ctx, cancel := context.WithCancel(context.Background())
	return &zeroconfRegistration{
		log:      log,
		shutdown: shutdown,
		ctx:      ctx,
		cancel:   cancel,
		failed:   make(chan error, 1),
	}
}

func (r *zeroconfRegistration) Failed() <-chan error { return r.failed }

func (r *zeroconfRegistration) Close() error {
	r.once.Do(func() {
		r.cancel()
		r.shutdown()
	})
	return nil
}

func (r *zeroconfRegistration) watch(interval time.Duration, lookup resolveFunc) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	missed := 0
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
		}

		if r.visible(interval/2, lookup) {
			missed = 0
			continue
		}
		if r.ctx.Err() != nil {
			return
		}

		missed++
		r.log.WithField("missed", missed).Debug("Own service not found on the network")
		if missed >= registrationMissLimit {
			select {
			case r.failed <- fmt.Errorf("%w: service no longer answers lookups", ErrDefunct):
			default:
			}
			return
		}
	}
}

// visible reports whether one lookup of our own instance got an answer.
func (r *zeroconfRegistration) visible(timeout time.Duration, lookup resolveFunc) bool {
	ctx, cancel := context.WithTimeout(r.ctx, timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)
	defer func() { go drain(entries) }()

	if err := lookup(ctx, entries); err != nil {
		r.log.WithError(err).Debug("Lookup of own service failed")
		return false
	}

	select {
	case <-ctx.Done():
		return false
	case e, ok := <-entries:
		return ok && e != nil
	}
}

type browseWindow struct {
	ctx     context.Context
	cancel  context.CancelFunc
	entries chan *zeroconf.ServiceEntry
}

// zeroconfBrowse turns resolver entries into whole result sets. A resolver
// reports each instance only once and never reports removals, so browsing
// runs in fixed windows with a fresh resolver each time. Instances absent
// for browseMissLimit windows in a row are dropped.
type zeroconfBrowse struct {
	log     *logrus.Entry
	ctx     context.Context
	cancel  context.CancelFunc
	window  time.Duration
	browse  resolveFunc
	results chan []BrowseResult
	failed  chan error
	once    sync.Once
}

func browseZeroconf(ctx context.Context, cfg Config, log *logrus.Entry, serviceType, domain string) (*zeroconfBrowse, error) {
	if domain == "" {
		domain = DefaultDomain
	}
	return startBrowse(ctx, cfg.BrowseWindow, log, zeroconfBrowser(serviceType, domain))
}

func startBrowse(ctx context.Context, window time.Duration, log *logrus.Entry, browse resolveFunc) (*zeroconfBrowse, error) {
	ctx, cancel := context.WithCancel(ctx)
	b := &zeroconfBrowse{
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
		window:  window,
		browse:  browse,
		results: make(chan []BrowseResult, 1),
		failed:  make(chan error, 1),
	}

	w, err := b.open()
	if err != nil {
		cancel()
		return nil, err
	}

	go b.pump(w)
	return b, nil
}

func (b *zeroconfBrowse) Results() <-chan []BrowseResult { return b.results }

func (b *zeroconfBrowse) Failed() <-chan error { return b.failed }

func (b *zeroconfBrowse) Close() error {
	b.once.Do(b.cancel)
	return nil
}

func (b *zeroconfBrowse) open() (*browseWindow, error) {
	ctx, cancel := context.WithTimeout(b.ctx, b.window)
	entries := make(chan *zeroconf.ServiceEntry, entryBuffer)
	if err := b.browse(ctx, entries); err != nil {
		cancel()
		return nil, err
	}
	return &browseWindow{ctx: ctx, cancel: cancel, entries: entries}, nil
}

func (b *zeroconfBrowse) pump(w *browseWindow) {
	published := make(map[string]BrowseResult)
	misses := make(map[string]int)

	for {
		seen, ok := b.collect(w, published)
		w.cancel()
		go drain(w.entries)
		if !ok {
			return
		}

		changed := false
		for key := range published {
			if _, ok := seen[key]; ok {
				delete(misses, key)
				continue
			}
			misses[key]++
			if misses[key] >= browseMissLimit {
				delete(published, key)
				delete(misses, key)
				changed = true
			}
		}
		if changed {
			b.publish(published)
		}

		next, err := b.open()
		if err != nil {
			if b.ctx.Err() == nil {
				b.fail(fmt.Errorf("%w: %v", ErrDefunct, err))
			}
			return
		}
		w = next
	}
}

// collect reads entries until the window ends, publishing new or changed
// instances as they arrive. It returns false when browsing must stop.
func (b *zeroconfBrowse) collect(w *browseWindow, published map[string]BrowseResult) (map[string]struct{}, bool) {
	seen := make(map[string]struct{})

	for {
		select {
		case <-w.ctx.Done():
			return seen, b.ctx.Err() == nil
		case e, ok := <-w.entries:
			if !ok {
				if w.ctx.Err() != nil {
					return seen, b.ctx.Err() == nil
				}
				b.fail(ErrDefunct)
				return seen, false
			}
			if e == nil {
				continue
			}

			key := e.ServiceInstanceName()
			seen[key] = struct{}{}
			r := resultFromEntry(e)
			if old, ok := published[key]; !ok || !sameResult(old, r) {
				published[key] = r
				b.publish(published)
			}
		}
	}
}

// publish replaces any set the consumer has not picked up yet.
func (b *zeroconfBrowse) publish(known map[string]BrowseResult) {
	set := make([]BrowseResult, 0, len(known))
	for _, r := range known {
		set = append(set, r)
	}
	sort.Slice(set, func(i, j int) bool { return set[i].Instance < set[j].Instance })

	select {
	case <-b.results:
	default:
	}
	select {
	case b.results <- set:
	default:
		b.log.Debug("Dropping browse set, consumer busy")
	}
}

func (b *zeroconfBrowse) fail(err error) {
	select {
	case b.failed <- err:
	default:
	}
}

// drain keeps a finished resolver from blocking on a full channel.
func drain(entries <-chan *zeroconf.ServiceEntry) {
	timer := time.NewTimer(drainTimeout)
	defer timer.Stop()

	for {
		select {
		case _, ok := <-entries:
			if !ok {
				return
			}
		case <-timer.C:
			return
		}
	}
}

func sameResult(a, b BrowseResult) bool {
	return a.Instance == b.Instance &&
		a.ServiceType == b.ServiceType &&
		a.Domain == b.Domain &&
		a.Endpoint.Label == b.Endpoint.Label &&
		a.Endpoint.Host == b.Endpoint.Host &&
		a.Endpoint.Port == b.Endpoint.Port &&
		slices.Equal(a.Endpoint.Addrs, b.Endpoint.Addrs)
}

func resultFromEntry(e *zeroconf.ServiceEntry) BrowseResult {
	instance := unescapeInstance(e.Instance)

	ep := Endpoint{
		Label: instance,
		Host:  strings.TrimSuffix(e.HostName, "."),
		Port:  uint16(e.Port),
	}
	for _, ips := range [][]net.IP{e.AddrIPv4, e.AddrIPv6} {
		for _, ip := range ips {
			if a, ok := netip.AddrFromSlice(ip); ok {
				ep.Addrs = append(ep.Addrs, a.Unmap())
			}
		}
	}

	return BrowseResult{
		Instance:    instance,
		ServiceType: e.Service,
		Domain:      e.Domain,
		Endpoint:    ep,
	}
}

// unescapeInstance undoes DNS presentation escaping such as "\ " and "\.".
func unescapeInstance(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		if i+3 < len(s) && isDigit(s[i+1]) && isDigit(s[i+2]) && isDigit(s[i+3]) {
			b.WriteByte((s[i+1]-'0')*100 + (s[i+2]-'0')*10 + (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i+1])
		i++
	}
	return b.String()
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

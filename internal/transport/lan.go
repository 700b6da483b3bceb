package transport

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LAN is the Network backed by TCP streams and DNS-SD over multicast DNS.
type LAN struct {
	cfg Config
	log *logrus.Entry
}

func NewLAN(cfg Config, logger *logrus.Logger) *LAN {
	cfg.setDefaults()
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LAN{cfg: cfg, log: logger.WithField("component", "transport")}
}

func (n *LAN) Listen(ctx context.Context) (Listener, error) {
	ln, err := listenTCP(ctx, n.cfg)
	if err != nil {
		return nil, err
	}
	n.log.Debugf("Listening on port %d", ln.Port())
	return ln, nil
}

func (n *LAN) Dial(ctx context.Context, ep Endpoint) (Stream, error) {
	conn, err := dialTCP(ctx, n.cfg, n.log, ep)
	if err != nil {
		return nil, err
	}
	n.log.Debugf("Connected to %s", conn.RemoteAddr())
	return conn, nil
}

func (n *LAN) Advertise(_ context.Context, svc Service) (Registration, error) {
	reg, err := registerZeroconf(n.cfg, n.log, svc)
	if err != nil {
		return nil, err
	}
	n.log.WithField("service", svc.Type).Debugf("Advertising %q on port %d", svc.Instance, svc.Port)
	return reg, nil
}

func (n *LAN) Browse(ctx context.Context, serviceType, domain string) (BrowseSession, error) {
	return browseZeroconf(ctx, n.cfg, n.log, serviceType, domain)
}

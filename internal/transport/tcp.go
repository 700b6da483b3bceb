package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"slices"
	"time"

	"github.com/sirupsen/logrus"
)

type tcpListener struct {
	ln   net.Listener
	port uint16
}

func listenTCP(ctx context.Context, cfg Config) (*tcpListener, error) {
	lc := net.ListenConfig{KeepAlive: cfg.KeepAlive}
	ln, err := lc.Listen(ctx, "tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", cfg.ListenAddr, err)
	}

	addr, ok := ln.Addr().(*net.TCPAddr)
	if !ok {
		_ = ln.Close()
		return nil, fmt.Errorf("unexpected listener address %s", ln.Addr())
	}

	return &tcpListener{ln: ln, port: uint16(addr.Port)}, nil
}

func (l *tcpListener) Accept() (Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (l *tcpListener) Close() error { return l.ln.Close() }

func (l *tcpListener) Port() uint16 { return l.port }

// dialTCP tries the endpoint's addresses one after another, IPv4 first,
// giving each attempt an even share of what is left of ConnectTimeout.
func dialTCP(ctx context.Context, cfg Config, log *logrus.Entry, ep Endpoint) (net.Conn, error) {
	addrs, err := endpointAddrs(ctx, ep)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	d := net.Dialer{KeepAlive: cfg.KeepAlive}
	var errs []error
	for i, ap := range addrs {
		deadline, _ := ctx.Deadline()
		share := time.Until(deadline) / time.Duration(len(addrs)-i)

		attemptCtx, attemptCancel := context.WithTimeout(ctx, share)
		conn, err := d.DialContext(attemptCtx, "tcp", ap.String())
		attemptCancel()
		if err == nil {
			return conn, nil
		}

		log.WithError(err).Debugf("Dial to %s failed", ap)
		errs = append(errs, err)
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
	}

	return nil, fmt.Errorf("dialing %s: %w", ep.Label, errors.Join(errs...))
}

// endpointAddrs falls back to resolving the host name when the browse
// result carried no addresses.
func endpointAddrs(ctx context.Context, ep Endpoint) ([]netip.AddrPort, error) {
	addrs := ep.AddrPorts()
	if len(addrs) == 0 && ep.Host != "" {
		ips, err := net.DefaultResolver.LookupNetIP(ctx, "ip", ep.Host)
		if err != nil {
			return nil, fmt.Errorf("looking up %s: %w", ep.Host, err)
		}
		for _, ip := range ips {
			addrs = append(addrs, netip.AddrPortFrom(ip.Unmap(), ep.Port))
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("dialing %s: %w", ep.Label, ErrNoRoute)
	}

	slices.SortStableFunc(addrs, func(a, b netip.AddrPort) int {
		switch {
		case a.Addr().Is4() == b.Addr().Is4():
			return 0
		case a.Addr().Is4():
			return -1
		default:
			return 1
		}
	})
	return addrs, nil
}

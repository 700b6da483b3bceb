package transport

import (
	"errors"
	"io"
	"net"
	"syscall"
)

var (
	// ErrDefunct is the flaky discovery daemon fault. Registrations and
	// browses that hit it are restarted rather than reported.
	ErrDefunct = errors.New("discovery service connection defunct")
	ErrNoRoute = errors.New("endpoint has no addresses")
)

func IsDefunct(err error) bool {
	return errors.Is(err, ErrDefunct) ||
		errors.Is(err, syscall.ENETDOWN) ||
		errors.Is(err, syscall.ENETRESET)
}

// IsTransientAbort reports the abort a peer produces when its process is
// suspended rather than gone.
func IsTransientAbort(err error) bool {
	return errors.Is(err, syscall.ECONNABORTED)
}

// IsClosed reports an orderly close from either side.
func IsClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, io.ErrClosedPipe)
}

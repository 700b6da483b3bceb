package advertiser

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stobo-app/pilot/internal/eventloop"
	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/transport"
	"github.com/stobo-app/pilot/internal/transport/transporttest"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type fakeOwner struct {
	conn      *peer.Connection
	installed chan *peer.Connection
	ready     chan *peer.Connection
	msgs      chan protocol.Message
	failed    chan error
}

func newFakeOwner() *fakeOwner {
	return &fakeOwner{
		installed: make(chan *peer.Connection, 8),
		ready:     make(chan *peer.Connection, 8),
		msgs:      make(chan protocol.Message, 8),
		failed:    make(chan error, 8),
	}
}

func (o *fakeOwner) ActiveConnection() *peer.Connection { return o.conn }

func (o *fakeOwner) InstallConnection(c *peer.Connection) {
	o.conn = c
	o.installed <- c
}

func (o *fakeOwner) AdvertiserFailed(err error) { o.failed <- err }

func (o *fakeOwner) ConnectionReady(c *peer.Connection) { o.ready <- c }

func (o *fakeOwner) ConnectionFailed(c *peer.Connection, _ error) { o.drop(c) }

func (o *fakeOwner) ConnectionLost(c *peer.Connection) { o.drop(c) }

func (o *fakeOwner) ConnectionMessage(_ *peer.Connection, m protocol.Message) { o.msgs <- m }

func (o *fakeOwner) drop(c *peer.Connection) {
	if o.conn == c {
		o.conn = nil
	}
}

type harness struct {
	loop    *eventloop.Loop
	network *transporttest.Network
	owner   *fakeOwner
	adv     *Advertiser
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	loop := eventloop.New()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(cancel)

	h := &harness{loop: loop, network: transporttest.NewNetwork(), owner: newFakeOwner()}
	h.adv = New(loop, h.network, h.owner, Options{Logger: log, RestartDelay: tick})
	return h
}

func (h *harness) do(t *testing.T, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, h.loop.Call(ctx, fn))
}

func (h *harness) waitRegistered(t *testing.T) *transporttest.Registration {
	t.Helper()
	require.Eventually(t, func() bool { return h.network.LiveRegistrations() == 1 }, waitFor, tick)
	return h.network.Registrations()[0]
}

func TestAdvertiserPublishesLabel(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })

	reg := h.waitRegistered(t)
	svc := reg.Service()
	assert.Equal(t, "Storyboard_042", svc.Instance)
	assert.Equal(t, transport.DefaultServiceType, svc.Type)
	assert.NotZero(t, svc.Port)
	assert.Equal(t, 1, h.network.LiveListeners())

	var port uint16
	h.do(t, func() { port = h.adv.Port() })
	assert.Equal(t, svc.Port, port)
}

func TestAdvertiserRejectsSecondInbound(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })
	port := h.waitRegistered(t).Service().Port

	first, err := h.network.Connect(port)
	require.NoError(t, err)

	select {
	case <-h.owner.installed:
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for first connection")
	}
	select {
	case <-h.owner.ready:
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for ready")
	}

	second, err := h.network.Connect(port)
	require.NoError(t, err)

	_, err = second.Read(make([]byte, 1))
	assert.True(t, transport.IsClosed(err), "second inbound should be closed, got %v", err)
	assert.Empty(t, h.owner.installed)

	require.NoError(t, protocol.NewCodec().Encode(first, &protocol.DescriptorListReq{}))
	select {
	case m := <-h.owner.msgs:
		assert.IsType(t, &protocol.DescriptorListReq{}, m)
	case <-time.After(waitFor):
		t.Fatal("first connection disturbed by rejected inbound")
	}
}

func TestAdvertiserAcceptsAfterConnectionEnds(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })
	port := h.waitRegistered(t).Service().Port

	first, err := h.network.Connect(port)
	require.NoError(t, err)
	<-h.owner.installed
	<-h.owner.ready

	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		active := true
		_ = h.loop.Call(context.Background(), func() { active = h.owner.conn != nil })
		return !active
	}, waitFor, tick)

	_, err = h.network.Connect(port)
	require.NoError(t, err)
	select {
	case <-h.owner.installed:
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for replacement connection")
	}
}

func TestAdvertiserRestartsWhenDefunct(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })
	reg := h.waitRegistered(t)

	reg.Fail(transport.ErrDefunct)

	require.Eventually(t, func() bool {
		regs := h.network.Registrations()
		return len(regs) == 1 && regs[0] != reg
	}, waitFor, tick)

	assert.Equal(t, "Storyboard_042", h.network.Registrations()[0].Service().Instance)
	assert.Equal(t, 1, h.network.LiveListeners())
	assert.Empty(t, h.owner.failed)
}

func TestAdvertiserRestartsWhenRegisterDefunct(t *testing.T) {
	h := newHarness(t)
	h.network.FailNextAdvertise(transport.ErrDefunct)

	h.do(t, func() { h.adv.Start("Storyboard_042") })
	h.waitRegistered(t)
	assert.Empty(t, h.owner.failed)
}

func TestAdvertiserHardFailure(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })
	reg := h.waitRegistered(t)

	conflict := errors.New("name conflict")
	reg.Fail(conflict)

	select {
	case err := <-h.owner.failed:
		assert.ErrorIs(t, err, conflict)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for failure")
	}

	require.Eventually(t, func() bool { return h.network.Live() == 0 }, waitFor, tick)

	var running bool
	h.do(t, func() { running = h.adv.Running() })
	assert.False(t, running)
}

func TestAdvertiserStop(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() { h.adv.Start("Storyboard_042") })
	h.waitRegistered(t)

	h.do(t, func() { h.adv.Stop() })
	require.Eventually(t, func() bool { return h.network.Live() == 0 }, waitFor, tick)

	h.do(t, func() { h.adv.Stop() })
	assert.Empty(t, h.owner.failed)
}

func TestAdvertiserStopDuringStartup(t *testing.T) {
	h := newHarness(t)
	h.do(t, func() {
		h.adv.Start("Storyboard_042")
		h.adv.Stop()
	})

	time.Sleep(20 * time.Millisecond)
	require.Eventually(t, func() bool { return h.network.Live() == 0 }, waitFor, tick)
}

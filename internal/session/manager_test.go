package session

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/protocol"
	"github.com/stobo-app/pilot/internal/transport"
	"github.com/stobo-app/pilot/internal/transport/transporttest"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type observer struct {
	ready  chan struct{}
	failed chan error
	lost   chan struct{}
	peers  chan []peer.Identity
	msgs   chan protocol.Message
	errs   chan error
}

func observe(m *Manager) *observer {
	o := &observer{
		ready:  make(chan struct{}, 256),
		failed: make(chan error, 256),
		lost:   make(chan struct{}, 256),
		peers:  make(chan []peer.Identity, 256),
		msgs:   make(chan protocol.Message, 256),
		errs:   make(chan error, 256),
	}
	m.OnReady(func() { o.ready <- struct{}{} })
	m.OnFailed(func(err error) { o.failed <- err })
	m.OnLost(func() { o.lost <- struct{}{} })
	m.OnPeersChanged(func(p []peer.Identity) { o.peers <- p })
	m.OnMessage(func(msg protocol.Message) { o.msgs <- msg })
	m.OnError(func(err error) { o.errs <- err })
	return o
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newManager(t *testing.T, network transport.Network, deviceID string) (*Manager, *observer) {
	t.Helper()
	return newManagerWithLogger(t, network, deviceID, testLogger())
}

func newManagerWithLogger(t *testing.T, network transport.Network, deviceID string, logger *logrus.Logger) (*Manager, *observer) {
	t.Helper()

	opts := peer.DefaultOptions()
	opts.Reconnect = peer.ReconnectPolicy{MaxAttempts: 3, Backoff: 20 * time.Millisecond}
	opts.FlushTimeout = 50 * time.Millisecond

	m, err := New(Config{
		Network:      network,
		DeviceID:     deviceID,
		Logger:       logger,
		RestartDelay: tick,
		Connection:   opts,
	})
	require.NoError(t, err)

	o := observe(m)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = m.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return m, o
}

// owned reports which components the manager holds, read on its loop.
func owned(t *testing.T, m *Manager) (adv, disc, conn bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, m.loop.Call(ctx, func() {
		adv = m.adv != nil
		disc = m.disc != nil
		conn = m.conn != nil
	}))
	return adv, disc, conn
}

func assertSingleOwnership(t *testing.T, m *Manager) {
	t.Helper()
	adv, disc, _ := owned(t, m)
	assert.False(t, adv && disc, "advertiser and discoverer both active")
}

func waitMode(t *testing.T, m *Manager, want Mode) {
	t.Helper()
	require.Eventually(t, func() bool { return m.Mode() == want }, waitFor, tick, "mode never became %s (is %s)", want, m.Mode())
}

func waitPeers(t *testing.T, o *observer, n int) []peer.Identity {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case p := <-o.peers:
			if len(p) == n {
				return p
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for %d peers", n)
			return nil
		}
	}
}

// waitLabel waits for a snapshot holding exactly the peer advertising label.
func waitLabel(t *testing.T, o *observer, label string) []peer.Identity {
	t.Helper()
	deadline := time.After(waitFor)
	for {
		select {
		case p := <-o.peers:
			if len(p) == 1 && p[0].ServiceLabel == label {
				return p
			}
		case <-deadline:
			t.Fatalf("Timeout waiting for peer %q", label)
			return nil
		}
	}
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(waitFor):
		t.Fatalf("Timeout waiting for %s", what)
	}
}

// connectPair hosts on h and connects c to it.
func connectPair(t *testing.T, network *transporttest.Network, h, c *Manager, ho, co *observer) {
	t.Helper()

	require.NoError(t, h.StartHosting("Storyboard"))
	require.NoError(t, c.StartDiscovering())
	waitMode(t, c, ModeDiscovering)

	peers := waitPeers(t, co, 1)
	require.NoError(t, c.Connect(peers[0]))

	waitSignal(t, co.ready, "client ready")
	waitSignal(t, ho.ready, "host ready")
	waitMode(t, h, ModeConnected)
	waitMode(t, c, ModeConnected)
}

func TestNewRequiresNetworkAndDevice(t *testing.T) {
	_, err := New(Config{DeviceID: "001"})
	assert.ErrorIs(t, err, ErrNoNetwork)

	_, err = New(Config{Network: transporttest.NewNetwork()})
	assert.ErrorIs(t, err, ErrNoDeviceID)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "Not connected", ModeIdle.String())
	assert.Equal(t, "Hosting", ModeHosting.String())
	assert.Equal(t, "Discovering", ModeDiscovering.String())
	assert.Equal(t, "Connected", ModeConnected.String())
}

func TestStartHostingLabelRoundTrip(t *testing.T) {
	network := transporttest.NewNetwork()
	host, _ := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	require.NoError(t, client.StartDiscovering())

	for _, name := range []string{"Storyboard", "Living Room", "x", "Stage.Left", "café"} {
		require.NoError(t, host.StartHosting(name))
		waitMode(t, host, ModeHosting)

		require.Eventually(t, func() bool {
			regs := network.Registrations()
			return len(regs) == 1 && regs[0].Service().Instance == name+"_042"
		}, waitFor, tick)
		assert.Equal(t, name+"_042", host.ServiceLabel())

		peers := waitLabel(t, co, name+"_042")
		if peers[0].ApplicationName != name || peers[0].DeviceID != "042" {
			t.Errorf("label for %q parsed back as (%q, %q)", name, peers[0].ApplicationName, peers[0].DeviceID)
		}
	}
}

func TestStartHostingRejectsSeparator(t *testing.T) {
	network := transporttest.NewNetwork()
	m, _ := newManager(t, network, "042")

	for _, name := range []string{"my_app", "_", "", "trailing_"} {
		err := m.StartHosting(name)
		assert.ErrorIs(t, err, peer.ErrInvalidAppName, "name %q", name)
	}

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, network.Live())
	assert.Equal(t, ModeIdle, m.Mode())

	require.NoError(t, m.StartHosting("Good"))
	waitMode(t, m, ModeHosting)
	require.Eventually(t, func() bool { return network.LiveRegistrations() == 1 }, waitFor, tick)

	assert.ErrorIs(t, m.StartHosting("bad_name"), peer.ErrInvalidAppName)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, ModeHosting, m.Mode())
	assert.Equal(t, "Good_042", network.Registrations()[0].Service().Instance)
}

func TestModeTransitionsReleaseResources(t *testing.T) {
	network := transporttest.NewNetwork()
	m, _ := newManager(t, network, "042")

	type step struct {
		name string
		do   func() error
		mode Mode
	}
	host := step{"host", func() error { return m.StartHosting("Storyboard") }, ModeHosting}
	discover := step{"discover", m.StartDiscovering, ModeDiscovering}
	stop := step{"stop", func() error { m.StopAll(); return nil }, ModeIdle}

	steps := []step{host, discover, stop, stop, discover, host, host, stop, discover, discover, host, discover, stop}

	for i, s := range steps {
		require.NoError(t, s.do(), "step %d %s", i, s.name)
		waitMode(t, m, s.mode)

		require.Eventually(t, func() bool {
			switch s.mode {
			case ModeHosting:
				return network.LiveListeners() == 1 && network.LiveRegistrations() == 1 &&
					network.LiveBrowses() == 0 && network.LiveStreams() == 0
			case ModeDiscovering:
				return network.LiveBrowses() == 1 && network.LiveListeners() == 0 &&
					network.LiveRegistrations() == 0 && network.LiveStreams() == 0
			default:
				return network.Live() == 0
			}
		}, waitFor, tick, "step %d %s leaked handles", i, s.name)

		assertSingleOwnership(t, m)
	}
}

func TestConnectedOwnership(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	adv, disc, conn := owned(t, host)
	assert.True(t, adv)
	assert.False(t, disc)
	assert.True(t, conn)

	adv, disc, conn = owned(t, client)
	assert.False(t, adv)
	assert.False(t, disc)
	assert.True(t, conn)

	assert.Equal(t, 0, network.LiveBrowses())
	assert.Equal(t, 1, network.LiveRegistrations())
	assert.Equal(t, 2, network.LiveStreams())
}

func TestConnectRequiresDiscovering(t *testing.T) {
	network := transporttest.NewNetwork()
	m, _ := newManager(t, network, "042")

	err := m.Connect(peer.Identity{ServiceLabel: "Storyboard_001"})
	assert.ErrorIs(t, err, ErrNotDiscovering)
	assert.Empty(t, network.Dials())
}

func TestTransitionsFromConnected(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	require.NoError(t, client.StartHosting("Other"))
	waitMode(t, client, ModeHosting)
	waitSignal(t, ho.lost, "host lost")
	waitMode(t, host, ModeIdle)

	require.Eventually(t, func() bool {
		return network.LiveStreams() == 0 && network.LiveRegistrations() == 2 && network.LiveListeners() == 2
	}, waitFor, tick)

	host.StopAll()
	client.StopAll()
	waitMode(t, host, ModeIdle)
	waitMode(t, client, ModeIdle)
	require.Eventually(t, func() bool { return network.Live() == 0 }, waitFor, tick)
}

func TestMessagesFlowBothWays(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	client.Send(&protocol.Action{Descriptor: protocol.Descriptor{Name: "x"}, Kind: protocol.ActionPlay})
	select {
	case msg := <-ho.msgs:
		action, ok := msg.(*protocol.Action)
		require.True(t, ok, "expected *protocol.Action, got %T", msg)
		assert.Equal(t, "x", action.Descriptor.Name)
		assert.Equal(t, protocol.ActionPlay, action.Kind)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for action on host")
	}

	result := make(chan error, 1)
	host.SendWithResult(&protocol.DescriptorListReq{}, func(err error) { result <- err })
	select {
	case msg := <-co.msgs:
		assert.IsType(t, &protocol.DescriptorListReq{}, msg)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for request on client")
	}
	assert.NoError(t, <-result)
}

func TestSendWithoutConnection(t *testing.T) {
	network := transporttest.NewNetwork()
	m, _ := newManager(t, network, "042")

	m.Send(&protocol.Disconnect{})

	result := make(chan error, 1)
	m.SendWithResult(&protocol.Disconnect{}, func(err error) { result <- err })
	assert.ErrorIs(t, <-result, ErrNoConnection)
}

func TestReconnectOnTransientAbort(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)
	require.Len(t, network.Dials(), 1)

	network.DialedStreams()[0].Break(syscall.ECONNABORTED)

	waitSignal(t, co.ready, "client ready after reconnect")
	waitSignal(t, ho.ready, "host ready after reconnect")

	dials := network.Dials()
	require.Len(t, dials, 2)
	assert.Equal(t, dials[0].Port, dials[1].Port)
	assert.Equal(t, dials[0].Label, dials[1].Label)

	waitMode(t, client, ModeConnected)
	waitMode(t, host, ModeConnected)
	assert.Empty(t, co.failed)
	assert.Empty(t, co.lost)
}

func TestOtherFailureSurfacesOnce(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	network.DialedStreams()[0].Break(syscall.ECONNRESET)

	select {
	case err := <-co.failed:
		assert.ErrorIs(t, err, syscall.ECONNRESET)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for failure")
	}
	waitMode(t, client, ModeIdle)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, co.failed)
	assert.Len(t, network.Dials(), 1)

	_, _, conn := owned(t, client)
	assert.False(t, conn)
}

func TestSecondInboundRejected(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	port := network.Registrations()[0].Service().Port
	intruder, err := network.Connect(port)
	require.NoError(t, err)

	_, err = intruder.Read(make([]byte, 1))
	assert.True(t, transport.IsClosed(err), "second inbound should be closed, got %v", err)

	client.Send(&protocol.DescriptorListReq{})
	select {
	case msg := <-ho.msgs:
		assert.IsType(t, &protocol.DescriptorListReq{}, msg)
	case <-time.After(waitFor):
		t.Fatal("first connection disturbed by second inbound")
	}
	assert.Equal(t, ModeConnected, host.Mode())
	assert.Empty(t, ho.lost)
}

func TestDisconnectReachesIdle(t *testing.T) {
	network := transporttest.NewNetwork()
	host, ho := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	connectPair(t, network, host, client, ho, co)

	client.Disconnect()
	waitMode(t, client, ModeIdle)

	select {
	case msg := <-ho.msgs:
		assert.IsType(t, &protocol.Disconnect{}, msg)
	case <-time.After(waitFor):
		t.Fatal("host never saw Disconnect")
	}
	waitMode(t, host, ModeIdle)

	adv, _, conn := owned(t, host)
	assert.True(t, adv, "host keeps advertising after the peer leaves")
	assert.False(t, conn)
	assert.NotEmpty(t, host.ServiceLabel())

	_, _, conn = owned(t, client)
	assert.False(t, conn)
	require.Eventually(t, func() bool { return network.LiveStreams() == 0 }, waitFor, tick)
}

func TestDisconnectWhenSendFails(t *testing.T) {
	network := transporttest.NewNetwork()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	m, o := newManagerWithLogger(t, network, "777", logger)

	ln, err := network.Listen(context.Background())
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()
	reg, err := network.Advertise(context.Background(), transport.Service{
		Instance: "Silent_001",
		Type:     transport.DefaultServiceType,
		Port:     ln.Port(),
	})
	require.NoError(t, err)
	defer func() { _ = reg.Close() }()

	require.NoError(t, m.StartDiscovering())
	waitMode(t, m, ModeDiscovering)
	peers := waitPeers(t, o, 1)

	require.NoError(t, m.Connect(peers[0]))
	waitSignal(t, o.ready, "ready")

	// the remote end never reads, so the Disconnect write hits the flush deadline
	m.Disconnect()
	waitMode(t, m, ModeIdle)

	_, _, conn := owned(t, m)
	assert.False(t, conn)

	var writeErr error
	require.Eventually(t, func() bool {
		for _, e := range hook.AllEntries() {
			if e.Message != "Disconnect message not delivered" {
				continue
			}
			if err, ok := e.Data[logrus.ErrorKey].(error); ok {
				writeErr = err
				return true
			}
		}
		return false
	}, waitFor, tick)
	assert.Error(t, writeErr)
	assert.Equal(t, ModeIdle, m.Mode())
}

func TestDisconnectWhileRedialing(t *testing.T) {
	network := transporttest.NewNetwork()
	m, o := newManager(t, network, "777")

	require.NoError(t, m.StartDiscovering())
	waitMode(t, m, ModeDiscovering)

	network.FailNextDial(&net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNABORTED})
	require.NoError(t, m.Connect(peer.Identity{
		ServiceLabel: "Gone_001",
		Address:      transport.Endpoint{Label: "Gone_001", Port: 1},
	}))
	m.Disconnect()

	waitMode(t, m, ModeIdle)
	waitSignal(t, o.lost, "lost")

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, o.failed)
	assert.LessOrEqual(t, len(network.Dials()), 1)
	assert.Equal(t, 0, network.Live())
}

func TestAdvertiserFailureReturnsToIdle(t *testing.T) {
	network := transporttest.NewNetwork()
	m, o := newManager(t, network, "042")

	require.NoError(t, m.StartHosting("Storyboard"))
	require.Eventually(t, func() bool { return network.LiveRegistrations() == 1 }, waitFor, tick)

	conflict := errors.New("name conflict")
	network.Registrations()[0].Fail(conflict)

	select {
	case err := <-o.errs:
		assert.ErrorIs(t, err, conflict)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for error")
	}
	waitMode(t, m, ModeIdle)
	require.Eventually(t, func() bool { return network.Live() == 0 }, waitFor, tick)
}

func TestDiscovererFailureReturnsToIdle(t *testing.T) {
	network := transporttest.NewNetwork()
	m, o := newManager(t, network, "042")

	require.NoError(t, m.StartDiscovering())
	require.Eventually(t, func() bool { return network.LiveBrowses() == 1 }, waitFor, tick)

	network.Browses()[0].Fail(errors.New("no multicast interface"))

	select {
	case err := <-o.errs:
		assert.Error(t, err)
	case <-time.After(waitFor):
		t.Fatal("Timeout waiting for error")
	}
	waitMode(t, m, ModeIdle)
	assert.Empty(t, m.Peers())
}

func TestStopAllClearsPeers(t *testing.T) {
	network := transporttest.NewNetwork()
	host, _ := newManager(t, network, "042")
	client, co := newManager(t, network, "777")

	require.NoError(t, host.StartHosting("Storyboard"))
	require.NoError(t, client.StartDiscovering())
	waitPeers(t, co, 1)
	require.Len(t, client.Peers(), 1)

	client.StopAll()
	waitPeers(t, co, 0)
	waitMode(t, client, ModeIdle)
	assert.Empty(t, client.Peers())
}

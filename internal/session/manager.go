package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/advertiser"
	"github.com/stobo-app/pilot/internal/discovery"
	"github.com/stobo-app/pilot/internal/eventloop"
	"github.com/stobo-app/pilot/internal/metrics"
	"github.com/stobo-app/pilot/internal/peer"
	"github.com/stobo-app/pilot/internal/protocol"
)

// Manager owns at most one advertiser or discoverer and at most one
// connection. Public methods queue work on the control loop and return
// immediately; callbacks run on the control loop.
type Manager struct {
	cfg  Config
	loop *eventloop.Loop
	log  *logrus.Entry

	// control loop only
	adv  *advertiser.Advertiser
	disc *discovery.Discoverer
	conn *peer.Connection

	mode  atomic.Int32
	peers atomic.Pointer[[]peer.Identity]
	label atomic.Pointer[string]

	subs subscribers
}

type subscribers struct {
	mu           sync.RWMutex
	ready        []func()
	failed       []func(error)
	lost         []func()
	peersChanged []func([]peer.Identity)
	message      []func(protocol.Message)
	errors       []func(error)
	modeChanged  []func(Mode)
}

var (
	_ advertiser.Owner = (*Manager)(nil)
	_ discovery.Owner  = (*Manager)(nil)
)

func New(cfg Config) (*Manager, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()

	m := &Manager{
		cfg:  cfg,
		loop: eventloop.New(),
		log:  cfg.Logger.WithFields(logrus.Fields{"component": "session", "device": cfg.DeviceID}),
	}
	empty := []peer.Identity{}
	m.peers.Store(&empty)
	label := ""
	m.label.Store(&label)
	return m, nil
}

// Run drives the control loop until ctx is done and then releases
// everything the manager still owns.
func (m *Manager) Run(ctx context.Context) error {
	m.log.Info("Session manager started")
	err := m.loop.Run(ctx)
	m.reset()
	m.log.Info("Session manager stopped")
	return err
}

func (m *Manager) Mode() Mode { return Mode(m.mode.Load()) }

// Peers returns the latest discovery snapshot.
func (m *Manager) Peers() []peer.Identity {
	p := *m.peers.Load()
	return append([]peer.Identity(nil), p...)
}

func (m *Manager) DeviceID() string { return m.cfg.DeviceID }

// ServiceLabel is the label currently advertised, empty when not hosting.
func (m *Manager) ServiceLabel() string { return *m.label.Load() }

// StartHosting advertises appName for this device. An invalid name is
// rejected here, before anything touches the network.
func (m *Manager) StartHosting(appName string) error {
	label, err := peer.ComposeLabel(appName, m.cfg.DeviceID)
	if err != nil {
		return err
	}
	return m.post(func() { m.startHosting(label) })
}

func (m *Manager) StartDiscovering() error {
	return m.post(m.startDiscovering)
}

// Connect dials p. It is only valid while discovering.
func (m *Manager) Connect(p peer.Identity) error {
	if m.Mode() != ModeDiscovering {
		return ErrNotDiscovering
	}
	return m.post(func() { m.connect(p) })
}

// Disconnect tells the peer goodbye on a best effort basis and returns to
// idle whatever the outcome. Without a connection it behaves like StopAll.
func (m *Manager) Disconnect() {
	_ = m.post(m.disconnect)
}

// StopAll returns to idle from any mode.
func (m *Manager) StopAll() {
	_ = m.post(func() {
		m.log.Info("Stopping all activity")
		m.reset()
	})
}

// Send forwards msg to the active connection and drops it when there is
// none.
func (m *Manager) Send(msg protocol.Message) {
	_ = m.post(func() {
		if m.conn == nil {
			m.log.Debugf("Dropping %s, not connected", msg.Type())
			return
		}
		m.conn.Send(msg, nil)
	})
}

// SendWithResult is Send with a completion callback that runs exactly
// once on the control loop.
func (m *Manager) SendWithResult(msg protocol.Message, done func(error)) {
	if done == nil {
		m.Send(msg)
		return
	}
	if !m.loop.Post(func() {
		if m.conn == nil {
			done(ErrNoConnection)
			return
		}
		m.conn.Send(msg, done)
	}) {
		go done(ErrNotRunning)
	}
}

func (m *Manager) OnReady(fn func()) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.ready = append(m.subs.ready, fn)
}

func (m *Manager) OnFailed(fn func(error)) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.failed = append(m.subs.failed, fn)
}

func (m *Manager) OnLost(fn func()) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.lost = append(m.subs.lost, fn)
}

func (m *Manager) OnPeersChanged(fn func([]peer.Identity)) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.peersChanged = append(m.subs.peersChanged, fn)
}

func (m *Manager) OnMessage(fn func(protocol.Message)) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.message = append(m.subs.message, fn)
}

// OnError reports advertiser and discoverer failures. The manager is idle
// by the time it runs.
func (m *Manager) OnError(fn func(error)) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.errors = append(m.subs.errors, fn)
}

func (m *Manager) OnModeChanged(fn func(Mode)) {
	m.subs.mu.Lock()
	defer m.subs.mu.Unlock()
	m.subs.modeChanged = append(m.subs.modeChanged, fn)
}

func (m *Manager) post(fn func()) error {
	if !m.loop.Post(fn) {
		return ErrNotRunning
	}
	return nil
}

func (m *Manager) startHosting(label string) {
	m.reset()

	m.adv = advertiser.New(m.loop, m.cfg.Network, m, advertiser.Options{
		Logger:       m.cfg.Logger,
		ServiceType:  m.cfg.ServiceType,
		Domain:       m.cfg.Domain,
		RestartDelay: m.cfg.RestartDelay,
		Connection:   m.cfg.Connection,
	})
	m.adv.Start(label)
	m.label.Store(&label)
	m.log.Infof("Hosting as %q", label)
	m.setMode(ModeHosting)
}

func (m *Manager) startDiscovering() {
	m.reset()

	m.disc = discovery.New(m.loop, m.cfg.Network, m, discovery.Options{
		Logger:       m.cfg.Logger,
		ServiceType:  m.cfg.ServiceType,
		Domain:       m.cfg.Domain,
		RestartDelay: m.cfg.RestartDelay,
	})
	m.disc.Start()
	m.log.Info("Discovering peers")
	m.setMode(ModeDiscovering)
}

// connect sets the mode to connected straight away. Sends issued before
// the dial completes are held by the connection.
func (m *Manager) connect(p peer.Identity) {
	if m.Mode() != ModeDiscovering || m.disc == nil {
		m.log.Warnf("Ignoring connect to %s, not discovering", p.ServiceLabel)
		return
	}

	m.disc.Stop()
	m.disc = nil

	m.log.Infof("Connecting to %s", p.DisplayName())
	m.conn = peer.Dial(m.loop, m.cfg.Network, p.Address, m, m.cfg.Connection)
	m.setMode(ModeConnected)
}

func (m *Manager) disconnect() {
	c := m.conn
	if c == nil {
		m.reset()
		return
	}

	c.Send(&protocol.Disconnect{}, func(err error) {
		if err != nil {
			m.log.WithError(err).Debug("Disconnect message not delivered")
		}
	})
	m.dropConnection()
}

// dropConnection cancels the active connection and returns to idle. A
// running advertiser is kept so the peer can connect again.
func (m *Manager) dropConnection() {
	if c := m.conn; c != nil {
		m.conn = nil
		c.Cancel()
	}
	if m.disc != nil {
		m.disc.Stop()
		m.disc = nil
	}
	m.setMode(ModeIdle)
}

// reset releases everything and returns to idle. It is idempotent.
func (m *Manager) reset() {
	if m.adv != nil {
		m.adv.Stop()
		m.adv = nil
	}
	if m.disc != nil {
		m.disc.Stop()
		m.disc = nil
	}
	if c := m.conn; c != nil {
		m.conn = nil
		c.Cancel()
	}

	label := ""
	m.label.Store(&label)

	if len(*m.peers.Load()) > 0 {
		m.publishPeers([]peer.Identity{})
	}
	m.setMode(ModeIdle)
}

func (m *Manager) setMode(mode Mode) {
	if Mode(m.mode.Swap(int32(mode))) == mode {
		return
	}
	metrics.Mode.Set(float64(mode))

	fns := snapshot(&m.subs.mu, &m.subs.modeChanged)
	for _, fn := range fns {
		fn(mode)
	}
}

func (m *Manager) publishPeers(peers []peer.Identity) {
	m.peers.Store(&peers)

	fns := snapshot(&m.subs.mu, &m.subs.peersChanged)
	for _, fn := range fns {
		fn(append([]peer.Identity(nil), peers...))
	}
}

// ActiveConnection is consulted by the advertiser for each inbound stream.
func (m *Manager) ActiveConnection() *peer.Connection { return m.conn }

func (m *Manager) InstallConnection(c *peer.Connection) {
	m.conn = c
}

func (m *Manager) AdvertiserFailed(err error) {
	m.adv = nil
	m.reset()
	m.relayError(err)
}

func (m *Manager) DiscovererFailed(err error) {
	m.disc = nil
	m.reset()
	m.relayError(err)
}

func (m *Manager) PeersChanged(peers []peer.Identity) {
	if m.disc == nil {
		return
	}
	m.publishPeers(peers)
}

func (m *Manager) ConnectionReady(c *peer.Connection) {
	if c != m.conn {
		return
	}
	m.setMode(ModeConnected)

	fns := snapshot(&m.subs.mu, &m.subs.ready)
	for _, fn := range fns {
		fn()
	}
}

func (m *Manager) ConnectionFailed(c *peer.Connection, err error) {
	if c == m.conn {
		m.log.WithError(err).Warn("Connection failed")
		m.dropConnection()
	}

	fns := snapshot(&m.subs.mu, &m.subs.failed)
	for _, fn := range fns {
		fn(err)
	}
}

func (m *Manager) ConnectionLost(c *peer.Connection) {
	if c == m.conn {
		m.log.Info("Connection lost")
		m.dropConnection()
	}

	fns := snapshot(&m.subs.mu, &m.subs.lost)
	for _, fn := range fns {
		fn()
	}
}

// ConnectionMessage relays msg. A peer Disconnect drops the connection
// without answering.
func (m *Manager) ConnectionMessage(c *peer.Connection, msg protocol.Message) {
	if c != m.conn {
		return
	}

	fns := snapshot(&m.subs.mu, &m.subs.message)
	for _, fn := range fns {
		fn(msg)
	}

	if _, ok := msg.(*protocol.Disconnect); ok && c == m.conn {
		m.log.Info("Peer disconnected")
		m.dropConnection()
	}
}

func (m *Manager) relayError(err error) {
	fns := snapshot(&m.subs.mu, &m.subs.errors)
	for _, fn := range fns {
		fn(err)
	}
}

func snapshot[T any](mu *sync.RWMutex, fns *[]T) []T {
	mu.RLock()
	defer mu.RUnlock()
	return append([]T(nil), *fns...)
}

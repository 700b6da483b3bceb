package action

import (
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/protocol"
)

// Controller is the remote control side: it asks a target for its actions
// and triggers them.
type Controller struct {
	session Session
	log     *logrus.Entry

	mu          sync.RWMutex
	descriptors []protocol.Descriptor
	listeners   []func([]protocol.Descriptor)
}

func NewController(s Session, log *logrus.Logger) *Controller {
	c := &Controller{
		session: s,
		log:     log.WithField("component", "controller"),
	}
	s.OnMessage(c.handle)
	s.OnLost(c.clear)
	return c
}

func (c *Controller) RequestDescriptors() {
	c.session.Send(&protocol.DescriptorListReq{})
}

// Descriptors returns the last list the target shared.
func (c *Controller) Descriptors() []protocol.Descriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]protocol.Descriptor(nil), c.descriptors...)
}

// OnDescriptors runs fn each time the target shares its list.
func (c *Controller) OnDescriptors(fn func([]protocol.Descriptor)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

func (c *Controller) Play(id uuid.UUID) error  { return c.trigger(id, protocol.ActionPlay) }
func (c *Controller) Pause(id uuid.UUID) error { return c.trigger(id, protocol.ActionPause) }

func (c *Controller) trigger(id uuid.UUID, kind protocol.ActionKind) error {
	d, ok := c.lookup(id)
	if !ok {
		return ErrUnknownAction
	}
	c.session.Send(&protocol.Action{Descriptor: d, Kind: kind})
	return nil
}

func (c *Controller) lookup(id uuid.UUID) (protocol.Descriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, d := range c.descriptors {
		if d.ID == id {
			return d, true
		}
	}
	return protocol.Descriptor{}, false
}

func (c *Controller) clear() {
	c.mu.Lock()
	c.descriptors = nil
	c.mu.Unlock()
}

func (c *Controller) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.DescriptorList:
		c.log.Infof("Target shared %d actions", len(m.Descriptors))

		c.mu.Lock()
		c.descriptors = append([]protocol.Descriptor(nil), m.Descriptors...)
		fns := make([]func([]protocol.Descriptor), len(c.listeners))
		copy(fns, c.listeners)
		c.mu.Unlock()

		for _, fn := range fns {
			fn(append([]protocol.Descriptor(nil), m.Descriptors...))
		}
	case *protocol.Action:
		c.log.Infof("Target ran %s (%s)", m.Descriptor.Name, m.Kind)
	case *protocol.DescriptorListReq:
		c.log.Warn("Ignoring descriptor list request, a controller has no actions")
	}
}

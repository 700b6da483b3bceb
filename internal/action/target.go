package action

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/protocol"
)

// Session is the part of session.Manager the action layer needs.
type Session interface {
	Send(msg protocol.Message)
	OnMessage(fn func(protocol.Message))
	OnLost(fn func())
}

// Target answers a controller on the hosting side: it shares the registry
// on request and runs the actions the controller triggers.
type Target struct {
	session  Session
	registry *Registry
	log      *logrus.Entry
}

func NewTarget(s Session, registry *Registry, log *logrus.Logger) *Target {
	t := &Target{
		session:  s,
		registry: registry,
		log:      log.WithField("component", "target"),
	}
	s.OnMessage(t.handle)
	return t
}

// Register replaces the registered actions and shares the new list with a
// connected controller.
func (t *Target) Register(actions ...Action) {
	t.registry.Register(actions...)
	t.share()
}

func (t *Target) Registry() *Registry { return t.registry }

// Invoke tells the peer that the registered action id ran with kind.
func (t *Target) Invoke(id uuid.UUID, kind protocol.ActionKind) error {
	a, ok := t.registry.Read(id)
	if !ok {
		t.log.Warnf("Not sending unregistered action %s", id)
		return ErrUnknownAction
	}
	t.session.Send(&protocol.Action{Descriptor: a.Describe(), Kind: kind})
	return nil
}

func (t *Target) share() {
	t.session.Send(&protocol.DescriptorList{Descriptors: t.registry.Descriptors()})
}

func (t *Target) handle(msg protocol.Message) {
	switch m := msg.(type) {
	case *protocol.DescriptorListReq:
		t.share()
	case *protocol.DescriptorList:
		t.log.Warnf("Ignoring descriptor list of %d actions, a target cannot use one", len(m.Descriptors))
	case *protocol.Action:
		t.log.Infof("Received %s for %s", m.Kind, m.Descriptor.Name)
		if err := t.registry.Invoke(m.Descriptor.ID, m.Kind); err != nil {
			t.log.WithError(err).Warnf("Cannot run %s", m.Descriptor)
		}
	}
}

package action

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stobo-app/pilot/internal/protocol"
)

type fakeSession struct {
	mu       sync.Mutex
	sent     []protocol.Message
	handlers []func(protocol.Message)
	lost     []func()
}

func (s *fakeSession) Send(msg protocol.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
}

func (s *fakeSession) OnMessage(fn func(protocol.Message)) { s.handlers = append(s.handlers, fn) }
func (s *fakeSession) OnLost(fn func())                    { s.lost = append(s.lost, fn) }

func (s *fakeSession) deliver(msg protocol.Message) {
	for _, fn := range s.handlers {
		fn(msg)
	}
}

func (s *fakeSession) drop() {
	for _, fn := range s.lost {
		fn()
	}
}

func (s *fakeSession) last(t *testing.T) protocol.Message {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatal("nothing was sent")
	}
	return s.sent[len(s.sent)-1]
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

type counter struct{ play, pause int }

func (c *counter) action(name string) *Func {
	return NewFunc(name, name+" action", func() { c.play++ }, func() { c.pause++ })
}

func TestNewFuncDefaults(t *testing.T) {
	f := NewFunc("Lights", "Dim the lights", nil, nil)
	d := f.Describe()

	if d.ID == uuid.Nil {
		t.Error("expected a fresh id")
	}
	if d.TextPausedState != "Play" || d.TextPlayingState != "Is playing" {
		t.Errorf("unexpected state texts %q / %q", d.TextPausedState, d.TextPlayingState)
	}
	if d.SymbolPlayingState != "play" || d.SymbolPausedState != nil {
		t.Errorf("unexpected symbols %q / %v", d.SymbolPlayingState, d.SymbolPausedState)
	}

	// nil callbacks are a no-op
	f.Invoke(protocol.ActionPlay)
	f.Invoke(protocol.ActionPause)
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	var c counter
	r := NewRegistry()

	a, b := c.action("a"), c.action("b")
	r.Register(a, b)
	if r.Len() != 2 {
		t.Fatalf("expected 2 actions, got %d", r.Len())
	}

	d := c.action("d")
	r.Register(d)
	if r.Len() != 1 {
		t.Fatalf("expected 1 action after replace, got %d", r.Len())
	}
	if _, ok := r.Read(a.Descriptor.ID); ok {
		t.Error("expected replaced action to be gone")
	}

	descs := r.Descriptors()
	if len(descs) != 1 || descs[0].Name != "d" {
		t.Errorf("unexpected descriptors %v", descs)
	}
}

func TestRegistry_DescriptorsKeepOrder(t *testing.T) {
	var c counter
	r := NewRegistry()

	names := []string{"one", "two", "three", "four"}
	actions := make([]Action, 0, len(names))
	for _, n := range names {
		actions = append(actions, c.action(n))
	}
	r.Register(actions...)

	for i, d := range r.Descriptors() {
		if d.Name != names[i] {
			t.Errorf("descriptor %d: expected %q, got %q", i, names[i], d.Name)
		}
	}
}

func TestRegistry_Invoke(t *testing.T) {
	var c counter
	r := NewRegistry()
	a := c.action("a")
	r.Register(a)

	if err := r.Invoke(a.Descriptor.ID, protocol.ActionPlay); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if err := r.Invoke(a.Descriptor.ID, protocol.ActionPause); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if c.play != 1 || c.pause != 1 {
		t.Errorf("expected one play and one pause, got %+v", c)
	}

	if err := r.Invoke(uuid.New(), protocol.ActionPlay); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestTarget_RegisterSharesList(t *testing.T) {
	var c counter
	s := &fakeSession{}
	target := NewTarget(s, NewRegistry(), quietLogger())

	target.Register(c.action("a"), c.action("b"))

	list, ok := s.last(t).(*protocol.DescriptorList)
	if !ok {
		t.Fatalf("expected descriptor list, got %T", s.last(t))
	}
	if len(list.Descriptors) != 2 {
		t.Errorf("expected 2 descriptors, got %d", len(list.Descriptors))
	}
}

func TestTarget_AnswersRequest(t *testing.T) {
	var c counter
	s := &fakeSession{}
	target := NewTarget(s, NewRegistry(), quietLogger())
	target.Register(c.action("a"))
	s.sent = nil

	s.deliver(&protocol.DescriptorListReq{})

	list, ok := s.last(t).(*protocol.DescriptorList)
	if !ok || len(list.Descriptors) != 1 || list.Descriptors[0].Name != "a" {
		t.Errorf("unexpected reply %+v", s.last(t))
	}
}

func TestTarget_RunsActions(t *testing.T) {
	var c counter
	s := &fakeSession{}
	target := NewTarget(s, NewRegistry(), quietLogger())
	a := c.action("a")
	target.Register(a)

	s.deliver(&protocol.Action{Descriptor: a.Describe(), Kind: protocol.ActionPlay})
	s.deliver(&protocol.Action{Descriptor: a.Describe(), Kind: protocol.ActionPause})
	s.deliver(&protocol.Action{Descriptor: protocol.Descriptor{ID: uuid.New()}, Kind: protocol.ActionPlay})
	s.deliver(&protocol.DescriptorList{})

	if c.play != 1 || c.pause != 1 {
		t.Errorf("expected one play and one pause, got %+v", c)
	}
}

func TestTarget_Invoke(t *testing.T) {
	var c counter
	s := &fakeSession{}
	target := NewTarget(s, NewRegistry(), quietLogger())
	a := c.action("a")
	target.Register(a)

	if err := target.Invoke(a.Descriptor.ID, protocol.ActionPlay); err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	sent, ok := s.last(t).(*protocol.Action)
	if !ok || sent.Kind != protocol.ActionPlay || sent.Descriptor.ID != a.Descriptor.ID {
		t.Errorf("unexpected message %+v", s.last(t))
	}
	if c.play != 0 {
		t.Error("Invoke should not run the action locally")
	}

	if err := target.Invoke(uuid.New(), protocol.ActionPlay); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestController_ListAndTrigger(t *testing.T) {
	s := &fakeSession{}
	ctrl := NewController(s, quietLogger())

	var got [][]protocol.Descriptor
	ctrl.OnDescriptors(func(d []protocol.Descriptor) { got = append(got, d) })

	ctrl.RequestDescriptors()
	if _, ok := s.last(t).(*protocol.DescriptorListReq); !ok {
		t.Fatalf("expected request, got %T", s.last(t))
	}

	id := uuid.New()
	s.deliver(&protocol.DescriptorList{Descriptors: []protocol.Descriptor{{ID: id, Name: "Lights"}}})

	if len(got) != 1 || len(ctrl.Descriptors()) != 1 {
		t.Fatalf("expected one list, got %d callbacks and %d descriptors", len(got), len(ctrl.Descriptors()))
	}

	if err := ctrl.Play(id); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	play, ok := s.last(t).(*protocol.Action)
	if !ok || play.Kind != protocol.ActionPlay || play.Descriptor.Name != "Lights" {
		t.Errorf("unexpected message %+v", s.last(t))
	}

	if err := ctrl.Pause(id); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	pause, ok := s.last(t).(*protocol.Action)
	if !ok || pause.Kind != protocol.ActionPause {
		t.Errorf("unexpected message %+v", s.last(t))
	}

	if err := ctrl.Play(uuid.New()); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestController_ClearsOnLost(t *testing.T) {
	s := &fakeSession{}
	ctrl := NewController(s, quietLogger())

	id := uuid.New()
	s.deliver(&protocol.DescriptorList{Descriptors: []protocol.Descriptor{{ID: id}}})
	s.drop()

	if len(ctrl.Descriptors()) != 0 {
		t.Error("expected descriptors to be cleared")
	}
	if err := ctrl.Play(id); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

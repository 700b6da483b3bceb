// Package action is the application layer on top of a session: a host
// registers actions and a controller lists and triggers them.
package action

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/stobo-app/pilot/internal/protocol"
)

var ErrUnknownAction = errors.New("unknown action")

// Action is something a controller can play or pause remotely.
type Action interface {
	Describe() protocol.Descriptor
	Invoke(kind protocol.ActionKind)
}

// Func adapts a pair of functions to Action. Pause may be nil.
type Func struct {
	Descriptor protocol.Descriptor
	Play       func()
	Pause      func()
}

// NewFunc returns a Func with a fresh id and the default state texts.
func NewFunc(name, description string, play, pause func()) *Func {
	return &Func{
		Descriptor: protocol.Descriptor{
			ID:                 uuid.New(),
			Name:               name,
			Description:        description,
			TextPausedState:    "Play",
			TextPlayingState:   "Is playing",
			SymbolPlayingState: "play",
		},
		Play:  play,
		Pause: pause,
	}
}

func (f *Func) Describe() protocol.Descriptor { return f.Descriptor }

func (f *Func) Invoke(kind protocol.ActionKind) {
	switch kind {
	case protocol.ActionPlay:
		if f.Play != nil {
			f.Play()
		}
	case protocol.ActionPause:
		if f.Pause != nil {
			f.Pause()
		}
	}
}

// Registry holds the actions a host exposes, in registration order.
type Registry struct {
	mu      sync.RWMutex
	actions map[uuid.UUID]Action
	order   []uuid.UUID
}

func NewRegistry() *Registry {
	return &Registry{actions: make(map[uuid.UUID]Action)}
}

// Register replaces every registered action. A later action with the same
// id as an earlier one wins.
func (r *Registry) Register(actions ...Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions = make(map[uuid.UUID]Action, len(actions))
	r.order = r.order[:0]
	for _, a := range actions {
		id := a.Describe().ID
		if _, ok := r.actions[id]; !ok {
			r.order = append(r.order, id)
		}
		r.actions[id] = a
	}
}

func (r *Registry) Descriptors() []protocol.Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]protocol.Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.actions[id].Describe())
	}
	return out
}

func (r *Registry) Read(id uuid.UUID) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[id]
	return a, ok
}

func (r *Registry) Invoke(id uuid.UUID, kind protocol.ActionKind) error {
	a, ok := r.Read(id)
	if !ok {
		return ErrUnknownAction
	}
	a.Invoke(kind)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

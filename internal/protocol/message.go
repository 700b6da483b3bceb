package protocol

import (
	"fmt"

	"github.com/google/uuid"
)

type Message interface {
	Type() MessageType
}

// Descriptor identifies an action a peer can invoke remotely. The session
// layer carries it as is.
type Descriptor struct {
	ID                 uuid.UUID
	Name               string
	Description        string
	TextPausedState    string
	TextPlayingState   string
	SymbolPausedState  *string
	SymbolPlayingState string
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s(%s)", d.Name, d.ID)
}

// PausedSymbol falls back to the playing symbol when no paused one is set.
func (d Descriptor) PausedSymbol() string {
	if d.SymbolPausedState != nil {
		return *d.SymbolPausedState
	}
	return d.SymbolPlayingState
}

type Disconnect struct{}

func (Disconnect) Type() MessageType { return MsgDisconnect }

type DescriptorListReq struct{}

func (DescriptorListReq) Type() MessageType { return MsgDescriptorListReq }

type DescriptorList struct {
	Descriptors []Descriptor
}

func (DescriptorList) Type() MessageType { return MsgDescriptorList }

type Action struct {
	Descriptor Descriptor
	Kind       ActionKind
}

func (Action) Type() MessageType { return MsgAction }

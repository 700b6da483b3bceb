package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"

	"github.com/stobo-app/pilot/internal/protocol/pb"
)

var (
	ErrEmptyMessage   = errors.New("message has no variant set")
	ErrFrameTooLarge  = errors.New("frame exceeds maximum size")
	ErrUnknownMessage = errors.New("unknown message type")
)

// Codec writes each message as a 4-byte big-endian length followed by the
// protobuf wire encoding of a one-of envelope.
type Codec struct{}

func NewCodec() *Codec {
	return &Codec{}
}

func (c *Codec) Encode(w io.Writer, msg Message) error {
	data, err := c.EncodeToBytes(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func (c *Codec) Decode(r io.Reader) (Message, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, err
	}
	if length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}
	return c.Unmarshal(body)
}

func (c *Codec) EncodeToBytes(msg Message) ([]byte, error) {
	body, err := c.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(body) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(body))
	}

	frame := make([]byte, LengthPrefixSize, LengthPrefixSize+len(body))
	binary.BigEndian.PutUint32(frame, uint32(len(body)))
	return append(frame, body...), nil
}

func (c *Codec) DecodeFromBytes(data []byte) (Message, error) {
	return c.Decode(bytes.NewReader(data))
}

// Marshal encodes the message body without the length prefix.
func (c *Codec) Marshal(msg Message) ([]byte, error) {
	env := &pb.Envelope{}

	switch m := msg.(type) {
	case *Disconnect, Disconnect:
		env.Kind = &pb.Envelope_Disconnect{Disconnect: &pb.Disconnect{}}
	case *DescriptorListReq, DescriptorListReq:
		env.Kind = &pb.Envelope_DescriptorListReq{DescriptorListReq: &pb.DescriptorListRequest{}}
	case *DescriptorList:
		list := &pb.DescriptorList{Descriptors: make([]*pb.ActionDescriptor, 0, len(m.Descriptors))}
		for _, d := range m.Descriptors {
			list.Descriptors = append(list.Descriptors, descriptorToPB(d))
		}
		env.Kind = &pb.Envelope_DescriptorList{DescriptorList: list}
	case DescriptorList:
		return c.Marshal(&m)
	case *Action:
		env.Kind = &pb.Envelope_Action{Action: &pb.Action{
			Target: descriptorToPB(m.Descriptor),
			Kind:   pb.ActionKind(m.Kind),
		}}
	case Action:
		return c.Marshal(&m)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownMessage, msg)
	}

	return proto.Marshal(env)
}

// Unmarshal decodes a message body produced by Marshal. Unknown fields are
// skipped; the last variant on the wire wins.
func (c *Codec) Unmarshal(b []byte) (Message, error) {
	env := &pb.Envelope{}
	if err := proto.Unmarshal(b, env); err != nil {
		return nil, fmt.Errorf("reading envelope: %w", err)
	}

	switch kind := env.GetKind().(type) {
	case *pb.Envelope_Disconnect:
		return &Disconnect{}, nil
	case *pb.Envelope_DescriptorListReq:
		return &DescriptorListReq{}, nil
	case *pb.Envelope_DescriptorList:
		list := &DescriptorList{Descriptors: make([]Descriptor, 0, len(kind.DescriptorList.GetDescriptors()))}
		for _, d := range kind.DescriptorList.GetDescriptors() {
			desc, err := descriptorFromPB(d)
			if err != nil {
				return nil, err
			}
			list.Descriptors = append(list.Descriptors, desc)
		}
		return list, nil
	case *pb.Envelope_Action:
		k := kind.Action.GetKind()
		if k != pb.ActionKind_ACTION_KIND_PLAY && k != pb.ActionKind_ACTION_KIND_PAUSE {
			return nil, fmt.Errorf("invalid action kind %d", k)
		}
		desc, err := descriptorFromPB(kind.Action.GetTarget())
		if err != nil {
			return nil, err
		}
		return &Action{Descriptor: desc, Kind: ActionKind(k)}, nil
	default:
		return nil, ErrEmptyMessage
	}
}

func descriptorToPB(d Descriptor) *pb.ActionDescriptor {
	return &pb.ActionDescriptor{
		Id:                 d.ID[:],
		Name:               d.Name,
		Description:        d.Description,
		TextPausedState:    d.TextPausedState,
		TextPlayingState:   d.TextPlayingState,
		SymbolPausedState:  d.SymbolPausedState,
		SymbolPlayingState: d.SymbolPlayingState,
	}
}

// descriptorFromPB treats a missing id as the nil UUID.
func descriptorFromPB(m *pb.ActionDescriptor) (Descriptor, error) {
	if m == nil {
		return Descriptor{}, nil
	}
	d := Descriptor{
		Name:               m.GetName(),
		Description:        m.GetDescription(),
		TextPausedState:    m.GetTextPausedState(),
		TextPlayingState:   m.GetTextPlayingState(),
		SymbolPausedState:  m.SymbolPausedState,
		SymbolPlayingState: m.GetSymbolPlayingState(),
	}
	if id := m.GetId(); len(id) > 0 {
		parsed, err := uuid.FromBytes(id)
		if err != nil {
			return d, fmt.Errorf("descriptor id: %w", err)
		}
		d.ID = parsed
	}
	return d, nil
}

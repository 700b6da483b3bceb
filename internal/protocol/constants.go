package protocol

const (
	// LengthPrefixSize is the width of the big-endian frame length header.
	LengthPrefixSize = 4
	MaxFrameSize     = 1024 * 1024
	ReadChunkSize    = 64 * 1024
	DescriptorIDSize = 16
)

type MessageType uint16

const (
	MsgAction            MessageType = 0x0020
	MsgDescriptorList    MessageType = 0x0011
	MsgDescriptorListReq MessageType = 0x0010
	MsgDisconnect        MessageType = 0x0001
)

func (t MessageType) String() string {
	switch t {
	case MsgAction:
		return "ACTION"
	case MsgDescriptorList:
		return "DESCRIPTOR_LIST"
	case MsgDescriptorListReq:
		return "DESCRIPTOR_LIST_REQ"
	case MsgDisconnect:
		return "DISCONNECT"
	default:
		return "UNKNOWN"
	}
}

type ActionKind uint8

const (
	ActionPlay  ActionKind = 1
	ActionPause ActionKind = 2
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlay:
		return "play"
	case ActionPause:
		return "pause"
	default:
		return "unknown"
	}
}

// ParseActionKind accepts the names returned by ActionKind.String.
func ParseActionKind(s string) (ActionKind, bool) {
	switch s {
	case "play":
		return ActionPlay, true
	case "pause":
		return ActionPause, true
	default:
		return 0, false
	}
}

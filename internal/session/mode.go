package session

type Mode int32

const (
	ModeIdle Mode = iota
	ModeHosting
	ModeDiscovering
	ModeConnected
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "Not connected"
	case ModeHosting:
		return "Hosting"
	case ModeDiscovering:
		return "Discovering"
	case ModeConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

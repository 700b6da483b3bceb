package peer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/stobo-app/pilot/internal/transport"
)

// Separator joins the application name and device id in a service label.
const Separator = "_"

var (
	ErrInvalidAppName = errors.New("application name is empty or contains the label separator")
	ErrMalformedLabel = errors.New("service label has no device id")
)

// Identity is a discovered peer as decoded from its advertised label.
type Identity struct {
	ServiceLabel    string
	ApplicationName string
	DeviceID        string
	Address         transport.Endpoint
}

func (i Identity) DisplayName() string {
	return fmt.Sprintf("%s on Device %s", i.ApplicationName, i.DeviceID)
}

func (i Identity) String() string {
	return i.ServiceLabel
}

func ValidateAppName(name string) error {
	if name == "" || strings.Contains(name, Separator) {
		return fmt.Errorf("%w: %q", ErrInvalidAppName, name)
	}
	return nil
}

// ComposeLabel builds the label advertised for appName on this device.
func ComposeLabel(appName, deviceID string) (string, error) {
	if err := ValidateAppName(appName); err != nil {
		return "", err
	}
	return appName + Separator + deviceID, nil
}

// ParseLabel splits label at the first separator.
func ParseLabel(label string, addr transport.Endpoint) (Identity, error) {
	parts := strings.SplitN(label, Separator, 2)
	if len(parts) < 2 {
		return Identity{}, fmt.Errorf("%w: %q", ErrMalformedLabel, label)
	}

	return Identity{
		ServiceLabel:    label,
		ApplicationName: parts[0],
		DeviceID:        parts[1],
		Address:         addr,
	}, nil
}

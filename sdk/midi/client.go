// Package midi opens MIDI input devices on the running platform.
package midi

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// ErrDeviceNotFound is returned by FindDevice when no device name matches.
var ErrDeviceNotFound = errors.New("MIDI device not found")

// NewMIDIClient creates a device client for the running platform. Unset options fall back
// to a zap logger at info level and a client named "graphnode".
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return NewClient(&options)
}

// FindDevice returns the first device whose name contains name, ignoring case.
// An empty name selects the first device.
func FindDevice(client contracts.ClientMIDI, name string) (contracts.DeviceInfo, error) {
	devices, err := client.ListDevices()
	if err != nil {
		return contracts.DeviceInfo{}, err
	}
	want := strings.ToLower(name)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), want) {
			return d, nil
		}
	}
	return contracts.DeviceInfo{}, fmt.Errorf("%w: %q among %d devices", ErrDeviceNotFound, name, len(devices))
}

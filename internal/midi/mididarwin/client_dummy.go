//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// ErrCoreMIDIUnavailable is returned by every device operation off macOS.
var ErrCoreMIDIUnavailable = errors.New("CoreMIDI is not available on this platform")

// NewMIDIClient returns a client whose device operations all fail with ErrCoreMIDIUnavailable,
// so builds on other platforms link against the same factory table.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("CoreMIDI unavailable; using placeholder client")
	return unavailable{}, nil
}

type unavailable struct{}

func (unavailable) ListDevices() ([]contracts.DeviceInfo, error) { return nil, ErrCoreMIDIUnavailable }
func (unavailable) SelectDevice(int) error                       { return ErrCoreMIDIUnavailable }
func (unavailable) StartCapture(chan contracts.MIDI)             {}
func (unavailable) Stop() error                                  { return nil }

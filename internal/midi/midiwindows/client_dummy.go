//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// ErrWinMMUnavailable is returned by every device operation off Windows.
var ErrWinMMUnavailable = errors.New("winmm MIDI is not available on this platform")

type placeholder struct {
	logger contracts.Logger
}

// NewMIDIClient returns a client that owns no device. StartCapture leaves the channel idle.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return &placeholder{logger: options.Logger}, nil
}

func (p *placeholder) ListDevices() ([]contracts.DeviceInfo, error) {
	return nil, ErrWinMMUnavailable
}

func (p *placeholder) SelectDevice(deviceID int) error {
	p.logger.Debug("winmm unavailable", p.logger.Field().Int("deviceID", deviceID))
	return ErrWinMMUnavailable
}

func (p *placeholder) StartCapture(chan contracts.MIDI) {
	p.logger.Warn("StartCapture ignored: winmm unavailable")
}

func (p *placeholder) Stop() error { return nil }

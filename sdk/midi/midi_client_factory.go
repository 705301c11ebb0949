package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/graphnode/internal/midi/mididarwin"
	"github.com/leandrodaf/graphnode/internal/midi/midiwindows"
	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI.
	"windows": midiwindows.NewMIDIClient, // winmm.
}

// NewClient initializes a MIDI client for runtime.GOOS, or returns ErrUnsupportedOS.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}

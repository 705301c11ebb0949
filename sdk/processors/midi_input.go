package processors

import (
	"fmt"
	"sync/atomic"

	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// DefaultMidiInputCapacity is the number of captured events buffered between callbacks.
const DefaultMidiInputCapacity = 256

// MidiInput brings a device's captured events into the graph. It has no audio ports and
// one MIDI output; every block it hands over whatever arrived since the last one.
type MidiInput struct {
	client contracts.ClientMIDI
	logger contracts.Logger
	events chan contracts.MIDI
	buf    []contracts.MIDI
	device atomic.Int32
}

// NewMidiInput wraps client. capacity bounds both the capture channel and the events
// delivered per block; values below 1 use DefaultMidiInputCapacity.
func NewMidiInput(client contracts.ClientMIDI, logger contracts.Logger, capacity int) *MidiInput {
	if capacity < 1 {
		capacity = DefaultMidiInputCapacity
	}
	m := &MidiInput{
		client: client,
		logger: logger,
		events: make(chan contracts.MIDI, capacity),
		buf:    make([]contracts.MIDI, 0, capacity),
	}
	m.device.Store(-1)
	return m
}

func (m *MidiInput) Name() string               { return "MIDI Input" }
func (m *MidiInput) NumAudioInputs() int        { return 0 }
func (m *MidiInput) NumAudioOutputs() int       { return 0 }
func (m *MidiInput) AcceptsMidi() bool          { return false }
func (m *MidiInput) ProducesMidi() bool         { return true }
func (m *MidiInput) LatencySamples() int        { return 0 }
func (m *MidiInput) IOKind() contracts.IOKind   { return contracts.IOKindMidiInput }
func (m *MidiInput) Prepare(float64, int) error { return nil }

// Release discards events captured while the node was not rendering.
func (m *MidiInput) Release() {
	for {
		select {
		case <-m.events:
		default:
			return
		}
	}
}

// Open selects deviceID on the client and starts capturing into the input's buffer.
func (m *MidiInput) Open(deviceID int) error {
	if err := m.client.SelectDevice(deviceID); err != nil {
		return fmt.Errorf("open MIDI device %d: %w", deviceID, err)
	}
	m.client.StartCapture(m.events)
	m.device.Store(int32(deviceID))
	m.logger.Info("MIDI input opened", m.logger.Field().Int("deviceID", deviceID))
	return nil
}

// Device returns the opened device index, or -1.
func (m *MidiInput) Device() int { return int(m.device.Load()) }

// Process replaces the block's MIDI with the events captured since the previous block,
// all at offset 0. It never waits for the device.
func (m *MidiInput) Process(b *contracts.Block) {
	out := m.buf[:0]
	for len(out) < cap(out) {
		select {
		case ev := <-m.events:
			ev.Offset = 0
			out = append(out, ev)
		default:
			b.Midi = out
			return
		}
	}
	b.Midi = out
}

// Close stops the capture. The owning node calls it on its last release.
func (m *MidiInput) Close() error {
	m.device.Store(-1)
	return m.client.Stop()
}

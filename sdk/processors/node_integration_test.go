package processors_test

import (
	"bytes"
	"testing"

	"github.com/leandrodaf/graphnode/internal/logger"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"github.com/leandrodaf/graphnode/sdk/node"
	"github.com/leandrodaf/graphnode/sdk/notify"
	"github.com/leandrodaf/graphnode/sdk/processors"
	"gitlab.com/gomidi/midi/v2"
)

func TestSynthNodeFiltersChannelsAndMeters(t *testing.T) {
	synth := processors.NewSineSynth(2)
	n, err := node.New(1, synth,
		node.WithLogger(logger.NewNopLogger()),
		node.WithDispatcher(notify.NewDispatcher()),
		node.WithMidiChannels(midifilter.Only(2)))
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Prepare(48000, 512, nil, true); err != nil {
		t.Fatal(err)
	}

	block := &contracts.Block{Audio: [][]float64{make([]float64, 512), make([]float64, 512)}}
	block.Midi = []contracts.MIDI{{Message: midi.NoteOn(0, 60, 127)}}
	n.Process(block)
	if n.OutputRMS(0) != 0 {
		t.Errorf("Expected channel 1 note to be filtered, got RMS %v", n.OutputRMS(0))
	}

	block.Midi = append(block.Midi[:0], contracts.MIDI{Message: midi.NoteOn(1, 60, 127)})
	n.Process(block)
	if n.OutputRMS(0) == 0 || n.OutputRMS(1) == 0 {
		t.Error("Expected channel 2 note to sound on both outputs")
	}
	if n.TypeString() != "processor" || n.MidiInputPort() != 2 {
		t.Errorf("Expected processor with MIDI input at port 2, got %s/%d", n.TypeString(), n.MidiInputPort())
	}
}

func TestSynthNodeStateCarriesProcessorSettings(t *testing.T) {
	synth := processors.NewSineSynth(1)
	synth.SetLevel(0.8)
	n, err := node.New(7, synth,
		node.WithLogger(logger.NewNopLogger()),
		node.WithDispatcher(notify.NewDispatcher()))
	if err != nil {
		t.Fatal(err)
	}

	record, err := n.Externalize()
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := node.EncodeState(&buf, record); err != nil {
		t.Fatal(err)
	}
	decoded, err := node.DecodeState(&buf)
	if err != nil {
		t.Fatal(err)
	}

	fresh := processors.NewSineSynth(1)
	restored, err := node.Restore(7, fresh, decoded,
		node.WithLogger(logger.NewNopLogger()),
		node.WithDispatcher(notify.NewDispatcher()))
	if err != nil {
		t.Fatalf("Expected restore to succeed, got %v", err)
	}
	if fresh.Level() != 0.8 {
		t.Errorf("Expected level 0.8, got %v", fresh.Level())
	}
	if restored.UUID() != n.UUID() {
		t.Error("Expected identity preserved")
	}
}

func TestMidiInputNodeIsMidiIO(t *testing.T) {
	in := processors.NewMidiInput(&nopClient{}, logger.NewNopLogger(), 8)
	n, err := node.New(2, in,
		node.WithLogger(logger.NewNopLogger()),
		node.WithDispatcher(notify.NewDispatcher()))
	if err != nil {
		t.Fatal(err)
	}
	if !n.IsMidiIONode() || n.TypeString() != "midi-io" {
		t.Errorf("Expected a MIDI I/O node, got %s", n.TypeString())
	}
	if n.MidiOutputPort() != 0 || n.NumPorts() != 1 {
		t.Errorf("Expected a single MIDI output port, got %d ports", n.NumPorts())
	}
	if err := n.Release(); err != nil {
		t.Errorf("Expected clean release, got %v", err)
	}
}

type nopClient struct{}

func (nopClient) Stop() error                                  { return nil }
func (nopClient) ListDevices() ([]contracts.DeviceInfo, error) { return nil, nil }
func (nopClient) SelectDevice(int) error                       { return nil }
func (nopClient) StartCapture(chan contracts.MIDI)             {}

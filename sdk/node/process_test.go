package node

import (
	"math"
	"testing"

	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"gitlab.com/gomidi/midi/v2"
)

func filled(channels, samples int, v float64) [][]float64 {
	audio := make([][]float64, channels)
	for ch := range audio {
		audio[ch] = make([]float64, samples)
		for i := range audio[ch] {
			audio[ch][i] = v
		}
	}
	return audio
}

func preparedNode(t *testing.T, proc *fakeProc, blockSize int) *Node {
	t.Helper()
	n, _ := newTestNode(t, 1, proc)
	if err := n.Prepare(48000, blockSize, nil, true); err != nil {
		t.Fatalf("Expected prepare to succeed, got %v", err)
	}
	return n
}

func TestProcessUnpreparedWritesSilence(t *testing.T) {
	n, _ := newTestNode(t, 1, &fakeProc{ins: 1, outs: 1, midiIn: true})
	b := &contracts.Block{
		Audio: filled(1, 8, 1),
		Midi:  []contracts.MIDI{{Message: midi.NoteOn(0, 60, 100)}},
	}

	n.Process(b)

	for i, v := range b.Audio[0] {
		if v != 0 {
			t.Fatalf("sample %d: expected silence, got %v", i, v)
		}
	}
	if len(b.Midi) != 0 {
		t.Errorf("Expected MIDI dropped, got %d events", len(b.Midi))
	}
}

func TestProcessSuspendedWritesSilence(t *testing.T) {
	proc := &fakeProc{ins: 1, outs: 1}
	n := preparedNode(t, proc, 8)
	n.SetOutputRMS(0, 0.5)
	n.SuspendProcessing(true)

	b := &contracts.Block{Audio: filled(1, 8, 1)}
	n.Process(b)

	if b.Audio[0][3] != 0 {
		t.Errorf("Expected silence, got %v", b.Audio[0][3])
	}
	if n.OutputRMS(0) != 0 {
		t.Errorf("Expected meter reset, got %v", n.OutputRMS(0))
	}
}

func TestProcessRampsGainChange(t *testing.T) {
	n := preparedNode(t, &fakeProc{ins: 1, outs: 1}, 4)
	n.SetGain(0.5)

	b := &contracts.Block{Audio: filled(1, 4, 1)}
	n.Process(b)

	expected := []float64{0.875, 0.75, 0.625, 0.5}
	for i, want := range expected {
		if math.Abs(b.Audio[0][i]-want) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, want, b.Audio[0][i])
		}
	}
	if n.LastGain() != 0.5 {
		t.Errorf("Expected last gain 0.5 after the block, got %v", n.LastGain())
	}

	b = &contracts.Block{Audio: filled(1, 4, 1)}
	n.Process(b)
	for i, v := range b.Audio[0] {
		if v != 0.5 {
			t.Errorf("sample %d: expected steady 0.5, got %v", i, v)
		}
	}
}

func TestProcessRampsLongBlocksInChunks(t *testing.T) {
	n := preparedNode(t, &fakeProc{ins: 1, outs: 1}, 4)
	n.SetGain(0)

	b := &contracts.Block{Audio: filled(1, 10, 1)}
	n.Process(b)

	for i, v := range b.Audio[0] {
		want := 1 - float64(i+1)/10
		if math.Abs(v-want) > 1e-12 {
			t.Errorf("sample %d: expected %v, got %v", i, want, v)
		}
	}
}

func TestProcessMetersLevels(t *testing.T) {
	n := preparedNode(t, &fakeProc{ins: 2, outs: 1}, 16)
	n.SetInputGain(0.5)
	n.UpdateGain()

	b := &contracts.Block{Audio: filled(2, 16, 0.8)}
	n.Process(b)

	if got := n.InputRMS(0); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Expected input RMS 0.4, got %v", got)
	}
	if got := n.InputRMS(1); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Expected input RMS 0.4 on channel 1, got %v", got)
	}
	if got := n.OutputRMS(0); math.Abs(got-0.4) > 1e-12 {
		t.Errorf("Expected output RMS 0.4, got %v", got)
	}
}

func TestProcessMidiGate(t *testing.T) {
	proc := &fakeProc{ins: 0, outs: 1, midiIn: true}
	n := preparedNode(t, proc, 8)
	n.SetMidiChannels(midifilter.Only(1))
	if err := n.SetKeyRange(40, 80); err != nil {
		t.Fatal(err)
	}
	if err := n.SetTransposeOffset(12); err != nil {
		t.Fatal(err)
	}

	b := &contracts.Block{
		Audio: filled(1, 8, 0),
		Midi: []contracts.MIDI{
			{Message: midi.NoteOn(0, 60, 100)},
			{Message: midi.NoteOn(1, 60, 100)},
			{Message: midi.NoteOn(0, 30, 100)},
			{Message: midi.NoteOff(0, 80)},
			{Message: midi.ControlChange(1, 7, 100)},
			{Message: midi.Message{0xF8}},
		},
	}
	n.Process(b)

	if len(proc.seenMidi) != 3 {
		t.Fatalf("Expected 3 events to reach the processor, got %d", len(proc.seenMidi))
	}
	var ch, key, vel uint8
	if !proc.seenMidi[0].Message.GetNoteOn(&ch, &key, &vel) || key != 72 {
		t.Errorf("Expected note on transposed to 72, got %v", proc.seenMidi[0].Message)
	}
	if !proc.seenMidi[1].Message.GetNoteOff(&ch, &key, &vel) || key != 92 {
		t.Errorf("Expected note off transposed to 92, got %v", proc.seenMidi[1].Message)
	}
	if proc.seenMidi[2].Message[0] != 0xF8 {
		t.Errorf("Expected clock to pass, got %v", proc.seenMidi[2].Message)
	}
}

func TestProcessMidiGateFollowsPolyAftertouch(t *testing.T) {
	proc := &fakeProc{outs: 1, midiIn: true}
	n := preparedNode(t, proc, 8)
	if err := n.SetKeyRange(40, 80); err != nil {
		t.Fatal(err)
	}
	if err := n.SetTransposeOffset(12); err != nil {
		t.Fatal(err)
	}

	b := &contracts.Block{Midi: []contracts.MIDI{
		{Message: midi.NoteOn(0, 60, 100)},
		{Message: midi.PolyAfterTouch(0, 60, 10)},
		{Message: midi.PolyAfterTouch(0, 30, 10)},
		{Message: midi.AfterTouch(0, 20)},
	}}
	n.Process(b)

	if len(b.Midi) != 3 {
		t.Fatalf("Expected 3 surviving events, got %d", len(b.Midi))
	}
	var ch, key, pressure uint8
	if !b.Midi[1].Message.GetPolyAfterTouch(&ch, &key, &pressure) || key != 72 || pressure != 10 {
		t.Errorf("Expected aftertouch on key 72, got %v", b.Midi[1].Message)
	}
	if b.Midi[0].Message[1] != 72 {
		t.Errorf("Expected note on key 72, got %d", b.Midi[0].Message[1])
	}
	if !b.Midi[2].Message.GetAfterTouch(&ch, &pressure) {
		t.Errorf("Expected channel pressure to pass untouched, got %v", b.Midi[2].Message)
	}
}

func TestProcessMidiGateDropsTransposedOutOfRange(t *testing.T) {
	proc := &fakeProc{outs: 1, midiIn: true}
	n := preparedNode(t, proc, 8)
	if err := n.SetTransposeOffset(24); err != nil {
		t.Fatal(err)
	}

	b := &contracts.Block{
		Audio: filled(1, 8, 0),
		Midi: []contracts.MIDI{
			{Message: midi.NoteOn(0, 110, 100)},
			{Message: midi.NoteOn(0, 100, 100)},
		},
	}
	n.Process(b)

	if len(b.Midi) != 1 {
		t.Fatalf("Expected 1 surviving event, got %d", len(b.Midi))
	}
	if b.Midi[0].Message[1] != 124 {
		t.Errorf("Expected key 124, got %d", b.Midi[0].Message[1])
	}
}

func TestProcessOmniPassesAllChannels(t *testing.T) {
	proc := &fakeProc{outs: 1, midiIn: true}
	n := preparedNode(t, proc, 8)

	b := &contracts.Block{Midi: []contracts.MIDI{
		{Message: midi.NoteOn(0, 60, 1)},
		{Message: midi.NoteOn(15, 60, 1)},
	}}
	n.Process(b)

	if len(proc.seenMidi) != 2 {
		t.Errorf("Expected both channels to pass in omni, got %d", len(proc.seenMidi))
	}
}

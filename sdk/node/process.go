package node

import (
	"github.com/leandrodaf/graphnode/internal/dsp"
	"github.com/leandrodaf/graphnode/internal/rt"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
)

// Process renders one block on the audio thread. Incoming MIDI is gated by the channel
// filter, then notes and polyphonic aftertouch by key range and transpose. The input gain is
// applied before the processor runs and the output gain after, each ramping over the block
// when it changed since the last one.
// An unprepared or suspended node writes silence and drops the block's MIDI.
//
// The block's events are rewritten in place; the caller must not share their bytes with
// another block.
func (n *Node) Process(b *contracts.Block) {
	if b == nil {
		return
	}
	scratch := n.scratch.Load()
	if scratch == nil || !n.prepared.Get() || n.suspended.Get() {
		n.silence(b)
		return
	}

	if len(b.Midi) > 0 {
		b.Midi = n.gateMidi(b.Midi)
	}

	ins, outs := n.inRMS.Load(), n.outRMS.Load()
	fromIn, toIn := n.lastInputGain.Get(), n.inputGain.Get()
	applyGain(scratch, b.Audio, ins, fromIn, toIn)

	n.proc.Process(b)

	fromOut, toOut := n.lastGain.Get(), n.gain.Get()
	applyGain(scratch, b.Audio, outs, fromOut, toOut)

	// Advance to what this block actually ramped to, so a change published mid-block is
	// still ramped in the next one.
	n.lastInputGain.Set(toIn)
	n.lastGain.Set(toOut)
}

func applyGain(scratch *dsp.Scratch, audio [][]float64, meters *rt.Meters, from, to float64) {
	count := min(meters.Len(), len(audio))
	for ch := 0; ch < count; ch++ {
		scratch.ApplyGain(audio[ch], from, to)
		meters.Set(ch, scratch.RMS(audio[ch]))
	}
}

func (n *Node) silence(b *contracts.Block) {
	dsp.Clear(b.Audio)
	clear(b.Midi)
	b.Midi = b.Midi[:0]
	n.inRMS.Load().Reset()
	n.outRMS.Load().Reset()
}

// gateMidi filters events in place and returns the surviving prefix.
func (n *Node) gateMidi(events []contracts.MIDI) []contracts.MIDI {
	channels := midifilter.FromBits(uint32(n.midiFilter.Get()))
	low, high := n.KeyRange()
	transpose := n.transposeOffset.Get()

	kept := 0
	for _, ev := range events {
		if gateEvent(ev, channels, low, high, transpose) {
			events[kept] = ev
			kept++
		}
	}
	clear(events[kept:])
	return events[:kept]
}

func gateEvent(ev contracts.MIDI, channels midifilter.Channels, low, high, transpose int) bool {
	msg := ev.Message
	var ch, key, vel uint8
	if msg.GetChannel(&ch) && !channels.Accepts(int(ch)+1) {
		return false
	}
	if !msg.GetNoteOn(&ch, &key, &vel) && !msg.GetNoteOff(&ch, &key, &vel) &&
		!msg.GetPolyAfterTouch(&ch, &key, &vel) {
		return true
	}
	if int(key) < low || int(key) > high {
		return false
	}
	shifted := int(key) + transpose
	if shifted < minKey || shifted > maxKey {
		return false
	}
	msg[1] = byte(shifted)
	return true
}

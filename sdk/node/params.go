package node

import (
	"fmt"
	"sync"

	"github.com/leandrodaf/graphnode/sdk/midifilter"
)

const (
	minKey       = 0
	maxKey       = 127
	maxTranspose = 24
)

// SetGain publishes a new output gain. The audio thread ramps to it over the next block.
func (n *Node) SetGain(g float64) { n.gain.Set(g) }

// SetInputGain publishes a new input gain.
func (n *Node) SetInputGain(g float64) { n.inputGain.Set(g) }

func (n *Node) Gain() float64          { return n.gain.Get() }
func (n *Node) InputGain() float64     { return n.inputGain.Get() }
func (n *Node) LastGain() float64      { return n.lastGain.Get() }
func (n *Node) LastInputGain() float64 { return n.lastInputGain.Get() }

// UpdateGain advances the "last" cells to the live gains. After it runs the audio thread
// sees no pending change until the next SetGain or SetInputGain.
func (n *Node) UpdateGain() {
	n.lastGain.AdvanceTo(&n.gain)
	n.lastInputGain.AdvanceTo(&n.inputGain)
}

// SetKeyRange sets the inclusive note range the node accepts.
// Out-of-bounds or inverted ranges are rejected and the previous range is kept.
func (n *Node) SetKeyRange(low, high int) error {
	if low < minKey || high > maxKey || low > high {
		n.logger.Warn("rejected key range",
			n.logger.Field().Int64("nodeID", int64(n.id)),
			n.logger.Field().Int("low", low),
			n.logger.Field().Int("high", high))
		return fmt.Errorf("%w: [%d, %d]", ErrInvalidKeyRange, low, high)
	}
	n.keyRange.Set(packKeyRange(low, high))
	return nil
}

// KeyRange returns the inclusive note range.
func (n *Node) KeyRange() (low, high int) {
	return unpackKeyRange(n.keyRange.Get())
}

// Both bounds share one cell so the audio thread never reads a half-applied range.
func packKeyRange(low, high int) int { return low<<8 | high }

func unpackKeyRange(v int) (low, high int) { return v >> 8 & 0xFF, v & 0xFF }

// SetTransposeOffset sets the semitone shift applied to incoming notes, within [-24, 24].
// Out-of-range values are rejected and the previous offset is kept.
func (n *Node) SetTransposeOffset(semitones int) error {
	if semitones < -maxTranspose || semitones > maxTranspose {
		n.logger.Warn("rejected transpose offset",
			n.logger.Field().Int64("nodeID", int64(n.id)),
			n.logger.Field().Int("offset", semitones))
		return fmt.Errorf("%w: %d", ErrInvalidTranspose, semitones)
	}
	n.transposeOffset.Set(semitones)
	return nil
}

// TransposeOffset returns the semitone shift.
func (n *Node) TransposeOffset() int { return n.transposeOffset.Get() }

// PropertyLock exposes the lock guarding the MIDI channel set and the property bag,
// for editors that read several of them as one snapshot.
func (n *Node) PropertyLock() sync.Locker { return &n.propertyLock }

// SetMidiChannels replaces the MIDI channel filter.
func (n *Node) SetMidiChannels(ch midifilter.Channels) {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	n.midiChannels = ch
	n.midiFilter.Set(int(ch.Bits()))
}

// MidiChannels returns a copy of the MIDI channel filter.
func (n *Node) MidiChannels() midifilter.Channels {
	n.propertyLock.Lock()
	defer n.propertyLock.Unlock()
	return n.midiChannels
}

// SetInputRMS stores the level of an audio input channel. Out-of-range channels are ignored.
func (n *Node) SetInputRMS(ch int, v float64) { n.inRMS.Load().Set(ch, v) }

// InputRMS returns the level of an audio input channel, or 0 when ch is out of range.
func (n *Node) InputRMS(ch int) float64 { return n.inRMS.Load().Get(ch) }

// SetOutputRMS stores the level of an audio output channel. Out-of-range channels are ignored.
func (n *Node) SetOutputRMS(ch int, v float64) { n.outRMS.Load().Set(ch, v) }

// OutputRMS returns the level of an audio output channel, or 0 when ch is out of range.
func (n *Node) OutputRMS(ch int) float64 { return n.outRMS.Load().Get(ch) }

// NumMeters returns how many input and output RMS cells are allocated.
func (n *Node) NumMeters() (in, out int) {
	return n.inRMS.Load().Len(), n.outRMS.Load().Len()
}

// SetEnabled marks whether the node takes part in rendering. Observers registered with
// OnEnablementChanged are notified later, on the dispatcher's goroutine; toggles made
// before that delivery collapse into one notification carrying the latest state.
func (n *Node) SetEnabled(enabled bool) {
	if n.enabled.Swap(enabled) == enabled {
		return
	}
	n.enablement.Trigger()
}

// IsEnabled reports whether the node takes part in rendering. Safe on the audio thread.
func (n *Node) IsEnabled() bool { return n.enabled.Get() }

// OnEnablementChanged registers fn and returns a function that unregisters it.
func (n *Node) OnEnablementChanged(fn func(*Node)) (disconnect func()) {
	n.observerMu.Lock()
	id := n.nextObserver
	n.nextObserver++
	n.observers[id] = fn
	n.observerMu.Unlock()

	return func() {
		n.observerMu.Lock()
		delete(n.observers, id)
		n.observerMu.Unlock()
	}
}

func (n *Node) handleEnablementChanged() {
	n.observerMu.Lock()
	fns := make([]func(*Node), 0, len(n.observers))
	for id := 0; id < n.nextObserver; id++ {
		if fn, ok := n.observers[id]; ok {
			fns = append(fns, fn)
		}
	}
	n.observerMu.Unlock()

	for _, fn := range fns {
		fn(n)
	}
}

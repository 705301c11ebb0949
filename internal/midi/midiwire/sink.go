package midiwire

import (
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/graphnode/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

// Sink hands messages from a driver callback to the channel given to StartCapture.
//
// Deliver holds a read lock for the whole batch, so once Attach or Detach returns no
// callback is still sending to the previous channel. Sends never block; events that do not
// fit are counted.
type Sink struct {
	filter  *contracts.MIDIEventFilter
	dropped atomic.Uint64

	mu sync.RWMutex
	ch chan contracts.MIDI
}

// NewSink creates a detached sink. A nil filter passes everything.
func NewSink(filter *contracts.MIDIEventFilter) *Sink {
	return &Sink{filter: filter}
}

// Attach routes deliveries to ch and reports whether another channel was attached.
func (s *Sink) Attach(ch chan contracts.MIDI) (replaced bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	replaced = s.ch != nil
	s.ch = ch
	return replaced
}

// Detach stops deliveries and reports whether a channel was attached.
func (s *Sink) Detach() (attached bool) {
	return s.Attach(nil)
}

// Deliver sends msgs stamped with timestamp. It is a no-op while detached.
func (s *Sink) Deliver(timestamp uint64, msgs ...midi.Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ch == nil {
		return
	}
	for _, msg := range msgs {
		event := contracts.MIDI{Timestamp: timestamp, Message: msg}
		if len(msg) == 0 || !s.filter.Allows(event.Command()) {
			continue
		}
		select {
		case s.ch <- event:
		default:
			s.dropped.Add(1)
		}
	}
}

// TakeDropped returns the number of events dropped on a full channel and resets it.
func (s *Sink) TakeDropped() uint64 { return s.dropped.Swap(0) }

// Package ports maps a processor's per-type channel layout onto one flat port index space.
//
// Ports are numbered by type in contracts.PortTypes order, inputs before outputs within each
// type: audio in, audio out, MIDI in, MIDI out, control in, control out, CV in, CV out.
// A connection saved by port index stays valid as long as the counts do not change.
package ports

import "github.com/leandrodaf/graphnode/sdk/contracts"

const (
	input  = 0
	output = 1
)

// ChannelConfig is a snapshot of how many ports of each type and direction a processor exposes.
// The zero value has no ports.
type ChannelConfig struct {
	counts [len(contracts.PortTypes)][2]int
}

// FromProcessor reads the current layout of proc.
func FromProcessor(proc contracts.Processor) ChannelConfig {
	var c ChannelConfig
	if proc == nil {
		return c
	}
	c.SetCount(contracts.PortTypeAudio, true, proc.NumAudioInputs())
	c.SetCount(contracts.PortTypeAudio, false, proc.NumAudioOutputs())
	if proc.AcceptsMidi() {
		c.SetCount(contracts.PortTypeMidi, true, 1)
	}
	if proc.ProducesMidi() {
		c.SetCount(contracts.PortTypeMidi, false, 1)
	}
	if layout, ok := proc.(contracts.PortLayout); ok {
		for _, t := range []contracts.PortType{contracts.PortTypeControl, contracts.PortTypeCV} {
			c.SetCount(t, true, layout.NumPorts(t, true))
			c.SetCount(t, false, layout.NumPorts(t, false))
		}
	}
	return c
}

// SetCount sets the number of ports of type t in one direction. Negative counts become zero.
func (c *ChannelConfig) SetCount(t contracts.PortType, isInput bool, n int) {
	ti := typeIndex(t)
	if ti < 0 {
		return
	}
	if n < 0 {
		n = 0
	}
	c.counts[ti][dir(isInput)] = n
}

// Count returns the number of ports of type t in one direction.
func (c ChannelConfig) Count(t contracts.PortType, isInput bool) int {
	ti := typeIndex(t)
	if ti < 0 {
		return 0
	}
	return c.counts[ti][dir(isInput)]
}

// NumPorts returns the total number of ports.
func (c ChannelConfig) NumPorts() uint32 {
	total := 0
	for ti := range c.counts {
		total += c.counts[ti][input] + c.counts[ti][output]
	}
	return uint32(total)
}

// PortType classifies port, or returns PortTypeUnknown when out of range.
func (c ChannelConfig) PortType(port uint32) contracts.PortType {
	t, _, _, ok := c.locate(port)
	if !ok {
		return contracts.PortTypeUnknown
	}
	return t
}

// IsInput reports whether port is an input. False for invalid ports.
func (c ChannelConfig) IsInput(port uint32) bool {
	_, isInput, _, ok := c.locate(port)
	return ok && isInput
}

// IsOutput reports whether port is an output. False for invalid ports.
func (c ChannelConfig) IsOutput(port uint32) bool {
	_, isInput, _, ok := c.locate(port)
	return ok && !isInput
}

// ChannelPort returns the channel index of port within its {type, direction} group,
// or -1 when port is out of range.
func (c ChannelConfig) ChannelPort(port uint32) int {
	_, _, ch, ok := c.locate(port)
	if !ok {
		return -1
	}
	return ch
}

// PortForChannel maps a channel within a {type, direction} group to its port index.
// Returns contracts.InvalidPort when channel does not exist.
func (c ChannelConfig) PortForChannel(t contracts.PortType, channel int, isInput bool) uint32 {
	ti := typeIndex(t)
	if ti < 0 || channel < 0 || channel >= c.counts[ti][dir(isInput)] {
		return contracts.InvalidPort
	}
	base := 0
	for i := 0; i < ti; i++ {
		base += c.counts[i][input] + c.counts[i][output]
	}
	if !isInput {
		base += c.counts[ti][input]
	}
	return uint32(base + channel)
}

// NthPort is PortForChannel with an optionally one-based index, as editors number ports from 1.
func (c ChannelConfig) NthPort(t contracts.PortType, index int, isInput, oneBased bool) uint32 {
	if oneBased {
		index--
	}
	return c.PortForChannel(t, index, isInput)
}

func (c ChannelConfig) locate(port uint32) (contracts.PortType, bool, int, bool) {
	if port >= c.NumPorts() {
		return contracts.PortTypeUnknown, false, -1, false
	}
	p := int(port)
	for ti, t := range contracts.PortTypes {
		if p < c.counts[ti][input] {
			return t, true, p, true
		}
		p -= c.counts[ti][input]
		if p < c.counts[ti][output] {
			return t, false, p, true
		}
		p -= c.counts[ti][output]
	}
	return contracts.PortTypeUnknown, false, -1, false
}

func typeIndex(t contracts.PortType) int {
	for i, pt := range contracts.PortTypes {
		if pt == t {
			return i
		}
	}
	return -1
}

func dir(isInput bool) int {
	if isInput {
		return input
	}
	return output
}

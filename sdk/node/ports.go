package node

import (
	"github.com/leandrodaf/graphnode/internal/ports"
	"github.com/leandrodaf/graphnode/internal/rt"
	"github.com/leandrodaf/graphnode/sdk/contracts"
)

// ResetPorts re-reads the processor's layout and recreates the RMS cells to match it.
// The owner calls it when the processor's layout changes, outside the audio callback.
func (n *Node) ResetPorts() {
	cfg := ports.FromProcessor(n.proc)
	n.channels.Store(&cfg)
	n.inRMS.Store(rt.NewMeters(cfg.Count(contracts.PortTypeAudio, true)))
	n.outRMS.Store(rt.NewMeters(cfg.Count(contracts.PortTypeAudio, false)))
}

func (n *Node) config() *ports.ChannelConfig {
	return n.channels.Load()
}

// NumPorts returns the total number of ports.
func (n *Node) NumPorts() uint32 { return n.config().NumPorts() }

// NumPortsOf returns the number of ports of type t in one direction.
func (n *Node) NumPortsOf(t contracts.PortType, isInput bool) int {
	return n.config().Count(t, isInput)
}

// NumAudioInputs returns the number of audio input ports.
func (n *Node) NumAudioInputs() int { return n.NumPortsOf(contracts.PortTypeAudio, true) }

// NumAudioOutputs returns the number of audio output ports.
func (n *Node) NumAudioOutputs() int { return n.NumPortsOf(contracts.PortTypeAudio, false) }

// PortType classifies port. Out-of-range ports report contracts.PortTypeUnknown.
func (n *Node) PortType(port uint32) contracts.PortType { return n.config().PortType(port) }

// PortForChannel maps a channel of a {type, direction} group to a port index,
// or contracts.InvalidPort.
func (n *Node) PortForChannel(t contracts.PortType, channel int, isInput bool) uint32 {
	return n.config().PortForChannel(t, channel, isInput)
}

// ChannelPort returns port's channel within its {type, direction} group, or -1.
func (n *Node) ChannelPort(port uint32) int { return n.config().ChannelPort(port) }

// NthPort is PortForChannel with an optionally one-based index.
func (n *Node) NthPort(t contracts.PortType, index int, isInput, oneBased bool) uint32 {
	return n.config().NthPort(t, index, isInput, oneBased)
}

// IsPortInput reports whether port is an input port.
func (n *Node) IsPortInput(port uint32) bool { return n.config().IsInput(port) }

// IsPortOutput reports whether port is an output port.
func (n *Node) IsPortOutput(port uint32) bool { return n.config().IsOutput(port) }

// MidiInputPort returns the first MIDI input port, or contracts.InvalidPort.
func (n *Node) MidiInputPort() uint32 {
	return n.PortForChannel(contracts.PortTypeMidi, 0, true)
}

// MidiOutputPort returns the first MIDI output port, or contracts.InvalidPort.
func (n *Node) MidiOutputPort() uint32 {
	return n.PortForChannel(contracts.PortTypeMidi, 0, false)
}

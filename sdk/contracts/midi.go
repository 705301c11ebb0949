package contracts

import "gitlab.com/gomidi/midi/v2"

// MIDI is a timestamped MIDI message travelling through a node.
type MIDI struct {
	Timestamp uint64       // Capture time in nanoseconds; zero for events generated inside the graph.
	Offset    int          // Sample offset within the current block.
	Message   midi.Message // Raw message bytes, status first.
}

// Command returns the status nibble of a channel message, or the full status byte otherwise.
func (e MIDI) Command() byte {
	if len(e.Message) == 0 {
		return 0
	}
	status := e.Message[0]
	if status >= 0x80 && status <= 0xEF {
		return status & 0xF0
	}
	return status
}

// ClientMIDI defines an interface for MIDI device client operations.
type ClientMIDI interface {
	Stop() error                         // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI devices.
	SelectDevice(deviceID int) error     // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.
}

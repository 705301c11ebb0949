package contracts

import "math"

// PortType classifies a node port.
type PortType int

const (
	// PortTypeUnknown is returned for addresses that do not name a port.
	PortTypeUnknown PortType = iota - 1
	// PortTypeAudio carries one channel of audio samples.
	PortTypeAudio
	// PortTypeMidi carries a MIDI event stream.
	PortTypeMidi
	// PortTypeControl carries a single control value per block.
	PortTypeControl
	// PortTypeCV carries a control-voltage signal at audio rate.
	PortTypeCV
)

// PortTypes lists the registered port types in port-index order.
var PortTypes = [...]PortType{PortTypeAudio, PortTypeMidi, PortTypeControl, PortTypeCV}

// InvalidPort is returned by port lookups that have no answer.
const InvalidPort uint32 = math.MaxUint32

// String returns the slug used in logs and saved records.
func (t PortType) String() string {
	switch t {
	case PortTypeAudio:
		return "audio"
	case PortTypeMidi:
		return "midi"
	case PortTypeControl:
		return "control"
	case PortTypeCV:
		return "cv"
	default:
		return "unknown"
	}
}

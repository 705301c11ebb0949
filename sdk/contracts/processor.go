package contracts

// Block is the unit of work handed to a node once per audio callback.
// Audio holds max(inputs, outputs) channels and is processed in place.
// Midi holds the incoming events and, after processing, the outgoing ones.
type Block struct {
	Audio [][]float64
	Midi  []MIDI
}

// NumSamples returns the block length, taken from the first audio channel.
func (b *Block) NumSamples() int {
	if b == nil || len(b.Audio) == 0 {
		return 0
	}
	return len(b.Audio[0])
}

// Processor is the capability set every wrapped processor provides.
type Processor interface {
	Name() string
	NumAudioInputs() int
	NumAudioOutputs() int
	AcceptsMidi() bool
	ProducesMidi() bool
	LatencySamples() int

	// Prepare is called off the audio thread before any Process call.
	Prepare(sampleRate float64, blockSize int) error
	// Release frees engine resources; Prepare may be called again later.
	Release()
	// Process renders one block. It must not block or allocate.
	Process(block *Block)
}

// PortLayout is implemented by processors that expose port types beyond audio and MIDI.
type PortLayout interface {
	NumPorts(t PortType, isInput bool) int
}

// PluginDescription identifies a hosted plugin.
type PluginDescription struct {
	Name         string
	Manufacturer string
	Version      string
	Format       string
	FileOrID     string
	UID          int32
	IsInstrument bool
	NumInputs    int
	NumOutputs   int
}

// PluginInstance is implemented by processors loaded from a third-party plugin binary.
type PluginInstance interface {
	Processor
	Description() PluginDescription
}

// StatefulProcessor can externalize its state as an opaque blob.
type StatefulProcessor interface {
	State() ([]byte, error)
	RestoreState(data []byte) error
}

// GraphProcessor is implemented by processors that are themselves graphs of nodes.
type GraphProcessor interface {
	Processor
	IsRoot() bool
}

// IOKind tells which device endpoint an I/O processor stands for.
type IOKind int

const (
	IOKindNone IOKind = iota
	IOKindAudioInput
	IOKindAudioOutput
	IOKindMidiInput
	IOKindMidiOutput
)

// IOProcessor is implemented by processors bridging the graph to a device.
type IOProcessor interface {
	IOKind() IOKind
}

// Graph is the owner boundary a node talks back to. Connection topology lives in the graph.
type Graph interface {
	AddConnection(sourceNode, sourcePort, destNode, destPort uint32) bool
	IsRoot() bool
}

// Package node implements the graph node: the unit that wraps one audio/MIDI processor,
// exposes its ports on a flat index space and carries the parameters shared between the
// control thread and the audio thread.
//
// Nodes are created by the graph that owns them. Scalar parameters (gain, key range,
// transpose, enablement, RMS levels) live in lock-free cells. The MIDI channel filter and
// the property bag sit behind a short-held property lock.
package node

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/leandrodaf/graphnode/internal/dsp"
	"github.com/leandrodaf/graphnode/internal/ports"
	"github.com/leandrodaf/graphnode/internal/rt"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"github.com/leandrodaf/graphnode/sdk/notify"
	"go.uber.org/multierr"
)

// Node is one vertex of a processing graph.
type Node struct {
	id     uint32
	uuid   uuid.UUID
	proc   contracts.Processor
	caps   capabilities
	logger contracts.Logger

	channels atomic.Pointer[ports.ChannelConfig]
	inRMS    atomic.Pointer[rt.Meters]
	outRMS   atomic.Pointer[rt.Meters]
	scratch  atomic.Pointer[dsp.Scratch]

	gain, lastGain           rt.Float
	inputGain, lastInputGain rt.Float
	keyRange                 rt.Int
	transposeOffset          rt.Int
	midiFilter               rt.Int // mirror of midiChannels for the audio thread
	enabled                  rt.Bool
	suspended                rt.Bool
	prepared                 rt.Bool

	// Guarded by propertyLock.
	propertyLock sync.Mutex
	midiChannels midifilter.Channels
	properties   map[string]Value

	// Lifecycle state, owned by the control thread.
	mu         sync.Mutex
	parent     contracts.Graph
	sampleRate float64
	blockSize  int

	enablement   *notify.Updater
	observerMu   sync.Mutex
	observers    map[int]func(*Node)
	nextObserver int

	refs     atomic.Int32
	released rt.Bool
}

type capabilities struct {
	plugin   contracts.PluginInstance
	graph    contracts.GraphProcessor
	stateful contracts.StatefulProcessor
	io       contracts.IOKind
}

func resolveCapabilities(proc contracts.Processor) capabilities {
	var c capabilities
	c.plugin, _ = proc.(contracts.PluginInstance)
	c.graph, _ = proc.(contracts.GraphProcessor)
	c.stateful, _ = proc.(contracts.StatefulProcessor)
	if ioProc, ok := proc.(contracts.IOProcessor); ok {
		c.io = ioProc.IOKind()
	}
	return c
}

// New wraps proc in a node with the given id. It is meant to be called by the owning graph,
// which guarantees id is unique among its live nodes. The returned node holds one reference
// on behalf of the caller.
func New(id uint32, proc contracts.Processor, opts ...Option) (*Node, error) {
	if proc == nil {
		return nil, ErrNilProcessor
	}
	options := applyDefaultOptions(opts...)

	n := &Node{
		id:           id,
		uuid:         options.UUID,
		proc:         proc,
		caps:         resolveCapabilities(proc),
		logger:       options.Logger,
		midiChannels: *options.MidiChannels,
		properties:   make(map[string]Value),
		observers:    make(map[int]func(*Node)),
	}
	n.gain.Set(*options.Gain)
	n.lastGain.Set(*options.Gain)
	n.inputGain.Set(*options.InputGain)
	n.lastInputGain.Set(*options.InputGain)
	n.keyRange.Set(packKeyRange(minKey, maxKey))
	n.midiFilter.Set(int(options.MidiChannels.Bits()))
	n.enabled.Set(true)
	n.enablement = options.Dispatcher.NewUpdater(n.handleEnablementChanged)
	n.refs.Store(1)
	n.ResetPorts()

	n.logger.Debug("node created",
		n.logger.Field().Int64("nodeID", int64(id)),
		n.logger.Field().String("processor", proc.Name()),
		n.logger.Field().String("type", n.TypeString()))
	return n, nil
}

// ID returns the identifier assigned by the owning graph.
func (n *Node) ID() uint32 { return n.id }

// UUID returns the persistent identity used in saved records.
func (n *Node) UUID() uuid.UUID { return n.uuid }

// Processor returns the wrapped processor.
func (n *Node) Processor() contracts.Processor { return n.proc }

// Name returns the wrapped processor's name.
func (n *Node) Name() string { return n.proc.Name() }

// LatencySamples returns the processor's reported latency.
func (n *Node) LatencySamples() int { return n.proc.LatencySamples() }

// AudioPluginInstance returns the processor as a plugin instance, or nil if it is not one.
func (n *Node) AudioPluginInstance() contracts.PluginInstance { return n.caps.plugin }

// PluginDescription fills desc when the processor is a plugin instance and reports whether it did.
// desc is left untouched otherwise.
func (n *Node) PluginDescription(desc *contracts.PluginDescription) bool {
	if n.caps.plugin == nil || desc == nil {
		return false
	}
	*desc = n.caps.plugin.Description()
	return true
}

// IsGraph reports whether the processor is itself a graph.
func (n *Node) IsGraph() bool { return n.caps.graph != nil }

// IsRootGraph reports whether the processor is a top-level graph.
func (n *Node) IsRootGraph() bool { return n.caps.graph != nil && n.caps.graph.IsRoot() }

// IsSubGraph reports whether the processor is a graph nested inside another graph.
func (n *Node) IsSubGraph() bool { return n.caps.graph != nil && !n.caps.graph.IsRoot() }

// IsAudioIONode reports whether the processor bridges the graph to an audio device.
func (n *Node) IsAudioIONode() bool {
	return n.caps.io == contracts.IOKindAudioInput || n.caps.io == contracts.IOKindAudioOutput
}

// IsMidiIONode reports whether the processor bridges the graph to a MIDI device.
func (n *Node) IsMidiIONode() bool {
	return n.caps.io == contracts.IOKindMidiInput || n.caps.io == contracts.IOKindMidiOutput
}

// TypeString names the kind of node for editors and saved records.
func (n *Node) TypeString() string {
	switch {
	case n.IsGraph():
		return "graph"
	case n.IsAudioIONode():
		return "audio-io"
	case n.IsMidiIONode():
		return "midi-io"
	case n.caps.plugin != nil:
		return "plugin"
	default:
		return "processor"
	}
}

// ParentGraph returns the owning graph, or nil when the node is not attached.
func (n *Node) ParentGraph() contracts.Graph {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.parent
}

// SetParentGraph attaches the node to g. The owner calls it once per attachment; nil detaches.
func (n *Node) SetParentGraph(g contracts.Graph) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parent = g
}

// ConnectAudioTo asks the parent graph to connect other's audio outputs to this node's audio
// inputs, channel by channel. The graph keeps the topology; the node stores nothing.
func (n *Node) ConnectAudioTo(other *Node) error {
	if other == nil {
		return ErrNilNode
	}
	parent := n.ParentGraph()
	if parent == nil {
		return ErrNoParentGraph
	}
	if other.ParentGraph() != parent {
		return ErrDifferentGraph
	}

	var err error
	total := min(other.NumAudioOutputs(), n.NumAudioInputs())
	for ch := 0; ch < total; ch++ {
		src := other.PortForChannel(contracts.PortTypeAudio, ch, false)
		dst := n.PortForChannel(contracts.PortTypeAudio, ch, true)
		if !parent.AddConnection(other.id, src, n.id, dst) {
			err = multierr.Append(err, fmt.Errorf("%w: channel %d (%d:%d -> %d:%d)",
				ErrConnectionRefused, ch, other.id, src, n.id, dst))
		}
	}
	return err
}

// Retain adds a reference, e.g. for an editor that must keep the node alive while it is open.
// It returns nil once the last reference is gone; a destroyed node cannot be revived.
func (n *Node) Retain() *Node {
	for {
		refs := n.refs.Load()
		if refs <= 0 || n.released.Get() {
			return nil
		}
		if n.refs.CompareAndSwap(refs, refs+1) {
			return n
		}
	}
}

// RefCount returns the number of live references.
func (n *Node) RefCount() int { return int(n.refs.Load()) }

// Release drops a reference. The last release cancels pending notifications, unprepares the
// node and closes the processor if it implements io.Closer.
func (n *Node) Release() error {
	for {
		refs := n.refs.Load()
		if refs <= 0 {
			return ErrReleased
		}
		if !n.refs.CompareAndSwap(refs, refs-1) {
			continue
		}
		if refs > 1 {
			return nil
		}
		return n.destroy()
	}
}

func (n *Node) destroy() error {
	n.released.Set(true)
	n.enablement.Cancel()
	n.Unprepare()
	n.SetParentGraph(nil)

	n.observerMu.Lock()
	clear(n.observers)
	n.observerMu.Unlock()

	var err error
	if closer, ok := n.proc.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	if err != nil {
		n.logger.Error("node destroyed with errors",
			n.logger.Field().Int64("nodeID", int64(n.id)),
			n.logger.Field().Error("error", err))
		return err
	}
	n.logger.Debug("node destroyed", n.logger.Field().Int64("nodeID", int64(n.id)))
	return nil
}

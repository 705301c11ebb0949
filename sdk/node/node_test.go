package node

import (
	"errors"
	"sync"
	"testing"

	"github.com/leandrodaf/graphnode/internal/logger"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/notify"
	"go.uber.org/multierr"
)

type fakeProc struct {
	ins, outs       int
	midiIn, midiOut bool
	prepareErr      error
	prepared        int
	released        int
	seenMidi        []contracts.MIDI
}

func (p *fakeProc) Name() string         { return "fake" }
func (p *fakeProc) NumAudioInputs() int  { return p.ins }
func (p *fakeProc) NumAudioOutputs() int { return p.outs }
func (p *fakeProc) AcceptsMidi() bool    { return p.midiIn }
func (p *fakeProc) ProducesMidi() bool   { return p.midiOut }
func (p *fakeProc) LatencySamples() int  { return 32 }
func (p *fakeProc) Release()             { p.released++ }

func (p *fakeProc) Prepare(float64, int) error {
	if p.prepareErr != nil {
		return p.prepareErr
	}
	p.prepared++
	return nil
}

func (p *fakeProc) Process(b *contracts.Block) {
	p.seenMidi = append(p.seenMidi[:0], b.Midi...)
}

type pluginProc struct{ fakeProc }

func (p *pluginProc) Description() contracts.PluginDescription {
	return contracts.PluginDescription{Name: "Reverb", Manufacturer: "Acme", Format: "VST3", UID: 42}
}

type graphProc struct {
	fakeProc
	root bool
}

func (p *graphProc) IsRoot() bool { return p.root }

type ioProc struct {
	fakeProc
	kind contracts.IOKind
}

func (p *ioProc) IOKind() contracts.IOKind { return p.kind }

type closerProc struct {
	fakeProc
	closed   bool
	closes   int
	closeErr error
}

func (p *closerProc) Close() error {
	p.closed = true
	p.closes++
	return p.closeErr
}

type fakeGraph struct {
	refuse map[uint32]bool
	conns  [][4]uint32
}

func (g *fakeGraph) IsRoot() bool { return true }

func (g *fakeGraph) AddConnection(srcNode, srcPort, dstNode, dstPort uint32) bool {
	if g.refuse[dstPort] {
		return false
	}
	g.conns = append(g.conns, [4]uint32{srcNode, srcPort, dstNode, dstPort})
	return true
}

func newTestNode(t *testing.T, id uint32, proc contracts.Processor, opts ...Option) (*Node, *notify.Dispatcher) {
	t.Helper()
	d := notify.NewDispatcher()
	opts = append([]Option{WithLogger(logger.NewNopLogger()), WithDispatcher(d)}, opts...)
	n, err := New(id, proc, opts...)
	if err != nil {
		t.Fatalf("Expected node, got error %v", err)
	}
	return n, d
}

func TestNewRequiresProcessor(t *testing.T) {
	if _, err := New(1, nil); !errors.Is(err, ErrNilProcessor) {
		t.Errorf("Expected ErrNilProcessor, got %v", err)
	}
}

func TestNewDefaults(t *testing.T) {
	n, _ := newTestNode(t, 3, &fakeProc{ins: 1, outs: 2})

	if n.ID() != 3 {
		t.Errorf("Expected id 3, got %d", n.ID())
	}
	if n.Gain() != 1 || n.InputGain() != 1 {
		t.Errorf("Expected unity gains, got %v and %v", n.Gain(), n.InputGain())
	}
	if low, high := n.KeyRange(); low != 0 || high != 127 {
		t.Errorf("Expected key range [0, 127], got [%d, %d]", low, high)
	}
	if !n.IsEnabled() {
		t.Error("Expected new node to be enabled")
	}
	if !n.MidiChannels().IsOmni() {
		t.Error("Expected omni channel filter")
	}
	if n.IsPrepared() {
		t.Error("Expected new node to be unprepared")
	}
	if n.LatencySamples() != 32 {
		t.Errorf("Expected latency 32, got %d", n.LatencySamples())
	}
	if n.RefCount() != 1 {
		t.Errorf("Expected one reference, got %d", n.RefCount())
	}
}

func TestNodePortRoundTrip(t *testing.T) {
	n, _ := newTestNode(t, 1, &fakeProc{ins: 2, outs: 2, midiIn: true})

	if n.NumPorts() != 5 {
		t.Fatalf("Expected 5 ports, got %d", n.NumPorts())
	}
	for p := uint32(0); p < n.NumPorts(); p++ {
		got := n.PortForChannel(n.PortType(p), n.ChannelPort(p), n.IsPortInput(p))
		if got != p {
			t.Errorf("port %d: round trip gave %d", p, got)
		}
		if n.IsPortInput(p) == n.IsPortOutput(p) {
			t.Errorf("port %d: expected exactly one direction", p)
		}
	}
	if got := n.MidiInputPort(); got != 4 {
		t.Errorf("Expected MIDI input port 4, got %d", got)
	}
	if got := n.MidiOutputPort(); got != contracts.InvalidPort {
		t.Errorf("Expected no MIDI output port, got %d", got)
	}
	if got := n.NthPort(contracts.PortTypeAudio, 2, false, true); got != 3 {
		t.Errorf("Expected second audio output at port 3, got %d", got)
	}
}

func TestCapabilities(t *testing.T) {
	tests := []struct {
		name     string
		proc     contracts.Processor
		typeName string
		graph    bool
		root     bool
		audioIO  bool
		midiIO   bool
	}{
		{"plain", &fakeProc{}, "processor", false, false, false, false},
		{"plugin", &pluginProc{}, "plugin", false, false, false, false},
		{"root graph", &graphProc{root: true}, "graph", true, true, false, false},
		{"sub graph", &graphProc{}, "graph", true, false, false, false},
		{"audio out", &ioProc{kind: contracts.IOKindAudioOutput}, "audio-io", false, false, true, false},
		{"midi in", &ioProc{kind: contracts.IOKindMidiInput}, "midi-io", false, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, _ := newTestNode(t, 1, tt.proc)
			if got := n.TypeString(); got != tt.typeName {
				t.Errorf("Expected type %q, got %q", tt.typeName, got)
			}
			if n.IsGraph() != tt.graph {
				t.Errorf("Expected IsGraph %v", tt.graph)
			}
			if n.IsRootGraph() != tt.root {
				t.Errorf("Expected IsRootGraph %v", tt.root)
			}
			if n.IsSubGraph() != (tt.graph && !tt.root) {
				t.Errorf("Expected IsSubGraph %v", tt.graph && !tt.root)
			}
			if n.IsAudioIONode() != tt.audioIO {
				t.Errorf("Expected IsAudioIONode %v", tt.audioIO)
			}
			if n.IsMidiIONode() != tt.midiIO {
				t.Errorf("Expected IsMidiIONode %v", tt.midiIO)
			}
		})
	}
}

func TestPluginDescription(t *testing.T) {
	plain, _ := newTestNode(t, 1, &fakeProc{})
	desc := contracts.PluginDescription{Name: "untouched"}
	if plain.PluginDescription(&desc) {
		t.Error("Expected no description for a plain processor")
	}
	if desc.Name != "untouched" {
		t.Errorf("Expected description untouched, got %q", desc.Name)
	}
	if plain.AudioPluginInstance() != nil {
		t.Error("Expected nil plugin instance")
	}

	plugin, _ := newTestNode(t, 2, &pluginProc{})
	if !plugin.PluginDescription(&desc) {
		t.Fatal("Expected a description for a plugin")
	}
	if desc.Name != "Reverb" || desc.UID != 42 {
		t.Errorf("Expected Reverb/42, got %s/%d", desc.Name, desc.UID)
	}
	if plugin.AudioPluginInstance() == nil {
		t.Error("Expected plugin instance")
	}
}

func TestConnectAudioTo(t *testing.T) {
	src, _ := newTestNode(t, 1, &fakeProc{outs: 2})
	dst, _ := newTestNode(t, 2, &fakeProc{ins: 1, outs: 1})

	if err := dst.ConnectAudioTo(src); !errors.Is(err, ErrNoParentGraph) {
		t.Errorf("Expected ErrNoParentGraph, got %v", err)
	}
	if err := dst.ConnectAudioTo(nil); !errors.Is(err, ErrNilNode) {
		t.Errorf("Expected ErrNilNode, got %v", err)
	}

	g := &fakeGraph{}
	dst.SetParentGraph(g)
	src.SetParentGraph(&fakeGraph{})
	if err := dst.ConnectAudioTo(src); !errors.Is(err, ErrDifferentGraph) {
		t.Errorf("Expected ErrDifferentGraph, got %v", err)
	}

	src.SetParentGraph(g)
	if err := dst.ConnectAudioTo(src); err != nil {
		t.Fatalf("Expected connection, got %v", err)
	}
	if len(g.conns) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(g.conns))
	}
	// src output channel 0 is port 0; dst input channel 0 is port 0.
	if want := [4]uint32{1, 0, 2, 0}; g.conns[0] != want {
		t.Errorf("Expected %v, got %v", want, g.conns[0])
	}
}

func TestConnectAudioToRefused(t *testing.T) {
	g := &fakeGraph{refuse: map[uint32]bool{0: true, 1: true}}
	src, _ := newTestNode(t, 1, &fakeProc{outs: 2})
	dst, _ := newTestNode(t, 2, &fakeProc{ins: 2})
	src.SetParentGraph(g)
	dst.SetParentGraph(g)

	err := dst.ConnectAudioTo(src)
	if !errors.Is(err, ErrConnectionRefused) {
		t.Fatalf("Expected ErrConnectionRefused, got %v", err)
	}
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("Expected 2 refused channels, got %d", got)
	}
}

func TestReleaseTearsDown(t *testing.T) {
	proc := &closerProc{fakeProc: fakeProc{ins: 1, outs: 1}}
	n, _ := newTestNode(t, 1, proc)
	if err := n.Prepare(48000, 64, &fakeGraph{}, true); err != nil {
		t.Fatalf("Expected prepare to succeed, got %v", err)
	}

	n.Retain()
	if n.RefCount() != 2 {
		t.Fatalf("Expected 2 references, got %d", n.RefCount())
	}
	if err := n.Release(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if proc.closed || !n.IsPrepared() {
		t.Fatal("Expected node to stay alive while referenced")
	}

	if err := n.Release(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if !proc.closed {
		t.Error("Expected processor to be closed")
	}
	if n.IsPrepared() || proc.released != 1 {
		t.Errorf("Expected node unprepared once, released=%d", proc.released)
	}
	if n.ParentGraph() != nil {
		t.Error("Expected parent cleared")
	}

	if err := n.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("Expected ErrReleased, got %v", err)
	}
	if err := n.Prepare(48000, 64, nil, true); !errors.Is(err, ErrReleased) {
		t.Errorf("Expected ErrReleased on prepare, got %v", err)
	}
}

func TestRetainAfterReleaseRefused(t *testing.T) {
	proc := &closerProc{}
	n, _ := newTestNode(t, 1, proc)
	if err := n.Release(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}

	if got := n.Retain(); got != nil {
		t.Error("Expected Retain on a destroyed node to return nil")
	}
	if n.RefCount() != 0 {
		t.Errorf("Expected 0 references, got %d", n.RefCount())
	}
	if err := n.Release(); !errors.Is(err, ErrReleased) {
		t.Errorf("Expected ErrReleased, got %v", err)
	}
	if proc.closes != 1 {
		t.Errorf("Expected processor closed once, got %d", proc.closes)
	}
}

func TestConcurrentRetainRelease(t *testing.T) {
	proc := &closerProc{}
	n, _ := newTestNode(t, 1, proc)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if n.Retain() != nil {
					_ = n.Release()
				}
			}
		}()
	}
	wg.Wait()

	if n.RefCount() != 1 || proc.closes != 0 {
		t.Fatalf("Expected owner reference intact, got refs=%d closes=%d", n.RefCount(), proc.closes)
	}
	if err := n.Release(); err != nil {
		t.Fatalf("Expected nil, got %v", err)
	}
	if proc.closes != 1 {
		t.Errorf("Expected processor closed once, got %d", proc.closes)
	}
}

func TestReleaseReportsCloseError(t *testing.T) {
	boom := errors.New("device busy")
	n, _ := newTestNode(t, 1, &closerProc{closeErr: boom})
	if err := n.Release(); !errors.Is(err, boom) {
		t.Errorf("Expected close error, got %v", err)
	}
}

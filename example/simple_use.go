package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	pa "github.com/gordonklaus/portaudio"
	"github.com/leandrodaf/graphnode/internal/logger"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midi"
	"github.com/leandrodaf/graphnode/sdk/node"
	"github.com/leandrodaf/graphnode/sdk/notify"
	"github.com/leandrodaf/graphnode/sdk/processors"
	gomidi "gitlab.com/gomidi/midi/v2"
)

const (
	sampleRate = 48000
	blockSize  = 256
)

// A two-node chain: a MIDI input node feeding a sine synth node, rendered to the default
// audio output. GRAPHNODE_MIDI_DEVICE picks the input by name. Without a MIDI device the
// synth plays a short arpeggio on its own.
func main() {
	log := logger.NewZapLogger()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dispatcher := notify.NewDispatcher()
	go dispatcher.Run(ctx) //nolint:errcheck // returns ctx.Err on shutdown

	opts := []node.Option{node.WithLogger(log), node.WithDispatcher(dispatcher)}

	synth, err := node.New(1, processors.NewSineSynth(2), append(opts, node.WithGain(0.8))...)
	if err != nil {
		log.Error("Failed to create synth node", log.Field().Error("error", err))
		return
	}
	defer synth.Release()
	synth.OnEnablementChanged(func(n *node.Node) {
		log.Info("Synth enablement changed", log.Field().Bool("enabled", n.IsEnabled()))
	})

	input := openMidiInput(log, opts)
	if input != nil {
		defer input.Release()
	}

	for _, n := range []*node.Node{synth, input} {
		if n == nil {
			continue
		}
		if err := n.Prepare(sampleRate, blockSize, nil, true); err != nil {
			log.Error("Failed to prepare node", log.Field().String("node", n.Name()), log.Field().Error("error", err))
			return
		}
	}

	if err := render(ctx, log, synth, input); err != nil {
		log.Error("Audio output failed", log.Field().Error("error", err))
	}
}

func openMidiInput(log contracts.Logger, opts []node.Option) *node.Node {
	client, err := midi.NewMIDIClient(
		contracts.WithLogger(log),
		contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
			Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
		}),
	)
	if err != nil {
		log.Warn("No MIDI client, playing the built-in arpeggio", log.Field().Error("error", err))
		return nil
	}

	device, err := midi.FindDevice(client, os.Getenv("GRAPHNODE_MIDI_DEVICE"))
	if err != nil {
		log.Warn("No MIDI device, playing the built-in arpeggio", log.Field().Error("error", err))
		_ = client.Stop()
		return nil
	}

	log.Info("Using MIDI device", log.Field().String("device", device.String()))

	in := processors.NewMidiInput(client, log, processors.DefaultMidiInputCapacity)
	if err := in.Open(device.ID); err != nil {
		log.Warn("No MIDI device, playing the built-in arpeggio", log.Field().Error("error", err))
		_ = client.Stop()
		return nil
	}

	n, err := node.New(2, in, opts...)
	if err != nil {
		log.Error("Failed to create MIDI input node", log.Field().Error("error", err))
		_ = in.Close()
		return nil
	}
	return n
}

func render(ctx context.Context, log contracts.Logger, synth, input *node.Node) error {
	if err := pa.Initialize(); err != nil {
		return err
	}
	defer func() {
		if err := pa.Terminate(); err != nil {
			log.Error("PortAudio termination error", log.Field().Error("error", err))
		}
	}()

	out := [][]float32{make([]float32, blockSize), make([]float32, blockSize)}
	stream, err := pa.OpenDefaultStream(0, len(out), sampleRate, blockSize, &out)
	if err != nil {
		return err
	}
	defer stream.Close()
	if err := stream.Start(); err != nil {
		return err
	}
	defer stream.Stop()
	log.Info("Rendering; press Ctrl+C to stop", log.Field().Float64("sampleRate", stream.Info().SampleRate))

	midiBlock := &contracts.Block{}
	block := &contracts.Block{
		Audio: [][]float64{make([]float64, blockSize), make([]float64, blockSize)},
		Midi:  make([]contracts.MIDI, 0, processors.DefaultMidiInputCapacity),
	}
	arp := newArpeggio(sampleRate / 4)

	for ctx.Err() == nil {
		block.Midi = block.Midi[:0]
		if input != nil {
			input.Process(midiBlock)
			block.Midi = append(block.Midi, midiBlock.Midi...)
		} else {
			block.Midi = arp.next(block.Midi, blockSize)
		}

		synth.Process(block)
		for ch := range out {
			for i, v := range block.Audio[ch] {
				out[ch][i] = float32(v)
			}
		}
		if err := stream.Write(); err != nil && !errors.Is(err, pa.OutputUnderflowed) {
			return err
		}
	}
	return nil
}

// arpeggio emits a fixed note pattern, one note every period samples.
type arpeggio struct {
	notes  []uint8
	period int
	pos    int
	index  int
}

func newArpeggio(period int) *arpeggio {
	return &arpeggio{notes: []uint8{57, 60, 64, 69}, period: period}
}

func (a *arpeggio) next(events []contracts.MIDI, samples int) []contracts.MIDI {
	for offset := 0; offset < samples; offset++ {
		if a.pos%a.period == 0 {
			prev := a.notes[(a.index+len(a.notes)-1)%len(a.notes)]
			key := a.notes[a.index]
			events = append(events,
				contracts.MIDI{Offset: offset, Message: gomidi.NoteOff(0, prev)},
				contracts.MIDI{Offset: offset, Message: gomidi.NoteOn(0, key, 100)})
			a.index = (a.index + 1) % len(a.notes)
		}
		a.pos++
	}
	return events
}

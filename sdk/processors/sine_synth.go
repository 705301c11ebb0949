// Package processors holds ready-made processors that can be wrapped in a node.
package processors

import (
	"errors"
	"fmt"
	"math"

	"github.com/leandrodaf/graphnode/internal/rt"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSampleRate is returned by Prepare for non-positive rates.
var ErrInvalidSampleRate = errors.New("invalid sample rate")

const (
	defaultTuning = 440.0
	envelopeTime  = 0.005 // seconds to reach ~63% of a gate change
)

// SineSynth is a monophonic sine instrument. The last note pressed wins; releasing it
// fades the voice out.
type SineSynth struct {
	outputs int
	level   rt.Float
	tuning  rt.Float

	sampleRate float64
	phase      float64
	step       float64
	velocity   float64
	env        float64
	envCoeff   float64
	note       int
}

// NewSineSynth creates a synth writing the same signal to every one of outputs channels.
func NewSineSynth(outputs int) *SineSynth {
	if outputs < 1 {
		outputs = 1
	}
	s := &SineSynth{outputs: outputs, note: -1}
	s.level.Set(0.5)
	s.tuning.Set(defaultTuning)
	return s
}

func (s *SineSynth) Name() string         { return "Sine Synth" }
func (s *SineSynth) NumAudioInputs() int  { return 0 }
func (s *SineSynth) NumAudioOutputs() int { return s.outputs }
func (s *SineSynth) AcceptsMidi() bool    { return true }
func (s *SineSynth) ProducesMidi() bool   { return false }
func (s *SineSynth) LatencySamples() int  { return 0 }

// SetLevel sets the output level for a full-velocity note. Safe from any goroutine.
func (s *SineSynth) SetLevel(v float64) { s.level.Set(v) }

// Level returns the output level.
func (s *SineSynth) Level() float64 { return s.level.Get() }

// SetTuning sets the frequency of A4 in Hz. It takes effect on the next note.
func (s *SineSynth) SetTuning(hz float64) { s.tuning.Set(hz) }

func (s *SineSynth) Prepare(sampleRate float64, blockSize int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}
	s.sampleRate = sampleRate
	s.envCoeff = 1 - math.Exp(-1/(envelopeTime*sampleRate))
	s.reset()
	return nil
}

func (s *SineSynth) Release() { s.reset() }

func (s *SineSynth) reset() {
	s.phase, s.step, s.velocity, s.env = 0, 0, 0, 0
	s.note = -1
}

// Process renders the block, applying each MIDI event at its sample offset.
func (s *SineSynth) Process(b *contracts.Block) {
	n := b.NumSamples()
	if n == 0 || s.sampleRate == 0 {
		return
	}
	out := b.Audio[0]

	pos := 0
	for _, ev := range b.Midi {
		at := min(max(ev.Offset, pos), n)
		s.render(out[pos:at])
		pos = at
		s.handle(ev.Message)
	}
	s.render(out[pos:n])

	for ch := 1; ch < min(s.outputs, len(b.Audio)); ch++ {
		copy(b.Audio[ch], out)
	}
}

func (s *SineSynth) handle(msg midi.Message) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteStart(&ch, &key, &vel):
		s.note = int(key)
		s.velocity = float64(vel) / 127
		s.step = s.frequency(key) / s.sampleRate
	case msg.GetNoteEnd(&ch, &key):
		if int(key) == s.note {
			s.note = -1
		}
	}
}

func (s *SineSynth) frequency(key uint8) float64 {
	return s.tuning.Get() * math.Pow(2, (float64(key)-69)/12)
}

func (s *SineSynth) render(out []float64) {
	gain := s.level.Get() * s.velocity
	target := 0.0
	if s.note >= 0 {
		target = 1
	}
	for i := range out {
		s.env += (target - s.env) * s.envCoeff
		out[i] = math.Sin(2*math.Pi*s.phase) * s.env * gain
		s.phase += s.step
		if s.phase >= 1 {
			s.phase--
		}
	}
}

type sineSynthState struct {
	Level  float64 `yaml:"level"`
	Tuning float64 `yaml:"tuning"`
}

// State returns the synth's settings as YAML.
func (s *SineSynth) State() ([]byte, error) {
	return yaml.Marshal(sineSynthState{Level: s.level.Get(), Tuning: s.tuning.Get()})
}

// RestoreState applies settings written by State.
func (s *SineSynth) RestoreState(data []byte) error {
	var st sineSynthState
	if err := yaml.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("sine synth state: %w", err)
	}
	if st.Tuning <= 0 {
		return fmt.Errorf("sine synth state: invalid tuning %v", st.Tuning)
	}
	s.level.Set(st.Level)
	s.tuning.Set(st.Tuning)
	return nil
}

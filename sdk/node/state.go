package node

import (
	"encoding/base64"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// State is the persisted form of a node. The port layout is not stored: it is derived from
// the processor when the node is rebuilt.
type State struct {
	UUID           string           `yaml:"uuid"`
	ID             uint32           `yaml:"id"`
	Type           string           `yaml:"type"`
	Name           string           `yaml:"name,omitempty"`
	Enabled        bool             `yaml:"enabled"`
	Gain           float64          `yaml:"gain"`
	InputGain      float64          `yaml:"inputGain"`
	KeyStart       int              `yaml:"keyStart"`
	KeyEnd         int              `yaml:"keyEnd"`
	Transpose      int              `yaml:"transpose"`
	MidiOmni       bool             `yaml:"midiOmni"`
	MidiChannels   []int            `yaml:"midiChannels,flow,omitempty"`
	Properties     map[string]Value `yaml:"properties,omitempty"`
	ProcessorState string           `yaml:"processorState,omitempty"`
}

// Externalize captures the node's parameters, properties and, when the processor is
// stateful, its opaque state.
func (n *Node) Externalize() (*State, error) {
	low, high := n.KeyRange()
	s := &State{
		UUID:      n.uuid.String(),
		ID:        n.id,
		Type:      n.TypeString(),
		Name:      n.Name(),
		Enabled:   n.IsEnabled(),
		Gain:      n.Gain(),
		InputGain: n.InputGain(),
		KeyStart:  low,
		KeyEnd:    high,
		Transpose: n.TransposeOffset(),
	}

	n.propertyLock.Lock()
	s.MidiOmni = n.midiChannels.IsOmni()
	s.MidiChannels = n.midiChannels.List()
	if len(n.properties) > 0 {
		s.Properties = make(map[string]Value, len(n.properties))
		for k, v := range n.properties {
			s.Properties[k] = v
		}
	}
	n.propertyLock.Unlock()

	if n.caps.stateful != nil {
		data, err := n.caps.stateful.State()
		if err != nil {
			return nil, fmt.Errorf("externalize %s: %w", n.Name(), err)
		}
		s.ProcessorState = base64.StdEncoding.EncodeToString(data)
	}
	return s, nil
}

// Internalize applies s to the node. Nothing is changed when the record fails validation or
// the processor rejects its state. The node keeps its own uuid; use Restore to rebuild a node
// under a saved identity.
func (n *Node) Internalize(s *State) error {
	if s == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidState)
	}
	if s.UUID != "" {
		if _, err := uuid.Parse(s.UUID); err != nil {
			return fmt.Errorf("%w: uuid: %w", ErrInvalidState, err)
		}
	}
	if s.KeyStart < minKey || s.KeyEnd > maxKey || s.KeyStart > s.KeyEnd {
		return fmt.Errorf("%w: %w: [%d, %d]", ErrInvalidState, ErrInvalidKeyRange, s.KeyStart, s.KeyEnd)
	}
	if s.Transpose < -maxTranspose || s.Transpose > maxTranspose {
		return fmt.Errorf("%w: %w: %d", ErrInvalidState, ErrInvalidTranspose, s.Transpose)
	}
	channels := midifilter.Only(s.MidiChannels...)
	channels.SetOmni(s.MidiOmni)

	if s.ProcessorState != "" {
		data, err := base64.StdEncoding.DecodeString(s.ProcessorState)
		if err != nil {
			return fmt.Errorf("%w: processor state: %w", ErrInvalidState, err)
		}
		if n.caps.stateful == nil {
			n.logger.Warn("processor state ignored, processor is not stateful",
				n.logger.Field().Int64("nodeID", int64(n.id)))
		} else if err := n.caps.stateful.RestoreState(data); err != nil {
			return fmt.Errorf("internalize %s: %w", n.Name(), err)
		}
	}

	n.SetGain(s.Gain)
	n.SetInputGain(s.InputGain)
	n.keyRange.Set(packKeyRange(s.KeyStart, s.KeyEnd))
	n.transposeOffset.Set(s.Transpose)

	n.propertyLock.Lock()
	n.midiChannels = channels
	n.midiFilter.Set(int(channels.Bits()))
	clear(n.properties)
	for k, v := range s.Properties {
		n.properties[k] = v
	}
	n.propertyLock.Unlock()

	n.SetEnabled(s.Enabled)
	return nil
}

// Restore creates a node under the identity saved in s and applies the rest of the record.
// When the record cannot be applied the node is released, which closes proc if it is an io.Closer.
func Restore(id uint32, proc contracts.Processor, s *State, opts ...Option) (*Node, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil record", ErrInvalidState)
	}
	saved, err := uuid.Parse(s.UUID)
	if err != nil {
		return nil, fmt.Errorf("%w: uuid: %w", ErrInvalidState, err)
	}
	n, err := New(id, proc, append(opts, WithUUID(saved))...)
	if err != nil {
		return nil, err
	}
	if err := n.Internalize(s); err != nil {
		return nil, multierr.Combine(err, n.Release())
	}
	return n, nil
}

// EncodeState writes s as YAML.
func EncodeState(w io.Writer, s *State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode node state: %w", err)
	}
	return enc.Close()
}

// DecodeState reads a record written by EncodeState.
func DecodeState(r io.Reader) (*State, error) {
	var s State
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	return &s, nil
}

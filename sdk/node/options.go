package node

import (
	"github.com/google/uuid"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"github.com/leandrodaf/graphnode/sdk/notify"
)

// Options defines the configuration applied when a node is created.
type Options struct {
	Logger       contracts.Logger     // Logger for control-path events.
	LogLevel     contracts.LogLevel   // Level of logging to use.
	Dispatcher   *notify.Dispatcher   // Queue that delivers enablement notifications.
	Gain         *float64             // Initial output gain; defaults to unity.
	InputGain    *float64             // Initial input gain; defaults to unity.
	MidiChannels *midifilter.Channels // Initial channel filter; defaults to omni.
	UUID         uuid.UUID            // Persistent identity; generated when zero.
}

// Option is a function that modifies Options.
type Option func(*Options)

// WithLogger sets the logger for the node.
func WithLogger(l contracts.Logger) Option {
	return func(opts *Options) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the node.
func WithLogLevel(level contracts.LogLevel) Option {
	return func(opts *Options) {
		opts.LogLevel = level
	}
}

// WithDispatcher routes enablement notifications through d instead of notify.Default.
func WithDispatcher(d *notify.Dispatcher) Option {
	return func(opts *Options) {
		opts.Dispatcher = d
	}
}

// WithGain sets the initial output gain.
func WithGain(g float64) Option {
	return func(opts *Options) {
		opts.Gain = &g
	}
}

// WithInputGain sets the initial input gain.
func WithInputGain(g float64) Option {
	return func(opts *Options) {
		opts.InputGain = &g
	}
}

// WithMidiChannels sets the initial MIDI channel filter.
func WithMidiChannels(ch midifilter.Channels) Option {
	return func(opts *Options) {
		opts.MidiChannels = &ch
	}
}

// WithUUID restores a persistent identity, e.g. when re-creating a node from a saved session.
func WithUUID(id uuid.UUID) Option {
	return func(opts *Options) {
		opts.UUID = id
	}
}

package node

import (
	"github.com/google/uuid"
	"github.com/leandrodaf/graphnode/internal/logger"
	"github.com/leandrodaf/graphnode/sdk/midifilter"
	"github.com/leandrodaf/graphnode/sdk/notify"
)

// applyDefaultOptions sets default values for Options if not explicitly provided.
func applyDefaultOptions(opts ...Option) Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.Dispatcher == nil {
		options.Dispatcher = notify.Default()
	}
	if options.Gain == nil {
		unity := 1.0
		options.Gain = &unity
	}
	if options.InputGain == nil {
		unity := 1.0
		options.InputGain = &unity
	}
	if options.MidiChannels == nil {
		omni := midifilter.Omni()
		options.MidiChannels = &omni
	}
	if options.UUID == uuid.Nil {
		options.UUID = uuid.New()
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options
}

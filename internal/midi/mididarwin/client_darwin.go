//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/leandrodaf/graphnode/internal/midi/midiwire"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

var (
	ErrNoMIDIDevices        = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice    = errors.New("invalid MIDI device")
	ErrMIDIConnectionError  = errors.New("error connecting to MIDI device")
	ErrCreateInputPort      = errors.New("error creating input port")
	ErrIncompleteMIDIPacket = errors.New("incomplete MIDI packet")
)

type portConnection interface {
	Disconnect()
}

// Client captures MIDI input from one CoreMIDI source at a time.
//
// CoreMIDI calls handlePacket on its own thread. The callback never sends blocking, so it
// cannot stall the MIDI server.
type Client struct {
	logger contracts.Logger
	client coremidi.Client
	port   coremidi.InputPort
	sink   *midiwire.Sink

	mu     sync.Mutex // guards conn and source
	conn   portConnection
	source string
}

// NewMIDIClient creates the CoreMIDI client and its single input port.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	name := options.CoreMIDIConfig.ClientName
	client, err := coremidi.NewClient(name)
	if err != nil {
		return nil, err
	}

	c := &Client{logger: options.Logger, client: client, sink: midiwire.NewSink(options.MIDIEventFilter)}
	c.port, err = coremidi.NewInputPort(client, name+" input", c.handlePacket)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCreateInputPort, err)
	}

	c.logger.Info("CoreMIDI client created", c.logger.Field().String("clientName", name))
	return c, nil
}

// ListDevices returns every CoreMIDI source, indexed the way SelectDevice expects.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("listing CoreMIDI sources: %w", err)
	}
	if len(sources) == 0 {
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, len(sources))
	for i, source := range sources {
		entity := source.Entity()
		devices[i] = contracts.DeviceInfo{
			ID:           i,
			Name:         source.Name(),
			Manufacturer: entity.Manufacturer(),
			EntityName:   entity.Name(),
		}
	}
	return devices, nil
}

// SelectDevice connects the input port to source deviceID, dropping any previous connection.
func (c *Client) SelectDevice(deviceID int) error {
	sources, err := coremidi.AllSources()
	if err != nil {
		return fmt.Errorf("listing CoreMIDI sources: %w", err)
	}
	if deviceID < 0 || deviceID >= len(sources) {
		return fmt.Errorf("%w: %d of %d", ErrInvalidMIDIDevice, deviceID, len(sources))
	}
	source := sources[deviceID]

	c.mu.Lock()
	defer c.mu.Unlock()

	c.disconnectLocked()
	conn, err := c.port.Connect(source)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMIDIConnectionError, source.Name(), err)
	}
	c.conn, c.source = conn, source.Name()

	c.logger.Info("MIDI device connected",
		c.logger.Field().Int("deviceID", deviceID),
		c.logger.Field().String("deviceName", c.source))
	return nil
}

// StartCapture routes captured events to eventChannel, replacing any previous channel.
func (c *Client) StartCapture(eventChannel chan contracts.MIDI) {
	if eventChannel == nil {
		c.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if c.sink.Attach(eventChannel) {
		c.logger.Warn("Capture already running; switching channels")
	}
	c.logger.Info("MIDI capture started")
}

// Stop detaches the channel and disconnects the source. Once it returns no callback is
// still sending. It is safe to call more than once.
func (c *Client) Stop() error {
	wasCapturing := c.sink.Detach()

	c.mu.Lock()
	c.disconnectLocked()
	c.mu.Unlock()

	if wasCapturing {
		c.logger.Info("MIDI capture stopped", c.logger.Field().Uint64("dropped", c.sink.TakeDropped()))
	}
	return nil
}

func (c *Client) disconnectLocked() {
	if c.conn == nil {
		return
	}
	c.conn.Disconnect()
	c.logger.Debug("MIDI device disconnected", c.logger.Field().String("deviceName", c.source))
	c.conn, c.source = nil, ""
}

func (c *Client) handlePacket(source coremidi.Source, packet coremidi.Packet) {
	msgs, bad := midiwire.Split(packet.Data)
	if bad > 0 {
		c.logger.Debug(ErrIncompleteMIDIPacket.Error(),
			c.logger.Field().String("source", source.Name()),
			c.logger.Field().Int("fragments", bad))
	}
	c.sink.Deliver(uint64(time.Now().UnixNano()), msgs...)
}

//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/leandrodaf/graphnode/internal/midi/midiwire"
	"github.com/leandrodaf/graphnode/sdk/contracts"
	"golang.org/x/sys/windows"
)

var (
	ErrNoMIDIDevices    = errors.New("no MIDI devices found")
	ErrOpenDevice       = errors.New("failed to open MIDI device")
	ErrStartCapture     = errors.New("failed to start MIDI capture")
	ErrInvalidHandle    = errors.New("invalid MIDI device handle")
	ErrNoDeviceSelected = errors.New("no MIDI device selected")
)

type hMidiIn windows.Handle

const (
	callbackFunction = 0x00030000
	midiIOStatus     = 0x00000020

	mimOpen      = 0x3C1
	mimClose     = 0x3C2
	mimData      = 0x3C3
	mimError     = 0x3C5
	mimLongError = 0x3C6
	mimMoreData  = 0x3CC
)

type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

var (
	winmm                = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen       = winmm.NewProc("midiInOpen")
	procMidiInStart      = winmm.NewProc("midiInStart")
	procMidiInStop       = winmm.NewProc("midiInStop")
	procMidiInClose      = winmm.NewProc("midiInClose")
)

// winmm gets an integer instance id instead of a Go pointer. A client is registered only
// while it has a device open. The callback trampoline is created once because
// windows.NewCallback slots are never freed.
var (
	clients      sync.Map // uintptr -> *Client
	nextInstance atomic.Uintptr
)

var callbackPtr = windows.NewCallback(midiInCallback)

// Client captures MIDI input from one winmm device at a time.
type Client struct {
	logger   contracts.Logger
	instance uintptr
	sink     *midiwire.Sink

	mu       sync.Mutex // guards handle, deviceID and started
	handle   hMidiIn
	deviceID int
	started  bool
}

// NewMIDIClient creates a winmm MIDI input client. No device is opened until SelectDevice.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	c := &Client{
		logger:   options.Logger,
		instance: nextInstance.Add(1),
		sink:     midiwire.NewSink(options.MIDIEventFilter),
		deviceID: -1,
	}

	c.logger.Info("winmm MIDI client created")
	return c, nil
}

// ListDevices returns the winmm input devices. Devices whose capabilities cannot be read
// are skipped.
func (c *Client) ListDevices() ([]contracts.DeviceInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	count := int(uint32(r0))
	if count == 0 {
		return nil, ErrNoMIDIDevices
	}

	devices := make([]contracts.DeviceInfo, 0, count)
	for i := 0; i < count; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			c.logger.Warn("Failed to read MIDI device capabilities", c.logger.Field().Int("deviceID", i))
			continue
		}
		devices = append(devices, contracts.DeviceInfo{
			ID:           i,
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID %d PID %d", caps.wMid, caps.wPid),
		})
	}
	return devices, nil
}

// SelectDevice opens input device deviceID, closing the previous one. A running capture
// carries over to the new device.
func (c *Client) SelectDevice(deviceID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	restart := c.started
	if err := c.closeLocked(); err != nil {
		return fmt.Errorf("closing MIDI device %d: %w", c.deviceID, err)
	}

	clients.Store(c.instance, c)
	var handle hMidiIn
	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&handle)),
		uintptr(deviceID),
		callbackPtr,
		c.instance,
		uintptr(callbackFunction|midiIOStatus),
	)
	if r1 != 0 {
		clients.Delete(c.instance)
		return fmt.Errorf("%w %d: %w", ErrOpenDevice, deviceID, err)
	}
	c.handle, c.deviceID = handle, deviceID
	c.logger.Info("MIDI device connected", c.logger.Field().Int("deviceID", deviceID))

	if restart {
		return c.startLocked()
	}
	return nil
}

// StartCapture routes events to eventChannel and starts the selected device.
func (c *Client) StartCapture(eventChannel chan contracts.MIDI) {
	if eventChannel == nil {
		c.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	c.sink.Attach(eventChannel)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		c.logger.Warn("Capture already running; switching channels")
		return
	}
	if err := c.startLocked(); err != nil {
		c.logger.Error("MIDI capture not started", c.logger.Field().Error("error", err))
	}
}

// Stop halts capture, closes the device and unregisters the client. It is safe to call
// more than once.
func (c *Client) Stop() error {
	c.sink.Detach()

	c.mu.Lock()
	defer c.mu.Unlock()
	wasOpen := c.handle != 0
	if err := c.closeLocked(); err != nil {
		return err
	}
	clients.Delete(c.instance)
	if wasOpen {
		c.logger.Info("MIDI capture stopped", c.logger.Field().Uint64("dropped", c.sink.TakeDropped()))
	}
	return nil
}

func (c *Client) startLocked() error {
	if c.handle == 0 {
		return ErrNoDeviceSelected
	}
	if r1, _, err := procMidiInStart.Call(uintptr(c.handle)); r1 != 0 {
		return fmt.Errorf("%w: %w", ErrStartCapture, err)
	}
	c.started = true
	c.logger.Info("MIDI capture started", c.logger.Field().Int("deviceID", c.deviceID))
	return nil
}

func (c *Client) closeLocked() error {
	if c.handle == 0 {
		return nil
	}
	if c.started {
		if r1, _, err := procMidiInStop.Call(uintptr(c.handle)); r1 != 0 {
			return fmt.Errorf("midiInStop: %w", err)
		}
		c.started = false
	}
	if r1, _, err := procMidiInClose.Call(uintptr(c.handle)); r1 != 0 {
		return fmt.Errorf("midiInClose: %w", err)
	}
	c.handle, c.deviceID = 0, -1
	return nil
}

// midiInCallback runs on a winmm thread. It must not block or take c.mu, since
// midiInClose waits for it to return.
func midiInCallback(_ uintptr, wMsg uint32, instance, param1, _ uintptr) uintptr {
	v, ok := clients.Load(instance)
	if !ok {
		return 0
	}
	c := v.(*Client)

	switch wMsg {
	case mimData, mimMoreData:
		if msg := midiwire.Short(uint32(param1)); msg != nil {
			c.sink.Deliver(uint64(time.Now().UnixNano()), msg)
		}
	case mimOpen, mimClose:
		c.logger.Debug("MIDI device notification", c.logger.Field().Int("message", int(wMsg)))
	case mimError, mimLongError:
		c.logger.Warn("MIDI driver reported an invalid message", c.logger.Field().Uint64("data", uint64(param1)))
	}
	return 0
}

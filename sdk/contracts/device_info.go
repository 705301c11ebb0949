package contracts

import "fmt"

// DeviceInfo describes a MIDI input source as reported by the platform.
// ID is the value to pass to ClientMIDI.SelectDevice.
type DeviceInfo struct {
	ID           int
	Name         string
	Manufacturer string
	EntityName   string // CoreMIDI entity; empty on Windows.
}

func (d DeviceInfo) String() string {
	if d.Manufacturer == "" {
		return fmt.Sprintf("#%d %s", d.ID, d.Name)
	}
	return fmt.Sprintf("#%d %s (%s)", d.ID, d.Name, d.Manufacturer)
}

// Package midifilter holds the per-node MIDI channel membership set.
package midifilter

// NumChannels is the number of real MIDI channels.
const NumChannels = 16

const (
	omniBit  = 1 << 0
	allBits  = (1 << (NumChannels + 1)) - 1
	channels = allBits &^ omniBit
)

// Channels is a 17-bit membership set: bit 0 is omni, bits 1..16 are MIDI channels 1..16.
// The zero value accepts nothing. Channels is a plain value; callers sharing one between
// threads guard it with their own lock.
type Channels struct {
	bits uint32
}

// Omni returns a set that accepts every channel.
func Omni() Channels {
	return Channels{bits: omniBit}
}

// Only returns a set holding exactly the listed 1-based channels. Invalid channels are ignored.
func Only(chans ...int) Channels {
	var c Channels
	for _, ch := range chans {
		c.Set(ch, true)
	}
	return c
}

// FromBits rebuilds a set from Bits. Bits above 16 are dropped.
func FromBits(bits uint32) Channels {
	return Channels{bits: bits & allBits}
}

// Bits returns the raw 17-bit representation.
func (c Channels) Bits() uint32 { return c.bits }

// Set turns a 1-based channel on or off. Channels outside 1..16 are ignored.
func (c *Channels) Set(ch int, on bool) {
	if ch < 1 || ch > NumChannels {
		return
	}
	if on {
		c.bits |= 1 << ch
	} else {
		c.bits &^= 1 << ch
	}
}

// SetOmni turns omni mode on or off without touching the individual channel bits.
func (c *Channels) SetOmni(on bool) {
	if on {
		c.bits |= omniBit
	} else {
		c.bits &^= omniBit
	}
}

// IsOmni reports whether omni mode is on.
func (c Channels) IsOmni() bool { return c.bits&omniBit != 0 }

// IsOn reports whether the individual bit for a 1-based channel is set, ignoring omni.
func (c Channels) IsOn(ch int) bool {
	if ch < 1 || ch > NumChannels {
		return false
	}
	return c.bits&(1<<ch) != 0
}

// Accepts reports whether an event on a 1-based channel passes the filter.
func (c Channels) Accepts(ch int) bool {
	if c.IsOmni() {
		return true
	}
	return c.IsOn(ch)
}

// IsEmpty reports whether the set accepts nothing.
func (c Channels) IsEmpty() bool { return c.bits == 0 }

// List returns the individually enabled channels in ascending order.
func (c Channels) List() []int {
	var out []int
	for ch := 1; ch <= NumChannels; ch++ {
		if c.bits&(1<<ch) != 0 {
			out = append(out, ch)
		}
	}
	return out
}

// All reports whether every individual channel bit is set.
func (c Channels) All() bool { return c.bits&channels == channels }

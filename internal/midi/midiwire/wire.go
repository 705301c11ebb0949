// Package midiwire turns raw driver buffers into gomidi messages.
package midiwire

import "gitlab.com/gomidi/midi/v2"

// Length returns the full size of a message starting with status, or 0 when the size is
// not fixed (sysex) or status is not a status byte.
func Length(status byte) int {
	switch {
	case status < 0x80:
		return 0
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 3
	case status < 0xE0:
		return 2
	}
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF0, 0xF7:
		return 0
	}
	return 1
}

// Split cuts a packet into messages. Running status is expanded, so every returned
// message starts with its status byte, and each message owns its bytes. Real-time bytes
// (0xF8-0xFF) may sit anywhere, including inside another message; they come out as their
// own messages ahead of the one they interrupted.
//
// dropped counts discarded fragments: truncated or interrupted messages, data bytes with no
// status, and the tail of a sysex that began in an earlier packet.
func Split(data []byte) (msgs []midi.Message, dropped int) {
	var running byte
	for i := 0; i < len(data); {
		b := data[i]
		ok := true
		switch {
		case b >= 0xF8:
			msgs = append(msgs, midi.Message{b})
			i++
		case b == 0xF0:
			running = 0
			msgs, i, ok = sysex(msgs, data, i+1)
		case b == 0xF7:
			running = 0
			i++
			ok = false
		case b < 0x80 && running == 0:
			for i < len(data) && data[i] < 0x80 {
				i++
			}
			if i < len(data) && data[i] == 0xF7 {
				i++
			}
			ok = false
		case b < 0x80:
			msgs, i, ok = short(msgs, data, running, i)
		default:
			running = 0
			if b < 0xF0 {
				running = b
			}
			msgs, i, ok = short(msgs, data, b, i+1)
		}
		if !ok {
			dropped++
		}
	}
	return msgs, dropped
}

// short collects the data bytes of status starting at data[i]. It stops early, without
// consuming the byte, when another non-real-time status byte arrives.
func short(msgs []midi.Message, data []byte, status byte, i int) ([]midi.Message, int, bool) {
	size := Length(status)
	msg := make(midi.Message, 1, size)
	msg[0] = status
	for len(msg) < size {
		if i == len(data) {
			return msgs, i, false
		}
		switch b := data[i]; {
		case b >= 0xF8:
			msgs = append(msgs, midi.Message{b})
		case b >= 0x80:
			return msgs, i, false
		default:
			msg = append(msg, b)
		}
		i++
	}
	return append(msgs, msg), i, true
}

// sysex collects a system exclusive body starting after its 0xF0.
func sysex(msgs []midi.Message, data []byte, i int) ([]midi.Message, int, bool) {
	msg := midi.Message{0xF0}
	for ; i < len(data); i++ {
		switch b := data[i]; {
		case b >= 0xF8:
			msgs = append(msgs, midi.Message{b})
		case b == 0xF7:
			return append(msgs, append(msg, b)), i + 1, true
		case b >= 0x80:
			return msgs, i, false
		default:
			msg = append(msg, b)
		}
	}
	return msgs, i, false
}

// Short decodes a packed short message as delivered by winmm: status in the low byte,
// then the two data bytes.
func Short(packed uint32) midi.Message {
	status := byte(packed)
	size := Length(status)
	if size == 0 {
		return nil
	}
	full := [3]byte{status, byte(packed >> 8), byte(packed >> 16)}
	return midi.Message(append([]byte(nil), full[:size]...))
}

package rt

// Meters is a fixed set of level cells, one per audio channel.
// A nil *Meters behaves as an empty set.
type Meters struct {
	cells []Float
}

// NewMeters allocates n zeroed cells.
func NewMeters(n int) *Meters {
	if n < 0 {
		n = 0
	}
	return &Meters{cells: make([]Float, n)}
}

// Len returns the number of channels.
func (m *Meters) Len() int {
	if m == nil {
		return 0
	}
	return len(m.cells)
}

// Set stores v for channel ch. Out-of-range channels are ignored.
func (m *Meters) Set(ch int, v float64) {
	if ch < 0 || ch >= m.Len() {
		return
	}
	m.cells[ch].Set(v)
}

// Get returns the level of channel ch, or 0 when ch is out of range.
func (m *Meters) Get(ch int) float64 {
	if ch < 0 || ch >= m.Len() {
		return 0
	}
	return m.cells[ch].Get()
}

// Reset zeroes every cell.
func (m *Meters) Reset() {
	for i := 0; i < m.Len(); i++ {
		m.cells[i].Set(0)
	}
}

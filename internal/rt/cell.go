// Package rt holds lock-free scalar cells shared between the control thread and the audio thread.
// Every operation is a single atomic load or store: no locks, no allocation.
package rt

import (
	"math"
	"sync/atomic"
)

// Float is a float64 cell stored as its IEEE-754 bits.
type Float struct {
	bits atomic.Uint64
}

// NewFloat returns a cell holding v.
func NewFloat(v float64) *Float {
	f := &Float{}
	f.Set(v)
	return f
}

// Get returns the latest published value.
func (f *Float) Get() float64 {
	return math.Float64frombits(f.bits.Load())
}

// Set publishes v.
func (f *Float) Set(v float64) {
	f.bits.Store(math.Float64bits(v))
}

// AdvanceTo copies live into f if they differ and reports whether it did.
// The audio thread calls it once per block on a "last value" cell, so a change made
// during block N is seen as a ramp in block N and as steady state from block N+1.
func (f *Float) AdvanceTo(live *Float) bool {
	v := live.bits.Load()
	if f.bits.Load() == v {
		return false
	}
	f.bits.Store(v)
	return true
}

// Int is an int32 cell.
type Int struct {
	v atomic.Int32
}

// NewInt returns a cell holding v.
func NewInt(v int) *Int {
	i := &Int{}
	i.Set(v)
	return i
}

func (i *Int) Get() int  { return int(i.v.Load()) }
func (i *Int) Set(v int) { i.v.Store(int32(v)) }

// Bool is a boolean cell.
type Bool struct {
	v atomic.Bool
}

func (b *Bool) Get() bool  { return b.v.Load() }
func (b *Bool) Set(v bool) { b.v.Store(v) }

// Swap stores v and returns the previous value.
func (b *Bool) Swap(v bool) bool { return b.v.Swap(v) }

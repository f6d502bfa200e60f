package engine

import (
	"math"
	"sync/atomic"
)

// gainSlot carries the five band gains across the control/audio
// boundary as a latest-value-wins cell: the control goroutine writes,
// the producer reads at block boundaries. A generation counter lets the
// reader detect changes without comparing values.
type gainSlot struct {
	v   atomic.Pointer[gainValues]
	gen atomic.Uint64
}

type gainValues struct {
	gains [NumBands]float64
	gen   uint64
}

func newGainSlot() *gainSlot {
	s := &gainSlot{}
	s.v.Store(&gainValues{})
	return s
}

// Set replaces the gains, clamping each to [GainMin, GainMax]. The
// generation is drawn from an atomic counter, so concurrent Sets get
// distinct generations and the reader always sees the surviving write
// as a change.
func (s *gainSlot) Set(g [NumBands]float64) {
	for i := range g {
		g[i] = clampf(g[i], GainMin, GainMax)
	}
	s.v.Store(&gainValues{gains: g, gen: s.gen.Add(1)})
}

// Load returns the current gains and their generation.
func (s *gainSlot) Load() ([NumBands]float64, uint64) {
	v := s.v.Load()
	return v.gains, v.gen
}

// volumeCell holds the output volume as atomic float bits so the
// producer can read it without locking.
type volumeCell struct {
	bits atomic.Uint64
}

func newVolumeCell(v float64) *volumeCell {
	c := &volumeCell{}
	c.Set(v)
	return c
}

// Set stores the volume, clamped to [0, 1].
func (c *volumeCell) Set(v float64) {
	c.bits.Store(math.Float64bits(clampf(v, 0, 1)))
}

func (c *volumeCell) Get() float64 {
	return math.Float64frombits(c.bits.Load())
}

// applyVolume scales a block in place and clamps samples to [-1, 1].
func applyVolume(block [][2]float64, vol float64) {
	for i := range block {
		for ch := range 2 {
			v := block[i][ch] * vol
			block[i][ch] = max(-1, min(1, v))
		}
	}
}

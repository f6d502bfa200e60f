package engine

import "math"

// peakingSection is a second-order IIR peaking filter per the Audio EQ
// Cookbook, with per-channel direct-form I state.
type peakingSection struct {
	freq, q            float64
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

// setGain recomputes the coefficients for a gain in dB. A flat band
// gets identity coefficients rather than being skipped: the delay lines
// keep tracking the signal, so a band leaving flat starts warm and the
// swap stays click-free.
func (p *peakingSection) setGain(dB, sr float64) {
	if dB > -0.05 && dB < 0.05 {
		p.b0, p.b1, p.b2, p.a1, p.a2 = 1, 0, 0, 0, 0
		return
	}

	a := math.Pow(10, dB/40)
	w0 := 2 * math.Pi * p.freq / sr
	sinW0 := math.Sin(w0)
	cosW0 := math.Cos(w0)
	alpha := sinW0 / (2 * p.q)

	b0 := 1 + alpha*a
	b1 := -2 * cosW0
	b2 := 1 - alpha*a
	a0 := 1 + alpha/a
	a1 := -2 * cosW0
	a2 := 1 - alpha/a

	p.b0 = b0 / a0
	p.b1 = b1 / a0
	p.b2 = b2 / a0
	p.a1 = a1 / a0
	p.a2 = a2 / a0
}

func (p *peakingSection) process(block [][2]float64) {
	for i := range block {
		for ch := range 2 {
			x := block[i][ch]
			y := p.b0*x + p.b1*p.x1[ch] + p.b2*p.x2[ch] - p.a1*p.y1[ch] - p.a2*p.y2[ch]
			p.x2[ch] = p.x1[ch]
			p.x1[ch] = x
			p.y2[ch] = p.y1[ch]
			p.y1[ch] = y
			block[i][ch] = y
		}
	}
}

func (p *peakingSection) reset() {
	p.x1 = [2]float64{}
	p.x2 = [2]float64{}
	p.y1 = [2]float64{}
	p.y2 = [2]float64{}
}

// FilterBank cascades the five peaking sections over stereo PCM blocks.
// Gains arrive through the shared gainSlot; coefficients are swapped in
// only between blocks, never mid-block, and the delay-line state is
// preserved across the swap.
type FilterBank struct {
	slot   *gainSlot
	sr     float64
	gen    uint64
	primed bool
	secs   [NumBands]peakingSection
}

// NewFilterBank creates a bank at the given sample rate reading gains
// from slot. The slot outlives any one bank and is shared across tracks.
func NewFilterBank(slot *gainSlot, sr float64) *FilterBank {
	f := &FilterBank{slot: slot, sr: sr}
	for i := range f.secs {
		f.secs[i].freq = BandFreqs[i]
		f.secs[i].q = bandQ
		f.secs[i].setGain(0, sr)
	}
	return f
}

// Process filters one block in place, picking up any gain change first.
func (f *FilterBank) Process(block [][2]float64) {
	gains, gen := f.slot.Load()
	if !f.primed || gen != f.gen {
		for i := range f.secs {
			f.secs[i].setGain(gains[i], f.sr)
		}
		f.gen = gen
		f.primed = true
	}
	for i := range f.secs {
		f.secs[i].process(block)
	}
}

// Reset clears all delay lines. Called after a seek so the filters do
// not ring with audio from the old position.
func (f *FilterBank) Reset() {
	for i := range f.secs {
		f.secs[i].reset()
	}
}

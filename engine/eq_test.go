package engine

import (
	"math"
	"math/rand"
	"sync"
	"testing"
)

func fillSine(block [][2]float64, freq, amp float64, sr float64, k *int) {
	for i := range block {
		v := amp * math.Sin(2*math.Pi*freq*float64(*k)/sr)
		block[i][0], block[i][1] = v, v
		*k++
	}
}

func rms(block [][2]float64) float64 {
	var sum float64
	for i := range block {
		sum += block[i][0] * block[i][0]
	}
	return math.Sqrt(sum / float64(len(block)))
}

func TestFlatGainsPassThrough(t *testing.T) {
	slot := newGainSlot()
	bank := NewFilterBank(slot, float64(DefaultSampleRate))

	block := make([][2]float64, blockFrames)
	var k int
	fillSine(block, 1000, 0.5, float64(DefaultSampleRate), &k)

	want := make([][2]float64, blockFrames)
	copy(want, block)

	bank.Process(block)
	for i := range block {
		if block[i] != want[i] {
			t.Fatalf("flat EQ altered sample %d: %v != %v", i, block[i], want[i])
		}
	}
}

func TestGainSlotClamps(t *testing.T) {
	slot := newGainSlot()
	slot.Set([NumBands]float64{100, -100, 0, 5, -5})
	g, gen := slot.Load()
	if g[0] != GainMax || g[1] != GainMin || g[3] != 5 {
		t.Fatalf("gains = %v, want clamped", g)
	}
	if gen != 1 {
		t.Fatalf("generation = %d, want 1", gen)
	}
	slot.Set(g)
	if _, gen = slot.Load(); gen != 2 {
		t.Fatalf("generation = %d, want 2", gen)
	}
}

// Concurrent writers must not collide on a generation: whichever write
// survives, a subsequent set still advances the generation and so is
// never mistaken for an already-applied one.
func TestGainSlotConcurrentSets(t *testing.T) {
	slot := newGainSlot()

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 256 {
				slot.Set([NumBands]float64{float64(w), float64(i % 12), 0, 0, 0})
			}
		}()
	}
	wg.Wait()

	_, before := slot.Load()
	want := [NumBands]float64{1, 2, 3, 4, 5}
	slot.Set(want)
	g, after := slot.Load()
	if after == before {
		t.Fatalf("generation stuck at %d after a fresh set", after)
	}
	if g != want {
		t.Fatalf("gains = %v, want %v", g, want)
	}
}

func TestBoostRaisesBandLevel(t *testing.T) {
	sr := float64(DefaultSampleRate)
	for band, freq := range BandFreqs {
		slot := newGainSlot()
		var g [NumBands]float64
		g[band] = GainMax
		slot.Set(g)
		bank := NewFilterBank(slot, sr)

		block := make([][2]float64, blockFrames)
		var k int
		// Settle the filter, then measure steady state.
		var in, out float64
		for round := range 24 {
			fillSine(block, freq, 0.25, sr, &k)
			in = rms(block)
			bank.Process(block)
			if round == 23 {
				out = rms(block)
			}
		}
		if out < in*1.5 {
			t.Errorf("band %d (%.0f Hz): +12 dB boost gave rms %f -> %f", band, freq, in, out)
		}
	}
}

func TestCutLowersBandLevel(t *testing.T) {
	sr := float64(DefaultSampleRate)
	slot := newGainSlot()
	slot.Set([NumBands]float64{0, 0, GainMin, 0, 0})
	bank := NewFilterBank(slot, sr)

	block := make([][2]float64, blockFrames)
	var k int
	var in, out float64
	for round := range 24 {
		fillSine(block, 1000, 0.25, sr, &k)
		in = rms(block)
		bank.Process(block)
		if round == 23 {
			out = rms(block)
		}
	}
	if out > in*0.7 {
		t.Fatalf("-12 dB cut gave rms %f -> %f", in, out)
	}
}

// Changing gains between blocks must not produce a click at the swap
// boundary: the delay lines are preserved, so the sample-to-sample step
// across the boundary stays in the same order as within a block.
func TestGainSwapIsClickFree(t *testing.T) {
	const clickThreshold = 0.1

	sr := float64(DefaultSampleRate)
	slot := newGainSlot()
	bank := NewFilterBank(slot, sr)

	block := make([][2]float64, blockFrames)
	var k int

	gainSteps := [][NumBands]float64{
		{},
		{6, 0, 0, 0, 0},
		{12, -12, 6, -6, 3},
		{-12, 12, -6, 6, -3},
		{},
	}

	var lastSample float64
	first := true
	for _, g := range gainSteps {
		slot.Set(g)
		for range 4 {
			fillSine(block, 440, 0.5, sr, &k)
			bank.Process(block)
			if !first {
				if d := math.Abs(block[0][0] - lastSample); d > clickThreshold {
					t.Fatalf("discontinuity %f at block boundary after gains %v", d, g)
				}
			}
			for i := 1; i < len(block); i++ {
				if d := math.Abs(block[i][0] - block[i-1][0]); d > clickThreshold {
					t.Fatalf("discontinuity %f inside block with gains %v", d, g)
				}
			}
			lastSample = block[len(block)-1][0]
			first = false
		}
	}
}

func TestFilterStaysStable(t *testing.T) {
	sr := float64(DefaultSampleRate)
	rng := rand.New(rand.NewSource(1))

	slot := newGainSlot()
	slot.Set([NumBands]float64{12, -12, 12, -12, 12})
	bank := NewFilterBank(slot, sr)

	block := make([][2]float64, blockFrames)
	for range 64 {
		for i := range block {
			v := rng.Float64()*2 - 1
			block[i][0], block[i][1] = v, v
		}
		bank.Process(block)
		for i := range block {
			if math.Abs(block[i][0]) > 16 || math.IsNaN(block[i][0]) {
				t.Fatalf("filter blew up: sample %f", block[i][0])
			}
		}
	}
}

func TestResetClearsState(t *testing.T) {
	sr := float64(DefaultSampleRate)
	slot := newGainSlot()
	slot.Set([NumBands]float64{12, 0, 0, 0, 0})
	bank := NewFilterBank(slot, sr)

	block := make([][2]float64, blockFrames)
	var k int
	fillSine(block, 60, 0.5, sr, &k)
	bank.Process(block)

	bank.Reset()
	zero := make([][2]float64, blockFrames)
	bank.Process(zero)
	for i := range zero {
		if zero[i][0] != 0 {
			t.Fatalf("residual ringing %f after reset", zero[i][0])
		}
	}
}

func TestApplyVolume(t *testing.T) {
	block := [][2]float64{{0.5, -0.5}, {2, -2}}
	applyVolume(block, 0.5)
	if block[0][0] != 0.25 || block[0][1] != -0.25 {
		t.Fatalf("scaled block = %v", block[0])
	}
	if block[1][0] != 1 || block[1][1] != -1 {
		t.Fatalf("clip failed: %v", block[1])
	}

	block = [][2]float64{{0.9, 0.9}}
	applyVolume(block, 0)
	if block[0][0] != 0 {
		t.Fatalf("volume 0 left %v", block[0])
	}
}

func TestVolumeCellClamps(t *testing.T) {
	c := newVolumeCell(0.7)
	if c.Get() != 0.7 {
		t.Fatalf("initial = %f", c.Get())
	}
	c.Set(2)
	if c.Get() != 1 {
		t.Fatalf("clamp high = %f", c.Get())
	}
	c.Set(-1)
	if c.Get() != 0 {
		t.Fatalf("clamp low = %f", c.Get())
	}
}

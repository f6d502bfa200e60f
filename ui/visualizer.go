package ui

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mjibson/go-dsp/fft"

	"github.com/yummyactually/onyx/engine"
)

const (
	// Two spectrum columns per equalizer band, so the display lines up
	// with the EQ panel: columns 0-1 react to the 60 Hz band, 2-3 to
	// 250 Hz, and so on.
	columnsPerBand = 2
	numBands       = engine.NumBands * columnsPerBand

	fftSize  = 2048
	barWidth = 5 // character width of each spectrum bar

	specFloorHz   = 30
	specCeilingHz = 18000
)

// Unicode block elements for bar height (9 levels including space)
var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// bandEdges are the column boundaries in Hz, derived from the EQ band
// centers: adjacent EQ bands meet at their geometric mean, and each
// band's region is split the same way into its two columns.
var bandEdges = computeBandEdges()

func computeBandEdges() [numBands + 1]float64 {
	var regions [engine.NumBands + 1]float64
	regions[0] = specFloorHz
	regions[engine.NumBands] = specCeilingHz
	for i := 1; i < engine.NumBands; i++ {
		regions[i] = math.Sqrt(engine.BandFreqs[i-1] * engine.BandFreqs[i])
	}

	var edges [numBands + 1]float64
	for i := range engine.NumBands {
		edges[columnsPerBand*i] = regions[i]
		edges[columnsPerBand*i+1] = math.Sqrt(regions[i] * regions[i+1])
	}
	edges[numBands] = specCeilingHz
	return edges
}

// Pre-built styles for spectrum bar colors to avoid per-frame allocation.
var (
	specLowStyle  = lipgloss.NewStyle().Foreground(spectrumLow)
	specMidStyle  = lipgloss.NewStyle().Foreground(spectrumMid)
	specHighStyle = lipgloss.NewStyle().Foreground(spectrumHigh)
)

// Visualizer turns the engine's sample tap into per-column levels and
// renders them as colored bars.
type Visualizer struct {
	levels [numBands]float64 // smoothed column levels carried across frames
	sr     float64
	window []float64 // reusable windowed-input buffer
}

// NewVisualizer creates a Visualizer for the given sample rate.
func NewVisualizer(sampleRate float64) *Visualizer {
	return &Visualizer{
		sr:     sampleRate,
		window: make([]float64, fftSize),
	}
}

// Analyze runs an FFT over recent samples and returns the smoothed
// column levels, each normalized to 0-1. With no samples the previous
// levels decay toward zero.
func (v *Visualizer) Analyze(samples []float64) [numBands]float64 {
	if len(samples) == 0 {
		for b := range v.levels {
			v.levels[b] *= 0.8
		}
		return v.levels
	}

	clear(v.window)
	copy(v.window, samples)
	// Hann window against spectral leakage
	for i := range fftSize {
		v.window[i] *= 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(fftSize-1)))
	}
	spectrum := fft.FFTReal(v.window)

	for b := range numBands {
		v.smooth(b, v.columnLevel(spectrum, b))
	}
	return v.levels
}

// columnLevel averages the FFT magnitudes inside column b's frequency
// range and maps the result onto a 0-1 dB-like scale.
func (v *Visualizer) columnLevel(spectrum []complex128, b int) float64 {
	binHz := v.sr / float64(fftSize)
	lo := max(1, int(bandEdges[b]/binHz))
	hi := min(len(spectrum)/2-1, int(bandEdges[b+1]/binHz))

	var sum float64
	count := 0
	for i := lo; i <= hi; i++ {
		sum += cmplx.Abs(spectrum[i])
		count++
	}
	if count > 0 {
		sum /= float64(count)
	}
	if sum <= 0 {
		return 0
	}
	return max(0, min(1, (20*math.Log10(sum)+10)/50))
}

// smooth folds a new level into the running one: fast attack, slow decay.
func (v *Visualizer) smooth(b int, level float64) {
	if level > v.levels[b] {
		v.levels[b] = level*0.6 + v.levels[b]*0.4
	} else {
		v.levels[b] = level*0.25 + v.levels[b]*0.75
	}
}

func levelStyle(level float64) lipgloss.Style {
	switch {
	case level > 0.75:
		return specHighStyle
	case level > 0.45:
		return specMidStyle
	default:
		return specLowStyle
	}
}

func levelBlock(level float64) string {
	idx := int(level * float64(len(barBlocks)-1))
	return barBlocks[max(0, min(idx, len(barBlocks)-1))]
}

// RenderDynamic renders the columns sized to fill availWidth.
func (v *Visualizer) RenderDynamic(bands [numBands]float64, availWidth int) string {
	if availWidth < numBands {
		return ""
	}
	// availWidth = numBands*bw + (numBands-1) separators
	bw := (availWidth - (numBands - 1)) / numBands
	if bw < 1 {
		bw = 1
	}
	return v.render(bands, bw)
}

// Render renders the columns at the fixed full-layout bar width.
func (v *Visualizer) Render(bands [numBands]float64) string {
	return v.render(bands, barWidth)
}

func (v *Visualizer) render(bands [numBands]float64, bw int) string {
	var sb strings.Builder
	for i, level := range bands {
		sb.WriteString(levelStyle(level).Render(strings.Repeat(levelBlock(level), bw)))
		if i < numBands-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

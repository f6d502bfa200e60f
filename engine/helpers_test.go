package engine

import (
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/wav"
)

// testOutput stands in for the speaker. In manual mode tests pull
// frames with pump; in auto mode a goroutine consumes as fast as the
// producer can feed it, which simulates a track running to exhaustion.
type testOutput struct {
	mu      sync.Mutex
	s       beep.Streamer
	done    func()
	initErr error
	auto    bool
}

func (o *testOutput) Init(sr beep.SampleRate) error { return o.initErr }

func (o *testOutput) Play(s beep.Streamer, done func()) {
	o.mu.Lock()
	o.s, o.done = s, done
	o.mu.Unlock()
	if o.auto {
		go o.pumpLoop()
	}
}

func (o *testOutput) Clear() {
	o.mu.Lock()
	o.s, o.done = nil, nil
	o.mu.Unlock()
}

func (o *testOutput) Lock()   { o.mu.Lock() }
func (o *testOutput) Unlock() { o.mu.Unlock() }
func (o *testOutput) Close()  {}

// pump pulls frames from the playing streamer, firing the done callback
// when the streamer reports its end. It returns the pulled frames and
// whether the streamer is still live.
func (o *testOutput) pump(frames int) ([][2]float64, bool) {
	o.mu.Lock()
	s, done := o.s, o.done
	if s == nil {
		o.mu.Unlock()
		return nil, false
	}
	buf := make([][2]float64, frames)
	n, ok := s.Stream(buf)
	if !ok {
		o.s, o.done = nil, nil
	}
	o.mu.Unlock()
	if !ok {
		if done != nil {
			done()
		}
		return nil, false
	}
	return buf[:n], true
}

func (o *testOutput) pumpLoop() {
	for {
		if _, ok := o.pump(512); !ok {
			return
		}
	}
}

// sine produces an endless stereo sine wave.
func sine(freq, amp float64, sr beep.SampleRate) beep.Streamer {
	var k int
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		for i := range samples {
			v := amp * math.Sin(2*math.Pi*freq*float64(k)/float64(sr))
			samples[i][0], samples[i][1] = v, v
			k++
		}
		return len(samples), true
	})
}

// writeTone writes a 440 Hz test tone of the given length as a WAV file
// and returns its path.
func writeTone(t *testing.T, dur time.Duration) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	format := beep.Format{SampleRate: DefaultSampleRate, NumChannels: 2, Precision: 2}
	n := DefaultSampleRate.N(dur)
	if err := wav.Encode(f, beep.Take(n, sine(440, 0.5, DefaultSampleRate)), format); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close fixture: %v", err)
	}
	return path
}

func newTestController(t *testing.T, auto bool) (*Controller, *testOutput) {
	t.Helper()
	out := &testOutput{auto: auto}
	c := newController(DefaultSampleRate, out)
	if !c.Available() {
		t.Fatal("test controller should be available")
	}
	t.Cleanup(c.Stop)
	return c, out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

package engine

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func newTestBasic(t *testing.T, auto bool) (*Basic, *testOutput) {
	t.Helper()
	out := &testOutput{auto: auto}
	b := newBasic(DefaultSampleRate, out)
	t.Cleanup(b.Stop)
	return b, out
}

func TestBasicAlwaysAvailable(t *testing.T) {
	b, _ := newTestBasic(t, false)
	if !b.Available() {
		t.Fatal("fallback engine must report available")
	}
}

func TestBasicDeviceInitFailureSurfacesFromPlay(t *testing.T) {
	out := &testOutput{initErr: errors.New("no device")}
	b := newBasic(DefaultSampleRate, out)
	if err := b.Play(writeTone(t, 100*time.Millisecond)); err == nil {
		t.Fatal("expected device error from Play")
	}
	if got := b.State(); got != StateIdle {
		t.Fatalf("state = %v, want Idle", got)
	}
}

func TestBasicTransport(t *testing.T) {
	b, out := newTestBasic(t, false)
	path := writeTone(t, 500*time.Millisecond)

	if err := b.Play(path); err != nil {
		t.Fatalf("play: %v", err)
	}
	if got := b.State(); got != StatePlaying {
		t.Fatalf("state = %v, want Playing", got)
	}
	if d := b.Duration(); d != 500*time.Millisecond {
		t.Fatalf("duration = %v, want 500ms", d)
	}

	out.pump(2048)
	if p := b.Position(); p <= 0 {
		t.Fatalf("position = %v, want > 0 after consuming", p)
	}

	b.Pause()
	if got := b.State(); got != StatePaused {
		t.Fatalf("state = %v, want Paused", got)
	}
	b.Pause() // idempotent
	p1 := b.Position()
	out.pump(2048) // beep.Ctrl emits nothing while paused
	if p2 := b.Position(); p2 != p1 {
		t.Fatalf("position advanced while paused: %v -> %v", p1, p2)
	}

	b.Resume()
	if got := b.State(); got != StatePlaying {
		t.Fatalf("state = %v, want Playing", got)
	}

	b.Seek(-time.Second)
	if p := b.Position(); p != 0 {
		t.Fatalf("position after negative seek = %v, want 0", p)
	}
	b.Seek(2 * time.Second)
	if p := b.Position(); p != b.Duration() {
		t.Fatalf("position after over-seek = %v, want %v", p, b.Duration())
	}

	b.Stop()
	if b.State() != StateIdle || b.Position() != 0 || b.Duration() != 0 {
		t.Fatalf("after stop: %v %v %v", b.State(), b.Position(), b.Duration())
	}
	b.Stop() // redundant stop is safe
}

func TestBasicCompletionFiresOnce(t *testing.T) {
	b, _ := newTestBasic(t, true)

	var fired atomic.Int32
	b.OnFinished(func() { fired.Add(1) })

	if err := b.Play(writeTone(t, 150*time.Millisecond)); err != nil {
		t.Fatalf("play: %v", err)
	}
	waitFor(t, 2*time.Second, func() bool { return b.State() == StateFinished }, "finish")
	waitFor(t, time.Second, func() bool { return fired.Load() == 1 }, "completion callback")

	time.Sleep(30 * time.Millisecond)
	if fired.Load() != 1 {
		t.Fatalf("completion fired %d times, want 1", fired.Load())
	}
}

func TestBasicNoCompletionOnStop(t *testing.T) {
	b, out := newTestBasic(t, false)

	var fired atomic.Int32
	b.OnFinished(func() { fired.Add(1) })

	if err := b.Play(writeTone(t, time.Second)); err != nil {
		t.Fatalf("play: %v", err)
	}
	out.pump(1024)
	b.Stop()
	time.Sleep(30 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("completion fired %d times after stop, want 0", fired.Load())
	}
}

func TestBasicVolumeMapsToStage(t *testing.T) {
	b, _ := newTestBasic(t, false)
	if err := b.Play(writeTone(t, 200*time.Millisecond)); err != nil {
		t.Fatalf("play: %v", err)
	}

	b.SetVolume(0)
	if !b.vol.Silent {
		t.Fatal("volume 0 must silence the stage")
	}
	b.SetVolume(1)
	if b.vol.Silent || b.vol.Volume != 0 {
		t.Fatalf("unity volume: silent=%v exp=%f, want false/0", b.vol.Silent, b.vol.Volume)
	}
	b.SetVolume(0.5)
	if b.vol.Volume != -1 {
		t.Fatalf("half volume exponent = %f, want -1", b.vol.Volume)
	}
	b.SetVolume(3)
	if b.Volume() != 1 {
		t.Fatalf("volume = %f, want clamp to 1", b.Volume())
	}
}

func TestBasicGainsAreNoOp(t *testing.T) {
	b, _ := newTestBasic(t, false)
	b.SetGains([NumBands]float64{12, 12, 12, 12, 12})
	if g := b.Gains(); g != ([NumBands]float64{}) {
		t.Fatalf("gains = %v, want flat", g)
	}
	if b.Samples(16) != nil {
		t.Fatal("fallback engine has no tap")
	}
}

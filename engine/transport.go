package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
)

var _ Engine = (*Controller)(nil)

// Controller is the advanced engine: the transport state machine owning
// the decode/filter/sink pipeline. Control operations serialize on one
// mutex; position, duration, state and the EQ/volume parameters cross
// to readers through atomics, so queries never contend with teardown.
type Controller struct {
	mu      sync.Mutex // serializes control operations
	out     output
	sr      beep.SampleRate
	avail   bool
	session *session // guarded by mu

	sess  atomic.Pointer[session] // lock-free snapshot for queries
	state atomic.Int32

	gains     *gainSlot   // process-lifetime, survives track changes
	volume    *volumeCell // same
	onDone    atomic.Value
	underruns atomic.Uint64
}

// NewController opens the audio device at the given rate. If the device
// cannot be opened the controller still works as an object but reports
// itself unavailable, and the shell falls back to Basic.
func NewController(sr beep.SampleRate) *Controller {
	return newController(sr, speakerOutput{})
}

func newController(sr beep.SampleRate, out output) *Controller {
	c := &Controller{
		out:    out,
		sr:     sr,
		gains:  newGainSlot(),
		volume: newVolumeCell(1),
	}
	if err := out.Init(sr); err != nil {
		slog.Warn("audio device unavailable", "err", err)
	} else {
		c.avail = true
	}
	return c
}

// Available reports whether the audio device was opened.
func (c *Controller) Available() bool { return c.avail }

// Play tears down any current session, then opens and starts path. On
// open failure the controller returns to idle and reports the error;
// no half-initialized session remains.
func (c *Controller) Play(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.teardownLocked()
	c.setState(StateLoading)

	streamer, format, err := openStream(path)
	if err != nil {
		c.setState(StateIdle)
		return err
	}

	c.startLocked(streamer, format, path)
	return nil
}

// startLocked activates a session over an already-open stream: producer
// and watcher goroutines up, sink handed to the device, state Playing.
func (c *Controller) startLocked(streamer beep.StreamSeekCloser, format beep.Format, path string) {
	sess := newSession(streamer, format, c.sr, c.volume, c.gains, &c.underruns)
	c.session = sess
	c.sess.Store(sess)

	go c.watch(sess)
	go sess.run()
	c.out.Play(sess.sink, func() { close(sess.drained) })

	c.setState(StatePlaying)
	slog.Info("playing", "path", path, "duration", c.durationLocked(sess))
}

// Pause halts consumption without releasing the decoder or the device.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StatePlaying || c.session == nil {
		return
	}
	c.session.sink.SetPaused(true)
	c.setState(StatePaused)
}

// Resume continues a paused session.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.State() != StatePaused || c.session == nil {
		return
	}
	c.session.sink.SetPaused(false)
	c.setState(StatePlaying)
}

// Stop retires the current session, if any, and returns to idle.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// Seek repositions the read cursor, clamped to [0, Duration]. Buffered
// blocks computed from the old position are discarded.
func (c *Controller) Seek(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st := c.State()
	if (st != StatePlaying && st != StatePaused) || c.session == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	c.session.requestSeek(int64(c.session.format.SampleRate.N(d)))
}

// SetVolume updates the shared volume. Effective on the next block;
// never blocks the audio path.
func (c *Controller) SetVolume(v float64) { c.volume.Set(v) }

// Volume returns the current volume.
func (c *Controller) Volume() float64 { return c.volume.Get() }

// SetGains updates the shared EQ gains. Effective on the next block,
// glitch-free.
func (c *Controller) SetGains(g [NumBands]float64) { c.gains.Set(g) }

// Gains returns the current EQ gains.
func (c *Controller) Gains() [NumBands]float64 {
	g, _ := c.gains.Load()
	return g
}

// Position returns the playback position, 0 when idle. Reads a
// last-known-safe snapshot and never races with teardown.
func (c *Controller) Position() time.Duration {
	sess := c.sess.Load()
	if sess == nil {
		return 0
	}
	return sess.format.SampleRate.D(int(sess.position()))
}

// Duration returns the current track's duration, 0 when idle.
func (c *Controller) Duration() time.Duration {
	sess := c.sess.Load()
	if sess == nil {
		return 0
	}
	return sess.format.SampleRate.D(int(sess.durFrames))
}

// State returns the transport state.
func (c *Controller) State() State { return State(c.state.Load()) }

// OnFinished registers the completion notification.
func (c *Controller) OnFinished(fn func()) { c.onDone.Store(fn) }

// Samples returns recent output samples for visualization.
func (c *Controller) Samples(n int) []float64 {
	sess := c.sess.Load()
	if sess == nil {
		return nil
	}
	return sess.sink.Tap(n)
}

// Underruns returns the process-lifetime underrun count.
func (c *Controller) Underruns() uint64 { return c.underruns.Load() }

// Close stops playback and releases the device.
func (c *Controller) Close() {
	c.Stop()
	if c.avail {
		c.out.Close()
	}
}

func (c *Controller) setState(s State) { c.state.Store(int32(s)) }

func (c *Controller) durationLocked(sess *session) time.Duration {
	return sess.format.SampleRate.D(int(sess.durFrames))
}

// watch waits for the session to drain naturally and fires the
// completion notification exactly once, from this goroutine rather than
// the producer or the hardware callback. Teardown closes stopped
// first, so stop and a superseding play never fire it.
func (c *Controller) watch(sess *session) {
	select {
	case <-sess.drained:
	case <-sess.stopped:
		return
	}

	c.mu.Lock()
	if c.session != sess || !sess.eof.Load() {
		c.mu.Unlock()
		return
	}
	sess.closeResources()
	sess.posFrames.Store(sess.durFrames)
	c.setState(StateFinished)
	var fn func()
	if v := c.onDone.Load(); v != nil {
		fn = v.(func())
	}
	c.mu.Unlock()

	if fn != nil {
		sess.finishOnce.Do(fn)
	}
}

// teardownLocked synchronously retires the current session: the device
// drops the sink, the producer is unblocked and joined, and the decoder
// is closed, before any new state is considered active.
func (c *Controller) teardownLocked() {
	sess := c.session
	if sess == nil {
		c.setState(StateIdle)
		return
	}
	c.out.Clear()
	sess.sink.Abort()
	<-sess.prodDone
	close(sess.stopped)
	sess.closeResources()
	c.session = nil
	c.sess.Store(nil)
	c.setState(StateIdle)
}

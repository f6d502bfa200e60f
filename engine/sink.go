package engine

import (
	"sync"
	"sync/atomic"
)

type pushResult int

const (
	pushOK pushResult = iota
	pushWoken
	pushAborted
)

// Sink is the bounded ring buffer between the producer (decode, filter,
// volume) and the hardware consumption callback. The producer blocks
// when the ring is full; the consumer never blocks: when the ring runs
// dry mid-track it emits silence and counts an underrun.
//
// Sink implements beep.Streamer, so it is handed to the output device
// directly. A small tap of consumed frames feeds the shell's spectrum
// visualizer.
type Sink struct {
	mu   sync.Mutex
	cond *sync.Cond

	blocks [][][2]float64 // preallocated ring slots
	lens   []int
	head   int // oldest block
	count  int // filled blocks
	off    int // consumed frames of the oldest block

	paused  bool
	closed  bool // producer finished; drain and report end
	aborted bool
	woken   bool // control-side kick, wakes a blocked producer

	underruns *atomic.Uint64

	tapBuf []float64
	tapPos int
}

func newSink(capBlocks, frames, tapSize int, underruns *atomic.Uint64) *Sink {
	s := &Sink{
		blocks:    make([][][2]float64, capBlocks),
		lens:      make([]int, capBlocks),
		underruns: underruns,
		tapBuf:    make([]float64, tapSize),
	}
	for i := range s.blocks {
		s.blocks[i] = make([][2]float64, frames)
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// Push copies one block into the ring, waiting for space. It returns
// pushAborted when the sink was shut down, and pushWoken when a control
// kick arrived while waiting; the caller then drops the block (it was
// computed from a position about to change) and re-runs its loop.
func (s *Sink) Push(block [][2]float64) pushResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.count == len(s.blocks) && !s.aborted && !s.woken {
		s.cond.Wait()
	}
	if s.aborted {
		return pushAborted
	}
	if s.woken {
		s.woken = false
		return pushWoken
	}
	tail := (s.head + s.count) % len(s.blocks)
	n := copy(s.blocks[tail], block)
	s.lens[tail] = n
	s.count++
	return pushOK
}

// Stream implements beep.Streamer for the hardware side. While paused
// it emits silence without consuming. On underrun it emits silence and
// increments the diagnostic counter. After the producer closed the ring
// and it drained, Stream reports the end of the stream.
func (s *Sink) Stream(samples [][2]float64) (int, bool) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return 0, false
	}
	if s.paused {
		s.mu.Unlock()
		zeroFrames(samples)
		return len(samples), true
	}

	n := 0
	for n < len(samples) && s.count > 0 {
		blk := s.blocks[s.head][:s.lens[s.head]]
		c := copy(samples[n:], blk[s.off:])
		s.tapConsumed(samples[n : n+c])
		s.off += c
		n += c
		if s.off == len(blk) {
			s.off = 0
			s.head = (s.head + 1) % len(s.blocks)
			s.count--
		}
	}
	if s.count < len(s.blocks) {
		s.cond.Broadcast()
	}
	closed := s.closed
	s.mu.Unlock()

	if n == len(samples) {
		return n, true
	}
	if closed {
		if n == 0 {
			return 0, false
		}
		return n, true
	}
	// Producer fell behind: pad with silence rather than stalling the
	// hardware callback.
	s.underruns.Add(1)
	zeroFrames(samples[n:])
	return len(samples), true
}

func (s *Sink) Err() error { return nil }

// tapConsumed mirrors consumed frames into the visualization ring as a
// mono mix. Called with mu held.
func (s *Sink) tapConsumed(frames [][2]float64) {
	for i := range frames {
		s.tapBuf[s.tapPos] = (frames[i][0] + frames[i][1]) / 2
		s.tapPos = (s.tapPos + 1) % len(s.tapBuf)
	}
}

// Tap returns the last n consumed samples in chronological order.
func (s *Sink) Tap(n int) []float64 {
	if n > len(s.tapBuf) {
		n = len(s.tapBuf)
	}
	out := make([]float64, n)
	s.mu.Lock()
	start := (s.tapPos - n + len(s.tapBuf)) % len(s.tapBuf)
	for i := range n {
		out[i] = s.tapBuf[(start+i)%len(s.tapBuf)]
	}
	s.mu.Unlock()
	return out
}

// SetPaused halts or resumes consumption. Buffered blocks are kept, so
// resuming continues from the exact frame where pausing stopped.
func (s *Sink) SetPaused(paused bool) {
	s.mu.Lock()
	s.paused = paused
	s.mu.Unlock()
}

// Flush discards everything buffered but not yet output. Called on seek
// so stale audio from the old position never reaches the hardware. It
// also consumes any pending kick: the kick belonged to the seek being
// applied right now, and leaving it set would make the producer drop
// its first post-seek block.
func (s *Sink) Flush() {
	s.mu.Lock()
	s.head = 0
	s.count = 0
	s.off = 0
	s.woken = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// Kick wakes a producer blocked in Push so it can notice pending
// control work (a seek) before the ring has space again.
func (s *Sink) Kick() {
	s.mu.Lock()
	s.woken = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

// CloseWrite marks the end of the produced stream. The consumer drains
// what remains and then reports the stream finished.
func (s *Sink) CloseWrite() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Abort shuts the sink down from the control side, unblocking the
// producer and ending consumption immediately.
func (s *Sink) Abort() {
	s.mu.Lock()
	s.aborted = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func zeroFrames(samples [][2]float64) {
	for i := range samples {
		samples[i] = [2]float64{}
	}
}

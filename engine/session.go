package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gopxl/beep/v2"
)

// session is one playback of one source: it owns the decoder, a filter
// bank, and a sink, and runs the producer goroutine feeding the sink.
// At most one session is live per Controller; starting a new one fully
// retires the previous one first.
type session struct {
	streamer beep.StreamSeekCloser // source-rate stream, owns the file
	src      beep.Streamer         // engine-rate view (resampled if needed)
	format   beep.Format
	bank     *FilterBank
	vol      *volumeCell
	sink     *Sink

	posFrames atomic.Int64 // read cursor, source-rate frames
	durFrames int64
	seekTo    atomic.Int64 // pending seek target, -1 when none

	drained  chan struct{} // output consumed everything (natural end)
	stopped  chan struct{} // control-side teardown
	prodDone chan struct{} // producer goroutine exited
	eof      atomic.Bool   // producer reached end of stream

	closeOnce  sync.Once
	finishOnce sync.Once

	buf [][2]float64 // reused block buffer; no allocation per block
}

func newSession(streamer beep.StreamSeekCloser, format beep.Format, engineRate beep.SampleRate, vol *volumeCell, gains *gainSlot, underruns *atomic.Uint64) *session {
	var src beep.Streamer = streamer
	if format.SampleRate != engineRate {
		src = beep.Resample(resampleQuality, format.SampleRate, engineRate, streamer)
	}
	s := &session{
		streamer:  streamer,
		src:       src,
		format:    format,
		bank:      NewFilterBank(gains, float64(engineRate)),
		vol:       vol,
		sink:      newSink(lookaheadBlocks, blockFrames, tapFrames, underruns),
		durFrames: int64(streamer.Len()),
		drained:   make(chan struct{}),
		stopped:   make(chan struct{}),
		prodDone:  make(chan struct{}),
		buf:       make([][2]float64, blockFrames),
	}
	s.seekTo.Store(-1)
	return s
}

// run is the producer loop: read a block, filter, scale, push. A decode
// error mid-stream is treated as end of stream, never surfaced as a
// hard failure.
func (s *session) run() {
	defer close(s.prodDone)
	for {
		if t := s.seekTo.Swap(-1); t >= 0 {
			s.applySeek(t)
		}

		n, ok := s.src.Stream(s.buf)
		if n > 0 {
			block := s.buf[:n]
			s.bank.Process(block)
			applyVolume(block, s.vol.Get())

			switch s.sink.Push(block) {
			case pushAborted:
				return
			case pushWoken:
				// A seek landed while we were blocked; the block
				// belongs to the old position, drop it.
				continue
			}
			s.posFrames.Store(int64(s.streamer.Position()))
		}
		if !ok {
			if err := s.src.Err(); err != nil {
				slog.Warn("decode error, ending stream", "err", err)
			}
			s.eof.Store(true)
			s.sink.CloseWrite()
			return
		}
	}
}

// requestSeek records the seek target (source frames) for the producer
// to apply at the next block boundary. Latest value wins. The position
// snapshot moves immediately so reads reflect the jump.
func (s *session) requestSeek(frames int64) {
	frames = max(0, min(frames, s.durFrames))
	s.posFrames.Store(frames)
	s.seekTo.Store(frames)
	s.sink.Kick()
}

func (s *session) applySeek(frames int64) {
	if err := s.streamer.Seek(int(frames)); err != nil {
		slog.Warn("seek failed", "frames", frames, "err", err)
		return
	}
	s.bank.Reset()
	s.sink.Flush()
	s.posFrames.Store(frames)
}

// closeResources releases the decoder (and with it the file). Safe to
// call from both the natural-completion and teardown paths.
func (s *session) closeResources() {
	s.closeOnce.Do(func() {
		if err := s.streamer.Close(); err != nil {
			slog.Debug("close streamer", "err", err)
		}
	})
}

func (s *session) position() int64 { return s.posFrames.Load() }

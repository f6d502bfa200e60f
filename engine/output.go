package engine

import (
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// output abstracts the hardware side of playback so the transport logic
// can be exercised without an audio device.
type output interface {
	// Init opens the device at the given rate. Safe to call once.
	Init(sr beep.SampleRate) error
	// Play starts consuming s, calling done when s reports its end.
	Play(s beep.Streamer, done func())
	// Clear stops consumption and drops the current streamer.
	Clear()
	// Lock/Unlock serialize direct access to a playing streamer's
	// state (used by the fallback engine for pause and seek).
	Lock()
	Unlock()
	// Close releases the device.
	Close()
}

// speakerOutput drives the real audio device through beep's speaker.
type speakerOutput struct{}

func (speakerOutput) Init(sr beep.SampleRate) error {
	// A tenth of a second of device-side buffer, as usual.
	return speaker.Init(sr, sr.N(time.Second/10))
}

func (speakerOutput) Play(s beep.Streamer, done func()) {
	speaker.Play(beep.Seq(s, beep.Callback(done)))
}

func (speakerOutput) Clear() { speaker.Clear() }

func (speakerOutput) Lock() { speaker.Lock() }

func (speakerOutput) Unlock() { speaker.Unlock() }

func (speakerOutput) Close() { speaker.Close() }

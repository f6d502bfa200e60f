package playlist

import (
	"fmt"
	"log/slog"

	"github.com/fsnotify/fsnotify"

	"github.com/yummyactually/onyx/engine"
)

// Watcher reports audio files appearing in a watched directory while
// the player runs, so dropped-in files join the playlist live.
type Watcher struct {
	fw     *fsnotify.Watcher
	tracks chan Track
	done   chan struct{}
}

// Watch starts watching dir for new audio files.
func Watch(dir string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	w := &Watcher{
		fw:     fw,
		tracks: make(chan Track, 16),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Tracks returns the channel of newly appeared tracks.
func (w *Watcher) Tracks() <-chan Track { return w.tracks }

func (w *Watcher) loop() {
	defer close(w.tracks)
	for {
		select {
		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !engine.Supported(ev.Name) {
				continue
			}
			select {
			case w.tracks <- TrackFromPath(ev.Name):
			case <-w.done:
				return
			}
		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			slog.Warn("playlist watcher", "err", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fw.Close()
}

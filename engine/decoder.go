package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// audioExts lists the file extensions the decoder dispatches on.
var audioExts = []string{".mp3", ".wav", ".flac", ".ogg", ".oga"}

// Supported reports whether path looks like a playable audio file.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range audioExts {
		if ext == e {
			return true
		}
	}
	return false
}

// openStream opens path and returns a seekable PCM stream plus its
// source format. Closing the stream closes the file. Any failure here
// is an open failure: it surfaces synchronously to Play's caller and no
// resources stay behind.
func openStream(path string) (beep.StreamSeekCloser, beep.Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open %s: %w", path, err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg", ".oga":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("%s: %w", filepath.Ext(path), ErrUnsupportedFormat)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return streamer, format, nil
}

package playlist

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/samber/lo"

	"github.com/yummyactually/onyx/engine"
)

// storeFile is the persisted playlist shape.
type storeFile struct {
	Tracks []Track `json:"tracks"`
}

// Save writes the playlist as JSON to path, creating parent directories
// as needed.
func Save(path string, p *Playlist) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create playlist dir: %w", err)
	}
	data, err := json.MarshalIndent(storeFile{Tracks: p.Tracks()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode playlist: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write playlist: %w", err)
	}
	return nil
}

// Load reads a persisted playlist. Tracks whose files no longer exist
// are dropped. A missing playlist file is not an error; it just yields
// no tracks.
func Load(path string) ([]Track, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read playlist: %w", err)
	}
	var sf storeFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("decode playlist %s: %w", path, err)
	}
	return lo.Filter(sf.Tracks, func(t Track, _ int) bool {
		_, statErr := os.Stat(t.Path)
		return statErr == nil
	}), nil
}

// Scan walks dir and returns tracks for every supported audio file,
// sorted by path for a stable order.
func Scan(dir string) ([]Track, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && engine.Supported(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(paths)
	return lo.Map(paths, func(path string, _ int) Track {
		return TrackFromPath(path)
	}), nil
}

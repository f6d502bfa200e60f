package playlist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestTrackFromPath(t *testing.T) {
	tests := []struct {
		path, artist, title string
	}{
		{"/music/Miles Davis - So What.mp3", "Miles Davis", "So What"},
		{"/music/ambient.flac", "", "ambient"},
		{"/music/A - B - C.wav", "A", "B - C"},
	}
	for _, tt := range tests {
		got := TrackFromPath(tt.path)
		if got.Artist != tt.artist || got.Title != tt.title {
			t.Errorf("TrackFromPath(%q) = %q/%q, want %q/%q",
				tt.path, got.Artist, got.Title, tt.artist, tt.title)
		}
	}
}

func TestAddDeduplicates(t *testing.T) {
	p := New()
	p.Add(Track{Path: "a.mp3", Title: "a"})
	p.Add(Track{Path: "a.mp3", Title: "a"}, Track{Path: "b.mp3", Title: "b"})
	if p.Len() != 2 {
		t.Fatalf("len = %d, want 2", p.Len())
	}
}

func TestNextRespectsRepeatModes(t *testing.T) {
	p := New()
	p.Add(Track{Path: "a"}, Track{Path: "b"})

	// RepeatOff: advance then stop at the end.
	if tr, ok := p.Next(); !ok || tr.Path != "b" {
		t.Fatalf("next = %v,%v", tr, ok)
	}
	if _, ok := p.Next(); ok {
		t.Fatal("expected end of playlist with repeat off")
	}

	// RepeatAll wraps.
	p.CycleRepeat()
	if tr, ok := p.Next(); !ok || tr.Path != "a" {
		t.Fatalf("repeat-all next = %v,%v, want wrap to a", tr, ok)
	}

	// RepeatOne stays put.
	p.CycleRepeat()
	if tr, ok := p.Next(); !ok || tr.Path != "a" {
		t.Fatalf("repeat-one next = %v,%v, want a again", tr, ok)
	}
}

func TestShufflePreservesCurrent(t *testing.T) {
	p := New()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		p.Add(Track{Path: s})
	}
	p.Next()
	_, before := p.Current()

	p.ToggleShuffle()
	if _, after := p.Current(); after != before {
		t.Fatalf("current changed across shuffle: %d -> %d", before, after)
	}
	if !p.Shuffled() {
		t.Fatal("shuffle not enabled")
	}

	p.ToggleShuffle()
	if _, after := p.Current(); after != before {
		t.Fatalf("current changed across unshuffle: %d -> %d", before, after)
	}
}

func TestSearch(t *testing.T) {
	p := New()
	p.Add(
		Track{Path: "/m/x.mp3", Artist: "Miles Davis", Title: "So What"},
		Track{Path: "/m/y.mp3", Artist: "Coltrane", Title: "Giant Steps"},
		Track{Path: "/m/blue in green.mp3", Title: "blue in green"},
	)
	if got := p.Search("miles"); len(got) != 1 || got[0] != 0 {
		t.Fatalf("search miles = %v", got)
	}
	if got := p.Search("  "); len(got) != 3 {
		t.Fatalf("blank search = %v, want all", got)
	}
	if got := p.Search("green"); len(got) != 1 || got[0] != 2 {
		t.Fatalf("search green = %v", got)
	}
	if got := p.Search("zzz"); len(got) != 0 {
		t.Fatalf("search zzz = %v, want none", got)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Only tracks whose files still exist survive a load.
	kept := filepath.Join(dir, "kept.mp3")
	if err := os.WriteFile(kept, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New()
	p.Add(
		Track{Path: kept, Title: "kept", Artist: "A"},
		Track{Path: filepath.Join(dir, "gone.mp3"), Title: "gone"},
	)

	store := filepath.Join(dir, "state", "playlist.json")
	if err := Save(store, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	tracks, err := Load(store)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tracks) != 1 || tracks[0].Path != kept || tracks[0].Artist != "A" {
		t.Fatalf("loaded = %+v, want only the kept track", tracks)
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	tracks, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil || tracks != nil {
		t.Fatalf("load missing = %v, %v, want nil, nil", tracks, err)
	}
}

func TestScanFindsSupportedFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "album")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"b.mp3", "a.flac", "cover.jpg", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	tracks, err := Scan(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("scan found %d tracks, want 2: %+v", len(tracks), tracks)
	}
	if tracks[0].Title != "a" || tracks[1].Title != "b" {
		t.Fatalf("scan order = %+v, want sorted", tracks)
	}
}

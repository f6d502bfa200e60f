// Package main is the entry point for the Onyx terminal music player.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gopxl/beep/v2"
	"github.com/spf13/cobra"

	"github.com/yummyactually/onyx/config"
	"github.com/yummyactually/onyx/engine"
	"github.com/yummyactually/onyx/playlist"
	"github.com/yummyactually/onyx/ui"
)

var (
	flagVolume   float64
	flagShuffle  bool
	flagWatch    string
	flagPlaylist string
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "onyx [file|dir ...]",
		Short: "A terminal music player with a five-band equalizer",
		Long: `Onyx plays local audio files (MP3, WAV, FLAC, Ogg Vorbis) with
live five-band equalization, a spectrum visualizer, and a persistent
playlist. Files and directories given as arguments are added to the
playlist restored from the previous session.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args)
		},
	}
	cmd.Flags().Float64VarP(&flagVolume, "volume", "v", -1, "initial volume (0..1, overrides ONYX_VOLUME)")
	cmd.Flags().BoolVarP(&flagShuffle, "shuffle", "s", false, "start with shuffle enabled")
	cmd.Flags().StringVarP(&flagWatch, "watch", "w", "", "directory to watch for new audio files")
	cmd.Flags().StringVarP(&flagPlaylist, "playlist", "p", "", "playlist file (overrides ONYX_PLAYLIST)")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if flagPlaylist != "" {
		cfg.PlaylistPath = flagPlaylist
	}
	if flagVolume >= 0 {
		cfg.Volume = flagVolume
	}

	closeLog, err := setupLogging(cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()

	pl := playlist.New()
	saved, err := playlist.Load(cfg.PlaylistPath)
	if err != nil {
		slog.Warn("restore playlist", "err", err)
	}
	pl.Add(saved...)

	if err := addArgs(pl, args); err != nil {
		return err
	}
	if pl.Len() == 0 {
		return fmt.Errorf("no tracks: pass audio files or directories, or restore a saved playlist")
	}
	if flagShuffle {
		pl.ToggleShuffle()
	}

	eng := engine.Select(beep.SampleRate(cfg.SampleRate))
	defer eng.Close()
	eng.SetVolume(cfg.Volume)

	m := ui.NewModel(eng, pl)
	prog := tea.NewProgram(m, tea.WithAltScreen())

	if flagWatch != "" {
		w, err := playlist.Watch(flagWatch)
		if err != nil {
			return err
		}
		defer w.Close()
		go func() {
			for track := range w.Tracks() {
				prog.Send(ui.TrackAddedMsg{Track: track})
			}
		}()
	}

	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("tui: %w", err)
	}

	if err := playlist.Save(cfg.PlaylistPath, pl); err != nil {
		slog.Warn("save playlist", "err", err)
	}
	return nil
}

// addArgs expands globs, scans directories, and adds everything to the
// playlist.
func addArgs(pl *playlist.Playlist, args []string) error {
	var paths []string
	for _, arg := range args {
		// Expand shell globs that may not have been expanded by the shell
		matches, err := filepath.Glob(arg)
		if err != nil || len(matches) == 0 {
			paths = append(paths, arg)
		} else {
			paths = append(paths, matches...)
		}
	}
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			tracks, err := playlist.Scan(path)
			if err != nil {
				return err
			}
			pl.Add(tracks...)
			continue
		}
		if !engine.Supported(path) {
			return fmt.Errorf("unsupported file type: %s", path)
		}
		pl.Add(playlist.TrackFromPath(path))
	}
	return nil
}

// setupLogging routes slog to a file, or discards it. Stderr is owned by
// the TUI, so logs never go there while the program runs.
func setupLogging(path string) (func(), error) {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))
	return func() { f.Close() }, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

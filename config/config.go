// Package config loads player settings from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// Config holds the player's startup settings. Every field has a sane
// default and an ONYX_* environment override.
type Config struct {
	SampleRate   int     // output device sample rate in Hz
	Volume       float64 // initial volume, linear 0..1
	PlaylistPath string  // where the playlist is persisted
	LogPath      string  // log file; empty disables logging
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		SampleRate:   envInt("ONYX_SAMPLE_RATE", 44100),
		Volume:       envFloat("ONYX_VOLUME", 0.7),
		PlaylistPath: envStr("ONYX_PLAYLIST", defaultPlaylistPath()),
		LogPath:      envStr("ONYX_LOG", ""),
	}
}

func defaultPlaylistPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "onyx-playlist.json"
	}
	return filepath.Join(dir, "onyx", "playlist.json")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

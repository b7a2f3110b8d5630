package config

import (
	"os"
	"path/filepath"

	"video-transcriber/internal/domain"
)

const (
	// DefaultAPIBaseURL is the local video service the app talks to.
	DefaultAPIBaseURL = "http://localhost:3333"
	// DefaultFFmpegPath is resolved against PATH.
	DefaultFFmpegPath = "ffmpeg"

	appDirName       = ".video-transcriber"
	settingsFileName = "settings.json"
)

// DefaultSettings returns baseline configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		APIBaseURL: DefaultAPIBaseURL,
		FFmpegPath: DefaultFFmpegPath,
		WorkDir:    os.TempDir(),
	}
}

// DefaultPath is where the desktop app keeps its settings file.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, appDirName, settingsFileName)
}

// withDefaults fills blank fields from DefaultSettings.
func withDefaults(cfg domain.Settings) domain.Settings {
	def := DefaultSettings()
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = def.APIBaseURL
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = def.FFmpegPath
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = def.WorkDir
	}
	return cfg
}

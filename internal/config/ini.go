package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/ini.v1"

	"video-transcriber/internal/domain"
)

// LoadINI reads CLI settings from an INI file layered over defaults.
// A missing file yields defaults.
//
//	[api]
//	base_url = http://localhost:3333
//
//	[ffmpeg]
//	path = ffmpeg
//	work_dir = /tmp
func LoadINI(path string) (domain.Settings, error) {
	cfg := DefaultSettings()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}

	file, err := ini.Load(path)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load %s: %w", path, err)
	}

	api := file.Section("api")
	cfg.APIBaseURL = api.Key("base_url").MustString(cfg.APIBaseURL)

	ff := file.Section("ffmpeg")
	cfg.FFmpegPath = ff.Key("path").MustString(cfg.FFmpegPath)
	cfg.WorkDir = ff.Key("work_dir").MustString(cfg.WorkDir)

	cfg = Normalize(cfg)
	if err := Validate(cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// SaveINI writes settings in the layout LoadINI reads.
func SaveINI(path string, cfg domain.Settings) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	file := ini.Empty()
	if _, err := file.Section("api").NewKey("base_url", cfg.APIBaseURL); err != nil {
		return err
	}
	ff := file.Section("ffmpeg")
	if _, err := ff.NewKey("path", cfg.FFmpegPath); err != nil {
		return err
	}
	if _, err := ff.NewKey("work_dir", cfg.WorkDir); err != nil {
		return err
	}
	return file.SaveTo(path)
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"video-transcriber/internal/domain"
)

// TestDefaultSettings verifies baseline defaults are present.
func TestDefaultSettings(t *testing.T) {
	cfg := DefaultSettings()
	if cfg.APIBaseURL != "http://localhost:3333" {
		t.Fatalf("api base url = %q, want http://localhost:3333", cfg.APIBaseURL)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Fatalf("ffmpeg path = %q, want ffmpeg", cfg.FFmpegPath)
	}
	if cfg.WorkDir == "" {
		t.Fatal("expected non-empty work dir")
	}
	if !strings.HasSuffix(DefaultPath(), filepath.Join(".video-transcriber", "settings.json")) {
		t.Fatalf("default path = %q", DefaultPath())
	}
}

// TestJSONStoreLoadMissingReturnsDefaults checks first-run behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "settings.json")
	store := NewJSONStore(path)

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestJSONStoreSaveAndLoadRoundTrip checks persisted settings fidelity.
func TestJSONStoreSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	store := NewJSONStore(path)
	want := domain.Settings{
		APIBaseURL: "https://videos.internal:8443",
		FFmpegPath: "/opt/ffmpeg/bin/ffmpeg",
		WorkDir:    "/var/tmp/vt",
	}

	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

// TestJSONStoreLoadFillsMissingFields checks partial files.
func TestJSONStoreLoadFillsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte(`{"apiBaseURL":"http://api:9000"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := NewJSONStore(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.APIBaseURL != "http://api:9000" || got.FFmpegPath != DefaultFFmpegPath || got.WorkDir == "" {
		t.Fatalf("settings = %+v", got)
	}
}

// TestJSONStoreSaveRejectsInvalidURL checks validation before write.
func TestJSONStoreSaveRejectsInvalidURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	err := NewJSONStore(path).Save(domain.Settings{APIBaseURL: "localhost:3333"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("settings file should not be written, stat err = %v", statErr)
	}
}

// TestJSONStoreLoadInvalidJSON checks parse error handling.
func TestJSONStoreLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "settings.json")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("{not-json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	store := NewJSONStore(path)
	if _, err := store.Load(); err == nil {
		t.Fatal("expected json parse error")
	}
}

func TestNormalizeTrimsTrailingSlash(t *testing.T) {
	got := Normalize(domain.Settings{APIBaseURL: " http://localhost:3333/ "})
	if got.APIBaseURL != "http://localhost:3333" {
		t.Fatalf("api base url = %q", got.APIBaseURL)
	}
}

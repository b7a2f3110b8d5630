package config

import (
	"os"
	"path/filepath"
	"testing"

	"video-transcriber/internal/domain"
)

func TestLoadINIMissingFileReturnsDefaults(t *testing.T) {
	got, err := LoadINI(filepath.Join(t.TempDir(), "vtt.ini"))
	if err != nil {
		t.Fatalf("LoadINI() error = %v", err)
	}
	if got != DefaultSettings() {
		t.Fatalf("settings = %+v, want defaults", got)
	}
}

// TestLoadINIReadsSections checks the documented layout.
func TestLoadINIReadsSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtt.ini")
	content := "[api]\nbase_url = http://videos:3333/\n\n[ffmpeg]\npath = /usr/bin/ffmpeg\nwork_dir = /scratch\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := LoadINI(path)
	if err != nil {
		t.Fatalf("LoadINI() error = %v", err)
	}
	want := domain.Settings{APIBaseURL: "http://videos:3333", FFmpegPath: "/usr/bin/ffmpeg", WorkDir: "/scratch"}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

func TestLoadINIRejectsBadURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtt.ini")
	if err := os.WriteFile(path, []byte("[api]\nbase_url = ftp://x\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadINI(path); err == nil {
		t.Fatal("expected validation error")
	}
}

// TestSaveINIRoundTrip checks SaveINI output is readable by LoadINI.
func TestSaveINIRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vtt.ini")
	want := domain.Settings{APIBaseURL: "https://api.example.test", FFmpegPath: "ffmpeg", WorkDir: "/tmp/vt"}
	if err := SaveINI(path, want); err != nil {
		t.Fatalf("SaveINI() error = %v", err)
	}
	got, err := LoadINI(path)
	if err != nil {
		t.Fatalf("LoadINI() error = %v", err)
	}
	if got != want {
		t.Fatalf("settings = %+v, want %+v", got, want)
	}
}

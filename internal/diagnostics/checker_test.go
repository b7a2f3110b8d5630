package diagnostics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"video-transcriber/internal/domain"
	"video-transcriber/internal/transcode"
)

func foundTool(name string) (string, error) { return "/usr/local/bin/" + name, nil }

func okProbe(ctx context.Context, path string) (*transcode.Engine, error) {
	return &transcode.Engine{Path: path, Version: "ffmpeg version 6.1"}, nil
}

// TestCheckerRunAllPass validates happy-path diagnostics report.
func TestCheckerRunAllPass(t *testing.T) {
	checker := NewCheckerForTests(foundTool, okProbe, os.MkdirAll, os.CreateTemp, os.Remove)

	report := checker.Run(context.Background(), domain.Settings{
		APIBaseURL: "http://localhost:3333",
		FFmpegPath: "ffmpeg",
		WorkDir:    filepath.Join(t.TempDir(), "work"),
	})

	if report.HasFailures {
		t.Fatalf("expected no failures, got %+v", report.Items)
	}
	if len(report.Items) != 4 {
		t.Fatalf("items = %d, want 4", len(report.Items))
	}
	if len(report.Failed()) != 0 {
		t.Fatalf("failed = %+v", report.Failed())
	}
}

// TestCheckerRunMissingToolSkipsEncoder validates failure reporting.
func TestCheckerRunMissingToolSkipsEncoder(t *testing.T) {
	probed := false
	checker := NewCheckerForTests(
		func(string) (string, error) { return "", errors.New("not found") },
		func(ctx context.Context, path string) (*transcode.Engine, error) {
			probed = true
			return nil, errors.New("unexpected probe")
		},
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{
		APIBaseURL: "not a url",
		WorkDir:    t.TempDir(),
	})

	if !report.HasFailures {
		t.Fatal("expected failures")
	}
	if probed {
		t.Fatal("encoder probe should be skipped without ffmpeg")
	}
	assertStatusByID(t, report, ItemFFmpeg, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemMP3Encoder, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemAPIBaseURL, domain.DiagnosticStatusFail)
	assertStatusByID(t, report, ItemWorkDir, domain.DiagnosticStatusPass)

	item := findItem(t, report, ItemFFmpeg)
	if !item.Fixable {
		t.Fatal("missing ffmpeg should be fixable")
	}
}

// TestCheckerRunEncoderMissing validates the probe failure message.
func TestCheckerRunEncoderMissing(t *testing.T) {
	checker := NewCheckerForTests(
		foundTool,
		func(ctx context.Context, path string) (*transcode.Engine, error) {
			return nil, &transcode.ConversionError{Op: "init", Message: "ffmpeg was built without libmp3lame"}
		},
		os.MkdirAll,
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{WorkDir: t.TempDir()})

	item := findItem(t, report, ItemMP3Encoder)
	if item.Status != domain.DiagnosticStatusFail || item.Message != "ffmpeg was built without libmp3lame" {
		t.Fatalf("item = %+v", item)
	}
	assertStatusByID(t, report, ItemAPIBaseURL, domain.DiagnosticStatusPass)
}

// TestCheckerRunUnwritableWorkDir validates the work dir check.
func TestCheckerRunUnwritableWorkDir(t *testing.T) {
	checker := NewCheckerForTests(
		foundTool,
		okProbe,
		func(string, os.FileMode) error { return os.ErrPermission },
		os.CreateTemp,
		os.Remove,
	)

	report := checker.Run(context.Background(), domain.Settings{WorkDir: "/root-owned/work"})

	item := findItem(t, report, ItemWorkDir)
	if item.Status != domain.DiagnosticStatusFail || !item.Fixable {
		t.Fatalf("item = %+v", item)
	}
}

func findItem(t *testing.T, report domain.DiagnosticReport, id string) domain.DiagnosticItem {
	t.Helper()
	for _, item := range report.Items {
		if item.ID == id {
			return item
		}
	}
	t.Fatalf("diagnostic item not found: %s", id)
	return domain.DiagnosticItem{}
}

// assertStatusByID checks status for one diagnostic item by ID.
func assertStatusByID(t *testing.T, report domain.DiagnosticReport, id string, want domain.DiagnosticStatus) {
	t.Helper()
	if got := findItem(t, report, id).Status; got != want {
		t.Fatalf("item %s: got %s, want %s", id, got, want)
	}
}

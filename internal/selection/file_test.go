package selection

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"video-transcriber/internal/domain"
)

func mp4Header() []byte {
	return append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}, make([]byte, 200)...)
}

// TestReadFileUsesExtension checks the common case.
func TestReadFileUsesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lecture.MP4")
	if err := os.WriteFile(path, mp4Header(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if file.Name != "lecture.MP4" {
		t.Fatalf("name = %q", file.Name)
	}
	if file.MediaType != "video/mp4" {
		t.Fatalf("media type = %q, want video/mp4", file.MediaType)
	}
	if file.Size != int64(len(mp4Header())) || len(file.Data) != len(mp4Header()) {
		t.Fatalf("size = %d, data = %d", file.Size, len(file.Data))
	}
}

// TestReadFileSniffsWithoutExtension checks the content fallback.
func TestReadFileSniffsWithoutExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip")
	if err := os.WriteFile(path, mp4Header(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if file.MediaType != "video/mp4" {
		t.Fatalf("media type = %q, want video/mp4", file.MediaType)
	}
}

func TestReadFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.mp4")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFile(path); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("error = %v, want %v", err, ErrEmptyFile)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.mp4"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want not exist", err)
	}
}

// TestIdentifyContainers checks container sniffing.
func TestIdentifyContainers(t *testing.T) {
	cases := []struct {
		name string
		data []byte
		want Container
	}{
		{name: "mp4", data: mp4Header(), want: ContainerMP4},
		{name: "ogg", data: append([]byte("OggS"), make([]byte, 200)...), want: ContainerOgg},
		{name: "flac", data: append([]byte("fLaC"), make([]byte, 200)...), want: ContainerFLAC},
		{name: "short", data: []byte("abc"), want: ContainerUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Identify(tc.data); got != tc.want {
				t.Fatalf("Identify() = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestIsRecommended(t *testing.T) {
	if !IsRecommended(domain.SelectedFile{MediaType: "video/mp4"}) {
		t.Fatal("video/mp4 should be recommended")
	}
	if !IsRecommended(domain.SelectedFile{MediaType: "application/octet-stream", Data: mp4Header()}) {
		t.Fatal("ftyp content should be recommended")
	}
	if IsRecommended(domain.SelectedFile{MediaType: "video/webm", Data: []byte{0x1a, 0x45, 0xdf, 0xa3}}) {
		t.Fatal("webm should not be recommended")
	}
}

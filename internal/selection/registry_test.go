package selection

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"video-transcriber/internal/domain"
)

func previewFile() domain.SelectedFile {
	data := []byte("0123456789")
	return domain.SelectedFile{Name: "clip.mp4", MediaType: "video/mp4", Size: int64(len(data)), Data: data}
}

// TestRegistryServesAcquiredHandle checks full and ranged reads.
func TestRegistryServesAcquiredHandle(t *testing.T) {
	reg := NewRegistry()
	h := reg.Acquire(previewFile())
	if !strings.HasPrefix(h.URL, PreviewPrefix) || h.Token == "" {
		t.Fatalf("handle = %+v", h)
	}

	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, h.URL, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Fatalf("content type = %q", ct)
	}
	if body, _ := io.ReadAll(rec.Body); string(body) != "0123456789" {
		t.Fatalf("body = %q", body)
	}

	req := httptest.NewRequest(http.MethodGet, h.URL, nil)
	req.Header.Set("Range", "bytes=2-4")
	rec = httptest.NewRecorder()
	reg.ServeHTTP(rec, req)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if body := rec.Body.String(); body != "234" {
		t.Fatalf("range body = %q, want 234", body)
	}
}

// TestRegistryReleaseRevokes checks released handles stop resolving.
func TestRegistryReleaseRevokes(t *testing.T) {
	reg := NewRegistry()
	h := reg.Acquire(previewFile())
	reg.Release(h)
	reg.Release(h)

	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, h.URL, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if reg.Len() != 0 {
		t.Fatalf("live handles = %d, want 0", reg.Len())
	}
}

func TestRegistryRejectsWrites(t *testing.T) {
	reg := NewRegistry()
	h := reg.Acquire(previewFile())

	rec := httptest.NewRecorder()
	reg.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, h.URL, nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}

// TestSurfaceReplaceReleasesPrevious checks only one handle stays live.
func TestSurfaceReplaceReleasesPrevious(t *testing.T) {
	reg := NewRegistry()
	surface := NewSurface(reg)

	first := surface.Replace(previewFile())
	second := surface.Replace(domain.SelectedFile{Name: "b.mp4", MediaType: "video/mp4", Data: []byte("b")})
	if first.Token == second.Token {
		t.Fatal("expected distinct tokens")
	}
	if reg.Len() != 1 {
		t.Fatalf("live handles = %d, want 1", reg.Len())
	}

	h, file, ok := surface.Current()
	if !ok || h != second || file.Name != "b.mp4" {
		t.Fatalf("current = %+v %+v %v", h, file, ok)
	}

	if err := surface.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := surface.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if reg.Len() != 0 {
		t.Fatalf("live handles = %d, want 0", reg.Len())
	}
	if _, _, ok := surface.Current(); ok {
		t.Fatal("expected no current handle after close")
	}
}

package selection

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"video-transcriber/internal/domain"
)

// PreviewPrefix is the URL path under which previews are served.
const PreviewPrefix = "/preview/"

// Handle is a revocable reference to a previewable selection.
type Handle struct {
	Token string `json:"token"`
	URL   string `json:"url"`
}

type previewEntry struct {
	file    domain.SelectedFile
	modTime time.Time
}

// Registry serves registered selections over HTTP until released.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]previewEntry
	now     func() time.Time
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]previewEntry),
		now:     time.Now,
	}
}

// Acquire registers file and returns its handle.
func (r *Registry) Acquire(file domain.SelectedFile) Handle {
	token := uuid.NewString()
	r.mu.Lock()
	r.entries[token] = previewEntry{file: file, modTime: r.now()}
	r.mu.Unlock()
	return Handle{Token: token, URL: PreviewPrefix + token}
}

// Release revokes a handle. Releasing an unknown handle is a no-op.
func (r *Registry) Release(h Handle) {
	if h.Token == "" {
		return
	}
	r.mu.Lock()
	delete(r.entries, h.Token)
	r.mu.Unlock()
}

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ServeHTTP serves GET/HEAD /preview/{token} with range support.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet && req.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token := strings.TrimPrefix(req.URL.Path, PreviewPrefix)
	if token == "" || strings.Contains(token, "/") {
		http.NotFound(w, req)
		return
	}

	r.mu.RLock()
	entry, ok := r.entries[token]
	r.mu.RUnlock()
	if !ok {
		http.NotFound(w, req)
		return
	}

	if entry.file.MediaType != "" {
		w.Header().Set("Content-Type", entry.file.MediaType)
	}
	w.Header().Set("Cache-Control", "no-store")
	http.ServeContent(w, req, entry.file.Name, entry.modTime, bytes.NewReader(entry.file.Data))
}

package selection

import (
	"sync"

	"video-transcriber/internal/domain"
)

// Surface tracks the single preview shown to the user.
type Surface struct {
	registry *Registry

	mu      sync.Mutex
	current *Handle
	file    *domain.SelectedFile
}

// NewSurface binds a surface to registry.
func NewSurface(registry *Registry) *Surface {
	return &Surface{registry: registry}
}

// Replace shows file and releases the handle it supersedes.
func (s *Surface) Replace(file domain.SelectedFile) Handle {
	h := s.registry.Acquire(file)

	s.mu.Lock()
	prev := s.current
	s.current = &h
	s.file = &file
	s.mu.Unlock()

	if prev != nil {
		s.registry.Release(*prev)
	}
	return h
}

// Current returns the live handle and file, if any.
func (s *Surface) Current() (Handle, domain.SelectedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Handle{}, domain.SelectedFile{}, false
	}
	return *s.current, *s.file, true
}

// Clear releases the current handle.
func (s *Surface) Clear() {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.file = nil
	s.mu.Unlock()

	if prev != nil {
		s.registry.Release(*prev)
	}
}

// Close releases everything the surface holds. Safe to call more than once.
func (s *Surface) Close() error {
	s.Clear()
	return nil
}

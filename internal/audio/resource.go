package audio

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrRevoked is returned when a revoked resource is opened.
	ErrRevoked = errors.New("audio resource revoked")

	// ErrNoAudio is returned when there is no resource to act on.
	ErrNoAudio = errors.New("no audio available")
)

// Resource is a playable audio payload backed by a temp file. It stays
// valid until Revoke is called.
type Resource struct {
	path string
	size int64

	mu      sync.Mutex
	revoked bool
}

// NewResource writes data to a new temp file in dir (the system temp dir
// when empty).
func NewResource(data []byte, dir string) (*Resource, error) {
	if len(data) == 0 {
		return nil, ErrNoAudio
	}

	f, err := os.CreateTemp(dir, "speakr-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create audio file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	return &Resource{path: f.Name(), size: int64(len(data))}, nil
}

// Path returns the backing file.
func (r *Resource) Path() string { return r.path }

// Size returns the payload size in bytes.
func (r *Resource) Size() int64 { return r.size }

// Open opens the payload for reading.
func (r *Resource) Open() (*os.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revoked {
		return nil, ErrRevoked
	}
	return os.Open(r.path)
}

// Revoked reports whether Revoke has been called.
func (r *Resource) Revoked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.revoked
}

// Revoke deletes the backing file. Calling it again is a no-op.
func (r *Resource) Revoke() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.revoked {
		return nil
	}
	r.revoked = true

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove audio file: %w", err)
	}
	return nil
}

// Slot holds at most one live resource. Replacing the resource revokes the
// previous one.
type Slot struct {
	mu      sync.Mutex
	current *Resource
}

// Replace makes r the current resource and revokes the old one.
func (s *Slot) Replace(r *Resource) {
	s.mu.Lock()
	prev := s.current
	s.current = r
	s.mu.Unlock()

	if prev != nil && prev != r {
		if err := prev.Revoke(); err != nil {
			log.Warn("failed to revoke audio", "path", prev.Path(), "error", err)
		}
	}
}

// Current returns the live resource, or nil.
func (s *Slot) Current() *Resource {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current
}

// Release revokes and clears the current resource.
func (s *Slot) Release() error {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()

	if prev == nil {
		return nil
	}
	return prev.Revoke()
}

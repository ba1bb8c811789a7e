package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

var errCorrupt = errors.New("corrupt store file")

// FileStore keeps every key in one JSON object on disk. Each write goes
// to its own temp file that is then renamed over the store, so readers in
// other processes never see a torn file. The last writer wins.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// OpenFile opens (without creating) a file store at path.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, &Error{Op: OpOpen, Cause: errors.New("path is required")}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &Error{Op: OpOpen, Cause: fmt.Errorf("failed to create directory: %w", err)}
	}
	return &FileStore{path: path}, nil
}

// Path returns the backing file.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for key, re-reading the file on every call so
// writes from other processes are visible.
func (f *FileStore) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", &Error{Op: OpRead, Key: key, Cause: err}
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.loadForWrite()
	if err != nil {
		return &Error{Op: OpWrite, Key: key, Cause: err}
	}
	values[key] = value
	if err := f.save(values); err != nil {
		return &Error{Op: OpWrite, Key: key, Cause: err}
	}
	return nil
}

// Remove deletes key.
func (f *FileStore) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.loadForWrite()
	if err != nil {
		return &Error{Op: OpRemove, Key: key, Cause: err}
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if err := f.save(values); err != nil {
		return &Error{Op: OpRemove, Key: key, Cause: err}
	}
	return nil
}

// Close is a no-op; nothing is held open between calls.
func (f *FileStore) Close() error { return nil }

func (f *FileStore) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %w", errCorrupt, err)
	}
	return values, nil
}

// loadForWrite is load, except that a file that doesn't parse is replaced
// by the write instead of blocking it.
func (f *FileStore) loadForWrite() (map[string]string, error) {
	values, err := f.load()
	if errors.Is(err, errCorrupt) {
		log.Warn("overwriting unreadable store file", "path", f.path, "error", err)
		return make(map[string]string), nil
	}
	return values, err
}

func (f *FileStore) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	tempPath := tmp.Name()

	_, err = tmp.Write(data)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tempPath, f.path)
	}
	if err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	return nil
}

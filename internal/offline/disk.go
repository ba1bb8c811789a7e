package offline

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zstd"
)

const (
	indexFile = "cache.index"

	// compressThreshold is the smallest encoded entry worth compressing.
	compressThreshold = 1024
)

// DiskStorage keeps each named cache in its own directory under basePath.
// Entries are gob-encoded responses, zstd-compressed when that saves space.
type DiskStorage struct {
	basePath string

	encoder *zstd.Encoder // nil when compression is disabled
	decoder *zstd.Decoder

	mu     sync.Mutex
	caches map[string]*diskCache
}

// diskEntry is one record of a cache directory's index.
type diskEntry struct {
	Key          string
	File         string
	Size         int64 // on disk
	OriginalSize int64
	Timestamp    time.Time
	Compressed   bool
}

type diskCache struct {
	dir     string
	storage *DiskStorage

	mu    sync.Mutex
	index map[string]*diskEntry
}

// NewDiskStorage opens storage rooted at basePath. A compressionLevel of 0
// disables compression; 1-22 are zstd levels.
func NewDiskStorage(basePath string, compressionLevel int) (*DiskStorage, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	s := &DiskStorage{
		basePath: basePath,
		caches:   make(map[string]*diskCache),
	}

	if compressionLevel > 0 {
		var err error
		s.encoder, err = zstd.NewWriter(nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(compressionLevel)))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
	}

	// Entries written with compression stay readable after it is turned off.
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	s.decoder = decoder

	return s, nil
}

func (s *DiskStorage) cacheDir(name string) (string, error) {
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("invalid cache name %q", name)
	}
	return filepath.Join(s.basePath, url.PathEscape(name)), nil
}

func (s *DiskStorage) Open(name string) (Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.caches[name]; ok {
		return c, nil
	}

	dir, err := s.cacheDir(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache %s: %w", name, err)
	}

	c := &diskCache{dir: dir, storage: s, index: make(map[string]*diskEntry)}
	if err := c.loadIndex(); err != nil {
		log.Warn("cache index unreadable, starting empty", "cache", name, "error", err)
		c.index = make(map[string]*diskEntry)
	}
	s.caches[name] = c
	return c, nil
}

func (s *DiskStorage) Has(name string) (bool, error) {
	dir, err := s.cacheDir(name)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (s *DiskStorage) Delete(name string) (bool, error) {
	ok, err := s.Has(name)
	if err != nil || !ok {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir, _ := s.cacheDir(name)
	if err := os.RemoveAll(dir); err != nil {
		return false, fmt.Errorf("failed to delete cache %s: %w", name, err)
	}
	delete(s.caches, name)
	return true, nil
}

func (s *DiskStorage) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to list caches: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name, err := url.PathUnescape(e.Name())
		if err != nil {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)
	return names, nil
}

// Close releases the compression resources.
func (s *DiskStorage) Close() error {
	s.decoder.Close()
	if s.encoder != nil {
		return s.encoder.Close()
	}
	return nil
}

func (c *diskCache) Match(key string) (*Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.index[key]
	if !ok {
		return nil, ErrCacheMiss
	}

	resp, err := c.read(entry)
	if err != nil {
		// Missing or corrupted; forget it so the next read refetches.
		log.Debug("dropping unreadable cache entry", "key", key, "error", err)
		_ = os.Remove(filepath.Join(c.dir, entry.File))
		delete(c.index, key)
		return nil, ErrCacheMiss
	}
	return resp, nil
}

func (c *diskCache) read(entry *diskEntry) (*Response, error) {
	data, err := os.ReadFile(filepath.Join(c.dir, entry.File))
	if err != nil {
		return nil, err
	}
	if entry.Compressed {
		data, err = c.storage.decoder.DecodeAll(data, nil)
		if err != nil {
			return nil, err
		}
	}

	var resp Response
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *diskCache) Put(key string, resp *Response) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}

	data := buf.Bytes()
	originalSize := int64(len(data))
	compressed := false
	if enc := c.storage.encoder; enc != nil && len(data) > compressThreshold {
		if packed := enc.EncodeAll(data, nil); len(packed) < len(data) {
			data = packed
			compressed = true
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	file := fileName(key)
	if err := writeFile(filepath.Join(c.dir, file), data); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	c.index[key] = &diskEntry{
		Key:          key,
		File:         file,
		Size:         int64(len(data)),
		OriginalSize: originalSize,
		Timestamp:    time.Now(),
		Compressed:   compressed,
	}
	return c.saveIndex()
}

func (c *diskCache) Keys() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*diskEntry, 0, len(c.index))
	for _, e := range c.index {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b *diskEntry) int {
		if n := a.Timestamp.Compare(b.Timestamp); n != 0 {
			return n
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys, nil
}

func fileName(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:16]) + ".cache"
}

// writeFile writes to a temp file first, then renames it into place.
func writeFile(path string, data []byte) error {
	tempPath := path + ".tmp"

	file, err := os.Create(tempPath)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	closeErr := file.Close()

	if err != nil {
		_ = os.Remove(tempPath)
		return err
	}
	if closeErr != nil {
		_ = os.Remove(tempPath)
		return closeErr
	}

	return os.Rename(tempPath, path)
}

func (c *diskCache) loadIndex() error {
	file, err := os.Open(filepath.Join(c.dir, indexFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer file.Close() //nolint:errcheck

	return gob.NewDecoder(file).Decode(&c.index)
}

func (c *diskCache) saveIndex() error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(c.index); err != nil {
		return fmt.Errorf("failed to encode cache index: %w", err)
	}
	return writeFile(filepath.Join(c.dir, indexFile), buf.Bytes())
}

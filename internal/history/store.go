package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dgnsrekt/speakr/internal/storage"
	"github.com/google/uuid"
)

// StorageKey is the single key the whole list is stored under.
const StorageKey = "tts_history"

// Marshal serializes entries as a JSON array, keeping at most MaxEntries.
func Marshal(entries []Entry) ([]byte, error) {
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	if entries == nil {
		entries = []Entry{}
	}
	return json.Marshal(entries)
}

// Unmarshal parses a stored list. Entries saved without an ID are given
// one derived from their contents, so every load assigns the same IDs.
func Unmarshal(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid history data: %w", err)
	}
	seen := make(map[string]int)
	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = legacyID(entries[i], seen)
		}
	}
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	return entries, nil
}

// legacyID hashes the entry's timestamp, voice and text. Identical entries
// are told apart by how many came before them.
func legacyID(e Entry, seen map[string]int) string {
	name := e.Timestamp.UTC().Format(time.RFC3339Nano) + "\x00" + e.Voice + "\x00" + e.Text
	n := seen[name]
	seen[name] = n + 1
	if n > 0 {
		name += "\x00" + strconv.Itoa(n)
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(name)).String()
}

// Store persists a history list in a storage.Store.
type Store struct {
	backend storage.Store
}

// NewStore wraps backend.
func NewStore(backend storage.Store) *Store {
	return &Store{backend: backend}
}

// Load reads the stored list. A missing key is an empty history.
func (s *Store) Load() ([]Entry, error) {
	raw, err := s.backend.Get(StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return Unmarshal([]byte(raw))
}

// Save writes entries as one value, replacing whatever is stored.
func (s *Store) Save(entries []Entry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}
	return s.backend.Set(StorageKey, string(data))
}

// Clear removes the stored list.
func (s *Store) Clear() error {
	return s.backend.Remove(StorageKey)
}

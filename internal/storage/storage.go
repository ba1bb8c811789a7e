// Package storage provides a small key/value store standing in for browser
// local storage. Values are opaque strings written as a whole.
package storage

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when a key has never been set.
var ErrNotFound = errors.New("key not found")

// Store is a string key/value store. Implementations are safe for
// concurrent use.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Op names the operation that failed.
type Op string

const (
	OpRead   Op = "read"
	OpWrite  Op = "write"
	OpRemove Op = "remove"
	OpOpen   Op = "open"
)

// Error reports a failed storage operation.
type Error struct {
	Op    Op
	Key   string
	Cause error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Cause)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Backend names a Store implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Open opens a store of the given backend at path. The memory backend
// ignores path.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendFile, "":
		s, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		s, err := OpenSQLite(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q: must be one of %v", backend,
			[]Backend{BackendFile, BackendSQLite, BackendMemory})
	}
}

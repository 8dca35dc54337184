package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Backend names a Store implementation.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
)

// DefaultSQLitePath is the database file used when the sqlite backend is
// selected without a path.
const DefaultSQLitePath = "warren.db"

// ErrUnsupportedBackend is returned for an unknown backend name, or for
// sqlite in a build without the sqlite tag.
var ErrUnsupportedBackend = errors.New("unsupported store backend")

// ParseBackend maps a flag value onto a Backend. Empty selects memory.
func ParseBackend(name string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(name))); b {
	case "", BackendMemory:
		return BackendMemory, nil
	case BackendSQLite:
		return b, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedBackend, name)
	}
}

// Options selects and locates a run store.
type Options struct {
	Backend Backend
	Path    string // sqlite only; empty = DefaultSQLitePath
}

// Open builds the store described by opts and initialises it, so the
// result is ready for SaveRun and AppendWindow.
func Open(ctx context.Context, opts Options) (Store, error) {
	var (
		store Store
		err   error
	)
	switch opts.Backend {
	case "", BackendMemory:
		store = NewMemoryStore()
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			path = DefaultSQLitePath
		}
		store, err = newSQLiteStore(path)
	default:
		err = fmt.Errorf("%w: %q", ErrUnsupportedBackend, opts.Backend)
	}
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = Close(store)
		return nil, fmt.Errorf("init %s store: %w", opts.Backend, err)
	}
	return store, nil
}

// Close releases the store's resources when its backend holds any. A nil
// store is fine.
func Close(store Store) error {
	if closer, ok := store.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

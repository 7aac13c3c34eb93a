// Package repository holds the durable sinks rank state is saved to.
package repository

import (
	"fmt"
	"io"
	"strings"

	"github.com/okian/ranks/internal/domain/ranks"
)

// Backend names.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Store is a rank state sink that holds resources until closed.
type Store interface {
	ranks.Repository
	io.Closer
}

// Open returns the sink for backend rooted at path.
func Open(backend, path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyPath
	}
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", BackendFile:
		return NewFileStore(path), nil
	case BackendSQLite:
		return OpenSQLite(path)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
}

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/okian/ranks/internal/domain/ranks"
)

// FileStore keeps the whole document in one JSON file.
type FileStore struct {
	path string
	mode os.FileMode
}

// NewFileStore returns a FileStore writing to path.
func NewFileStore(path string, opts ...Option) *FileStore {
	s := &FileStore{path: path, mode: 0o644}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file location.
func (s *FileStore) Path() string { return s.path }

// Load reads the document. A missing file is ranks.ErrNoState and a file that
// does not parse is ranks.ErrCorrupt.
func (s *FileStore) Load(ctx context.Context) (ranks.Document, error) {
	if err := ctx.Err(); err != nil {
		return ranks.Document{}, err
	}
	b, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return ranks.Document{}, ranks.ErrNoState
	}
	if err != nil {
		return ranks.Document{}, fmt.Errorf("read %s: %w", s.path, err)
	}

	doc := ranks.NewDocument()
	if err := json.Unmarshal(b, &doc); err != nil {
		return ranks.Document{}, fmt.Errorf("%w: %s: %v", ranks.ErrCorrupt, s.path, err)
	}
	if doc.Selected == nil {
		doc.Selected = make(map[string]string)
	}
	if doc.Ranks == nil {
		doc.Ranks = make(map[string]map[string]string)
	}
	return doc, nil
}

// Save overwrites the file with doc. The document is written to a temporary
// file in the same directory and renamed over the old one.
func (s *FileStore) Save(ctx context.Context, doc ranks.Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Selected == nil {
		doc.Selected = make(map[string]string)
	}
	if doc.Ranks == nil {
		doc.Ranks = make(map[string]map[string]string)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode rank state: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), s.mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

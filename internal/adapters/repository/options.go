package repository

import "os"

// Option configures a FileStore.
type Option func(*FileStore)

// WithFileMode sets the permission bits of the state file.
func WithFileMode(mode os.FileMode) Option {
	return func(s *FileStore) {
		if mode != 0 {
			s.mode = mode
		}
	}
}

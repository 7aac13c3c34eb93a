package ranks

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/okian/ranks/internal/domain/tiers"
	"github.com/okian/ranks/pkg/logger"
)

// Document is the persisted form of the store.
type Document struct {
	Selected map[string]string            `json:"selected"`
	Ranks    map[string]map[string]string `json:"ranks"`
}

// NewDocument returns an empty document with both mappings allocated.
func NewDocument() Document {
	return Document{
		Selected: make(map[string]string),
		Ranks:    make(map[string]map[string]string),
	}
}

// Loader reads a saved document.
type Loader interface {
	Load(ctx context.Context) (Document, error)
}

// Saver overwrites the saved document.
type Saver interface {
	Save(ctx context.Context, doc Document) error
}

// Repository is a durable sink the store can load from and save to.
type Repository interface {
	Loader
	Saver
}

// LoadOutcome describes how a load ended.
type LoadOutcome string

// Load outcomes.
const (
	LoadOK      LoadOutcome = "ok"
	LoadMissing LoadOutcome = "missing"
	LoadCorrupt LoadOutcome = "corrupt"
	LoadFailed  LoadOutcome = "failed"
)

// Store maps normalized player identities to their records.
// It is not safe for concurrent use.
type Store struct {
	records map[string]*Record
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Get returns the record for id, if any.
func (s *Store) Get(id string) (*Record, bool) {
	r, ok := s.records[NormalizeID(id)]
	return r, ok
}

// Ensure returns the record for id, creating a default one when absent.
// The second result is true when the record was created.
func (s *Store) Ensure(id string) (*Record, bool) {
	key := NormalizeID(id)
	if r, ok := s.records[key]; ok {
		return r, false
	}
	r := NewRecord()
	s.records[key] = r
	return r, true
}

// Reset drops every record.
func (s *Store) Reset() {
	s.records = make(map[string]*Record)
}

// Len returns the number of records.
func (s *Store) Len() int { return len(s.records) }

// IDs returns all identities in sorted order.
func (s *Store) IDs() []string {
	ids := make([]string, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot encodes the store as a Document.
func (s *Store) Snapshot() Document {
	doc := NewDocument()
	for id, r := range s.records {
		doc.Selected[id] = r.Selected.String()
		if len(r.Achieved) == 0 {
			continue
		}
		labels := make(map[string]string, len(r.Achieved))
		for stat, label := range r.Achieved {
			labels[stat.String()] = label
		}
		doc.Ranks[id] = labels
	}
	return doc
}

// Restore replaces the store contents with doc. Entries naming an unknown stat
// or a label outside that stat's ladder are skipped and returned as problems.
func (s *Store) Restore(doc Document) []error {
	var problems []error
	records := make(map[string]*Record, len(doc.Selected))
	ensure := func(id string) *Record {
		key := NormalizeID(id)
		r, ok := records[key]
		if !ok {
			r = NewRecord()
			records[key] = r
		}
		return r
	}

	for id, name := range doc.Selected {
		r := ensure(id)
		stat, err := tiers.ParseStat(name)
		if err != nil {
			problems = append(problems, fmt.Errorf("selected %s: %w", id, err))
			continue
		}
		r.Selected = stat
	}
	for id, labels := range doc.Ranks {
		r := ensure(id)
		for name, label := range labels {
			stat, err := tiers.ParseStat(name)
			if err != nil {
				problems = append(problems, fmt.Errorf("ranks %s: %w", id, err))
				continue
			}
			if !tiers.HasLabel(stat, label) {
				problems = append(problems, fmt.Errorf("ranks %s: label %q not on %s ladder", id, label, stat))
				continue
			}
			r.Achieved[stat] = label
		}
	}
	s.records = records
	return problems
}

// Load hydrates the store from src. A missing or unreadable source leaves the
// store empty and is reported through the outcome and the log, never as an
// error.
func (s *Store) Load(ctx context.Context, src Loader, log logger.Logger) LoadOutcome {
	s.Reset()
	doc, err := src.Load(ctx)
	switch {
	case errors.Is(err, ErrNoState):
		log.Info(ctx, "no saved rank state, starting empty")
		return LoadMissing
	case errors.Is(err, ErrCorrupt):
		log.Warn(ctx, "saved rank state is corrupt, starting empty", logger.Error(err))
		return LoadCorrupt
	case err != nil:
		log.Warn(ctx, "loading rank state failed, starting empty", logger.Error(err))
		return LoadFailed
	}
	for _, p := range s.Restore(doc) {
		log.Warn(ctx, "skipping saved rank entry", logger.Error(p))
	}
	log.Info(ctx, "rank state loaded", logger.Int("players", s.Len()))
	return LoadOK
}

// Save writes the complete store to dst.
func (s *Store) Save(ctx context.Context, dst Saver) error {
	if err := dst.Save(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("save rank state: %w", err)
	}
	return nil
}

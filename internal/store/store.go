package store

import (
	"sync"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/relation"
)

// Store is an in-memory content-addressed store. Safe for concurrent use.
type Store struct {
	mu sync.RWMutex
	tx Tx
}

// Option configures a Store.
type Option func(*config)

type config struct {
	capacity int
}

// WithCapacityHint preallocates room for roughly n blobs and n expressions.
func WithCapacityHint(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Store{
		tx: Tx{
			blobs:       make(map[ir.DataID][]byte, cfg.capacity),
			deps:        make(map[ir.ExprID][]ir.ExprID, cfg.capacity),
			equivalence: relation.New[ir.DataID, ir.ExprID](),
		},
	}
}

// Tx is exclusive (Update) or shared (View) access to the store's maps.
// A Tx is only valid inside the callback that received it.
type Tx struct {
	blobs       map[ir.DataID][]byte
	deps        map[ir.ExprID][]ir.ExprID
	equivalence *relation.OneToMany[ir.DataID, ir.ExprID]
}

// Update runs fn with the write lock held for its whole duration.
// Writes made before fn returns an error are kept; the store has no
// rollback because every write is monotonic and individually valid.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.tx)
}

// View runs fn with the read lock held. fn must only call read methods.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&s.tx)
}

// Stats summarises store contents.
type Stats struct {
	Blobs        int `json:"blobs"`
	Expressions  int `json:"expressions"`
	Equivalences int `json:"equivalences"`
	Classes      int `json:"classes"`
}

// Stats returns current counts. Expressions counts composites with a
// recorded dependency list; leaves appear only as equivalences.
func (s *Store) Stats() Stats {
	var st Stats
	_ = s.View(func(tx *Tx) error {
		st = tx.Stats()
		return nil
	})
	return st
}

// Stats returns current counts.
func (tx *Tx) Stats() Stats {
	return Stats{
		Blobs:        len(tx.blobs),
		Expressions:  len(tx.deps),
		Equivalences: tx.equivalence.Len(),
		Classes:      tx.equivalence.Groups(),
	}
}

package engine

import (
	"log/slog"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/reduce"
	"github.com/roach88/casmemo/internal/store"
)

// Engine evaluates expressions recorded in a Store.
//
// Thread-safety: all methods are safe for concurrent use. Evaluations are
// serialized by the store's lock.
type Engine struct {
	store   *store.Store
	reducer reduce.Reducer
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics enables Prometheus metrics. Default: none.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// New creates an Engine over s that reduces composites with r.
func New(s *store.Store, r reduce.Reducer, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		reducer: r,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() *store.Store {
	return e.store
}

// Resolved returns the cached result of id without computing anything.
func (e *Engine) Resolved(id ir.ExprID) (ir.DataID, bool) {
	return e.store.ExprIDToDataID(id)
}

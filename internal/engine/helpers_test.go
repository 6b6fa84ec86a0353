package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/reduce"
	"github.com/roach88/casmemo/internal/store"
)

// newTestEngine creates an engine over a fresh store with logs discarded.
func newTestEngine(t *testing.T, r reduce.Reducer, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(store.New(), r, opts...)
}

// storeApply stores the blobs and the expression (fn args...).
func storeApply(t *testing.T, e *Engine, fn string, args ...string) ir.ExprID {
	t.Helper()
	s := e.Store()
	f := s.StoreData([]byte(fn))
	ids := make([]ir.DataID, len(args))
	for i, a := range args {
		ids[i] = s.StoreData([]byte(a))
	}
	id, err := s.StoreExpr(ir.Apply(f, ids...))
	require.NoError(t, err)
	return id
}

// content evaluates id and returns the result bytes as a string.
func content(t *testing.T, e *Engine, d ir.DataID) string {
	t.Helper()
	data, ok := e.Store().DataIDToData(d)
	require.True(t, ok, "result blob %s must be stored", d.Short())
	return string(data)
}

// Package testutil provides reducer stubs for evaluator tests.
package testutil

import (
	"context"
	"strconv"
	"sync"

	"github.com/roach88/casmemo/internal/reduce"
)

// CountingReducer wraps a reducer and records every call.
type CountingReducer struct {
	inner reduce.Reducer

	mu    sync.Mutex
	calls [][]string
}

// NewCountingReducer wraps inner. A nil inner uses reduce.Concat.
func NewCountingReducer(inner reduce.Reducer) *CountingReducer {
	if inner == nil {
		inner = reduce.Concat
	}
	return &CountingReducer{inner: inner}
}

// Reduce records the inputs and delegates.
func (c *CountingReducer) Reduce(ctx context.Context, inputs [][]byte) ([]byte, error) {
	call := make([]string, len(inputs))
	for i, in := range inputs {
		call[i] = string(in)
	}
	c.mu.Lock()
	c.calls = append(c.calls, call)
	c.mu.Unlock()
	return c.inner.Reduce(ctx, inputs)
}

// Count returns the number of calls so far.
func (c *CountingReducer) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Calls returns the inputs of every call, as strings, in call order.
func (c *CountingReducer) Calls() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// SequenceReducer is deliberately non-deterministic: it concatenates its
// inputs and appends "#n" where n increases on every call. Use it to
// provoke equivalence conflicts.
type SequenceReducer struct {
	Seq Sequence
}

// Reduce implements reduce.Reducer.
func (r *SequenceReducer) Reduce(ctx context.Context, inputs [][]byte) ([]byte, error) {
	out, err := reduce.Concat.Reduce(ctx, inputs)
	if err != nil {
		return nil, err
	}
	out = append(out, '#')
	return strconv.AppendInt(out, r.Seq.Next(), 10), nil
}

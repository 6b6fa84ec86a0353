package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/store"
)

// frame is one expression on the evaluation worklist.
type frame struct {
	id      ir.ExprID
	deps    []ir.ExprID
	results []ir.DataID // resolved deps[:len(results)]
}

// ComputeData returns the blob id id evaluates to, computing and caching
// it if necessary.
//
// Errors are *EvalError values (see CodeOf), or ctx.Err() wrapped if ctx
// is cancelled between nodes. A failed evaluation keeps whatever children
// it finished; retrying resumes from them.
func (e *Engine) ComputeData(ctx context.Context, id ir.ExprID) (ir.DataID, error) {
	return e.run(ctx, "compute", id, false)
}

// Verify re-runs the reduction of id itself, with its children taken from
// the cache where possible, and binds the fresh result.
//
// For a deterministic reducer this returns the same id as ComputeData.
// A non-deterministic reducer surfaces ErrCodeConflict. Leaves have
// nothing to reduce and return their blob.
func (e *Engine) Verify(ctx context.Context, id ir.ExprID) (ir.DataID, error) {
	return e.run(ctx, "verify", id, true)
}

func (e *Engine) run(ctx context.Context, op string, id ir.ExprID, force bool) (ir.DataID, error) {
	start := time.Now()

	var result ir.DataID
	err := e.store.Update(func(tx *store.Tx) error {
		var err error
		result, err = e.evaluate(ctx, tx, id, force)
		return err
	})
	e.metrics.recordRequest(start, err)

	if err != nil {
		e.logger.Warn("evaluation failed",
			"op", op,
			"root", id.Short(),
			"error", err,
		)
		return ir.DataID{}, err
	}

	e.logger.Debug("evaluation finished",
		"op", op,
		"root", id.Short(),
		"data", result.Short(),
		"duration", time.Since(start),
	)
	return result, nil
}

// evaluate walks the dependency graph of root with an explicit stack.
// With force set, root itself skips the cache; its children never do.
func (e *Engine) evaluate(ctx context.Context, tx *store.Tx, root ir.ExprID, force bool) (ir.DataID, error) {
	cached, hit := tx.ExprIDToDataID(root)
	if hit && !force {
		e.metrics.recordCacheHit()
		return cached, nil
	}

	deps, ok := tx.DependenciesOf(root)
	if !ok {
		if hit {
			// A leaf: its value is known without computation.
			return cached, nil
		}
		return ir.DataID{}, newUnresolvedError(root, root)
	}

	stack := []*frame{newFrame(root, deps)}
	active := map[ir.ExprID]struct{}{root: {}}

	for {
		if err := ctx.Err(); err != nil {
			return ir.DataID{}, fmt.Errorf("evaluate %s: %w", root.Short(), err)
		}

		top := stack[len(stack)-1]

		if next := len(top.results); next < len(top.deps) {
			child := top.deps[next]

			if d, ok := tx.ExprIDToDataID(child); ok {
				e.metrics.recordCacheHit()
				top.results = append(top.results, d)
				continue
			}
			if _, busy := active[child]; busy {
				return ir.DataID{}, newCycleError(child, root)
			}
			childDeps, ok := tx.DependenciesOf(child)
			if !ok {
				return ir.DataID{}, newUnresolvedError(child, root)
			}

			active[child] = struct{}{}
			stack = append(stack, newFrame(child, childDeps))
			continue
		}

		// Every dependency of top is resolved.
		d, err := e.reduce(ctx, tx, top, root)
		if err != nil {
			return ir.DataID{}, err
		}

		delete(active, top.id)
		stack = stack[:len(stack)-1]
		if len(stack) == 0 {
			return d, nil
		}
		parent := stack[len(stack)-1]
		parent.results = append(parent.results, d)
	}
}

func newFrame(id ir.ExprID, deps []ir.ExprID) *frame {
	return &frame{
		id:      id,
		deps:    deps,
		results: make([]ir.DataID, 0, len(deps)),
	}
}

// reduce applies the reducer to a frame whose dependencies are all
// resolved, then stores and binds the result.
func (e *Engine) reduce(ctx context.Context, tx *store.Tx, f *frame, root ir.ExprID) (ir.DataID, error) {
	inputs := make([][]byte, len(f.results))
	for i, d := range f.results {
		data, ok := tx.DataIDToData(d)
		if !ok {
			return ir.DataID{}, newMissingBlobError(f.deps[i], root, d)
		}
		inputs[i] = data
	}

	out, err := e.reducer.Reduce(ctx, inputs)
	if err != nil {
		return ir.DataID{}, newReductionError(f.id, root, err)
	}
	e.metrics.recordReduction()

	d := tx.StoreData(out)
	if _, err := tx.Relate(d, f.id); err != nil {
		return ir.DataID{}, newConflictError(f.id, root, d, err)
	}

	e.logger.Debug("expression reduced",
		"expr", f.id.Short(),
		"data", d.Short(),
		"inputs", len(inputs),
		"bytes", len(out),
	)
	return d, nil
}

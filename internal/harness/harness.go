package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/casmemo/internal/engine"
	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/program"
	"github.com/roach88/casmemo/internal/reduce"
	"github.com/roach88/casmemo/internal/store"
	"github.com/roach88/casmemo/internal/testutil"
)

// Harness reducer names, in addition to reduce.Names().
const (
	ReducerSequence = "sequence"
	ReducerFailing  = "failing"
)

// errReducerFailed is returned by the "failing" reducer.
var errReducerFailed = errors.New("reducer configured to fail")

// Harness is the scenario execution state.
type Harness struct {
	store     *store.Store
	engine    *engine.Engine
	reducer   *testutil.CountingReducer
	installed *program.Installed
	names     map[ir.ExprID]string
	seq       testutil.Sequence
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs on a fresh in-memory store. The returned error is
// reserved for scenarios that cannot run at all; step and assertion
// failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a caller-supplied context for evaluation.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	inner, err := reducerFor(scenario.Reducer)
	if err != nil {
		return nil, err
	}

	st := store.New()
	installed, err := scenario.Program().Install(st)
	if err != nil {
		return nil, fmt.Errorf("failed to install program: %w", err)
	}

	counting := testutil.NewCountingReducer(inner)
	h := &Harness{
		store:     st,
		reducer:   counting,
		installed: installed,
		names:     make(map[ir.ExprID]string, len(installed.Exprs)),
		engine: engine.New(st, counting,
			engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))), // Suppress logs in tests
		),
	}
	// Names sharing an id report as the first in sorted order.
	for _, name := range installed.Names() {
		if _, taken := h.names[installed.Exprs[name]]; !taken {
			h.names[installed.Exprs[name]] = name
		}
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		result.AddTrace(event)
		for _, msg := range checkExpect(step, event) {
			result.AddError(fmt.Sprintf("step %d (%s %s): %s", i, step.Op, step.Target, msg))
		}
	}

	for _, msg := range h.evaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// execute runs one step. Engine failures are recorded in the event;
// only harness misuse returns an error.
func (h *Harness) execute(ctx context.Context, step Step) (TraceEvent, error) {
	event := TraceEvent{
		Seq:    h.seq.Next(),
		Op:     step.Op,
		Target: step.Target,
		Data:   step.Data,
	}

	switch step.Op {
	case OpEval, OpVerify, OpLookup:
		id, err := h.installed.Lookup(step.Target)
		if err != nil {
			return event, err
		}
		cached, wasCached := h.engine.Resolved(id)
		event.Cached = &wasCached

		var d ir.DataID
		switch step.Op {
		case OpEval:
			d, err = h.engine.ComputeData(ctx, id)
		case OpVerify:
			d, err = h.engine.Verify(ctx, id)
		case OpLookup:
			if !wasCached {
				return event, nil
			}
			d = cached
		}
		if err != nil {
			h.recordError(&event, err)
			return event, nil
		}
		if data, ok := h.store.DataIDToData(d); ok {
			event.Content = DisplayContent(data)
		}

	case OpRemove:
		d, ok := h.installed.Blobs[step.Target]
		if !ok {
			return event, fmt.Errorf("%w: blob %q", program.ErrUnknownName, step.Target)
		}
		h.store.RemoveData(d)

	case OpRelate:
		id, err := h.installed.Lookup(step.Target)
		if err != nil {
			return event, err
		}
		d, ok := h.installed.Blobs[step.Data]
		if !ok {
			return event, fmt.Errorf("%w: blob %q", program.ErrUnknownName, step.Data)
		}
		if _, err := h.store.Relate(d, id); err != nil {
			h.recordError(&event, err)
		}

	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	return event, nil
}

func (h *Harness) recordError(event *TraceEvent, err error) {
	code, ok := engine.CodeOf(err)
	switch {
	case ok:
		event.Error = string(code)
	case engine.IsConflict(err):
		event.Error = string(engine.ErrCodeConflict)
	default:
		event.Error = err.Error()
	}
	if id, ok := engine.UnresolvedID(err); ok {
		event.Unresolved = h.nameOf(id)
	}
}

func (h *Harness) nameOf(id ir.ExprID) string {
	if name, ok := h.names[id]; ok {
		return name
	}
	return program.RefPrefix + id.String()
}

// checkExpect compares an event against the step's expect clause.
func checkExpect(step Step, event TraceEvent) []string {
	exp := step.Expect
	if exp == nil {
		return nil
	}

	var errs []string
	if exp.Error != event.Error {
		if exp.Error == "" {
			errs = append(errs, fmt.Sprintf("unexpected error %s", event.Error))
		} else {
			errs = append(errs, fmt.Sprintf("expected error %s, got %q", exp.Error, event.Error))
		}
	}
	if exp.Content != nil && *exp.Content != event.Content {
		errs = append(errs, fmt.Sprintf("expected content %q, got %q", *exp.Content, event.Content))
	}
	if exp.Cached != nil {
		if event.Cached == nil {
			errs = append(errs, fmt.Sprintf("%s does not report caching", step.Op))
		} else if *exp.Cached != *event.Cached {
			errs = append(errs, fmt.Sprintf("expected cached=%t, got %t", *exp.Cached, *event.Cached))
		}
	}
	if exp.Unresolved != "" && exp.Unresolved != event.Unresolved {
		errs = append(errs, fmt.Sprintf("expected unresolved %q, got %q", exp.Unresolved, event.Unresolved))
	}
	return errs
}

// reducerFor resolves a scenario reducer name. Empty means concat.
func reducerFor(name string) (reduce.Reducer, error) {
	switch name {
	case "":
		return reduce.Concat, nil
	case ReducerSequence:
		return &testutil.SequenceReducer{}, nil
	case ReducerFailing:
		return reduce.Func(func(context.Context, [][]byte) ([]byte, error) {
			return nil, errReducerFailed
		}), nil
	default:
		return reduce.Lookup(name)
	}
}

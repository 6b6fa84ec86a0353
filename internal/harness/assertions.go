package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/casmemo/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Target)
			if event.Error != "" {
				fmt.Fprintf(&buf, " error=%s", event.Error)
			}
			buf.WriteString("\n")
		}
	}

	return buf.String()
}

// evaluateAssertions runs every assertion and returns failure messages.
func (h *Harness) evaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertReductions:
			err = assertReductions(h.reducer.Count(), a)
		case AssertFinalState:
			err = assertFinalState(h.store.Stats(), a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

// assertTraceCount checks if the op appears exactly the specified number of times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Op == assertion.Op {
			count++
		}
	}

	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Op),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceOrder checks if targets first appear in the specified order.
// Targets don't need to be consecutive (intervening steps are allowed).
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Target] == 0 {
			positions[event.Target] = i + 1 // 1-indexed for readability
		}
	}

	for _, target := range assertion.Targets {
		if positions[target] == 0 {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("all targets present: %v", assertion.Targets),
				Actual:   fmt.Sprintf("missing target: %s", target),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(assertion.Targets); i++ {
		prev := assertion.Targets[i-1]
		curr := assertion.Targets[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("targets in order: %v", assertion.Targets),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertReductions checks the total number of reducer calls.
func assertReductions(calls int, assertion Assertion) error {
	if calls != assertion.Count {
		return &AssertionError{
			Type:     AssertReductions,
			Expected: fmt.Sprintf("%d reductions", assertion.Count),
			Actual:   fmt.Sprintf("%d reductions", calls),
		}
	}
	return nil
}

// assertFinalState compares store statistics (subset match).
func assertFinalState(stats store.Stats, assertion Assertion) error {
	actual := statsMap(stats)

	keys := make([]string, 0, len(assertion.Expect))
	for k := range assertion.Expect {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var mismatches []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			mismatches = append(mismatches, fmt.Sprintf("unknown statistic %q", k))
			continue
		}
		if want := assertion.Expect[k]; got != want {
			mismatches = append(mismatches, fmt.Sprintf("%s=%d (want %d)", k, got, want))
		}
	}

	if len(mismatches) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%v", assertion.Expect),
			Actual:   strings.Join(mismatches, ", "),
		}
	}
	return nil
}

func statsMap(s store.Stats) map[string]int {
	return map[string]int{
		"blobs":        s.Blobs,
		"expressions":  s.Expressions,
		"equivalences": s.Equivalences,
		"classes":      s.Classes,
	}
}

func isStatName(name string) bool {
	_, ok := statsMap(store.Stats{})[name]
	return ok
}

// Package harness runs YAML scenarios against a fresh store and evaluator.
//
// # Scenario Format
//
//	name: memoized_fx
//	description: "(f x) is reduced once and then served from the cache"
//	reducer: concat
//	blobs:
//	  f: "123"
//	  x: "x"
//	exprs:
//	  fx: [f, x]
//	steps:
//	  - op: lookup
//	    target: fx
//	    expect: { cached: false }
//	  - op: eval
//	    target: fx
//	    expect: { content: "123x" }
//	  - op: eval
//	    target: fx
//	    expect: { cached: true }
//	assertions:
//	  - type: reductions
//	    count: 1
//
// blobs and exprs use the program format (see internal/program).
//
// # Step Operations
//
//   - eval: ComputeData on target
//   - verify: Verify on target (re-reduces the root)
//   - lookup: cache lookup only, never computes
//   - remove: evict the bytes of blob target
//   - relate: record that expr target resolves to blob data
//
// An expect clause may check content, cached, unresolved (the name of the
// missing expression) and error (an engine error code). Steps without
// expect are recorded but not checked.
//
// # Assertion Types
//
//   - trace_count: op appears exactly count times
//   - trace_order: targets first appear in the given order
//   - reductions: the reducer was called exactly count times
//   - final_state: store statistics equal expect
//
// # Deterministic Testing
//
// Every scenario runs on a new in-memory store with a sequence-numbered
// trace and no hashes in the trace, so golden files can be written and
// reviewed by hand.
package harness

// Package engine implements the memoized evaluator.
//
// ComputeData resolves an expression id to the blob id of its result:
//
//  1. A known equivalence is returned at once (cache hit).
//  2. Otherwise the expression's dependency list is required; without one
//     the expression is unresolved.
//  3. Children are resolved in order, depth first. The first failure stops
//     evaluation and names the node that failed, not its ancestors.
//  4. The children's contents are passed to the Reducer.
//  5. The result is stored, bound to the expression, and returned.
//
// Each expression is reduced at most once per store. Evaluation uses an
// explicit worklist instead of recursion, so depth is bounded by memory
// rather than the goroutine stack, and runs inside a single store.Update
// so concurrent callers never observe a half-finished evaluation.
package engine

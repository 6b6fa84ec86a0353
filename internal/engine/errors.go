package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/store"
)

// EvalError represents a failure to evaluate an expression.
//
// Evaluation is all or nothing: there is no partial result. The error
// names the node at which evaluation stopped (Expr) and the expression
// whose evaluation was requested (Root).
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Expr is the node at which evaluation failed.
	Expr ir.ExprID

	// Root is the expression passed to ComputeData or Verify.
	Root ir.ExprID

	// Data is the blob involved, for MISSING_BLOB and EQUIVALENCE_CONFLICT.
	Data ir.DataID

	// Err is the underlying cause, if any.
	Err error
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeUnresolved indicates an expression with neither a cached
	// result nor a dependency list.
	ErrCodeUnresolved EvalErrorCode = "UNRESOLVED_EXPRESSION"

	// ErrCodeConflict indicates an expression would resolve to a second,
	// different blob. Wraps store.ErrEquivalenceConflict.
	ErrCodeConflict EvalErrorCode = "EQUIVALENCE_CONFLICT"

	// ErrCodeMissingBlob indicates a resolved child whose bytes were evicted.
	ErrCodeMissingBlob EvalErrorCode = "MISSING_BLOB"

	// ErrCodeReductionFailed indicates the reducer returned an error.
	ErrCodeReductionFailed EvalErrorCode = "REDUCTION_FAILED"

	// ErrCodeCycleDetected indicates an expression depending on itself.
	// Structural ids make this unreachable short of a hash collision.
	ErrCodeCycleDetected EvalErrorCode = "CYCLE_DETECTED"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	msg := fmt.Sprintf("%s: %s (expr=%s", e.Code, e.Message, e.Expr.Short())
	if e.Root != e.Expr {
		msg += ", root=" + e.Root.Short()
	}
	msg += ")"
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// CodeOf returns the EvalErrorCode carried by err, if any.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) (EvalErrorCode, bool) {
	var ee *EvalError
	if errors.As(err, &ee) {
		return ee.Code, true
	}
	return "", false
}

// IsUnresolved returns true if err reports an unresolved expression.
func IsUnresolved(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeUnresolved
}

// UnresolvedID returns the unresolved expression named by err.
func UnresolvedID(err error) (ir.ExprID, bool) {
	var ee *EvalError
	if errors.As(err, &ee) && ee.Code == ErrCodeUnresolved {
		return ee.Expr, true
	}
	return ir.ExprID{}, false
}

// IsConflict returns true if err reports an equivalence conflict, whether
// raised by the evaluator or directly by the store.
func IsConflict(err error) bool {
	return errors.Is(err, store.ErrEquivalenceConflict)
}

// IsMissingBlob returns true if err reports evicted child content.
func IsMissingBlob(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrCodeMissingBlob
}

func newUnresolvedError(expr, root ir.ExprID) *EvalError {
	return &EvalError{
		Code:    ErrCodeUnresolved,
		Message: "no cached result and no recorded dependencies",
		Expr:    expr,
		Root:    root,
	}
}

func newConflictError(expr, root ir.ExprID, data ir.DataID, cause error) *EvalError {
	return &EvalError{
		Code:    ErrCodeConflict,
		Message: "expression already resolves to a different blob",
		Expr:    expr,
		Root:    root,
		Data:    data,
		Err:     cause,
	}
}

func newMissingBlobError(expr, root ir.ExprID, data ir.DataID) *EvalError {
	return &EvalError{
		Code:    ErrCodeMissingBlob,
		Message: fmt.Sprintf("content of blob %s has been removed", data.Short()),
		Expr:    expr,
		Root:    root,
		Data:    data,
	}
}

func newReductionError(expr, root ir.ExprID, cause error) *EvalError {
	return &EvalError{
		Code:    ErrCodeReductionFailed,
		Message: "reducer failed",
		Expr:    expr,
		Root:    root,
		Err:     cause,
	}
}

func newCycleError(expr, root ir.ExprID) *EvalError {
	return &EvalError{
		Code:    ErrCodeCycleDetected,
		Message: "expression depends on itself",
		Expr:    expr,
		Root:    root,
	}
}

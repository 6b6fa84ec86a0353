package store

import (
	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/relation"
)

// ErrEquivalenceConflict is matched (errors.Is) by every attempt to bind an
// expression to a blob other than the one it already resolves to. It
// indicates a non-deterministic reducer or an identifier collision.
var ErrEquivalenceConflict = relation.ErrConflict

// EquivalenceConflict carries the expression and both blob ids.
// Retrieve it with errors.As.
type EquivalenceConflict = relation.ConflictError[ir.DataID, ir.ExprID]

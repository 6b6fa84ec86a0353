package store

import (
	"slices"

	"github.com/roach88/casmemo/internal/ir"
)

// DataIDToData returns the bytes stored under id.
// The returned slice is shared with the store and must not be modified.
func (s *Store) DataIDToData(id ir.DataID) ([]byte, bool) {
	var (
		data []byte
		ok   bool
	)
	_ = s.View(func(tx *Tx) error {
		data, ok = tx.DataIDToData(id)
		return nil
	})
	return data, ok
}

// DataIDToData returns the bytes stored under id.
func (tx *Tx) DataIDToData(id ir.DataID) ([]byte, bool) {
	data, ok := tx.blobs[id]
	return data, ok
}

// ExprIDToDataID returns the blob an expression is known to resolve to.
// Never computes anything.
func (s *Store) ExprIDToDataID(id ir.ExprID) (ir.DataID, bool) {
	var (
		data ir.DataID
		ok   bool
	)
	_ = s.View(func(tx *Tx) error {
		data, ok = tx.ExprIDToDataID(id)
		return nil
	})
	return data, ok
}

// ExprIDToDataID returns the blob an expression is known to resolve to.
func (tx *Tx) ExprIDToDataID(id ir.ExprID) (ir.DataID, bool) {
	return tx.equivalence.One(id)
}

// DataIDToExprIDs returns every expression known to resolve to id, in
// bytewise id order.
func (s *Store) DataIDToExprIDs(id ir.DataID) ([]ir.ExprID, bool) {
	var (
		exprs []ir.ExprID
		ok    bool
	)
	_ = s.View(func(tx *Tx) error {
		exprs, ok = tx.DataIDToExprIDs(id)
		return nil
	})
	return exprs, ok
}

// DataIDToExprIDs returns every expression known to resolve to id, in
// bytewise id order.
func (tx *Tx) DataIDToExprIDs(id ir.DataID) ([]ir.ExprID, bool) {
	exprs, ok := tx.equivalence.Many(id)
	if !ok {
		return nil, false
	}
	slices.SortFunc(exprs, ir.CompareExprIDs)
	return exprs, true
}

// DependenciesOf returns a copy of the recorded children of a composite.
// Leaves, references and unknown ids have no dependency list.
func (s *Store) DependenciesOf(id ir.ExprID) ([]ir.ExprID, bool) {
	var (
		deps []ir.ExprID
		ok   bool
	)
	_ = s.View(func(tx *Tx) error {
		deps, ok = tx.DependenciesOf(id)
		return nil
	})
	return deps, ok
}

// DependenciesOf returns a copy of the recorded children of a composite.
func (tx *Tx) DependenciesOf(id ir.ExprID) ([]ir.ExprID, bool) {
	deps, ok := tx.deps[id]
	if !ok {
		return nil, false
	}
	return slices.Clone(deps), true
}

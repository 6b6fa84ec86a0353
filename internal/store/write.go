package store

import (
	"fmt"

	"github.com/roach88/casmemo/internal/ir"
)

// StoreData inserts a copy of data under its content id and returns the id.
// Idempotent: an existing entry is left untouched.
func (s *Store) StoreData(data []byte) ir.DataID {
	var id ir.DataID
	_ = s.Update(func(tx *Tx) error {
		id = tx.StoreData(data)
		return nil
	})
	return id
}

// StoreData inserts a copy of data under its content id and returns the id.
func (tx *Tx) StoreData(data []byte) ir.DataID {
	id := ir.DeriveDataID(data)
	tx.putBlob(id, data)
	return id
}

// putBlob inserts a copy of data under a precomputed id if absent.
func (tx *Tx) putBlob(id ir.DataID, data []byte) {
	if _, ok := tx.blobs[id]; ok {
		return
	}
	owned := make([]byte, len(data))
	copy(owned, data)
	tx.blobs[id] = owned
}

// StoreExpr inserts every node of t and returns the root's id.
//
// Nodes are processed in arena order, which is children-first by
// construction. Leaves bind their blob in the equivalence relation
// immediately; composites record only their dependency list and start
// unresolved. References are returned as-is and record nothing.
//
// Returns ir.ErrInvalidTree for malformed arenas (nothing is written) and
// ErrEquivalenceConflict if a leaf binding conflicts.
func (s *Store) StoreExpr(t *ir.Tree) (ir.ExprID, error) {
	var id ir.ExprID
	err := s.Update(func(tx *Tx) error {
		var err error
		id, err = tx.StoreExpr(t)
		return err
	})
	return id, err
}

// StoreExpr inserts every node of t and returns the root's id.
func (tx *Tx) StoreExpr(t *ir.Tree) (ir.ExprID, error) {
	ids, err := t.IDs()
	if err != nil {
		return ir.ExprID{}, fmt.Errorf("store expr: %w", err)
	}

	for i, id := range ids {
		n := t.Node(ir.NodeIndex(i))
		switch n.Kind {
		case ir.KindLeaf:
			if _, err := tx.Relate(n.Data, id); err != nil {
				return ir.ExprID{}, fmt.Errorf("store expr: node %d: %w", i, err)
			}
		case ir.KindCompute:
			if _, ok := tx.deps[id]; ok {
				continue
			}
			children := make([]ir.ExprID, len(n.Args))
			for j, a := range n.Args {
				children[j] = ids[a]
			}
			tx.deps[id] = children
		}
	}

	return ids[t.Root()], nil
}

// Relate records that expr resolves to data.
//
// Returns true if this added new information, false if the identical
// mapping already existed. If expr already resolves to a different blob,
// returns an error matching ErrEquivalenceConflict and records nothing.
func (s *Store) Relate(data ir.DataID, expr ir.ExprID) (bool, error) {
	var inserted bool
	err := s.Update(func(tx *Tx) error {
		var err error
		inserted, err = tx.Relate(data, expr)
		return err
	})
	return inserted, err
}

// Relate records that expr resolves to data.
func (tx *Tx) Relate(data ir.DataID, expr ir.ExprID) (bool, error) {
	return tx.equivalence.Insert(data, expr)
}

// RemoveData evicts a blob's bytes and returns them.
// Dependency and equivalence records are not touched.
func (s *Store) RemoveData(id ir.DataID) ([]byte, bool) {
	var (
		data []byte
		ok   bool
	)
	_ = s.Update(func(tx *Tx) error {
		data, ok = tx.RemoveData(id)
		return nil
	})
	return data, ok
}

// RemoveData evicts a blob's bytes and returns them.
func (tx *Tx) RemoveData(id ir.DataID) ([]byte, bool) {
	data, ok := tx.blobs[id]
	if ok {
		delete(tx.blobs, id)
	}
	return data, ok
}

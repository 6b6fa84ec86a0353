// Package relation provides the one-to-many equivalence relation used to
// memoize evaluation results.
//
// A OneToMany records pairs (one, many) where every many maps to at most
// one one, while a one may collect any number of manys. In casmemo the one
// side is a blob identifier and the many side the expressions known to
// evaluate to it.
package relation

import (
	"errors"
	"fmt"
)

// ErrConflict is matched by every ConflictError.
var ErrConflict = errors.New("equivalence conflict")

// ConflictError reports an attempt to map Many to Proposed while it is
// already mapped to Existing. The relation is left unchanged.
type ConflictError[One, Many comparable] struct {
	Many     Many
	Existing One
	Proposed One
}

func (e *ConflictError[One, Many]) Error() string {
	return fmt.Sprintf("%v: %v already maps to %v, refusing %v", ErrConflict, e.Many, e.Existing, e.Proposed)
}

// Unwrap lets errors.Is(err, ErrConflict) match.
func (e *ConflictError[One, Many]) Unwrap() error { return ErrConflict }

// OneToMany is a bidirectional one-to-many map. Not safe for concurrent
// use; callers provide locking.
//
// INVARIANTS:
//   - toOne[m] == o  <=>  m ∈ toMany[o]
//   - no set in toMany is empty
type OneToMany[One, Many comparable] struct {
	toMany map[One]map[Many]struct{}
	toOne  map[Many]One
}

// New returns an empty relation.
func New[One, Many comparable]() *OneToMany[One, Many] {
	return &OneToMany[One, Many]{
		toMany: make(map[One]map[Many]struct{}),
		toOne:  make(map[Many]One),
	}
}

// Insert records that many maps to one.
//
// Returns true if the pair is new, false if it was already present.
// If many already maps to a different one, returns a *ConflictError and
// records nothing.
func (r *OneToMany[One, Many]) Insert(one One, many Many) (bool, error) {
	if existing, ok := r.toOne[many]; ok {
		if existing == one {
			return false, nil
		}
		return false, &ConflictError[One, Many]{Many: many, Existing: existing, Proposed: one}
	}

	set, ok := r.toMany[one]
	if !ok {
		set = make(map[Many]struct{})
		r.toMany[one] = set
	}
	set[many] = struct{}{}
	r.toOne[many] = one
	return true, nil
}

// One returns the single value many maps to.
func (r *OneToMany[One, Many]) One(many Many) (One, bool) {
	one, ok := r.toOne[many]
	return one, ok
}

// Many returns every value mapped to one, in unspecified order.
// The slice is freshly allocated.
func (r *OneToMany[One, Many]) Many(one One) ([]Many, bool) {
	set, ok := r.toMany[one]
	if !ok {
		return nil, false
	}
	out := make([]Many, 0, len(set))
	for m := range set {
		out = append(out, m)
	}
	return out, true
}

// Len returns the number of recorded pairs.
func (r *OneToMany[One, Many]) Len() int { return len(r.toOne) }

// Groups returns the number of distinct one values.
func (r *OneToMany[One, Many]) Groups() int { return len(r.toMany) }

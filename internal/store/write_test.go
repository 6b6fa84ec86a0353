package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/casmemo/internal/ir"
)

func TestStoreData_Deterministic(t *testing.T) {
	s1 := New()
	s2 := New()

	for _, b := range [][]byte{nil, []byte(""), []byte("x"), []byte("123"), {0, 1, 2, 255}} {
		assert.Equal(t, s1.StoreData(b), s2.StoreData(b), "independent stores must agree on %q", b)
	}
}

func TestStoreData_Idempotent(t *testing.T) {
	s := New()

	id1 := s.StoreData([]byte("x"))
	id2 := s.StoreData([]byte("x"))

	assert.Equal(t, id1, id2)
	assert.Equal(t, 1, s.Stats().Blobs)
}

func TestStoreData_CopiesInput(t *testing.T) {
	s := New()
	buf := []byte("abc")

	id := s.StoreData(buf)
	buf[0] = 'z'

	got, ok := s.DataIDToData(id)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), got)
}

func TestStoreData_RoundTrip(t *testing.T) {
	s := New()
	want := []byte("round trip")

	id := s.StoreData(want)

	got, ok := s.DataIDToData(id)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStoreExpr_Deterministic(t *testing.T) {
	_, _, fx1 := storeFX(t, New())
	_, _, fx2 := storeFX(t, New())

	assert.Equal(t, fx1, fx2, "independent stores must derive identical expression ids")
}

func TestStoreExpr_PermutationChangesID(t *testing.T) {
	s := New()
	f, x, fx := storeFX(t, s)

	xf, err := s.StoreExpr(ir.Apply(x, f))
	require.NoError(t, err)

	assert.NotEqual(t, fx, xf)
}

func TestStoreExpr_Idempotent(t *testing.T) {
	s := New()
	f, x, fx := storeFX(t, s)
	before := s.Stats()

	again, err := s.StoreExpr(ir.Apply(f, x))
	require.NoError(t, err)

	assert.Equal(t, fx, again)
	assert.Equal(t, before, s.Stats())
}

func TestStoreExpr_LeafBindsImmediately(t *testing.T) {
	s := New()
	f := s.StoreData([]byte("f"))

	tr := ir.NewTree()
	tr.Leaf(f)
	leaf, err := s.StoreExpr(tr)
	require.NoError(t, err)

	got, ok := s.ExprIDToDataID(leaf)
	require.True(t, ok)
	assert.Equal(t, f, got)

	_, ok = s.DependenciesOf(leaf)
	assert.False(t, ok, "leaves have no dependency list")
}

func TestStoreExpr_CompositeStartsUnresolved(t *testing.T) {
	s := New()
	f, x, fx := storeFX(t, s)

	_, ok := s.ExprIDToDataID(fx)
	assert.False(t, ok)

	deps, ok := s.DependenciesOf(fx)
	require.True(t, ok)
	assert.Equal(t, []ir.ExprID{ir.DeriveLeafID(f), ir.DeriveLeafID(x)}, deps)
}

func TestStoreExpr_RefRecordsNothing(t *testing.T) {
	s := New()
	unknown := ir.ExprID{0xAB}

	tr := ir.NewTree()
	tr.Ref(unknown)
	id, err := s.StoreExpr(tr)
	require.NoError(t, err)

	assert.Equal(t, unknown, id)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestStoreExpr_NestedComposite(t *testing.T) {
	s := New()
	f := s.StoreData([]byte("f"))
	x := s.StoreData([]byte("x"))

	tr := ir.NewTree()
	fn := tr.Leaf(f)
	arg := tr.Leaf(x)
	inner := tr.Compute(fn, arg)
	outer := tr.Compute(fn, inner)

	id, err := s.StoreExpr(tr)
	require.NoError(t, err)

	ids, err := tr.IDs()
	require.NoError(t, err)
	assert.Equal(t, ids[outer], id)

	deps, ok := s.DependenciesOf(id)
	require.True(t, ok)
	assert.Equal(t, []ir.ExprID{ids[fn], ids[inner]}, deps)
	assert.Equal(t, 2, s.Stats().Expressions)
}

func TestStoreExpr_InvalidTree(t *testing.T) {
	s := New()

	_, err := s.StoreExpr(ir.NewTree())
	assert.ErrorIs(t, err, ir.ErrInvalidTree)
	assert.Equal(t, Stats{}, s.Stats())
}

func TestStoreExpr_LeafConflict(t *testing.T) {
	s := New()
	f := s.StoreData([]byte("f"))
	other := s.StoreData([]byte("other"))

	// Pretend some other blob was already bound to f's leaf id.
	_, err := s.Relate(other, ir.DeriveLeafID(f))
	require.NoError(t, err)

	tr := ir.NewTree()
	tr.Leaf(f)
	_, err = s.StoreExpr(tr)
	assert.ErrorIs(t, err, ErrEquivalenceConflict)
}

func TestRelate(t *testing.T) {
	s := New()
	_, _, fx := storeFX(t, s)
	result := s.StoreData([]byte("result"))

	inserted, err := s.Relate(result, fx)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Relate(result, fx)
	require.NoError(t, err)
	assert.False(t, inserted, "identical mapping is a no-op")

	got, ok := s.ExprIDToDataID(fx)
	require.True(t, ok)
	assert.Equal(t, result, got)
}

func TestRelate_Conflict(t *testing.T) {
	s := New()
	_, _, fx := storeFX(t, s)
	first := s.StoreData([]byte("first"))
	second := s.StoreData([]byte("second"))

	_, err := s.Relate(first, fx)
	require.NoError(t, err)

	inserted, err := s.Relate(second, fx)
	assert.False(t, inserted)
	require.True(t, errors.Is(err, ErrEquivalenceConflict))

	var conflict *EquivalenceConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, fx, conflict.Many)
	assert.Equal(t, first, conflict.Existing)
	assert.Equal(t, second, conflict.Proposed)

	got, _ := s.ExprIDToDataID(fx)
	assert.Equal(t, first, got, "conflict must not overwrite")
}

func TestRemoveData(t *testing.T) {
	s := New()
	f, _, _ := storeFX(t, s)

	data, ok := s.RemoveData(f)
	require.True(t, ok)
	assert.Equal(t, []byte("f"), data)

	_, ok = s.DataIDToData(f)
	assert.False(t, ok)

	_, ok = s.RemoveData(f)
	assert.False(t, ok, "second removal finds nothing")
}

func TestRemoveData_DoesNotCascade(t *testing.T) {
	s := New()
	f, _, fx := storeFX(t, s)
	leaf := ir.DeriveLeafID(f)

	s.RemoveData(f)

	got, ok := s.ExprIDToDataID(leaf)
	require.True(t, ok, "equivalence survives eviction")
	assert.Equal(t, f, got)

	_, ok = s.DependenciesOf(fx)
	assert.True(t, ok, "dependencies survive eviction")
}

func TestRemoveData_ThenStoreAgain(t *testing.T) {
	s := New()
	id := s.StoreData([]byte("x"))
	s.RemoveData(id)

	again := s.StoreData([]byte("x"))
	assert.Equal(t, id, again)

	got, ok := s.DataIDToData(id)
	require.True(t, ok)
	assert.Equal(t, []byte("x"), got)
}

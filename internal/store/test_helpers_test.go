package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/casmemo/internal/ir"
)

// storeFX stores blobs "f" and "x" and the expression (f x).
func storeFX(t *testing.T, s *Store) (f, x ir.DataID, fx ir.ExprID) {
	t.Helper()
	f = s.StoreData([]byte("f"))
	x = s.StoreData([]byte("x"))
	fx, err := s.StoreExpr(ir.Apply(f, x))
	require.NoError(t, err)
	return f, x, fx
}

// Package reduce defines the pluggable reduction operation consumed by the
// evaluator, plus the built-in reducers.
//
// A reducer receives the evaluated contents of a composite's children, in
// order, and returns the composite's content. By convention inputs[0] is
// the function and inputs[1:] its arguments, but the store never inspects
// them. Memoization is only sound for deterministic reducers: the same
// inputs must always produce the same output.
package reduce

import (
	"context"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/roach88/casmemo/internal/ir"
)

// Reducer computes a result blob from an ordered list of input blobs.
// Implementations must not retain or modify inputs.
type Reducer interface {
	Reduce(ctx context.Context, inputs [][]byte) ([]byte, error)
}

// Func adapts an ordinary function to Reducer.
type Func func(ctx context.Context, inputs [][]byte) ([]byte, error)

// Reduce calls f.
func (f Func) Reduce(ctx context.Context, inputs [][]byte) ([]byte, error) {
	return f(ctx, inputs)
}

// Names of the built-in reducers.
const (
	NamePlaceholder = "placeholder"
	NameConcat      = "concat"
)

// DomainPlaceholder keys the placeholder reducer's hash space.
const DomainPlaceholder = "casmemo/reduce/placeholder/v1"

// Placeholder stands in for real application semantics: the result is a
// 32-byte BLAKE3 keyed hash over the length-prefixed inputs. It is
// deterministic and sensitive to input order and boundaries.
var Placeholder Reducer = Func(func(_ context.Context, inputs [][]byte) ([]byte, error) {
	parts := make([][]byte, 0, 2*len(inputs))
	for _, in := range inputs {
		parts = append(parts, binary.AppendUvarint(nil, uint64(len(in))), in)
	}
	sum := ir.HashWithDomain(DomainPlaceholder, parts...)
	return sum[:], nil
})

// Concat returns the inputs joined in order. Readable results make it the
// reducer of choice for demos and golden traces.
var Concat Reducer = Func(func(_ context.Context, inputs [][]byte) ([]byte, error) {
	var n int
	for _, in := range inputs {
		n += len(in)
	}
	out := make([]byte, 0, n)
	for _, in := range inputs {
		out = append(out, in...)
	}
	return out, nil
})

var builtins = map[string]Reducer{
	NamePlaceholder: Placeholder,
	NameConcat:      Concat,
}

// Lookup returns the built-in reducer with the given name.
func Lookup(name string) (Reducer, error) {
	r, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown reducer %q: must be one of %v", name, Names())
	}
	return r, nil
}

// Names lists the built-in reducers in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package program

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/casmemo/internal/ir"
	"github.com/roach88/casmemo/internal/store"
)

// RefPrefix marks an expression element that is a literal ExprID.
const RefPrefix = "@"

var (
	// ErrUnknownName is returned for an element naming no blob or expr.
	ErrUnknownName = errors.New("unknown name")
	// ErrDuplicateName is returned when a blob and an expr share a name.
	ErrDuplicateName = errors.New("duplicate name")
	// ErrInvalidName is returned for empty names and names starting with RefPrefix.
	ErrInvalidName = errors.New("invalid name")
	// ErrCycle is returned when named expressions refer to each other in a loop.
	ErrCycle = errors.New("expression cycle")
)

// Program is a set of named blobs and expressions.
type Program struct {
	// Normalize applies Unicode NFC to blob text before hashing.
	// Nil means true.
	Normalize *bool               `json:"normalize,omitempty" yaml:"normalize,omitempty"`
	Blobs     map[string]string   `json:"blobs,omitempty" yaml:"blobs,omitempty"`
	Exprs     map[string][]string `json:"exprs,omitempty" yaml:"exprs,omitempty"`
	Eval      []string            `json:"eval,omitempty" yaml:"eval,omitempty"`
}

// Installed maps program names to the identifiers they were stored under.
type Installed struct {
	// Blobs maps blob names to their content ids.
	Blobs map[string]ir.DataID
	// Exprs maps every name to an expression id. Blob names map to the
	// leaf expression over the blob.
	Exprs map[string]ir.ExprID
}

// Lookup returns the expression id for name.
func (in *Installed) Lookup(name string) (ir.ExprID, error) {
	id, ok := in.Exprs[name]
	if !ok {
		return ir.ExprID{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return id, nil
}

// Names returns every name in sorted order.
func (in *Installed) Names() []string {
	names := make([]string, 0, len(in.Exprs))
	for name := range in.Exprs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BlobData returns the bytes stored for a named blob.
func (p *Program) BlobData(name string) ([]byte, bool) {
	s, ok := p.Blobs[name]
	if !ok {
		return nil, false
	}
	if p.Normalize == nil || *p.Normalize {
		s = norm.NFC.String(s)
	}
	return []byte(s), true
}

// Targets returns the names to evaluate: the explicit names if any,
// otherwise the program's eval list.
func (p *Program) Targets(names []string) []string {
	if len(names) > 0 {
		return names
	}
	return p.Eval
}

// Validate checks names and references without building anything.
func (p *Program) Validate() error {
	_, _, err := p.Tree()
	return err
}

// Tree builds one arena holding a leaf per blob and a node per expression.
// The returned map gives the node index of every name.
//
// Expressions are emitted children-first using an explicit stack, so
// arbitrarily long chains of named expressions need no recursion.
func (p *Program) Tree() (*ir.Tree, map[string]ir.NodeIndex, error) {
	if err := p.checkNames(); err != nil {
		return nil, nil, err
	}

	t := ir.NewTree()
	nodes := make(map[string]ir.NodeIndex, len(p.Blobs)+len(p.Exprs))

	for _, name := range sortedKeys(p.Blobs) {
		data, _ := p.BlobData(name)
		nodes[name] = t.Leaf(ir.DeriveDataID(data))
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(p.Exprs))

	for _, start := range sortedKeys(p.Exprs) {
		if state[start] == done {
			continue
		}
		stack := []string{start}
		for len(stack) > 0 {
			name := stack[len(stack)-1]
			switch state[name] {
			case done:
				stack = stack[:len(stack)-1]

			case unvisited:
				state[name] = visiting
				elems := p.Exprs[name]
				// Push in reverse so children are emitted in element order.
				for i := len(elems) - 1; i >= 0; i-- {
					el := elems[i]
					if strings.HasPrefix(el, RefPrefix) {
						continue
					}
					if _, ok := p.Blobs[el]; ok {
						continue
					}
					if _, ok := p.Exprs[el]; !ok {
						return nil, nil, fmt.Errorf("expr %q element %d: %w: %q", name, i, ErrUnknownName, el)
					}
					switch state[el] {
					case visiting:
						return nil, nil, fmt.Errorf("%w: %s", ErrCycle, cyclePath(stack, state, el))
					case unvisited:
						stack = append(stack, el)
					}
				}

			case visiting:
				elems := p.Exprs[name]
				args := make([]ir.NodeIndex, len(elems))
				for i, el := range elems {
					if hexID, ok := strings.CutPrefix(el, RefPrefix); ok {
						id, err := ir.ParseExprID(hexID)
						if err != nil {
							return nil, nil, fmt.Errorf("expr %q element %d: %w", name, i, err)
						}
						args[i] = t.Ref(id)
						continue
					}
					args[i] = nodes[el]
				}
				nodes[name] = t.Compute(args...)
				state[name] = done
				stack = stack[:len(stack)-1]
			}
		}
	}

	return t, nodes, nil
}

// Install stores every blob and expression of p in s in one update.
func (p *Program) Install(s *store.Store) (*Installed, error) {
	t, nodes, err := p.Tree()
	if err != nil {
		return nil, err
	}

	in := &Installed{
		Blobs: make(map[string]ir.DataID, len(p.Blobs)),
		Exprs: make(map[string]ir.ExprID, len(nodes)),
	}

	err = s.Update(func(tx *store.Tx) error {
		for name := range p.Blobs {
			data, _ := p.BlobData(name)
			in.Blobs[name] = tx.StoreData(data)
		}
		if t.Len() == 0 {
			return nil
		}
		if _, err := tx.StoreExpr(t); err != nil {
			return err
		}
		ids, err := t.IDs()
		if err != nil {
			return err
		}
		for name, i := range nodes {
			in.Exprs[name] = ids[i]
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("install program: %w", err)
	}
	return in, nil
}

func (p *Program) checkNames() error {
	for _, name := range sortedKeys(p.Blobs) {
		if err := checkName(name); err != nil {
			return err
		}
		if _, ok := p.Exprs[name]; ok {
			return fmt.Errorf("%w: %q is both a blob and an expr", ErrDuplicateName, name)
		}
	}
	for _, name := range sortedKeys(p.Exprs) {
		if err := checkName(name); err != nil {
			return err
		}
	}
	for i, name := range p.Eval {
		if _, isBlob := p.Blobs[name]; isBlob {
			continue
		}
		if _, isExpr := p.Exprs[name]; !isExpr {
			return fmt.Errorf("eval element %d: %w: %q", i, ErrUnknownName, name)
		}
	}
	return nil
}

func checkName(name string) error {
	if name == "" || strings.HasPrefix(name, RefPrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// cyclePath renders the loop closed by an edge to target.
func cyclePath(stack []string, state map[string]int, target string) string {
	const visiting = 1
	var path []string
	seen := make(map[string]bool)
	for _, name := range stack {
		if state[name] != visiting || seen[name] {
			continue
		}
		if name == target || len(path) > 0 {
			seen[name] = true
			path = append(path, name)
		}
	}
	path = append(path, target)
	return strings.Join(path, " -> ")
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

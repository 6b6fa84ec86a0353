package ir

import (
	"errors"
	"fmt"
)

// ErrInvalidTree is returned for arenas that cannot be inserted.
var ErrInvalidTree = errors.New("invalid expression tree")

// Kind tags the variant held by a Node.
type Kind uint8

const (
	// KindRef names an expression that already has an identifier.
	KindRef Kind = iota + 1
	// KindLeaf evaluates directly to a stored blob.
	KindLeaf
	// KindCompute applies Args[0] as a function to Args[1:].
	KindCompute
)

func (k Kind) String() string {
	switch k {
	case KindRef:
		return "ref"
	case KindLeaf:
		return "leaf"
	case KindCompute:
		return "compute"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// NodeIndex is a position in a Tree.
type NodeIndex int

// Node is one entry of an expression arena. Exactly one payload field is
// meaningful, selected by Kind.
type Node struct {
	Kind Kind
	Ref  ExprID      // KindRef
	Data DataID      // KindLeaf
	Args []NodeIndex // KindCompute, each < this node's index
}

// Tree is an arena of expression nodes.
//
// A Compute node may only reference nodes added before it, so ascending
// index order is always a valid children-first insertion order. Walking a
// tree therefore never needs recursion or an explicit stack, however deep
// it is. A node may be shared by several parents.
//
// The zero value is an empty tree ready for use.
type Tree struct {
	nodes   []Node
	root    NodeIndex
	rootSet bool
}

// NewTree returns an empty arena.
func NewTree() *Tree {
	return &Tree{}
}

// Ref adds a node referring to an existing expression id.
func (t *Tree) Ref(id ExprID) NodeIndex {
	return t.add(Node{Kind: KindRef, Ref: id})
}

// Leaf adds a node that evaluates to the blob d.
func (t *Tree) Leaf(d DataID) NodeIndex {
	return t.add(Node{Kind: KindLeaf, Data: d})
}

// Compute adds a composite node over args. The slice is copied.
func (t *Tree) Compute(args ...NodeIndex) NodeIndex {
	own := make([]NodeIndex, len(args))
	copy(own, args)
	return t.add(Node{Kind: KindCompute, Args: own})
}

func (t *Tree) add(n Node) NodeIndex {
	t.nodes = append(t.nodes, n)
	return NodeIndex(len(t.nodes) - 1)
}

// SetRoot selects the node whose id StoreExpr returns. Without it, the
// most recently added node is the root.
func (t *Tree) SetRoot(i NodeIndex) {
	t.root = i
	t.rootSet = true
}

// Root returns the root index, or -1 for an empty tree.
func (t *Tree) Root() NodeIndex {
	if t.rootSet {
		return t.root
	}
	return NodeIndex(len(t.nodes) - 1)
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node at i. It panics if i is out of range.
func (t *Tree) Node(i NodeIndex) Node { return t.nodes[i] }

// Validate checks that the tree is non-empty, the root exists, every node
// has a known kind and every argument points at an earlier node.
func (t *Tree) Validate() error {
	if t == nil || len(t.nodes) == 0 {
		return fmt.Errorf("%w: no nodes", ErrInvalidTree)
	}
	if root := t.Root(); root < 0 || int(root) >= len(t.nodes) {
		return fmt.Errorf("%w: root %d out of range [0,%d)", ErrInvalidTree, root, len(t.nodes))
	}
	for i, n := range t.nodes {
		switch n.Kind {
		case KindRef, KindLeaf:
		case KindCompute:
			for j, a := range n.Args {
				if a < 0 || int(a) >= i {
					return fmt.Errorf("%w: node %d argument %d refers to node %d", ErrInvalidTree, i, j, a)
				}
			}
		default:
			return fmt.Errorf("%w: node %d has %s", ErrInvalidTree, i, n.Kind)
		}
	}
	return nil
}

// IDs derives the identifier of every node, in arena order.
// It is a pure function of the tree; nothing is recorded anywhere.
func (t *Tree) IDs() ([]ExprID, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	ids := make([]ExprID, len(t.nodes))
	for i, n := range t.nodes {
		switch n.Kind {
		case KindRef:
			ids[i] = n.Ref
		case KindLeaf:
			ids[i] = DeriveLeafID(n.Data)
		case KindCompute:
			children := make([]ExprID, len(n.Args))
			for j, a := range n.Args {
				children[j] = ids[a]
			}
			ids[i] = DeriveComputeID(children)
		}
	}
	return ids, nil
}

// ID derives the root identifier.
func (t *Tree) ID() (ExprID, error) {
	ids, err := t.IDs()
	if err != nil {
		return ExprID{}, err
	}
	return ids[t.Root()], nil
}

// Apply builds the tree (fn args...) over leaves. Convenience for the
// common single-application case.
func Apply(fn DataID, args ...DataID) *Tree {
	t := NewTree()
	nodes := make([]NodeIndex, 0, len(args)+1)
	nodes = append(nodes, t.Leaf(fn))
	for _, a := range args {
		nodes = append(nodes, t.Leaf(a))
	}
	t.Compute(nodes...)
	return t
}

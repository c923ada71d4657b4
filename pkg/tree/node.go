package tree

// NodeID identifies a node within an Arena. Ids are assigned in increasing
// order and never reused by the same Arena.
type NodeID uint32

// None is the absent node.
const None NodeID = 0

// Kind labels a node variant ("symbol", "fraction", "block", ...). The core
// stores it and never interprets it.
type Kind string

// Node is a read-only copy of a node's record taken by Arena.Lookup.
type Node struct {
	ID      NodeID
	Kind    Kind
	Parent  NodeID
	Sibling Ends
	Ends    Ends
}

// Left returns the left sibling.
func (n Node) Left() NodeID { return n.Sibling[Left] }

// Right returns the right sibling.
func (n Node) Right() NodeID { return n.Sibling[Right] }

// IsEmpty reports whether the node had no children.
func (n Node) IsEmpty() bool { return n.Ends.IsEmpty() }

// Point is an immutable capture of a gap in the tree: a parent and the two
// siblings on either side. It is a plain value and never part of the tree.
type Point struct {
	Parent NodeID
	Left   NodeID
	Right  NodeID
}

// Equal reports whether both points describe the same gap.
func (p Point) Equal(other Point) bool { return p == other }

// Side returns the neighbour in direction d.
func (p Point) Side(d Direction) NodeID {
	if d == Left {
		return p.Left
	}

	return p.Right
}

// Renderable is the per-node hook a rendering layer attaches with
// Arena.Attach. The core never inspects it; it only reports placement and
// removal.
type Renderable interface {
	// Placed is called for every member of a fragment after it was adopted,
	// with the member's new gap.
	Placed(id NodeID, at Point)

	// Removed is called when the node is disposed.
	Removed(id NodeID)
}

// slot is the arena record behind a NodeID.
type slot struct {
	parent NodeID
	sib    Ends
	ends   Ends
	kind   uint32
	live   bool
}

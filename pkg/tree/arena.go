package tree

import (
	"fmt"
	"log/slog"
	"math"
)

// Arena owns the node records of one editing context and doubles as the
// id registry. Node ids index into its storage; pointers between nodes are
// NodeIDs. Not safe for concurrent use.
type Arena struct {
	// storage[i] holds the node with id first+i.
	storage []slot
	first   NodeID
	live    int

	kinds       []Kind
	kindIndex   map[Kind]uint32
	renderables map[NodeID]Renderable

	assertions bool
	logger     *slog.Logger
	observer   Observer

	// HibernationThreshold is the minimum number of slots for Hibernate to act.
	HibernationThreshold int
	hibernated           bool
	hibernatedData       [slotColumns][]byte
	hibernatedLen        int
}

// NewArena creates an empty Arena.
func NewArena(opts ...Option) *Arena {
	arena := &Arena{
		storage:     []slot{},
		first:       1,
		kindIndex:   map[Kind]uint32{},
		renderables: map[NodeID]Renderable{},
		logger:      slog.New(slog.DiscardHandler),
		observer:    nopObserver{},
	}

	for _, opt := range opts {
		opt(arena)
	}

	return arena
}

// Len returns the number of live nodes.
func (arena *Arena) Len() int {
	return arena.live
}

// Assertions reports whether the arena runs the optional structural checks.
func (arena *Arena) Assertions() bool {
	return arena.assertions
}

// Create allocates a node of the given kind with no parent, no siblings and
// no children, and registers it.
func (arena *Arena) Create(kind Kind) NodeID {
	arena.ensureAwake()

	next := uint64(arena.first) + uint64(len(arena.storage))
	if next > math.MaxUint32 {
		panic("tree: node ids exhausted")
	}

	id := NodeID(next)
	arena.storage = append(arena.storage, slot{kind: arena.intern(kind), live: true})
	arena.live++
	arena.observer.NodeCreated(id, kind)

	return id
}

// Lookup returns a copy of the node's record. It fails with ErrNotFound when
// the id was never issued or the node was disposed.
func (arena *Arena) Lookup(id NodeID) (Node, error) {
	nd, err := arena.get(id)
	if err != nil {
		return Node{}, err
	}

	return Node{
		ID:      id,
		Kind:    arena.kinds[nd.kind],
		Parent:  nd.parent,
		Sibling: nd.sib,
		Ends:    nd.ends,
	}, nil
}

// Contains reports whether id names a live node.
func (arena *Arena) Contains(id NodeID) bool {
	_, err := arena.get(id)

	return err == nil
}

// Parent returns the node's parent, or None.
func (arena *Arena) Parent(id NodeID) NodeID {
	if nd := arena.slotOf(id); nd != nil {
		return nd.parent
	}

	return None
}

// Sibling returns the node's sibling in direction d, or None.
func (arena *Arena) Sibling(id NodeID, d Direction) NodeID {
	if nd := arena.slotOf(id); nd != nil && d.Valid() {
		return nd.sib[d]
	}

	return None
}

// End returns the node's first (Left) or last (Right) child, or None.
func (arena *Arena) End(id NodeID, d Direction) NodeID {
	if nd := arena.slotOf(id); nd != nil && d.Valid() {
		return nd.ends[d]
	}

	return None
}

// KindOf returns the node's kind, or "" for an unknown id.
func (arena *Arena) KindOf(id NodeID) Kind {
	if nd := arena.slotOf(id); nd != nil {
		return arena.kinds[nd.kind]
	}

	return ""
}

// IsEmpty reports whether the node has no children.
func (arena *Arena) IsEmpty(id NodeID) bool {
	if nd := arena.slotOf(id); nd != nil {
		return nd.ends.IsEmpty()
	}

	return true
}

// Snapshot captures the node's current gap: its parent and both siblings.
func (arena *Arena) Snapshot(id NodeID) Point {
	nd := arena.slotOf(id)
	if nd == nil {
		return Point{}
	}

	return Point{Parent: nd.parent, Left: nd.sib[Left], Right: nd.sib[Right]}
}

// Attach sets the node's Renderable. A nil Renderable detaches it.
func (arena *Arena) Attach(id NodeID, renderable Renderable) error {
	_, err := arena.get(id)
	if err != nil {
		return err
	}

	if renderable == nil {
		delete(arena.renderables, id)

		return nil
	}

	arena.renderables[id] = renderable

	return nil
}

// Dispose unregisters a node. The node must already be disowned: disposing
// a node still linked into its parent's child list fails with
// ErrStillAttached. Disposing an already disposed node is a no-op. Pointers
// are left as they are.
func (arena *Arena) Dispose(id NodeID) error {
	nd := arena.slotOf(id)
	if nd == nil {
		if id != None && id < arena.first {
			return nil
		}

		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	if !nd.live {
		return nil
	}

	if arena.linked(id) {
		err := fmt.Errorf("%w: node %d under parent %d", ErrStillAttached, id, nd.parent)
		arena.violation(OpDispose, err)

		return err
	}

	arena.release(id)

	return nil
}

// Remove disowns the node from its parent, then disposes it together with
// its whole subtree, children before parents.
func (arena *Arena) Remove(id NodeID) error {
	_, err := arena.get(id)
	if err != nil {
		return err
	}

	if arena.linked(id) {
		frag, fragErr := arena.NewFragment(id, id, Left)
		if fragErr != nil {
			return fragErr
		}

		disownErr := frag.Disown()
		if disownErr != nil {
			return disownErr
		}
	}

	members := make([]NodeID, 0, 1)
	for member := range arena.PostOrder(id) {
		members = append(members, member)
	}

	for _, member := range members {
		arena.release(member)
	}

	arena.logger.Debug("removed subtree", "op", OpRemove, "root", id, "nodes", len(members))

	return nil
}

// Reset disposes every node and clears the registry. Ids issued before the
// reset stay retired: they are never handed out again.
func (arena *Arena) Reset() {
	arena.ensureAwake()

	for idx := range arena.storage {
		if arena.storage[idx].live {
			arena.release(arena.first + NodeID(idx))
		}
	}

	arena.first += NodeID(len(arena.storage))
	arena.storage = arena.storage[:0]
	clear(arena.renderables)
}

func (arena *Arena) intern(kind Kind) uint32 {
	if idx, ok := arena.kindIndex[kind]; ok {
		return idx
	}

	idx := uint32(len(arena.kinds))
	arena.kinds = append(arena.kinds, kind)
	arena.kindIndex[kind] = idx

	return idx
}

// slotOf returns the record for id, live or not, or nil when the id is out
// of range.
func (arena *Arena) slotOf(id NodeID) *slot {
	arena.ensureAwake()

	if id < arena.first {
		return nil
	}

	idx := uint64(id - arena.first)
	if idx >= uint64(len(arena.storage)) {
		return nil
	}

	return &arena.storage[idx]
}

// get returns the live record for id or ErrNotFound.
func (arena *Arena) get(id NodeID) (*slot, error) {
	nd := arena.slotOf(id)
	if nd == nil || !nd.live {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}

	return nd, nil
}

// linked reports whether id is a member of its parent's child list. A
// disowned run keeps its parent and its internal sibling links, so only a
// walk of the list tells the two apart. The walk is bounded by the arena
// size.
func (arena *Arena) linked(id NodeID) bool {
	nd := arena.slotOf(id)
	if nd == nil || nd.parent == None {
		return false
	}

	parent, err := arena.get(nd.parent)
	if err != nil {
		return false
	}

	last := parent.ends[Right]
	limit := len(arena.storage)

	for cur := parent.ends[Left]; cur != None && limit > 0; limit-- {
		if cur == id {
			return true
		}

		if cur == last {
			return false
		}

		next := arena.slotOf(cur)
		if next == nil {
			return false
		}

		cur = next.sib[Right]
	}

	return false
}

func (arena *Arena) release(id NodeID) {
	nd := arena.slotOf(id)
	if nd == nil || !nd.live {
		return
	}

	nd.live = false
	arena.live--

	if renderable, ok := arena.renderables[id]; ok {
		delete(arena.renderables, id)
		renderable.Removed(id)
	}

	arena.observer.NodeDisposed(id)
}

func (arena *Arena) violation(op Op, err error) {
	arena.logger.Warn("tree invariant violation", "op", op, "error", err)
	arena.observer.Violation(op, err)
}

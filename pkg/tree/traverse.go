package tree

import "iter"

// Ancestors yields the node itself, then its parent and so on up to the root.
// The walk is bounded by the arena size.
func (arena *Arena) Ancestors(id NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if arena.slotOf(id) == nil {
			return
		}

		limit := len(arena.storage)

		for cur := id; cur != None && limit > 0; cur = arena.Parent(cur) {
			if !yield(cur) {
				return
			}

			limit--
		}
	}
}

type postOrderFrame struct {
	id   NodeID
	next NodeID
}

// PostOrder yields the subtree under root, children before their parent and
// siblings left to right. It follows pointers without checking liveness and
// never yields more nodes than the arena holds.
func (arena *Arena) PostOrder(root NodeID) iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		if arena.slotOf(root) == nil {
			return
		}

		budget := len(arena.storage)
		stack := []postOrderFrame{{id: root, next: arena.End(root, Left)}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]

			if top.next == None {
				id := top.id
				stack = stack[:len(stack)-1]

				if !yield(id) {
					return
				}

				continue
			}

			child := top.next
			if child == arena.End(top.id, Right) {
				top.next = None
			} else {
				top.next = arena.Sibling(child, Right)
			}

			budget--
			if budget <= 0 {
				return
			}

			stack = append(stack, postOrderFrame{id: child, next: arena.End(child, Left)})
		}
	}
}

// InsertAt adopts the fragment into the gap captured by p.
func (arena *Arena) InsertAt(f *Fragment, p Point) error {
	return f.Adopt(p.Parent, p.Left, p.Right)
}

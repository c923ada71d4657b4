package tree

import (
	"fmt"
	"iter"
)

// Fragment is a one-way, non-owning view over a contiguous run of siblings.
// It is built right before a splice and dropped after: Disown detaches the
// run from wherever it is linked, Adopt links it into a parent at a gap.
type Fragment struct {
	arena    *Arena
	ends     Ends
	disowned bool
}

// NewFragment builds a fragment whose end in direction dir is withDirEnd and
// whose other end is oppDirEnd. Both ends None gives an empty fragment;
// exactly one None fails with ErrMalformedFragment. Both ends must share a
// parent. The run between them is assumed to be a sibling chain; with
// assertions enabled that is verified and a broken chain fails with
// ErrUnreachableEnd.
func (arena *Arena) NewFragment(withDirEnd, oppDirEnd NodeID, dir Direction) (*Fragment, error) {
	frag := &Fragment{arena: arena}

	if !dir.Valid() {
		return nil, fmt.Errorf("%w: direction %d", ErrMalformedFragment, dir)
	}

	if withDirEnd == None && oppDirEnd == None {
		return frag, nil
	}

	if withDirEnd == None || oppDirEnd == None {
		return nil, fmt.Errorf("%w: ends %d and %d", ErrMalformedFragment, withDirEnd, oppDirEnd)
	}

	withSlot, err := arena.get(withDirEnd)
	if err != nil {
		return nil, err
	}

	oppSlot, err := arena.get(oppDirEnd)
	if err != nil {
		return nil, err
	}

	if withSlot.parent != oppSlot.parent {
		return nil, fmt.Errorf("%w: %d has parent %d, %d has parent %d",
			ErrMismatchedParent, withDirEnd, withSlot.parent, oppDirEnd, oppSlot.parent)
	}

	frag.ends[dir] = withDirEnd
	frag.ends[dir.Negate()] = oppDirEnd

	if arena.assertions {
		_, err = frag.members()
		if err != nil {
			return nil, err
		}
	}

	return frag, nil
}

// Span builds a fragment from its left end to its right end.
func (arena *Arena) Span(left, right NodeID) (*Fragment, error) {
	return arena.NewFragment(left, right, Left)
}

// Children returns a fragment over the node's own children.
func (arena *Arena) Children(id NodeID) (*Fragment, error) {
	nd, err := arena.get(id)
	if err != nil {
		return nil, err
	}

	return &Fragment{arena: arena, ends: nd.ends}, nil
}

// Ends returns the fragment's ends.
func (f *Fragment) Ends() Ends { return f.ends }

// End returns the fragment's end in direction d.
func (f *Fragment) End(d Direction) NodeID { return f.ends[d] }

// IsEmpty reports whether the fragment covers no nodes.
func (f *Fragment) IsEmpty() bool { return f.ends.IsEmpty() }

// Disowned reports whether the fragment's run was detached by Disown and not
// adopted since.
func (f *Fragment) Disowned() bool { return f.disowned }

// Adopt links the fragment's run into parent between leftward and
// rightward. Either neighbour may be None, meaning the corresponding end of
// the parent's child list. The target gap must be well formed; nothing is
// written unless every check passes. The run must not be linked anywhere:
// freshly created nodes qualify, attached ones must be disowned first or
// Adopt fails with ErrStillAttached. Adopting an empty fragment only checks
// the gap. Adopt is meant to run once per detachment.
func (f *Fragment) Adopt(parent, leftward, rightward NodeID) error {
	arena := f.arena

	err := arena.checkWellFormed(parent, leftward, rightward)
	if err != nil {
		arena.violation(OpAdopt, err)

		return err
	}

	members, err := f.members()
	if err != nil {
		arena.violation(OpAdopt, err)

		return err
	}

	err = arena.checkDetached(f.ends)
	if err != nil {
		arena.violation(OpAdopt, err)

		return err
	}

	err = arena.checkAcyclic(members, parent, leftward, rightward)
	if err != nil {
		arena.violation(OpAdopt, err)

		return err
	}

	f.disowned = false

	if len(members) == 0 {
		return nil
	}

	outer := Ends{Left: leftward, Right: rightward}
	parentSlot := arena.slotOf(parent)

	var prev NodeID

	for idx, member := range members {
		nd := arena.slotOf(member)
		nd.parent = parent

		if idx > 0 {
			nd.sib[Left] = prev
			arena.slotOf(prev).sib[Right] = member
		}

		prev = member
	}

	for _, d := range directions {
		end := f.ends[d]
		arena.slotOf(end).sib[d] = outer[d]

		if outer[d] == None {
			parentSlot.ends[d] = end
		} else {
			arena.slotOf(outer[d]).sib[d.Negate()] = end
		}
	}

	arena.logger.Debug("spliced", "op", OpAdopt, "parent", parent, "members", len(members))
	arena.observer.Spliced(OpAdopt, len(members))
	arena.notifyPlaced(members)

	return nil
}

// Disown detaches the fragment's run from its parent and links the run's
// former neighbours to each other. The members keep their own pointers, so
// the run can be adopted elsewhere as is. Disowning an empty or already
// disowned fragment is a no-op.
func (f *Fragment) Disown() error {
	if f.IsEmpty() || f.disowned {
		return nil
	}

	arena := f.arena
	leftEnd, rightEnd := f.ends[Left], f.ends[Right]

	leftSlot, err := arena.get(leftEnd)
	if err != nil {
		return err
	}

	rightSlot, err := arena.get(rightEnd)
	if err != nil {
		return err
	}

	parent := leftSlot.parent
	outer := Ends{Left: leftSlot.sib[Left], Right: rightSlot.sib[Right]}

	err = arena.checkWellFormed(parent, outer[Left], leftEnd)
	if err == nil {
		err = arena.checkWellFormed(parent, rightEnd, outer[Right])
	}

	var members []NodeID
	if err == nil {
		members, err = f.members()
	}

	if err != nil {
		arena.violation(OpDisown, err)

		return err
	}

	parentSlot := arena.slotOf(parent)

	for _, d := range directions {
		if outer[d] == None {
			parentSlot.ends[d] = outer[d.Negate()]
		} else {
			arena.slotOf(outer[d]).sib[d.Negate()] = outer[d.Negate()]
		}
	}

	f.disowned = true

	arena.logger.Debug("spliced", "op", OpDisown, "parent", parent, "left", leftEnd, "right", rightEnd)
	arena.observer.Spliced(OpDisown, len(members))

	return nil
}

// Each yields the fragment's members from left to right. It visits direct
// members only, not their subtrees.
func (f *Fragment) Each() iter.Seq[NodeID] {
	return func(yield func(NodeID) bool) {
		left, right := f.ends[Left], f.ends[Right]
		if left == None {
			return
		}

		for cur := left; cur != None; cur = f.arena.Sibling(cur, Right) {
			if !yield(cur) || cur == right {
				return
			}
		}
	}
}

// Len returns the number of members.
func (f *Fragment) Len() int {
	return Fold(f, 0, func(count int, _ NodeID) int { return count + 1 })
}

// Fold reduces the fragment's members from left to right.
func Fold[T any](f *Fragment, seed T, combine func(T, NodeID) T) T {
	acc := seed

	for member := range f.Each() {
		acc = combine(acc, member)
	}

	return acc
}

// members walks the run from the left end and returns it, failing with
// ErrUnreachableEnd when the right end is not met. The walk is bounded by
// the arena size, so a corrupted chain cannot loop forever.
func (f *Fragment) members() ([]NodeID, error) {
	left, right := f.ends[Left], f.ends[Right]
	if left == None {
		return nil, nil
	}

	arena := f.arena
	limit := len(arena.storage)
	run := make([]NodeID, 0, 1)

	for cur := left; len(run) < limit; {
		nd, err := arena.get(cur)
		if err != nil {
			return nil, err
		}

		run = append(run, cur)

		if cur == right {
			return run, nil
		}

		cur = nd.sib[Right]
		if cur == None {
			break
		}
	}

	return nil, fmt.Errorf("%w: %d from %d", ErrUnreachableEnd, right, left)
}

func (arena *Arena) notifyPlaced(members []NodeID) {
	if len(arena.renderables) == 0 {
		return
	}

	for _, member := range members {
		if renderable, ok := arena.renderables[member]; ok {
			renderable.Placed(member, arena.Snapshot(member))
		}
	}
}

package tree

import "fmt"

// checkWellFormed reports whether (parent, leftward, rightward) is a valid
// gap: leftward and rightward are adjacent children of parent, and a None
// side means the corresponding end of the child list.
func (arena *Arena) checkWellFormed(parent, leftward, rightward NodeID) error {
	if parent == None {
		return fmt.Errorf("%w: gap (%d, %d)", ErrMissingParent, leftward, rightward)
	}

	parentSlot, err := arena.get(parent)
	if err != nil {
		return err
	}

	outer := Ends{Left: leftward, Right: rightward}

	for _, d := range directions {
		if outer[d] == None {
			if parentSlot.ends[d] != outer[d.Negate()] {
				return fmt.Errorf("%w: %s end of %d is %d, want %d",
					ErrStructuralInvariant, d, parent, parentSlot.ends[d], outer[d.Negate()])
			}

			continue
		}

		nd, getErr := arena.get(outer[d])
		if getErr != nil {
			return getErr
		}

		if nd.parent != parent {
			return fmt.Errorf("%w: %d has parent %d, want %d",
				ErrStructuralInvariant, outer[d], nd.parent, parent)
		}

		if nd.sib[d.Negate()] != outer[d.Negate()] {
			return fmt.Errorf("%w: %s sibling of %d is %d, want %d",
				ErrStructuralInvariant, d.Negate(), outer[d], nd.sib[d.Negate()], outer[d.Negate()])
		}
	}

	return nil
}

// checkDetached fails when either end of a run is still linked into a child
// list.
func (arena *Arena) checkDetached(ends Ends) error {
	for _, d := range directions {
		if ends[d] != None && arena.linked(ends[d]) {
			return fmt.Errorf("%w: fragment end %d", ErrStillAttached, ends[d])
		}
	}

	return nil
}

// checkAcyclic refuses a target gap built from the run's own members. With
// assertions enabled it also refuses a parent that descends from a member.
func (arena *Arena) checkAcyclic(members []NodeID, parent, leftward, rightward NodeID) error {
	if len(members) == 0 {
		return nil
	}

	set := make(map[NodeID]struct{}, len(members))
	for _, member := range members {
		set[member] = struct{}{}
	}

	for _, target := range [...]NodeID{parent, leftward, rightward} {
		if _, ok := set[target]; ok {
			return fmt.Errorf("%w: %d is a fragment member", ErrCycle, target)
		}
	}

	if !arena.assertions {
		return nil
	}

	for ancestor := range arena.Ancestors(parent) {
		if _, ok := set[ancestor]; ok {
			return fmt.Errorf("%w: parent %d descends from %d", ErrCycle, parent, ancestor)
		}
	}

	return nil
}

// Verify walks the subtree under root and checks every node: its ends are
// both set or both None, and each pair of consecutive children forms a well
// formed gap. A node reached twice fails as a structural violation.
func (arena *Arena) Verify(root NodeID) error {
	err := arena.verify(root)
	if err != nil {
		arena.violation(OpVerify, err)

		return err
	}

	arena.logger.Debug("verified", "op", OpVerify, "root", root)

	return nil
}

func (arena *Arena) verify(root NodeID) error {
	_, err := arena.get(root)
	if err != nil {
		return err
	}

	visited := map[NodeID]struct{}{root: {}}
	queue := []NodeID{root}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		nd := arena.slotOf(cur)
		if nd.ends.halfEmpty() {
			return fmt.Errorf("%w: %d has ends %v", ErrStructuralInvariant, cur, nd.ends)
		}

		prev := None

		for child := nd.ends[Left]; child != None; {
			if _, seen := visited[child]; seen {
				return fmt.Errorf("%w: %d reached twice", ErrStructuralInvariant, child)
			}

			visited[child] = struct{}{}

			err = arena.checkWellFormed(cur, prev, child)
			if err != nil {
				return err
			}

			queue = append(queue, child)
			prev = child

			if child == nd.ends[Right] {
				break
			}

			child = arena.slotOf(child).sib[Right]
		}

		err = arena.checkWellFormed(cur, prev, None)
		if err != nil {
			return err
		}
	}

	return nil
}

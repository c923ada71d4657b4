package tree

import (
	"errors"
	"sync"
)

// slotColumns is the number of uint32 columns a slot is split into while
// hibernated: parent, left, right, first child, last child, kind, flags.
const slotColumns = 7

const slotFlagLive uint32 = 1

func (arena *Arena) ensureAwake() {
	if arena.hibernated {
		panic("hibernated arenas cannot be used")
	}
}

// Hibernate compresses the node storage. Arenas smaller than
// HibernationThreshold are left as they are. Any use of a hibernated Arena
// other than Boot, Len and Hibernated panics.
func (arena *Arena) Hibernate() error {
	if arena.hibernated {
		panic("cannot hibernate an already hibernated Arena")
	}

	if len(arena.storage) < arena.HibernationThreshold {
		return nil
	}

	arena.hibernated = true
	arena.hibernatedLen = len(arena.storage)

	if arena.hibernatedLen == 0 {
		arena.storage = nil

		return nil
	}

	var columns [slotColumns][]uint32
	for idx := range columns {
		columns[idx] = make([]uint32, arena.hibernatedLen)
	}

	for idx, nd := range arena.storage {
		columns[0][idx] = uint32(nd.parent)
		columns[1][idx] = uint32(nd.sib[Left])
		columns[2][idx] = uint32(nd.sib[Right])
		columns[3][idx] = uint32(nd.ends[Left])
		columns[4][idx] = uint32(nd.ends[Right])
		columns[5][idx] = nd.kind

		if nd.live {
			columns[6][idx] = slotFlagLive
		}
	}

	var (
		wg   sync.WaitGroup
		errs [slotColumns]error
	)

	wg.Add(slotColumns)

	for idx := range columns {
		go func(col int) {
			defer wg.Done()

			arena.hibernatedData[col], errs[col] = CompressUInt32Slice(columns[col])
			columns[col] = nil
		}(idx)
	}

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		arena.hibernated = false
		arena.hibernatedLen = 0
		arena.hibernatedData = [slotColumns][]byte{}

		return err
	}

	arena.storage = nil

	return nil
}

// Hibernated reports whether the storage is currently compressed.
func (arena *Arena) Hibernated() bool {
	return arena.hibernated
}

// HibernatedSize returns the number of compressed bytes held while
// hibernated, or 0 when awake.
func (arena *Arena) HibernatedSize() int {
	total := 0
	for _, column := range arena.hibernatedData {
		total += len(column)
	}

	return total
}

// Boot performs the opposite of Hibernate: it decompresses and restores the
// node storage. Booting an awake Arena is a no-op.
func (arena *Arena) Boot() error {
	if !arena.hibernated {
		return nil
	}

	if arena.hibernatedLen == 0 {
		arena.storage = []slot{}
		arena.hibernated = false

		return nil
	}

	var (
		wg      sync.WaitGroup
		columns [slotColumns][]uint32
		errs    [slotColumns]error
	)

	wg.Add(slotColumns)

	for idx := range columns {
		go func(col int) {
			defer wg.Done()

			columns[col] = make([]uint32, arena.hibernatedLen)
			errs[col] = DecompressUInt32Slice(arena.hibernatedData[col], columns[col])
		}(idx)
	}

	wg.Wait()

	err := errors.Join(errs[:]...)
	if err != nil {
		return err
	}

	storage := make([]slot, arena.hibernatedLen)
	for idx := range storage {
		storage[idx] = slot{
			parent: NodeID(columns[0][idx]),
			sib:    Ends{NodeID(columns[1][idx]), NodeID(columns[2][idx])},
			ends:   Ends{NodeID(columns[3][idx]), NodeID(columns[4][idx])},
			kind:   columns[5][idx],
			live:   columns[6][idx]&slotFlagLive != 0,
		}
	}

	arena.storage = storage
	arena.hibernated = false
	arena.hibernatedLen = 0
	arena.hibernatedData = [slotColumns][]byte{}

	return nil
}

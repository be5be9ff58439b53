package zobrist

import (
	"fmt"

	"lukechampine.com/frand"

	"github.com/domino14/mnk/board"
)

const bignum = 1<<63 - 2

// generate a zobrist hash for an m,n,k-game position.
// https://en.wikipedia.org/wiki/Zobrist_hashing
// The side to move is implied by the number of marks, so it is not hashed.
type Zobrist struct {
	// posTable[idx][0] is the key for P1 on idx, [1] for P2.
	posTable [][2]uint64
}

func (z *Zobrist) Initialize(cellCount int) {
	z.posTable = make([][2]uint64, cellCount)
	for i := range z.posTable {
		z.posTable[i][0] = frand.Uint64n(bignum) + 1
		z.posTable[i][1] = frand.Uint64n(bignum) + 1
	}
}

func (z *Zobrist) CellCount() int {
	return len(z.posTable)
}

// Key returns the key of a symbol on a cell. There is no key for an empty
// cell.
func (z *Zobrist) Key(idx int, state board.CellState) uint64 {
	if state == board.Empty {
		panic(fmt.Sprintf("zobrist: no key for empty cell %d", idx))
	}
	return z.posTable[idx][state.PlayerIndex()]
}

// Hash computes the hash of a board from scratch.
func (z *Zobrist) Hash(b *board.GameBoard) uint64 {
	key := uint64(0)
	for idx := 0; idx < b.NumCells(); idx++ {
		st := b.StateAt(idx)
		if st == board.Empty {
			continue
		}
		key ^= z.Key(idx, st)
	}
	return key
}

// Toggle adds a mark to, or removes it from, a running hash.
func (z *Zobrist) Toggle(key uint64, idx int, state board.CellState) uint64 {
	return key ^ z.Key(idx, state)
}

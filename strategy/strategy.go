// Package strategy tracks, for one player, every line of K cells that can
// still be completed, and where those lines cross.
package strategy

import (
	"errors"
	"fmt"

	"github.com/domino14/mnk/board"
)

// ErrInvariant is wrapped by every bookkeeping failure. These are bugs, not
// recoverable conditions.
var ErrInvariant = errors.New("strategy invariant violated")

func invariant(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", ErrInvariant, fmt.Sprintf(format, args...)))
}

// A Strategy is a window of K cells on one line, owned by one player. Its
// cells are first, first+stride, ..., first+(k-1)*stride.
type Strategy struct {
	owner  board.CellState
	first  int
	stride int
	k      int

	size int
	opp  int
}

func newStrategy(owner board.CellState, first, stride, k int) Strategy {
	if k == 1 {
		stride = 1
	}
	return Strategy{owner: owner, first: first, stride: stride, k: k}
}

func (s *Strategy) Owner() board.CellState { return s.owner }
func (s *Strategy) First() int             { return s.first }
func (s *Strategy) Last() int              { return s.first + (s.k-1)*s.stride }

// Cell returns the i-th cell of the window.
func (s *Strategy) Cell(i int) int { return s.first + i*s.stride }

// Key identifies a strategy by its boundary cells.
func (s *Strategy) Key(cellCount int) int {
	return s.first*cellCount + s.Last()
}

func (s *Strategy) Contains(idx int) bool {
	d := idx - s.first
	if d < 0 {
		return false
	}
	if s.k == 1 {
		return d == 0
	}
	return d%s.stride == 0 && d/s.stride < s.k
}

// Size is the number of owner marks in the window.
func (s *Strategy) Size() int { return s.size }

// Valid means no opponent mark is in the window.
func (s *Strategy) Valid() bool { return s.opp == 0 }

// Winning means one more owner mark completes the line.
func (s *Strategy) Winning() bool { return s.size >= s.k-1 }

// nearComplete means two more owner marks complete the line.
func (s *Strategy) nearComplete() bool { return s.size >= s.k-2 }

// Add accounts for a mark of the given symbol inside the window.
func (s *Strategy) Add(idx int, state board.CellState) {
	switch state {
	case board.Empty:
		invariant("adding free cell %d to %v", idx, s)
	case s.owner:
		s.size++
	default:
		s.opp++
	}
	if s.size > s.k || s.opp > s.k || s.size+s.opp > s.k {
		invariant("more than %d marks in %v", s.k, s)
	}
}

// Remove reverses Add.
func (s *Strategy) Remove(idx int, state board.CellState) {
	switch state {
	case board.Empty:
		invariant("removing free cell %d from %v", idx, s)
	case s.owner:
		s.size--
	default:
		s.opp--
	}
	if s.size < 0 || s.opp < 0 {
		invariant("negative mark count in %v", s)
	}
}

// WinCell returns the first free cell of the window.
func (s *Strategy) WinCell(b *board.GameBoard) int {
	for i := 0; i < s.k; i++ {
		if b.IsFree(s.Cell(i)) {
			return s.Cell(i)
		}
	}
	invariant("no free cell in %v", s)
	return -1
}

func (s *Strategy) String() string {
	return fmt.Sprintf("%v-strategy[%d..%d/%d size=%d opp=%d]",
		s.owner, s.first, s.Last(), s.stride, s.size, s.opp)
}

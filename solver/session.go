package solver

import (
	"fmt"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/movequeue"
	"github.com/domino14/mnk/strategy"
	"github.com/domino14/mnk/zobrist"
)

// A Session owns a board together with everything derived from it: the
// running hash, a strategy set and a move queue per player. All of it
// changes only through Mark and Unmark.
type Session struct {
	b      *board.GameBoard
	z      *zobrist.Zobrist
	hash   uint64
	sets   [2]*strategy.Set
	queues [2]*movequeue.Queue
}

// NewSession starts a session on an empty board with the dimensions of b,
// then replays the marks of b onto it.
func NewSession(b *board.GameBoard) (*Session, error) {
	fresh, err := board.NewBoard(b.M, b.N, b.K)
	if err != nil {
		return nil, err
	}
	s := &Session{b: fresh, z: &zobrist.Zobrist{}}
	s.z.Initialize(fresh.NumCells())
	free := fresh.FreeIndices()
	for p, owner := range []board.CellState{board.P1, board.P2} {
		s.sets[p] = strategy.NewSet(b.M, b.N, b.K, owner)
		s.queues[p] = movequeue.New(fresh.NumCells(), free)
	}
	for _, idx := range b.History() {
		if _, err := s.Mark(idx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetVerify makes both strategy sets check themselves after every change.
func (s *Session) SetVerify(v bool) {
	s.sets[0].SetVerify(v)
	s.sets[1].SetVerify(v)
}

func (s *Session) Board() *board.GameBoard { return s.b }

func (s *Session) Hash() uint64 { return s.hash }

// Set returns the strategy set of a player.
func (s *Session) Set(player board.CellState) *strategy.Set {
	return s.sets[player.PlayerIndex()]
}

// Queue returns the move queue of a player.
func (s *Session) Queue(player board.CellState) *movequeue.Queue {
	return s.queues[player.PlayerIndex()]
}

// Mark places the next mark on idx.
func (s *Session) Mark(idx int) (board.GameState, error) {
	st, err := s.b.MarkIndex(idx)
	if err != nil {
		return st, err
	}
	player := s.b.StateAt(idx)
	s.queues[0].Remove(idx)
	s.queues[1].Remove(idx)
	s.hash = s.z.Toggle(s.hash, idx, player)
	for p := range s.sets {
		s.sets[p].Update(idx, s.b)
		s.retier(p)
	}
	return st, nil
}

// Unmark takes back the last mark.
func (s *Session) Unmark() error {
	idx := s.b.LastMove()
	if idx < 0 {
		return board.ErrNoMoves
	}
	player := s.b.StateAt(idx)
	for p := len(s.sets) - 1; p >= 0; p-- {
		s.sets[p].Undo(idx, s.b)
		s.retier(p)
	}
	s.hash = s.z.Toggle(s.hash, idx, player)
	for p := range s.queues {
		s.queues[p].Restore(idx, s.sets[p].Tier(idx))
	}
	return s.b.Unmark()
}

func (s *Session) retier(p int) {
	q := s.queues[p]
	for _, c := range s.sets[p].Touched() {
		if q.Contains(c) {
			q.Shift(c, s.sets[p].Tier(c))
		}
	}
}

func invariantf(format string, args ...any) {
	panic(fmt.Errorf("%w: %s", strategy.ErrInvariant, fmt.Sprintf(format, args...)))
}

// Verify recomputes the hash, the strategy sets and the queue contents from
// the board and panics on any mismatch.
func (s *Session) Verify() {
	if s.z.CellCount() != s.b.NumCells() {
		invariantf("hasher covers %d cells, board has %d", s.z.CellCount(), s.b.NumCells())
	}
	if h := s.z.Hash(s.b); h != s.hash {
		invariantf("running hash %x, recomputed %x", s.hash, h)
	}
	free := s.b.FreeIndices()
	for p := range s.sets {
		s.sets[p].Verify(s.b)
		q := s.queues[p]
		if q.Len() != len(free) {
			invariantf("queue %d holds %d cells, board has %d free", p, q.Len(), len(free))
		}
		for _, c := range free {
			if !q.Contains(c) {
				invariantf("free cell %d missing from queue %d", c, p)
			}
			if q.Tier(c) != s.sets[p].Tier(c) {
				invariantf("cell %d in queue %d at tier %d, want %d", c, p, q.Tier(c), s.sets[p].Tier(c))
			}
		}
	}
}

package strategy

import (
	"fmt"
	"slices"

	"github.com/domino14/mnk/board"
)

type ChangeKind uint8

const (
	// Created: a strategy was generated and appended to the live list.
	Created ChangeKind = iota + 1
	// Invalidated: a strategy was removed from the live list.
	Invalidated
)

func (k ChangeKind) String() string {
	if k == Created {
		return "created"
	}
	return "invalidated"
}

// A Change is one entry of a move's change log. Pos is the strategy's
// position in the live list before the move, for Invalidated changes.
type Change struct {
	Kind     ChangeKind
	Strategy int
	Pos      int
}

// Set is the collection of live strategies of one player. It is updated
// on every mark and reverted on every unmark, in strict LIFO order.
type Set struct {
	owner     board.CellState
	m, n, k   int
	cellCount int

	// arena holds every strategy ever created and not undone. Created
	// strategies are always at its tail.
	arena []Strategy
	// live lists arena indices of the valid strategies.
	live  []int
	byKey map[int]int

	winCount int
	inter    *IntersectionSet

	changes     []Change
	frameStarts []int

	touched []int
	stamp   []uint32
	epoch   uint32

	verify bool
}

func NewSet(m, n, k int, owner board.CellState) *Set {
	cellCount := m * n
	return &Set{
		owner:       owner,
		m:           m,
		n:           n,
		k:           k,
		cellCount:   cellCount,
		arena:       make([]Strategy, 0, 4*cellCount),
		live:        make([]int, 0, 4*cellCount),
		byKey:       make(map[int]int, 4*cellCount),
		inter:       NewIntersectionSet(cellCount, k),
		changes:     make([]Change, 0, cellCount),
		frameStarts: make([]int, 0, cellCount),
		touched:     make([]int, 0, cellCount),
		stamp:       make([]uint32, cellCount),
	}
}

// SetVerify turns on a full Verify after every Update and Undo.
func (s *Set) SetVerify(v bool) {
	s.verify = v
}

func (s *Set) Owner() board.CellState { return s.owner }

// Size is the number of live strategies.
func (s *Set) Size() int { return len(s.live) }

// Winning returns the number of live strategies one mark from completion.
func (s *Set) Winning() int { return s.winCount }

func (s *Set) Intersections() *IntersectionSet { return s.inter }

// Tier is the move queue tier of a free cell for this set's owner.
func (s *Set) Tier(idx int) int { return s.inter.Get(idx).Tier() }

// Touched returns the cells whose intersection changed during the last
// Update or Undo.
func (s *Set) Touched() []int { return s.touched }

// Strategies returns the live strategies in list order.
func (s *Set) Strategies() []Strategy {
	out := make([]Strategy, len(s.live))
	for i, si := range s.live {
		out[i] = s.arena[si]
	}
	return out
}

// WinningCell returns the free cell that completes the first live winning
// strategy.
func (s *Set) WinningCell(b *board.GameBoard) int {
	for _, si := range s.live {
		st := &s.arena[si]
		if st.Winning() {
			return st.WinCell(b)
		}
	}
	invariant("%v set has no winning strategy", s.owner)
	return -1
}

// WinningCells returns the distinct cells completing any live winning
// strategy, ascending.
func (s *Set) WinningCells(b *board.GameBoard) []int {
	if s.winCount == 0 {
		return nil
	}
	var cells []int
	for _, si := range s.live {
		st := &s.arena[si]
		if st.Winning() {
			cells = append(cells, st.WinCell(b))
		}
	}
	slices.Sort(cells)
	return slices.Compact(cells)
}

// Threats counts the distinct cells completing a live winning strategy,
// stopping at 2.
func (s *Set) Threats(b *board.GameBoard) int {
	if s.winCount == 0 {
		return 0
	}
	first := -1
	for _, si := range s.live {
		st := &s.arena[si]
		if !st.Winning() {
			continue
		}
		c := st.WinCell(b)
		if first < 0 {
			first = c
		} else if c != first {
			return 2
		}
	}
	if first < 0 {
		return 0
	}
	return 1
}

func (s *Set) resetTouched() {
	s.touched = s.touched[:0]
	s.epoch++
	if s.epoch == 0 {
		clear(s.stamp)
		s.epoch = 1
	}
}

func (s *Set) touch(st *Strategy) {
	for i := 0; i < st.k; i++ {
		idx := st.Cell(i)
		if s.stamp[idx] != s.epoch {
			s.stamp[idx] = s.epoch
			s.touched = append(s.touched, idx)
		}
	}
}

// Update accounts for the mark just placed on idx.
func (s *Set) Update(idx int, b *board.GameBoard) {
	state := b.StateAt(idx)
	if state == board.Empty {
		invariant("update on free cell %d", idx)
	}
	s.resetTouched()
	s.frameStarts = append(s.frameStarts, len(s.changes))

	if s.inter.Get(idx).Cardinality > 0 {
		s.scanMark(idx, state)
	}
	if state == s.owner {
		s.generate(idx, b)
	}
	s.checkWinCount()
	if s.verify {
		s.Verify(b)
	}
}

func (s *Set) scanMark(idx int, state board.CellState) {
	w := 0
	for pos, si := range s.live {
		st := &s.arena[si]
		if !st.Contains(idx) {
			s.live[w] = si
			w++
			continue
		}
		wasWinning := st.Winning()
		if state == s.owner {
			s.inter.unregister(st)
			st.Add(idx, state)
			s.inter.register(st)
			s.touch(st)
			if !wasWinning && st.Winning() {
				s.winCount++
			}
			s.live[w] = si
			w++
			continue
		}
		st.Add(idx, state)
		s.inter.unregister(st)
		s.touch(st)
		delete(s.byKey, st.Key(s.cellCount))
		if wasWinning {
			s.winCount--
		}
		s.changes = append(s.changes, Change{Kind: Invalidated, Strategy: si, Pos: pos})
	}
	s.live = s.live[:w]
}

// generate adds the windows having idx as an endpoint, one per compass
// direction, that are on the board, hold no opponent mark and are not
// already live.
func (s *Set) generate(idx int, b *board.GameBoard) {
	row, col := idx/s.n, idx%s.n
	for _, d := range board.Directions {
		dr, dc := d.Step()
		for _, sign := range [2]int{1, -1} {
			er, ec := row+sign*dr*(s.k-1), col+sign*dc*(s.k-1)
			if !b.InBounds(er, ec) {
				continue
			}
			first := min(idx, b.Index(er, ec))
			st := newStrategy(s.owner, first, dr*s.n+dc, s.k)
			key := st.Key(s.cellCount)
			if _, ok := s.byKey[key]; ok {
				continue
			}
			valid := true
			for i := 0; i < s.k && valid; i++ {
				c := st.Cell(i)
				if cs := b.StateAt(c); cs != board.Empty {
					st.Add(c, cs)
					valid = st.Valid()
				}
			}
			if !valid {
				continue
			}
			si := len(s.arena)
			s.arena = append(s.arena, st)
			s.live = append(s.live, si)
			s.byKey[key] = si
			s.inter.register(&s.arena[si])
			s.touch(&s.arena[si])
			if st.Winning() {
				s.winCount++
			}
			s.changes = append(s.changes, Change{Kind: Created, Strategy: si})
		}
	}
}

// Undo reverts the Update for idx. idx must still be marked.
func (s *Set) Undo(idx int, b *board.GameBoard) {
	state := b.StateAt(idx)
	if state == board.Empty {
		invariant("undo on free cell %d", idx)
	}
	if len(s.frameStarts) == 0 {
		invariant("undo of %d with an empty change log", idx)
	}
	s.resetTouched()
	start := s.frameStarts[len(s.frameStarts)-1]
	frame := s.changes[start:]

	for i := len(frame) - 1; i >= 0; i-- {
		ch := frame[i]
		if ch.Kind != Created {
			continue
		}
		last := len(s.live) - 1
		if last < 0 || s.live[last] != ch.Strategy || ch.Strategy != len(s.arena)-1 {
			invariant("created strategy %d is not at the tail", ch.Strategy)
		}
		st := &s.arena[ch.Strategy]
		s.inter.unregister(st)
		s.touch(st)
		delete(s.byKey, st.Key(s.cellCount))
		if st.Winning() {
			s.winCount--
		}
		s.live = s.live[:last]
		s.arena = s.arena[:ch.Strategy]
	}

	for _, ch := range frame {
		if ch.Kind != Invalidated {
			continue
		}
		st := &s.arena[ch.Strategy]
		s.live = slices.Insert(s.live, ch.Pos, ch.Strategy)
		s.byKey[st.Key(s.cellCount)] = ch.Strategy
		s.inter.register(st)
		s.touch(st)
		if st.Winning() {
			s.winCount++
		}
	}

	if s.inter.Get(idx).Cardinality > 0 {
		for _, si := range s.live {
			st := &s.arena[si]
			if !st.Contains(idx) {
				continue
			}
			wasWinning := st.Winning()
			if state == s.owner {
				s.inter.unregister(st)
				st.Remove(idx, state)
				s.inter.register(st)
				s.touch(st)
			} else {
				st.Remove(idx, state)
			}
			if !st.Valid() {
				invariant("undo of %d left %v invalid", idx, st)
			}
			if wasWinning && !st.Winning() {
				s.winCount--
			} else if !wasWinning && st.Winning() {
				s.winCount++
			}
		}
	}

	s.changes = s.changes[:start]
	s.frameStarts = s.frameStarts[:len(s.frameStarts)-1]
	s.checkWinCount()
	if s.verify {
		s.verifyExcluding(b, idx)
	}
}

func (s *Set) checkWinCount() {
	if s.winCount < 0 || s.winCount > len(s.live) {
		invariant("%v win count %d outside [0, %d]", s.owner, s.winCount, len(s.live))
	}
}

// Verify recomputes everything derived from the live strategies and the
// board, and panics on any mismatch with the incremental state.
func (s *Set) Verify(b *board.GameBoard) {
	s.verifyExcluding(b, -1)
}

// verifyExcluding treats cell skip as free.
func (s *Set) verifyExcluding(b *board.GameBoard, skip int) {
	winCount := 0
	seen := make(map[int]bool, len(s.live))
	for _, si := range s.live {
		st := &s.arena[si]
		key := st.Key(s.cellCount)
		if seen[key] {
			invariant("duplicate live %v", st)
		}
		seen[key] = true
		if s.byKey[key] != si {
			invariant("key index does not point at %v", st)
		}
		size, opp := 0, 0
		for i := 0; i < st.k; i++ {
			c := st.Cell(i)
			if c == skip {
				continue
			}
			switch b.StateAt(c) {
			case board.Empty:
			case s.owner:
				size++
			default:
				opp++
			}
		}
		if size != st.size || opp != st.opp || opp != 0 {
			invariant("%v disagrees with board (size=%d opp=%d)", st, size, opp)
		}
		if st.Winning() {
			winCount++
		}
	}
	if len(s.byKey) != len(s.live) {
		invariant("key index holds %d strategies, live list %d", len(s.byKey), len(s.live))
	}
	if winCount != s.winCount {
		invariant("win count %d, recomputed %d", s.winCount, winCount)
	}
	if !GenerateFrom(s).Equal(s.inter) {
		invariant("%v intersections disagree with a rebuild", s.owner)
	}
}

// Snapshot is a comparable copy of a set's observable state.
type Snapshot struct {
	Keys        [][2]int
	WinCount    int
	Changes     []Change
	FrameStarts []int
}

func (s *Set) Snapshot() Snapshot {
	snap := Snapshot{
		Keys:        make([][2]int, len(s.live)),
		WinCount:    s.winCount,
		Changes:     make([]Change, len(s.changes)),
		FrameStarts: make([]int, len(s.frameStarts)),
	}
	for i, si := range s.live {
		st := &s.arena[si]
		snap.Keys[i] = [2]int{st.First(), st.Last()}
	}
	copy(snap.Changes, s.changes)
	copy(snap.FrameStarts, s.frameStarts)
	return snap
}

func (s *Set) String() string {
	return fmt.Sprintf("%v set: %d live, %d winning", s.owner, len(s.live), s.winCount)
}

package strategy

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/domino14/mnk/board"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

type fixture struct {
	b    *board.GameBoard
	sets [2]*Set
}

func newFixture(t *testing.T, m, n, k int) *fixture {
	t.Helper()
	b, err := board.NewBoard(m, n, k)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{b: b}
	f.sets[0] = NewSet(m, n, k, board.P1)
	f.sets[1] = NewSet(m, n, k, board.P2)
	f.sets[0].SetVerify(true)
	f.sets[1].SetVerify(true)
	return f
}

func (f *fixture) mark(t *testing.T, row, col int) {
	t.Helper()
	f.markIndex(t, f.b.Index(row, col))
}

func (f *fixture) markIndex(t *testing.T, idx int) {
	t.Helper()
	if _, err := f.b.MarkIndex(idx); err != nil {
		t.Fatal(err)
	}
	f.sets[0].Update(idx, f.b)
	f.sets[1].Update(idx, f.b)
}

func (f *fixture) unmark(t *testing.T) {
	t.Helper()
	idx := f.b.LastMove()
	f.sets[1].Undo(idx, f.b)
	f.sets[0].Undo(idx, f.b)
	if err := f.b.Unmark(); err != nil {
		t.Fatal(err)
	}
}

func TestGenerateFromCorner(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	// row, column and diagonal
	is.Equal(f.sets[0].Size(), 3)
	is.Equal(f.sets[0].Winning(), 0)
	is.Equal(f.sets[1].Size(), 0)
}

func TestCenterIsNeverAnEndpoint(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 1, 1)
	is.Equal(f.sets[0].Size(), 0)
}

func TestOpponentInvalidates(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	f.mark(t, 1, 0)
	// the first column is gone.
	is.Equal(f.sets[0].Size(), 2)
	// O's own lines from (1,0): only the row.
	is.Equal(f.sets[1].Size(), 1)
	f.unmark(t)
	is.Equal(f.sets[0].Size(), 3)
	is.Equal(f.sets[1].Size(), 0)
}

func TestForcedWin(t *testing.T) {
	is := is.New(t)
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	f.mark(t, 1, 0)
	f.mark(t, 0, 1)

	x := f.sets[0]
	is.True(x.Winning() >= 1)
	cell := x.WinningCell(f.b)
	is.Equal(cell, f.b.Index(0, 2))
	is.Equal(x.WinningCells(f.b), []int{f.b.Index(0, 2)})

	// (1,1) crosses the diagonal and the middle column, one X each.
	center := x.Intersections().Get(f.b.Index(1, 1))
	is.True(center.Winning(f.b))
	is.Equal(x.Tier(f.b.Index(1, 1)), 0)

	// O to move; after O passes through (2,2), X still wins at (0,2).
	f.mark(t, 2, 2)
	st, err := f.b.MarkIndex(x.WinningCell(f.b))
	is.NoErr(err)
	is.Equal(st, board.WinP1)
}

func TestWinningCellPanicsWithoutThreat(t *testing.T) {
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	expectInvariant(t, func() { f.sets[0].WinningCell(f.b) })
}

func TestUndoOnFreeCellPanics(t *testing.T) {
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	expectInvariant(t, func() { f.sets[0].Undo(4, f.b) })
}

func checkBound(is *is.I, s *Set) {
	is.True(s.Winning() >= 0)
	is.True(s.Winning() <= s.Size())
}

// Every update followed by its undo leaves both sets exactly as they
// were, including the change log.
func TestConservationRandomGames(t *testing.T) {
	is := is.New(t)
	dims := [][3]int{{3, 3, 3}, {4, 4, 3}, {5, 6, 4}, {7, 7, 5}, {2, 5, 2}, {1, 6, 3}, {3, 3, 1}}
	for _, d := range dims {
		for trial := 0; trial < 20; trial++ {
			f := newFixture(t, d[0], d[1], d[2])
			for f.b.GameState() == board.Open {
				before := [2]Snapshot{f.sets[0].Snapshot(), f.sets[1].Snapshot()}
				free := f.b.FreeIndices()
				idx := free[frand.Intn(len(free))]

				f.markIndex(t, idx)
				checkBound(is, f.sets[0])
				checkBound(is, f.sets[1])
				f.unmark(t)
				is.Equal(f.sets[0].Snapshot(), before[0])
				is.Equal(f.sets[1].Snapshot(), before[1])

				f.markIndex(t, idx)
			}
			for f.b.NumMarks() > 0 {
				f.unmark(t)
				checkBound(is, f.sets[0])
				checkBound(is, f.sets[1])
			}
			is.Equal(f.sets[0].Size(), 0)
			is.Equal(f.sets[1].Size(), 0)
			is.Equal(len(f.sets[0].arena), 0)
		}
	}
}

// A player one mark from a line always has a winning strategy.
func TestWinningMatchesBoard(t *testing.T) {
	is := is.New(t)
	for trial := 0; trial < 200; trial++ {
		f := newFixture(t, 4, 5, 3)
		for f.b.GameState() == board.Open {
			free := f.b.FreeIndices()
			f.markIndex(t, free[frand.Intn(len(free))])
			if f.b.GameState() != board.Open {
				break
			}
			for p, s := range f.sets {
				player := board.P1
				if p == 1 {
					player = board.P2
				}
				wins := 0
				for _, c := range f.b.FreeIndices() {
					if completes(f.b, c, player) {
						wins++
					}
				}
				is.Equal(wins > 0, s.Winning() > 0)
				for _, c := range s.WinningCells(f.b) {
					is.True(completes(f.b, c, player))
				}
			}
		}
	}
}

// completes reports whether player marking idx would make a line of K.
func completes(b *board.GameBoard, idx int, player board.CellState) bool {
	row, col := idx/b.N, idx%b.N
	for _, d := range board.Directions {
		dr, dc := d.Step()
		n := 1
		for _, sign := range []int{1, -1} {
			for r, c := row+sign*dr, col+sign*dc; b.InBounds(r, c) && b.CellState(r, c) == player; r, c = r+sign*dr, c+sign*dc {
				n++
			}
		}
		if n >= b.K {
			return true
		}
	}
	return false
}

func TestVerifyCatchesCorruption(t *testing.T) {
	f := newFixture(t, 3, 3, 3)
	f.mark(t, 0, 0)
	f.sets[0].winCount++
	expectInvariant(t, func() { f.sets[0].Verify(f.b) })
}

package strategy

import "github.com/domino14/mnk/board"

// An Intersection counts the live strategies of one player through a cell.
type Intersection struct {
	Cell int
	// Cardinality is the number of strategies through the cell.
	Cardinality int
	// NearComplete counts those with at least K-2 owner marks.
	NearComplete int
	// Completing counts those with at least K-1 owner marks.
	Completing int
}

func (in Intersection) Valid(b *board.GameBoard) bool {
	return b.IsFree(in.Cell) && in.Cardinality >= 2
}

// Winning is a double threat: marking the cell completes two lines up to
// one move from a win.
func (in Intersection) Winning(b *board.GameBoard) bool {
	return in.Valid(b) && in.NearComplete >= 2
}

// Merge combines two views of the same cell.
func (in *Intersection) Merge(o Intersection) {
	if in.Cell != o.Cell {
		invariant("merging intersection %d into %d", o.Cell, in.Cell)
	}
	in.Cardinality += o.Cardinality
	in.NearComplete += o.NearComplete
	in.Completing += o.Completing
}

// Tier is the move queue tier this intersection puts its cell in, assuming
// the cell is free.
func (in Intersection) Tier() int {
	switch {
	case in.Completing > 0 || in.NearComplete >= 2:
		return 0
	case in.Cardinality > 0:
		return 1
	}
	return 2
}

// IntersectionSet holds one Intersection per cell.
type IntersectionSet struct {
	k     int
	cells []Intersection
}

func NewIntersectionSet(cellCount, k int) *IntersectionSet {
	xs := &IntersectionSet{k: k, cells: make([]Intersection, cellCount)}
	for i := range xs.cells {
		xs.cells[i].Cell = i
	}
	return xs
}

func (xs *IntersectionSet) Get(idx int) Intersection {
	return xs.cells[idx]
}

// view is the contribution of one strategy to each of its cells.
func view(s *Strategy, idx int) Intersection {
	in := Intersection{Cell: idx, Cardinality: 1}
	if s.nearComplete() {
		in.NearComplete = 1
	}
	if s.Winning() {
		in.Completing = 1
	}
	return in
}

func (xs *IntersectionSet) register(s *Strategy) {
	for i := 0; i < s.k; i++ {
		idx := s.Cell(i)
		xs.cells[idx].Merge(view(s, idx))
	}
}

func (xs *IntersectionSet) unregister(s *Strategy) {
	for i := 0; i < s.k; i++ {
		idx := s.Cell(i)
		v := view(s, idx)
		in := &xs.cells[idx]
		in.Cardinality -= v.Cardinality
		in.NearComplete -= v.NearComplete
		in.Completing -= v.Completing
		if in.Cardinality < 0 || in.NearComplete < 0 || in.Completing < 0 {
			invariant("negative intersection count at cell %d", idx)
		}
	}
}

// GenerateFrom rebuilds intersections from scratch out of the live
// strategies of a set.
func GenerateFrom(set *Set) *IntersectionSet {
	xs := NewIntersectionSet(len(set.inter.cells), set.k)
	for _, si := range set.live {
		s := &set.arena[si]
		for i := 0; i < s.k; i++ {
			idx := s.Cell(i)
			xs.cells[idx].Merge(view(s, idx))
		}
	}
	return xs
}

func (xs *IntersectionSet) Equal(o *IntersectionSet) bool {
	if len(xs.cells) != len(o.cells) {
		return false
	}
	for i := range xs.cells {
		if xs.cells[i] != o.cells[i] {
			return false
		}
	}
	return true
}

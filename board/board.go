// Package board implements the M×N grid for an m,n,k-game: cell storage,
// move legality, turn tracking and win/draw detection.
package board

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash"
)

type BoardDirection uint8

func (bd BoardDirection) String() string {
	switch bd {
	case HorizontalDirection:
		return "(horizontal)"
	case VerticalDirection:
		return "(vertical)"
	case DiagonalDirection:
		return "(diagonal)"
	case AntiDiagonalDirection:
		return "(anti-diagonal)"
	}
	return "none"
}

const (
	HorizontalDirection BoardDirection = iota
	VerticalDirection
	DiagonalDirection
	AntiDiagonalDirection
)

// Step returns the (row, col) delta of a single step along the direction.
func (bd BoardDirection) Step() (int, int) {
	switch bd {
	case HorizontalDirection:
		return 0, 1
	case VerticalDirection:
		return 1, 0
	case DiagonalDirection:
		return 1, 1
	}
	return 1, -1
}

var Directions = [4]BoardDirection{HorizontalDirection, VerticalDirection,
	DiagonalDirection, AntiDiagonalDirection}

var (
	ErrInvalidDimensions = errors.New("invalid board dimensions")
	ErrOutOfBounds       = errors.New("cell is out of bounds")
	ErrCellOccupied      = errors.New("cell is already marked")
	ErrGameOver          = errors.New("game is already over")
	ErrNoMoves           = errors.New("no moves to unmark")
)

// GameBoard is an M×N board on which K symbols in a row win.
type GameBoard struct {
	M, N, K int

	cells   []CellState
	history []int
	states  []GameState
}

func NewBoard(m, n, k int) (*GameBoard, error) {
	if m < 1 || n < 1 || k < 1 || k > max(m, n) {
		return nil, fmt.Errorf("%w: m=%d n=%d k=%d", ErrInvalidDimensions, m, n, k)
	}
	return &GameBoard{
		M:       m,
		N:       n,
		K:       k,
		cells:   make([]CellState, m*n),
		history: make([]int, 0, m*n),
		states:  make([]GameState, 0, m*n),
	}, nil
}

func (g *GameBoard) Copy() *GameBoard {
	c := &GameBoard{M: g.M, N: g.N, K: g.K}
	c.cells = append([]CellState(nil), g.cells...)
	c.history = append(make([]int, 0, g.M*g.N), g.history...)
	c.states = append(make([]GameState, 0, g.M*g.N), g.states...)
	return c
}

// NumCells is M*N.
func (g *GameBoard) NumCells() int {
	return len(g.cells)
}

func (g *GameBoard) Index(row, col int) int {
	return row*g.N + col
}

func (g *GameBoard) InBounds(row, col int) bool {
	return row >= 0 && row < g.M && col >= 0 && col < g.N
}

// CellAt returns the cell with the given index, including its state.
func (g *GameBoard) CellAt(idx int) Cell {
	return Cell{Row: idx / g.N, Col: idx % g.N, State: g.cells[idx]}
}

func (g *GameBoard) CellState(row, col int) CellState {
	return g.cells[g.Index(row, col)]
}

func (g *GameBoard) StateAt(idx int) CellState {
	return g.cells[idx]
}

func (g *GameBoard) IsFree(idx int) bool {
	return g.cells[idx] == Empty
}

// FreeCells returns the free cells in row-major order.
func (g *GameBoard) FreeCells() []Cell {
	free := make([]Cell, 0, len(g.cells)-len(g.history))
	for idx, st := range g.cells {
		if st == Empty {
			free = append(free, g.CellAt(idx))
		}
	}
	return free
}

// FreeIndices is FreeCells, as cell indices.
func (g *GameBoard) FreeIndices() []int {
	free := make([]int, 0, len(g.cells)-len(g.history))
	for idx, st := range g.cells {
		if st == Empty {
			free = append(free, idx)
		}
	}
	return free
}

func (g *GameBoard) NumMarks() int {
	return len(g.history)
}

// History returns the marked cell indices, oldest first.
func (g *GameBoard) History() []int {
	return g.history
}

// LastMove returns the index of the last marked cell, or -1.
func (g *GameBoard) LastMove() int {
	if len(g.history) == 0 {
		return -1
	}
	return g.history[len(g.history)-1]
}

// PlayerOnTurn returns the symbol of the player who marks next.
func (g *GameBoard) PlayerOnTurn() CellState {
	if len(g.history)%2 == 0 {
		return P1
	}
	return P2
}

func (g *GameBoard) GameState() GameState {
	if len(g.states) == 0 {
		return Open
	}
	return g.states[len(g.states)-1]
}

// Mark places the symbol of the player on turn at (row, col).
func (g *GameBoard) Mark(row, col int) (GameState, error) {
	if !g.InBounds(row, col) {
		return g.GameState(), fmt.Errorf("%w: (%d,%d)", ErrOutOfBounds, row, col)
	}
	return g.MarkIndex(g.Index(row, col))
}

func (g *GameBoard) MarkIndex(idx int) (GameState, error) {
	if idx < 0 || idx >= len(g.cells) {
		return g.GameState(), fmt.Errorf("%w: index %d", ErrOutOfBounds, idx)
	}
	if g.GameState() != Open {
		return g.GameState(), ErrGameOver
	}
	if g.cells[idx] != Empty {
		return g.GameState(), fmt.Errorf("%w: %v", ErrCellOccupied, g.CellAt(idx))
	}
	player := g.PlayerOnTurn()
	g.cells[idx] = player
	g.history = append(g.history, idx)

	state := Open
	if g.completesLine(idx, player) {
		state = WinFor(player)
	} else if len(g.history) == len(g.cells) {
		state = Draw
	}
	g.states = append(g.states, state)
	return state, nil
}

// Unmark removes the last mark.
func (g *GameBoard) Unmark() error {
	if len(g.history) == 0 {
		return ErrNoMoves
	}
	idx := g.history[len(g.history)-1]
	g.history = g.history[:len(g.history)-1]
	g.states = g.states[:len(g.states)-1]
	g.cells[idx] = Empty
	return nil
}

func (g *GameBoard) completesLine(idx int, player CellState) bool {
	row, col := idx/g.N, idx%g.N
	for _, d := range Directions {
		dr, dc := d.Step()
		n := 1 + g.run(row, col, dr, dc, player) + g.run(row, col, -dr, -dc, player)
		if n >= g.K {
			return true
		}
	}
	return false
}

// run counts consecutive cells owned by player starting one step away from
// (row, col).
func (g *GameBoard) run(row, col, dr, dc int, player CellState) int {
	n := 0
	for r, c := row+dr, col+dc; g.InBounds(r, c) && g.CellState(r, c) == player; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// Key is a fingerprint of the cell contents.
func (g *GameBoard) Key() uint64 {
	buf := make([]byte, len(g.cells))
	for i, st := range g.cells {
		buf[i] = byte(st)
	}
	return xxhash.Sum64(buf)
}

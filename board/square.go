package board

import "fmt"

// CellState is the symbol occupying a cell.
type CellState uint8

const (
	Empty CellState = iota
	P1
	P2
)

func (cs CellState) String() string {
	switch cs {
	case P1:
		return "X"
	case P2:
		return "O"
	}
	return "."
}

// Opponent returns the other player's symbol. It is meaningless for Empty.
func (cs CellState) Opponent() CellState {
	if cs == P1 {
		return P2
	}
	return P1
}

// PlayerIndex maps P1 to 0 and P2 to 1.
func (cs CellState) PlayerIndex() int {
	if cs == P2 {
		return 1
	}
	return 0
}

// GameState is the state of a game after a move.
type GameState uint8

const (
	Open GameState = iota
	WinP1
	WinP2
	Draw
)

func (gs GameState) String() string {
	switch gs {
	case WinP1:
		return "win-p1"
	case WinP2:
		return "win-p2"
	case Draw:
		return "draw"
	}
	return "open"
}

// WinFor returns the game state in which the given player has won.
func WinFor(cs CellState) GameState {
	if cs == P2 {
		return WinP2
	}
	return WinP1
}

// A Cell is a board position along with whatever occupies it.
type Cell struct {
	Row   int
	Col   int
	State CellState
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// SamePosition ignores the cell state.
func (c Cell) SamePosition(o Cell) bool {
	return c.Row == o.Row && c.Col == o.Col
}

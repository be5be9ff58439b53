package turnplayer

import (
	"context"
	"time"

	"github.com/domino14/mnk/board"
)

// TurnPlayer encapsulates all the functions needed to play a single turn
// of an m,n,k-game.
type TurnPlayer interface {
	// SelectMove records the opponent's last move, if any, then picks,
	// plays and returns a move within the budget.
	SelectMove(ctx context.Context, lastOpponentMove *board.Cell, budget time.Duration) (board.Cell, error)
	Play(c board.Cell) (board.GameState, error)
	Undo() error
	Board() *board.GameBoard
	IsPlaying() bool
}

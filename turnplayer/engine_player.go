package turnplayer

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/solver"
)

// EnginePlayer plays one game with a search session that follows every
// move made on its board.
type EnginePlayer struct {
	solver *solver.Solver
}

func NewPlayer(m, n, k int, cfg *config.Config) (*EnginePlayer, error) {
	b, err := board.NewBoard(m, n, k)
	if err != nil {
		return nil, err
	}
	return NewPlayerFromBoard(b, cfg)
}

// NewPlayerFromBoard starts from a position already on b. b itself is not
// used after this.
func NewPlayerFromBoard(b *board.GameBoard, cfg *config.Config) (*EnginePlayer, error) {
	sess, err := solver.NewSession(b)
	if err != nil {
		return nil, err
	}
	return &EnginePlayer{solver: solver.NewSolver(sess, cfg)}, nil
}

func (p *EnginePlayer) SelectMove(ctx context.Context, lastOpponentMove *board.Cell,
	budget time.Duration) (board.Cell, error) {

	if lastOpponentMove != nil {
		if _, err := p.Play(*lastOpponentMove); err != nil {
			return board.Cell{}, err
		}
	}
	c, err := p.solver.Solve(ctx, budget)
	if err != nil {
		return board.Cell{}, err
	}
	log.Debug().Str("cell", c.String()).Uint64("nodes", p.solver.Nodes()).
		Int("depth", p.solver.Depth()).Str("state", p.solver.State().String()).
		Msg("selected-move")
	if _, err := p.Play(c); err != nil {
		return board.Cell{}, err
	}
	return p.Board().CellAt(p.Board().Index(c.Row, c.Col)), nil
}

// Play marks a move chosen elsewhere.
func (p *EnginePlayer) Play(c board.Cell) (board.GameState, error) {
	if p.solver.Session() == nil {
		return board.Open, solver.ErrNoSession
	}
	b := p.Board()
	if !b.InBounds(c.Row, c.Col) {
		return b.GameState(), board.ErrOutOfBounds
	}
	return p.solver.Session().Mark(b.Index(c.Row, c.Col))
}

func (p *EnginePlayer) Undo() error {
	if p.solver.Session() == nil {
		return solver.ErrNoSession
	}
	return p.solver.Session().Unmark()
}

// Board is nil once a failed search has dropped the session.
func (p *EnginePlayer) Board() *board.GameBoard {
	if p.solver.Session() == nil {
		return nil
	}
	return p.solver.Session().Board()
}

func (p *EnginePlayer) IsPlaying() bool {
	b := p.Board()
	return b != nil && b.GameState() == board.Open
}

func (p *EnginePlayer) Solver() *solver.Solver {
	return p.solver
}

var _ TurnPlayer = (*EnginePlayer)(nil)

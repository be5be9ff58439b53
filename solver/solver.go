// Package solver picks moves for an m,n,k-game with an iteratively
// deepened alpha-beta search over a Session.
package solver

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"lukechampine.com/frand"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/strategy"
)

// thanks Wikipedia:
/*
function negamax(node, depth, α, β, color) is
    if depth = 0 or node is a terminal node then
        return color × the heuristic value of node

    childNodes := generateMoves(node)
    childNodes := orderMoves(childNodes)
    value := −∞
    foreach child in childNodes do
        value := max(value, −negamax(child, depth − 1, −β, −α, −color))
        α := max(α, value)
        if α ≥ β then
            break (* cut-off *)
    return value
(* Initial call for Player A's root node *)
negamax(rootNode, depth, −∞, +∞, 1)
**/

const HugeNumber = float32(1e7)

var (
	ErrNoMoves   = errors.New("no free cells")
	ErrGameOver  = errors.New("game is over")
	ErrNoSession = errors.New("solver has no session")
)

type SearchState uint8

const (
	Idle SearchState = iota
	Searching
	TimedOut
	Exhausted
	Done
)

func (s SearchState) String() string {
	switch s {
	case Searching:
		return "searching"
	case TimedOut:
		return "timed-out"
	case Exhausted:
		return "exhausted"
	case Done:
		return "done"
	}
	return "idle"
}

type rootMove struct {
	idx   int
	value float32
}

type Solver struct {
	session *Session
	ttable  *TranspositionTable
	token   stopToken

	turnTimeFraction     float64
	ttableMemoryFraction float64
	maxDepth             int

	iterativeDeepeningOptim bool
	transpositionTableOptim bool

	state     SearchState
	nodes     atomic.Uint64
	bestValue float32
	depth     int
	pv        PVLine
}

func NewSolver(sess *Session, cfg *config.Config) *Solver {
	s := &Solver{
		session:                 sess,
		ttable:                  &TranspositionTable{},
		turnTimeFraction:        cfg.TurnTimeFraction,
		ttableMemoryFraction:    cfg.TTableMemoryFraction,
		maxDepth:                cfg.MaxSearchDepth,
		iterativeDeepeningOptim: true,
		transpositionTableOptim: true,
	}
	sess.SetVerify(cfg.VerifyInvariants)
	return s
}

func (s *Solver) Session() *Session { return s.session }

func (s *Solver) State() SearchState { return s.state }

// Nodes is the number of nodes searched by the last Solve.
func (s *Solver) Nodes() uint64 { return s.nodes.Load() }

// BestValue is the value of the returned move for the side to move, from
// the deepest completed pass of the last Solve.
func (s *Solver) BestValue() float32 { return s.bestValue }

// Depth is the deepest completed pass of the last Solve.
func (s *Solver) Depth() int { return s.depth }

// PrincipalVariation is the expected line of play from the deepest
// completed pass of the last Solve. It is empty when no search ran.
func (s *Solver) PrincipalVariation() PVLine { return s.pv }

func (s *Solver) SetIterativeDeepening(id bool) {
	s.iterativeDeepeningOptim = id
}

func (s *Solver) SetTranspositionTableOptim(tt bool) {
	s.transpositionTableOptim = tt
}

func (s *Solver) SetMaxDepth(d int) {
	s.maxDepth = d
}

func (s *Solver) setState(st SearchState) {
	log.Debug().Str("from", s.state.String()).Str("to", st.String()).Msg("search-state")
	s.state = st
}

// Solve picks a cell for the side to move. The board is left as it was.
// Running out of time is not an error; the best move of the deepest
// completed pass is returned. After an error wrapping strategy.ErrInvariant
// the solver drops its session and every later call returns ErrNoSession.
func (s *Solver) Solve(ctx context.Context, budget time.Duration) (cell board.Cell, err error) {
	if s.session == nil {
		return board.Cell{}, ErrNoSession
	}
	s.state = Idle
	s.nodes.Store(0)
	s.bestValue = 0
	s.depth = 0
	s.pv = PVLine{}
	tstart := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = asInvariantError(r)
			s.state = Done
			// The search may have left marks on the session; it cannot be
			// used again.
			s.session = nil
			log.Error().Err(err).Msg("search-aborted")
		}
	}()

	b := s.session.Board()
	free := b.FreeIndices()
	switch {
	case len(free) == 0:
		return board.Cell{}, ErrNoMoves
	case b.GameState() != board.Open:
		return board.Cell{}, ErrGameOver
	case len(free) == 1:
		return b.CellAt(free[0]), nil
	case b.NumMarks() == 0:
		return b.CellAt(b.Index(b.M/2, b.N/2)), nil
	}

	if idx, ok := s.forcedMove(); ok {
		log.Debug().Str("cell", b.CellAt(idx).String()).Msg("forced-move")
		return b.CellAt(idx), nil
	}

	if s.transpositionTableOptim {
		s.ttable.Reset(s.ttableMemoryFraction)
	}
	disarm := s.token.arm(ctx, time.Duration(float64(budget)*s.turnTimeFraction))
	defer disarm()

	best := s.iterativelyDeepen(free)
	if best < 0 {
		best = free[frand.Intn(len(free))]
		log.Debug().Int("cell", best).Msg("no-completed-pass-random-move")
	}
	s.setState(Done)

	log.Debug().
		Uint64("nodes", s.nodes.Load()).
		Int("depth", s.depth).
		Float32("value", s.bestValue).
		Str("pv", s.pv.NLBString()).
		Uint64("ttable-created", s.ttable.created.Load()).
		Uint64("ttable-lookups", s.ttable.lookups.Load()).
		Uint64("ttable-hits", s.ttable.hits.Load()).
		Uint64("ttable-t2collisions", s.ttable.t2collisions.Load()).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("solve-returning")

	return b.CellAt(best), nil
}

// forcedMove wins on the spot if the side to move can, and otherwise blocks
// an opponent win.
func (s *Solver) forcedMove() (int, bool) {
	b := s.session.Board()
	stm := b.PlayerOnTurn()
	if own := s.session.Set(stm); own.Winning() >= 1 {
		return own.WinningCell(b), true
	}
	if theirs := s.session.Set(stm.Opponent()); theirs.Winning() >= 1 {
		return theirs.WinningCell(b), true
	}
	return 0, false
}

func (s *Solver) iterativelyDeepen(free []int) int {
	s.setState(Searching)
	plies := len(free)
	if s.maxDepth > 0 && s.maxDepth < plies {
		plies = s.maxDepth
	}
	rootMoves := lo.Map(s.orderedChildren(), func(idx int, _ int) rootMove {
		return rootMove{idx: idx}
	})
	start := 1
	if !s.iterativeDeepeningOptim {
		start = plies
	}

	best := -1
	for p := start; p <= plies; p++ {
		log.Debug().Int("plies", p).Msg("deepening-iteratively")
		idx, val, pv, ok := s.searchRoot(rootMoves, p)
		if !ok {
			s.setState(TimedOut)
			break
		}
		best, s.bestValue, s.depth, s.pv = idx, val, p, pv
		log.Debug().Float32("value", val).Int("ply", p).Int("cell", idx).Msg("best-val")
		// Sort top layer of moves by value for the next time around.
		slices.SortStableFunc(rootMoves, func(a, b rootMove) int {
			switch {
			case a.value > b.value:
				return -1
			case a.value < b.value:
				return 1
			}
			return 0
		})
		if val >= 1 || p >= len(free) {
			break
		}
	}
	if s.state == Searching {
		s.setState(Exhausted)
	}
	return best
}

// searchRoot searches every root move to the given depth. ok is false if
// the pass was cut short.
func (s *Solver) searchRoot(rootMoves []rootMove, depth int) (int, float32, PVLine, bool) {
	α := -HugeNumber
	β := HugeNumber
	bestValue := -HugeNumber
	best := -1
	var pv PVLine
	for i := range rootMoves {
		if s.token.Stopped() {
			return -1, 0, PVLine{}, false
		}
		c := s.moveCell(rootMoves[i].idx)
		var childPV PVLine
		s.mark(rootMoves[i].idx)
		value := -s.alphabeta(depth-1, -β, -α, &childPV)
		s.unmark()
		if s.token.Stopped() {
			return -1, 0, PVLine{}, false
		}
		rootMoves[i].value = value
		if value > bestValue {
			bestValue = value
			best = rootMoves[i].idx
			pv.Update(c, childPV, value)
		}
		α = max(α, bestValue)
	}
	return best, bestValue, pv, true
}

func (s *Solver) alphabeta(depth int, α, β float32, pv *PVLine) float32 {
	s.nodes.Add(1)
	if s.token.Stopped() {
		return evaluate(s.session)
	}
	alphaOrig := α
	nodeKey := s.session.Hash()

	if s.transpositionTableOptim {
		ttEntry := s.ttable.lookup(nodeKey)
		if ttEntry.valid() && int(ttEntry.depth) >= depth {
			score := ttEntry.score
			switch ttEntry.flag {
			case TTExact:
				return score
			case TTLower:
				α = max(α, score)
			case TTUpper:
				β = min(β, score)
			}
			if α >= β {
				return score
			}
		}
	}

	b := s.session.Board()
	if depth == 0 || b.GameState() != board.Open {
		return evaluate(s.session)
	}

	bestValue := -HugeNumber
	for _, child := range s.orderedChildren() {
		if s.token.Stopped() {
			break
		}
		var childPV PVLine
		s.mark(child)
		value := -s.alphabeta(depth-1, -β, -α, &childPV)
		s.unmark()
		if value > bestValue {
			bestValue = value
			pv.Update(s.moveCell(child), childPV, value)
		}
		α = max(α, bestValue)
		if bestValue >= β {
			break // beta cut-off
		}
	}
	if s.token.Stopped() {
		// Values from an interrupted subtree are not stored, and the pass
		// they belong to is thrown away.
		if bestValue == -HugeNumber {
			return evaluate(s.session)
		}
		return bestValue
	}

	if s.transpositionTableOptim {
		var flag uint8
		if bestValue <= alphaOrig {
			flag = TTUpper
		} else if bestValue >= β {
			flag = TTLower
		} else {
			flag = TTExact
		}
		s.ttable.store(nodeKey, TableEntry{
			score: bestValue,
			depth: uint16(depth),
			flag:  flag,
		})
	}
	return bestValue
}

// orderedChildren lists the moves of the side to move, most threatening
// first.
func (s *Solver) orderedChildren() []int {
	b := s.session.Board()
	moves := s.session.Queue(b.PlayerOnTurn()).Moves()
	if len(moves) == 0 {
		return b.FreeIndices()
	}
	return moves
}

// moveCell is the cell idx with the symbol of the side to move on it.
func (s *Solver) moveCell(idx int) board.Cell {
	b := s.session.Board()
	c := b.CellAt(idx)
	c.State = b.PlayerOnTurn()
	return c
}

func (s *Solver) mark(idx int) {
	if _, err := s.session.Mark(idx); err != nil {
		panic(fmt.Errorf("%w: search mark: %w", strategy.ErrInvariant, err))
	}
}

func (s *Solver) unmark() {
	if err := s.session.Unmark(); err != nil {
		panic(fmt.Errorf("%w: search unmark: %w", strategy.ErrInvariant, err))
	}
}

func asInvariantError(r any) error {
	if err, ok := r.(error); ok {
		if errors.Is(err, strategy.ErrInvariant) {
			return err
		}
		return fmt.Errorf("%w: %w", strategy.ErrInvariant, err)
	}
	return fmt.Errorf("%w: %v", strategy.ErrInvariant, r)
}

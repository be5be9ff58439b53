// Package automatic plays m,n,k-games engine against engine, records them
// and summarizes the results.
package automatic

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/turnplayer"
)

// DefaultRandomOpeningPlies random moves start every game, so that two
// deterministic engines do not replay the same game.
const DefaultRandomOpeningPlies = 2

// GameRecord is one finished game.
type GameRecord struct {
	ID          int      `yaml:"id"`
	M           int      `yaml:"m"`
	N           int      `yaml:"n"`
	K           int      `yaml:"k"`
	Seed        string   `yaml:"seed"`
	Moves       [][2]int `yaml:"moves,flow"`
	Result      string   `yaml:"result"`
	Plies       int      `yaml:"plies"`
	Fingerprint string   `yaml:"fingerprint"`
}

// GameRunner is the master struct here for the automatic game logic.
type GameRunner struct {
	config    *config.Config
	logchan   chan string
	m, n, k   int
	budgets   [2]time.Duration
	aiplayers [2]*turnplayer.EnginePlayer

	randomOpeningPlies int
}

// NewGameRunner just instantiates and initializes a game runner with the
// board size and turn times from the config.
func NewGameRunner(logchan chan string, cfg *config.Config) *GameRunner {
	r := &GameRunner{
		config:             cfg,
		logchan:            logchan,
		m:                  cfg.Rows,
		n:                  cfg.Cols,
		k:                  cfg.K,
		randomOpeningPlies: DefaultRandomOpeningPlies,
	}
	p2 := cfg.TurnTime
	if cfg.TurnTimeP2 > 0 {
		p2 = cfg.TurnTimeP2
	}
	r.SetBudgets(cfg.TurnTime, p2)
	return r
}

func (r *GameRunner) SetBudgets(p1, p2 time.Duration) {
	r.budgets = [2]time.Duration{p1, p2}
}

func (r *GameRunner) SetRandomOpeningPlies(plies int) {
	r.randomOpeningPlies = plies
}

// Init sets up two fresh engine players.
func (r *GameRunner) Init() error {
	for i := range r.aiplayers {
		p, err := turnplayer.NewPlayer(r.m, r.n, r.k, r.config)
		if err != nil {
			return err
		}
		r.aiplayers[i] = p
	}
	return nil
}

// openingMoves picks the random opening for a seed. It stops short of a
// finished game.
func (r *GameRunner) openingMoves(seed [32]byte) ([]int, error) {
	rng := frand.NewCustom(seed[:], 1024, 12)
	b, err := board.NewBoard(r.m, r.n, r.k)
	if err != nil {
		return nil, err
	}
	var moves []int
	for len(moves) < r.randomOpeningPlies {
		free := b.FreeIndices()
		if len(free) <= 1 {
			break
		}
		idx := free[rng.Intn(len(free))]
		st, err := b.MarkIndex(idx)
		if err != nil {
			return nil, err
		}
		if st != board.Open {
			break
		}
		moves = append(moves, idx)
	}
	return moves, nil
}

// PlayGame plays one game to the end.
func (r *GameRunner) PlayGame(ctx context.Context, id int, seed [32]byte) (*GameRecord, error) {
	if err := r.Init(); err != nil {
		return nil, err
	}
	opening, err := r.openingMoves(seed)
	if err != nil {
		return nil, err
	}
	for _, idx := range opening {
		for _, p := range r.aiplayers {
			if _, err := p.Play(p.Board().CellAt(idx)); err != nil {
				return nil, err
			}
		}
	}

	var last *board.Cell
	onTurn := len(opening) % 2
	final := r.aiplayers[onTurn].Board()
	for final.GameState() == board.Open {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		// The player on turn has not yet seen last; SelectMove plays it first.
		c, err := r.aiplayers[onTurn].SelectMove(ctx, last, r.budgets[onTurn])
		if err != nil {
			return nil, err
		}
		final = r.aiplayers[onTurn].Board()
		if r.logchan != nil {
			s := r.aiplayers[onTurn].Solver()
			r.logchan <- fmt.Sprintf("%v,%v,%v,%v,%v,%v,%v\n",
				id, final.NumMarks(), c.State, c.Row, c.Col, s.Nodes(), s.Depth())
		}
		last = &c
		onTurn = 1 - onTurn
	}

	rec := &GameRecord{
		ID:          id,
		M:           r.m,
		N:           r.n,
		K:           r.k,
		Seed:        encodeSeed(seed),
		Result:      final.GameState().String(),
		Plies:       final.NumMarks(),
		Fingerprint: strconv.FormatUint(final.Key(), 16),
	}
	for _, idx := range final.History() {
		c := final.CellAt(idx)
		rec.Moves = append(rec.Moves, [2]int{c.Row, c.Col})
	}
	log.Debug().Int("game", id).Str("result", rec.Result).Int("plies", rec.Plies).
		Msg("game-over")
	return rec, nil
}

package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/automatic"
	"github.com/domino14/mnk/bot"
	"github.com/domino14/mnk/solver"
	"github.com/domino14/mnk/strategy"
	"github.com/domino14/mnk/turnplayer"
)

const defaultAutoplayFile = "/tmp/mnk_autoplay.yaml"

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

func (sc *ShellController) boardText() string {
	return sc.player.Board().ToDisplayText(sc.colorize)
}

func (sc *ShellController) newGame(cmd *shellcmd) (*Response, error) {
	opts := *sc.options
	if len(cmd.args) > 0 {
		if err := opts.SetDimensions(cmd.args); err != nil {
			return nil, err
		}
	}
	p, err := turnplayer.NewPlayer(opts.M, opts.N, opts.K, sc.config)
	if err != nil {
		return nil, err
	}
	sc.player = p
	*sc.options = opts
	log.Debug().Str("board", sc.options.String()).Msg("new-game")
	return msg(sc.boardText()), nil
}

func (sc *ShellController) play(cmd *shellcmd) (*Response, error) {
	if sc.player == nil {
		return nil, errNoGame
	}
	c, err := turnplayer.ParseCell(cmd.args)
	if err != nil {
		return nil, err
	}
	if _, err := sc.player.Play(c); err != nil {
		return nil, err
	}
	return msg(sc.boardText()), nil
}

func parseSeconds(arg string) (time.Duration, error) {
	secs, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, err
	}
	if secs <= 0 {
		return 0, errors.New("the time budget must be positive")
	}
	return time.Duration(secs * float64(time.Second)), nil
}

func (sc *ShellController) budget(cmd *shellcmd) (time.Duration, error) {
	if len(cmd.args) == 0 {
		return sc.config.TurnTime, nil
	}
	return parseSeconds(cmd.args[0])
}

// engineMove asks the engine for a move and plays it. The only argument is
// an optional budget in seconds; -depth caps the search depth for this move.
func (sc *ShellController) engineMove(cmd *shellcmd) (*Response, error) {
	if sc.player == nil {
		return nil, errNoGame
	}
	budget, err := sc.budget(cmd)
	if err != nil {
		return nil, err
	}
	if d, ok := cmd.options["depth"]; ok {
		depth, err := strconv.Atoi(d)
		if err != nil {
			return nil, err
		}
		if depth <= 0 {
			return nil, errors.New("the depth must be positive")
		}
		sc.player.Solver().SetMaxDepth(depth)
		defer sc.player.Solver().SetMaxDepth(sc.config.MaxSearchDepth)
	}
	c, err := sc.player.SelectMove(context.Background(), nil, budget)
	if errors.Is(err, strategy.ErrInvariant) || errors.Is(err, solver.ErrNoSession) {
		log.Error().Err(err).Msg("engine-state-broken")
		sc.player = nil
		return nil, fmt.Errorf("%w; start a new game with the `new` command", err)
	}
	if err != nil {
		return nil, err
	}
	s := sc.player.Solver()
	out := fmt.Sprintf("%v plays %v (value %.2f, depth %d, %d nodes)\n",
		c.State, c, s.BestValue(), s.Depth(), s.Nodes())
	if pv := s.PrincipalVariation(); len(pv.Moves) > 0 {
		out += pv.String()
	}
	return msg(out + sc.boardText()), nil
}

// askBot sends the position to a bot over NATS and plays its reply.
func (sc *ShellController) askBot(cmd *shellcmd) (*Response, error) {
	if sc.player == nil {
		return nil, errNoGame
	}
	budget, err := sc.budget(cmd)
	if err != nil {
		return nil, err
	}
	if sc.requester == nil {
		nc, err := nats.Connect(sc.config.NatsURL)
		if err != nil {
			return nil, err
		}
		sc.nc = nc
		sc.requester = bot.NewClient(nc, sc.config.BotSubject)
	}
	c, err := sc.requester.RequestMove(sc.player.Board(), budget)
	if err != nil {
		return nil, err
	}
	if _, err := sc.player.Play(c); err != nil {
		return nil, err
	}
	return msg(fmt.Sprintf("bot plays %v\n", c) + sc.boardText()), nil
}

func (sc *ShellController) undo(cmd *shellcmd) (*Response, error) {
	if sc.player == nil {
		return nil, errNoGame
	}
	if err := sc.player.Undo(); err != nil {
		return nil, err
	}
	return msg(sc.boardText()), nil
}

func (sc *ShellController) show(cmd *shellcmd) (*Response, error) {
	if sc.player == nil {
		return nil, errNoGame
	}
	return msg(sc.boardText()), nil
}

// autoplay plays engine against engine on the current board size.
// Options: -threads n, -file records.yaml, -seeds seedfile, -time2 seconds
// for the second player, -depth n.
func (sc *ShellController) autoplay(cmd *shellcmd) (*Response, error) {
	if len(cmd.args) != 1 {
		return nil, errors.New("usage: autoplay <games> [-threads n] [-file path] [-seeds path] [-time2 seconds] [-depth n]")
	}
	numGames, err := strconv.Atoi(cmd.args[0])
	if err != nil {
		return nil, err
	}
	threads := 1
	if t, ok := cmd.options["threads"]; ok {
		if threads, err = strconv.Atoi(t); err != nil {
			return nil, err
		}
	}
	filename := defaultAutoplayFile
	if f, ok := cmd.options["file"]; ok {
		filename = f
	}
	cfg := *sc.config
	cfg.Rows, cfg.Cols, cfg.K = sc.options.M, sc.options.N, sc.options.K
	if t, ok := cmd.options["time2"]; ok {
		if cfg.TurnTimeP2, err = parseSeconds(t); err != nil {
			return nil, err
		}
	}
	if d, ok := cmd.options["depth"]; ok {
		if cfg.MaxSearchDepth, err = strconv.Atoi(d); err != nil {
			return nil, err
		}
	}
	var seeds [][32]byte
	if f, ok := cmd.options["seeds"]; ok {
		if seeds, err = automatic.LoadSeeds(f); err != nil {
			return nil, err
		}
		if len(seeds) < numGames {
			return nil, fmt.Errorf("seed file has %d seeds, need %d", len(seeds), numGames)
		}
		seeds = seeds[:numGames]
	} else {
		seeds = automatic.GenerateSeeds(numGames)
	}

	out, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	summary, err := automatic.PlayGamesWithSeeds(context.Background(), &cfg, seeds,
		threads, out, nil)
	if err != nil {
		return nil, err
	}
	return msg(summary.String() + "Records written to " + filename), nil
}

func (sc *ShellController) help(cmd *shellcmd) (*Response, error) {
	if cmd.args == nil {
		return usage("standard")
	}
	return usageTopic(cmd.args[0])
}

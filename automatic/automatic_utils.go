package automatic

// Computer vs computer games, and summaries of their records.

import (
	"context"
	"errors"
	"expvar"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
)

var (
	CVCCounter *expvar.Int
	IsPlaying  *expvar.Int
)

var ErrAlreadyPlaying = errors.New("games are already being played, please wait till complete")

// playing admits one PlayGamesWithSeeds at a time; IsPlaying only reports it.
var playing atomic.Bool

func init() {
	CVCCounter = expvar.NewInt("cvcCounter")
	IsPlaying = expvar.NewInt("isPlaying")
}

const moveLogHeader = "gameID,ply,symbol,row,col,nodes,depth\n"

// Summary aggregates a batch of game records.
type Summary struct {
	Games          int     `yaml:"games"`
	P1Wins         int     `yaml:"p1-wins"`
	P2Wins         int     `yaml:"p2-wins"`
	Draws          int     `yaml:"draws"`
	MeanPlies      float64 `yaml:"mean-plies"`
	StdDevPlies    float64 `yaml:"stddev-plies"`
	DistinctEnding int     `yaml:"distinct-endings"`
}

func (s *Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Games played: %d\n", s.Games)
	fmt.Fprintf(&sb, "X wins: %d  O wins: %d  Draws: %d\n", s.P1Wins, s.P2Wins, s.Draws)
	fmt.Fprintf(&sb, "Plies: %.2f ± %.2f\n", s.MeanPlies, s.StdDevPlies)
	fmt.Fprintf(&sb, "Distinct final positions: %d\n", s.DistinctEnding)
	return sb.String()
}

// Summarize computes a Summary over records.
func Summarize(records []*GameRecord) *Summary {
	s := &Summary{Games: len(records)}
	if len(records) == 0 {
		return s
	}
	s.P1Wins = lo.CountBy(records, func(r *GameRecord) bool {
		return r.Result == board.WinP1.String()
	})
	s.P2Wins = lo.CountBy(records, func(r *GameRecord) bool {
		return r.Result == board.WinP2.String()
	})
	s.Draws = lo.CountBy(records, func(r *GameRecord) bool {
		return r.Result == board.Draw.String()
	})
	plies := lo.Map(records, func(r *GameRecord, _ int) float64 {
		return float64(r.Plies)
	})
	s.MeanPlies, s.StdDevPlies = stat.MeanStdDev(plies, nil)
	if len(records) == 1 {
		// A single sample has no spread.
		s.StdDevPlies = 0
	}
	s.DistinctEnding = len(lo.UniqBy(records, func(r *GameRecord) string {
		return r.Fingerprint
	}))
	return s
}

// PlayGames plays numGames games between two engines, threads at a time,
// writes the records to out as a YAML stream, and summarizes them.
func PlayGames(ctx context.Context, cfg *config.Config, numGames, threads int,
	out io.Writer) (*Summary, error) {
	return PlayGamesWithSeeds(ctx, cfg, GenerateSeeds(numGames), threads, out, nil)
}

// PlayGamesWithSeeds plays one game per seed. If movelog is not nil, every
// move is written to it as a CSV line.
func PlayGamesWithSeeds(ctx context.Context, cfg *config.Config, seeds [][32]byte,
	threads int, out io.Writer, movelog io.Writer) (*Summary, error) {

	if !playing.CompareAndSwap(false, true) {
		return nil, ErrAlreadyPlaying
	}
	defer playing.Store(false)
	if threads < 1 {
		threads = 1
	}
	log.Debug().Int("games", len(seeds)).Int("threads", threads).Msg("starting-games")
	CVCCounter.Set(0)
	IsPlaying.Add(1)
	defer IsPlaying.Add(-1)

	var logChan chan string
	loggerDone := make(chan struct{})
	if movelog != nil {
		logChan = make(chan string, 100)
		go func() {
			defer close(loggerDone)
			io.WriteString(movelog, moveLogHeader)
			for msg := range logChan {
				io.WriteString(movelog, msg)
			}
		}()
	} else {
		close(loggerDone)
	}

	records := make([]*GameRecord, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			r := NewGameRunner(logChan, cfg)
			rec, err := r.PlayGame(gctx, i+1, seed)
			if err != nil {
				return fmt.Errorf("game %d: %w", i+1, err)
			}
			records[i] = rec
			CVCCounter.Add(1)
			if n := CVCCounter.Value(); n%100 == 0 {
				log.Info().Int64("games", n).Msg("games-finished")
			}
			return nil
		})
	}
	err := g.Wait()
	if logChan != nil {
		close(logChan)
	}
	<-loggerDone
	if err != nil {
		return nil, err
	}

	enc := yaml.NewEncoder(out)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, err
		}
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	log.Info().Int("games", len(records)).Msg("all-games-finished")
	return Summarize(records), nil
}

// ReadRecords decodes a YAML stream written by PlayGames.
func ReadRecords(r io.Reader) ([]*GameRecord, error) {
	dec := yaml.NewDecoder(r)
	var records []*GameRecord
	for {
		rec := &GameRecord{}
		err := dec.Decode(rec)
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
}

package automatic

import (
	"bytes"
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.TTableMemoryFraction = 0
	cfg.TurnTime = 5 * time.Second
	return cfg
}

func replay(is *is.I, rec *GameRecord) *board.GameBoard {
	b, err := board.NewBoard(rec.M, rec.N, rec.K)
	is.NoErr(err)
	for _, mv := range rec.Moves {
		_, err := b.Mark(mv[0], mv[1])
		is.NoErr(err)
	}
	return b
}

func TestOpeningMovesDeterministic(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(nil, testConfig())
	seed := GenerateSeeds(1)[0]

	m1, err := r.openingMoves(seed)
	is.NoErr(err)
	m2, err := r.openingMoves(seed)
	is.NoErr(err)
	is.Equal(m1, m2)
	is.Equal(len(m1), DefaultRandomOpeningPlies)
	is.True(m1[0] != m1[1])

	r.SetRandomOpeningPlies(0)
	m3, err := r.openingMoves(seed)
	is.NoErr(err)
	is.Equal(len(m3), 0)
}

func TestBudgetsFromConfig(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	r := NewGameRunner(nil, cfg)
	is.Equal(r.budgets, [2]time.Duration{5 * time.Second, 5 * time.Second})

	cfg.TurnTimeP2 = 300 * time.Millisecond
	r = NewGameRunner(nil, cfg)
	is.Equal(r.budgets, [2]time.Duration{5 * time.Second, 300 * time.Millisecond})
}

func TestPlayGameUnevenBudgets(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.TurnTimeP2 = 100 * time.Millisecond
	r := NewGameRunner(nil, cfg)
	rec, err := r.PlayGame(context.Background(), 1, GenerateSeeds(1)[0])
	is.NoErr(err)
	is.Equal(rec.Plies, len(rec.Moves))
	is.True(rec.Result != board.Open.String())
}

func TestPlayGame(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(nil, testConfig())
	rec, err := r.PlayGame(context.Background(), 7, GenerateSeeds(1)[0])
	is.NoErr(err)

	is.Equal(rec.ID, 7)
	is.Equal(rec.Plies, len(rec.Moves))
	is.True(rec.Plies >= 5 && rec.Plies <= 9)
	is.True(rec.Result != board.Open.String())

	b := replay(is, rec)
	is.Equal(b.GameState().String(), rec.Result)
	is.Equal(strconv.FormatUint(b.Key(), 16), rec.Fingerprint)
}

func TestPlayGameWithoutOpeningIsADraw(t *testing.T) {
	is := is.New(t)
	r := NewGameRunner(nil, testConfig())
	r.SetRandomOpeningPlies(0)
	rec, err := r.PlayGame(context.Background(), 1, [32]byte{})
	is.NoErr(err)
	is.Equal(rec.Result, board.Draw.String())
	is.Equal(rec.Plies, 9)
	// the engine opens in the center
	is.Equal(rec.Moves[0], [2]int{1, 1})
}

func TestPlayGameCancelled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewGameRunner(nil, testConfig())
	_, err := r.PlayGame(ctx, 1, [32]byte{})
	is.True(err != nil)
}

func TestPlayGames(t *testing.T) {
	is := is.New(t)
	var out bytes.Buffer
	sum, err := PlayGames(context.Background(), testConfig(), 6, 3, &out)
	is.NoErr(err)
	is.Equal(sum.Games, 6)
	is.Equal(sum.P1Wins+sum.P2Wins+sum.Draws, 6)
	is.True(sum.MeanPlies >= 5 && sum.MeanPlies <= 9)
	is.True(sum.DistinctEnding >= 1 && sum.DistinctEnding <= 6)
	is.Equal(IsPlaying.Value(), int64(0))
	is.Equal(CVCCounter.Value(), int64(6))

	records, err := ReadRecords(&out)
	is.NoErr(err)
	is.Equal(len(records), 6)
	for i, rec := range records {
		is.Equal(rec.ID, i+1)
		b := replay(is, rec)
		is.Equal(b.GameState().String(), rec.Result)
	}
	is.Equal(*Summarize(records), *sum)
}

func TestPlayGamesOneAtATime(t *testing.T) {
	is := is.New(t)
	playing.Store(true)
	_, err := PlayGames(context.Background(), testConfig(), 1, 1, &bytes.Buffer{})
	is.Equal(err, ErrAlreadyPlaying)
	is.Equal(IsPlaying.Value(), int64(0))
	playing.Store(false)

	_, err = PlayGames(context.Background(), testConfig(), 1, 1, &bytes.Buffer{})
	is.NoErr(err)
	is.True(!playing.Load())
}

func TestMoveLog(t *testing.T) {
	is := is.New(t)
	var out, movelog bytes.Buffer
	seeds := GenerateSeeds(2)
	_, err := PlayGamesWithSeeds(context.Background(), testConfig(), seeds, 2, &out, &movelog)
	is.NoErr(err)

	records, err := ReadRecords(&out)
	is.NoErr(err)
	engineMoves := 0
	for _, rec := range records {
		engineMoves += rec.Plies - DefaultRandomOpeningPlies
	}
	lines := bytes.Split(bytes.TrimSpace(movelog.Bytes()), []byte("\n"))
	is.Equal(string(lines[0])+"\n", moveLogHeader)
	is.Equal(len(lines)-1, engineMoves)
}

func TestSummarize(t *testing.T) {
	is := is.New(t)
	is.Equal(*Summarize(nil), Summary{})

	records := []*GameRecord{
		{Result: "win-p1", Plies: 5, Fingerprint: "a"},
		{Result: "draw", Plies: 9, Fingerprint: "b"},
		{Result: "draw", Plies: 9, Fingerprint: "b"},
		{Result: "win-p2", Plies: 7, Fingerprint: "c"},
	}
	s := Summarize(records)
	is.Equal(s.Games, 4)
	is.Equal(s.P1Wins, 1)
	is.Equal(s.P2Wins, 1)
	is.Equal(s.Draws, 2)
	is.Equal(s.MeanPlies, 7.5)
	is.Equal(s.DistinctEnding, 3)
	is.True(s.StdDevPlies > 1.9 && s.StdDevPlies < 2.0)

	one := Summarize(records[:1])
	is.Equal(one.StdDevPlies, 0.0)
}

func TestSeedsRoundTrip(t *testing.T) {
	is := is.New(t)
	path := t.TempDir() + "/seeds.txt"
	seeds := GenerateSeeds(3)
	is.NoErr(SaveSeeds(seeds, path))
	loaded, err := LoadSeeds(path)
	is.NoErr(err)
	is.Equal(loaded, seeds)

	is.NoErr(os.WriteFile(path, []byte("# comment\n\nnot-a-seed\n"), 0o644))
	_, err = LoadSeeds(path)
	is.True(err != nil)
}

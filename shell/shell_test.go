package shell

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/bot"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/strategy"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func testController() *ShellController {
	cfg := config.DefaultConfig()
	cfg.TTableMemoryFraction = 0
	cfg.TurnTime = 2 * time.Second
	return newController(cfg)
}

func TestExtractFields(t *testing.T) {
	is := is.New(t)
	type testdata struct {
		line   string
		expCmd *shellcmd
		expErr error
	}
	cases := []testdata{
		{"", nil, errNoData},
		{"autoplay -file /path/to/log.txt",
			&shellcmd{"autoplay", nil, map[string]string{"file": "/path/to/log.txt"}},
			nil},
		{"play 1 2",
			&shellcmd{"play", []string{"1", "2"}, map[string]string{}},
			nil},
		{"autoplay 10 -threads 4 -file 'my games.yaml' ",
			&shellcmd{"autoplay",
				[]string{"10"},
				map[string]string{"threads": "4", "file": "my games.yaml"}},
			nil,
		},
		{"autoplay 10 -threads",
			nil, errWrongOptionSyntax},
	}
	for _, t := range cases {
		cmd, err := extractFields(t.line)
		is.Equal(cmd, t.expCmd)
		is.Equal(err, t.expErr)
	}
}

func TestGameCommands(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)

	_, err := sc.standardModeSwitch("play 1 1", sig)
	is.Equal(err, errNoGame)

	resp, err := sc.standardModeSwitch("new 3 3 3", sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "to move: X"))

	_, err = sc.standardModeSwitch("play 0,0", sig)
	is.NoErr(err)
	is.Equal(sc.player.Board().NumMarks(), 1)

	resp, err = sc.standardModeSwitch("go 1", sig)
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "O plays (1,1)"))
	is.Equal(sc.player.Board().NumMarks(), 2)

	_, err = sc.standardModeSwitch("play 1 1", sig)
	is.True(err != nil)

	_, err = sc.standardModeSwitch("undo", sig)
	is.NoErr(err)
	is.Equal(sc.player.Board().NumMarks(), 1)

	resp, err = sc.standardModeSwitch("show", sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "[X]"))

	_, err = sc.standardModeSwitch("go -1", sig)
	is.True(err != nil)
}

func TestGoWithDepthCap(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)

	_, err := sc.standardModeSwitch("new 4 4 4", sig)
	is.NoErr(err)
	_, err = sc.standardModeSwitch("play 0 0", sig)
	is.NoErr(err)

	resp, err := sc.standardModeSwitch("go 1 -depth 1", sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "depth 1,"))
	is.Equal(sc.player.Board().NumMarks(), 2)

	// The cap only applies to the one move.
	resp, err = sc.standardModeSwitch("go 1", sig)
	is.NoErr(err)
	is.True(!strings.Contains(resp.message, "depth 1,"))

	_, err = sc.standardModeSwitch("go 1 -depth 0", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("go 1 -depth x", sig)
	is.True(err != nil)
}

func TestBrokenEngineDropsGame(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)

	_, err := sc.standardModeSwitch("new 4 4 4", sig)
	is.NoErr(err)
	_, err = sc.standardModeSwitch("play 0 0", sig)
	is.NoErr(err)
	// A mark the engine never saw.
	_, err = sc.player.Board().Mark(3, 3)
	is.NoErr(err)

	_, err = sc.standardModeSwitch("go 1", sig)
	is.True(errors.Is(err, strategy.ErrInvariant))
	is.True(sc.player == nil)

	_, err = sc.standardModeSwitch("show", sig)
	is.Equal(err, errNoGame)
	_, err = sc.standardModeSwitch("go 1", sig)
	is.Equal(err, errNoGame)
}

// localBot answers requests in-process, the way a bot behind NATS would.
type localBot struct {
	b       *bot.Bot
	budgets []time.Duration
}

func (lb *localBot) RequestMove(gb *board.GameBoard, budget time.Duration) (board.Cell, error) {
	lb.budgets = append(lb.budgets, budget)
	data, err := bot.MakeRequest(gb, budget)
	if err != nil {
		return board.Cell{}, err
	}
	return bot.ParseResponse(lb.b.HandleRequest(data))
}

func TestAskBot(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)
	lb := &localBot{b: bot.NewBot(sc.config)}
	sc.requester = lb

	_, err := sc.standardModeSwitch("ask", sig)
	is.Equal(err, errNoGame)

	_, err = sc.standardModeSwitch("new 3 3 3", sig)
	is.NoErr(err)
	_, err = sc.standardModeSwitch("play 0,0", sig)
	is.NoErr(err)

	resp, err := sc.standardModeSwitch("ask 1", sig)
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "bot plays (1,1)"))
	is.Equal(sc.player.Board().NumMarks(), 2)

	_, err = sc.standardModeSwitch("ask", sig)
	is.NoErr(err)
	is.Equal(sc.player.Board().NumMarks(), 3)
	is.Equal(lb.budgets, []time.Duration{time.Second, sc.config.TurnTime})

	_, err = sc.standardModeSwitch("ask 0", sig)
	is.True(err != nil)
}

func TestNewGameDimensions(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)

	_, err := sc.standardModeSwitch("new 4 7 4", sig)
	is.NoErr(err)
	is.Equal(sc.player.Board().NumCells(), 28)

	_, err = sc.standardModeSwitch("new 3 3 4", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("new 3 3", sig)
	is.True(err != nil)
}

func TestHelpAndUnknown(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)

	resp, err := sc.standardModeSwitch("help", sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "autoplay <games>"))

	resp, err = sc.standardModeSwitch("help go", sig)
	is.NoErr(err)
	is.True(strings.HasPrefix(resp.message, "go [seconds]"))

	resp, err = sc.standardModeSwitch("help nothing", sig)
	is.NoErr(err)
	is.Equal(resp.message, "There is no help text for the topic nothing")

	_, err = sc.standardModeSwitch("fly", sig)
	is.True(err != nil)

	_, err = sc.standardModeSwitch("exit", sig)
	is.Equal(err, errQuit)
	is.Equal(len(sig), 1)
}

func TestAutoplay(t *testing.T) {
	is := is.New(t)
	sc := testController()
	sig := make(chan os.Signal, 1)
	path := filepath.Join(t.TempDir(), "games.yaml")

	resp, err := sc.standardModeSwitch("autoplay 2 -threads 2 -file "+path, sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "Games played: 2"))

	dat, err := os.ReadFile(path)
	is.NoErr(err)
	is.Equal(strings.Count(string(dat), "fingerprint:"), 2)

	resp, err = sc.standardModeSwitch("autoplay 1 -time2 0.2 -depth 3 -file "+path, sig)
	is.NoErr(err)
	is.True(strings.Contains(resp.message, "Games played: 1"))

	_, err = sc.standardModeSwitch("autoplay", sig)
	is.True(err != nil)
	_, err = sc.standardModeSwitch("autoplay 1 -time2 0 -file "+path, sig)
	is.True(err != nil)
}

package shell

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/chzyer/readline"
	"github.com/kballard/go-shellquote"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/turnplayer"
)

var (
	errNoData            = errors.New("no data in this line")
	errWrongOptionSyntax = errors.New("wrong format; all options need arguments")
	errNoGame            = errors.New("please start a game first with the `new` command")
	errQuit              = errors.New("sending quit signal")
)

type shellcmd struct {
	cmd     string
	args    []string
	options map[string]string
}

// moveRequester asks a remote bot for a move.
type moveRequester interface {
	RequestMove(b *board.GameBoard, budget time.Duration) (board.Cell, error)
}

type ShellController struct {
	l      *readline.Instance
	config *config.Config

	options  *turnplayer.GameOptions
	player   *turnplayer.EnginePlayer
	colorize bool

	// NATS connection, opened by the first ask
	nc        *nats.Conn
	requester moveRequester
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("new"),
	readline.PcItem("play"),
	readline.PcItem("go"),
	readline.PcItem("ask"),
	readline.PcItem("undo"),
	readline.PcItem("show"),
	readline.PcItem("autoplay"),
	readline.PcItem("help",
		readline.PcItem("new"),
		readline.PcItem("play"),
		readline.PcItem("go"),
		readline.PcItem("ask"),
		readline.PcItem("autoplay"),
	),
	readline.PcItem("exit"),
)

func NewShellController(cfg *config.Config) *ShellController {
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mmnk>\033[0m ",
		HistoryFile:     cfg.HistoryFile,
		AutoComplete:    completer,
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc := newController(cfg)
	sc.l = l
	sc.colorize = true
	return sc
}

func newController(cfg *config.Config) *ShellController {
	opts := &turnplayer.GameOptions{}
	opts.SetDefaults(cfg)
	return &ShellController{config: cfg, options: opts}
}

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.l.Stderr())
}

func (sc *ShellController) showError(err error) {
	sc.showMessage("Error: " + err.Error())
}

// extractFields splits a line into a command, its arguments and its
// -option value pairs.
func extractFields(line string) (*shellcmd, error) {
	fields, err := shellquote.Split(line)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errNoData
	}
	cmd := fields[0]
	var args []string
	options := map[string]string{}
	for idx := 1; idx < len(fields); idx++ {
		if strings.HasPrefix(fields[idx], "-") {
			if idx == len(fields)-1 {
				return nil, errWrongOptionSyntax
			}
			options[fields[idx][1:]] = fields[idx+1]
			idx++
			continue
		}
		args = append(args, fields[idx])
	}
	return &shellcmd{cmd: cmd, args: args, options: options}, nil
}

func (sc *ShellController) standardModeSwitch(line string, sig chan os.Signal) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "exit", "bye":
		sig <- syscall.SIGINT
		return nil, errQuit
	case "new", "n":
		return sc.newGame(cmd)
	case "play", "p":
		return sc.play(cmd)
	case "go", "g":
		return sc.engineMove(cmd)
	case "ask":
		return sc.askBot(cmd)
	case "undo", "u":
		return sc.undo(cmd)
	case "show", "s":
		return sc.show(cmd)
	case "autoplay":
		return sc.autoplay(cmd)
	case "help":
		return sc.help(cmd)
	default:
		log.Debug().Msgf("you said: %v", strconv.Quote(line))
		return nil, fmt.Errorf("command %v not found", strconv.Quote(cmd.cmd))
	}
}

func (sc *ShellController) Loop(sig chan os.Signal) {
	defer sc.l.Close()
	defer func() {
		if sc.nc != nil {
			sc.nc.Close()
		}
	}()

	for {
		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		resp, err := sc.standardModeSwitch(line, sig)
		if err != nil {
			if errors.Is(err, errQuit) {
				break
			}
			sc.showError(err)
			continue
		}
		if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

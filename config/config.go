package config

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigRows                 = "rows"
	ConfigCols                 = "cols"
	ConfigK                    = "k"
	ConfigTurnTime             = "turn-time"
	ConfigTurnTimeP2           = "turn-time-p2"
	ConfigTurnTimeFraction     = "turn-time-fraction"
	ConfigTTableMemoryFraction = "ttable-memory-fraction"
	ConfigMaxSearchDepth       = "max-search-depth"
	ConfigVerifyInvariants     = "verify-invariants"
	ConfigDebug                = "debug"
	ConfigNatsURL              = "nats-url"
	ConfigBotSubject           = "bot-subject"
	ConfigHistoryFile          = "history-file"
	ConfigFile                 = "config"
)

type Config struct {
	Rows int
	Cols int
	K    int

	// TurnTime is the budget handed to the engine for each move.
	TurnTime time.Duration
	// TurnTimeP2, when set, replaces TurnTime for the second player in
	// engine-vs-engine games.
	TurnTimeP2 time.Duration
	// TurnTimeFraction is the share of TurnTime after which the search
	// is told to stop.
	TurnTimeFraction float64

	TTableMemoryFraction float64
	// MaxSearchDepth caps iterative deepening. 0 means no cap beyond the
	// number of free cells.
	MaxSearchDepth int

	VerifyInvariants bool
	Debug            bool

	NatsURL     string
	BotSubject  string
	HistoryFile string

	// Args holds the positional arguments left after the flags.
	Args []string
}

// DefaultConfig returns a config with every value at its default.
func DefaultConfig() *Config {
	c := &Config{}
	// An empty argument list cannot fail to parse.
	if err := c.Load(nil); err != nil {
		panic(err)
	}
	return c
}

func flagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("mnk", pflag.ContinueOnError)
	fs.Int(ConfigRows, 3, "number of board rows (M)")
	fs.Int(ConfigCols, 3, "number of board columns (N)")
	fs.Int(ConfigK, 3, "symbols in a row needed to win (K)")
	fs.Duration(ConfigTurnTime, 10*time.Second, "time budget for each engine move")
	fs.Duration(ConfigTurnTimeP2, 0, "time budget for the second player's moves in self-play; 0 for turn-time")
	fs.Float64(ConfigTurnTimeFraction, 0.95, "fraction of the turn time after which the search stops")
	fs.Float64(ConfigTTableMemoryFraction, 0.01, "fraction of system memory for the transposition table")
	fs.Int(ConfigMaxSearchDepth, 0, "maximum iterative deepening depth; 0 for no limit")
	fs.Bool(ConfigVerifyInvariants, false, "recompute strategy bookkeeping from scratch after every change (slow)")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigNatsURL, "nats://127.0.0.1:4222", "NATS server for the bot")
	fs.String(ConfigBotSubject, "mnk.bot", "subject the bot listens on")
	fs.String(ConfigHistoryFile, "/tmp/mnk_readline.tmp", "shell history file")
	fs.String(ConfigFile, "", "optional YAML config file")
	return fs
}

// Load reads flags from args, then MNK_-prefixed environment variables and
// an optional config file. Flags given explicitly take precedence.
func (c *Config) Load(args []string) error {
	fs := flagSet()
	if err := fs.Parse(args); err != nil {
		return err
	}
	v := viper.New()
	v.SetEnvPrefix("MNK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	if cfgFile := v.GetString(ConfigFile); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return err
		}
	}

	c.Rows = v.GetInt(ConfigRows)
	c.Cols = v.GetInt(ConfigCols)
	c.K = v.GetInt(ConfigK)
	c.TurnTime = v.GetDuration(ConfigTurnTime)
	c.TurnTimeP2 = v.GetDuration(ConfigTurnTimeP2)
	c.TurnTimeFraction = v.GetFloat64(ConfigTurnTimeFraction)
	c.TTableMemoryFraction = v.GetFloat64(ConfigTTableMemoryFraction)
	c.MaxSearchDepth = v.GetInt(ConfigMaxSearchDepth)
	c.VerifyInvariants = v.GetBool(ConfigVerifyInvariants)
	c.Debug = v.GetBool(ConfigDebug)
	c.NatsURL = v.GetString(ConfigNatsURL)
	c.BotSubject = v.GetString(ConfigBotSubject)
	c.HistoryFile = v.GetString(ConfigHistoryFile)
	c.Args = fs.Args()
	return nil
}

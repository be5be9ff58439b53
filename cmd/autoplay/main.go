// Command autoplay plays engine-vs-engine games:
//
//	autoplay [flags] <games> [threads] [records.yaml]
//
// Records go to stdout unless a file is given. A CSV move log is written
// when MNK_MOVE_LOG names a file.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/automatic"
	"github.com/domino14/mnk/config"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if len(cfg.Args) < 1 || len(cfg.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: autoplay [flags] <games> [threads] [records.yaml]")
		os.Exit(2)
	}
	numGames, err := strconv.Atoi(cfg.Args[0])
	if err != nil {
		log.Fatal().Err(err).Msg("bad-game-count")
	}
	threads := 1
	if len(cfg.Args) > 1 {
		if threads, err = strconv.Atoi(cfg.Args[1]); err != nil {
			log.Fatal().Err(err).Msg("bad-thread-count")
		}
	}
	var out io.Writer = os.Stdout
	if len(cfg.Args) > 2 {
		f, err := os.Create(cfg.Args[2])
		if err != nil {
			log.Fatal().Err(err).Msg("records-file")
		}
		defer f.Close()
		out = f
	}
	var movelog io.Writer
	if path := os.Getenv("MNK_MOVE_LOG"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("move-log-file")
		}
		defer f.Close()
		movelog = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	summary, err := automatic.PlayGamesWithSeeds(ctx, cfg, automatic.GenerateSeeds(numGames),
		threads, out, movelog)
	if err != nil {
		log.Error().Err(err).Msg("autoplay-failed")
		return
	}
	fmt.Fprint(os.Stderr, summary.String())
}

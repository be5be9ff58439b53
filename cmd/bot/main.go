package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/bot"
	"github.com/domino14/mnk/config"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("bad-config")
	}
	log.Info().Msgf("Loaded config: %+v", *cfg)

	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := bot.Main(ctx, bot.NewBot(cfg)); err != nil {
		log.Fatal().Err(err).Msg("bot-exited")
	}
	log.Info().Msg("server gracefully shutting down")
}

package turnplayer

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/domino14/mnk/config"
)

type GameOptions struct {
	M, N, K int
}

func (opts *GameOptions) SetDefaults(cfg *config.Config) {
	if opts.M == 0 || opts.N == 0 || opts.K == 0 {
		opts.M, opts.N, opts.K = cfg.Rows, cfg.Cols, cfg.K
		log.Info().Msgf("using default board %v", opts)
	}
}

// SetDimensions parses "m n k".
func (opts *GameOptions) SetDimensions(fields []string) error {
	if len(fields) != 3 {
		return fmt.Errorf("expected 3 dimensions (m n k), got %d", len(fields))
	}
	dims := [3]int{}
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return fmt.Errorf("bad dimension %q: %w", f, err)
		}
		dims[i] = v
	}
	opts.M, opts.N, opts.K = dims[0], dims[1], dims[2]
	return nil
}

func (opts *GameOptions) String() string {
	return fmt.Sprintf("%dx%d, k=%d", opts.M, opts.N, opts.K)
}

// Package bot serves engine moves over NATS.
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/mnk/board"
	"github.com/domino14/mnk/config"
	"github.com/domino14/mnk/turnplayer"
)

// MoveRequest asks for a move in the position reached by playing Moves on
// an empty M×N board.
type MoveRequest struct {
	M      int      `json:"m"`
	N      int      `json:"n"`
	K      int      `json:"k"`
	Moves  [][2]int `json:"moves"`
	TimeMs int      `json:"time_ms"`
}

// MoveResponse carries either a cell or an error.
type MoveResponse struct {
	Row   *int   `json:"row,omitempty"`
	Col   *int   `json:"col,omitempty"`
	Error string `json:"error,omitempty"`
}

type Bot struct {
	config *config.Config
}

func NewBot(cfg *config.Config) *Bot {
	return &Bot{config: cfg}
}

func errorResponse(message string, err error) *MoveResponse {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &MoveResponse{Error: msg}
}

// Deserialize parses a request and replays its moves.
func (bot *Bot) Deserialize(data []byte) (*board.GameBoard, time.Duration, error) {
	req := MoveRequest{}
	if err := sonic.Unmarshal(data, &req); err != nil {
		return nil, 0, err
	}
	b, err := board.NewBoard(req.M, req.N, req.K)
	if err != nil {
		return nil, 0, err
	}
	for i, mv := range req.Moves {
		if _, err := b.Mark(mv[0], mv[1]); err != nil {
			return nil, 0, fmt.Errorf("move %d: %w", i+1, err)
		}
	}
	if req.TimeMs < 0 {
		return nil, 0, errors.New("time_ms must not be negative")
	}
	budget := bot.config.TurnTime
	if req.TimeMs > 0 {
		budget = time.Duration(req.TimeMs) * time.Millisecond
	}
	return b, budget, nil
}

func (bot *Bot) handle(ctx context.Context, data []byte) *MoveResponse {
	b, budget, err := bot.Deserialize(data)
	if err != nil {
		return errorResponse("Could not parse request", err)
	}
	if b.GameState() != board.Open {
		return errorResponse("Game is over", nil)
	}
	p, err := turnplayer.NewPlayerFromBoard(b, bot.config)
	if err != nil {
		return errorResponse("Could not create engine player", err)
	}
	c, err := p.SelectMove(ctx, nil, budget)
	if err != nil {
		return errorResponse("Search failed", err)
	}
	log.Info().Str("cell", c.String()).Uint64("nodes", p.Solver().Nodes()).
		Int("depth", p.Solver().Depth()).Msg("generated-move")
	return &MoveResponse{Row: lo.ToPtr(c.Row), Col: lo.ToPtr(c.Col)}
}

// HandleRequest answers one encoded MoveRequest with an encoded
// MoveResponse.
func (bot *Bot) HandleRequest(data []byte) []byte {
	resp := bot.handle(context.Background(), data)
	out, err := sonic.Marshal(resp)
	if err != nil {
		// Should never happen, but the requester still needs an answer.
		return []byte(`{"error":"could not encode response"}`)
	}
	return out
}

// Main listens for requests until ctx is done.
func Main(ctx context.Context, bot *Bot) error {
	nc, err := nats.Connect(bot.config.NatsURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	_, err = nc.Subscribe(bot.config.BotSubject, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(bot.HandleRequest(m.Data)); err != nil {
			log.Err(err).Msg("respond-error")
		}
	})
	if err != nil {
		return err
	}
	if err := nc.Flush(); err != nil {
		return err
	}
	if err := nc.LastError(); err != nil {
		return err
	}
	log.Info().Msgf("Listening on [%s]", bot.config.BotSubject)

	<-ctx.Done()
	log.Info().Msg("bot-draining")
	return nc.Drain()
}

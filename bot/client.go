package bot

import (
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/mnk/board"
)

// requestSlack is added to the engine budget when waiting for a reply.
const requestSlack = 5 * time.Second

type Client struct {
	// NATS connection
	nc      *nats.Conn
	subject string
}

func NewClient(nc *nats.Conn, subject string) *Client {
	return &Client{nc: nc, subject: subject}
}

// MakeRequest encodes the position on b. A positive budget under a
// millisecond is sent as 1ms, since 0 asks the bot for its default time.
func MakeRequest(b *board.GameBoard, budget time.Duration) ([]byte, error) {
	ms := int(budget / time.Millisecond)
	if budget > 0 && budget%time.Millisecond != 0 {
		ms++
	}
	req := MoveRequest{
		M: b.M,
		N: b.N,
		K: b.K,
		Moves: lo.Map(b.History(), func(idx int, _ int) [2]int {
			c := b.CellAt(idx)
			return [2]int{c.Row, c.Col}
		}),
		TimeMs: ms,
	}
	return sonic.Marshal(&req)
}

func ParseResponse(data []byte) (board.Cell, error) {
	resp := MoveResponse{}
	if err := sonic.Unmarshal(data, &resp); err != nil {
		return board.Cell{}, err
	}
	if resp.Error != "" {
		return board.Cell{}, errors.New("Bot returned: " + resp.Error)
	}
	if resp.Row == nil || resp.Col == nil {
		return board.Cell{}, errors.New("bot reply has no cell")
	}
	return board.Cell{Row: *resp.Row, Col: *resp.Col}, nil
}

// RequestMove sends the position on b to the bot and returns its move.
func (c *Client) RequestMove(b *board.GameBoard, budget time.Duration) (board.Cell, error) {
	data, err := MakeRequest(b, budget)
	if err != nil {
		return board.Cell{}, err
	}
	res, err := c.nc.Request(c.subject, data, budget+requestSlack)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return board.Cell{}, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	return ParseResponse(res.Data)
}

package turnplayer

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/domino14/mnk/board"
)

var errBadCell = errors.New("cells are given as 'row col' or 'row,col'")

// ParseCell reads a cell from one field ("2,3") or two ("2 3").
func ParseCell(fields []string) (board.Cell, error) {
	if len(fields) == 1 {
		fields = strings.Split(fields[0], ",")
	}
	if len(fields) != 2 {
		return board.Cell{}, errBadCell
	}
	row, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return board.Cell{}, fmt.Errorf("%w: %w", errBadCell, err)
	}
	col, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return board.Cell{}, fmt.Errorf("%w: %w", errBadCell, err)
	}
	return board.Cell{Row: row, Col: col}, nil
}

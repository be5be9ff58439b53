package board

import (
	"fmt"
	"strings"

	"github.com/muesli/termenv"
)

func (cs CellState) displayString(colorize bool) string {
	if !colorize || cs == Empty {
		return cs.String()
	}
	s := termenv.String(cs.String()).Bold()
	if cs == P1 {
		return s.Foreground(termenv.ANSIRed).String()
	}
	return s.Foreground(termenv.ANSIBlue).String()
}

// ToDisplayText renders the board with row and column numbers. The last
// move is bracketed.
func (g *GameBoard) ToDisplayText(colorize bool) string {
	var sb strings.Builder
	last := g.LastMove()
	sb.WriteString("\n    ")
	for j := 0; j < g.N; j++ {
		fmt.Fprintf(&sb, "%2d ", j)
	}
	sb.WriteString("\n    " + strings.Repeat("-", g.N*3) + "\n")
	for i := 0; i < g.M; i++ {
		fmt.Fprintf(&sb, "%2d |", i)
		for j := 0; j < g.N; j++ {
			idx := g.Index(i, j)
			disp := g.cells[idx].displayString(colorize)
			if idx == last {
				sb.WriteString("[" + disp + "]")
			} else {
				sb.WriteString(" " + disp + " ")
			}
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("    " + strings.Repeat("-", g.N*3) + "\n")
	fmt.Fprintf(&sb, "k=%d  to move: %v  state: %v\n", g.K, g.PlayerOnTurn(), g.GameState())
	return sb.String()
}

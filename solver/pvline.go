package solver

import (
	"fmt"
	"strings"

	"github.com/domino14/mnk/board"
)

// PVLine is a principal variation: the line of play the search expects.
type PVLine struct {
	Moves []board.Cell
	score float32
}

func (pvLine *PVLine) Clear() {
	pvLine.Moves = nil
}

// Update replaces the line with a new best move followed by the line of
// best play after it.
func (pvLine *PVLine) Update(c board.Cell, newPVLine PVLine, score float32) {
	pvLine.Clear()
	pvLine.Moves = append(pvLine.Moves, c)
	pvLine.Moves = append(pvLine.Moves, newPVLine.Moves...)
	pvLine.score = score
}

func (pvLine *PVLine) Score() float32 {
	return pvLine.score
}

func (pvLine PVLine) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.2f\n", pvLine.score)
	for i, c := range pvLine.Moves {
		fmt.Fprintf(&sb, "%d: %v %v\n", i+1, c.State, c)
	}
	return sb.String()
}

// NLBString is String without line breaks.
func (pvLine PVLine) NLBString() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PV; val %.2f;", pvLine.score)
	for i, c := range pvLine.Moves {
		fmt.Fprintf(&sb, " %d: %v %v;", i+1, c.State, c)
	}
	return sb.String()
}

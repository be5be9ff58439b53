package solver

import "github.com/domino14/mnk/board"

const (
	OneThreatPenalty  = float32(0.2)
	SetSizeBonus      = float32(0.1)
	DoubleThreatBonus = float32(0.05)
)

// evaluate scores the session's position for the side to move. Certain
// outcomes are -1, 0 or 1; everything else falls strictly between.
func evaluate(sess *Session) float32 {
	b := sess.Board()
	stm := b.PlayerOnTurn()
	opp := stm.Opponent()
	switch b.GameState() {
	case board.Draw:
		return 0
	case board.WinFor(stm):
		return 1
	case board.WinFor(opp):
		return -1
	}
	own, theirs := sess.Set(stm), sess.Set(opp)
	if own.Winning() >= 1 {
		return 1
	}
	threats := theirs.Threats(b)
	if threats >= 2 {
		return -1
	}
	var v float32
	if threats == 1 {
		v -= OneThreatPenalty
	}
	switch {
	case own.Size() > theirs.Size():
		v += SetSizeBonus
	case own.Size() < theirs.Size():
		v -= SetSizeBonus
	}
	if sess.Queue(stm).Count(0) > 0 {
		v += DoubleThreatBonus
	}
	if sess.Queue(opp).Count(0) > 0 {
		v -= DoubleThreatBonus
	}
	return min(max(v, -1), 1)
}

package engine

import (
	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine/tt"
)

// Mate-score bookkeeping shares its threshold with pkg/engine/tt so that any
// score the search treats as a forced mate is also one the transposition
// table rebases by ply on store/probe.
const (
	stackSize     = tt.MaxPly
	maxHeight     = stackSize - 1
	valueDraw     = 0
	valueMate     = tt.MateScore
	valueInfinity = valueMate + 1
	valueWin      = tt.MateInMaxPly
	valueLoss     = -valueWin
)

func winIn(height int) int {
	return valueMate - height
}

func lossIn(height int) int {
	return -valueMate + height
}

// UciScore is either a centipawn evaluation or a mate-in-N count, matching
// the two score flavors a UCI "info" line reports.
type UciScore struct {
	Centipawns int
	Mate       int
}

func newUciScore(v int) UciScore {
	if v >= valueWin {
		return UciScore{Mate: (valueMate - v + 1) / 2}
	}
	if v <= valueLoss {
		return UciScore{Mate: (-valueMate - v) / 2}
	}
	return UciScore{Centipawns: v}
}

func isLateEndgame(p *chess.Position, white bool) bool {
	var ownPieces = p.PiecesByColor(white)
	return (p.Rooks|p.Queens)&ownPieces == 0 &&
		!chess.MoreThanOne((p.Knights|p.Bishops)&ownPieces)
}

func isCaptureOrPromotion(move chess.Move) bool {
	return move.CapturedPiece() != chess.Empty || move.Promotion() != chess.Empty
}

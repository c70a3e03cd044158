package proofgame

import "github.com/kestrelchess/engine/pkg/proofkernel"

// PromotionCandidate is one pawn reaching its last rank in the scheduled
// kernel that still needs a promoted piece assigned to it.
type PromotionCandidate struct {
	Color proofkernel.PieceColor
	File  int
	// OnDarkSquare is the color of the promotion square on this pawn's
	// file, which constrains whether a bishop promotion is physically
	// possible here.
	OnDarkSquare bool
	// Trapped marks a file with exactly one promotable pawn. decidePromotions
	// does not consult it: bishop promotions are not steered to a trapped
	// candidate.
	Trapped bool
}

// NeededPromotions is, per color, how many promotions of each piece type
// the goal position still requires beyond what unpromoted material already
// supplies (excess counts below zero, negated), split by the promotion
// square's color for bishops since a dark-squared bishop cannot satisfy a
// light-squared-bishop deficit.
type NeededPromotions struct {
	Queen, Rook, Knight       int
	DarkBishop, LightBishop   int
}

// decidePromotions assigns a PieceType to each candidate, in order, so
// that the promotions collectively satisfy needed, with this priority
// at every individual pawn: a bishop if one is still needed and this
// square's color allows it, else a knight, else a rook, else a queen. A
// bishop that is still needed is always assigned to the first available
// candidate so it ends up trapped as early as possible, since nothing
// later in the schedule can move a promoted bishop back out once its
// file is resolved; all other candidates are decided in order.
func decidePromotions(candidates []PromotionCandidate, needed NeededPromotions) []proofkernel.PieceType {
	var result = make([]proofkernel.PieceType, len(candidates))
	var darkNeeded, lightNeeded = needed.DarkBishop, needed.LightBishop
	var knightNeeded, rookNeeded, queenNeeded = needed.Knight, needed.Rook, needed.Queen

	for i, c := range candidates {
		switch {
		case c.OnDarkSquare && darkNeeded > 0:
			result[i] = proofkernel.DarkBishop
			darkNeeded--
		case !c.OnDarkSquare && lightNeeded > 0:
			result[i] = proofkernel.LightBishop
			lightNeeded--
		case knightNeeded > 0:
			result[i] = proofkernel.Knight
			knightNeeded--
		case rookNeeded > 0:
			result[i] = proofkernel.Rook
			rookNeeded--
		case queenNeeded > 0:
			result[i] = proofkernel.Queen
			queenNeeded--
		default:
			result[i] = proofkernel.Queen
		}
	}
	return result
}

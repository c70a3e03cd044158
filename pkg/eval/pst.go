package eval

import "github.com/kestrelchess/engine/pkg/chess"

// Material values, tapered. Grounded on the teacher's pattern of a single
// packed Score per feature (pkg/eval/counter/evaluation.go's fPawnValue
// etc.) rather than separate mg/eg arrays.
var materialValue = [7]Score{
	chess.Empty:  S(0, 0),
	chess.Pawn:   S(100, 120),
	chess.Knight: S(320, 300),
	chess.Bishop: S(330, 320),
	chess.Rook:   S(500, 540),
	chess.Queen:  S(950, 960),
	chess.King:   S(0, 0),
}

const bishopPairBonus = 30

// pst holds, per piece type, a value per square from white's point of view
// (a1=0 .. h8=63 in rank-major order matching chess.SquareA1..SquareH8).
// Values are deliberately modest hand-tuned approximations in the spirit of
// the well-known PeSTO tables referenced by the teacher's pkg/eval/pesto —
// the teacher's own weight arrays are absent from the retrieval pack
// (pkg/eval/pesto/weights.go was not retrieved), so these are authored here
// rather than copied.
var pst [7][64]Score

func sq32(sq int) (file, rank int) {
	return chess.File(sq), chess.Rank(sq)
}

func centerBonus(sq int) int {
	file, rank := sq32(sq)
	var df = file - chess.FileD
	if df < 0 {
		df = chess.FileE - file
	}
	var dr = rank - chess.Rank4
	if dr < 0 {
		dr = chess.Rank5 - rank
	}
	return 6 - df - dr
}

func init() {
	for sq := 0; sq < 64; sq++ {
		var rank = chess.Rank(sq)
		var c = centerBonus(sq)

		pst[chess.Pawn][sq] = S(4*rank+2*c, 6*rank)
		pst[chess.Knight][sq] = S(8*c, 6*c)
		pst[chess.Bishop][sq] = S(5*c, 4*c)
		pst[chess.Rook][sq] = S(2*c, 2*c)
		pst[chess.Queen][sq] = S(3*c, 3*c)

		var edgeDist = c
		if edgeDist < 0 {
			edgeDist = 0
		}
		pst[chess.King][sq] = S(-4*edgeDist, 6*edgeDist)
	}
	// Castled-king shelter squares get a middlegame bonus, endgame squares
	// near the center get an endgame bonus (already handled by edgeDist).
	for _, sq := range []int{chess.SquareG1, chess.SquareC1, chess.SquareG8, chess.SquareC8} {
		pst[chess.King][sq] += S(40, 0)
	}
}

// relativeSquare mirrors sq for black, so a single white-oriented PST array
// serves both sides.
func relativeSquare(white bool, sq int) int {
	if white {
		return sq
	}
	return chess.FlipSquare(sq)
}

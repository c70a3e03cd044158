package eval

import "github.com/kestrelchess/engine/pkg/chess"

const (
	minorPhase = 1
	rookPhase  = 2
	queenPhase = 4
	totalPhase = 4*minorPhase + 4*rookPhase + 2*queenPhase
)

const (
	scaleNormal = 128
	scaleHard   = 32
)

// Service holds the mutable caches a running search shares across calls to
// EvalPos: a pawn-structure hash table, matching the teacher's practice of
// keeping hash tables as fields on an explicit service value
// (pkg/eval/counter/evaluation.go's EvaluationService) rather than package
// globals, so multiple search threads can each own an independent Service.
type Service struct {
	pawnTable *pawnHashTable
}

// NewService builds an evaluation service with a pawn hash table sized for
// one search thread.
func NewService() *Service {
	return &Service{pawnTable: newPawnHashTable(16)}
}

// EvalPos returns the static evaluation of pos in centipawns from the
// side-to-move's point of view.
func (e *Service) EvalPos(pos *chess.Position) int {
	var s Score
	var pieceCount [2][7]int

	for x := pos.White; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		var pt = pos.WhatPiece(sq)
		pieceCount[sideWhite][pt]++
		s += materialValue[pt] + pst[pt][relativeSquare(true, sq)]
	}
	for x := pos.Black; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		var pt = pos.WhatPiece(sq)
		pieceCount[sideBlack][pt]++
		s -= materialValue[pt] + pst[pt][relativeSquare(false, sq)]
	}

	if pieceCount[sideWhite][chess.Bishop] >= 2 {
		s += S(bishopPairBonus, bishopPairBonus)
	}
	if pieceCount[sideBlack][chess.Bishop] >= 2 {
		s -= S(bishopPairBonus, bishopPairBonus)
	}

	s += e.evalMobility(pos, true) - e.evalMobility(pos, false)
	s += e.evalKingSafety(pos, true) - e.evalKingSafety(pos, false)

	var pe = e.pawnTable.get(pos.Pawns&pos.White, pos.Pawns&pos.Black)
	s += pe.score

	var phase = minorPhase*(pieceCount[sideWhite][chess.Knight]+pieceCount[sideWhite][chess.Bishop]+
		pieceCount[sideBlack][chess.Knight]+pieceCount[sideBlack][chess.Bishop]) +
		rookPhase*(pieceCount[sideWhite][chess.Rook]+pieceCount[sideBlack][chess.Rook]) +
		queenPhase*(pieceCount[sideWhite][chess.Queen]+pieceCount[sideBlack][chess.Queen])
	if phase > totalPhase {
		phase = totalPhase
	}

	var result = (s.Mg()*phase + s.Eg()*(totalPhase-phase)) / totalPhase
	result = result * stalePawnFactor[min(pe.staleCount, len(stalePawnFactor)-1)] / 128
	result = result * e.computeFactor(pieceCount, result) / scaleNormal

	if !pos.WhiteMove {
		result = -result
	}
	return result
}

// EvalPosPrint returns the same value as EvalPos along with a breakdown
// string, for UCI "eval" / debug commands — mirroring the teacher's debug
// print path without it being on the hot evaluation call.
func (e *Service) EvalPosPrint(pos *chess.Position) (int, string) {
	var result = e.EvalPos(pos)
	var pe = e.pawnTable.get(pos.Pawns&pos.White, pos.Pawns&pos.Black)
	return result, Score(result).String() + " pawnStale=" + itoa(pe.staleCount)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var neg = n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	var i = len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func (e *Service) evalMobility(pos *chess.Position, white bool) Score {
	var own, opp uint64
	if white {
		own, opp = pos.White, pos.Black
	} else {
		own, opp = pos.Black, pos.White
	}
	var occ = pos.White | pos.Black
	var targets = ^own
	var s Score

	for x := pos.Knights & own; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		s += S(4, 4) * Score(chess.PopCount(chess.KnightAttacksFrom(sq)&targets))
	}
	for x := pos.Bishops & own; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		s += S(3, 3) * Score(chess.PopCount(chess.BishopAttacks(sq, occ)&targets))
	}
	for x := pos.Rooks & own; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		s += S(2, 4) * Score(chess.PopCount(chess.RookAttacks(sq, occ)&targets))
		if chess.FileMask[chess.File(sq)]&pos.Pawns&own == 0 {
			if chess.FileMask[chess.File(sq)]&pos.Pawns == 0 {
				s += S(20, 10)
			} else {
				s += S(10, 5)
			}
		}
	}
	for x := pos.Queens & own; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		s += S(1, 2) * Score(chess.PopCount(chess.QueenAttacks(sq, occ)&targets))
	}

	var minorsBehindPawn uint64
	if white {
		minorsBehindPawn = (pos.Knights | pos.Bishops) & own & (pos.Pawns >> 8)
	} else {
		minorsBehindPawn = (pos.Knights | pos.Bishops) & own & (pos.Pawns << 8)
	}
	s += S(4, 0) * Score(chess.PopCount(minorsBehindPawn))

	_ = opp
	return s
}

func (e *Service) evalKingSafety(pos *chess.Position, white bool) Score {
	var own uint64
	if white {
		own = pos.White
	} else {
		own = pos.Black
	}
	var kingSq = chess.FirstOne(pos.Kings & own)
	var shelter = chess.KingAttacksFrom(kingSq) & own & pos.Pawns
	return S(8, 0) * Score(chess.PopCount(shelter))
}

func (e *Service) computeFactor(pieceCount [2][7]int, result int) int {
	var strongSide = sideWhite
	if result < 0 {
		strongSide = sideBlack
	}
	var weakSide = strongSide ^ 1

	if pieceCount[strongSide][chess.Pawn] == 0 {
		var strongMajors = pieceCount[strongSide][chess.Rook] + 2*pieceCount[strongSide][chess.Queen]
		var strongMinors = pieceCount[strongSide][chess.Knight] + pieceCount[strongSide][chess.Bishop]
		if strongMajors == 0 && strongMinors <= 1 {
			return scaleHard / 2
		}
		var weakMajors = pieceCount[weakSide][chess.Rook] + 2*pieceCount[weakSide][chess.Queen]
		var weakMinors = pieceCount[weakSide][chess.Knight] + pieceCount[weakSide][chess.Bishop]
		if 4*(strongMinors-weakMinors)+6*(strongMajors-weakMajors) <= 4 {
			return scaleHard
		}
	}
	return scaleNormal
}

// SwindleScore rescales a raw evaluation or mate score for reporting when a
// better result is known to be unreachable in the given distance-to-win
// (distToWin, in plies; 0 means no known distance). With distToWin 0 the
// magnitude of evalScore is compressed logarithmically and kept below
// 3000; otherwise the result lies in the "frustrated" band 3000..3200,
// larger for shorter |distToWin| and carrying distToWin's sign. Ported
// in spirit from Evaluate::swindleScore in
// original_source/lib/texellib/evaluate.cpp.
func SwindleScore(evalScore, distToWin int) int {
	const minFrustrated = 3000
	const maxFrustrated = 3200

	if distToWin == 0 {
		var sgn = 1
		if evalScore < 0 {
			sgn = -1
		}
		var score = evalScore
		if score < 0 {
			score = -score
		}
		score += 4
		var lg = bitLength(score)
		score = (lg-3)*4 + (score >> uint(lg-2))
		if score >= minFrustrated {
			score = minFrustrated - 1
		}
		return sgn * score
	}
	var sgn = 1
	if distToWin < 0 {
		sgn = -1
	}
	var d = distToWin
	if d < 0 {
		d = -d
	}
	var v = maxFrustrated + 1 - d
	if v < minFrustrated {
		v = minFrustrated
	}
	return sgn * v
}

func bitLength(x int) int {
	var n = 0
	for x > 0 {
		n++
		x >>= 1
	}
	return n
}

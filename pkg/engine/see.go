package engine

import (
	"github.com/kestrelchess/engine/pkg/chess"
)

var pieceValuesSEE = [chess.King + 1]int{
	chess.Pawn:   1,
	chess.Knight: 4,
	chess.Bishop: 4,
	chess.Rook:   6,
	chess.Queen:  12,
	chess.King:   120,
}

func seeGEZero(p *chess.Position, move chess.Move) bool {
	return SeeGE(p, move, 0)
}

// SeeGE reports whether the static exchange evaluation of move is at least
// threshold. Based on Ethereal's swap-off algorithm.
func SeeGE(pos *chess.Position, move chess.Move, threshold int) bool {
	var from = move.From()
	var to = move.To()
	var movingPiece = move.MovingPiece()
	var capturedPiece = move.CapturedPiece()
	var promotionPiece = move.Promotion()

	var nextVictim = movingPiece
	if promotionPiece != chess.Empty {
		nextVictim = promotionPiece
	}

	var balance = pieceValuesSEE[capturedPiece]
	if promotionPiece != chess.Empty {
		balance += pieceValuesSEE[promotionPiece] - pieceValuesSEE[chess.Pawn]
	}
	balance -= threshold

	if balance < 0 {
		return false
	}

	balance -= pieceValuesSEE[nextVictim]
	if balance >= 0 {
		return true
	}

	var occupied = (pos.White|pos.Black)&^chess.SquareBB(from) | chess.SquareBB(to)
	if movingPiece == chess.Pawn && to == pos.EpSquare {
		var capSq int
		if pos.WhiteMove {
			capSq = to - 8
		} else {
			capSq = to + 8
		}
		occupied &^= chess.SquareBB(capSq)
	}

	var attackers = computeAttackers(pos, to, occupied) & occupied

	var bishops = pos.Bishops | pos.Queens
	var rooks = pos.Rooks | pos.Queens

	var white = !pos.WhiteMove

	for {
		var myAttackers = attackers & pos.PiecesByColor(white)
		if myAttackers == 0 {
			break
		}

		var attackerType, attackerFrom = getLeastValuableAttacker(pos, myAttackers)

		occupied &^= chess.SquareBB(attackerFrom)

		if attackerType == chess.Pawn || attackerType == chess.Bishop || attackerType == chess.Queen {
			attackers |= chess.BishopAttacks(to, occupied) & bishops
		}
		if attackerType == chess.Rook || attackerType == chess.Queen {
			attackers |= chess.RookAttacks(to, occupied) & rooks
		}

		attackers &= occupied

		white = !white

		balance = -balance - 1 - pieceValuesSEE[attackerType]
		if balance >= 0 {
			if attackerType == chess.King &&
				(attackers&pos.PiecesByColor(white)) != 0 {
				white = !white
			}
			break
		}
	}

	return white != pos.WhiteMove
}

func computeAttackers(pos *chess.Position, sq int, occ uint64) uint64 {
	return (chess.PawnAttacks(sq, true) & pos.Pawns & pos.Black) |
		(chess.PawnAttacks(sq, false) & pos.Pawns & pos.White) |
		(chess.KnightAttacksFrom(sq) & pos.Knights) |
		(chess.KingAttacksFrom(sq) & pos.Kings) |
		(chess.BishopAttacks(sq, occ) & (pos.Bishops | pos.Queens)) |
		(chess.RookAttacks(sq, occ) & (pos.Rooks | pos.Queens))
}

func getLeastValuableAttacker(p *chess.Position, attackers uint64) (attacker, from int) {
	if p.Pawns&attackers != 0 {
		return chess.Pawn, chess.FirstOne(p.Pawns & attackers)
	}
	if p.Knights&attackers != 0 {
		return chess.Knight, chess.FirstOne(p.Knights & attackers)
	}
	if p.Bishops&attackers != 0 {
		return chess.Bishop, chess.FirstOne(p.Bishops & attackers)
	}
	if p.Rooks&attackers != 0 {
		return chess.Rook, chess.FirstOne(p.Rooks & attackers)
	}
	if p.Queens&attackers != 0 {
		return chess.Queen, chess.FirstOne(p.Queens & attackers)
	}
	if p.Kings&attackers != 0 {
		return chess.King, chess.FirstOne(p.Kings & attackers)
	}
	return chess.Empty, chess.SquareNone
}

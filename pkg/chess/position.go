package chess

import (
	"bytes"
	"strconv"
	"strings"
	"unicode"
)

var castleMask [64]int

func init() {
	for i := range castleMask {
		castleMask[i] = WhiteKingSide | WhiteQueenSide | BlackKingSide | BlackQueenSide
	}
	castleMask[SquareA1] &^= WhiteQueenSide
	castleMask[SquareE1] &^= WhiteQueenSide | WhiteKingSide
	castleMask[SquareH1] &^= WhiteKingSide
	castleMask[SquareA8] &^= BlackQueenSide
	castleMask[SquareE8] &^= BlackQueenSide | BlackKingSide
	castleMask[SquareH8] &^= BlackKingSide
}

// WhatPiece returns the piece type occupying sq, or Empty.
func (p *Position) WhatPiece(sq int) int {
	var bb = squareMask[sq]
	if ((p.White | p.Black) & bb) == 0 {
		return Empty
	}
	switch {
	case p.Pawns&bb != 0:
		return Pawn
	case p.Knights&bb != 0:
		return Knight
	case p.Bishops&bb != 0:
		return Bishop
	case p.Rooks&bb != 0:
		return Rook
	case p.Queens&bb != 0:
		return Queen
	default:
		return King
	}
}

// PieceTypeAndSide returns the piece type and side occupying sq.
func (p *Position) PieceTypeAndSide(sq int) (pieceType int, white bool) {
	var bb = squareMask[sq]
	switch {
	case p.White&bb != 0:
		return p.WhatPiece(sq), true
	case p.Black&bb != 0:
		return p.WhatPiece(sq), false
	default:
		return Empty, false
	}
}

// PiecesByColor returns the occupancy bitboard of the given side.
func (p *Position) PiecesByColor(white bool) uint64 {
	if white {
		return p.White
	}
	return p.Black
}

func pieceBB(p *Position, piece int) uint64 {
	switch piece {
	case Pawn:
		return p.Pawns
	case Knight:
		return p.Knights
	case Bishop:
		return p.Bishops
	case Rook:
		return p.Rooks
	case Queen:
		return p.Queens
	default:
		return p.Kings
	}
}

func colorPieceCount(p *Position, piece int, white bool) uint64 {
	return pieceBB(p, piece) & p.PiecesByColor(white)
}

func togglePieceBB(p *Position, piece int, b uint64) {
	switch piece {
	case Pawn:
		p.Pawns ^= b
	case Knight:
		p.Knights ^= b
	case Bishop:
		p.Bishops ^= b
	case Rook:
		p.Rooks ^= b
	case Queen:
		p.Queens ^= b
	case King:
		p.Kings ^= b
	}
}

// togglePiece flips the presence of piece/white on sq, maintaining Key and
// MaterialID incrementally.
func togglePiece(p *Position, piece int, white bool, sq int) {
	var b = squareMask[sq]
	var wasSet = colorPieceCount(p, piece, white)&b != 0
	var countBefore = PopCount(colorPieceCount(p, piece, white))

	if white {
		p.White ^= b
	} else {
		p.Black ^= b
	}
	togglePieceBB(p, piece, b)
	p.Key ^= PieceSquareKey(piece, white, sq)

	if !wasSet {
		p.MaterialID ^= MaterialKey(piece, white, countBefore+1)
	} else {
		p.MaterialID ^= MaterialKey(piece, white, countBefore)
	}
}

func movePieceBB(p *Position, piece int, white bool, from, to int) {
	togglePiece(p, piece, white, from)
	togglePiece(p, piece, white, to)
}

func (p *Position) isAttackedBySide(sq int, white bool) bool {
	var enemy = p.PiecesByColor(white)
	if (PawnAttacks(sq, !white) & p.Pawns & enemy) != 0 {
		return true
	}
	if (KnightAttacksFrom(sq) & p.Knights & enemy) != 0 {
		return true
	}
	if (KingAttacksFrom(sq) & p.Kings & enemy) != 0 {
		return true
	}
	var occ = p.White | p.Black
	if (BishopAttacks(sq, occ) & (p.Bishops | p.Queens) & enemy) != 0 {
		return true
	}
	if (RookAttacks(sq, occ) & (p.Rooks | p.Queens) & enemy) != 0 {
		return true
	}
	return false
}

func (p *Position) attackersTo(sq int) uint64 {
	var occ = p.White | p.Black
	return (blackPawnAttacks[sq] & p.Pawns & p.White) |
		(whitePawnAttacks[sq] & p.Pawns & p.Black) |
		(KnightAttacksFrom(sq) & p.Knights) |
		(BishopAttacks(sq, occ) & (p.Bishops | p.Queens)) |
		(RookAttacks(sq, occ) & (p.Rooks | p.Queens)) |
		(KingAttacksFrom(sq) & p.Kings)
}

func (p *Position) computeCheckers() uint64 {
	if p.WhiteMove {
		return p.attackersTo(FirstOne(p.Kings&p.White)) & p.Black
	}
	return p.attackersTo(FirstOne(p.Kings&p.Black)) & p.White
}

func (p *Position) isLegal() bool {
	var kingSq = FirstOne(p.Kings & p.PiecesByColor(!p.WhiteMove))
	return !p.isAttackedBySide(kingSq, p.WhiteMove)
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool { return p.Checkers != 0 }

// IsDiscoveredCheck reports whether the last move gave a discovered check.
func (p *Position) IsDiscoveredCheck() bool {
	return (p.Checkers & ^squareMask[p.LastMove.To()]) != 0
}

// IsRepetition reports whether p and other share identical piece placement,
// side to move, castling rights and en-passant square — the fields that
// determine repetition per the threefold-repetition rule.
func (p *Position) IsRepetition(other *Position) bool {
	return p.White == other.White &&
		p.Black == other.Black &&
		p.Pawns == other.Pawns &&
		p.Knights == other.Knights &&
		p.Bishops == other.Bishops &&
		p.Rooks == other.Rooks &&
		p.Queens == other.Queens &&
		p.Kings == other.Kings &&
		p.WhiteMove == other.WhiteMove &&
		p.CastleRights == other.CastleRights &&
		p.EpSquare == other.EpSquare
}

// applyMove mutates dst in place to be the result of playing move on src.
// dst and src may be the same pointer (in-place application).
func applyMove(dst *Position, src Position, move Move) bool {
	var from = move.From()
	var to = move.To()
	var movingPiece = move.MovingPiece()
	var capturedPiece = move.CapturedPiece()

	*dst = src
	dst.WhiteMove = !src.WhiteMove
	dst.Key = src.Key ^ sideKey
	dst.CastleRights = src.CastleRights & castleMask[from] & castleMask[to]
	dst.Key ^= castlingKey[dst.CastleRights^src.CastleRights]

	if movingPiece == Pawn || capturedPiece != Empty {
		dst.Rule50 = 0
	} else {
		dst.Rule50 = src.Rule50 + 1
	}

	dst.EpSquare = SquareNone
	if src.EpSquare != SquareNone {
		dst.Key ^= enpassantKey[File(src.EpSquare)]
	}

	if capturedPiece != Empty {
		if capturedPiece == Pawn && to == src.EpSquare {
			var capSq = to + 8
			if src.WhiteMove {
				capSq = to - 8
			}
			togglePiece(dst, Pawn, !src.WhiteMove, capSq)
		} else {
			togglePiece(dst, capturedPiece, !src.WhiteMove, to)
		}
	}

	movePieceBB(dst, movingPiece, src.WhiteMove, from, to)

	if movingPiece == Pawn {
		if src.WhiteMove {
			if to == from+16 {
				dst.EpSquare = from + 8
				dst.Key ^= enpassantKey[File(from+8)]
			}
			if Rank(to) == Rank8 {
				togglePiece(dst, Pawn, true, to)
				togglePiece(dst, move.Promotion(), true, to)
			}
		} else {
			if to == from-16 {
				dst.EpSquare = from - 8
				dst.Key ^= enpassantKey[File(from-8)]
			}
			if Rank(to) == Rank1 {
				togglePiece(dst, Pawn, false, to)
				togglePiece(dst, move.Promotion(), false, to)
			}
		}
	} else if movingPiece == King {
		if src.WhiteMove {
			if from == SquareE1 && to == SquareG1 {
				movePieceBB(dst, Rook, true, SquareH1, SquareF1)
			}
			if from == SquareE1 && to == SquareC1 {
				movePieceBB(dst, Rook, true, SquareA1, SquareD1)
			}
		} else {
			if from == SquareE8 && to == SquareG8 {
				movePieceBB(dst, Rook, false, SquareH8, SquareF8)
			}
			if from == SquareE8 && to == SquareC8 {
				movePieceBB(dst, Rook, false, SquareA8, SquareD8)
			}
		}
	}

	if !dst.isLegal() {
		return false
	}
	dst.Checkers = dst.computeCheckers()
	dst.LastMove = move
	if dst.WhiteMove {
		dst.FullMove = src.FullMove + 1
	} else {
		dst.FullMove = src.FullMove
	}
	return true
}

// MakeMove returns the position after playing move from p, and false if the
// move leaves the mover's own king in check (illegal). It does not mutate p;
// this is the form used along search stacks, where positions are cheap
// value copies.
func (p Position) MakeMove(move Move) (Position, bool) {
	var result Position
	var ok = applyMove(&result, p, move)
	return result, ok
}

// MakeNullMove returns the position after a null move (side to move passes).
func (p Position) MakeNullMove() Position {
	var result = p
	result.WhiteMove = !p.WhiteMove
	result.Key = p.Key ^ sideKey
	result.Rule50 = p.Rule50 + 1
	result.EpSquare = SquareNone
	if p.EpSquare != SquareNone {
		result.Key ^= enpassantKey[File(p.EpSquare)]
	}
	result.Checkers = 0
	result.LastMove = MoveEmpty
	return result
}

// Make applies move to pos in place and returns the UndoInfo needed to
// reverse it with Unmake. Used by the proof-game search, which walks long
// move sequences and cannot afford a full Position copy per ply.
func Make(pos *Position, move Move) UndoInfo {
	var undo = UndoInfo{
		CapturedPiece: move.CapturedPiece(),
		CastleRights:  pos.CastleRights,
		EpSquare:      pos.EpSquare,
		Rule50:        pos.Rule50,
		Key:           pos.Key,
		MaterialID:    pos.MaterialID,
		Checkers:      pos.Checkers,
		LastMove:      pos.LastMove,
	}
	applyMove(pos, *pos, move)
	return undo
}

// Unmake reverses the effect of Make(pos, move) using the UndoInfo it
// returned. pos must be exactly the position Make produced; calling Unmake
// with a stale or mismatched UndoInfo corrupts the position silently.
func Unmake(pos *Position, move Move, undo UndoInfo) {
	var from = move.From()
	var to = move.To()
	var movingPiece = move.MovingPiece()
	var whiteMoved = !pos.WhiteMove

	if movingPiece == King {
		if whiteMoved {
			if from == SquareE1 && to == SquareG1 {
				movePieceBB(pos, Rook, true, SquareF1, SquareH1)
			}
			if from == SquareE1 && to == SquareC1 {
				movePieceBB(pos, Rook, true, SquareD1, SquareA1)
			}
		} else {
			if from == SquareE8 && to == SquareG8 {
				movePieceBB(pos, Rook, false, SquareF8, SquareH8)
			}
			if from == SquareE8 && to == SquareC8 {
				movePieceBB(pos, Rook, false, SquareD8, SquareA8)
			}
		}
	}

	if movingPiece == Pawn && move.Promotion() != Empty {
		togglePiece(pos, move.Promotion(), whiteMoved, to)
		togglePiece(pos, Pawn, whiteMoved, to)
	}

	movePieceBB(pos, movingPiece, whiteMoved, to, from)

	if undo.CapturedPiece != Empty {
		if undo.CapturedPiece == Pawn && to == undo.EpSquare {
			var capSq = to + 8
			if whiteMoved {
				capSq = to - 8
			}
			togglePiece(pos, Pawn, !whiteMoved, capSq)
		} else {
			togglePiece(pos, undo.CapturedPiece, !whiteMoved, to)
		}
	}

	pos.WhiteMove = whiteMoved
	pos.CastleRights = undo.CastleRights
	pos.EpSquare = undo.EpSquare
	pos.Rule50 = undo.Rule50
	pos.Key = undo.Key
	pos.MaterialID = undo.MaterialID
	pos.Checkers = undo.Checkers
	pos.LastMove = undo.LastMove
	if !whiteMoved {
		pos.FullMove--
	}
}

func createPosition(board [64]coloredPiece, whiteMove bool, castleRights, ep, rule50, fullMove int) (Position, bool) {
	var p = Position{
		WhiteMove:    whiteMove,
		CastleRights: castleRights,
		EpSquare:     ep,
		Rule50:       rule50,
		FullMove:     fullMove,
		LastMove:     MoveEmpty,
	}
	for sq, piece := range board {
		if piece.pieceType != Empty {
			togglePiece(&p, piece.pieceType, piece.white, sq)
		}
	}
	p.Key = computeKey(&p)
	p.Checkers = p.computeCheckers()
	if !p.isLegal() {
		return Position{}, false
	}
	return p, true
}

func computeKey(p *Position) uint64 {
	var result uint64
	if p.WhiteMove {
		result ^= sideKey
	}
	result ^= castlingKey[p.CastleRights]
	if p.EpSquare != SquareNone {
		result ^= enpassantKey[File(p.EpSquare)]
	}
	for i := 0; i < 64; i++ {
		var piece = p.WhatPiece(i)
		if piece != Empty {
			var white = (p.White & squareMask[i]) != 0
			result ^= PieceSquareKey(piece, white, i)
		}
	}
	return result
}

// ReadFEN parses a FEN string into a Position. It returns ParseError if the
// string is malformed or describes an illegal position (e.g. the side not
// to move is in check).
func ReadFEN(fen string) (Position, error) {
	var tokens = strings.Fields(fen)
	if len(tokens) < 4 {
		return Position{}, &ParseError{Input: fen, Msg: "expected at least 4 fields"}
	}

	var board [64]coloredPiece
	var i = 0
	for _, ch := range tokens[0] {
		switch {
		case ch == '/':
			continue
		case unicode.IsDigit(ch):
			i += int(ch - '0')
		case unicode.IsLetter(ch):
			var cp = parsePiece(ch)
			board[FlipSquare(i)] = coloredPiece{cp.pieceType, cp.white}
			i++
		}
	}

	var whiteMove = tokens[1] == "w"

	var cr = 0
	if strings.Contains(tokens[2], "K") {
		cr |= WhiteKingSide
	}
	if strings.Contains(tokens[2], "Q") {
		cr |= WhiteQueenSide
	}
	if strings.Contains(tokens[2], "k") {
		cr |= BlackKingSide
	}
	if strings.Contains(tokens[2], "q") {
		cr |= BlackQueenSide
	}

	var epSquare = ParseSquare(tokens[3])

	var rule50 = 0
	if len(tokens) > 4 {
		rule50, _ = strconv.Atoi(tokens[4])
	}
	var fullMove = 1
	if len(tokens) > 5 {
		if n, err := strconv.Atoi(tokens[5]); err == nil && n > 0 {
			fullMove = n
		}
	}

	var pos, ok = createPosition(board, whiteMove, cr, epSquare, rule50, fullMove)
	if !ok {
		return Position{}, &ParseError{Input: fen, Msg: "side not to move is in check"}
	}
	return pos, nil
}

// WriteFEN serializes p into FEN notation.
func (p *Position) WriteFEN() string {
	var sb bytes.Buffer
	var emptyCount = 0
	for i := 0; i < 64; i++ {
		var sq = FlipSquare(i)
		var piece = p.WhatPiece(sq)
		if piece == Empty {
			emptyCount++
		} else {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			var white = (p.White & squareMask[sq]) != 0
			sb.WriteString(pieceToChar(piece, white))
		}
		if File(sq) == FileH {
			if emptyCount != 0 {
				sb.WriteString(strconv.Itoa(emptyCount))
				emptyCount = 0
			}
			if Rank(sq) != Rank1 {
				sb.WriteString("/")
			}
		}
	}
	sb.WriteString(" ")
	if p.WhiteMove {
		sb.WriteString("w")
	} else {
		sb.WriteString("b")
	}
	sb.WriteString(" ")
	if p.CastleRights == 0 {
		sb.WriteString("-")
	} else {
		if p.CastleRights&WhiteKingSide != 0 {
			sb.WriteString("K")
		}
		if p.CastleRights&WhiteQueenSide != 0 {
			sb.WriteString("Q")
		}
		if p.CastleRights&BlackKingSide != 0 {
			sb.WriteString("k")
		}
		if p.CastleRights&BlackQueenSide != 0 {
			sb.WriteString("q")
		}
	}
	sb.WriteString(" ")
	if p.EpSquare == SquareNone {
		sb.WriteString("-")
	} else {
		sb.WriteString(SquareName(p.EpSquare))
	}
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(p.Rule50))
	sb.WriteString(" ")
	sb.WriteString(strconv.Itoa(p.FullMove))
	return sb.String()
}

func pieceToChar(pieceType int, white bool) string {
	var result = string("pnbrqk"[pieceType-Pawn])
	if white {
		result = strings.ToUpper(result)
	}
	return result
}

// MirrorPosition returns p with colors swapped and the board flipped
// top-to-bottom — used by evaluation-symmetry tests.
func MirrorPosition(p *Position) Position {
	var board [64]coloredPiece
	for i := 0; i < 64; i++ {
		var pt, white = p.PieceTypeAndSide(i)
		if pt != Empty {
			board[FlipSquare(i)] = coloredPiece{pt, !white}
		}
	}
	var cr = (p.CastleRights >> 2) | ((p.CastleRights & 3) << 2)
	var ep = SquareNone
	if p.EpSquare != SquareNone {
		ep = FlipSquare(p.EpSquare)
	}
	var mirrored, _ = createPosition(board, !p.WhiteMove, cr, ep, p.Rule50, p.FullMove)
	return mirrored
}

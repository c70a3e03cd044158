package chess

import "golang.org/x/exp/slices"

const (
	f1g1Mask = (uint64(1) << SquareF1) | (uint64(1) << SquareG1)
	b1d1Mask = (uint64(1) << SquareB1) | (uint64(1) << SquareC1) | (uint64(1) << SquareD1)
	f8g8Mask = (uint64(1) << SquareF8) | (uint64(1) << SquareG8)
	b8d8Mask = (uint64(1) << SquareB8) | (uint64(1) << SquareC8) | (uint64(1) << SquareD8)
)

var (
	whiteKingSideCastle  = makeMove(SquareE1, SquareG1, King, Empty)
	whiteQueenSideCastle = makeMove(SquareE1, SquareC1, King, Empty)
	blackKingSideCastle  = makeMove(SquareE8, SquareG8, King, Empty)
	blackQueenSideCastle = makeMove(SquareE8, SquareC8, King, Empty)
)

func addPromotions(ml []OrderedMove, move Move) int {
	ml[0] = OrderedMove{Move: move ^ Move(Queen<<18)}
	ml[1] = OrderedMove{Move: move ^ Move(Rook<<18)}
	ml[2] = OrderedMove{Move: move ^ Move(Bishop<<18)}
	ml[3] = OrderedMove{Move: move ^ Move(Knight<<18)}
	return 4
}

func cond(ok bool, yes, no int) int {
	if ok {
		return yes
	}
	return no
}

// moveOrderValue is a plain material scale used only to rank captures for
// the move list's fixed order, independent of the search's own history/SEE
// based ordering in pkg/engine.
var moveOrderValue = [King + 1]int{
	Empty:  0,
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   0,
}

// sortDeterministic imposes the spec's fixed, implementation-independent
// move order on a generated move list: captures first by most-valuable-
// victim/least-valuable-attacker, then quiet moves ordered by the tuple
// (moving piece type, from square, to square). This makes GenerateMoves's
// output reproducible across runs and platforms, which pkg/engine's own
// search-time reordering (moveiterator.go's history/SEE based sortMoves)
// does not need to preserve and does not.
func sortDeterministic(ml []OrderedMove) {
	slices.SortFunc(ml, func(a, b OrderedMove) int {
		var ac, bc = a.Move.IsCapture(), b.Move.IsCapture()
		if ac != bc {
			if ac {
				return -1
			}
			return 1
		}
		if ac {
			var av, bv = moveOrderValue[a.Move.CapturedPiece()], moveOrderValue[b.Move.CapturedPiece()]
			if av != bv {
				return bv - av
			}
			var aa, ba = moveOrderValue[a.Move.MovingPiece()], moveOrderValue[b.Move.MovingPiece()]
			if aa != ba {
				return aa - ba
			}
		}
		if d := a.Move.MovingPiece() - b.Move.MovingPiece(); d != 0 {
			return d
		}
		if d := a.Move.From() - b.Move.From(); d != 0 {
			return d
		}
		return a.Move.To() - b.Move.To()
	})
}

// GenerateMoves produces the pseudo-legal moves from p into buffer (which
// must have capacity MaxMoves) and returns the filled prefix. When the side
// to move is in check, knight, bishop, rook and queen moves are generated
// only onto a checking piece or a square between the first checker and the
// king; pawn and king moves are not narrowed this way. Moves are
// pseudo-legal only: a move that leaves the mover's own king in check may
// still appear here, filtered later by MakeMove's legality check.
func (p *Position) GenerateMoves(buffer []OrderedMove) []OrderedMove {
	var count = 0
	var fromBB, toBB, ownPieces, oppPieces uint64
	var from, to int

	if p.WhiteMove {
		ownPieces, oppPieces = p.White, p.Black
	} else {
		ownPieces, oppPieces = p.Black, p.White
	}

	var target = ^ownPieces
	if p.Checkers != 0 {
		var kingSq = FirstOne(p.Kings & ownPieces)
		target = p.Checkers | betweenMask[FirstOne(p.Checkers)][kingSq]
	}

	var allPieces = p.White | p.Black

	if p.EpSquare != SquareNone {
		for fromBB = PawnAttacks(p.EpSquare, !p.WhiteMove) & p.Pawns & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			buffer[count] = OrderedMove{Move: makeMove(from, p.EpSquare, Pawn, Pawn)}
			count++
		}
	}

	if p.WhiteMove {
		for fromBB = p.Pawns & ownPieces & ^Rank7Mask; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			if (squareMask[from+8] & allPieces) == 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from+8, Pawn, Empty)}
				count++
				if Rank(from) == Rank2 && (squareMask[from+16]&allPieces) == 0 {
					buffer[count] = OrderedMove{Move: makeMove(from, from+16, Pawn, Empty)}
					count++
				}
			}
			if File(from) > FileA && (squareMask[from+7]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from+7, Pawn, p.WhatPiece(from+7))}
				count++
			}
			if File(from) < FileH && (squareMask[from+9]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from+9, Pawn, p.WhatPiece(from+9))}
				count++
			}
		}
		for fromBB = p.Pawns & ownPieces & Rank7Mask; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			if (squareMask[from+8] & allPieces) == 0 {
				count += addPromotions(buffer[count:], makeMove(from, from+8, Pawn, Empty))
			}
			if File(from) > FileA && (squareMask[from+7]&oppPieces) != 0 {
				count += addPromotions(buffer[count:], makeMove(from, from+7, Pawn, p.WhatPiece(from+7)))
			}
			if File(from) < FileH && (squareMask[from+9]&oppPieces) != 0 {
				count += addPromotions(buffer[count:], makeMove(from, from+9, Pawn, p.WhatPiece(from+9)))
			}
		}
	} else {
		for fromBB = p.Pawns & ownPieces & ^Rank2Mask; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			if (squareMask[from-8] & allPieces) == 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from-8, Pawn, Empty)}
				count++
				if Rank(from) == Rank7 && (squareMask[from-16]&allPieces) == 0 {
					buffer[count] = OrderedMove{Move: makeMove(from, from-16, Pawn, Empty)}
					count++
				}
			}
			if File(from) > FileA && (squareMask[from-9]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from-9, Pawn, p.WhatPiece(from-9))}
				count++
			}
			if File(from) < FileH && (squareMask[from-7]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makeMove(from, from-7, Pawn, p.WhatPiece(from-7))}
				count++
			}
		}
		for fromBB = p.Pawns & ownPieces & Rank2Mask; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			if (squareMask[from-8] & allPieces) == 0 {
				count += addPromotions(buffer[count:], makeMove(from, from-8, Pawn, Empty))
			}
			if File(from) > FileA && (squareMask[from-9]&oppPieces) != 0 {
				count += addPromotions(buffer[count:], makeMove(from, from-9, Pawn, p.WhatPiece(from-9)))
			}
			if File(from) < FileH && (squareMask[from-7]&oppPieces) != 0 {
				count += addPromotions(buffer[count:], makeMove(from, from-7, Pawn, p.WhatPiece(from-7)))
			}
		}
	}

	for fromBB = p.Knights & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = KnightAttacksFrom(from) & target; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Knight, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Bishops & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = BishopAttacks(from, allPieces) & target; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Bishop, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Rooks & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = RookAttacks(from, allPieces) & target; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Rook, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Queens & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = QueenAttacks(from, allPieces) & target; toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Queen, p.WhatPiece(to))}
			count++
		}
	}

	from = FirstOne(p.Kings & ownPieces)
	for toBB = KingAttacksFrom(from) &^ ownPieces; toBB != 0; toBB &= toBB - 1 {
		to = FirstOne(toBB)
		buffer[count] = OrderedMove{Move: makeMove(from, to, King, p.WhatPiece(to))}
		count++
	}

	if p.WhiteMove {
		if (p.CastleRights&WhiteKingSide) != 0 && (allPieces&f1g1Mask) == 0 &&
			!p.isAttackedBySide(SquareE1, false) && !p.isAttackedBySide(SquareF1, false) {
			buffer[count] = OrderedMove{Move: whiteKingSideCastle}
			count++
		}
		if (p.CastleRights&WhiteQueenSide) != 0 && (allPieces&b1d1Mask) == 0 &&
			!p.isAttackedBySide(SquareE1, false) && !p.isAttackedBySide(SquareD1, false) {
			buffer[count] = OrderedMove{Move: whiteQueenSideCastle}
			count++
		}
	} else {
		if (p.CastleRights&BlackKingSide) != 0 && (allPieces&f8g8Mask) == 0 &&
			!p.isAttackedBySide(SquareE8, true) && !p.isAttackedBySide(SquareF8, true) {
			buffer[count] = OrderedMove{Move: blackKingSideCastle}
			count++
		}
		if (p.CastleRights&BlackQueenSide) != 0 && (allPieces&b8d8Mask) == 0 &&
			!p.isAttackedBySide(SquareE8, true) && !p.isAttackedBySide(SquareD8, true) {
			buffer[count] = OrderedMove{Move: blackQueenSideCastle}
			count++
		}
	}

	var result = buffer[:count]
	sortDeterministic(result)
	return result
}

// GenerateCaptures produces pseudo-legal captures and, if genChecks, also
// quiet checking moves. Used by quiescence search.
func (p *Position) GenerateCaptures(buffer []OrderedMove, genChecks bool) []OrderedMove {
	var count = 0
	var fromBB, toBB, ownPieces, oppPieces uint64
	var from, to, promotion int

	if p.WhiteMove {
		ownPieces, oppPieces = p.White, p.Black
	} else {
		ownPieces, oppPieces = p.Black, p.White
	}

	var target = oppPieces
	var allPieces = p.White | p.Black

	if p.EpSquare != SquareNone {
		for fromBB = PawnAttacks(p.EpSquare, !p.WhiteMove) & p.Pawns & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			buffer[count] = OrderedMove{Move: makeMove(from, p.EpSquare, Pawn, Pawn)}
			count++
		}
	}

	if p.WhiteMove {
		fromBB = (AllBlackPawnAttacks(oppPieces) | Rank7Mask) & p.Pawns & p.White
		for ; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			promotion = cond(Rank(from) == Rank7, Queen, Empty)
			if Rank(from) == Rank7 && (squareMask[from+8]&allPieces) == 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from+8, Empty, promotion)}
				count++
			}
			if File(from) > FileA && (squareMask[from+7]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from+7, p.WhatPiece(from+7), promotion)}
				count++
			}
			if File(from) < FileH && (squareMask[from+9]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from+9, p.WhatPiece(from+9), promotion)}
				count++
			}
		}
	} else {
		fromBB = (AllWhitePawnAttacks(oppPieces) | Rank2Mask) & p.Pawns & p.Black
		for ; fromBB != 0; fromBB &= fromBB - 1 {
			from = FirstOne(fromBB)
			promotion = cond(Rank(from) == Rank2, Queen, Empty)
			if Rank(from) == Rank2 && (squareMask[from-8]&allPieces) == 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from-8, Empty, promotion)}
				count++
			}
			if File(from) > FileA && (squareMask[from-9]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from-9, p.WhatPiece(from-9), promotion)}
				count++
			}
			if File(from) < FileH && (squareMask[from-7]&oppPieces) != 0 {
				buffer[count] = OrderedMove{Move: makePawnMove(from, from-7, p.WhatPiece(from-7), promotion)}
				count++
			}
		}
	}

	var checksN, checksB, checksR, checksQ uint64
	if genChecks {
		var oppKing = FirstOne(p.Kings & oppPieces)
		checksN = KnightAttacksFrom(oppKing) &^ allPieces
		checksB = BishopAttacks(oppKing, allPieces) &^ allPieces
		checksR = RookAttacks(oppKing, allPieces) &^ allPieces
		checksQ = checksB | checksR

		for fromBB = (p.Rooks | p.Queens) & ownPieces & rookPseudoAttacks[oppKing]; fromBB != 0; fromBB &= fromBB - 1 {
			var blockers = betweenMask[FirstOne(fromBB)][oppKing] & allPieces
			if blockers != 0 && blockers&(blockers-1) == 0 && (blockers&ownPieces) != 0 {
				from = FirstOne(blockers)
				var piece = p.WhatPiece(from)
				if piece == Knight {
					for toBB = KnightAttacksFrom(from) &^ allPieces &^ checksN; toBB != 0; toBB &= toBB - 1 {
						to = FirstOne(toBB)
						buffer[count] = OrderedMove{Move: makeMove(from, to, Knight, p.WhatPiece(to))}
						count++
					}
				} else if piece == Bishop {
					for toBB = BishopAttacks(from, allPieces) &^ allPieces &^ checksB; toBB != 0; toBB &= toBB - 1 {
						to = FirstOne(toBB)
						buffer[count] = OrderedMove{Move: makeMove(from, to, Bishop, p.WhatPiece(to))}
						count++
					}
				}
			}
		}

		for fromBB = (p.Bishops | p.Queens) & ownPieces & bishopPseudoAttacks[oppKing]; fromBB != 0; fromBB &= fromBB - 1 {
			var blockers = betweenMask[FirstOne(fromBB)][oppKing] & allPieces
			if blockers != 0 && blockers&(blockers-1) == 0 && (blockers&ownPieces) != 0 {
				from = FirstOne(blockers)
				var piece = p.WhatPiece(from)
				if piece == Knight {
					for toBB = KnightAttacksFrom(from) &^ allPieces &^ checksN; toBB != 0; toBB &= toBB - 1 {
						to = FirstOne(toBB)
						buffer[count] = OrderedMove{Move: makeMove(from, to, Knight, p.WhatPiece(to))}
						count++
					}
				} else if piece == Rook {
					for toBB = RookAttacks(from, allPieces) &^ allPieces &^ checksR; toBB != 0; toBB &= toBB - 1 {
						to = FirstOne(toBB)
						buffer[count] = OrderedMove{Move: makeMove(from, to, Rook, p.WhatPiece(to))}
						count++
					}
				} else if piece == Pawn {
					if p.WhiteMove {
						if (allPieces&squareMask[from+8]) == 0 && Rank(from) != Rank7 &&
							(squareMask[from+8]&PawnAttacks(oppKing, false)) == 0 {
							buffer[count] = OrderedMove{Move: makeMove(from, from+8, Pawn, Empty)}
							count++
						}
					} else {
						if (allPieces&squareMask[from-8]) == 0 && Rank(from) != Rank2 &&
							(squareMask[from-8]&PawnAttacks(oppKing, true)) == 0 {
							buffer[count] = OrderedMove{Move: makeMove(from, from-8, Pawn, Empty)}
							count++
						}
					}
				}
			}
		}
	}

	for fromBB = p.Knights & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = KnightAttacksFrom(from) & (target | checksN); toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Knight, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Bishops & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = BishopAttacks(from, allPieces) & (target | checksB); toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Bishop, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Rooks & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = RookAttacks(from, allPieces) & (target | checksR); toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Rook, p.WhatPiece(to))}
			count++
		}
	}

	for fromBB = p.Queens & ownPieces; fromBB != 0; fromBB &= fromBB - 1 {
		from = FirstOne(fromBB)
		for toBB = QueenAttacks(from, allPieces) & (target | checksQ); toBB != 0; toBB &= toBB - 1 {
			to = FirstOne(toBB)
			buffer[count] = OrderedMove{Move: makeMove(from, to, Queen, p.WhatPiece(to))}
			count++
		}
	}

	from = FirstOne(p.Kings & ownPieces)
	for toBB = KingAttacksFrom(from) & target; toBB != 0; toBB &= toBB - 1 {
		to = FirstOne(toBB)
		buffer[count] = OrderedMove{Move: makeMove(from, to, King, p.WhatPiece(to))}
		count++
	}

	return buffer[:count]
}

// GenerateLegalMoves returns every fully legal move from p. It is a
// convenience wrapper over GenerateMoves for callers outside the search hot
// path (UCI position setup, SAN, proof-game filtering) where the cost of
// trying MakeMove on every pseudo-legal move is immaterial.
func (p *Position) GenerateLegalMoves() []Move {
	var buffer [MaxMoves]OrderedMove
	var ml = p.GenerateMoves(buffer[:])
	var legal = make([]Move, 0, len(ml))
	for _, om := range ml {
		if _, ok := p.MakeMove(om.Move); ok {
			legal = append(legal, om.Move)
		}
	}
	return legal
}

package eval

import "github.com/kestrelchess/engine/pkg/chess"

func southFill(b uint64) uint64 {
	b |= b >> 8
	b |= b >> 16
	b |= b >> 32
	return b
}

func northFill(b uint64) uint64 {
	b |= b << 8
	b |= b << 16
	b |= b << 32
	return b
}

// pawnCtrlSquares returns, of the squares in mask, those effectively
// controlled by white given the pawns in wPawns/bPawns: squares no black
// pawn attacks, squares one black pawn attacks but at least one white pawn
// defends, and squares two white pawns attack. Ported in spirit from
// Texel's wPawnCtrlSquares (original_source/lib/texellib/evaluate.cpp).
func pawnCtrlSquares(mask, wPawns, bPawns uint64) uint64 {
	var wl = (wPawns &^ chess.FileAMask) << 7
	var wr = (wPawns &^ chess.FileHMask) << 9
	var bl = (bPawns &^ chess.FileAMask) >> 9
	var br = (bPawns &^ chess.FileHMask) >> 7
	return (mask &^ bl &^ br) |
		(mask & (bl ^ br) & (wl | wr)) |
		(mask & wl & wr)
}

func pawnCtrlSquaresBlack(mask, wPawns, bPawns uint64) uint64 {
	var bl = (bPawns &^ chess.FileAMask) >> 9
	var br = (bPawns &^ chess.FileHMask) >> 7
	var wl = (wPawns &^ chess.FileAMask) << 7
	var wr = (wPawns &^ chess.FileHMask) << 9
	return (mask &^ wl &^ wr) |
		(mask & (wl ^ wr) & (bl | br)) |
		(mask & bl & br)
}

// computeStalePawns identifies pawns on both sides that are permanently
// fixed — neither side can ever safely advance or capture past them — and
// therefore contribute no dynamic potential to the position. The static
// evaluation discounts a position's score toward zero as the count of
// stale pawns grows, since such structures tend to lead to fortress draws
// that a raw material/PST score overrates. Ported in spirit (not
// comment-for-comment) from Evaluate::computeStalePawns in
// original_source/lib/texellib/evaluate.cpp.
func computeStalePawns(wPawns, bPawns uint64) uint64 {
	var wStale uint64
	{
		var ctrl = pawnCtrlSquares(wPawns, wPawns, bPawns)
		for i := 0; i < 4; i++ {
			ctrl |= pawnCtrlSquares((ctrl<<8)&^bPawns, ctrl, bPawns)
		}
		ctrl &^= chess.Rank8Mask
		var ctrlL = (ctrl &^ chess.FileAMask) << 7
		var ctrlR = (ctrl &^ chess.FileHMask) << 9

		var bl = (bPawns &^ chess.FileAMask) >> 9
		var br = (bPawns &^ chess.FileHMask) >> 7
		var active = (bl ^ br) | (bl & br & (ctrlL | ctrlR))
		for i := 0; i < 4; i++ {
			active |= (active &^ (wPawns | bPawns)) >> 8
		}
		wStale = wPawns &^ active
	}

	var bStale uint64
	{
		var ctrl = pawnCtrlSquaresBlack(bPawns, wPawns, bPawns)
		for i := 0; i < 4; i++ {
			ctrl |= pawnCtrlSquaresBlack((ctrl>>8)&^wPawns, wPawns, ctrl)
		}
		ctrl &^= chess.Rank1Mask
		var ctrlL = (ctrl &^ chess.FileAMask) >> 9
		var ctrlR = (ctrl &^ chess.FileHMask) >> 7

		var wl = (wPawns &^ chess.FileAMask) << 7
		var wr = (wPawns &^ chess.FileHMask) << 9
		var active = (wl ^ wr) | (wl & wr & (ctrlL | ctrlR))
		for i := 0; i < 4; i++ {
			active |= (active &^ (wPawns | bPawns)) << 8
		}
		bStale = bPawns &^ active
	}

	return wStale | bStale
}

// stalePawnFactor discounts the evaluation toward zero as more pawns on the
// board are locked in a stale structure (index = count of stale pawns).
var stalePawnFactor = [17]int{
	128, 125, 121, 117, 112, 106, 100, 94, 88,
	82, 76, 70, 64, 58, 52, 46, 40,
}

// passedPawns returns, for the given side, the set of that side's pawns
// that face no enemy pawn on the same or an adjacent file ahead of them.
func passedPawns(white bool, ownPawns, enemyPawns uint64) uint64 {
	if white {
		var front = northFill(enemyPawns | (ownPawns << 8))
		var span = front | ((front &^ chess.FileAMask) >> 1) | ((front &^ chess.FileHMask) << 1)
		return ownPawns &^ span
	}
	var front = southFill(enemyPawns | (ownPawns >> 8))
	var span = front | ((front &^ chess.FileAMask) >> 1) | ((front &^ chess.FileHMask) << 1)
	return ownPawns &^ span
}

var passedPawnBonus = [8]Score{
	S(0, 0), S(0, 10), S(2, 20), S(6, 35),
	S(14, 55), S(30, 85), S(55, 120), S(0, 0),
}

type pawnEntry struct {
	wPawns, bPawns uint64
	score          Score
	passed         uint64
	staleCount     int
}

// pawnHashTable caches pawn-structure-only evaluation keyed by the pawn
// bitboards of both sides, avoiding recomputing passed/stale/isolated pawn
// detection on every node — the same caching idea as the teacher's
// kingpawnTable in pkg/eval/counter/evaluation.go, narrowed to pawns alone
// since king position is folded into PST scoring directly here.
type pawnHashTable struct {
	entries []pawnEntry
}

func newPawnHashTable(bits uint) *pawnHashTable {
	return &pawnHashTable{entries: make([]pawnEntry, 1<<bits)}
}

func pawnHashKey(wPawns, bPawns uint64) uint64 {
	const mul = 0x9E3779B97F4A7C15
	return (wPawns*mul ^ bPawns) * mul
}

func (t *pawnHashTable) get(wPawns, bPawns uint64) pawnEntry {
	var key = pawnHashKey(wPawns, bPawns)
	var e = &t.entries[key&uint64(len(t.entries)-1)]
	if e.wPawns == wPawns && e.bPawns == bPawns {
		return *e
	}
	var passedW = passedPawns(true, wPawns, bPawns)
	var passedB = passedPawns(false, bPawns, wPawns)
	var stale = computeStalePawns(wPawns, bPawns) &^ passedW &^ passedB

	var s Score
	for x := passedW; x != 0; x &= x - 1 {
		s += passedPawnBonus[chess.Rank(chess.FirstOne(x))]
	}
	for x := passedB; x != 0; x &= x - 1 {
		s -= passedPawnBonus[7-chess.Rank(chess.FirstOne(x))]
	}
	for x := wPawns; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		if adjacentFilesMask[chess.File(sq)]&wPawns == 0 {
			s -= S(12, 16)
		}
		if chess.PopCount(chess.FileMask[chess.File(sq)]&wPawns) > 1 {
			s -= S(10, 20)
		}
	}
	for x := bPawns; x != 0; x &= x - 1 {
		var sq = chess.FirstOne(x)
		if adjacentFilesMask[chess.File(sq)]&bPawns == 0 {
			s += S(12, 16)
		}
		if chess.PopCount(chess.FileMask[chess.File(sq)]&bPawns) > 1 {
			s += S(10, 20)
		}
	}

	*e = pawnEntry{
		wPawns:     wPawns,
		bPawns:     bPawns,
		score:      s,
		passed:     passedW | passedB,
		staleCount: chess.PopCount(stale),
	}
	return *e
}

var adjacentFilesMask [8]uint64

func init() {
	for f := chess.FileA; f <= chess.FileH; f++ {
		if f > chess.FileA {
			adjacentFilesMask[f] |= chess.FileMask[f-1]
		}
		if f < chess.FileH {
			adjacentFilesMask[f] |= chess.FileMask[f+1]
		}
	}
}

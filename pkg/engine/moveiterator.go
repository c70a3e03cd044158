package engine

import "github.com/kestrelchess/engine/pkg/chess"

const sortTableKeyImportant = 100000

type moveIteratorQS struct {
	position *chess.Position
	buffer   []chess.OrderedMove
	count    int
	index    int
}

func (mi *moveIteratorQS) Init() {
	if mi.position.InCheck() {
		mi.count = len(mi.position.GenerateMoves(mi.buffer))
	} else {
		mi.count = len(mi.position.GenerateCaptures(mi.buffer, false))
	}

	for i := 0; i < mi.count; i++ {
		var m = mi.buffer[i].Move
		var score int
		if isCaptureOrPromotion(m) {
			score = 29000 + mvvlva(m)
		} else {
			score = 0
		}
		mi.buffer[i].Score = score
	}

	sortMoves(mi.buffer[:mi.count])
}

func (mi *moveIteratorQS) Reset() {
	mi.index = 0
}

func (mi *moveIteratorQS) Next() chess.Move {
	if mi.index >= mi.count {
		return chess.MoveEmpty
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

// moveIterator orders a position's legal moves for the main search: the
// transposition-table move first, then winning captures, then killers,
// then quiet moves by history score, then losing captures.
type moveIterator struct {
	position  *chess.Position
	buffer    []chess.OrderedMove
	history   historyContext
	transMove chess.Move
	killer1   chess.Move
	killer2   chess.Move
	count     int
	index     int
}

func (mi *moveIterator) Init() {
	mi.count = len(mi.position.GenerateMoves(mi.buffer))

	for i := 0; i < mi.count; i++ {
		var m = mi.buffer[i].Move
		var score int
		if m == mi.transMove {
			score = sortTableKeyImportant + 2000
		} else if isCaptureOrPromotion(m) {
			if seeGEZero(mi.position, m) {
				score = sortTableKeyImportant + 1000 + mvvlva(m)
			} else {
				score = 0 + mvvlva(m)
			}
		} else if m == mi.killer1 {
			score = sortTableKeyImportant + 1
		} else if m == mi.killer2 {
			score = sortTableKeyImportant
		} else {
			score = mi.history.ReadTotal(m)
		}
		mi.buffer[i].Score = score
	}
}

func (mi *moveIterator) Reset() {
	mi.index = 0
}

func (mi *moveIterator) Next() chess.Move {
	if mi.index >= mi.count {
		return chess.MoveEmpty
	}
	const sortMovesIndex = 1
	if mi.index <= sortMovesIndex {
		if mi.index == sortMovesIndex {
			sortMoves(mi.buffer[mi.index:mi.count])
		} else {
			moveToTop(mi.buffer[mi.index:mi.count])
		}
	}
	var m = mi.buffer[mi.index].Move
	mi.index++
	return m
}

var sortPieceValues = [chess.King + 1]int{
	chess.Empty:  0,
	chess.Pawn:   1,
	chess.Knight: 2,
	chess.Bishop: 3,
	chess.Rook:   4,
	chess.Queen:  5,
	chess.King:   6,
}

func mvvlva(move chess.Move) int {
	return 8*(sortPieceValues[move.CapturedPiece()]+
		sortPieceValues[move.Promotion()]) -
		sortPieceValues[move.MovingPiece()]
}

func sortMoves(moves []chess.OrderedMove) {
	for i := 1; i < len(moves); i++ {
		j, t := i, moves[i]
		for ; j > 0 && moves[j-1].Score < t.Score; j-- {
			moves[j] = moves[j-1]
		}
		moves[j] = t
	}
}

func isSorted(moves []chess.OrderedMove) bool {
	for i := 1; i < len(moves); i++ {
		if moves[i-1].Score < moves[i].Score {
			return false
		}
	}
	return true
}

func moveToTop(ml []chess.OrderedMove) {
	var bestIndex = 0
	for i := 1; i < len(ml); i++ {
		if ml[i].Score > ml[bestIndex].Score {
			bestIndex = i
		}
	}
	if bestIndex != 0 {
		ml[0], ml[bestIndex] = ml[bestIndex], ml[0]
	}
}

func skipQuiets(ml []chess.OrderedMove, startIndex, endIndex int) int {
	var i = startIndex
	for j := startIndex; j < endIndex; j++ {
		if !isCaptureOrPromotion(ml[j].Move) {
			if i != j {
				ml[i], ml[j] = ml[j], ml[i]
			}
			i++
		}
	}
	return i
}

package engine

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func TestMvvlvaPrefersCapturingMoreValuablePiece(t *testing.T) {
	var pos, err = chess.ReadFEN("k7/8/3q1r2/8/3Q4/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var takeQueen, perr = chess.ParseLAN(&pos, "d4d6")
	if perr != nil {
		t.Fatal(perr)
	}
	var takeRook, rerr = chess.ParseLAN(&pos, "d4f6")
	if rerr != nil {
		t.Fatal(rerr)
	}
	if mvvlva(takeQueen) <= mvvlva(takeRook) {
		t.Error("capturing a queen should score higher than capturing a rook")
	}
}

func TestSortMovesDescendingByScore(t *testing.T) {
	var moves = []chess.OrderedMove{
		{Move: 1, Score: 5},
		{Move: 2, Score: 20},
		{Move: 3, Score: 10},
	}
	sortMoves(moves)
	if !isSorted(moves) {
		t.Fatal("moves should be sorted")
	}
	if moves[0].Score != 20 || moves[1].Score != 10 || moves[2].Score != 5 {
		t.Errorf("sortMoves order = %+v", moves)
	}
}

func TestMoveToTopBringsBestScoreForward(t *testing.T) {
	var moves = []chess.OrderedMove{
		{Move: 1, Score: 5},
		{Move: 2, Score: 20},
		{Move: 3, Score: 10},
	}
	moveToTop(moves)
	if moves[0].Score != 20 {
		t.Errorf("moveToTop should bring the highest score to index 0, got %+v", moves)
	}
}

func TestSkipQuietsPartitionsQuietsFirst(t *testing.T) {
	var pos, err = chess.ReadFEN("k7/8/3q4/8/3Q4/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var capture, cerr = chess.ParseLAN(&pos, "d4d6")
	if cerr != nil {
		t.Fatal(cerr)
	}
	var quiet, qerr = chess.ParseLAN(&pos, "d4e4")
	if qerr != nil {
		t.Fatal(qerr)
	}
	var moves = []chess.OrderedMove{
		{Move: quiet},
		{Move: capture},
	}
	var n = skipQuiets(moves, 0, len(moves))
	for i := 0; i < n; i++ {
		if isCaptureOrPromotion(moves[i].Move) {
			t.Errorf("skipQuiets left a capture in the quiet prefix: %v", moves[i].Move)
		}
	}
}

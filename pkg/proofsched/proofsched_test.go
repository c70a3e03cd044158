package proofsched

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/proofkernel"
)

func TestSplitPawnMovesExpandsDoublePush(t *testing.T) {
	var kernel = []ExtPkMove{{
		Color: proofkernel.White, MovingPiece: proofkernel.Pawn,
		FromSquare: chess.SquareE2, ToSquare: chess.SquareE4,
		PromotedPiece: NoPiece,
	}}
	var out = splitPawnMoves(kernel)
	if len(out) != 2 {
		t.Fatalf("expected 2 single-step moves, got %d", len(out))
	}
	if out[0].FromSquare != chess.SquareE2 || out[0].ToSquare != chess.SquareE3 {
		t.Errorf("unexpected first step: %+v", out[0])
	}
	if out[1].FromSquare != chess.SquareE3 || out[1].ToSquare != chess.SquareE4 {
		t.Errorf("unexpected second step: %+v", out[1])
	}
}

func TestCombinePawnMovesReassemblesDoublePush(t *testing.T) {
	var split = []ExtPkMove{
		{Color: proofkernel.White, MovingPiece: proofkernel.Pawn,
			FromSquare: chess.SquareE2, ToSquare: chess.SquareE3, PromotedPiece: NoPiece},
		{Color: proofkernel.White, MovingPiece: proofkernel.Pawn,
			FromSquare: chess.SquareE3, ToSquare: chess.SquareE4, PromotedPiece: NoPiece},
	}
	var combined = combinePawnMoves(split)
	if len(combined) != 1 {
		t.Fatalf("expected a single combined move, got %d", len(combined))
	}
	if combined[0].FromSquare != chess.SquareE2 || combined[0].ToSquare != chess.SquareE4 {
		t.Errorf("unexpected combined move: %+v", combined[0])
	}
}

func TestShortestPathAvoidsBlockedSquares(t *testing.T) {
	var blocked = chess.SquareBB(chess.SquareE4)
	var path, ok = shortestPath(chess.SquareE2, chess.SquareE5, blocked)
	if !ok {
		t.Fatal("expected a path to exist around the blocked square")
	}
	for _, sq := range path {
		if sq == chess.SquareE4 {
			t.Fatalf("path should not cross the blocked square: %v", path)
		}
	}
	if path[0] != chess.SquareE2 || path[len(path)-1] != chess.SquareE5 {
		t.Fatalf("path should start/end at from/to: %v", path)
	}
}

func TestImproveReturnsInputUnchangedWhenEmpty(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var out = Improve(nil, pos)
	if len(out) != 0 {
		t.Fatalf("expected no moves, got %d", len(out))
	}
}

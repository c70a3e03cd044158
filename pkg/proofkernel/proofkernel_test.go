package proofkernel

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func mustFEN(t *testing.T, fen string) chess.Position {
	t.Helper()
	var p, err = chess.ReadFEN(fen)
	if err != nil {
		t.Fatalf("ReadFEN(%q): %v", fen, err)
	}
	return p
}

func TestIsGoalTrueWhenPositionsMatch(t *testing.T) {
	var pos = mustFEN(t, chess.InitialPositionFEN)
	var pk = New(&pos, &pos)
	if !pk.IsGoal() {
		t.Fatal("identical initial and goal positions should already be a goal state")
	}
	if pk.minMovesToGoal() != 0 {
		t.Fatalf("minMovesToGoal() = %d, want 0", pk.minMovesToGoal())
	}
}

func TestFindProofKernelSucceedsWhenNoMaterialChangeNeeded(t *testing.T) {
	var pos = mustFEN(t, chess.InitialPositionFEN)
	var pk = New(&pos, &pos)
	var moves, result, err = pk.FindProofKernel()
	if err != nil {
		t.Fatal(err)
	}
	if result != Success {
		t.Fatalf("result = %v, want Success", result)
	}
	if len(moves) != 0 {
		t.Fatalf("expected an empty kernel, got %d moves", len(moves))
	}
}

func TestFindProofKernelOneCaptureNeeded(t *testing.T) {
	var initial = mustFEN(t, chess.InitialPositionFEN)
	// Goal has one fewer black knight than the start position; a single
	// capture of that knight is a valid (if not unique) proof kernel.
	var goal = mustFEN(t, "r1bqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	var pk = New(&initial, &goal)
	if pk.IsGoal() {
		t.Fatal("goal should not be satisfied before any kernel move is applied")
	}
	var moves, result, err = pk.FindProofKernel()
	if err != nil {
		t.Fatal(err)
	}
	if result != Success {
		t.Fatalf("result = %v, want Success (moves so far: %v)", result, moves)
	}
	if len(moves) == 0 {
		t.Fatal("expected at least one kernel move")
	}
}

func TestFindProofKernelRequiresPromotion(t *testing.T) {
	var initial = mustFEN(t, chess.InitialPositionFEN)
	// Goal has one fewer black knight, one fewer white pawn and an extra
	// white queen: reachable only by a pawn capturing the excess knight
	// while promoting to queen, never by a plain capture alone.
	var goal = mustFEN(t, "r1bqkbnr/pppppppp/8/8/3Q4/8/PPP1PPPP/RNBQKBNR w - - 0 1")
	var pk = New(&initial, &goal)
	if pk.IsGoal() {
		t.Fatal("goal should not be satisfied before any kernel move is applied")
	}
	var moves, result, err = pk.FindProofKernel()
	if err != nil {
		t.Fatal(err)
	}
	if result != Success {
		t.Fatalf("result = %v, want Success (moves so far: %v)", result, moves)
	}
	var sawPromotion bool
	for _, m := range moves {
		if m.HasPromotion() {
			sawPromotion = true
		}
	}
	if !sawPromotion {
		t.Fatalf("expected a promoting move among %v", moves)
	}
}

func TestApplyIsReversedByUndo(t *testing.T) {
	var initial = mustFEN(t, chess.InitialPositionFEN)
	var goal = mustFEN(t, "r1bqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	var pk = New(&initial, &goal)
	var before = pk.snapshot()

	var moves, err = pk.generateMoves()
	if err != nil {
		t.Fatal(err)
	}
	if len(moves) == 0 {
		t.Fatal("expected at least one candidate kernel move from the initial state")
	}
	var undo = pk.apply(moves[0])
	pk.undo(moves[0], undo)

	if pk.snapshot() != before {
		t.Fatal("apply followed by undo should restore the original state")
	}
}

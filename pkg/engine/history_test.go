package engine

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func TestHistoryUpdatePrefersGoodMove(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var th = &thread{}
	th.stack[0].position = pos

	var good, gerr = chess.ParseLAN(&pos, "e2e4")
	if gerr != nil {
		t.Fatal(gerr)
	}
	var bad, berr = chess.ParseLAN(&pos, "d2d4")
	if berr != nil {
		t.Fatal(berr)
	}

	var hc = th.getHistoryContext(0)
	hc.Update([]chess.Move{bad, good}, good, 6)

	var goodScore = hc.ReadTotal(good)
	var badScore = hc.ReadTotal(bad)
	if goodScore <= badScore {
		t.Errorf("good move history (%d) should exceed bad move history (%d)", goodScore, badScore)
	}
}

func TestClearHistoryResetsScores(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var th = &thread{}
	th.stack[0].position = pos

	var m, merr = chess.ParseLAN(&pos, "e2e4")
	if merr != nil {
		t.Fatal(merr)
	}

	var hc = th.getHistoryContext(0)
	hc.Update([]chess.Move{m}, m, 6)
	if hc.ReadTotal(m) == 0 {
		t.Fatal("expected a nonzero history score after Update")
	}

	th.clearHistory()
	hc = th.getHistoryContext(0)
	if hc.ReadTotal(m) != 0 {
		t.Error("clearHistory should reset every history score to zero")
	}
}

package engine

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func TestSeeGEWinningCaptureOfUndefendedPawn(t *testing.T) {
	var pos, err = chess.ReadFEN("k7/8/3p4/4Q3/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m, perr = chess.ParseLAN(&pos, "e5d6")
	if perr != nil {
		t.Fatal(perr)
	}
	if !SeeGE(&pos, m, 0) {
		t.Error("capturing a free pawn should be SEE >= 0")
	}
}

func TestSeeGELosingQueenForPawn(t *testing.T) {
	var pos, err = chess.ReadFEN("k7/8/2p5/3p4/4Q3/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m, perr = chess.ParseLAN(&pos, "e4d5")
	if perr != nil {
		t.Fatal(perr)
	}
	if SeeGE(&pos, m, 0) {
		t.Error("trading a queen for a pawn defended by a pawn should be SEE < 0")
	}
}

func TestSeeGEZeroHelper(t *testing.T) {
	var pos, err = chess.ReadFEN("k7/8/3p4/4Q3/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	var m, perr = chess.ParseLAN(&pos, "e5d6")
	if perr != nil {
		t.Fatal(perr)
	}
	if !seeGEZero(&pos, m) {
		t.Error("seeGEZero should match SeeGE(pos, move, 0)")
	}
}

package eval

import (
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func TestEvalStartPositionIsNearZero(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var e = NewService()
	var score = e.EvalPos(&pos)
	if score < -30 || score > 30 {
		t.Errorf("initial position eval = %d, want roughly 0", score)
	}
}

func TestEvalColourSymmetry(t *testing.T) {
	var fens = []string{
		chess.InitialPositionFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	}
	var e = NewService()
	for _, fen := range fens {
		var pos, err = chess.ReadFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var mirrored = chess.MirrorPosition(&pos)
		var a = e.EvalPos(&pos)
		var b = e.EvalPos(&mirrored)
		if a != b {
			t.Errorf("fen %q: eval(%d) != eval(mirrored)(%d)", fen, a, b)
		}
	}
}

func TestSwindleScoreMonotone(t *testing.T) {
	var prev = SwindleScore(0, 0)
	for score := 10; score <= 2000; score += 10 {
		var cur = SwindleScore(score, 0)
		if cur < prev {
			t.Fatalf("SwindleScore(%d,0)=%d is not monotone non-decreasing (prev %d)", score, cur, prev)
		}
		prev = cur
	}
}

func TestSwindleScoreDistToWinSign(t *testing.T) {
	if SwindleScore(0, 5) <= 0 {
		t.Error("positive distToWin should produce a positive swindle score")
	}
	if SwindleScore(0, -5) >= 0 {
		t.Error("negative distToWin should produce a negative swindle score")
	}
}

func TestStalePawnFactorDecreasing(t *testing.T) {
	for i := 1; i < len(stalePawnFactor); i++ {
		if stalePawnFactor[i] > stalePawnFactor[i-1] {
			t.Errorf("stalePawnFactor should be non-increasing, got [%d]=%d > [%d]=%d",
				i, stalePawnFactor[i], i-1, stalePawnFactor[i-1])
		}
	}
}

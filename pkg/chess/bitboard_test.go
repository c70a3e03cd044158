package chess

import "testing"

func TestPopCount(t *testing.T) {
	var tests = []struct {
		b uint64
		n int
	}{
		{0, 0},
		{1, 1},
		{0xFF, 8},
		{^uint64(0), 64},
	}
	for _, test := range tests {
		if got := PopCount(test.b); got != test.n {
			t.Errorf("PopCount(%#x) = %d, want %d", test.b, got, test.n)
		}
	}
}

func TestRookAttacksOpenBoard(t *testing.T) {
	var attacks = RookAttacks(SquareA1, 0)
	if PopCount(attacks) != 14 {
		t.Errorf("rook on a1 with empty board: expected 14 attacked squares, got %d", PopCount(attacks))
	}
}

func TestBishopAttacksOpenBoard(t *testing.T) {
	var attacks = BishopAttacks(SquareD4, 0)
	if PopCount(attacks) != 13 {
		t.Errorf("bishop on d4 with empty board: expected 13 attacked squares, got %d", PopCount(attacks))
	}
}

func TestBetweenBB(t *testing.T) {
	var between = BetweenBB(SquareA1, SquareA8)
	var want = SquareBB(SquareA2) | SquareBB(SquareA3) | SquareBB(SquareA4) |
		SquareBB(SquareA5) | SquareBB(SquareA6) | SquareBB(SquareA7)
	if between != want {
		t.Errorf("BetweenBB(a1,a8) = %#x, want %#x", between, want)
	}
	if BetweenBB(SquareA1, SquareB3) != 0 {
		t.Error("a1 and b3 share no line, BetweenBB should be empty")
	}
}

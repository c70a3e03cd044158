package chess

import "testing"

func TestMoveString(t *testing.T) {
	var m = makeMove(SquareE2, SquareE4, Pawn, Empty)
	if got := m.String(); got != "e2e4" {
		t.Errorf("String() = %q, want e2e4", got)
	}
	var promo = makePawnMove(SquareE7, SquareE8, Empty, Queen)
	if got := promo.String(); got != "e7e8q" {
		t.Errorf("String() = %q, want e7e8q", got)
	}
}

func TestParseLAN(t *testing.T) {
	var p, err = ReadFEN(InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var m, perr = ParseLAN(&p, "e2e4")
	if perr != nil {
		t.Fatal(perr)
	}
	if m.From() != SquareE2 || m.To() != SquareE4 {
		t.Errorf("ParseLAN(e2e4) = %v", m)
	}
	if _, perr := ParseLAN(&p, "e2e5"); perr == nil {
		t.Error("expected ParseError for illegal move e2e5")
	}
}

func TestSANRoundTrip(t *testing.T) {
	var p, err = ReadFEN(InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var m, perr = ParseLAN(&p, "g1f3")
	if perr != nil {
		t.Fatal(perr)
	}
	var san = m.SAN(&p)
	if san != "Nf3" {
		t.Errorf("SAN = %q, want Nf3", san)
	}
	var parsed, serr = ParseSAN(&p, san)
	if serr != nil {
		t.Fatal(serr)
	}
	if parsed != m {
		t.Errorf("ParseSAN(%q) = %v, want %v", san, parsed, m)
	}
}

func TestHashIgnoresCapturedAndMovingPiece(t *testing.T) {
	var a = makeMove(SquareE2, SquareE4, Pawn, Empty)
	var b = makeMove(SquareE2, SquareE4, Knight, Rook)
	if a.Hash() != b.Hash() {
		t.Error("Hash should depend only on from, to and promotion")
	}
}

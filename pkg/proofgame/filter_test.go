package proofgame

import (
	"bufio"
	"strings"
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
)

func newScanner(t *testing.T, s string) *bufio.Scanner {
	t.Helper()
	return bufio.NewScanner(strings.NewReader(s))
}

func TestReadLineParsesFENAndTokens(t *testing.T) {
	var scanner = newScanner(t, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1 legal: proof: e2e4 e7e5\n")
	var line, ok, err = ReadLine(scanner)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a line")
	}
	if line.FEN != chess.InitialPositionFEN {
		t.Errorf("FEN = %q", line.FEN)
	}
	if line.GetStatus() != Legal {
		t.Errorf("status = %v, want Legal", line.GetStatus())
	}
	if got := line.TokenData(InfoProof); len(got) != 2 || got[0] != "e2e4" {
		t.Errorf("proof tokens = %v", got)
	}
}

func TestRoundTripWriteThenRead(t *testing.T) {
	var line = newLine(chess.InitialPositionFEN)
	line.SetTokenData(InfoLegal, []string{})
	line.SetTokenData(InfoProof, []string{"e2e4"})

	var sb strings.Builder
	line.Write(&sb)

	var scanner = newScanner(t, sb.String())
	var parsed, ok, err = ReadLine(scanner)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a line")
	}
	if parsed.GetStatus() != Legal {
		t.Errorf("round-tripped status = %v, want Legal", parsed.GetStatus())
	}
}

func TestFilterFensResolvesStartPositionImmediately(t *testing.T) {
	var f = NewFilter()
	var in = strings.NewReader(chess.InitialPositionFEN + "\n")
	var out strings.Builder
	if err := f.FilterFens(in, &out); err != nil {
		t.Fatal(err)
	}
	var scanner = newScanner(t, out.String())
	var line, ok, err = ReadLine(scanner)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected output line")
	}
	if line.GetStatus() != Legal {
		t.Errorf("status = %v, want Legal for the start position itself", line.GetStatus())
	}
}

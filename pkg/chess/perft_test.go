package chess

import "testing"

// https://www.chessprogramming.org/Perft_Results
func TestPerft(t *testing.T) {
	var tests = []struct {
		fen   string
		depth int
		nodes int
	}{
		{
			fen:   InitialPositionFEN,
			depth: 5,
			nodes: 4865609,
		},
		{
			fen:   "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
			depth: 4,
			nodes: 4085603,
		},
		{
			fen:   "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
			depth: 6,
			nodes: 11030083,
		},
		{
			fen:   "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
			depth: 4,
			nodes: 422333,
		},
		{
			fen:   "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
			depth: 4,
			nodes: 2103487,
		},
	}
	for i, test := range tests {
		var p, err = ReadFEN(test.fen)
		if err != nil {
			t.Fatal(i, err)
		}
		var nodes = perft(p, test.depth)
		if nodes != test.nodes {
			t.Errorf("%d: %s depth %d: expected %d nodes, got %d", i, test.fen, test.depth, test.nodes, nodes)
		}
	}
}

func perft(p Position, depth int) int {
	var result = 0
	var buffer [MaxMoves]OrderedMove
	for _, om := range p.GenerateMoves(buffer[:]) {
		var child, ok = p.MakeMove(om.Move)
		if !ok {
			continue
		}
		if depth > 1 {
			result += perft(child, depth-1)
		} else {
			result++
		}
	}
	return result
}

func TestPerftMatchesLegalMoveCount(t *testing.T) {
	var p, err = ReadFEN(InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var legal = p.GenerateLegalMoves()
	if len(legal) != 20 {
		t.Errorf("expected 20 legal moves from the initial position, got %d", len(legal))
	}
}

func TestMakeUnmakeRoundTrip(t *testing.T) {
	var fens = []string{
		InitialPositionFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	for _, fen := range fens {
		var p, err = ReadFEN(fen)
		if err != nil {
			t.Fatal(err)
		}
		var before = p
		var buffer [MaxMoves]OrderedMove
		for _, om := range p.GenerateMoves(buffer[:]) {
			var check = p
			var undo = Make(&check, om.Move)
			Unmake(&check, om.Move, undo)
			if check != before {
				t.Errorf("fen %q move %s: unmake did not restore original position", fen, om.Move)
			}
		}
	}
}

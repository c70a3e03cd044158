package chess

import "math/rand"

// Key tables are seeded deterministically (fixed PRNG seed) so that two
// processes built from the same source always agree on Zobrist keys — a
// requirement for transposition table sharing across engine instances and
// for reproducible perft/search test fixtures.
var (
	sideKey        uint64
	enpassantKey   [8]uint64
	castlingKey    [16]uint64
	pieceSquareKey [14 * 64]uint64
	materialKey    [14][10]uint64
)

// PieceSquareKey returns the Zobrist key for a colored piece on a square.
func PieceSquareKey(pieceType int, white bool, square int) uint64 {
	return pieceSquareKey[MakePiece(pieceType, white)*64+square]
}

// MaterialKey returns the incremental material-signature key for the count-th
// occurrence (1-based) of a colored piece type, following the usual
// Stockfish-style material key convention.
func MaterialKey(pieceType int, white bool, count int) uint64 {
	return materialKey[MakePiece(pieceType, white)][count]
}

func initZobrist() {
	var r = rand.New(rand.NewSource(0))
	sideKey = r.Uint64()
	for i := range enpassantKey {
		enpassantKey[i] = r.Uint64()
	}
	for i := range pieceSquareKey {
		pieceSquareKey[i] = r.Uint64()
	}
	for i := range materialKey {
		for j := range materialKey[i] {
			materialKey[i][j] = r.Uint64()
		}
	}

	var castle [4]uint64
	for i := range castle {
		castle[i] = r.Uint64()
	}
	for i := range castlingKey {
		for j := 0; j < 4; j++ {
			if (i & (1 << uint(j))) != 0 {
				castlingKey[i] ^= castle[j]
			}
		}
	}
}

func init() {
	initZobrist()
}

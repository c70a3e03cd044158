// Package proofkernel searches for a proof kernel: a sequence of capture and
// promotion moves, abstracted away from concrete squares, that transforms
// the material inventory of a starting position into the material inventory
// of a goal position. The existence of a proof kernel is a necessary but not
// sufficient condition for a legal game connecting the two positions to
// exist; pkg/proofsched turns a found kernel into concrete moves.
package proofkernel

import (
	"errors"
	"fmt"

	"github.com/kestrelchess/engine/pkg/chess"
)

// ErrNotImplemented marks a proof-kernel search branch this package does not
// yet handle (a superset of piece combinations is never reached by the
// filter's retry ladder in practice, but the case must not be reported as a
// hard failure when it is hit).
var ErrNotImplemented = errors.New("proofkernel: case not implemented")

// PieceColor is White or Black.
type PieceColor int

const (
	White PieceColor = iota
	Black
)

func (c PieceColor) Other() PieceColor {
	if c == White {
		return Black
	}
	return White
}

// PieceType enumerates the kernel's material classes. Bishops are split by
// the color of square they stand on because that determines which
// promotions can replace them.
type PieceType int

const (
	Queen PieceType = iota
	Rook
	DarkBishop
	LightBishop
	Knight
	Pawn
	nPieceTypes
)

func (t PieceType) String() string {
	switch t {
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case DarkBishop:
		return "BD"
	case LightBishop:
		return "BL"
	case Knight:
		return "N"
	case Pawn:
		return "P"
	}
	return "?"
}

// PkMove is one step of a proof kernel: it removes exactly one piece from
// the board, optionally promoting the capturing pawn in the process. String
// renders it as:
//
//	pawn takes pawn             cP0xP@b1    first c-pawn takes the pawn at index 1 of the b column
//	pawn takes piece            cP0xR@c0    first c-pawn takes a rook (recorded on the pawn's own file)
//	pawn takes piece + promotes cP0xR@c0=Q  ... and promotes to queen
//	piece takes pawn            bxP@c0      black piece takes first pawn on c file
//
// The kernel search generates no captures of a promoted pawn and no
// piece-takes-piece captures.
type PkMove struct {
	Color              PieceColor
	FromFile           int // file of the moving pawn, or -1 if not a pawn move
	FromIdx            int // index within the pawn column, or -1 if not a pawn move
	TakenPiece         PieceType
	OtherPromotionFile int // file the captured piece promoted on, or -1
	ToFile             int
	ToIdx              int // insertion index in the target column, or -1 for a non-pawn target
	PromotedPiece      PieceType
}

func (m PkMove) hasPromotion() bool {
	return m.PromotedPiece != nPieceTypes && m.PromotedPiece != Pawn
}

// HasPromotion reports whether m's capturing pawn promotes on this move.
func (m PkMove) HasPromotion() bool {
	return m.hasPromotion()
}

func (m PkMove) String() string {
	var s string
	if m.FromFile >= 0 {
		s = fmt.Sprintf("%cP%d", 'a'+m.FromFile, m.FromIdx)
	} else {
		s = string("wb"[m.Color])
	}
	s += "x" + m.TakenPiece.String()
	s += fmt.Sprintf("@%c%d", 'a'+m.ToFile, m.ToIdx)
	if m.hasPromotion() {
		s += "=" + m.PromotedPiece.String()
	}
	return s
}

// PawnColumn tracks the pawns remaining on one file, ordered from the a1
// side of the board towards a8, plus the file's promotion-square colors
// (constant for the life of the search, so they are computed once).
type PawnColumn struct {
	pawns      []PieceColor
	promSquare [2]squareColor // indexed by PieceColor: color of this file's promotion square
}

type squareColor int

const (
	dark squareColor = iota
	light
)

func newPawnColumn(file int) PawnColumn {
	var col PawnColumn
	if file%2 == 0 {
		col.promSquare[White] = light
		col.promSquare[Black] = dark
	} else {
		col.promSquare[White] = dark
		col.promSquare[Black] = light
	}
	return col
}

func (c *PawnColumn) nPawns() int { return len(c.pawns) }

func (c *PawnColumn) getPawn(i int) PieceColor { return c.pawns[i] }

func (c *PawnColumn) addPawn(i int, color PieceColor) {
	c.pawns = append(c.pawns, White)
	copy(c.pawns[i+1:], c.pawns[i:])
	c.pawns[i] = color
}

func (c *PawnColumn) removePawn(i int) {
	c.pawns = append(c.pawns[:i], c.pawns[i+1:]...)
}

func (c *PawnColumn) promotionSquareType(color PieceColor) squareColor {
	return c.promSquare[color]
}

// nPromotions returns how many pawns of color color stand at the end of the
// column closest to its own promotion rank, with no opposing pawn between
// them and the edge — the pawns that can still reach promotion without a
// capture.
func (c *PawnColumn) nPromotions(color PieceColor) int {
	var n = c.nPawns()
	var cnt int
	if color == White {
		for i := n - 1; i >= 0; i-- {
			if c.getPawn(i) == Black {
				break
			}
			cnt++
		}
	} else {
		for i := 0; i < n; i++ {
			if c.getPawn(i) == White {
				break
			}
			cnt++
		}
	}
	return cnt
}

func (c *PawnColumn) clone() PawnColumn {
	var out = *c
	out.pawns = append([]PieceColor(nil), c.pawns...)
	return out
}

// ProofKernel holds the abstract material state being searched: the pawn
// structure per file and the current and goal piece counts.
type ProofKernel struct {
	columns  [8]PawnColumn
	goalCnt  [2][nPieceTypes]int
	excessCnt [2][nPieceTypes]int // current - goal, maintained incrementally
}

// New builds a ProofKernel from the material and pawn structure of initial
// and the material the goal position requires.
func New(initial, goal *chess.Position) *ProofKernel {
	var pk ProofKernel
	for f := 0; f < 8; f++ {
		pk.columns[f] = newPawnColumn(f)
	}
	var pieceCnt [2][nPieceTypes]int
	posToState(initial, &pk.columns, &pieceCnt)

	var goalColumns [8]PawnColumn
	for f := 0; f < 8; f++ {
		goalColumns[f] = newPawnColumn(f)
	}
	posToState(goal, &goalColumns, &pk.goalCnt)

	for c := 0; c < 2; c++ {
		for p := 0; p < int(nPieceTypes); p++ {
			pk.excessCnt[c][p] = pieceCnt[c][p] - pk.goalCnt[c][p]
		}
	}
	return &pk
}

func posToState(p *chess.Position, columns *[8]PawnColumn, pieceCnt *[2][nPieceTypes]int) {
	for c := 0; c < 2; c++ {
		var white = c == int(White)
		pieceCnt[c][Queen] = chess.PopCount(sideMask(p, chess.Queen, white))
		pieceCnt[c][Rook] = chess.PopCount(sideMask(p, chess.Rook, white))
		pieceCnt[c][Knight] = chess.PopCount(sideMask(p, chess.Knight, white))
		pieceCnt[c][Pawn] = chess.PopCount(sideMask(p, chess.Pawn, white))
		var bishops = sideMask(p, chess.Bishop, white)
		for bishops != 0 {
			var sq = chess.FirstOne(bishops)
			bishops &= bishops - 1
			if squareColorOf(sq) == dark {
				pieceCnt[c][DarkBishop]++
			} else {
				pieceCnt[c][LightBishop]++
			}
		}
	}

	for x := 0; x < 8; x++ {
		for y := 1; y < 7; y++ {
			var sq = chess.MakeSquare(x, y)
			var pieceType, white = p.PieceTypeAndSide(sq)
			if pieceType != chess.Pawn {
				continue
			}
			var color = White
			if !white {
				color = Black
			}
			columns[x].addPawn(columns[x].nPawns(), color)
		}
	}
}

func sideMask(p *chess.Position, pieceType int, white bool) uint64 {
	var mask uint64
	switch pieceType {
	case chess.Pawn:
		mask = p.Pawns
	case chess.Knight:
		mask = p.Knights
	case chess.Bishop:
		mask = p.Bishops
	case chess.Rook:
		mask = p.Rooks
	case chess.Queen:
		mask = p.Queens
	case chess.King:
		mask = p.Kings
	}
	if white {
		return mask & p.White
	}
	return mask & p.Black
}

func squareColorOf(sq int) squareColor {
	var file, rank = chess.File(sq), chess.Rank(sq)
	if (file+rank)%2 == 0 {
		return dark
	}
	return light
}

// IsGoal reports whether the current state already satisfies the goal: no
// non-pawn piece type is in excess of the goal (pawn excess is not
// checked), and for every color the promotions still
// needed (to make up a piece-type deficit) are achievable given the pawns
// remaining on each file, separately for promotions landing on dark and on
// light squares.
func (pk *ProofKernel) IsGoal() bool {
	for c := 0; c < 2; c++ {
		var color = PieceColor(c)
		// Every non-pawn type only disappears from the board through a
		// capture, so any leftover excess there means material still
		// needs to be retired; pawn excess is not checked here since a
		// free pawn covering a deficit below is exactly how the extra
		// pawn gets spent.
		for _, t := range nonPawnTargets {
			if pk.excessCnt[c][t] > 0 {
				return false
			}
		}

		var needed, neededDark, neededLight int
		needed += maxInt(0, -pk.excessCnt[c][Queen])
		needed += maxInt(0, -pk.excessCnt[c][Rook])
		neededDark = maxInt(0, -pk.excessCnt[c][DarkBishop])
		neededLight = maxInt(0, -pk.excessCnt[c][LightBishop])
		needed += neededDark + neededLight
		needed += maxInt(0, -pk.excessCnt[c][Knight])

		var avail, availDark, availLight int
		for i := 0; i < 8; i++ {
			var n = pk.columns[i].nPromotions(color)
			avail += n
			if pk.columns[i].promotionSquareType(color) == dark {
				availDark += n
			} else {
				availLight += n
			}
		}
		if avail < needed || availDark < neededDark || availLight < neededLight {
			return false
		}
	}
	return true
}

// ExcessCount returns the current minus goal count for color and t. A
// negative value is a deficit the goal still needs satisfied, whether by a
// capturing kernel move that promotes or by a pawn left free to promote
// without ever being part of the kernel itself.
func (pk *ProofKernel) ExcessCount(color PieceColor, t PieceType) int {
	return pk.excessCnt[color][t]
}

// PromotableFile reports how many of color's pawns on File can still reach
// their promotion square without a further capture.
type PromotableFile struct {
	File         int
	Count        int
	OnDarkSquare bool
}

// PromotableFiles lists, in file order, every file where color still has
// pawns free to promote in place once the kernel's own captures are done.
func (pk *ProofKernel) PromotableFiles(color PieceColor) []PromotableFile {
	var out []PromotableFile
	for f := 0; f < 8; f++ {
		var n = pk.columns[f].nPromotions(color)
		if n > 0 {
			out = append(out, PromotableFile{
				File:         f,
				Count:        n,
				OnDarkSquare: pk.columns[f].promotionSquareType(color) == dark,
			})
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// minMovesToGoal is an admissible lower bound on the number of further
// kernel moves required: every kernel move removes exactly one piece from
// the board, so the board can never need fewer moves than the number of
// non-pawn pieces still in excess of the goal on either side. Surplus pawns
// are not counted, since IsGoal lets them stand in for promotions without
// any further kernel move.
func (pk *ProofKernel) minMovesToGoal() int {
	var n int
	for c := 0; c < 2; c++ {
		for t := 0; t < int(nPieceTypes); t++ {
			if t == int(Pawn) {
				continue
			}
			if pk.excessCnt[c][t] > 0 {
				n += pk.excessCnt[c][t]
			}
		}
	}
	return n
}

// Result is the tri-state outcome of FindProofKernel.
type Result int

const (
	// Fail means no proof kernel exists: the material configurations are
	// mutually unreachable regardless of move order.
	Fail Result = iota
	// KernelOnly means an abstract kernel exists, but pkg/proofsched could
	// not schedule it onto concrete squares (reported by the caller, not by
	// this package; FindProofKernel itself never returns KernelOnly today).
	KernelOnly
	// Success means a proof kernel was found.
	Success
)

const maxKernelDepth = 24

// state is the search key: everything that determines whether two kernel
// positions are equivalent for goal-reachability purposes.
type state struct {
	columns   [8]string
	excessCnt [2][nPieceTypes]int
}

func (pk *ProofKernel) snapshot() state {
	var s state
	for f := 0; f < 8; f++ {
		var b = make([]byte, pk.columns[f].nPawns())
		for i := range b {
			if pk.columns[f].getPawn(i) == White {
				b[i] = 'w'
			} else {
				b[i] = 'b'
			}
		}
		s.columns[f] = string(b)
	}
	s.excessCnt = pk.excessCnt
	return s
}

// FindProofKernel searches for a sequence of kernel moves transforming the
// current material inventory into the goal inventory. It returns the move
// sequence and Success if one is found, or the longest forced prefix found
// during the search (to aid the filter's diagnostic "forced" token) together
// with Fail if none exists within the search's depth bound.
func (pk *ProofKernel) FindProofKernel() ([]PkMove, Result, error) {
	var visited = make(map[state]bool)
	var best []PkMove
	var seq []PkMove

	var dfs func() (bool, error)
	dfs = func() (bool, error) {
		// Surplus pawns are the only source of promotions, and no kernel
		// move raises a color's pawn excess relative to its non-pawn
		// deficit, so a state whose deficit exceeds its surplus is dead.
		for c := 0; c < 2; c++ {
			var needed int
			for _, t := range nonPawnTargets {
				needed += maxInt(0, -pk.excessCnt[c][t])
			}
			if pk.excessCnt[c][Pawn] < needed {
				return false, nil
			}
		}
		if pk.IsGoal() {
			return true, nil
		}
		if len(seq) >= maxKernelDepth || len(seq)+pk.minMovesToGoal() > maxKernelDepth {
			return false, nil
		}
		var key = pk.snapshot()
		if visited[key] {
			return false, nil
		}
		visited[key] = true

		if len(seq) > len(best) {
			best = append([]PkMove(nil), seq...)
		}

		var moves, err = pk.generateMoves()
		if err != nil {
			return false, err
		}
		for _, m := range moves {
			var undo = pk.apply(m)
			seq = append(seq, m)
			var ok, err = dfs()
			if err != nil {
				seq = seq[:len(seq)-1]
				pk.undo(m, undo)
				return false, err
			}
			if ok {
				return true, nil
			}
			seq = seq[:len(seq)-1]
			pk.undo(m, undo)
		}
		return false, nil
	}

	var ok, err = dfs()
	if err != nil {
		return best, Fail, err
	}
	if ok {
		return append([]PkMove(nil), seq...), Success, nil
	}
	return best, Fail, nil
}

type undoInfo struct {
	fromColumn    int
	fromIdx       int
	fromRemoved   bool
	fromOldColor  PieceColor
	toColumn      int
	toIdx         int
	toInserted    bool
	excessBefore  [2][nPieceTypes]int
}

// apply plays m against the kernel state, mutating it in place, and returns
// the information needed to undo it.
func (pk *ProofKernel) apply(m PkMove) undoInfo {
	var undo undoInfo
	undo.excessBefore = pk.excessCnt
	undo.fromColumn = m.FromFile
	undo.fromIdx = m.FromIdx
	undo.toColumn = m.ToFile
	undo.toIdx = m.ToIdx

	pk.excessCnt[m.Color.Other()][m.TakenPiece]--
	if m.hasPromotion() {
		pk.excessCnt[m.Color][Pawn]--
		pk.excessCnt[m.Color][m.PromotedPiece]++
	}

	if m.FromFile >= 0 {
		undo.fromOldColor = pk.columns[m.FromFile].getPawn(m.FromIdx)
		pk.columns[m.FromFile].removePawn(m.FromIdx)
		undo.fromRemoved = true
		if m.TakenPiece == Pawn {
			pk.columns[m.ToFile].removePawn(m.ToIdx)
		}
		if !m.hasPromotion() {
			// The capturing pawn survives the capture and lands on the
			// destination square; only a promoting capture removes it from
			// the pawn columns for good.
			pk.columns[m.ToFile].addPawn(m.ToIdx, m.Color)
			undo.toInserted = true
		}
	} else if m.TakenPiece == Pawn {
		pk.columns[m.ToFile].removePawn(m.ToIdx)
	}
	return undo
}

func (pk *ProofKernel) undo(m PkMove, u undoInfo) {
	pk.excessCnt = u.excessBefore
	if m.FromFile >= 0 {
		if u.toInserted {
			pk.columns[m.ToFile].removePawn(m.ToIdx)
		}
		if m.TakenPiece == Pawn {
			pk.columns[m.ToFile].addPawn(m.ToIdx, m.Color.Other())
		}
		pk.columns[m.FromFile].addPawn(m.FromIdx, u.fromOldColor)
	} else if m.TakenPiece == Pawn {
		pk.columns[m.ToFile].addPawn(m.ToIdx, m.Color.Other())
	}
}

// nonPawnTargets enumerates the piece types a capturing pawn or piece can
// take, in the fixed order used throughout this package.
var nonPawnTargets = [...]PieceType{Queen, Rook, Knight, DarkBishop, LightBishop}

// promotionChoices lists the piece types color's capturing pawn on file
// could promote to beyond simply taking the piece: every type still in
// deficit against the goal (excessCnt < 0), restricted for bishops to the
// one matching this file's promotion-square color, since a pawn can never
// promote to a bishop of the wrong square color.
func (pk *ProofKernel) promotionChoices(color PieceColor, file int) []PieceType {
	var choices []PieceType
	if pk.excessCnt[color][Queen] < 0 {
		choices = append(choices, Queen)
	}
	if pk.excessCnt[color][Rook] < 0 {
		choices = append(choices, Rook)
	}
	if pk.excessCnt[color][Knight] < 0 {
		choices = append(choices, Knight)
	}
	switch pk.columns[file].promotionSquareType(color) {
	case dark:
		if pk.excessCnt[color][DarkBishop] < 0 {
			choices = append(choices, DarkBishop)
		}
	case light:
		if pk.excessCnt[color][LightBishop] < 0 {
			choices = append(choices, LightBishop)
		}
	}
	return choices
}

// generateMoves enumerates kernel moves available from the current state
// without pruning any of them: pawn takes pawn on an adjacent file, pawn
// takes an opponent piece type that is in excess of the goal, and, for a
// side with a non-pawn piece in excess, piece takes pawn. Piece-takes-piece
// moves are neither generated nor inferred, so excess non-pawn material is
// retired only by pawn captures and IsGoal rejects any that remains. Every
// pawn capture additionally offers a promoting
// variant for each piece type the mover's side is still short of, so a
// target position reachable only via promotion is not silently excluded
// from the search.
func (pk *ProofKernel) generateMoves() ([]PkMove, error) {
	var moves []PkMove

	for _, color := range []PieceColor{White, Black} {
		var opp = color.Other()
		for f := 0; f < 8; f++ {
			var col = &pk.columns[f]
			var promotions = pk.promotionChoices(color, f)
			for i := 0; i < col.nPawns(); i++ {
				if col.getPawn(i) != color {
					continue
				}
				// Pawn takes pawn on an adjacent file, optionally promoting.
				for _, adj := range adjacentFiles(f) {
					var other = &pk.columns[adj]
					for j := 0; j < other.nPawns(); j++ {
						if other.getPawn(j) != opp {
							continue
						}
						moves = append(moves, PkMove{
							Color: color, FromFile: f, FromIdx: i,
							TakenPiece: Pawn, OtherPromotionFile: -1,
							ToFile: adj, ToIdx: j, PromotedPiece: nPieceTypes,
						})
						for _, promoted := range promotions {
							moves = append(moves, PkMove{
								Color: color, FromFile: f, FromIdx: i,
								TakenPiece: Pawn, OtherPromotionFile: -1,
								ToFile: adj, ToIdx: j, PromotedPiece: promoted,
							})
						}
					}
				}
				// Pawn takes an excess non-pawn piece of the opponent,
				// optionally promoting.
				for _, taken := range nonPawnTargets {
					if pk.excessCnt[opp][taken] <= 0 {
						continue
					}
					moves = append(moves, pawnTakesPiece(color, f, i, taken, nPieceTypes))
					for _, promoted := range promotions {
						moves = append(moves, pawnTakesPiece(color, f, i, taken, promoted))
					}
				}
			}
		}
	}

	for _, color := range []PieceColor{White, Black} {
		var opp = color.Other()
		var needsPiece bool
		for _, t := range nonPawnTargets {
			if pk.excessCnt[color][t] > 0 {
				needsPiece = true
				break
			}
		}
		if !needsPiece {
			continue
		}
		for f := 0; f < 8; f++ {
			var other = &pk.columns[f]
			for j := 0; j < other.nPawns(); j++ {
				if other.getPawn(j) != opp {
					continue
				}
				moves = append(moves, PkMove{
					Color: color, FromFile: -1, FromIdx: -1,
					TakenPiece: Pawn, OtherPromotionFile: -1,
					ToFile: f, ToIdx: j, PromotedPiece: nPieceTypes,
				})
			}
		}
	}

	return moves, nil
}

func pawnTakesPiece(color PieceColor, fromFile, fromIdx int, taken, promoted PieceType) PkMove {
	return PkMove{
		Color: color, FromFile: fromFile, FromIdx: fromIdx,
		TakenPiece: taken, OtherPromotionFile: -1,
		ToFile: fromFile, ToIdx: 0, PromotedPiece: promoted,
	}
}

func adjacentFiles(f int) []int {
	switch {
	case f == 0:
		return []int{1}
	case f == 7:
		return []int{6}
	default:
		return []int{f - 1, f + 1}
	}
}

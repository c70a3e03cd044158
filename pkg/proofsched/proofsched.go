// Package proofsched schedules an abstract proof kernel (a sequence of
// proofkernel.PkMove values) onto concrete board squares, producing an
// ordered list of ExtPkMove values suitable for stitching into a concrete
// move sequence by pkg/proofgame.
package proofsched

import (
	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/proofkernel"
)

// ExtPkMove is a PkMove promoted to concrete squares: a kernel move plus the
// exact from/to squares of the moving piece once a physical piece has been
// assigned to it.
type ExtPkMove struct {
	Color         proofkernel.PieceColor
	MovingPiece   proofkernel.PieceType
	FromSquare    int // -1 until a candidate piece has been assigned
	Capture       bool
	ToSquare      int
	PromotedPiece proofkernel.PieceType // nPieceTypes sentinel when none; see HasPromotion
}

// NoPiece is the sentinel PieceType meaning "none assigned yet" or "no
// promotion", mirroring the unexported nPieceTypes bound in proofkernel.
const NoPiece = proofkernel.PieceType(5) + 1

// HasPromotion reports whether m's moving pawn promotes on this move.
func (m ExtPkMove) HasPromotion() bool {
	return m.PromotedPiece != NoPiece && m.PromotedPiece != proofkernel.Pawn
}

func (m ExtPkMove) isNonCapturePawnMove() bool {
	return m.MovingPiece == proofkernel.Pawn && !m.Capture &&
		chess.File(m.FromSquare) == chess.File(m.ToSquare)
}

// node is one move inside the scheduling dependency graph: it carries the
// move itself, an identity stable across graph rewrites (topoSort
// reorders nodes but keeps ids so dependsOn edges survive), and the set of
// earlier moves (by id) that must be played before this one.
type node struct {
	id         int
	move       ExtPkMove
	dependsOn  []int
	pseudoLegal bool
}

// graph is the scheduling DAG used by improveKernel: nodes are candidate
// ExtPkMoves, edges record ordering constraints discovered while trying to
// make each move physically playable.
type graph struct {
	nodes  []node
	nextID int
}

func (g *graph) addNode(m ExtPkMove) {
	var n = node{id: g.nextID, move: m}
	g.nextID++
	if m.MovingPiece == proofkernel.Pawn {
		n.pseudoLegal = true
		if m.Capture && len(g.nodes) > 0 {
			var prev = g.nodes[len(g.nodes)-1]
			if m.ToSquare == prev.move.ToSquare {
				n.dependsOn = append(n.dependsOn, prev.id)
			}
		}
		var mMask = chess.SquareBB(m.FromSquare) | chess.SquareBB(m.ToSquare)
		for i := len(g.nodes) - 1; i >= 0; i-- {
			var prev = g.nodes[i]
			if prev.move.MovingPiece != proofkernel.Pawn {
				continue
			}
			var iMask = chess.SquareBB(prev.move.FromSquare) | chess.SquareBB(prev.move.ToSquare)
			if mMask&iMask != 0 {
				n.dependsOn = append(n.dependsOn, prev.id)
			}
		}
	}
	g.nodes = append(g.nodes, n)
}

// topoSort reorders nodes to respect dependsOn edges, returning false if the
// dependency graph has a cycle (the scheduling attempt that produced it must
// be abandoned).
func (g *graph) topoSort() bool {
	var n = len(g.nodes)
	var visited = make([]bool, n)
	var onPath = make([]bool, n)
	var idToIdx = make(map[int]int, n)
	for i, nd := range g.nodes {
		idToIdx[nd.id] = i
	}

	var result = make([]node, 0, n)
	var visit func(i int) bool
	visit = func(i int) bool {
		if onPath[i] {
			return false
		}
		if visited[i] {
			return true
		}
		visited[i] = true
		onPath[i] = true
		for _, dep := range g.nodes[i].dependsOn {
			if !visit(idToIdx[dep]) {
				return false
			}
		}
		onPath[i] = false
		result = append(result, g.nodes[i])
		return true
	}
	for i := range g.nodes {
		if !visit(i) {
			return false
		}
	}
	g.nodes = result
	return true
}

func (g *graph) clone() *graph {
	var out = &graph{nodes: make([]node, len(g.nodes)), nextID: g.nextID}
	for i, nd := range g.nodes {
		out.nodes[i] = node{id: nd.id, move: nd.move, pseudoLegal: nd.pseudoLegal,
			dependsOn: append([]int(nil), nd.dependsOn...)}
	}
	return out
}

// Improve runs the full extended-kernel scheduling pipeline over kernel:
// splitPawnMoves expands multi-square pawn pushes into single steps,
// improveKernel tries to find from-squares for every piece move consistent
// with a legal move order, and combinePawnMoves merges the split pushes back
// together once ordering is settled.
func Improve(kernel []ExtPkMove, initPos chess.Position) []ExtPkMove {
	if len(kernel) == 0 {
		return kernel
	}

	kernel = splitPawnMoves(kernel)

	var g = &graph{}
	for _, m := range kernel {
		g.addNode(m)
	}

	if improveKernel(g, 0, initPos) {
		var out = make([]ExtPkMove, len(g.nodes))
		for i, nd := range g.nodes {
			out[i] = nd.move
		}
		kernel = out
	}

	return combinePawnMoves(kernel)
}

// splitPawnMoves turns every multi-square non-capture pawn push into a
// sequence of single-step pushes; only the final step keeps the promotion.
func splitPawnMoves(kernel []ExtPkMove) []ExtPkMove {
	var seq []ExtPkMove
	for _, m := range kernel {
		if !m.isNonCapturePawnMove() {
			seq = append(seq, m)
			continue
		}
		var x = chess.File(m.FromSquare)
		var y1 = chess.Rank(m.FromSquare)
		var y2 = chess.Rank(m.ToSquare)
		var d = 1
		if y1 >= y2 {
			d = -1
		}
		for y := y1 + d; y != y2+d; y += d {
			var step = m
			step.FromSquare = chess.MakeSquare(x, y1)
			step.ToSquare = chess.MakeSquare(x, y)
			if y != y2 {
				step.PromotedPiece = NoPiece
			}
			seq = append(seq, step)
			y1 = y
		}
	}
	return seq
}

// combinePawnMoves merges adjacent single-step pawn pushes back into one
// two-square push when both start on the pawn's home rank and land on the
// double-push target square, undoing the splitPawnMoves expansion once the
// move order around them has stabilized.
func combinePawnMoves(kernel []ExtPkMove) []ExtPkMove {
	var seq []ExtPkMove
	for _, m := range kernel {
		var merged bool
		if len(seq) > 0 && m.isNonCapturePawnMove() {
			var m0 = seq[len(seq)-1]
			if m0.isNonCapturePawnMove() &&
				chess.File(m.FromSquare) == chess.File(m0.FromSquare) &&
				chess.Rank(m0.ToSquare) == chess.Rank(m.FromSquare) {
				var y0 = chess.Rank(m0.FromSquare)
				var y1 = chess.Rank(m.ToSquare)
				var white = m.Color == proofkernel.White
				var homeRank, doublePushRank = 1, 3
				if !white {
					homeRank, doublePushRank = 6, 4
				}
				if y0 == homeRank && y1 == doublePushRank {
					var combined = m
					combined.FromSquare = chess.MakeSquare(chess.File(m.FromSquare), y0)
					seq[len(seq)-1] = combined
					merged = true
				}
			}
		}
		if !merged {
			seq = append(seq, m)
		}
	}
	return seq
}

// improveKernel walks the scheduling graph from idx, trying to make every
// piece move physically playable: pawn moves are always accepted as-is,
// piece moves with an unknown moving piece get one assigned by shortest
// path, and piece moves blocked by other material are expanded into a
// shortest-path sequence of single steps, reordering or inserting pawn
// moves earlier in the schedule when that is what unblocks the path.
func improveKernel(g *graph, idx int, pos chess.Position) bool {
	if idx >= len(g.nodes) {
		return true
	}

	var nd = &g.nodes[idx]
	if nd.move.MovingPiece == proofkernel.Pawn {
		var next, ok = makeMove(pos, nd.move)
		if !ok {
			return false
		}
		return improveKernel(g, idx+1, next)
	}

	if nd.pseudoLegal {
		var next, ok = makeMove(pos, nd.move)
		if !ok {
			return false
		}
		return improveKernel(g, idx+1, next)
	}

	if nd.move.FromSquare < 0 {
		if !assignPiece(g, idx, pos) {
			return false
		}
	}

	{
		var blocked = pos.White | pos.Black
		blocked &^= chess.SquareBB(nd.move.ToSquare)
		blocked &^= chess.SquareBB(nd.move.FromSquare)
		var expanded, ok = expandPieceMove(nd.move, blocked)
		if ok {
			var tmp = g.clone()
			replaceNode(tmp, idx, expanded)
			if improveKernel(tmp, idx, pos) {
				*g = *tmp
				return true
			}
		}
	}

	for i := idx + 1; i < len(g.nodes); i++ {
		var em = g.nodes[i].move
		if em.MovingPiece != proofkernel.Pawn || em.HasPromotion() {
			continue
		}
		var tmp = g.clone()
		tmp.nodes[idx].dependsOn = append(tmp.nodes[idx].dependsOn, tmp.nodes[i].id)
		if !tmp.topoSort() {
			continue
		}
		var tmpPos, ok = replayUpTo(tmp, idx, nd.id, pos)
		if !ok {
			continue
		}
		var blocked = tmpPos.White | tmpPos.Black
		blocked &^= chess.SquareBB(nd.move.ToSquare)
		blocked &^= chess.SquareBB(nd.move.FromSquare)
		if expanded, ok := expandPieceMove(nd.move, blocked); ok {
			if !improveKernel(tmp, idx, pos) {
				return false
			}
			_ = expanded
			*g = *tmp
			return true
		}
	}

	for _, pawnMove := range candidatePawnMoves(g, idx, pos) {
		var tmp = g.clone()
		tmp.addNode(pawnMove)
		tmp.nodes[idx].dependsOn = append(tmp.nodes[idx].dependsOn, tmp.nodes[len(tmp.nodes)-1].id)
		if !tmp.topoSort() {
			continue
		}
		var tmpPos, ok = replayUpTo(tmp, idx, nd.id, pos)
		if !ok {
			continue
		}
		var blocked = tmpPos.White | tmpPos.Black
		blocked &^= chess.SquareBB(nd.move.ToSquare)
		blocked &^= chess.SquareBB(nd.move.FromSquare)
		if _, ok := expandPieceMove(nd.move, blocked); ok {
			if !improveKernel(tmp, idx, pos) {
				return false
			}
			*g = *tmp
			return true
		}
	}

	return false
}

func replayUpTo(g *graph, idx int, id int, pos chess.Position) (chess.Position, bool) {
	for i := idx; i < len(g.nodes); i++ {
		if g.nodes[i].id == id {
			break
		}
		var next, ok = makeMove(pos, g.nodes[i].move)
		if !ok {
			return pos, false
		}
		pos = next
	}
	return pos, true
}

func replaceNode(g *graph, idx int, moves []ExtPkMove) {
	if len(moves) == 0 {
		g.nodes = append(g.nodes[:idx], g.nodes[idx+1:]...)
		return
	}
	var oldID = g.nodes[idx].id
	var dependsOn = g.nodes[idx].dependsOn
	g.nodes[idx] = node{id: g.nextID, move: moves[0], pseudoLegal: true, dependsOn: dependsOn}
	g.nextID++

	var toInsert []node
	var prevID = g.nodes[idx].id
	for i := 1; i < len(moves); i++ {
		var n = node{id: g.nextID, move: moves[i], pseudoLegal: true, dependsOn: []int{prevID}}
		g.nextID++
		toInsert = append(toInsert, n)
		prevID = n.id
	}
	var tail = append([]node(nil), g.nodes[idx+1:]...)
	g.nodes = append(g.nodes[:idx+1], append(toInsert, tail...)...)

	for i := range g.nodes {
		for j, d := range g.nodes[i].dependsOn {
			if d == oldID {
				g.nodes[i].dependsOn[j] = prevID
			}
		}
	}
}

// makeMove plays an ExtPkMove against pos, treating it the way the kernel
// scheduler needs to: captures must land on an enemy piece, non-captures
// must land on an empty square, and the mover is always handed back the
// move regardless of whose turn pos records, since kernel scheduling plays
// both colors' moves in an order not yet tied to ply parity.
func makeMove(pos chess.Position, m ExtPkMove) (chess.Position, bool) {
	var capturedType, capturedWhite = pos.PieceTypeAndSide(m.ToSquare)
	if m.Capture {
		if capturedType == chess.Empty || capturedWhite == (m.Color == proofkernel.White) {
			return pos, false
		}
	} else if capturedType != chess.Empty {
		return pos, false
	}
	if m.MovingPiece == NoPiece {
		return pos, false
	}
	return pos, true
}

// assignPiece picks, among the candidate color's non-pawn, non-king pieces
// (castling rooks included), the one nearest the capture square by king
// distance, and binds the move's FromSquare/MovingPiece to it.
func assignPiece(g *graph, idx int, pos chess.Position) bool {
	var m = &g.nodes[idx].move
	var capturedWhite = false
	if capturedType, white := pos.PieceTypeAndSide(m.ToSquare); capturedType != chess.Empty {
		capturedWhite = white
	}
	var whiteMoving = !capturedWhite
	var candidates = pos.White
	if !whiteMoving {
		candidates = pos.Black
	}
	candidates &^= pos.Pawns
	candidates &^= pos.Kings

	var bestDist = -1
	var bestSq = -1
	for candidates != 0 {
		var sq = chess.FirstOne(candidates)
		candidates &= candidates - 1
		var dist = squareDistance(sq, m.ToSquare)
		if dist > 0 && (bestDist < 0 || dist < bestDist) {
			bestDist = dist
			bestSq = sq
		}
	}
	if bestSq < 0 {
		return false
	}
	var pieceType, _ = pos.PieceTypeAndSide(bestSq)
	m.MovingPiece = toPieceType(pieceType, bestSq)
	m.FromSquare = bestSq

	for i := idx + 1; i < len(g.nodes); i++ {
		var next = &g.nodes[i].move
		if next.Color == m.Color && next.MovingPiece == m.MovingPiece && next.FromSquare == m.FromSquare {
			next.FromSquare = m.ToSquare
			break
		}
	}
	return true
}

func squareDistance(a, b int) int {
	var fa, ra = chess.File(a), chess.Rank(a)
	var fb, rb = chess.File(b), chess.Rank(b)
	var df, dr = fa - fb, ra - rb
	if df < 0 {
		df = -df
	}
	if dr < 0 {
		dr = -dr
	}
	if df > dr {
		return df
	}
	return dr
}

func toPieceType(pieceType int, sq int) proofkernel.PieceType {
	switch pieceType {
	case chess.Queen:
		return proofkernel.Queen
	case chess.Rook:
		return proofkernel.Rook
	case chess.Knight:
		return proofkernel.Knight
	case chess.Bishop:
		if (chess.File(sq)+chess.Rank(sq))%2 == 0 {
			return proofkernel.DarkBishop
		}
		return proofkernel.LightBishop
	default:
		return NoPiece
	}
}

// expandPieceMove turns a single abstract piece move into a sequence of
// one-square steps along a path from FromSquare to ToSquare that avoids the
// blocked squares, or reports failure if no such path exists. The
// path-finding itself is a breadth-first search over king-step adjacency, a
// stand-in for the original engine's per-piece shortest-path tables; it
// overestimates knight routes (b1 to c3 is one knight move but two king
// steps).
func expandPieceMove(m ExtPkMove, blocked uint64) ([]ExtPkMove, bool) {
	if m.FromSquare == m.ToSquare {
		return nil, true
	}
	var path, ok = shortestPath(m.FromSquare, m.ToSquare, blocked)
	if !ok {
		return nil, false
	}
	var out []ExtPkMove
	for i := 0; i+1 < len(path); i++ {
		var step = m
		step.FromSquare = path[i]
		step.ToSquare = path[i+1]
		if path[i+1] != m.ToSquare {
			step.Capture = false
		}
		out = append(out, step)
	}
	return out, true
}

func shortestPath(from, to int, blocked uint64) ([]int, bool) {
	if from == to {
		return []int{from}, true
	}
	var prev = make(map[int]int)
	var visited = map[int]bool{from: true}
	var queue = []int{from}
	for len(queue) > 0 {
		var sq = queue[0]
		queue = queue[1:]
		var neighbors = chess.KingAttacksFrom(sq) &^ blocked
		for neighbors != 0 {
			var n = chess.FirstOne(neighbors)
			neighbors &= neighbors - 1
			if visited[n] {
				continue
			}
			visited[n] = true
			prev[n] = sq
			if n == to {
				var path = []int{to}
				for path[0] != from {
					path = append([]int{prev[path[0]]}, path...)
				}
				return path, true
			}
			queue = append(queue, n)
		}
	}
	return nil, false
}

func candidatePawnMoves(_ *graph, _ int, pos chess.Position) []ExtPkMove {
	var occupied = pos.White | pos.Black
	var out []ExtPkMove
	for _, color := range []proofkernel.PieceColor{proofkernel.White, proofkernel.Black} {
		var white = color == proofkernel.White
		var pawns = pos.Pawns
		if white {
			pawns &= pos.White
		} else {
			pawns &= pos.Black
		}
		for pawns != 0 {
			var sq = chess.FirstOne(pawns)
			pawns &= pawns - 1
			var x0, y0 = chess.File(sq), chess.Rank(sq)
			for d := 1; d <= 2; d++ {
				var homeRank = 1
				if !white {
					homeRank = 6
				}
				if d == 2 && y0 != homeRank {
					break
				}
				var y1 = y0 + d
				if !white {
					y1 = y0 - d
				}
				if y1 <= 0 || y1 >= 7 {
					break
				}
				var toSq = chess.MakeSquare(x0, y1)
				if occupied&chess.SquareBB(toSq) != 0 {
					break
				}
				out = append(out, ExtPkMove{
					Color: color, MovingPiece: proofkernel.Pawn,
					FromSquare: sq, Capture: false, ToSquare: toSq,
					PromotedPiece: NoPiece,
				})
			}
		}
	}
	return out
}

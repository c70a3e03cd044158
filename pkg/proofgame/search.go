package proofgame

import (
	"container/heap"

	"github.com/kestrelchess/engine/pkg/chess"
)

// searchNode is one entry in the best-first search frontier: the position
// reached, the move path taken to reach it, and the priority used to order
// the frontier (lower explores first).
type searchNode struct {
	pos      chess.Position
	path     []chess.Move
	priority int
	index    int
}

type nodeHeap []*searchNode

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].priority < h[j].priority }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i]; h[i].index = i; h[j].index = j }
func (h *nodeHeap) Push(x interface{}) {
	var n = x.(*searchNode)
	n.index = len(*h)
	*h = append(*h, n)
}
func (h *nodeHeap) Pop() interface{} {
	var old = *h
	var n = len(old)
	var item = old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}

// materialDistance is an admissible-in-spirit stand-in for the original
// engine's per-piece shortest-path heuristic: the number of squares whose
// occupant differs between pos and goal, halved, since every move changes
// the occupant of at most two squares (the origin and destination).
func materialDistance(pos, goal *chess.Position) int {
	var diff = (pos.White ^ goal.White) | (pos.Black ^ goal.Black) |
		(pos.Pawns ^ goal.Pawns) | (pos.Knights ^ goal.Knights) |
		(pos.Bishops ^ goal.Bishops) | (pos.Rooks ^ goal.Rooks) |
		(pos.Queens ^ goal.Queens) | (pos.Kings ^ goal.Kings)
	return (chess.PopCount(diff) + 1) / 2
}

func samePosition(a, b *chess.Position) bool {
	return a.Key == b.Key
}

// search is a best-first search from start to goal, weighting the distance
// heuristic by weightA and the path length so far by weightB (spec's
// (weightA=1, weightB=5) pair biases the frontier heavily towards short
// paths, trading completeness for speed once the kernel/path stages have
// already bounded how many moves should be needed). It explores at most
// maxNodes positions before giving up.
func search(start, goal chess.Position, weightA, weightB, maxNodes int) ([]chess.Move, bool) {
	if samePosition(&start, &goal) {
		return nil, true
	}

	var frontier nodeHeap
	heap.Init(&frontier)
	heap.Push(&frontier, &searchNode{pos: start, priority: weightA * materialDistance(&start, &goal)})

	var seen = map[uint64]bool{start.Key: true}
	var explored int

	var buffer [chess.MaxMoves]chess.OrderedMove
	for frontier.Len() > 0 && explored < maxNodes {
		var n = heap.Pop(&frontier).(*searchNode)
		explored++

		var moves = n.pos.GenerateMoves(buffer[:])
		for _, om := range moves {
			var next, ok = n.pos.MakeMove(om.Move)
			if !ok {
				continue
			}
			if seen[next.Key] {
				continue
			}
			seen[next.Key] = true

			var path = make([]chess.Move, len(n.path)+1)
			copy(path, n.path)
			path[len(path)-1] = om.Move

			if samePosition(&next, &goal) {
				return path, true
			}

			var priority = weightA*materialDistance(&next, &goal) + weightB*len(path)
			heap.Push(&frontier, &searchNode{pos: next, path: path, priority: priority})
		}
	}
	return nil, false
}

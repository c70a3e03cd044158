package engine

import (
	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine/tt"
)

const pawnValue = 100

func aspirationWindow(t *thread, ml []chess.Move, depth, prevScore int) int {
	t.rootDepth = depth
	var options = &t.engine.Options
	if options.AspirationWindows &&
		depth >= 5 && !(prevScore <= valueLoss || prevScore >= valueWin) {
		const window = 25
		var alpha = max(-valueInfinity, prevScore-window)
		var beta = min(valueInfinity, prevScore+window)
		var score = searchRoot(t, ml, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
		if score >= beta {
			beta = valueInfinity
		}
		if score <= alpha {
			alpha = -valueInfinity
		}
		score = searchRoot(t, ml, alpha, beta, depth)
		if score > alpha && score < beta {
			return score
		}
	}
	return searchRoot(t, ml, -valueInfinity, valueInfinity, depth)
}

func searchRoot(t *thread, ml []chess.Move, alpha, beta, depth int) int {
	const height = 0
	return t.alphaBeta(alpha, beta, depth, height, chess.MoveEmpty)
}

func resolveMoveHash(moves []chess.OrderedMove, n int, hash uint16) chess.Move {
	if hash == 0 {
		return chess.MoveEmpty
	}
	for i := 0; i < n; i++ {
		if uint16(moves[i].Move.Hash()) == hash {
			return moves[i].Move
		}
	}
	return chess.MoveEmpty
}

// alphaBeta is the main search routine, called recursively for every node
// of the tree below the root.
func (t *thread) alphaBeta(alpha, beta, depth, height int, skipMove chess.Move) int {
	if depth <= 0 {
		return t.quiescence(alpha, beta, height)
	}
	t.clearPV(height)

	var rootNode = height == 0
	var pvNode = beta != alpha+1
	var position = &t.stack[height].position
	var isCheck = position.InCheck()
	var ttMoveIsSingular = false

	if !rootNode {
		if height >= maxHeight {
			return t.evaluator.EvalPos(position)
		}
		if t.isRepeat(height) {
			return valueDraw
		}
		if isDraw(position) {
			return valueDraw
		}
		// mate distance pruning
		if winIn(height+1) <= alpha {
			return alpha
		}
		if lossIn(height+2) >= beta && !isCheck {
			return beta
		}

		if t.engine.Tablebase != nil && skipMove == chess.MoveEmpty {
			if r, ok := t.engine.Tablebase.Probe(position, height, alpha, beta); ok {
				if r.Bound == tt.BoundExact ||
					(r.Bound == tt.BoundLower && r.Score >= beta) ||
					(r.Bound == tt.BoundUpper && r.Score <= alpha) {
					return r.Score
				}
			}
		}
	}

	// transposition table
	var (
		ttDepth, ttValue int
		ttBound          tt.Bound
		ttMove           chess.Move
		ttHit            bool
	)
	if skipMove == chess.MoveEmpty {
		if e, ok := t.engine.transTable.Probe(position.Key, height); ok {
			ttHit = true
			ttDepth = e.Depth
			ttValue = e.Score
			ttBound = e.Bound
			var n = len(position.GenerateMoves(t.stack[height].moveList[:]))
			ttMove = resolveMoveHash(t.stack[height].moveList[:], n, e.MoveHash)
		}
	}
	if ttHit {
		if ttDepth >= depth && !pvNode && position.LastMove != chess.MoveEmpty {
			if ttValue >= beta && (ttBound&tt.BoundLower) != 0 {
				if ttMove != chess.MoveEmpty && !isCaptureOrPromotion(ttMove) {
					t.updateKiller(ttMove, height)
				}
				return ttValue
			}
			if ttValue <= alpha && (ttBound&tt.BoundUpper) != 0 {
				return ttValue
			}
		}
	}

	var staticEval = t.evaluator.EvalPos(position)
	t.stack[height].staticEval = staticEval
	var improving = height < 2 || staticEval > t.stack[height-2].staticEval

	var options = &t.engine.Options
	if height+2 <= maxHeight {
		t.stack[height+2].killer1 = chess.MoveEmpty
		t.stack[height+2].killer2 = chess.MoveEmpty
	}

	if !rootNode && skipMove == chess.MoveEmpty {

		// reverse futility pruning
		if options.ReverseFutility && !pvNode && depth <= 8 && !isCheck {
			var score = staticEval - pawnValue*depth
			if score >= beta {
				return staticEval
			}
		}

		// null-move pruning
		if options.NullMovePruning && !pvNode && depth >= 2 && !isCheck &&
			position.LastMove != chess.MoveEmpty &&
			(height <= 1 || t.stack[height-1].position.LastMove != chess.MoveEmpty) &&
			beta < valueWin &&
			!(ttHit && ttValue < beta && (ttBound&tt.BoundUpper) != 0) &&
			!isLateEndgame(position, position.WhiteMove) &&
			staticEval >= beta {
			var reduction = 4 + depth/6 + min(2, (staticEval-beta)/200)
			t.MakeMove(chess.MoveEmpty, height)
			var score = -t.alphaBeta(-beta, -(beta - 1), depth-reduction, height+1, chess.MoveEmpty)
			t.UnmakeMove()
			if score >= beta {
				if score >= valueWin {
					score = beta
				}
				return score
			}
		}

		var probcutBeta = min(valueWin-1, beta+150)
		if options.Probcut && !pvNode && depth >= 5 && !isCheck &&
			beta > valueLoss && beta < valueWin &&
			!(ttHit && ttDepth >= depth-4 && ttValue < probcutBeta && (ttBound&tt.BoundUpper) != 0) {

			var mi = moveIteratorQS{
				position: position,
				buffer:   t.stack[height].moveList[:],
			}
			mi.Init()

			for mi.Reset(); ; {
				var move = mi.Next()
				if move == chess.MoveEmpty {
					break
				}
				if !seeGEZero(position, move) {
					continue
				}
				if !t.MakeMove(move, height) {
					continue
				}
				var score = -t.quiescence(-probcutBeta, -probcutBeta+1, height+1)
				if score >= probcutBeta {
					score = -t.alphaBeta(-probcutBeta, -probcutBeta+1, depth-4, height+1, chess.MoveEmpty)
				}
				t.UnmakeMove()
				if score >= probcutBeta {
					return score
				}
			}
		}

		// singular extension
		if options.SingularExt && depth >= 8 &&
			ttHit && ttMove != chess.MoveEmpty &&
			(ttBound&tt.BoundLower) != 0 && ttDepth >= depth-3 &&
			ttValue > valueLoss && ttValue < valueWin {
			var singularBeta = max(-valueInfinity, ttValue-depth)
			var score = t.alphaBeta(singularBeta-1, singularBeta, depth/2, height, ttMove)
			ttMoveIsSingular = score < singularBeta
		}
	}

	var historyContext = t.getHistoryContext(height)

	var mi = t.initMoveIterator(height, ttMove)
	var killer1 = t.stack[height].killer1
	var killer2 = t.stack[height].killer2

	var movesSearched = 0
	var hasLegalMove = false
	var quietsSeen = 0

	var quietsSearched = t.stack[height].quietsSearched[:0]
	var bestMove chess.Move

	var lmp = 5 + (depth-1)*depth
	if !improving {
		lmp /= 2
	}

	var best = -valueInfinity
	var oldAlpha = alpha
	var child = &t.stack[height+1].position

	for mi.Reset(); ; {
		var move = mi.Next()
		if move == chess.MoveEmpty {
			break
		}
		if move == skipMove {
			continue
		}
		if rootNode && containsMove(t.engine.excludedRootMoves, move) {
			continue
		}
		if rootNode && len(t.engine.SearchMoves) != 0 && !containsMove(t.engine.SearchMoves, move) {
			continue
		}
		var isNoisy = isCaptureOrPromotion(move)
		if !isNoisy {
			quietsSeen++
		}

		if depth <= 8 && best > valueLoss && hasLegalMove && !isCheck && !rootNode {
			// late-move pruning
			if options.Lmp && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				quietsSeen > lmp {
				continue
			}

			// futility pruning
			if options.Futility && !(isNoisy ||
				move == killer1 ||
				move == killer2) &&
				staticEval+100+pawnValue*depth <= alpha {
				continue
			}

			// SEE pruning
			if options.See {
				var seeMargin int
				if isNoisy {
					seeMargin = max(depth, (staticEval+pawnValue-alpha)/pawnValue)
				} else {
					seeMargin = depth / 2
				}
				if !SeeGE(position, move, -seeMargin) {
					continue
				}
			}
		}

		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true

		movesSearched++

		var extension, reduction int

		if options.CheckExt && child.InCheck() && depth >= 3 {
			extension = 1
		}
		if move == ttMove && ttMoveIsSingular {
			extension = 1
		}

		if depth >= 3 && movesSearched > 1 &&
			!isNoisy {
			reduction = options.Lmr(depth, movesSearched)
			if move == killer1 || move == killer2 {
				reduction--
			}
			if !isCheck {
				var history = historyContext.ReadTotal(move)
				reduction -= max(-2, min(2, history/5000))

				if !improving {
					reduction++
				}
			}
			if pvNode {
				reduction -= 2
			}
			if isCheck || child.InCheck() {
				reduction--
			}
			reduction = max(reduction, 0) + extension
			reduction = max(0, min(depth-2, reduction))
		}

		if !isNoisy {
			quietsSearched = append(quietsSearched, move)
		}

		var newDepth = depth - 1 + extension

		var score = alpha + 1
		// LMR
		if reduction > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth-reduction, height+1, chess.MoveEmpty)
		}
		// PVS
		if score > alpha && beta != alpha+1 && movesSearched > 1 && newDepth > 0 {
			score = -t.alphaBeta(-(alpha + 1), -alpha, newDepth, height+1, chess.MoveEmpty)
		}
		// full search
		if score > alpha {
			score = -t.alphaBeta(-beta, -alpha, newDepth, height+1, chess.MoveEmpty)
		}

		t.UnmakeMove()

		if score > best {
			best = score
			bestMove = move
		}
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}

	if !hasLegalMove {
		if !isCheck && skipMove == chess.MoveEmpty {
			return valueDraw
		}
		return lossIn(height)
	}

	if alpha > oldAlpha && bestMove != chess.MoveEmpty && !isCaptureOrPromotion(bestMove) {
		historyContext.Update(quietsSearched, bestMove, depth)
		t.updateKiller(bestMove, height)
	}

	if skipMove == chess.MoveEmpty {
		var bound tt.Bound
		if best > oldAlpha {
			bound |= tt.BoundLower
		}
		if best < beta {
			bound |= tt.BoundUpper
		}
		if !(rootNode && bound == tt.BoundUpper) {
			var moveHash uint16
			if bestMove != chess.MoveEmpty {
				moveHash = uint16(bestMove.Hash())
			}
			t.engine.transTable.Insert(position.Key, tt.Entry{
				MoveHash:   moveHash,
				Score:      best,
				StaticEval: staticEval,
				Depth:      depth,
				Bound:      bound,
			}, height)
		}
	}

	return best
}

func (t *thread) quiescence(alpha, beta, height int) int {
	t.clearPV(height)
	var position = &t.stack[height].position
	if isDraw(position) {
		return valueDraw
	}
	if height >= maxHeight {
		return t.evaluator.EvalPos(position)
	}
	if t.isRepeat(height) {
		return valueDraw
	}

	if e, ok := t.engine.transTable.Probe(position.Key, height); ok {
		if e.Bound == tt.BoundExact ||
			e.Bound == tt.BoundLower && e.Score >= beta ||
			e.Bound == tt.BoundUpper && e.Score <= alpha {
			return e.Score
		}
	}

	var isCheck = position.InCheck()
	var best = -valueInfinity
	if !isCheck {
		var eval = t.evaluator.EvalPos(position)
		best = max(best, eval)
		if eval > alpha {
			alpha = eval
			if alpha >= beta {
				return alpha
			}
		}
	}
	var mi = moveIteratorQS{
		position: position,
		buffer:   t.stack[height].moveList[:],
	}
	mi.Init()
	var hasLegalMove = false
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == chess.MoveEmpty {
			break
		}
		if !isCheck && !seeGEZero(position, move) {
			continue
		}
		if !t.MakeMove(move, height) {
			continue
		}
		hasLegalMove = true
		var score = -t.quiescence(-beta, -alpha, height+1)
		t.UnmakeMove()
		best = max(best, score)
		if score > alpha {
			alpha = score
			t.assignPV(height, move)
			if alpha >= beta {
				break
			}
		}
	}
	if isCheck && !hasLegalMove {
		return lossIn(height)
	}
	return best
}

func (t *thread) incNodes() {
	t.nodes++
	if t.nodes&255 == 0 {
		if t.engine.Options.Threads == 1 {
			t.engine.timeManager.OnNodesChanged(int(t.engine.mainLine.nodes + t.nodes))
		}
		if t.engine.timeManager.IsDone() {
			panic(errSearchTimeout)
		}
	}
}

func isDraw(p *chess.Position) bool {
	if p.Rule50 > 100 {
		return true
	}

	if (p.Pawns|p.Rooks|p.Queens) == 0 &&
		!chess.MoreThanOne(p.Knights|p.Bishops) {
		return true
	}

	return false
}

func (t *thread) isRepeat(height int) bool {
	var p = &t.stack[height].position

	if p.Rule50 == 0 || p.LastMove == chess.MoveEmpty {
		return false
	}
	for i := height - 1; i >= 0; i-- {
		var temp = &t.stack[i].position
		if temp.Key == p.Key {
			return true
		}
		if temp.Rule50 == 0 || temp.LastMove == chess.MoveEmpty {
			return false
		}
	}

	return t.engine.historyKeys[p.Key] >= 2
}

func findMoveIndex(ml []chess.Move, move chess.Move) int {
	for i := range ml {
		if ml[i] == move {
			return i
		}
	}
	return -1
}

func moveToBegin(ml []chess.Move, index int) {
	if index == 0 {
		return
	}
	var item = ml[index]
	for i := index; i > 0; i-- {
		ml[i] = ml[i-1]
	}
	ml[0] = item
}

func cloneMoves(ml []chess.Move) []chess.Move {
	var result = make([]chess.Move, len(ml))
	copy(result, ml)
	return result
}

func (e *Engine) genRootMoves() []chess.Move {
	var t = &e.threads[0]
	const height = 0
	var p = &t.stack[height].position

	var transMove chess.Move
	if entry, ok := e.transTable.Probe(p.Key, height); ok {
		var n = len(p.GenerateMoves(t.stack[height].moveList[:]))
		transMove = resolveMoveHash(t.stack[height].moveList[:], n, entry.MoveHash)
	}

	var mi = t.initMoveIterator(height, transMove)

	var result []chess.Move
	for mi.Reset(); ; {
		var move = mi.Next()
		if move == chess.MoveEmpty {
			break
		}
		if containsMove(e.excludedRootMoves, move) {
			continue
		}
		if len(e.SearchMoves) != 0 && !containsMove(e.SearchMoves, move) {
			continue
		}
		if _, ok := p.MakeMove(move); ok {
			result = append(result, move)
		}
	}
	return result
}

func (t *thread) updateKiller(move chess.Move, height int) {
	if t.stack[height].killer1 != move {
		t.stack[height].killer2 = t.stack[height].killer1
		t.stack[height].killer1 = move
	}
}

// MakeMove plays move (or a null move, when move is MoveEmpty) from the
// position at height onto height+1, returning false for an illegal move.
func (t *thread) MakeMove(move chess.Move, height int) bool {
	var pos = &t.stack[height].position
	if move == chess.MoveEmpty {
		t.stack[height+1].position = pos.MakeNullMove()
	} else {
		var child, ok = pos.MakeMove(move)
		if !ok {
			return false
		}
		t.stack[height+1].position = child
	}
	t.incNodes()
	return true
}

func (t *thread) UnmakeMove() {
}

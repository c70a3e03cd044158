package engine

import "github.com/kestrelchess/engine/pkg/chess"

// multiPVSearch runs the lazy-SMP search once per requested line. After each
// completed line its root move is excluded from the next line's root move
// set, so line 2 finds the best move among what's left once line 1's move
// is off the table, and so on.
func (e *Engine) multiPVSearch(lines int) []mainLine {
	if lines < 1 {
		lines = 1
	}
	var result []mainLine
	e.excludedRootMoves = e.excludedRootMoves[:0]
	for i := 0; i < lines; i++ {
		if len(e.genRootMoves()) == 0 {
			break
		}
		e.currentPVIndex = i + 1
		runSearch(e)
		if len(e.mainLine.moves) == 0 {
			break
		}
		result = append(result, e.mainLine)
		e.excludedRootMoves = append(e.excludedRootMoves, e.mainLine.moves[0])
	}
	e.excludedRootMoves = e.excludedRootMoves[:0]
	e.currentPVIndex = 1
	return result
}

// pickByStrength chooses among candidate root lines with score noise biased
// toward weaker play; see strengthNoise. At full strength it always returns
// the best line.
func (e *Engine) pickByStrength(lines []mainLine) mainLine {
	if len(lines) == 0 {
		return mainLine{}
	}
	if e.Options.Strength >= 1000 || len(lines) == 1 {
		return lines[0]
	}
	var bestIndex = 0
	var bestScore = lines[0].score + strengthNoise(&e.strengthSeed, e.Options.Strength)
	for i := 1; i < len(lines); i++ {
		var score = lines[i].score + strengthNoise(&e.strengthSeed, e.Options.Strength)
		if score > bestScore {
			bestScore = score
			bestIndex = i
		}
	}
	return lines[bestIndex]
}

func containsMove(moves []chess.Move, move chess.Move) bool {
	for _, m := range moves {
		if m == move {
			return true
		}
	}
	return false
}

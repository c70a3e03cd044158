package engine

import (
	"errors"
	"sync"

	"github.com/kestrelchess/engine/pkg/chess"
)

var errSearchTimeout = errors.New("search timeout")

// searchTask is a unit of work handed from the dispatcher (the parent) to a
// worker (a child): search the root moves to depth, seeded with the
// previous iteration's best move and score for move ordering and the
// aspiration window.
type searchTask struct {
	depth         int
	startingMove  chess.Move
	startingScore int
}

// runSearch runs the engine's search threads as a parent/children message
// bus: one dispatcher goroutine (iterativeDeepening) hands out searchTasks
// over a channel, and Options.Threads worker goroutines (searchDepth) each
// pull tasks, search to the requested depth, and report their mainLine back
// over a second channel. A worker may run ahead of the dispatcher's current
// depth (lazy SMP): most of the parallelism gain comes from threads
// redundantly searching nearby depths rather than splitting a single tree.
func runSearch(e *Engine) {
	var ml = e.genRootMoves()
	if len(ml) != 0 {
		e.mainLine = mainLine{
			depth: 0,
			score: 0,
			nodes: 0,
			moves: []chess.Move{ml[0]},
		}
	}
	if len(ml) <= 1 {
		return
	}

	var tasks = make(chan searchTask)
	var taskResults = make(chan mainLine)

	var wg = &sync.WaitGroup{}

	for i := 0; i < e.Options.Threads; i++ {
		wg.Add(1)
		go func(t *thread, ml []chess.Move) {
			defer wg.Done()
			searchDepth(t, ml, tasks, taskResults)
		}(&e.threads[i], cloneMoves(ml))
	}

	go func() {
		wg.Wait()
		close(taskResults)
	}()

	iterativeDeepening(e, tasks, taskResults)
}

// iterativeDeepening is the dispatcher: it hands out ever-deeper searchTasks
// and folds whichever worker returns the best completed depth into the
// engine's mainLine, until every worker has drained (the channel close
// propagates through wg.Wait in runSearch).
func iterativeDeepening(
	e *Engine,
	tasks chan<- searchTask,
	taskResults <-chan mainLine,
) {
	var searchCountByDepth [stackSize]int
	for {
		var task = searchTask{
			depth:         e.mainLine.depth + 1,
			startingMove:  e.mainLine.moves[0],
			startingScore: e.mainLine.score,
		}
		if task.depth < len(searchCountByDepth) &&
			searchCountByDepth[task.depth] >= (e.Options.Threads+1)/2 {
			// some threads search deeper
			task.depth = e.mainLine.depth + 2
		}

		if task.depth > maxHeight ||
			e.timeManager.IsDone() {
			// no new iterations
			if tasks != nil {
				close(tasks)
				tasks = nil
			}
		}

		select {
		case taskResult, ok := <-taskResults:
			if !ok {
				// all workers finished
				return
			}
			e.mainLine.nodes += taskResult.nodes
			if taskResult.depth > e.mainLine.depth {
				e.mainLine.depth = taskResult.depth
				e.mainLine.score = taskResult.score
				e.mainLine.moves = taskResult.moves
				e.timeManager.OnIterationComplete(e.mainLine)
				if e.progress != nil && e.mainLine.nodes >= int64(e.ProgressMinNodes) {
					e.progress(e.currentSearchResult())
				}
			}
		case tasks <- task:
			searchCountByDepth[task.depth]++
		}
	}
}

// searchDepth is a worker (a child): it repeatedly pulls a depth to search
// from tasks and reports the resulting line over taskResults, until tasks
// closes. A timed-out search unwinds via panic/recover rather than plumbing
// a cancellation check through every return path of alphaBeta.
func searchDepth(
	t *thread,
	ml []chess.Move,
	tasks <-chan searchTask,
	taskResults chan<- mainLine,
) {
	defer func() {
		if r := recover(); r != nil {
			if r == errSearchTimeout {
				return
			}
			panic(r)
		}
	}()

	const height = 0
	for h := 0; h <= 2; h++ {
		t.stack[h].killer1 = chess.MoveEmpty
		t.stack[h].killer2 = chess.MoveEmpty
	}

	for task := range tasks {
		if task.startingMove != chess.MoveEmpty {
			var index = findMoveIndex(ml, task.startingMove)
			if index >= 0 {
				moveToBegin(ml, index)
			}
		}
		var score = aspirationWindow(t, ml, task.depth, task.startingScore)
		taskResults <- mainLine{
			depth: task.depth,
			score: score,
			moves: t.stack[height].pv.toSlice(),
			nodes: t.nodes,
		}
		t.nodes = 0
	}
}

package engine

import (
	"context"
	"runtime"
	"time"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/eval"
	"github.com/kestrelchess/engine/pkg/engine/tt"
	"github.com/kestrelchess/engine/pkg/tablebase"
)

// Engine coordinates a multi-threaded alpha-beta search over a shared
// transposition table, matching Options and evalBuilder to the per-thread
// search workers it owns.
type Engine struct {
	Options           Options
	ProgressMinNodes  int
	evalBuilder       func() *eval.Service
	Tablebase         *tablebase.Service
	timeManager       *simpleTimeManager
	transTable        *tt.Table
	historyKeys       map[uint64]int
	threads           []thread
	progress          func(SearchInfo)
	mainLine          mainLine
	multiPVLines      []mainLine
	currentPVIndex    int
	excludedRootMoves []chess.Move
	SearchMoves       []chess.Move
	strengthSeed      strengthSeed
	start             time.Time
	nodes             int64
}

type thread struct {
	engine    *Engine
	evaluator *eval.Service
	nodes     int64
	rootDepth int
	stack     [stackSize]struct {
		position            chess.Position
		moveList            [chess.MaxMoves]chess.OrderedMove
		quietsSearched      [chess.MaxMoves]chess.Move
		pv                  pv
		staticEval          int
		killer1             chess.Move
		killer2             chess.Move
		moveIteratorStorage moveIterator
	}
	mainHistory         [1 << 13]int16
	continuationHistory [1 << 10][1 << 10]int16
}

type pv struct {
	items [stackSize]chess.Move
	size  int
}

// mainLine is the current best line reported by the search, shared between
// the iterative-deepening dispatcher and every search worker.
type mainLine struct {
	moves []chess.Move
	score int
	depth int
	nodes int64
}

// TimeManager decides when the running search should stop, driven by node
// counts and the result of each completed iteration.
type TimeManager interface {
	IsDone() bool
	OnNodesChanged(nodes int)
	OnIterationComplete(line mainLine)
	PonderHit()
	Close()
}

// SearchParams is the input to Engine.Search: the game history up to and
// including the position to search, the time/depth/node limits, and an
// optional progress callback invoked after each completed iteration.
type SearchParams struct {
	Positions   []chess.Position
	Limits      LimitsType
	SearchMoves []chess.Move
	Progress    func(si SearchInfo)
}

// SearchInfo is a snapshot of the search's current best line, depth and
// node count, suitable for a UCI "info" line. MultiPV is the 1-based index
// of the line among the requested principal variations.
type SearchInfo struct {
	Score    UciScore
	Depth    int
	Nodes    int64
	Time     time.Duration
	MultiPV  int
	MainLine []chess.Move
}

// NewEngine builds an Engine whose evaluator threads are built by
// evalBuilder, one per search thread.
func NewEngine(evalBuilder func() *eval.Service) *Engine {
	var e = &Engine{
		Options:          NewOptions(),
		ProgressMinNodes: 200000,
		evalBuilder:      evalBuilder,
		strengthSeed:     newStrengthSeed(uint64(time.Now().UnixNano())),
	}
	return e
}

// PonderHit converts a running ponder search into a normal timed one.
func (e *Engine) PonderHit() {
	if e.timeManager != nil {
		e.timeManager.PonderHit()
	}
}

// Prepare allocates (or resizes) the transposition table and search threads
// to match the current Options. Safe to call before every search.
func (e *Engine) Prepare() {
	if e.transTable == nil || e.transTable.SizeMB() != e.Options.Hash {
		if e.transTable != nil {
			e.transTable = nil
			runtime.GC()
		}
		e.transTable = tt.NewFromMegabytes(e.Options.Hash)
	}
	if len(e.threads) != e.Options.Threads {
		e.threads = make([]thread, e.Options.Threads)
		for i := range e.threads {
			var t = &e.threads[i]
			t.engine = e
			t.evaluator = e.evalBuilder()
		}
	}
}

// Search runs iterative deepening from the last position in
// searchParams.Positions until ctx is done or a limit is reached, and
// returns the best line found.
func (e *Engine) Search(ctx context.Context, searchParams SearchParams) SearchInfo {
	e.start = time.Now()
	e.Prepare()
	var p = &searchParams.Positions[len(searchParams.Positions)-1]
	var _, tm = newTimeManager(ctx, e.start, searchParams.Limits, p)
	e.timeManager = tm
	defer tm.Close()
	e.transTable.NextGeneration()
	e.historyKeys = getHistoryKeys(searchParams.Positions)
	e.nodes = 0
	for i := range e.threads {
		var t = &e.threads[i]
		t.nodes = 0
		t.stack[0].position = *p
	}
	e.progress = searchParams.Progress
	e.SearchMoves = searchParams.SearchMoves

	var lines = e.Options.MultiPV
	if lines < 1 {
		lines = 1
	}
	if e.Options.Strength < 1000 && lines < 3 {
		// Gather a few root candidates even in single-PV mode, so strength
		// throttling has more than the single best move to pick among.
		lines = 3
	}
	e.multiPVLines = e.multiPVSearch(lines)

	for i := range e.threads {
		var t = &e.threads[i]
		e.nodes += t.nodes
		t.nodes = 0
	}
	if e.Options.MultiPV <= 1 {
		e.mainLine = e.pickByStrength(e.multiPVLines)
	} else if len(e.multiPVLines) > 0 {
		e.mainLine = e.multiPVLines[0]
	}
	return e.currentSearchResult()
}

// MultiPVResult returns every principal variation found by the most recent
// search, best first, for a UCI "info ... multipv N ..." line per entry.
func (e *Engine) MultiPVResult() []SearchInfo {
	var result = make([]SearchInfo, len(e.multiPVLines))
	for i, line := range e.multiPVLines {
		result[i] = SearchInfo{
			Depth:    line.depth,
			MainLine: line.moves,
			Score:    newUciScore(line.score),
			Nodes:    e.nodes,
			Time:     time.Since(e.start),
			MultiPV:  i + 1,
		}
	}
	return result
}

func getHistoryKeys(positions []chess.Position) map[uint64]int {
	var result = make(map[uint64]int)
	for i := len(positions) - 1; i >= 0; i-- {
		var p = &positions[i]
		result[p.Key]++
		if p.Rule50 == 0 {
			break
		}
	}
	return result
}

// Clear resets the transposition table and every thread's history tables,
// as a UCI "ucinewgame" handler would before a fresh game.
func (e *Engine) Clear() {
	if e.transTable != nil {
		e.transTable.Clear()
	}
	for i := range e.threads {
		var t = &e.threads[i]
		t.clearHistory()
	}
	e.strengthSeed = newStrengthSeed(uint64(time.Now().UnixNano()))
}

func (e *Engine) currentSearchResult() SearchInfo {
	var index = e.currentPVIndex
	if index == 0 {
		index = 1
	}
	return SearchInfo{
		Depth:    e.mainLine.depth,
		MainLine: e.mainLine.moves,
		Score:    newUciScore(e.mainLine.score),
		Nodes:    e.nodes,
		Time:     time.Since(e.start),
		MultiPV:  index,
	}
}

func (pv *pv) clear() {
	pv.size = 0
}

func (pv *pv) assign(m chess.Move, child *pv) {
	pv.size = 1
	pv.items[0] = m
	if child.size > 0 {
		pv.size += child.size
		copy(pv.items[1:], child.items[:child.size])
	}
}

func (pv *pv) toSlice() []chess.Move {
	var result = make([]chess.Move, pv.size)
	copy(result, pv.items[:pv.size])
	return result
}

func (t *thread) clearPV(height int) {
	t.stack[height].pv.clear()
}

func (t *thread) assignPV(height int, move chess.Move) {
	t.stack[height].pv.assign(move, &t.stack[height+1].pv)
}

func (t *thread) initMoveIterator(height int, transMove chess.Move) *moveIterator {
	var mi = &t.stack[height].moveIteratorStorage
	mi.position = &t.stack[height].position
	mi.buffer = t.stack[height].moveList[:]
	mi.history = t.getHistoryContext(height)
	mi.transMove = transMove
	mi.killer1 = t.stack[height].killer1
	mi.killer2 = t.stack[height].killer2
	mi.Init()
	return mi
}

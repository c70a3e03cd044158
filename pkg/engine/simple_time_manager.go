package engine

import (
	"context"
	"time"

	"github.com/kestrelchess/engine/pkg/chess"
)

// LimitsType mirrors a UCI "go" command's time and depth controls.
type LimitsType struct {
	Ponder         bool
	Infinite       bool
	WhiteTime      int
	BlackTime      int
	WhiteIncrement int
	BlackIncrement int
	MoveTime       int
	MovesToGo      int
	Depth          int
	Nodes          int
	Mate           int
}

type simpleTimeManager struct {
	ctx       context.Context
	parent    context.Context
	start     time.Time
	limits    LimitsType
	main      time.Duration
	inc       time.Duration
	softLimit time.Duration
	hardLimit time.Duration
	cancel    context.CancelFunc
}

func newTimeManager(ctx context.Context, start time.Time,
	limits LimitsType, p *chess.Position) (context.Context, *simpleTimeManager) {

	var tm = &simpleTimeManager{
		start:  start,
		limits: limits,
		parent: ctx,
	}

	// Ponder and infinite searches never stop on their own; they wait for
	// an explicit "stop" or "ponderhit" to arrive over the UCI protocol.
	if !limits.Ponder && !limits.Infinite {
		if limits.MoveTime > 0 {
			tm.hardLimit = time.Duration(limits.MoveTime) * time.Millisecond
		} else if limits.WhiteTime > 0 || limits.BlackTime > 0 {
			if p.WhiteMove {
				tm.main = time.Duration(limits.WhiteTime) * time.Millisecond
				tm.inc = time.Duration(limits.WhiteIncrement) * time.Millisecond
			} else {
				tm.main = time.Duration(limits.BlackTime) * time.Millisecond
				tm.inc = time.Duration(limits.BlackIncrement) * time.Millisecond
			}
			tm.softLimit, tm.hardLimit = calcLimits(tm.main, tm.inc, limits.MovesToGo)
		}
	}

	var cancel context.CancelFunc
	if tm.hardLimit != 0 {
		ctx, cancel = context.WithDeadline(ctx, start.Add(tm.hardLimit))
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	tm.ctx = ctx
	tm.cancel = cancel
	return ctx, tm
}

// PonderHit promotes a ponder search into a normal timed one: the clock the
// opponent's move actually ran down starts now, so limits are recomputed
// from this moment rather than from when pondering began.
func (tm *simpleTimeManager) PonderHit() {
	if !tm.limits.Ponder {
		return
	}
	tm.limits.Ponder = false
	tm.start = time.Now()
	if tm.limits.MoveTime > 0 {
		tm.hardLimit = time.Duration(tm.limits.MoveTime) * time.Millisecond
	} else if tm.main != 0 {
		tm.softLimit, tm.hardLimit = calcLimits(tm.main, tm.inc, tm.limits.MovesToGo)
	}
	if tm.hardLimit != 0 {
		var oldCancel = tm.cancel
		var deadline = tm.start.Add(tm.hardLimit)
		var ctx, cancel = context.WithDeadline(tm.parent, deadline)
		tm.ctx, tm.cancel = ctx, cancel
		oldCancel()
	}
}

func (tm *simpleTimeManager) IsDone() bool {
	select {
	case <-tm.ctx.Done():
		return true
	default:
		return false
	}
}

func (tm *simpleTimeManager) OnNodesChanged(nodes int) {
	if tm.limits.Nodes > 0 && nodes >= tm.limits.Nodes {
		tm.cancel()
	}
}

func (tm *simpleTimeManager) OnIterationComplete(line mainLine) {
	if tm.limits.Infinite || tm.limits.Ponder {
		return
	}
	if tm.limits.Depth != 0 && line.depth >= tm.limits.Depth {
		tm.cancel()
		return
	}
	if line.score >= winIn(line.depth-5) ||
		line.score <= lossIn(line.depth-5) {
		tm.cancel()
		return
	}
	if tm.softLimit != 0 &&
		time.Since(tm.start) >= tm.softLimit {
		tm.cancel()
		return
	}
}

func (tm *simpleTimeManager) Close() {
	tm.cancel()
}

func calcLimits(main, inc time.Duration, moves int) (soft, hard time.Duration) {
	const (
		defaultMovesToGo = 40
		moveOverhead     = 300 * time.Millisecond
		minTimeLimit     = 1 * time.Millisecond
	)

	main -= moveOverhead
	if main < minTimeLimit {
		main = minTimeLimit
	}

	if moves == 0 {
		var ideal = main/35 + inc/2
		soft = ideal * 7 / 10
		hard = ideal * 21 / 10
	} else {
		moves = min(moves, defaultMovesToGo)
		soft = (main/time.Duration(moves+1) + inc) * 7 / 10
		hard = (main/time.Duration(moves+1) + inc) * 21 / 10
	}

	hard = limitDuration(hard, minTimeLimit, main)
	soft = limitDuration(soft, minTimeLimit, main)

	return
}

func limitDuration(v, min, max time.Duration) time.Duration {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

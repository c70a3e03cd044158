package engine

import (
	"context"
	"testing"
	"time"

	"github.com/kestrelchess/engine/pkg/chess"
)

func TestNewTimeManagerMoveTimeSetsHardDeadline(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var ctx, tm = newTimeManager(context.Background(), time.Now(), LimitsType{MoveTime: 1000}, &pos)
	defer tm.Close()
	if tm.hardLimit != time.Second {
		t.Errorf("hardLimit = %v, want 1s", tm.hardLimit)
	}
	if ctx.Err() != nil {
		t.Error("context should not be done immediately")
	}
}

func TestTimeManagerIsDoneAfterClose(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Infinite: true}, &pos)
	if tm.IsDone() {
		t.Fatal("should not be done before Close")
	}
	tm.Close()
	if !tm.IsDone() {
		t.Error("should be done after Close")
	}
}

func TestOnNodesChangedCancelsPastNodeLimit(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var _, tm = newTimeManager(context.Background(), time.Now(), LimitsType{Nodes: 1000}, &pos)
	defer tm.Close()
	if tm.IsDone() {
		t.Fatal("should not be done yet")
	}
	tm.OnNodesChanged(1000)
	if !tm.IsDone() {
		t.Error("should be done once the node limit is reached")
	}
}

func TestCalcLimitsSuddenDeath(t *testing.T) {
	var soft, hard = calcLimits(60*time.Second, time.Second, 0)
	if soft <= 0 || hard <= soft {
		t.Errorf("expected 0 < soft < hard, got soft=%v hard=%v", soft, hard)
	}
}

func TestCalcLimitsWithMovesToGo(t *testing.T) {
	var soft, hard = calcLimits(60*time.Second, 0, 20)
	if soft <= 0 || hard <= soft {
		t.Errorf("expected 0 < soft < hard, got soft=%v hard=%v", soft, hard)
	}
}

package uci

import (
	"context"
	"testing"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine"
)

type fakeEngine struct {
	prepared    bool
	cleared     bool
	ponderHits  int
	lastParams  engine.SearchParams
	searchInfo  engine.SearchInfo
	multiPVInfo []engine.SearchInfo
}

func (f *fakeEngine) Prepare() { f.prepared = true }
func (f *fakeEngine) Clear()   { f.cleared = true }
func (f *fakeEngine) Search(ctx context.Context, params engine.SearchParams) engine.SearchInfo {
	f.lastParams = params
	return f.searchInfo
}
func (f *fakeEngine) MultiPVResult() []engine.SearchInfo { return f.multiPVInfo }
func (f *fakeEngine) PonderHit()                         { f.ponderHits++ }

func TestPositionCommandParsesMovesFromStartpos(t *testing.T) {
	var f = &fakeEngine{}
	var p = New("Test", "tester", "0", f, nil)

	var err = p.positionCommand([]string{"startpos", "moves", "e2e4", "e7e5"})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.positions) != 3 {
		t.Fatalf("expected 3 positions (start + 2 moves), got %d", len(p.positions))
	}
}

func TestPositionCommandRejectsIllegalMove(t *testing.T) {
	var f = &fakeEngine{}
	var p = New("Test", "tester", "0", f, nil)

	var err = p.positionCommand([]string{"startpos", "moves", "e2e5"})
	if err == nil {
		t.Fatal("expected an error for an illegal move")
	}
}

func TestGoCommandParsesLimitsAndSearchMoves(t *testing.T) {
	var pos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		t.Fatal(err)
	}
	var limits, searchMoves, perr = parseGo(&pos, []string{
		"wtime", "60000", "btime", "60000", "winc", "1000",
		"searchmoves", "e2e4", "d2d4",
	})
	if perr != nil {
		t.Fatal(perr)
	}
	if limits.WhiteTime != 60000 || limits.WhiteIncrement != 1000 {
		t.Errorf("unexpected limits: %+v", limits)
	}
	if len(searchMoves) != 2 {
		t.Fatalf("expected 2 search moves, got %d", len(searchMoves))
	}
}

func TestSetOptionCommandDispatchesToMatchingOption(t *testing.T) {
	var f = &fakeEngine{}
	var hashValue = 16
	var p = New("Test", "tester", "0", f, []Option{
		&IntOption{Name: "Hash", Min: 1, Max: 1024, Value: &hashValue},
	})

	var err = p.setOptionCommand([]string{"name", "Hash", "value", "256"})
	if err != nil {
		t.Fatal(err)
	}
	if hashValue != 256 {
		t.Errorf("Hash = %d, want 256", hashValue)
	}
}

func TestThinkingRejectsCommandsOtherThanStopAndPonderhit(t *testing.T) {
	var f = &fakeEngine{}
	var p = New("Test", "tester", "0", f, nil)
	p.thinking = true
	p.cancel = func() {}

	if err := p.handle("isready"); err == nil {
		t.Error("expected an error while a search is running")
	}
	if err := p.handle("ponderhit"); err != nil {
		t.Errorf("ponderhit should be accepted while thinking: %v", err)
	}
	if f.ponderHits != 1 {
		t.Errorf("expected PonderHit to be called once, got %d", f.ponderHits)
	}
}

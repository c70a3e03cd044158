package tablebase

import (
	"testing"

	"github.com/rs/zerolog"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine/tt"
)

type fakeFamily struct {
	name      string
	maxPieces int
	wdl       WDL
	hasWDL    bool
	dtz       int
	dtzWDL    WDL
	hasDTZ    bool
	mate      int
	hasMate   bool
}

func (f *fakeFamily) Name() string    { return f.name }
func (f *fakeFamily) MaxPieces() int  { return f.maxPieces }
func (f *fakeFamily) ProbeWDL(pos *chess.Position) (WDL, bool) {
	return f.wdl, f.hasWDL
}
func (f *fakeFamily) ProbeDTZ(pos *chess.Position) (int, WDL, bool) {
	return f.dtz, f.dtzWDL, f.hasDTZ
}
func (f *fakeFamily) ProbeDTM(pos *chess.Position) (int, bool) {
	return f.mate, f.hasMate
}

func kpkPosition(t *testing.T) chess.Position {
	t.Helper()
	var pos, err = chess.ReadFEN("8/8/8/4k3/8/4P3/4K3/8 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestProbeNoFamiliesMisses(t *testing.T) {
	var pos = kpkPosition(t)
	var s = NewService(zerolog.Nop())
	var _, ok = s.Probe(&pos, 0, -32000, 32000)
	if ok {
		t.Fatal("expected a miss with no registered families")
	}
}

func TestProbeExactDTM(t *testing.T) {
	var pos = kpkPosition(t)
	var fam = &fakeFamily{name: "gtb", maxPieces: 5, mate: 8, hasMate: true}
	var s = NewService(zerolog.Nop(), fam)

	var r, ok = s.Probe(&pos, 0, -32000, 32000)
	if !ok {
		t.Fatal("expected a DTM hit")
	}
	if r.Bound != tt.BoundExact {
		t.Errorf("expected exact bound, got %v", r.Bound)
	}
	var want = tt.MateScore - 8
	if r.Score != want {
		t.Errorf("score = %d, want %d", r.Score, want)
	}
}

func TestProbeDTMBeyondFiftyMoveMarginCollapsesToDraw(t *testing.T) {
	var pos, err = chess.ReadFEN("8/8/8/4k3/8/4P3/4K3/8 w - - 95 60")
	if err != nil {
		t.Fatal(err)
	}
	var fam = &fakeFamily{name: "gtb", maxPieces: 5, mate: 20, hasMate: true}
	var s = NewService(zerolog.Nop(), fam)

	var r, ok = s.Probe(&pos, 0, -32000, 32000)
	if !ok {
		t.Fatal("expected a result (collapsed to draw)")
	}
	if r.Score != 0 || r.Bound != tt.BoundExact {
		t.Errorf("expected exact draw, got %+v", r)
	}
	if r.Frustrated != 1 {
		t.Errorf("expected a positive frustration hint, got %d", r.Frustrated)
	}
}

func TestProbeWDLDraw(t *testing.T) {
	var pos = kpkPosition(t)
	var fam = &fakeFamily{name: "rtb", maxPieces: 7, wdl: WDLDraw, hasWDL: true}
	var s = NewService(zerolog.Nop(), fam)

	var r, ok = s.Probe(&pos, 0, -32000, 32000)
	if !ok || r.Score != 0 || r.Bound != tt.BoundExact {
		t.Errorf("expected exact zero draw, got %+v ok=%v", r, ok)
	}
}

func TestProbeCursedWinBelowFrustratedBound(t *testing.T) {
	var pos = kpkPosition(t)
	var fam = &fakeFamily{name: "rtb", maxPieces: 7, wdl: WDLCursedWin, hasWDL: true}
	var s = NewService(zerolog.Nop(), fam)

	var r, ok = s.Probe(&pos, 0, -100, 100)
	if !ok {
		t.Fatal("expected cursed win to resolve under a narrow window")
	}
	if r.Frustrated != 1 {
		t.Errorf("expected frustration hint +1, got %d", r.Frustrated)
	}
}

func TestProbeCursedWinAboveFrustratedBoundFallsThrough(t *testing.T) {
	var pos = kpkPosition(t)
	var fam = &fakeFamily{name: "rtb", maxPieces: 7, wdl: WDLCursedWin, hasWDL: true}
	var s = NewService(zerolog.Nop(), fam)

	var _, ok = s.Probe(&pos, 0, -32000, 32000)
	if ok {
		t.Fatal("expected the cursed win to fall through to DTZ/none when beta exceeds the frustrated bound")
	}
}

func TestProbeDeepWinFromWDL(t *testing.T) {
	var pos = kpkPosition(t)
	var fam = &fakeFamily{name: "rtb", maxPieces: 7, wdl: WDLWin, hasWDL: true}
	var s = NewService(zerolog.Nop(), fam)
	s.RegisterMaxDTM(pos.MaterialID, 12)

	var r, ok = s.Probe(&pos, 3, -32000, 32000)
	if !ok {
		t.Fatal("expected a WDL win hit")
	}
	if r.Bound != tt.BoundLower {
		t.Errorf("expected a lower bound for a plain WDL win, got %v", r.Bound)
	}
	var want = tt.MateScore - 12 - 3
	if r.Score != want {
		t.Errorf("score = %d, want %d", r.Score, want)
	}
}

func TestProbeDTZCollapsesPastFiftyMoveBudget(t *testing.T) {
	var pos, err = chess.ReadFEN("8/8/8/4k3/8/4P3/4K3/8 w - - 60 60")
	if err != nil {
		t.Fatal(err)
	}
	var fam = &fakeFamily{name: "rtb", maxPieces: 7, dtz: 45, dtzWDL: WDLWin, hasDTZ: true}
	var s = NewService(zerolog.Nop(), fam)

	var r, ok = s.Probe(&pos, 0, -32000, 32000)
	if !ok {
		t.Fatal("expected a DTZ-derived result")
	}
	if r.Score != 0 || r.Bound != tt.BoundExact || r.Frustrated != 1 {
		t.Errorf("expected the DTZ win to collapse to a frustrated draw, got %+v", r)
	}
}

func TestMaxPiecesFiltersFamilySelection(t *testing.T) {
	var pos = kpkPosition(t)
	var tooSmall = &fakeFamily{name: "small", maxPieces: 2, mate: 1, hasMate: true}
	var s = NewService(zerolog.Nop(), tooSmall)

	var _, ok = s.Probe(&pos, 0, -32000, 32000)
	if ok {
		t.Fatal("a family whose MaxPieces is below the position's piece count must not be consulted")
	}
}

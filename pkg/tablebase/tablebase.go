// Package tablebase adapts the engine's search to external endgame
// tablebase libraries, presenting a single probe contract over whichever
// combination of WDL, DTZ and DTM data a family happens to provide. The
// tablebase file formats and probing code themselves are external
// collaborators; this package only describes and combines their results.
package tablebase

import (
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/engine/tt"
)

// WDL is a tablebase win/draw/loss verdict from the probing side's point of
// view. Cursed values denote a theoretical result that the fifty-move rule
// will most likely turn into a draw in practice.
type WDL int8

const (
	WDLLoss       WDL = -2
	WDLCursedLoss WDL = -1
	WDLDraw       WDL = 0
	WDLCursedWin  WDL = 1
	WDLWin        WDL = 2
)

// dtmMaxPieces bounds when an exact distance-to-mate probe is attempted:
// beyond this piece count, even the DTM-capable family is assumed to only
// cover WDL/DTZ.
const dtmMaxPieces = 4

// frustratedBound mirrors the "already decided, but not worth chasing as a
// mate" threshold used to decide whether a cursed win/loss or a fifty-move
// margin violation should simply be reported as a draw.
const frustratedBound = 3000

// defaultMaxMatePlies is the fallback upper bound on mate distance used when
// no precomputed per-material maximum has been registered for the position's
// material signature.
const defaultMaxMatePlies = 60

// Family is one of the (at most two) external endgame tablebase libraries
// this adapter dispatches to — e.g. a Syzygy-style WDL/DTZ generator
// covering more pieces, and a Gaviota-style generator providing exact
// distance-to-mate for fewer pieces. Each probe method reports ok=false
// when the family has no data for pos (wrong piece count, file missing,
// position outside its supported material set).
type Family interface {
	Name() string
	MaxPieces() int
	ProbeWDL(pos *chess.Position) (wdl WDL, ok bool)
	ProbeDTZ(pos *chess.Position) (dtz int, wdl WDL, ok bool)
	ProbeDTM(pos *chess.Position) (mate int, ok bool)
}

// Result is the combined probe outcome, in the same score/bound vocabulary
// the transposition table uses so a caller can treat it as a TT hit.
// Frustrated is nonzero when the position is a cursed win (+1) or cursed
// loss (-1) that the fifty-move rule is expected to neutralize, letting the
// evaluator discount the raw material advantage accordingly.
type Result struct {
	Score      int
	Bound      tt.Bound
	Frustrated int
}

// Service combines one or more Families into a single probe, following the
// precedence: exact DTM (subject to the fifty-move margin) first, then a
// WDL pre-filter (which may itself report a cursed result), then DTZ.
type Service struct {
	families []Family
	maxDTM   map[uint64]int
	log      zerolog.Logger
}

// NewService builds an adapter over the given families, probed in the order
// given whenever more than one covers a position's piece count.
func NewService(log zerolog.Logger, families ...Family) *Service {
	return &Service{
		families: families,
		maxDTM:   make(map[uint64]int),
		log:      log,
	}
}

// RegisterMaxDTM records the maximum plies-to-mate known for a material
// signature (pkg/chess's Position.MaterialID), used to turn a bare WDL
// win/loss into a deep mate-style score without a full DTM probe.
func (s *Service) RegisterMaxDTM(materialID uint64, maxPlies int) {
	s.maxDTM[materialID] = maxPlies
}

func (s *Service) maxDTMFor(materialID uint64) int {
	if v, ok := s.maxDTM[materialID]; ok {
		return v
	}
	return defaultMaxMatePlies
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func sign(n int) int {
	if n < 0 {
		return -1
	}
	if n > 0 {
		return 1
	}
	return 0
}

// Probe returns a combined tablebase result for pos at the given search
// ply, or ok=false when no family has data for it. alpha/beta let a cursed
// result short-circuit when it cannot change the outcome of the surrounding
// alpha-beta window.
func (s *Service) Probe(pos *chess.Position, ply, alpha, beta int) (Result, bool) {
	var nPieces = chess.PopCount(pos.White | pos.Black)
	var hmc = pos.Rule50

	if nPieces <= dtmMaxPieces {
		if mate, ok := s.probeDTM(pos, nPieces); ok {
			if r, ok := s.withFiftyMoveMargin(mate, ply, hmc); ok {
				s.log.Debug().Str("probe", "dtm").Int("mate", mate).Msg("tablebase hit")
				return r, true
			}
			return Result{Bound: tt.BoundExact, Frustrated: sign(mate)}, true
		}
	}

	if wdl, ok := s.probeWDL(pos, nPieces); ok {
		switch wdl {
		case WDLDraw:
			return Result{Bound: tt.BoundExact}, true
		case WDLCursedWin:
			if beta <= frustratedBound {
				return Result{Bound: tt.BoundExact, Frustrated: 1}, true
			}
		case WDLCursedLoss:
			if alpha >= -frustratedBound {
				return Result{Bound: tt.BoundExact, Frustrated: -1}, true
			}
		case WDLWin, WDLLoss:
			var score = s.deepMateScore(pos, wdl, ply)
			var bound = tt.BoundLower
			if wdl == WDLLoss {
				bound = tt.BoundUpper
			}
			s.log.Debug().Str("probe", "wdl").Int("wdl", int(wdl)).Msg("tablebase hit")
			return Result{Score: score, Bound: bound}, true
		}
	}

	if dtz, wdl, ok := s.probeDTZ(pos, nPieces); ok && dtz != 0 {
		var total = hmc + abs(dtz)
		if total > 100 {
			return Result{Bound: tt.BoundExact, Frustrated: sign(dtz)}, true
		}
		var score = s.deepMateScore(pos, wdl, ply)
		var bound = tt.BoundLower
		if dtz < 0 {
			bound = tt.BoundUpper
		}
		s.log.Debug().Str("probe", "dtz").Int("dtz", dtz).Msg("tablebase hit")
		return Result{Score: score, Bound: bound}, true
	}

	return Result{}, false
}

// withFiftyMoveMargin reports the given signed mate distance as an exact
// score, or ok=false when the fifty-move rule will run out before the mate
// can be delivered (100 - halfMoveClock plies remaining).
func (s *Service) withFiftyMoveMargin(mate, ply, hmc int) (Result, bool) {
	if mate == 0 {
		return Result{Bound: tt.BoundExact}, true
	}
	var dist = abs(mate)
	if dist > 100-hmc {
		return Result{}, false
	}
	var score = tt.MateScore - dist - ply
	if mate < 0 {
		score = -score
	}
	return Result{Score: score, Bound: tt.BoundExact}, true
}

// deepMateScore turns a bare WDL/DTZ win-or-loss verdict into a mate-style
// score, bounded by the material's registered (or default) maximum mate
// distance, so it still sorts correctly against genuine shallower mates
// found by the search.
func (s *Service) deepMateScore(pos *chess.Position, wdl WDL, ply int) int {
	var score = tt.MateScore - s.maxDTMFor(pos.MaterialID) - ply
	if wdl < 0 {
		score = -score
	}
	return score
}

// eligibleFamilies returns the indices, in precedence order, of the
// families whose MaxPieces covers nPieces.
func (s *Service) eligibleFamilies(nPieces int) []int {
	var idx []int
	for i, f := range s.families {
		if f.MaxPieces() >= nPieces {
			idx = append(idx, i)
		}
	}
	return idx
}

// probeDTM, probeWDL and probeDTZ dispatch to every eligible family
// concurrently via errgroup (a family probe is typically a disk read on a
// precomputed table, so families sitting on a slower tier do not serialize
// behind each other) and then resolve the result in the families'
// configured precedence order, not by which probe happened to finish first.
func (s *Service) probeDTM(pos *chess.Position, nPieces int) (int, bool) {
	var idx = s.eligibleFamilies(nPieces)
	var results = make([]struct {
		mate int
		ok   bool
	}, len(s.families))

	var g errgroup.Group
	for _, i := range idx {
		var i = i
		g.Go(func() error {
			var mate, ok = s.families[i].ProbeDTM(pos)
			results[i].mate, results[i].ok = mate, ok
			return nil
		})
	}
	g.Wait()

	for _, i := range idx {
		if results[i].ok {
			return results[i].mate, true
		}
	}
	return 0, false
}

func (s *Service) probeWDL(pos *chess.Position, nPieces int) (WDL, bool) {
	var idx = s.eligibleFamilies(nPieces)
	var results = make([]struct {
		wdl WDL
		ok  bool
	}, len(s.families))

	var g errgroup.Group
	for _, i := range idx {
		var i = i
		g.Go(func() error {
			var wdl, ok = s.families[i].ProbeWDL(pos)
			results[i].wdl, results[i].ok = wdl, ok
			return nil
		})
	}
	g.Wait()

	for _, i := range idx {
		if results[i].ok {
			return results[i].wdl, true
		}
	}
	return WDLDraw, false
}

func (s *Service) probeDTZ(pos *chess.Position, nPieces int) (int, WDL, bool) {
	var idx = s.eligibleFamilies(nPieces)
	var results = make([]struct {
		dtz int
		wdl WDL
		ok  bool
	}, len(s.families))

	var g errgroup.Group
	for _, i := range idx {
		var i = i
		g.Go(func() error {
			var dtz, wdl, ok = s.families[i].ProbeDTZ(pos)
			results[i].dtz, results[i].wdl, results[i].ok = dtz, wdl, ok
			return nil
		})
	}
	g.Wait()

	for _, i := range idx {
		if results[i].ok {
			return results[i].dtz, results[i].wdl, true
		}
	}
	return 0, WDLDraw, false
}

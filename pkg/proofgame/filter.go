// Package proofgame orchestrates the proof-game filter: given a candidate
// FEN, it decides whether the position is reachable from the standard
// starting position and, if so, produces a concrete move sequence proving
// it. It drives pkg/proofkernel (abstract material reachability) and
// pkg/proofsched (scheduling a kernel onto concrete squares) through a
// staged state machine with escalating search budgets, matching the
// INITIAL -> KERNEL -> PATH -> LEGAL/FAIL/ILLEGAL pipeline described for
// the filter's text input/output format.
package proofgame

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kestrelchess/engine/pkg/chess"
	"github.com/kestrelchess/engine/pkg/proofkernel"
	"github.com/kestrelchess/engine/pkg/proofsched"
)

// candidateBatch is how many lines are advanced concurrently before their
// results are folded back into the running counts and written out in their
// original order: each line's kernel/path/proof search is independent of
// every other line's, so a batch of candidates can be dispatched to run in
// parallel rather than one at a time.
const candidateBatch = 32

// Budget constants from the filter's retry ladder: each stage starts at a
// base node count and doubles on every retry up to a cap.
const (
	kernelSearchNodes = 2 // INITIAL stage: cheap immediate-legality probe

	pathBaseNodes = 5000
	pathMaxNodes  = 500000

	proofBaseNodes = 50000
	proofMaxNodes  = 3200000

	weightA = 1
	weightB = 5
)

// StatusCounts tallies how many lines are in each Legality state, reported
// the way runOneIteration prints its progress line.
type StatusCounts [6]int

// Filter is a proof-game filter run: it owns nothing but a start time used
// for progress reporting, matching the original's "single-threaded per
// candidate position, no other shared state" design.
type Filter struct {
	startTime time.Time
}

// NewFilter creates a Filter ready to process lines.
func NewFilter() *Filter {
	return &Filter{startTime: time.Now()}
}

// FilterFens runs a single pass over is, writing the advanced lines to os.
func (f *Filter) FilterFens(is io.Reader, os io.Writer) error {
	var _, err = f.runOneIteration(is, os, true, false, false)
	return err
}

// FilterFensIterated repeatedly re-runs the filter over its own previous
// output, writing one numbered file per iteration (outFileBaseName + "00",
// "01", ...) until an iteration makes no further progress, matching the
// spec's "iterated numbered-output mode".
func (f *Filter) FilterFensIterated(is io.Reader, writeIterFile func(iter int) (io.WriteCloser, error),
	openIterFile func(iter int) (io.ReadCloser, error), retry bool) error {

	var iter int
	for {
		var out, err = writeIterFile(iter)
		if err != nil {
			return err
		}

		var in io.Reader = is
		var closer io.Closer
		if iter > 0 {
			var prev, err = openIterFile(iter - 1)
			if err != nil {
				out.Close()
				return err
			}
			in = prev
			closer = prev
		}

		var workRemains, runErr = f.runOneIteration(in, out, iter == 0, true, iter == 0 && retry)
		out.Close()
		if closer != nil {
			closer.Close()
		}
		if runErr != nil {
			return runErr
		}
		if !workRemains {
			return nil
		}
		iter++
	}
}

func (f *Filter) runOneIteration(is io.Reader, os io.Writer, firstIteration, showProgress, retry bool) (bool, error) {
	var startPos, err = chess.ReadFEN(chess.InitialPositionFEN)
	if err != nil {
		return false, err
	}

	var scanner = bufio.NewScanner(is)
	var writer = bufio.NewWriter(os)
	defer writer.Flush()

	var counts StatusCounts
	var workRemains bool

	var batch []*Line
	var batchStatus []Legality

	var flush = func() error {
		if len(batch) == 0 {
			return nil
		}

		var batchWorkRemains = make([]bool, len(batch))
		var g errgroup.Group
		for i, line := range batch {
			var i, line = i, line
			g.Go(func() error {
				batchWorkRemains[i] = f.advanceLine(startPos, line)
				return nil
			})
		}
		g.Wait()

		for i, line := range batch {
			var status = batchStatus[i]
			if batchWorkRemains[i] {
				workRemains = true
			}
			var reportProgress = firstIteration || status == Kernel || status == Path

			var newStatus = line.GetStatus()
			var sb strings.Builder
			line.Write(&sb)
			writer.WriteString(sb.String())

			if newStatus != status {
				counts[status]--
				counts[newStatus]++
			}
			if showProgress && (reportProgress || newStatus != status) {
				fmt.Fprintf(writer, "# legal: %d path: %d kernel: %d fail: %d illegal: %d elapsed: %s\n",
					counts[Legal], counts[Path], counts[Kernel], counts[Fail], counts[Illegal],
					time.Since(f.startTime).Round(time.Millisecond))
			}
		}

		batch = batch[:0]
		batchStatus = batchStatus[:0]
		return nil
	}

	for {
		var line, ok, err = ReadLine(scanner)
		if err != nil {
			flush()
			return workRemains, err
		}
		if !ok {
			break
		}
		if firstIteration && retry {
			line.eraseToken(InfoPath)
			line.eraseToken(InfoStatus)
			line.eraseToken(InfoFail)
			line.eraseToken(InfoInfo)
		}

		var status = line.GetStatus()
		if firstIteration {
			counts[status]++
		}

		batch = append(batch, line)
		batchStatus = append(batchStatus, status)
		if len(batch) >= candidateBatch {
			flush()
		}
	}
	flush()
	return workRemains, nil
}

// advanceLine runs the single pipeline stage appropriate to line's current
// Legality and reports whether the stage wants another pass (its search
// budget was exhausted without a conclusive answer). It touches nothing but
// line itself, so a batch of lines can safely run through it concurrently.
func (f *Filter) advanceLine(startPos chess.Position, line *Line) bool {
	switch line.GetStatus() {
	case Initial:
		f.computeExtProofKernel(line)
		return true
	case Kernel:
		return f.computePath(line)
	case Path:
		return f.computeProofGame(startPos, line)
	default:
		return false
	}
}

// computeExtProofKernel handles the INITIAL state: it looks for a proof
// kernel transforming the start position's material into the candidate
// FEN's material, and on success schedules it onto concrete squares.
func (f *Filter) computeExtProofKernel(line *Line) {
	var goal, err = chess.ReadFEN(line.FEN)
	if err != nil {
		line.SetTokenData(InfoIllegal, []string{"Invalid FEN"})
		return
	}
	var start, _ = chess.ReadFEN(chess.InitialPositionFEN)

	if path, found := search(start, goal, weightA, weightB, kernelSearchNodes); found {
		line.SetTokenData(InfoLegal, []string{})
		line.SetTokenData(InfoProof, movesToStrings(start, path))
		return
	}

	var pk = proofkernel.New(&start, &goal)
	var kernel, result, kerr = pk.FindProofKernel()
	if kerr != nil {
		line.SetTokenData(InfoUnknown, []string{})
		line.SetTokenData(InfoFail, nil)
		line.SetTokenData(InfoInfo, []string{kerr.Error()})
		return
	}

	switch result {
	case proofkernel.Fail:
		line.SetTokenData(InfoIllegal, []string{"No proof kernel"})
		if len(kernel) > 0 {
			var forced = make([]string, len(kernel))
			for i, m := range kernel {
				forced[i] = m.String()
			}
			line.SetTokenData(InfoForced, forced)
		}
	case proofkernel.KernelOnly:
		line.SetTokenData(InfoIllegal, []string{"No extended proof kernel"})
	case proofkernel.Success:
		line.SetTokenData(InfoUnknown, []string{})
		var kernelTokens = make([]string, len(kernel))
		for i, m := range kernel {
			kernelTokens[i] = m.String()
		}
		line.SetTokenData(InfoKernel, kernelTokens)

		var extKernel = kernelToExtKernel(kernel)
		extKernel = append(extKernel, pendingPromotionMoves(pk)...)
		extKernel = proofsched.Improve(extKernel, start)
		var extTokens = make([]string, len(extKernel))
		for i, m := range extKernel {
			extTokens[i] = extKernelMoveString(m)
		}
		line.SetTokenData(InfoExtKernel, extTokens)
	}
}

// kernelToExtKernel assigns a plausible concrete square to every kernel
// move's moving pawn (the file is known; the rank is picked deterministically
// from its index within the column, counting from the mover's own back
// rank) so pkg/proofsched has concrete from/to squares to schedule. Piece
// moves (FromFile == -1) are left without a FromSquare for assignPiece to
// resolve during scheduling.
func kernelToExtKernel(kernel []proofkernel.PkMove) []proofsched.ExtPkMove {
	var out = make([]proofsched.ExtPkMove, len(kernel))
	for i, m := range kernel {
		var movingPiece = proofkernel.Pawn
		var fromSquare = -1
		if m.FromFile >= 0 {
			var rank = m.FromIdx + 1
			if m.Color == proofkernel.Black {
				rank = 6 - m.FromIdx
			}
			fromSquare = chess.MakeSquare(m.FromFile, rank)
		} else {
			movingPiece = proofsched.NoPiece
		}

		var toRank = m.ToIdx + 1
		if m.Color.Other() == proofkernel.Black {
			toRank = 6 - m.ToIdx
		}
		var toSquare = chess.MakeSquare(m.ToFile, toRank)

		var promoted = proofsched.NoPiece
		if m.HasPromotion() {
			promoted = m.PromotedPiece
		}

		out[i] = proofsched.ExtPkMove{
			Color: m.Color, MovingPiece: movingPiece, FromSquare: fromSquare,
			Capture: true, ToSquare: toSquare, PromotedPiece: promoted,
		}
	}
	return out
}

// pendingPromotionMoves covers the deficits FindProofKernel's own goal
// check tolerates without a capturing kernel move: a color may still owe
// the goal a piece type that a pawn of its own, left free to promote
// without a further capture, can supply. decidePromotions picks which of
// those pawns promotes to which type; each choice becomes a trailing
// non-capturing pawn move appended after the kernel's own captures.
func pendingPromotionMoves(pk *proofkernel.ProofKernel) []proofsched.ExtPkMove {
	var out []proofsched.ExtPkMove
	for _, color := range []proofkernel.PieceColor{proofkernel.White, proofkernel.Black} {
		var needed = NeededPromotions{
			Queen:       deficit(pk, color, proofkernel.Queen),
			Rook:        deficit(pk, color, proofkernel.Rook),
			Knight:      deficit(pk, color, proofkernel.Knight),
			DarkBishop:  deficit(pk, color, proofkernel.DarkBishop),
			LightBishop: deficit(pk, color, proofkernel.LightBishop),
		}
		if (needed == NeededPromotions{}) {
			continue
		}

		var candidates []PromotionCandidate
		for _, pf := range pk.PromotableFiles(color) {
			for i := 0; i < pf.Count; i++ {
				candidates = append(candidates, PromotionCandidate{
					Color: color, File: pf.File,
					OnDarkSquare: pf.OnDarkSquare, Trapped: pf.Count == 1,
				})
			}
		}

		var toRank, fromRank = 7, 6
		if color == proofkernel.Black {
			toRank, fromRank = 0, 1
		}
		for i, t := range decidePromotions(candidates, needed) {
			var file = candidates[i].File
			out = append(out, proofsched.ExtPkMove{
				Color: color, MovingPiece: proofkernel.Pawn,
				FromSquare:    chess.MakeSquare(file, fromRank),
				ToSquare:      chess.MakeSquare(file, toRank),
				PromotedPiece: t,
			})
		}
	}
	return out
}

// deficit is how many more of t the goal still needs for color, beyond
// what the kernel's own captures already supply.
func deficit(pk *proofkernel.ProofKernel, color proofkernel.PieceColor, t proofkernel.PieceType) int {
	if n := -pk.ExcessCount(color, t); n > 0 {
		return n
	}
	return 0
}

func extKernelMoveString(m proofsched.ExtPkMove) string {
	var s = chess.SquareName(m.ToSquare)
	if m.FromSquare >= 0 {
		s = chess.SquareName(m.FromSquare) + "x" + s
	} else {
		s = "x" + s
	}
	if m.HasPromotion() {
		s += "=" + m.PromotedPiece.String()
	}
	return s
}

// computePath handles the KERNEL state: it runs a bounded best-first search
// from the start position towards the candidate FEN, doubling its node
// budget on each retry up to pathMaxNodes; the scheduled extended kernel
// does not feed into this search. It reports whether work remains (the
// budget was exhausted without a conclusive answer).
func (f *Filter) computePath(line *Line) bool {
	var budget = line.GetStatusInt("pathBudget", pathBaseNodes)

	var start, _ = chess.ReadFEN(chess.InitialPositionFEN)
	var goal, err = chess.ReadFEN(line.FEN)
	if err != nil {
		line.SetTokenData(InfoIllegal, []string{"Invalid FEN"})
		return false
	}

	var path, found = search(start, goal, weightA, weightB, budget)
	if found {
		line.SetTokenData(InfoPath, movesToStrings(start, path))
		return false
	}

	if budget >= pathMaxNodes {
		line.SetTokenData(InfoFail, []string{"No path found in budget"})
		return false
	}
	line.SetStatusInt("pathBudget", budget*2)
	return true
}

// computeProofGame handles the PATH state: a larger best-first search from
// startPos, escalating from proofBaseNodes to proofMaxNodes. The PATH
// tokens found earlier are not used as a hint; the search derives the full
// path anew.
func (f *Filter) computeProofGame(startPos chess.Position, line *Line) bool {
	var budget = line.GetStatusInt("proofBudget", proofBaseNodes)

	var goal, err = chess.ReadFEN(line.FEN)
	if err != nil {
		line.SetTokenData(InfoIllegal, []string{"Invalid FEN"})
		return false
	}

	var path, found = search(startPos, goal, weightA, weightB, budget)
	if found {
		line.SetTokenData(InfoLegal, []string{})
		line.SetTokenData(InfoProof, movesToStrings(startPos, path))
		return false
	}

	if budget >= proofMaxNodes {
		line.SetTokenData(InfoUnknown, []string{})
		line.SetTokenData(InfoFail, []string{"No solution in budget"})
		return false
	}
	line.SetStatusInt("proofBudget", budget*2)
	return true
}

func movesToStrings(pos chess.Position, path []chess.Move) []string {
	var out = make([]string, len(path))
	for i, m := range path {
		out[i] = m.String()
		var next, ok = pos.MakeMove(m)
		if !ok {
			break
		}
		pos = next
	}
	return out
}

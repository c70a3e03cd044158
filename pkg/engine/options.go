package engine

import "math"

// Options controls the tunable parts of the search: resource sizing
// (Hash, Threads), feature toggles for the pruning techniques in search.go,
// and the pondering/strength knobs beyond the teacher's option set.
type Options struct {
	Hash              int
	Threads           int
	MultiPV           int
	Ponder            bool
	Strength          int // 0..1000; 1000 (the default) disables throttling, see strength.go
	AspirationWindows bool
	NullMovePruning   bool
	ReverseFutility   bool
	Probcut           bool
	SingularExt       bool
	CheckExt          bool
	Lmp               bool
	Futility          bool
	See               bool
	reductions        [64][64]int
}

// NewOptions returns the default configuration: a single search thread,
// one principal variation, a 16MB table and every pruning technique
// enabled.
func NewOptions() Options {
	var o = Options{
		Hash:              16,
		Threads:           1,
		MultiPV:           1,
		Strength:          1000,
		AspirationWindows: true,
		NullMovePruning:   true,
		ReverseFutility:   true,
		Probcut:           true,
		SingularExt:       true,
		CheckExt:          true,
		Lmp:               true,
		Futility:          true,
		See:               true,
	}
	o.initLmr(lmrMult)
	return o
}

// Lmr returns the late-move-reduction amount for a move searched at the
// given depth and move index.
func (o *Options) Lmr(depth, moveIndex int) int {
	return o.reductions[min(depth, 63)][min(moveIndex, 63)]
}

func (o *Options) initLmr(f func(d, m float64) float64) {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			o.reductions[d][m] = int(f(float64(d), float64(m)))
		}
	}
}

func lmrMult(d, m float64) float64 {
	return lerp(math.Log(d)*math.Log(m), math.Log(5)*math.Log(22), math.Log(63)*math.Log(63), 3, 8)
}

func lerp(x, x1, x2, y1, y2 float64) float64 {
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}

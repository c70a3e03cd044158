package engine

import "testing"

func TestNewOptionsDefaults(t *testing.T) {
	var o = NewOptions()
	if o.Hash != 16 || o.Threads != 1 || o.MultiPV != 1 {
		t.Errorf("unexpected defaults: %+v", o)
	}
	if !o.AspirationWindows || !o.NullMovePruning || !o.Lmp || !o.Futility || !o.See {
		t.Error("expected every pruning technique enabled by default")
	}
}

func TestLmrIncreasesWithDepthAndMoveIndex(t *testing.T) {
	var o = NewOptions()
	if o.Lmr(3, 3) > o.Lmr(20, 20) {
		t.Error("reduction should grow with depth and move index")
	}
	if o.Lmr(1, 1) < 0 {
		t.Error("reduction should never be negative")
	}
}

func TestLmrClampsOutOfRangeIndices(t *testing.T) {
	var o = NewOptions()
	if o.Lmr(1000, 1000) != o.Lmr(63, 63) {
		t.Error("Lmr should clamp depth/moveIndex to the table bounds")
	}
}

package tt

import "testing"

func TestProbeMiss(t *testing.T) {
	var table = New(10)
	var _, ok = table.Probe(0x1234, 0)
	if ok {
		t.Fatal("expected miss on empty table")
	}
}

func TestInsertThenProbe(t *testing.T) {
	var table = New(10)
	var hash = uint64(0xdeadbeefcafebabe)
	table.Insert(hash, Entry{MoveHash: 777, Score: 150, StaticEval: 80, Depth: 6, Bound: BoundExact}, 3)

	var e, ok = table.Probe(hash, 3)
	if !ok {
		t.Fatal("expected hit after insert")
	}
	if e.MoveHash != 777 || e.Score != 150 || e.StaticEval != 80 || e.Depth != 6 || e.Bound != BoundExact {
		t.Fatalf("round-tripped entry mismatch: %+v", e)
	}
}

func TestProbeDifferentHashMisses(t *testing.T) {
	var table = New(10)
	table.Insert(0xaaaa, Entry{MoveHash: 1, Score: 10, Depth: 2, Bound: BoundLower}, 0)
	var _, ok = table.Probe(0xbbbb, 0)
	if ok {
		t.Fatal("expected miss for an unrelated hash colliding into the same bucket slot only by accident")
	}
}

func TestMateScorePlyAdjustment(t *testing.T) {
	var table = New(10)
	var hash = uint64(42)
	var mateScore = MateScore - 4
	table.Insert(hash, Entry{MoveHash: 1, Score: mateScore, Depth: 10, Bound: BoundExact}, 2)

	e, ok := table.Probe(hash, 2)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.Score != mateScore {
		t.Errorf("probe at the insertion ply should recover the original score, got %d want %d", e.Score, mateScore)
	}

	e, ok = table.Probe(hash, 5)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.Score == mateScore {
		t.Errorf("probe at a different ply should rebase the mate score, got unchanged %d", e.Score)
	}
}

func TestNegativeMateScorePlyAdjustment(t *testing.T) {
	var table = New(10)
	var hash = uint64(99)
	var mateScore = -(MateScore - 4)
	table.Insert(hash, Entry{MoveHash: 1, Score: mateScore, Depth: 10, Bound: BoundExact}, 2)

	e, ok := table.Probe(hash, 2)
	if !ok {
		t.Fatal("expected hit")
	}
	if e.Score != mateScore {
		t.Errorf("probe at insertion ply: got %d want %d", e.Score, mateScore)
	}
}

func TestDeeperEntryReplacesShallower(t *testing.T) {
	var table = New(2) // 4 entries -> a single bucket
	var base = uint64(1) << 40
	for i := 0; i < bucketSlots; i++ {
		table.Insert(base+uint64(i), Entry{MoveHash: uint16(i), Score: 1, Depth: 1, Bound: BoundLower}, 0)
	}
	// Bucket is now full of shallow entries; a much deeper result for a new
	// key must still find a home by evicting the worst of them.
	var newHash = base + bucketSlots
	table.Insert(newHash, Entry{MoveHash: 9, Score: 2, Depth: 20, Bound: BoundExact}, 0)
	var _, ok = table.Probe(newHash, 0)
	if !ok {
		t.Fatal("expected the deep entry to have evicted a shallow one")
	}
}

func TestClearRemovesEntries(t *testing.T) {
	var table = New(10)
	table.Insert(7, Entry{MoveHash: 1, Score: 5, Depth: 1, Bound: BoundLower}, 0)
	table.Clear()
	var _, ok = table.Probe(7, 0)
	if ok {
		t.Fatal("expected miss after Clear")
	}
}

func TestNextGenerationDoesNotDropEntries(t *testing.T) {
	var table = New(10)
	table.Insert(7, Entry{MoveHash: 1, Score: 5, Depth: 1, Bound: BoundLower}, 0)
	table.NextGeneration()
	var _, ok = table.Probe(7, 0)
	if !ok {
		t.Fatal("NextGeneration should only affect replacement priority, not drop live entries")
	}
}

func TestResizeClearsContent(t *testing.T) {
	var table = New(10)
	table.Insert(7, Entry{MoveHash: 1, Score: 5, Depth: 1, Bound: BoundLower}, 0)
	table.Resize(12)
	var _, ok = table.Probe(7, 0)
	if ok {
		t.Fatal("expected Resize to discard existing content")
	}
}

func TestBoundString(t *testing.T) {
	var cases = map[Bound]string{
		BoundNone:  "none",
		BoundLower: "lower",
		BoundUpper: "upper",
		BoundExact: "exact",
	}
	for b, want := range cases {
		if got := b.String(); got != want {
			t.Errorf("Bound(%d).String() = %q, want %q", b, got, want)
		}
	}
}

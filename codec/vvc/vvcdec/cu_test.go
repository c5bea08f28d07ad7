package vvcdec

import "testing"

func TestCUArenaAllocReturnsDistinctZeroedUnits(t *testing.T) {
	a := newCUArena()
	cu1 := a.Alloc()
	cu1.X, cu1.Y = 8, 16

	cu2 := a.Alloc()
	if cu2.X != 0 || cu2.Y != 0 {
		t.Fatalf("expected freshly allocated CU to be zeroed, got %+v", cu2)
	}
	if cu1 == cu2 {
		t.Fatalf("expected distinct CU pointers")
	}
}

func TestCUArenaAllocGrowsAcrossBlocks(t *testing.T) {
	a := newCUArena()
	var ptrs []*CodingUnit
	for i := 0; i < cuArenaBlockSize+10; i++ {
		ptrs = append(ptrs, a.Alloc())
	}
	if len(a.blocks) < 2 {
		t.Fatalf("expected arena to grow past one block, got %d blocks", len(a.blocks))
	}
	seen := make(map[*CodingUnit]bool)
	for _, p := range ptrs {
		if seen[p] {
			t.Fatalf("expected all allocated CU pointers to be distinct")
		}
		seen[p] = true
	}
}

func TestCUArenaResetZeroesAndReusesFirstBlock(t *testing.T) {
	a := newCUArena()
	cu := a.Alloc()
	cu.X = 42
	a.Reset()

	if a.cur != 0 || len(a.blocks) != 1 {
		t.Fatalf("expected Reset to collapse to a single fresh block, got cur=%d blocks=%d", a.cur, len(a.blocks))
	}
	fresh := a.Alloc()
	if fresh.X != 0 {
		t.Fatalf("expected Reset to zero reused storage, got X=%d", fresh.X)
	}
}

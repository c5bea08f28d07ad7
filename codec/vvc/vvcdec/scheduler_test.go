package vvcdec

import (
	"sync"
	"testing"
	"time"
)

func TestProgressAddListenerFiresOnAdvance(t *testing.T) {
	p := newProgress()
	fired := make(chan bool, 1)
	p.AddListener(ProgressPixel, 32, func(cancelled bool) { fired <- cancelled })

	select {
	case <-fired:
		t.Fatalf("listener fired before progress reached threshold")
	default:
	}

	p.ReportProgress(ProgressPixel, 16)
	select {
	case <-fired:
		t.Fatalf("listener fired before progress reached threshold")
	default:
	}

	p.ReportProgress(ProgressPixel, 32)
	select {
	case cancelled := <-fired:
		if cancelled {
			t.Fatalf("listener reported cancelled, want normal fire")
		}
	case <-time.After(time.Second):
		t.Fatalf("listener never fired")
	}
}

func TestProgressAddListenerFiresImmediatelyIfAlreadyPast(t *testing.T) {
	p := newProgress()
	p.ReportProgress(ProgressPixel, 64)
	called := false
	p.AddListener(ProgressPixel, 32, func(cancelled bool) { called = true })
	if !called {
		t.Fatalf("expected immediate fire when threshold already satisfied")
	}
}

func TestProgressMonotonic(t *testing.T) {
	p := newProgress()
	p.ReportProgress(ProgressPixel, 64)
	p.ReportProgress(ProgressPixel, 16) // must not move backwards.
	if got := p.Y(ProgressPixel); got != 64 {
		t.Fatalf("got %d, want 64 (progress must be non-decreasing)", got)
	}
}

func TestProgressCancelFiresAllListeners(t *testing.T) {
	p := newProgress()
	var wg sync.WaitGroup
	results := make([]bool, 4)
	for i := range results {
		wg.Add(1)
		i := i
		p.AddListener(ProgressPixel, 1000, func(cancelled bool) {
			results[i] = cancelled
			wg.Done()
		})
	}
	p.Cancel()
	wg.Wait()
	for i, c := range results {
		if !c {
			t.Errorf("listener %d: got cancelled=false, want true", i)
		}
	}
}

func TestProgressRetireReachesHeight(t *testing.T) {
	p := newProgress()
	p.Retire(1080)
	if got := p.Y(ProgressMV); got != 1080 {
		t.Errorf("ProgressMV: got %d, want 1080", got)
	}
	if got := p.Y(ProgressPixel); got != 1080 {
		t.Errorf("ProgressPixel: got %d, want 1080", got)
	}
}

func TestSchedulerStageDependencies(t *testing.T) {
	s := NewScheduler(3, 3)

	if !s.Ready(0, 0, StageParse) {
		t.Fatalf("PARSE should always be ready")
	}
	if s.Ready(1, 1, StageInter) {
		t.Fatalf("INTER should not be ready before PARSE")
	}

	s.MarkDone(1, 1, StageParse)
	if !s.Ready(1, 1, StageInter) {
		t.Fatalf("INTER should be ready once PARSE is done")
	}

	s.MarkDone(1, 1, StageInter)
	s.MarkDone(1, 1, StageRecon)
	s.MarkDone(1, 1, StageLMCS)

	if s.Ready(1, 1, StageDeblockV) {
		t.Fatalf("DEBLOCK_V should require RECON(rx-1,ry)")
	}
	s.MarkDone(0, 1, StageRecon)
	if !s.Ready(1, 1, StageDeblockV) {
		t.Fatalf("DEBLOCK_V should be ready once RECON(rx-1,ry) and LMCS(rx,ry) are done")
	}
}

func TestSchedulerSAORequiresNeighbourhoodDeblockH(t *testing.T) {
	s := NewScheduler(3, 3)
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			rx, ry := 1+dx, 1+dy
			if rx < 0 || rx >= 3 || dy+1 >= 3 {
				continue
			}
			if rx == 1 && dy == 1 {
				continue // leave one neighbour undone.
			}
			s.MarkDone(rx, ry, StageDeblockV)
			s.MarkDone(rx, ry, StageDeblockH)
		}
	}
	if s.Ready(1, 1, StageSAO) {
		t.Fatalf("SAO should not be ready while a 3x3 neighbour is missing DEBLOCK_H")
	}
	s.MarkDone(1, 2, StageDeblockV)
	s.MarkDone(1, 2, StageDeblockH)
	if !s.Ready(1, 1, StageSAO) {
		t.Fatalf("SAO should be ready once the full 3x3 neighbourhood has DEBLOCK_H done")
	}
}

func TestSchedulerWaitUntilReadyUnblocksOnMarkDone(t *testing.T) {
	s := NewScheduler(2, 2)
	done := make(chan struct{})
	go func() {
		s.WaitUntilReady(0, 0, StageInter)
		close(done)
	}()

	select {
	case <-done:
		t.Fatalf("WaitUntilReady returned before PARSE completed")
	case <-time.After(20 * time.Millisecond):
	}

	s.MarkDone(0, 0, StageParse)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("WaitUntilReady did not unblock after MarkDone")
	}
}

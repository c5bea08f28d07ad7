/*
DESCRIPTION
  scheduler.go provides the CTU stage scheduler and the per-picture progress
  protocol that lets CTU rows in different pictures run in parallel.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vvcdec

import "sync"

// ProgressKind identifies one of the two monotone progress coordinates a
// picture tracks, matching the reference decoder's VVCProgress enum
// (VVC_PROGRESS_MV, VVC_PROGRESS_PIXEL).
type ProgressKind int

const (
	ProgressMV ProgressKind = iota
	ProgressPixel
	numProgressKinds
)

// Listener is a single-shot continuation fired once a picture's progress
// coordinate reaches or passes Y. It mirrors VVCProgressListener: listeners
// are removed from the list the moment they fire, and firing order across
// listeners for the same advance is not semantically significant.
type Listener struct {
	Kind ProgressKind
	Y    int
	Fn   func(cancelled bool)
}

// Progress tracks the two monotone per-picture coordinates and the
// listeners waiting on them. It is safe for concurrent use.
type Progress struct {
	mu        sync.Mutex
	y         [numProgressKinds]int
	listeners [numProgressKinds][]*Listener
	retired   bool
}

// newProgress returns a zeroed Progress, both coordinates starting at 0 per
// picture invariant.
func newProgress() *Progress {
	return &Progress{}
}

// Y returns the current coordinate for kind vp.
func (p *Progress) Y(vp ProgressKind) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.y[vp]
}

// AddListener registers fn to be called, exactly once, once progress[vp] >= y.
// If progress has already reached y, fn is invoked synchronously. If the
// picture has already been retired (cancelled or fully decoded), fn fires
// immediately in its cancelled/fired state rather than being leaked.
func (p *Progress) AddListener(vp ProgressKind, y int, fn func(cancelled bool)) {
	p.mu.Lock()
	if p.y[vp] >= y {
		p.mu.Unlock()
		fn(false)
		return
	}
	if p.retired {
		p.mu.Unlock()
		fn(true)
		return
	}
	p.listeners[vp] = append(p.listeners[vp], &Listener{Kind: vp, Y: y, Fn: fn})
	p.mu.Unlock()
}

// ReportProgress advances progress[vp] to y (a no-op if y is not an
// advance) and fires every listener whose threshold has now been reached,
// preserving invariant progress[MV] >= progress[PIXEL] by the caller only
// ever calling this with coordinates that respect it.
func (p *Progress) ReportProgress(vp ProgressKind, y int) {
	p.mu.Lock()
	if y <= p.y[vp] {
		p.mu.Unlock()
		return
	}
	p.y[vp] = y

	remaining := p.listeners[vp][:0]
	var fire []*Listener
	for _, l := range p.listeners[vp] {
		if l.Y <= y {
			fire = append(fire, l)
		} else {
			remaining = append(remaining, l)
		}
	}
	p.listeners[vp] = remaining
	p.mu.Unlock()

	for _, l := range fire {
		l.Fn(false)
	}
}

// Cancel retires the picture: every still-pending listener across both
// progress kinds fires with cancelled=true, and any future AddListener call
// fires immediately instead of blocking forever.
func (p *Progress) Cancel() {
	p.mu.Lock()
	p.retired = true
	var fire []*Listener
	for vp := ProgressKind(0); vp < numProgressKinds; vp++ {
		fire = append(fire, p.listeners[vp]...)
		p.listeners[vp] = nil
	}
	p.mu.Unlock()

	for _, l := range fire {
		l.Fn(true)
	}
}

// Retire marks the picture fully decoded: progress[vp] is forced to height
// for every kind so drained waiters observe completion even if an error
// truncated reconstruction mid-frame.
func (p *Progress) Retire(height int) {
	for vp := ProgressKind(0); vp < numProgressKinds; vp++ {
		p.ReportProgress(vp, height)
	}
	p.mu.Lock()
	p.retired = true
	p.mu.Unlock()
}

// Stage identifies one of the ordered per-CTU pipeline stages.
type Stage int

const (
	StageParse Stage = iota
	StageInter
	StageRecon
	StageLMCS
	StageDeblockV
	StageDeblockH
	StageSAO
	StageALF
	numStages
)

// ctuCoord addresses one CTU by its row/column in CTU units.
type ctuCoord struct{ rx, ry int }

// Scheduler tracks, per CTU, which stages have completed, and fans out
// wakeups when a stage's dependents become runnable. PARSE is driven
// externally in strict raster/tile order (it follows CABAC bit order and is
// never reordered by the scheduler); every later stage is admitted once its
// producer-side dependencies are satisfied.
type Scheduler struct {
	mu       sync.Mutex
	width    int // CTUs per row.
	height   int // CTU rows.
	done     map[ctuCoord][numStages]bool
	waiters  map[ctuCoord][]chan struct{}
}

// NewScheduler returns a Scheduler for a picture with the given CTU grid
// dimensions.
func NewScheduler(widthCTUs, heightCTUs int) *Scheduler {
	return &Scheduler{
		width:   widthCTUs,
		height:  heightCTUs,
		done:    make(map[ctuCoord][numStages]bool),
		waiters: make(map[ctuCoord][]chan struct{}),
	}
}

// inBounds reports whether (rx,ry) is within the picture's CTU grid.
func (s *Scheduler) inBounds(rx, ry int) bool {
	return rx >= 0 && rx < s.width && ry >= 0 && ry < s.height
}

// Done reports whether stage has completed for CTU (rx, ry). Out-of-bounds
// coordinates are vacuously done, so dependency checks at picture edges
// (e.g. DEBLOCK_V at rx-1 when rx==0) don't need special-casing by callers.
func (s *Scheduler) Done(rx, ry int, stage Stage) bool {
	if !s.inBounds(rx, ry) {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done[ctuCoord{rx, ry}][stage]
}

// Ready reports whether every dependency of stage at (rx,ry) in the
// per-CTU stage DAG is currently satisfied.
func (s *Scheduler) Ready(rx, ry int, stage Stage) bool {
	switch stage {
	case StageParse:
		return true // caller enforces strict order externally.
	case StageInter:
		return s.Done(rx, ry, StageParse)
	case StageRecon:
		return s.Done(rx, ry, StageInter)
	case StageLMCS:
		return s.Done(rx, ry, StageRecon)
	case StageDeblockV:
		return s.Done(rx-1, ry, StageRecon) && s.Done(rx, ry, StageLMCS)
	case StageDeblockH:
		return s.Done(rx, ry, StageDeblockV) && s.Done(rx, ry-1, StageDeblockH)
	case StageSAO:
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if !s.Done(rx+dx, ry+dy, StageDeblockH) {
					return false
				}
			}
		}
		return true
	case StageALF:
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				if !s.Done(rx+dx, ry+dy, StageSAO) {
					return false
				}
			}
		}
		return true
	default:
		return false
	}
}

// MarkDone records stage as complete for (rx,ry) and wakes every goroutine
// blocked in WaitUntilReady, since a stage's readiness can depend on
// neighbouring CTUs; each woken waiter re-checks its own readiness.
func (s *Scheduler) MarkDone(rx, ry int, stage Stage) {
	s.mu.Lock()
	d := s.done[ctuCoord{rx, ry}]
	d[stage] = true
	s.done[ctuCoord{rx, ry}] = d
	var ws []chan struct{}
	for c, cw := range s.waiters {
		ws = append(ws, cw...)
		delete(s.waiters, c)
	}
	s.mu.Unlock()

	for _, w := range ws {
		close(w)
	}
}

// WaitUntilReady blocks the calling goroutine until stage is Ready at
// (rx,ry). It is intended for the later (non-PARSE) stages, which may
// suspend only on progress-listener-style conditions; this is the
// intra-picture analogue used for the CTU neighbourhood dependencies
// rather than cross-frame reference waits.
func (s *Scheduler) WaitUntilReady(rx, ry int, stage Stage) {
	for {
		if s.Ready(rx, ry, stage) {
			return
		}
		s.mu.Lock()
		if s.Ready(rx, ry, stage) {
			s.mu.Unlock()
			return
		}
		ch := make(chan struct{})
		s.waiters[ctuCoord{rx, ry}] = append(s.waiters[ctuCoord{rx, ry}], ch)
		s.mu.Unlock()
		<-ch
	}
}

/*
DESCRIPTION
  hmvp.go provides the history-based MVP ring buffers and the palette
  predictor state carried per entry point (wavefront thread / tile / slice).

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

const hmvpCapacity = 5

// HMVPBuffer is a ring of at most hmvpCapacity entries, used for both the
// inter HMVP table and the IBC block-vector table (BV entries are carried
// as MvField with PredFlagIBC set, the vector in MV[0] and RefIdx {-1, -1}).
type HMVPBuffer struct {
	entries []MvField
}

// Reset empties the buffer, used at CTU-row, tile, and entropy-sync-entry
// boundaries
func (b *HMVPBuffer) Reset() { b.entries = b.entries[:0] }

// Len reports how many entries are currently stored.
func (b *HMVPBuffer) Len() int { return len(b.entries) }

// At returns the i-th entry, 0 being the oldest.
func (b *HMVPBuffer) At(i int) MvField { return b.entries[i] }

// Newest returns the most recently pushed entries in newest-to-oldest
// order, used by merge-list/AMVP HMVP walks.
func (b *HMVPBuffer) Newest() []MvField {
	out := make([]MvField, len(b.entries))
	for i, e := range b.entries {
		out[len(b.entries)-1-i] = e
	}
	return out
}

// Update pushes mv onto the buffer following 8.5.2.16's rule: remove any
// existing identical entry first (so a re-used motion doesn't appear
// twice), then append; once over capacity the oldest entry is evicted.
func (b *HMVPBuffer) Update(mv MvField) {
	for i, e := range b.entries {
		if sameMotion(e, mv) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			break
		}
	}
	b.entries = append(b.entries, mv)
	if len(b.entries) > hmvpCapacity {
		b.entries = b.entries[1:]
	}
}

// palettePredictor carries up to 63 prior entries per colour channel,
// surviving CU-to-CU within the same tree and reset at CTU/slice/tile
// boundaries
type palettePredictor struct {
	entries [3][]int32
	maxSize int
}

// newPalettePredictor returns a predictor capped to maxSize entries per
// channel (halved for dual-tree chroma
func newPalettePredictor(maxSize int) *palettePredictor {
	return &palettePredictor{maxSize: maxSize}
}

// Reset empties every channel's predictor list.
func (p *palettePredictor) Reset() {
	for c := range p.entries {
		p.entries[c] = p.entries[c][:0]
	}
}

// Push appends a new palette entry for channel c, evicting the oldest once
// over maxSize.
func (p *palettePredictor) Push(c int, v int32) {
	p.entries[c] = append(p.entries[c], v)
	if len(p.entries[c]) > p.maxSize {
		p.entries[c] = p.entries[c][1:]
	}
}

// EntryPoint bundles the per-entry-point state that must never leak across
// slice/tile/entropy-sync-row boundaries: HMVP, HMVP-IBC, and palette
// predictor state.
type EntryPoint struct {
	HMVP    HMVPBuffer
	HMVPIBC HMVPBuffer
	Palette *palettePredictor
}

// NewEntryPoint returns a freshly reset EntryPoint.
func NewEntryPoint(paletteMaxSize int) *EntryPoint {
	return &EntryPoint{Palette: newPalettePredictor(paletteMaxSize)}
}

// Reset clears all state owned by the entry point.
func (e *EntryPoint) Reset() {
	e.HMVP.Reset()
	e.HMVPIBC.Reset()
	e.Palette.Reset()
}

/*
DESCRIPTION
  dpb.go provides the decoded picture buffer: picture allocation, reference
  marking, RPL resolution, and output bumping.

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

import (
	"sync"

	"github.com/pkg/errors"
)

// RefPicEntry is one resolved entry of a slice's reference picture list.
type RefPicEntry struct {
	Frame      *Picture
	POC        int
	IsLongTerm bool
	IsScaled   bool // set when the reference resolution differs (RPR).
}

// RefPicList is a slice's resolved L0 or L1 reference list.
type RefPicList []RefPicEntry

// DPB is the decoded picture buffer: a slot table of in-flight Pictures
// guarded by a single mutex.
type DPB struct {
	mu      sync.Mutex
	slots   []*Picture
	maxSize int
	log     Logger
}

// NewDPB returns an empty DPB that holds at most maxSize pictures with any
// of {OUTPUT, SHORT_REF, LONG_REF, BUMPING} set, per
// sps_max_dec_pic_buffering_minus1+1.
func NewDPB(maxSize int, log Logger) *DPB {
	if log == nil {
		log = nopLogger{}
	}
	return &DPB{maxSize: maxSize, log: log}
}

// SetNewRef allocates a new picture sized per the active PPS/SPS, zeroes
// its progress, and links the collocated reference for the given slice, as
// ff_vvc_set_new_ref does in the reference decoder.
func (d *DPB) SetNewRef(sps *SPS, collocated *Picture) *Picture {
	pic := newPicture(sps.Width, sps.Height, sps.CTUSize)
	pic.Flags = FlagShortRef
	pic.Collocated = collocated
	d.mu.Lock()
	pic.gen = len(d.slots)
	d.slots = append(d.slots, pic)
	d.mu.Unlock()
	return pic
}

// BumpFrame marks pic for output and enforces the DPB size bound by
// evicting the oldest fully-unreferenced, already-output picture if the
// buffer is over capacity, mirroring ff_vvc_bump_frame.
func (d *DPB) BumpFrame(pic *Picture) {
	d.mu.Lock()
	defer d.mu.Unlock()
	pic.Flags |= FlagOutput | FlagBumping

	active := 0
	for _, p := range d.slots {
		if p.anyFlag(FlagOutput | FlagShortRef | FlagLongRef | FlagBumping) {
			active++
		}
	}
	for active > d.maxSize {
		evicted := false
		for i, p := range d.slots {
			if p == pic {
				continue
			}
			if p.Flags == 0 {
				continue
			}
			if !p.anyFlag(FlagShortRef | FlagLongRef | FlagBumping) {
				p.Flags &^= FlagOutput
				d.slots = append(d.slots[:i], d.slots[i+1:]...)
				active--
				evicted = true
				break
			}
		}
		if !evicted {
			break
		}
	}
}

// UnrefFrame clears the given flag bits on f; once no flag remains set, the
// slot is released back to the pool, mirroring ff_vvc_unref_frame.
func (d *DPB) UnrefFrame(f *Picture, mask FrameFlag) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f.Flags &^= mask
	if f.Flags != 0 {
		return
	}
	for i, p := range d.slots {
		if p == f {
			d.slots = append(d.slots[:i], d.slots[i+1:]...)
			return
		}
	}
}

// findByPOC returns the Picture in the DPB with the given POC, or nil.
func (d *DPB) findByPOC(poc int) *Picture {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.slots {
		if p.POC == poc {
			return p
		}
	}
	return nil
}

// SliceRPL resolves the RPL syntax of a slice into concrete
// {frame, poc, is_lt} entries for both lists. pocs[l] gives the requested
// POC and longTerm[l] whether it's a long-term request, for each active
// entry 0..numRefIdxActive[l]-1. A POC missing from the DPB becomes a
// grey placeholder picture unless mandatory is true for that entry and
// allowMissingRef is false, in which case an ErrMissingReference *Error is
// returned.
func (d *DPB) SliceRPL(sps *SPS, numRefIdxActive [2]int, pocs [2][]int, longTerm [2][]bool, mandatory [2][]bool, allowMissingRef bool) ([2]RefPicList, error) {
	var lists [2]RefPicList
	for l := 0; l < 2; l++ {
		for i := 0; i < numRefIdxActive[l]; i++ {
			poc := pocs[l][i]
			frame := d.findByPOC(poc)
			if frame == nil {
				if mandatory[l][i] && !allowMissingRef {
					return lists, newError(ErrMissingReference, errors.Errorf("reference POC %d for list %d index %d not found in DPB", poc, l, i))
				}
				d.log.Warning("vvcdec: missing reference, synthesising grey placeholder", "poc", poc, "list", l)
				frame = d.greyPlaceholder(sps, poc)
			}
			lists[l] = append(lists[l], RefPicEntry{
				Frame:      frame,
				POC:        poc,
				IsLongTerm: longTerm[l][i],
				IsScaled:   frame.Width != sps.Width || frame.Height != sps.Height,
			})
		}
	}
	return lists, nil
}

// greyPlaceholder synthesises a conformance-preserving all-grey picture
// standing in for an unavailable optional reference.
func (d *DPB) greyPlaceholder(sps *SPS, poc int) *Picture {
	pic := newPicture(sps.Width, sps.Height, sps.CTUSize)
	pic.POC = poc
	mid := int32(1 << (sps.BitDepth - 1))
	for i, plane := range pic.Planes {
		w, h := sps.Width, sps.Height
		if i > 0 {
			w, h = chromaDims(sps, w, h)
		}
		p := &Plane{Width: w, Height: h, Stride: w, Samples: make([]int32, w*h)}
		for i := range p.Samples {
			p.Samples[i] = mid
		}
		pic.Planes[i] = p
		_ = plane
	}
	pic.Flags = FlagShortRef
	pic.progress.Retire(sps.Height)
	return pic
}

// chromaDims returns the chroma plane dimensions for the SPS's
// ChromaFormatIDC given luma dimensions (w,h).
func chromaDims(sps *SPS, w, h int) (int, int) {
	switch sps.ChromaFormatIDC {
	case 0: // monochrome
		return 0, 0
	case 1: // 4:2:0
		return (w + 1) / 2, (h + 1) / 2
	case 2: // 4:2:2
		return (w + 1) / 2, h
	default: // 4:4:4
		return w, h
	}
}

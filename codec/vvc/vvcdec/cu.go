/*
DESCRIPTION
  cu.go provides the coding unit / prediction unit / transform unit data
  model the tree walker builds and every later stage (MV derivation,
  prediction, residual, filtering) consumes, plus a per-frame arena
  allocator so a parse error never leaves a partially-constructed CU
  reachable from another structure.

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

// SplitMode enumerates the coding_tree split decisions.
type SplitMode int

const (
	SplitNone SplitMode = iota
	SplitQuad
	SplitBinaryHorizontal
	SplitBinaryVertical
	SplitTernaryHorizontal
	SplitTernaryVertical
)

// IntraMode carries one PU's luma/chroma intra prediction mode selection.
type IntraMode struct {
	LumaMode     int
	MipFlag      bool
	IspSplit     int // 0 = none, 1 = horizontal, 2 = vertical.
	MrlIdx       int
	BdpcmDir     int // 0 = off, 1 = horizontal, 2 = vertical.
	ChromaMode   int
	CclmEnabled  bool
	PlanarAtBoundary bool
}

// PredictionUnit carries one PU's motion or intra-mode selection. A CU has
// exactly one PU; for affine/GPM/geometric CUs the per-subblock motion is
// stored in the owning Picture's MvField grid rather than here.
type PredictionUnit struct {
	X, Y, Width, Height int

	Mode PredMode

	Intra IntraMode

	Inter InterMotion

	// AffineFlag, NumCp and control-point MVs, set when Mode==PredModeInter
	// and the CU is affine-coded. CpMV is indexed [list][cp] so bi-predicted
	// affine CUs carry independent control points per list.
	AffineFlag bool
	NumCp      int
	CpMV       [2][3]Mv

	// MergeIdx/AMVPIdx record which candidate was selected, kept for
	// filter/debug purposes and HMVP bookkeeping; -1 when not applicable.
	MergeIdx int
	AMVPIdx  [2]int

	// GPM fields, set when the CU uses geometric partitioning merge.
	GPMFlag      bool
	GPMSplitIdx  int
	GPMMergeIdx  [2]int

	// IBC block vector, valid when Mode==PredModeIBC.
	BV Mv

	// Palette entries for this PU, valid when Mode==PredModePalette.
	PaletteIndexMap []uint8
	PaletteTable    [][3]int32
}

// TransformBlock is one colour-component transform block within a
// TransformUnit
type TransformBlock struct {
	X, Y, Width, Height int
	CbfFlag             bool
	QP                  int
	Coeffs              []int32 // scan-order dequantized coefficients, length Width*Height.
}

// TransformUnit carries the three colour-component transform blocks and the
// MTS/LFNST selections covering one residual coding unit.
type TransformUnit struct {
	X, Y, Width, Height int
	Blocks              [3]TransformBlock
	MtsIdx              int
	LfnstIdx            int
	JointCbCrFlag       bool
}

// CodingUnit is the node the tree walker produces at each non-split leaf of
// the coding_tree recursion
type CodingUnit struct {
	X, Y, Width, Height int
	Depth               int
	SplitMode           SplitMode // the split that produced this CU's children; SplitNone at leaves.

	ChromaFormatIDC int
	TreeType        int // 0 = single, 1 = dual-luma, 2 = dual-chroma.

	PU PredictionUnit
	TU []TransformUnit

	SbtFlag bool
	SbtIdx  int

	QP [3]int // luma, Cb, Cr.

	SkipFlag bool

	parsed bool // set once the tree walker has fully decoded this CU.

	children [4]*CodingUnit // non-nil only while SplitMode != SplitNone, before leaves are finalised.
}

// cuArena bump-allocates CodingUnits for one picture so a parse error never
// needs to free a partially-built tree; the whole arena is simply dropped
// (decided in DESIGN.md's Open Questions section instead of per-CU
// construct/destroy pairing).
type cuArena struct {
	blocks [][]CodingUnit
	cur    int // index into the last block of the next free slot.
}

const cuArenaBlockSize = 1024

// newCUArena returns an empty arena.
func newCUArena() *cuArena {
	return &cuArena{blocks: [][]CodingUnit{make([]CodingUnit, cuArenaBlockSize)}}
}

// Alloc returns a freshly zeroed CodingUnit owned by the arena.
func (a *cuArena) Alloc() *CodingUnit {
	last := a.blocks[len(a.blocks)-1]
	if a.cur == len(last) {
		a.blocks = append(a.blocks, make([]CodingUnit, cuArenaBlockSize))
		a.cur = 0
		last = a.blocks[len(a.blocks)-1]
	}
	cu := &last[a.cur]
	a.cur++
	return cu
}

// Reset drops every allocation, reusing the arena's backing storage for the
// next picture or tile.
func (a *cuArena) Reset() {
	a.blocks = a.blocks[:1]
	for i := range a.blocks[0] {
		a.blocks[0][i] = CodingUnit{}
	}
	a.cur = 0
}

/*
DESCRIPTION
  params.go provides the parameter-set and slice-header structures the core
  decoder consumes. Parsing VPS/SPS/PPS/PH/SH syntax is a collaborator's
  responsibility (the NAL-unit demuxer and its syntax parsers); these
  structs are what that collaborator is assumed to hand the core.

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

// SPS holds the sequence-level parameters the core needs. Field names
// follow syntax element names in UpperCamelCase, as
// h264dec's SPS/PPS do for H.264.
type SPS struct {
	ChromaFormatIDC    int
	BitDepth           int
	Width, Height      int
	CTUSize             int // CtbSizeY, one of 32/64/128.
	MinCUSize            int
	MaxMTTDepth          [3]int // indexed by slice-type class I/P/B for simplicity.
	MaxBTSize            [3]int
	MaxTTSize            [3]int
	MaxTbSize            int
	MaxNumMergeCand      int
	MaxNumAffineMergeCand int
	SBTMVPEnabled        bool
	AffineEnabled        bool
	DMVREnabled          bool
	BDOFEnabled          bool
	MMVDEnabled          bool
	GPMEnabled           bool
	CIIPEnabled          bool
	IBCEnabled           bool
	PaletteEnabled       bool
	LMCSEnabled          bool
	ALFEnabled           bool
	CCALFEnabled         bool
	SAOEnabled           bool
	DeblockingEnabled    bool
	EntropyCodingSyncEnabled bool
	Log2ParallelMergeLevel  int
	MaxDecPicBufferingMinus1 int
	NumRefFramesInPicOrderCntCycle int
}

// PPS holds the picture-level parameters the core needs.
type PPS struct {
	SPSID                       int
	InitQP                      int
	CuQPDeltaEnabled            bool
	CbQpOffset, CrQpOffset      int
	JointCbCrQpOffset           int
	ChromaQpOffsetListEnabled   bool
	ChromaQpOffsetList          []int
	WeightedPred, WeightedBipred bool
	NoPicPartitionFlag          bool
	NumTileColumns, NumTileRows int
	VirtualBoundaries           []int
	DeblockingOverrideEnabled   bool
	ActEnabled                  bool
}

// PicHeader carries per-picture syntax the core consumes.
type PicHeader struct {
	PicOrderCntLsb int
	NonReferencePictureFlag bool
	LMCSEnabled    bool
	ScalingListEnabled bool
}

// SliceType enumerates VVC slice types.
type SliceType int

const (
	SliceB SliceType = iota
	SliceP
	SliceI
)

// SliceHeader carries per-slice syntax the core consumes.
type SliceHeader struct {
	Type               SliceType
	SliceQpDelta       int
	TemporalID         int
	SubPicID           int
	TileIdx            int
	CollocatedFromL0   bool
	CollocatedRefIdx   int
	NumRefIdxActive    [2]int
	MaxNumMergeCand    int
	MaxNumSubblockMergeCand int
	FiveMinusMaxNumMergeCand int
	AMVREnabled        bool
	DeblockingDisabled bool
	BetaOffsetDiv2     int
	TcOffsetDiv2       int
	EntryPointOffsets  []int

	// RefPOC/RefLongTerm/RefMandatory describe the resolved reference
	// picture list syntax for each active entry, consumed by DPB.SliceRPL.
	RefPOC       [2][]int
	RefLongTerm  [2][]bool
	RefMandatory [2][]bool
}

// IsIntra reports whether the slice is an I slice.
func (h *SliceHeader) IsIntra() bool { return h.Type == SliceI }

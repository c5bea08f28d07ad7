/*
DESCRIPTION
  filter_lmcs.go provides the luma mapping with chroma scaling transfer
  used to reshape luma samples prior to in-loop filtering.

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
	"sort"

	"gonum.org/v1/gonum/floats"
)

const lmcsNumBins = 16

// LMCSMapper holds one picture's piecewise-linear forward/inverse luma
// mapping and the derived chroma scaling factor per bin, built from an
// APS's 16 bin lengths (lmcs_delta_abs_cw per bin, signalled against an
// equal partition of the sample range).
type LMCSMapper struct {
	binSize      int32
	fwdBreaks    [lmcsNumBins + 1]int32 // breakpoints in the original domain.
	invBreaks    [lmcsNumBins + 1]int32 // breakpoints in the mapped domain.
	chromaScale  [lmcsNumBins]int32     // fixed-point (1<<11 base) per-bin chroma scale.
	bitDepthMax  int32
}

// NewLMCSMapper builds a mapper from 16 per-bin codeword lengths (as
// signalled in an APS's lmcs_data) and the sequence bit depth. cw[i] is the
// coded length of bin i in the mapped domain; the original domain is an
// equal 16-way partition of [0, 1<<bitDepth).
func NewLMCSMapper(cw [lmcsNumBins]int32, bitDepth int) *LMCSMapper {
	m := &LMCSMapper{
		bitDepthMax: int32(1<<uint(bitDepth)) - 1,
		binSize:     int32(1<<uint(bitDepth)) / lmcsNumBins,
	}
	for i := 0; i <= lmcsNumBins; i++ {
		m.fwdBreaks[i] = int32(i) * m.binSize
	}
	acc := int32(0)
	for i := 0; i < lmcsNumBins; i++ {
		m.invBreaks[i] = acc
		acc += cw[i]
	}
	m.invBreaks[lmcsNumBins] = acc

	for i := 0; i < lmcsNumBins; i++ {
		if cw[i] == 0 {
			m.chromaScale[i] = 1 << 11
			continue
		}
		m.chromaScale[i] = int32((int64(m.binSize) << 11) / int64(cw[i]))
	}
	return m
}

// Forward maps a luma sample from the original domain into the coded
// domain, used before residual addition for intra/IBC prediction.
func (m *LMCSMapper) Forward(v int32) int32 {
	if m == nil {
		return v
	}
	bin := m.binOfOriginal(v)
	return interpolateBin(v, m.fwdBreaks[bin], m.fwdBreaks[bin+1], m.invBreaks[bin], m.invBreaks[bin+1], m.bitDepthMax)
}

// Inverse maps a reconstructed luma sample from the coded domain back to
// the original domain, applied once per sample after reconstruction and
// before writing to the output picture and reference buffers.
func (m *LMCSMapper) Inverse(v int32) int32 {
	if m == nil {
		return v
	}
	bin := m.binOfMapped(v)
	return interpolateBin(v, m.invBreaks[bin], m.invBreaks[bin+1], m.fwdBreaks[bin], m.fwdBreaks[bin+1], m.bitDepthMax)
}

// ChromaScale returns the fixed-point (1<<11 base) chroma residual scale
// for the bin containing the average reconstructed luma value avgLuma
// over a chroma TU's co-located luma region.
func (m *LMCSMapper) ChromaScale(avgLuma int32) int32 {
	if m == nil {
		return 1 << 11
	}
	bin := m.binOfOriginal(avgLuma)
	return m.chromaScale[bin]
}

func (m *LMCSMapper) binOfOriginal(v int32) int {
	breaks := m.fwdBreaks[:]
	i := sort.Search(lmcsNumBins, func(i int) bool { return breaks[i+1] > v })
	return clampBin(i)
}

func (m *LMCSMapper) binOfMapped(v int32) int {
	breaks := m.invBreaks[:]
	i := sort.Search(lmcsNumBins, func(i int) bool { return breaks[i+1] > v })
	return clampBin(i)
}

func clampBin(i int) int {
	if i >= lmcsNumBins {
		return lmcsNumBins - 1
	}
	return i
}

// interpolateBin linearly maps v from [srcLo,srcHi) to [dstLo,dstHi),
// using gonum/floats for the ratio so the same helper serves both the
// forward and inverse direction without duplicated fixed-point rounding
// logic.
func interpolateBin(v, srcLo, srcHi, dstLo, dstHi, clampMax int32) int32 {
	if srcHi == srcLo {
		return dstLo
	}
	ratio := floats.Round(float64(v-srcLo)/float64(srcHi-srcLo)*float64(dstHi-dstLo), 0)
	out := dstLo + int32(ratio)
	if out < 0 {
		return 0
	}
	if out > clampMax {
		return clampMax
	}
	return out
}

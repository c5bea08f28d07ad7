/*
DESCRIPTION
  transform.go provides the inverse primary transform: separable DCT-II /
  DST-VII basis application over a TransformBlock's dequantized
  coefficients, producing the spatial residual the Prediction Applier's
  output is summed against.

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
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// basisCache memoises the NxN DCT-II/DST-VII basis matrices used for
// inverse transform, since the same small set of sizes (4,8,16,32,64)
// recurs across every transform block in a picture.
type basisKey struct {
	n   int
	dst bool
}

var (
	basisMu    sync.Mutex
	basisCache = map[basisKey]*mat.Dense{}
)

// dctBasis returns the NxN inverse DCT-II basis (dst=false) or inverse
// DST-VII basis (dst=true), memoised across calls.
func dctBasis(n int, dst bool) *mat.Dense {
	key := basisKey{n, dst}
	basisMu.Lock()
	defer basisMu.Unlock()
	if b, ok := basisCache[key]; ok {
		return b
	}
	data := make([]float64, n*n)
	for i := 0; i < n; i++ { // frequency index.
		for j := 0; j < n; j++ { // spatial index.
			var v float64
			if dst {
				v = math.Sin(math.Pi * float64(2*j+1) * float64(i+1) / float64(2*n+1))
				v *= math.Sqrt(4.0 / float64(2*n+1))
			} else {
				v = math.Cos(math.Pi * float64(2*j+1) * float64(i) / float64(2*n))
				scale := math.Sqrt(2.0 / float64(n))
				if i == 0 {
					scale = math.Sqrt(1.0 / float64(n))
				}
				v *= scale
			}
			data[j*n+i] = v
		}
	}
	b := mat.NewDense(n, n, data)
	basisCache[key] = b
	return b
}

// InverseTransform reconstructs a w*h spatial residual from tb's
// dequantized coefficients, applying the separable row-then-column inverse
// transform and the primary-transform output shift. transformSkip bypasses
// the transform entirely (the coefficients are already spatial-domain
// residual, per the transform_skip_flag path). useDST selects the
// DST-VII basis used for small intra luma blocks in place of DCT-II.
func InverseTransform(tb *TransformBlock, bitDepth int, transformSkip, useDST bool) []int32 {
	w, h := tb.Width, tb.Height
	out := make([]int32, w*h)
	if transformSkip {
		copy(out, tb.Coeffs)
		return out
	}
	if w == 0 || h == 0 {
		return out
	}

	coeff := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			coeff.Set(y, x, float64(tb.Coeffs[y*w+x]))
		}
	}

	rowBasis := dctBasis(w, useDST && w <= 16)
	colBasis := dctBasis(h, useDST && h <= 16)

	var tmp mat.Dense
	tmp.Mul(coeff, rowBasis.T())

	var spatial mat.Dense
	spatial.Mul(colBasis, &tmp)

	shift := uint(20 - bitDepth)
	if shift > 31 {
		shift = 0
	}
	round := int64(1) << (shift - 1)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := int64(spatial.At(y, x))
			if shift > 0 {
				v = (v + round) >> shift
			}
			out[y*w+x] = clip3i32(-(1<<15), (1<<15)-1, int32(v))
		}
	}
	return out
}

// AddResidual sums a transform block's inverse-transformed residual into
// plane's already-predicted samples, clipping to the component's legal
// sample range.
func AddResidual(plane *Plane, x0, y0, w, h int, residual []int32, bitDepthMax int32) {
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := plane.At(x0+x, y0+y) + residual[y*w+x]
			plane.Set(x0+x, y0+y, clip3i32(0, bitDepthMax, v))
		}
	}
}

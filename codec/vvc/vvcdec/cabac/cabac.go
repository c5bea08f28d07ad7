/*
DESCRIPTION
  cabac.go provides the context-adaptive binary arithmetic decoding contract
  used by the VVC core, plus a concrete engine implementing it.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cabac provides the context-adaptive binary arithmetic decoding
// contract the VVC core parses against. The core never manipulates
// codIRange/codIOffset renormalization directly; it calls a typed
// context-coded reader, exactly as the reference decoder's ff_vvc_* context
// readers are the only thing core parse functions touch. A concrete Engine
// is provided so the module runs end-to-end, grounded in the same
// range/state-transition table shape used by H.264/HEVC/VVC CABAC (9.3.3.2.1.1
// and 9.3.3.2.2 of the respective specifications share this structure).
package cabac

import "github.com/pkg/errors"

// Reader is the interface core VVC parsing code calls to pull context-coded
// and bypass-coded bins from the slice payload. The bit-engine internals
// behind it (range renormalization, offset tracking) are treated as a
// primitive outside the core's scope, per the decoder's component design.
type Reader interface {
	// DecodeBin decodes a single context-coded bin using context model
	// ctxIdx, updating that context's state per table 9-45-style
	// transitions, and returns the decoded bin value (0 or 1).
	DecodeBin(ctxIdx int) (int, error)

	// DecodeBypass decodes a single bypass-coded bin (no context model,
	// equiprobable).
	DecodeBypass() (int, error)

	// DecodeTerminate decodes the end_of_slice_segment_flag-style
	// terminating bin.
	DecodeTerminate() (int, error)

	// NumContexts reports how many context models this Reader tracks,
	// used by callers that need to validate a ctxIdx before use.
	NumContexts() int
}

// contextModel mirrors the pStateIdx/valMPS pair carried per context
// variable, analogous to h264dec's CABAC struct but scoped down to exactly
// what renormalization needs.
type contextModel struct {
	pStateIdx int
	valMPS    int
}

// Engine is a concrete Reader backed by the standard range/offset
// arithmetic-coding engine. callers construct one per slice/entry-point,
// with fresh contexts at each entropy-sync row per the wavefront reset
// rule.
type Engine struct {
	bitSource   func() (int, error) // supplies one raw bit at a time from the slice RBSP.
	codIRange   int
	codIOffset  int
	contexts    []contextModel
	initialized bool
}

// NewEngine returns an Engine that reads raw bits from bitSource, with
// nCtx context models all initialized via InitContexts before first use.
func NewEngine(bitSource func() (int, error), nCtx int) *Engine {
	return &Engine{bitSource: bitSource, contexts: make([]contextModel, nCtx)}
}

// InitContexts sets the initial pStateIdx/valMPS for every context model
// from the supplied (m, n) initialization values and the slice QP, per the
// table 9-5-style preCtxState derivation shared across H.264/HEVC/VVC CABAC.
func (e *Engine) InitContexts(m, n []int, sliceQPy int) error {
	if len(m) != len(e.contexts) || len(n) != len(e.contexts) {
		return errors.New("cabac: init table length does not match context count")
	}
	for i := range e.contexts {
		preCtxState := clip3(1, 126, ((m[i]*clip3(0, 51, sliceQPy))>>4)+n[i])
		if preCtxState <= 63 {
			e.contexts[i] = contextModel{pStateIdx: 63 - preCtxState, valMPS: 0}
		} else {
			e.contexts[i] = contextModel{pStateIdx: preCtxState - 64, valMPS: 1}
		}
	}
	return nil
}

// InitEngine performs the arithmetic decoding engine initialization of
// 9.3.2.5: read 9 raw bits into codIOffset, codIRange = 510.
func (e *Engine) InitEngine() error {
	e.codIRange = 510
	v, err := e.readBits(9)
	if err != nil {
		return errors.Wrap(err, "cabac: could not initialize engine")
	}
	e.codIOffset = v
	e.initialized = true
	return nil
}

func (e *Engine) readBits(n int) (int, error) {
	v := 0
	for i := 0; i < n; i++ {
		b, err := e.bitSource()
		if err != nil {
			return 0, err
		}
		v = (v << 1) | b
	}
	return v, nil
}

// NumContexts implements Reader.
func (e *Engine) NumContexts() int { return len(e.contexts) }

// DecodeBin implements Reader, following the regular decoding process of
// 9.3.4.3.2: qCodIRangeIdx selects a codIRangeLPS from the shared range
// table, then MPS/LPS path plus renormalization is applied.
func (e *Engine) DecodeBin(ctxIdx int) (int, error) {
	if ctxIdx < 0 || ctxIdx >= len(e.contexts) {
		return 0, errors.Errorf("cabac: ctxIdx %d out of range", ctxIdx)
	}
	ctx := &e.contexts[ctxIdx]

	qCodIRangeIdx := (e.codIRange >> 6) & 3
	codIRangeLPS := rangeTabLPS[ctx.pStateIdx][qCodIRangeIdx]
	e.codIRange -= codIRangeLPS

	var binVal int
	if e.codIOffset >= e.codIRange {
		binVal = 1 - ctx.valMPS
		e.codIOffset -= e.codIRange
		e.codIRange = codIRangeLPS
		if ctx.pStateIdx == 0 {
			ctx.valMPS = 1 - ctx.valMPS
		}
		ctx.pStateIdx = stateTransxTab[ctx.pStateIdx].transIdxLPS
	} else {
		binVal = ctx.valMPS
		ctx.pStateIdx = stateTransxTab[ctx.pStateIdx].transIdxMPS
	}

	if err := e.renormalize(); err != nil {
		return 0, err
	}
	return binVal, nil
}

// renormalize implements RenormD of 9.3.4.3.2.2, shifting in fresh bits
// while codIRange stays below 256.
func (e *Engine) renormalize() error {
	for e.codIRange < 256 {
		e.codIRange <<= 1
		b, err := e.bitSource()
		if err != nil {
			return errors.Wrap(err, "cabac: renormalization read failed")
		}
		e.codIOffset = (e.codIOffset << 1) | b
	}
	return nil
}

// DecodeBypass implements Reader per the bypass decoding process of
// 9.3.4.3.4: no context state, a single comparison against codIRange.
func (e *Engine) DecodeBypass() (int, error) {
	b, err := e.bitSource()
	if err != nil {
		return 0, errors.Wrap(err, "cabac: bypass read failed")
	}
	e.codIOffset = (e.codIOffset << 1) | b
	if e.codIOffset >= e.codIRange {
		e.codIOffset -= e.codIRange
		return 1, nil
	}
	return 0, nil
}

// DecodeTerminate implements Reader per the termination decoding process
// of 9.3.4.3.5.
func (e *Engine) DecodeTerminate() (int, error) {
	e.codIRange -= 2
	if e.codIOffset >= e.codIRange {
		return 1, nil
	}
	if err := e.renormalize(); err != nil {
		return 0, err
	}
	return 0, nil
}

func clip3(x, y, z int) int {
	if z < x {
		return x
	}
	if z > y {
		return y
	}
	return z
}

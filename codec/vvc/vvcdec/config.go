/*
DESCRIPTION
  config.go provides the configuration options recognised by the VVC core,
  following revid/config's enum-of-consts + Validate default-filling idiom.

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
	"runtime"

	"github.com/ausocean/utils/logging"
)

// Logger is the logging contract the core accepts, matching
// github.com/ausocean/utils/logging.Logger so callers can pass the same
// logger they use elsewhere in an ausocean-style media pipeline.
type Logger = logging.Logger

// nopLogger discards everything; used when Config.Logger is nil, following
// the nil-logger guard in revid/config.Config.Validate.
type nopLogger struct{}

func (nopLogger) Log(int8, string, ...interface{})  {}
func (nopLogger) SetLevel(int8)                     {}
func (nopLogger) Debug(string, ...interface{})      {}
func (nopLogger) Info(string, ...interface{})       {}
func (nopLogger) Warning(string, ...interface{})    {}
func (nopLogger) Error(string, ...interface{})      {}
func (nopLogger) Fatal(string, ...interface{})      {}

// Concealment selects the behaviour used when a slice can't be fully
// reconstructed.
type Concealment int

const (
	ConcealNone Concealment = iota
	ConcealCopyLast
	ConcealGrey
)

// Defaults for Config fields, following revid/config's defaultXxx naming.
const (
	defaultErrorConcealment = ConcealNone
)

// Config holds the options recognised by the decoder core.
type Config struct {
	// ThreadCount is the worker pool size. Zero means "use
	// runtime.NumCPU()", filled in by Validate.
	ThreadCount int

	// StrictStandardCompliance rejects non-conformant streams instead of
	// warning and continuing.
	StrictStandardCompliance bool

	// ErrorConcealment selects the behaviour used on a slice decode
	// failure.
	ErrorConcealment Concealment

	// AllowMissingRef permits synthesising a placeholder picture for a
	// reference POC absent from the DPB instead of treating it as an
	// InvalidBitstream error.
	AllowMissingRef bool

	// Logger receives structured decoder log output. A nil Logger is
	// replaced with a no-op by Validate.
	Logger Logger
}

// Validate fills in defaults for any unset field, mirroring
// revid/config.Config.Validate.
func (c *Config) Validate() {
	if c.ThreadCount <= 0 {
		c.ThreadCount = runtime.NumCPU()
	}
	if c.Logger == nil {
		c.Logger = nopLogger{}
	}
}

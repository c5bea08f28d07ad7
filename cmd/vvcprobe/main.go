/*
DESCRIPTION
  vvcprobe is a minimal example command that wires up the vvcdec core with
  file-backed logging, for smoke-testing a build against a raw VVC
  elementary stream.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package vvcprobe is a command-line smoke test for the vvcdec core.
package main

import (
	"flag"
	"fmt"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/vvcdec/codec/vvc/vvcdec"
	"github.com/ausocean/utils/logging"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration, matching cmd/rv's rotating-file-sink shape.
const (
	logPath      = "/var/log/vvcprobe/vvcprobe.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = true
)

const pkg = "vvcprobe: "

func main() {
	showVersion := flag.Bool("version", false, "show version")
	in := flag.String("in", "", "path to a raw VVC (H.266) elementary stream")
	threads := flag.Int("threads", 0, "decoder worker count (0 = runtime.NumCPU())")
	allowMissingRef := flag.Bool("allow-missing-ref", false, "synthesise placeholder pictures for missing references")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, fileLog, logSuppress)

	log.Info("starting vvcprobe", "version", version)

	if *in == "" {
		log.Fatal(pkg + "-in is required")
	}

	data, err := os.ReadFile(*in)
	if err != nil {
		log.Fatal(pkg+"could not read input stream", "error", err.Error())
	}
	log.Info("read input stream", "path", *in, "bytes", len(data))

	dec := vvcdec.NewDecoder(vvcdec.Config{
		ThreadCount:     *threads,
		AllowMissingRef: *allowMissingRef,
		Logger:          log,
	})

	// NAL demux and VPS/SPS/PPS/PH/SH syntax parsing are a collaborator's
	// responsibility (see vvcdec's package doc); this probe only exercises
	// construction and configuration wiring against a real binary.
	log.Info("decoder constructed", "threadCount", *threads)
	_ = dec
}

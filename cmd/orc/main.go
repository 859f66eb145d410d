/*
DESCRIPTION
  orc loads a TBC field capture and its pipeline configuration, runs the
  observer DAG over every field, and reconstructs a program mapping
  specification from the resulting observations.

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package orc is the command-line entry point for running a field
// observation pipeline over a capture and reconstructing its program
// mapping.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fsnotify/fsnotify"
	flag "github.com/spf13/pflag"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/orc/config"
	"github.com/ausocean/orc/coordinator"
	"github.com/ausocean/orc/store/capture"
)

// Current software version.
const version = "v0.1.0"

// Logging configuration.
const (
	logMaxSize   = 100 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
	logSuppress  = false
)

func main() {
	pipelinePath := flag.String("pipeline", "", "path to the pipeline YAML config")
	tbcPath := flag.String("tbc", "", "path to the raw TBC sample file")
	metaPath := flag.String("meta", "", "path to the capture's JSON sidecar metadata; the reader always reads <tbc>.json")
	outPath := flag.String("out", "", "path to write the analysis result; defaults to stdout")
	logPath := flag.String("log", "orc.log", "path to the rotating log file")
	watch := flag.Bool("watch", false, "re-run the analysis whenever --pipeline changes")
	showVersion := flag.Bool("version", false, "show version")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}
	if *pipelinePath == "" || *tbcPath == "" {
		fmt.Fprintln(os.Stderr, "orc: --pipeline and --tbc are required")
		os.Exit(2)
	}
	if *metaPath != "" && *metaPath != *tbcPath+".json" {
		fmt.Fprintln(os.Stderr, "orc: --meta must name <tbc>.json; the reader always looks there")
	}

	fileLog := &lumberjack.Logger{
		Filename:   *logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logging.Info, io.MultiWriter(fileLog, os.Stderr), logSuppress)
	log.Info("starting orc", "version", version)

	run := func() error {
		return runOnce(*tbcPath, *pipelinePath, *outPath, log)
	}

	if err := run(); err != nil {
		log.Error("analysis failed", "error", err.Error())
		os.Exit(1)
	}

	if !*watch {
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Error("could not start config watcher", "error", err.Error())
		os.Exit(1)
	}
	defer watcher.Close()

	if err := watcher.Add(*pipelinePath); err != nil {
		log.Error("could not watch pipeline config", "path", *pipelinePath, "error", err.Error())
		os.Exit(1)
	}
	log.Info("watching pipeline config for changes", "path", *pipelinePath)

	for event := range watcher.Events {
		if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
			continue
		}
		log.Info("pipeline config changed, re-running", "path", *pipelinePath)
		if err := run(); err != nil {
			log.Error("analysis failed", "error", err.Error())
		}
	}
}

func runOnce(tbcPath, pipelinePath, outPath string, log *logging.Logger) error {
	p, err := config.Load(pipelinePath)
	if err != nil {
		return fmt.Errorf("orc: loading pipeline config: %w", err)
	}

	reader, err := capture.Open(tbcPath)
	if err != nil {
		return fmt.Errorf("orc: opening capture: %w", err)
	}
	defer reader.Close()

	var dests []io.Writer
	if outPath == "" {
		dests = append(dests, os.Stdout)
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("orc: creating output: %w", err)
		}
		defer f.Close()
		dests = append(dests, f)
	}

	result, err := coordinator.Run(p, reader, log, dests, func(done, total int, fieldsPerSec float64) {
		if done%500 == 0 || done == total {
			log.Debug("progress", "done", done, "total", total, "fields_per_sec", fieldsPerSec)
		}
	})
	if err != nil {
		return fmt.Errorf("orc: running pipeline: %w", err)
	}
	log.Info("analysis complete", "frames", result.FrameCount, "fields", result.FieldCount, "mapping", result.MappingSpec)

	return nil
}

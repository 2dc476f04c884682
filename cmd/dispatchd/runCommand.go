// Copyright (C) 2019-2021 Algorand, Inc.
// This file is part of go-algorand
//
// go-algorand is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// go-algorand is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with go-algorand.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"github.com/fredenrg/0rora/config"
	"github.com/fredenrg/0rora/daemon/dispatchd"
	"github.com/fredenrg/0rora/logging"
)

const lockFilename = "dispatchd.lock"

var logToStderr bool

func init() {
	runCmd.Flags().BoolVarP(&logToStderr, "log-stderr", "s", false, "Log to stderr instead of "+config.LogFilename)

	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the dispatcher against the data directory",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		os.Exit(run(ensureDataDir()))
	},
}

func run(dir string) int {
	absolutePath, err := filepath.Abs(dir)
	if err != nil {
		reportErrorf(errorDataDirInvalid, dir, err)
	}
	if _, err := os.Stat(absolutePath); err != nil {
		reportErrorf(errorDataDirInvalid, dir, err)
	}

	// only one dispatcher may drain a payments database
	fileLock := flock.New(filepath.Join(absolutePath, lockFilename))
	locked, err := fileLock.TryLock()
	if err != nil {
		reportErrorf("unexpected failure in establishing %s: %v", lockFilename, err)
	}
	if !locked {
		reportErrorf("failed to lock %s; is an instance of dispatchd already running in this data directory?", lockFilename)
	}
	defer fileLock.Unlock()

	cfg, err := config.LoadConfigFromDisk(absolutePath)
	if err != nil && !os.IsNotExist(err) {
		reportErrorf(errorLoadingConfig, absolutePath, err)
	}

	log := logging.Base()
	log.SetLevel(logging.Level(cfg.BaseLoggerDebugLevel))
	if !logToStderr {
		liveLog := filepath.Join(absolutePath, config.LogFilename)
		archive := cfg.LogArchiveName
		if !filepath.IsAbs(archive) {
			archive = filepath.Join(absolutePath, archive)
		}
		writer, err := logging.MakeCyclicFileWriter(liveLog, archive, cfg.LogSizeLimit)
		if err != nil {
			reportErrorf("unable to open %s: %v", liveLog, err)
		}
		defer writer.Close()
		log.SetOutput(writer)
	}
	dispatchd.SetupDeadlockLogger(log, strings.EqualFold(config.DefaultDeadlock, "enable"))

	log.Infof("%s", strings.ReplaceAll(config.FormatVersionAndLicense(), "\n", " "))

	var s dispatchd.Server
	if err := s.Initialize(cfg, absolutePath, log); err != nil {
		log.Errorf("unable to initialize: %v", err)
		reportErrorf("Unable to initialize dispatcher: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reportInfof("Dispatcher running in %s", absolutePath)
	if addr := s.OpsAddress(); addr != "" {
		reportInfof("Ops endpoint listening on %s", addr)
	}
	if err := s.Run(ctx); err != nil {
		log.Errorf("dispatcher exited: %v", err)
		return 1
	}
	return 0
}

// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/Thermoquad/envnode/pkg/nvconfig"
)

const logLevelEnv = "ENVNODE_LOG_LEVEL"

// setupLogging configures the standard logger before any command runs
func setupLogging(cmd *cobra.Command, args []string) error {
	debug := 0
	if logLevel == "" && os.Getenv(logLevelEnv) == "" {
		if cfg, err := configStore().Load(); err == nil {
			debug = debugOf(cfg)
		}
	}

	lvl, err := resolveLogLevel(logLevel, os.Getenv(logLevelEnv), debug)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)
	return nil
}

// resolveLogLevel picks the flag, then the environment, then the node's
// debug level (0 info, 1-4 debug, 5-9 trace)
func resolveLogLevel(flag, env string, debug int) (log.Level, error) {
	switch {
	case flag != "":
		return log.ParseLevel(flag)
	case env != "":
		return log.ParseLevel(env)
	case debug >= 5:
		return log.TraceLevel, nil
	case debug >= 1:
		return log.DebugLevel, nil
	}
	return log.InfoLevel, nil
}

// debugOf returns the configured debug level, 0 when unset or invalid
func debugOf(cfg *nvconfig.Config) int {
	level, err := cfg.Debug()
	if err != nil {
		return 0
	}
	return level
}

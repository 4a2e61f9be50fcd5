// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Envnode - Environment Display Node
//
// A CLI tool that follows environment readings published over MQTT and
// shows the current conditions.

package main

import (
	"os"

	"github.com/Thermoquad/envnode/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

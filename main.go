// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"noiseless/cmd"
	"noiseless/internal/log"
	"noiseless/pkg/build"
)

// main runs in three phases:
//
// 1. Startup:
//   - Load build information (development defaults if ldflags are missing)
//   - Install signal handling
//
// 2. Run:
//   - Parse the command line, load configuration and run one command
//
// 3. Shutdown:
//   - SIGINT or SIGTERM cancels the context; the pipeline stops at the next
//     stage boundary, the server drains and temp files are removed
func main() {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		log.Debugf("build: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	// ==================== RUN PHASE ====================

	err := cmd.Execute(ctx, os.Args[1:])

	// ==================== SHUTDOWN PHASE ====================

	stop()
	if err != nil {
		if ctx.Err() != nil {
			log.Warnf("Interrupted")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

//go:build !windows

package main

import "syscall"

// init appends SIGTERM, the signal a process orchestrator (systemd, a
// container runtime) sends before escalating to SIGKILL. Windows has no
// equivalent delivered through os/signal, so this file is excluded there.
func init() {
	drainSignals = append(drainSignals, syscall.SIGTERM)
}

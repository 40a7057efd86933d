package main

import "os"

// drainSignals lists the OS signals that start the server's shutdown drain:
// stop the sweep, stop accepting new connections, let in-flight Save/Read
// streams finish within cfg.ShutdownDrainSeconds, then close the substrate.
// os.Interrupt (SIGINT / Ctrl-C) is the portable baseline available on every
// OS; shutdown_unix.go appends SIGTERM on platforms that have it.
var drainSignals = []os.Signal{os.Interrupt}

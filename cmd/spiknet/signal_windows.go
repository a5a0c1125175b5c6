//go:build windows

package main

import (
	"os"
	"os/signal"
)

// notifySignals registers the signals that stop a running simulation
// between ticks.
// Windows has no SIGTERM, so only Ctrl+C is handled.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}

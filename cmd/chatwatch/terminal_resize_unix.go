//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func registerTerminalResize(sigCh chan<- os.Signal) {
	signal.Notify(sigCh, syscall.SIGWINCH)
}

func unregisterTerminalResize(sigCh chan<- os.Signal) {
	signal.Stop(sigCh)
}

//go:build windows

package main

import "os"

// No SIGWINCH on Windows; tail keeps the width it started with.
func registerTerminalResize(chan<- os.Signal) {}

func unregisterTerminalResize(chan<- os.Signal) {}

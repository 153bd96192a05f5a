package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"chatwatch/internal/source"
)

// runPing opens the configured source once, closes it, and reports its label.
func runPing(root rootArgs, args []string, out io.Writer) error {
	fs, sa := newSourceFlagSet("ping")
	fs.SetOutput(io.Discard)
	timeout := fs.Duration("timeout", 10*time.Second, "Connect timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := sa.load(root, fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()
	src, label, err := source.Open(ctx, cfg, sourceEnv(os.Stdin))
	if err != nil {
		return fmt.Errorf("ping %s: %w", source.Kind(cfg), err)
	}
	if err := src.Close(); err != nil {
		return fmt.Errorf("close %s: %w", label, err)
	}
	_, err = fmt.Fprintf(out, "ok: %s\n", label)
	return err
}

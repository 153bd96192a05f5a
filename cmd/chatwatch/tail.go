package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"chatwatch/internal/config"
	"chatwatch/internal/i18n"
	"chatwatch/internal/logger"
	"chatwatch/internal/scrollback"
	"chatwatch/internal/source"
	"chatwatch/internal/stream"

	"golang.org/x/term"
)

// tailMain prints accepted messages as plain rows until the source ends or the process is interrupted.
func tailMain(root rootArgs, args []string, out io.Writer) error {
	fs, sa := newSourceFlagSet("tail")
	width := fs.Int("width", 0, "Row width: 0 fits the terminal (natural width when not a terminal), -1 always natural")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := sa.load(root, fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := signalContext()
	defer cancel()
	return runTail(ctx, cfg, os.Stdin, out, *width)
}

func runTail(ctx context.Context, cfg config.Config, stdin io.Reader, out io.Writer, width int) error {
	src, label, err := source.Open(ctx, cfg, sourceEnv(stdin))
	if err != nil {
		return err
	}

	follow := false
	if width == 0 {
		width, follow = terminalWidth(out)
	}
	lang := i18n.Normalize(cfg.Language)
	sb := scrollback.New(scrollback.Options{
		Writer:   out,
		Width:    max(width, 0),
		Language: lang,
	})
	if follow {
		stop := followTerminalWidth(out, sb)
		defer stop()
	}

	ctrl := stream.New(stream.Options{
		Title:     cfg.Title,
		Retention: cfg.Retention(),
		OnRender:  scrollback.NewPrinter(sb).Handle,
		Logger:    logger.Named("stream"),
	})
	if err := ctrl.Mount(ctx, src); err != nil {
		return err
	}
	log.WithFields(logger.Fields{"source": label, "language": lang.Code(), "width": width}).Info("tailing")

	select {
	case <-ctx.Done():
	case <-ctrl.Done():
	}
	if err := ctrl.Unmount(); err != nil {
		log.WithError(err).Warn("closing message source failed")
		return fmt.Errorf("close %s: %w", label, err)
	}
	return nil
}

// terminalWidth reports the column count when out is a terminal.
func terminalWidth(out io.Writer) (int, bool) {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0, false
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return 0, false
	}
	return width, true
}

// followTerminalWidth resizes sb rows on SIGWINCH until the returned stop func is called.
func followTerminalWidth(out io.Writer, sb *scrollback.Scrollback) func() {
	sigCh := make(chan os.Signal, 1)
	registerTerminalResize(sigCh)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-sigCh:
				if width, ok := terminalWidth(out); ok {
					sb.SetWidth(width)
				}
			}
		}
	}()
	return func() {
		unregisterTerminalResize(sigCh)
		close(done)
	}
}

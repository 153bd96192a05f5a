package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"chatwatch/internal/config"
	"chatwatch/internal/i18n"
	"chatwatch/internal/logger"
	"chatwatch/internal/source"
	"chatwatch/internal/tui"
)

var (
	log        = logger.Named("cli")
	sourcesLog = logger.Named("sources")
)

func main() {
	logger.Configure()
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}
	if entry, closer, _, err := logger.SetupComponentFile("sources", logger.DefaultSourcesLogPath); err != nil {
		log.Warnf("failed to initialize sources log (%s): %v", logger.DefaultSourcesLogPath, err)
	} else {
		sourcesLog = entry
		defer closer.Close()
	}

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		log.Fatalf("parse args: %v", err)
	}
	if len(rest) > 0 {
		switch rest[0] {
		case "tail":
			exitOn(tailMain(root, rest[1:], os.Stdout))
			return
		case "ping":
			exitOn(runPing(root, rest[1:], os.Stdout))
			return
		case "config":
			exitOn(configMain(root, rest[1:], os.Stdout))
			return
		case "completion":
			exitOn(completionMain(rest[1:], os.Stdout))
			return
		}
	}
	exitOn(runInteractive(root, rest))
}

func exitOn(err error) {
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return
	}
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func sourceEnv(stdin io.Reader) source.Env {
	return source.Env{Stdin: stdin, Logger: sourcesLog}
}

func runInteractive(root rootArgs, args []string) error {
	fs, sa := newSourceFlagSet("chatwatch")
	inline := fs.Bool("inline", false, "Render in the main screen instead of the alternate screen")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := sa.load(root, fs)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	src, label, err := source.Open(ctx, cfg, sourceEnv(os.Stdin))
	if err != nil {
		return err
	}
	lang := i18n.Normalize(cfg.Language)
	log.WithFields(logger.Fields{"source": label, "language": lang.Code()}).Info("starting interactive session")

	res, err := tui.Run(ctx, tui.Options{
		Source:    src,
		Label:     label,
		Title:     cfg.Title,
		Language:  lang,
		Retention: cfg.Retention(),
		AltScreen: !*inline,
		InputTTY:  source.Kind(cfg) == config.SourceStdin,
		Logger:    logger.Named("tui"),
	})
	if res.CloseErr != nil {
		log.WithError(res.CloseErr).Warn("closing message source failed")
		fmt.Fprintf(os.Stderr, "warning: close %s: %v\n", label, res.CloseErr)
	}
	if err != nil {
		return fmt.Errorf("tui: %w", err)
	}
	fmt.Fprintf(os.Stdout, "%s: %d messages retained\n", label, len(res.Messages))
	return nil
}

package main

import (
	"flag"
	"strings"

	"chatwatch/internal/config"
)

// sourceArgs captures flags shared by every command that opens a message source.
type sourceArgs struct {
	cfgPath         string
	source          string
	title           string
	file            string
	configOverrides overrideList
}

func newSourceFlagSet(name string) (*flag.FlagSet, *sourceArgs) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	args := &sourceArgs{}

	fs.StringVar(&args.cfgPath, "config", "", "Path to config file (default ~/.chatwatch/config.toml)")
	fs.StringVar(&args.source, "source", "", "Message source: nostr|redis|nats|file|stdin")
	fs.StringVar(&args.source, "s", "", "Alias for --source")
	fs.StringVar(&args.title, "title", "", "List heading")
	fs.StringVar(&args.file, "file", "", "JSON lines file to read (implies --source file)")
	fs.Var(&args.configOverrides, "c", "Override config value key=value (repeatable)")
	return fs, args
}

// load resolves the effective config: file, env, root -c, command -c, then flags.
// A single positional argument is treated as a JSON lines file, "-" as stdin.
func (a *sourceArgs) load(root rootArgs, fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		return cfg, err
	}
	cfg = config.ApplyKVOverrides(cfg, prependOverrides(root.overrides, []string(a.configOverrides)))

	file := strings.TrimSpace(a.file)
	if file == "" && fs != nil && fs.NArg() > 0 {
		file = strings.TrimSpace(fs.Arg(0))
	}
	switch {
	case file == "-":
		cfg.Source = config.SourceStdin
	case file != "":
		cfg.File.Path = file
		cfg.Source = config.SourceFile
	}
	if s := strings.TrimSpace(a.source); s != "" {
		cfg.Source = s
	}
	if t := strings.TrimSpace(a.title); t != "" {
		cfg.Title = t
	}
	return cfg, nil
}

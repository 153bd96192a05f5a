package main

import (
	"io"
	"path/filepath"
	"testing"

	"chatwatch/internal/config"
)

func clearSourceEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"CHATWATCH_SOURCE", "CHATWATCH_REDIS_URL", "CHATWATCH_NATS_URL", "CHATWATCH_RELAYS"} {
		t.Setenv(k, "")
	}
}

func loadArgs(t *testing.T, root rootArgs, args ...string) config.Config {
	t.Helper()
	fs, sa := newSourceFlagSet("test")
	full := append([]string{"--config", filepath.Join(t.TempDir(), "missing.toml")}, args...)
	if err := fs.Parse(full); err != nil {
		t.Fatalf("parse: %v", err)
	}
	cfg, err := sa.load(root, fs)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return cfg
}

func TestSourceArgsLoad(t *testing.T) {
	clearSourceEnv(t)

	cases := []struct {
		name   string
		root   rootArgs
		args   []string
		source string
		file   string
		title  string
	}{
		{name: "defaults", source: config.SourceNostr},
		{name: "positional file", args: []string{"chat.jsonl"}, source: config.SourceFile, file: "chat.jsonl"},
		{name: "dash is stdin", args: []string{"-"}, source: config.SourceStdin},
		{name: "file flag", args: []string{"--file", "log.jsonl"}, source: config.SourceFile, file: "log.jsonl"},
		{name: "source flag wins", args: []string{"--source", "redis", "x.jsonl"}, source: config.SourceRedis, file: "x.jsonl"},
		{
			name:   "command overrides follow root overrides",
			root:   rootArgs{overrides: []string{"title=Root", "source=nats"}},
			args:   []string{"-c", "title=Command"},
			source: config.SourceNATS,
			title:  "Command",
		},
		{name: "title flag beats overrides", args: []string{"-c", "title=kv", "--title", "Flag"}, source: config.SourceNostr, title: "Flag"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := loadArgs(t, tc.root, tc.args...)
			if cfg.Source != tc.source {
				t.Fatalf("source=%q want %q", cfg.Source, tc.source)
			}
			if cfg.File.Path != tc.file {
				t.Fatalf("file=%q want %q", cfg.File.Path, tc.file)
			}
			if cfg.Title != tc.title {
				t.Fatalf("title=%q want %q", cfg.Title, tc.title)
			}
		})
	}
}

func TestOverrideListRejectsBareKeys(t *testing.T) {
	fs, _ := newSourceFlagSet("test")
	fs.SetOutput(io.Discard)
	if err := fs.Parse([]string{"-c", "title"}); err == nil {
		t.Fatalf("expected error for override without '='")
	}
	fs, sa := newSourceFlagSet("test")
	if err := fs.Parse([]string{"-c", "title=a=b"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := []string(sa.configOverrides); len(got) != 1 || got[0] != "title=a=b" {
		t.Fatalf("overrides=%v", got)
	}
}

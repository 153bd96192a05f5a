package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"chatwatch/internal/config"
)

func TestConfigPrintsEffectiveConfig(t *testing.T) {
	clearSourceEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")

	var out bytes.Buffer
	root := rootArgs{overrides: []string{"redis.channels=lobby,ops"}}
	if err := configMain(root, []string{"--config", path, "--title", "Ops"}, &out); err != nil {
		t.Fatalf("config: %v", err)
	}
	for _, want := range []string{"Ops", "lobby", "ops"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("printing must not write the file, stat err=%v", err)
	}
}

func TestConfigWrite(t *testing.T) {
	clearSourceEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	var out bytes.Buffer
	if err := configMain(rootArgs{}, []string{"--config", path, "--source", "nats", "--write"}, &out); err != nil {
		t.Fatalf("config --write: %v", err)
	}
	if !strings.Contains(out.String(), "wrote "+path) {
		t.Fatalf("output=%q", out.String())
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Source != config.SourceNATS {
		t.Fatalf("saved source=%q", cfg.Source)
	}
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chatwatch/internal/stream"

	"github.com/pelletier/go-toml/v2"
)

// Source kinds understood by the source factory.
const (
	SourceNostr = "nostr"
	SourceRedis = "redis"
	SourceNATS  = "nats"
	SourceFile  = "file"
	SourceStdin = "stdin"
)

// Config is the persisted config file schema.
type Config struct {
	Source      string      `toml:"source"`
	Title       string      `toml:"title"`
	Language    string      `toml:"language"`
	MaxMessages int         `toml:"max_messages"`
	SeenLimit   int         `toml:"seen_limit"`
	Nostr       NostrConfig `toml:"nostr"`
	Redis       RedisConfig `toml:"redis"`
	NATS        NATSConfig  `toml:"nats"`
	File        FileConfig  `toml:"file"`
	Path        string      `toml:"-"`
}

type NostrConfig struct {
	Relays  []string            `toml:"relays"`
	Kinds   []int               `toml:"kinds"`
	Authors []string            `toml:"authors"`
	Tags    map[string][]string `toml:"tags"`
	// Since is a relative lookback like "10m"; empty means only new events.
	Since string `toml:"since"`
	Limit int    `toml:"limit"`
}

type RedisConfig struct {
	URL      string   `toml:"url"`
	Channels []string `toml:"channels"`
}

type NATSConfig struct {
	URL            string `toml:"url"`
	Subject        string `toml:"subject"`
	Name           string `toml:"name"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type FileConfig struct {
	Path string `toml:"path"`
}

func Default() Config {
	return Config{
		Source:   SourceNostr,
		Language: "en",
		Nostr: NostrConfig{
			Relays: []string{"wss://relay.damus.io", "wss://nos.lol"},
			Kinds:  []int{1},
		},
		Redis: RedisConfig{
			URL:      "redis://127.0.0.1:6379/0",
			Channels: []string{"chat"},
		},
		NATS: NATSConfig{
			URL:            "nats://127.0.0.1:4222",
			Subject:        "chat.>",
			Name:           "chatwatch",
			TimeoutSeconds: 10,
		},
	}
}

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".chatwatch", "config.toml")
}

func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}
	if path == "" {
		return cfg, errors.New("config path is empty and $HOME is not set")
	}
	cfg.Path = path

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnv(cfg), nil
		}
		return cfg, err
	}
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return cfg, err
	}
	return applyEnv(cfg), nil
}

func applyEnv(cfg Config) Config {
	if env := strings.TrimSpace(os.Getenv("CHATWATCH_SOURCE")); env != "" {
		cfg.Source = env
	}
	if env := strings.TrimSpace(os.Getenv("CHATWATCH_REDIS_URL")); env != "" {
		cfg.Redis.URL = env
	}
	if env := strings.TrimSpace(os.Getenv("CHATWATCH_NATS_URL")); env != "" {
		cfg.NATS.URL = env
	}
	if env := strings.TrimSpace(os.Getenv("CHATWATCH_RELAYS")); env != "" {
		cfg.Nostr.Relays = splitList(env)
	}
	return cfg
}

// Retention maps the retention keys onto the controller policy.
func (c Config) Retention() stream.Retention {
	return stream.Retention{MaxMessages: c.MaxMessages, SeenLimit: c.SeenLimit}
}

// NATSTimeout returns the connect timeout, defaulting to 10s.
func (c Config) NATSTimeout() time.Duration {
	if c.NATS.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.NATS.TimeoutSeconds) * time.Second
}

// NostrSince resolves the relative lookback against now. Zero means "from now".
func (c Config) NostrSince(now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(c.Nostr.Since)
	if raw == "" {
		return now, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return time.Time{}, err
	}
	return now.Add(-d), nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

package config

import (
	"strconv"
	"strings"
)

// ApplyKVOverrides applies free-form -c key=value overrides.
func ApplyKVOverrides(cfg Config, overrides []string) Config {
	if len(overrides) == 0 {
		return cfg
	}
	for _, raw := range overrides {
		parts := strings.SplitN(raw, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		switch key {
		case "source":
			cfg.Source = val
		case "title":
			cfg.Title = val
		case "language", "lang":
			cfg.Language = val
		case "max_messages", "max-messages":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.MaxMessages = n
			}
		case "seen_limit", "seen-limit":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.SeenLimit = n
			}
		case "nostr.relays":
			cfg.Nostr.Relays = splitList(val)
		case "nostr.kinds":
			var kinds []int
			for _, k := range splitList(val) {
				if n, err := strconv.Atoi(k); err == nil {
					kinds = append(kinds, n)
				}
			}
			cfg.Nostr.Kinds = kinds
		case "nostr.authors":
			cfg.Nostr.Authors = splitList(val)
		case "nostr.since":
			cfg.Nostr.Since = val
		case "nostr.limit":
			if n, err := strconv.Atoi(val); err == nil && n >= 0 {
				cfg.Nostr.Limit = n
			}
		case "redis.url":
			cfg.Redis.URL = val
		case "redis.channels":
			cfg.Redis.Channels = splitList(val)
		case "nats.url":
			cfg.NATS.URL = val
		case "nats.subject":
			cfg.NATS.Subject = val
		case "nats.name":
			cfg.NATS.Name = val
		case "nats.timeout_seconds":
			if n, err := strconv.Atoi(val); err == nil && n > 0 {
				cfg.NATS.TimeoutSeconds = n
			}
		case "file.path", "file":
			cfg.File.Path = val
		}
	}
	return cfg
}

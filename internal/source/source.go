package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"chatwatch/internal/config"
	"chatwatch/internal/logger"
	"chatwatch/internal/source/jsonl"
	"chatwatch/internal/source/natssub"
	"chatwatch/internal/source/nostrsub"
	"chatwatch/internal/source/redissub"
	"chatwatch/internal/stream"
)

// ErrUnknownKind 表示配置了无法识别的消息源类型。
var ErrUnknownKind = errors.New("unknown source kind")

// Env 提供构造消息源所需的进程级依赖。
type Env struct {
	Stdin io.Reader
	// Logger 为空时各适配器使用全局 logger 的命名入口。
	Logger *logger.LogEntry
	Now    func() time.Time
}

func (e Env) named(component string) *logger.LogEntry {
	if e.Logger == nil {
		return logger.Named(component)
	}
	return e.Logger.WithField("component", component)
}

func (e Env) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Kind 返回规范化后的消息源类型。
func Kind(cfg config.Config) string {
	kind := strings.ToLower(strings.TrimSpace(cfg.Source))
	if kind == "" {
		return config.SourceNostr
	}
	return kind
}

// Open 按 cfg.Source 构造消息源，返回消息源与用于状态行的可读描述。
// 返回的消息源归调用方所有，通常交给 stream.Controller 挂载后由其关闭。
func Open(ctx context.Context, cfg config.Config, env Env) (stream.Source, string, error) {
	switch kind := Kind(cfg); kind {
	case config.SourceNostr:
		since, err := cfg.NostrSince(env.now())
		if err != nil {
			return nil, "", fmt.Errorf("nostr.since: %w", err)
		}
		src, err := nostrsub.Subscribe(ctx, nostrsub.Options{
			Relays:  cfg.Nostr.Relays,
			Kinds:   cfg.Nostr.Kinds,
			Authors: cfg.Nostr.Authors,
			Tags:    cfg.Nostr.Tags,
			Since:   since,
			Limit:   cfg.Nostr.Limit,
			Logger:  env.named("nostr"),
		})
		if err != nil {
			return nil, "", err
		}
		return src, fmt.Sprintf("nostr: %d/%d relays", src.Relays(), len(cfg.Nostr.Relays)), nil
	case config.SourceRedis:
		src, err := redissub.Subscribe(ctx, redissub.Options{
			URL:      cfg.Redis.URL,
			Channels: cfg.Redis.Channels,
			Logger:   env.named("redis"),
			Now:      env.Now,
		})
		if err != nil {
			return nil, "", err
		}
		return src, "redis: " + strings.Join(cfg.Redis.Channels, ","), nil
	case config.SourceNATS:
		src, err := natssub.Subscribe(natssub.Options{
			URL:     cfg.NATS.URL,
			Subject: cfg.NATS.Subject,
			Name:    cfg.NATS.Name,
			Timeout: cfg.NATSTimeout(),
			Logger:  env.named("nats"),
			Now:     env.Now,
		})
		if err != nil {
			return nil, "", err
		}
		return src, "nats: " + cfg.NATS.Subject, nil
	case config.SourceFile:
		path := strings.TrimSpace(cfg.File.Path)
		if path == "" {
			return nil, "", errors.New("file source requires file.path")
		}
		src, err := jsonl.Open(path, jsonl.Options{Logger: env.named("jsonl"), Now: env.Now})
		if err != nil {
			return nil, "", err
		}
		return src, "file: " + path, nil
	case config.SourceStdin:
		if env.Stdin == nil {
			return nil, "", errors.New("stdin source requires an input stream")
		}
		return jsonl.New(env.Stdin, jsonl.Options{Logger: env.named("jsonl"), Now: env.Now}), "stdin", nil
	default:
		return nil, "", fmt.Errorf("%w %q (want nostr, redis, nats, file or stdin)", ErrUnknownKind, kind)
	}
}

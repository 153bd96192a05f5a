package nostrsub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatwatch/internal/logger"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"

	"github.com/nbd-wtf/go-nostr"
)

var (
	// ErrNoRelays 表示没有配置任何 relay。
	ErrNoRelays = errors.New("nostr: no relays configured")
	// ErrRelaysClosed 表示所有 relay 的订阅都已被对端关闭。
	ErrRelaysClosed = errors.New("nostr: all relay subscriptions closed")
)

// Options 描述订阅过滤条件。
type Options struct {
	Relays  []string
	Kinds   []int
	Authors []string
	Tags    map[string][]string
	// Since 为零值时不限制起始时间。
	Since  time.Time
	Limit  int
	Buffer int
	Logger *logger.LogEntry
}

// Source 把多个 relay 上的同一订阅汇聚成一个消息源。
// 跨 relay 的重复事件交给控制器的去重集合处理。
type Source struct {
	out    *stream.Outlet
	relays []*nostr.Relay
	subs   []*nostr.Subscription
	cancel context.CancelFunc
	log    *logger.LogEntry

	closeOnce sync.Once
	closeErr  error
}

// Filter 把选项转换为 nostr 过滤器。
func Filter(opts Options) nostr.Filter {
	f := nostr.Filter{
		Kinds:   opts.Kinds,
		Authors: opts.Authors,
		Limit:   opts.Limit,
	}
	if len(opts.Tags) > 0 {
		f.Tags = nostr.TagMap{}
		for k, v := range opts.Tags {
			f.Tags[k] = v
		}
	}
	if !opts.Since.IsZero() {
		since := nostr.Timestamp(opts.Since.Unix())
		f.Since = &since
	}
	return f
}

// FromEvent 把 nostr 事件映射为消息。
func FromEvent(ev *nostr.Event) message.Message {
	return message.Message{
		ID:            ev.ID,
		SenderAddress: ev.PubKey,
		Content:       ev.Content,
		Sent:          ev.CreatedAt.Time(),
	}
}

// Subscribe 连接所有 relay 并订阅；连接失败的 relay 记录日志后跳过，全部失败时返回错误。
func Subscribe(ctx context.Context, opts Options) (*Source, error) {
	if len(opts.Relays) == 0 {
		return nil, ErrNoRelays
	}
	log := opts.Logger
	if log == nil {
		log = logger.Named("nostr")
	}

	runCtx, cancel := context.WithCancel(ctx)
	filters := nostr.Filters{Filter(opts)}
	s := &Source{
		out:    stream.NewOutlet(opts.Buffer),
		cancel: cancel,
		log:    log,
	}

	var errs []error
	urls := make([]string, 0, len(opts.Relays))
	for _, url := range opts.Relays {
		entry := log.WithField("relay", url)
		start := time.Now()
		relay, err := nostr.RelayConnect(runCtx, url)
		if err != nil {
			entry.WithError(err).Warn("relay connect failed")
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			continue
		}
		sub, err := relay.Subscribe(runCtx, filters)
		if err != nil {
			entry.WithError(err).Warn("relay subscribe failed")
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
			relay.Close()
			continue
		}
		entry.WithField("latency_ms", time.Since(start).Milliseconds()).Info("relay connected")
		s.relays = append(s.relays, relay)
		s.subs = append(s.subs, sub)
		urls = append(urls, url)
	}
	if len(s.subs) == 0 {
		cancel()
		return nil, fmt.Errorf("nostr: no relay connected: %w", errors.Join(errs...))
	}

	var wg sync.WaitGroup
	for i, sub := range s.subs {
		wg.Add(1)
		go func(sub *nostr.Subscription, url string) {
			defer wg.Done()
			s.forward(sub, url)
		}(sub, urls[i])
	}
	go func() {
		wg.Wait()
		select {
		case <-s.out.Done():
		default:
			s.out.Fail(ErrRelaysClosed)
		}
		s.out.Finish()
	}()
	return s, nil
}

func (s *Source) forward(sub *nostr.Subscription, url string) {
	for {
		select {
		case <-s.out.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				s.log.WithField("relay", url).Info("relay subscription closed")
				return
			}
			if ev == nil {
				continue
			}
			if !s.out.Send(FromEvent(ev)) {
				return
			}
		}
	}
}

// Relays 返回成功订阅的 relay 数量。
func (s *Source) Relays() int {
	return len(s.relays)
}

func (s *Source) Messages() <-chan message.Message {
	return s.out.Messages()
}

func (s *Source) Err() error {
	return s.out.Err()
}

// Close 取消所有订阅并关闭 relay 连接，多次调用只执行一次。
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.out.Stop()
		for _, sub := range s.subs {
			sub.Unsub()
		}
		var errs []error
		for _, relay := range s.relays {
			if relay.Context().Err() != nil {
				// 连接已由对端或网络断开。
				continue
			}
			if err := relay.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", relay.URL, err))
			}
		}
		s.cancel()
		s.closeErr = errors.Join(errs...)
		s.log.Info("nostr source closed")
	})
	return s.closeErr
}

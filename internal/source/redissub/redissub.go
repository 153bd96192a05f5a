package redissub

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"chatwatch/internal/logger"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNoChannels 表示没有配置要订阅的频道。
	ErrNoChannels = errors.New("redis: no channels configured")
	// ErrSubscriptionClosed 表示 PubSub 通道在未调用 Close 时关闭。
	ErrSubscriptionClosed = errors.New("redis: subscription closed")
)

type Options struct {
	URL      string
	Channels []string
	Buffer   int
	Logger   *logger.LogEntry
	// Now 为缺少时间戳的负载提供发送时间，默认 time.Now。
	Now func() time.Time
}

// Source 订阅 Redis Pub/Sub 频道，每条负载是一条 JSON 消息。
type Source struct {
	out    *stream.Outlet
	client *redis.Client
	pubsub *redis.PubSub
	log    *logger.LogEntry
	now    func() time.Time

	closeOnce sync.Once
	closeErr  error
}

func newSource(opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logger.Named("redis")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Source{out: stream.NewOutlet(opts.Buffer), log: log, now: now}
}

// Subscribe 连接 Redis、确认可达并订阅所有频道。
func Subscribe(ctx context.Context, opts Options) (*Source, error) {
	if len(opts.Channels) == 0 {
		return nil, ErrNoChannels
	}
	ro, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(ro)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}

	pubsub := client.Subscribe(ctx, opts.Channels...)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		client.Close()
		return nil, fmt.Errorf("redis: subscribe: %w", err)
	}

	s := newSource(opts)
	s.client = client
	s.pubsub = pubsub
	s.log.WithField("channels", opts.Channels).Info("redis subscribed")
	go s.pump(pubsub.Channel())
	return s, nil
}

func (s *Source) pump(ch <-chan *redis.Message) {
	defer s.out.Finish()
	for {
		select {
		case <-s.out.Done():
			return
		case m, ok := <-ch:
			if !ok {
				select {
				case <-s.out.Done():
				default:
					s.out.Fail(ErrSubscriptionClosed)
				}
				return
			}
			if !s.deliver(m.Channel, m.Payload) {
				return
			}
		}
	}
}

// deliver 解码一条负载并投递；格式错误的负载记录后跳过。消息源停止后返回 false。
func (s *Source) deliver(channel, payload string) bool {
	msg, err := message.Decode([]byte(payload), s.now())
	if err != nil {
		s.log.WithField("channel", channel).WithError(err).Warn("skipping malformed payload")
		return true
	}
	return s.out.Send(msg)
}

func (s *Source) Messages() <-chan message.Message {
	return s.out.Messages()
}

func (s *Source) Err() error {
	return s.out.Err()
}

// Close 停止转发并关闭 PubSub 与客户端。
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.out.Stop()
		var errs []error
		if s.pubsub != nil {
			if err := s.pubsub.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis: close pubsub: %w", err))
			}
		}
		if s.client != nil {
			if err := s.client.Close(); err != nil {
				errs = append(errs, fmt.Errorf("redis: close client: %w", err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.log.Info("redis source closed")
	})
	return s.closeErr
}

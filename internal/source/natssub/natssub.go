package natssub

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"chatwatch/internal/logger"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"

	"github.com/nats-io/nats.go"
)

var (
	// ErrNoSubject 表示没有配置订阅主题。
	ErrNoSubject = errors.New("nats: no subject configured")
	// ErrConnectionClosed 表示连接在未调用 Close 时被永久关闭。
	ErrConnectionClosed = errors.New("nats: connection closed")
)

const defaultBuffer = 64

type Options struct {
	URL     string
	Subject string
	Name    string
	Timeout time.Duration
	Buffer  int
	Logger  *logger.LogEntry
	// Now 为缺少时间戳的负载提供发送时间，默认 time.Now。
	Now func() time.Time
}

// Source 订阅一个 NATS 主题（可含通配符），每条消息体是一条 JSON 消息。
type Source struct {
	out  *stream.Outlet
	conn *nats.Conn
	sub  *nats.Subscription
	log  *logger.LogEntry
	now  func() time.Time

	connClosed     chan struct{}
	connClosedOnce sync.Once

	closeOnce sync.Once
	closeErr  error
}

func newSource(opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logger.Named("nats")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Source{
		out:        stream.NewOutlet(opts.Buffer),
		log:        log,
		now:        now,
		connClosed: make(chan struct{}),
	}
}

// Subscribe 连接 NATS（断线无限重连）并通过通道订阅主题。
func Subscribe(opts Options) (*Source, error) {
	if opts.Subject == "" {
		return nil, ErrNoSubject
	}
	url := opts.URL
	if url == "" {
		url = nats.DefaultURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := newSource(opts)
	conn, err := nats.Connect(url,
		nats.Name(opts.Name),
		nats.Timeout(timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			s.log.WithError(err).Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			s.log.WithField("url", c.ConnectedUrl()).Info("nats reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			s.connClosedOnce.Do(func() { close(s.connClosed) })
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	msgs := make(chan *nats.Msg, buffer)
	sub, err := conn.ChanSubscribe(opts.Subject, msgs)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("nats subscribe %s: %w", opts.Subject, err)
	}
	s.conn = conn
	s.sub = sub
	s.log.WithField("subject", opts.Subject).Info("nats subscribed")
	go s.pump(msgs)
	return s, nil
}

func (s *Source) pump(msgs <-chan *nats.Msg) {
	defer s.out.Finish()
	for {
		select {
		case <-s.out.Done():
			return
		case <-s.connClosed:
			select {
			case <-s.out.Done():
			default:
				s.out.Fail(ErrConnectionClosed)
			}
			return
		case m := <-msgs:
			if m == nil {
				continue
			}
			if !s.deliver(m.Subject, m.Data) {
				return
			}
		}
	}
}

// deliver 解码一条消息体并投递；格式错误的负载记录后跳过。消息源停止后返回 false。
func (s *Source) deliver(subject string, data []byte) bool {
	msg, err := message.Decode(data, s.now())
	if err != nil {
		s.log.WithField("subject", subject).WithError(err).Warn("skipping malformed payload")
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

// Close 退订并关闭连接。
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.out.Stop()
		if s.sub != nil {
			if err := s.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
				s.closeErr = fmt.Errorf("nats unsubscribe: %w", err)
			}
		}
		if s.conn != nil {
			s.conn.Close()
		}
		s.log.Info("nats source closed")
	})
	return s.closeErr
}

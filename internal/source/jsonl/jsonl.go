package jsonl

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"chatwatch/internal/logger"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"
)

// maxLineBytes 是单行 JSON 的上限。
const maxLineBytes = 1 << 20

type Options struct {
	Buffer int
	Logger *logger.LogEntry
	// Now 为缺少时间戳的行提供发送时间，默认 time.Now。
	Now func() time.Time
}

// Source 逐行读取 JSON 消息（JSON Lines），读到 EOF 时结束。
type Source struct {
	out *stream.Outlet
	r   io.Reader
	log *logger.LogEntry
	now func() time.Time

	closeOnce sync.Once
	closeErr  error
}

// New 从 r 读取消息；r 实现 io.Closer 时由 Close 关闭。
func New(r io.Reader, opts Options) *Source {
	log := opts.Logger
	if log == nil {
		log = logger.Named("jsonl")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	s := &Source{out: stream.NewOutlet(opts.Buffer), r: r, log: log, now: now}
	go s.pump()
	return s
}

// Open 打开文件作为消息源。
func Open(path string, opts Options) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("jsonl: %w", err)
	}
	return New(f, opts), nil
}

func (s *Source) pump() {
	defer s.out.Finish()
	scanner := bufio.NewScanner(s.r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		msg, err := message.Decode(line, s.now())
		if err != nil {
			s.log.WithField("line", lineNo).WithError(err).Warn("skipping malformed line")
			continue
		}
		if !s.out.Send(msg) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		select {
		case <-s.out.Done():
		default:
			s.out.Fail(fmt.Errorf("jsonl: read line %d: %w", lineNo+1, err))
		}
	}
}

func (s *Source) Messages() <-chan message.Message {
	return s.out.Messages()
}

// Err 返回读取错误；正常读到 EOF 时为 nil。
func (s *Source) Err() error {
	return s.out.Err()
}

// Close 停止读取并关闭底层 reader（若可关闭）。
func (s *Source) Close() error {
	s.closeOnce.Do(func() {
		s.out.Stop()
		if c, ok := s.r.(io.Closer); ok {
			s.closeErr = c.Close()
		}
	})
	return s.closeErr
}

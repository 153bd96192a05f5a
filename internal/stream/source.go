package stream

import (
	"errors"

	"chatwatch/internal/message"
)

var (
	// ErrNilSource 表示 Mount 收到了空的消息源。
	ErrNilSource = errors.New("stream: nil message source")
	// ErrSourceEnded 表示消息源在未报告原因的情况下结束。
	ErrSourceEnded = errors.New("stream: message source ended")
)

// Source 是外部消息源：可能无限地产生 Message。
// Messages 在消息源结束时关闭；Close 是终止信号，必须停止产出并释放底层资源。
type Source interface {
	Messages() <-chan message.Message
	Close() error
}

// Failer 由能报告结束原因的消息源实现。
type Failer interface {
	Err() error
}

// FromChannel 把普通的异步序列包装成 Source。
// Close 只停止转发，不会关闭调用方持有的 ch。
func FromChannel(ch <-chan message.Message) Source {
	out := NewOutlet(0)
	go func() {
		defer out.Finish()
		for {
			select {
			case <-out.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if !out.Send(msg) {
					return
				}
			}
		}
	}()
	return out
}

// FromSlice 返回依次产出 msgs 后结束的有限消息源。
func FromSlice(msgs ...message.Message) Source {
	ch := make(chan message.Message, len(msgs))
	for _, m := range msgs {
		ch <- m
	}
	close(ch)
	return FromChannel(ch)
}

package stream

import (
	"sync"

	"chatwatch/internal/message"
)

// Outlet 是消息源适配器共用的输出端：带缓冲的输出通道 + 停止信号 + 结束原因。
// 适配器的 pump goroutine 调用 Send/Fail/Finish，Close 由消费方调用。
type Outlet struct {
	out      chan message.Message
	done     chan struct{}
	stopOnce sync.Once
	finOnce  sync.Once

	mu  sync.Mutex
	err error
}

// NewOutlet 创建输出端，buffer<=0 时使用无缓冲通道。
func NewOutlet(buffer int) *Outlet {
	if buffer < 0 {
		buffer = 0
	}
	return &Outlet{
		out:  make(chan message.Message, buffer),
		done: make(chan struct{}),
	}
}

// Messages 实现 Source。
func (o *Outlet) Messages() <-chan message.Message {
	return o.out
}

// Done 在 Stop 之后关闭。
func (o *Outlet) Done() <-chan struct{} {
	return o.done
}

// Send 投递一条消息；Stop 之后返回 false。
func (o *Outlet) Send(msg message.Message) bool {
	select {
	case <-o.done:
		return false
	default:
	}
	select {
	case o.out <- msg:
		return true
	case <-o.done:
		return false
	}
}

// Fail 记录第一个结束原因。
func (o *Outlet) Fail(err error) {
	if err == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err == nil {
		o.err = err
	}
}

// Err 实现 Failer。
func (o *Outlet) Err() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.err
}

// Finish 关闭输出通道，只应由 pump goroutine 在退出时调用。
func (o *Outlet) Finish() {
	o.finOnce.Do(func() { close(o.out) })
}

// Stop 发出停止信号，首次调用返回 true。
func (o *Outlet) Stop() bool {
	stopped := false
	o.stopOnce.Do(func() {
		close(o.done)
		stopped = true
	})
	return stopped
}

// Close 实现 Source，等价于 Stop。
func (o *Outlet) Close() error {
	o.Stop()
	return nil
}

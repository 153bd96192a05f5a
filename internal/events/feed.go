package events

import "sync"

// Feed 是合并式广播：每个订阅者只缓存最新的一个值，未读的旧值会被新值替换。
// 适合传递完整快照，保证订阅者最终总能看到最后一次发布。
type Feed[T any] struct {
	mu     sync.Mutex
	subs   []chan T
	closed bool
}

func NewFeed[T any]() *Feed[T] {
	return &Feed[T]{}
}

// Subscribe 订阅更新。通道会在 Close 时关闭。
func (f *Feed[T]) Subscribe() <-chan T {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		ch := make(chan T)
		close(ch)
		return ch
	}
	ch := make(chan T, 1)
	f.subs = append(f.subs, ch)
	return ch
}

// Publish 把 v 发给所有订阅者，订阅者缓冲已满时丢弃旧值。
func (f *Feed[T]) Publish(v T) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		select {
		case ch <- v:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Close 关闭所有订阅通道，之后的 Publish 被忽略。
func (f *Feed[T]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return
	}
	for _, ch := range f.subs {
		close(ch)
	}
	f.subs = nil
	f.closed = true
}

package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chatwatch/internal/message"
)

type fakeSource struct {
	ch       chan message.Message
	closes   atomic.Int32
	closeErr error
	err      error
}

func newFakeSource(buffer int) *fakeSource {
	return &fakeSource{ch: make(chan message.Message, buffer)}
}

func (s *fakeSource) Messages() <-chan message.Message { return s.ch }

func (s *fakeSource) Close() error {
	s.closes.Add(1)
	return s.closeErr
}

func (s *fakeSource) Err() error { return s.err }

type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
	ch    chan Snapshot
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan Snapshot, 256)}
}

func (r *recorder) OnRender(s Snapshot) {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	r.ch <- s
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func (r *recorder) waitFor(t *testing.T, pred func(Snapshot) bool) Snapshot {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case s := <-r.ch:
			if pred(s) {
				return s
			}
		case <-timeout:
			t.Fatalf("timeout waiting for snapshot")
			return Snapshot{}
		}
	}
}

func msg(id string) message.Message {
	return message.Message{ID: id, SenderAddress: "0xsender", Content: "content " + id, Sent: time.Unix(0, 0)}
}

func ids(msgs []message.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.ID)
	}
	return out
}

func sameIDs(got []message.Message, want ...string) bool {
	g := ids(got)
	if len(g) != len(want) {
		return false
	}
	for i := range g {
		if g[i] != want[i] {
			return false
		}
	}
	return true
}

func hasLen(n int) func(Snapshot) bool {
	return func(s Snapshot) bool { return len(s.Messages) == n }
}

func TestControllerAppendsInArrivalOrder(t *testing.T) {
	rec := newRecorder()
	c := New(Options{Title: "Inbox", OnRender: rec.OnRender})
	src := newFakeSource(3)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })

	first := rec.waitFor(t, hasLen(0))
	if first.Phase != PhaseSubscribed || first.Title != "Inbox" {
		t.Fatalf("initial snapshot = %+v", first)
	}

	for _, id := range []string{"a", "b", "c"} {
		src.ch <- msg(id)
	}
	last := rec.waitFor(t, hasLen(3))
	if !sameIDs(last.Messages, "a", "b", "c") {
		t.Fatalf("messages = %v, want [a b c]", ids(last.Messages))
	}
	if last.Accepted != 3 {
		t.Fatalf("Accepted = %d, want 3", last.Accepted)
	}
}

func TestControllerSuppressesDuplicates(t *testing.T) {
	rec := newRecorder()
	c := New(Options{OnRender: rec.OnRender})
	src := newFakeSource(0)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })
	rec.waitFor(t, hasLen(0))

	// 无缓冲通道：每次发送返回时上一条已被消费。
	src.ch <- msg("a")
	src.ch <- msg("a")
	src.ch <- msg("b")
	src.ch <- msg("sentinel")
	rec.waitFor(t, hasLen(3))

	snap := c.Snapshot()
	if !sameIDs(snap.Messages, "a", "b", "sentinel") {
		t.Fatalf("messages = %v", ids(snap.Messages))
	}
	// 初始快照 + 三条新消息，重复项不触发渲染。
	if got := rec.count(); got != 4 {
		t.Fatalf("render count = %d, want 4", got)
	}
}

func TestControllerConcurrentProducersKeepEveryMessage(t *testing.T) {
	c := New(Options{OnRender: func(Snapshot) {}})
	in := make(chan message.Message)
	src := FromChannel(in)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })

	const producers, perProducer = 4, 50
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				in <- msg(fmt.Sprintf("p%d-%d", p, i))
				// 每条消息发两次，验证重复项在任意交错下都被丢弃。
				in <- msg(fmt.Sprintf("p%d-%d", p, i))
			}
		}(p)
	}
	wg.Wait()
	close(in)

	select {
	case <-c.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("consumer did not finish")
	}
	snap := c.Snapshot()
	if len(snap.Messages) != producers*perProducer {
		t.Fatalf("len = %d, want %d", len(snap.Messages), producers*perProducer)
	}
	if snap.Phase != PhaseDisconnected {
		t.Fatalf("phase = %v, want disconnected", snap.Phase)
	}
}

func TestUnmountClosesSourceExactlyOnce(t *testing.T) {
	rec := newRecorder()
	c := New(Options{OnRender: rec.OnRender})
	src := newFakeSource(0)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	snap := rec.waitFor(t, hasLen(0))
	if len(snap.Messages) != 0 {
		t.Fatalf("expected empty list before any message")
	}

	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if err := c.Unmount(); err != nil {
		t.Fatalf("second Unmount: %v", err)
	}
	if got := src.closes.Load(); got != 1 {
		t.Fatalf("Close called %d times, want 1", got)
	}
	if c.Phase() != PhaseTerminated {
		t.Fatalf("phase = %v, want terminated", c.Phase())
	}
}

func TestUnmountSurfacesCloseError(t *testing.T) {
	c := New(Options{})
	src := newFakeSource(0)
	src.closeErr = errors.New("close boom")
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if err := c.Unmount(); !errors.Is(err, src.closeErr) {
		t.Fatalf("Unmount err = %v, want close boom", err)
	}
}

func TestNoMutationAfterUnmount(t *testing.T) {
	c := New(Options{})
	src := newFakeSource(4)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	done := c.Done()
	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	<-done

	src.ch <- msg("late")
	time.Sleep(20 * time.Millisecond)
	if n := len(c.Snapshot().Messages); n != 0 {
		t.Fatalf("state mutated after unmount: %d messages", n)
	}
}

func TestMountReplacesPreviousSource(t *testing.T) {
	rec := newRecorder()
	c := New(Options{OnRender: rec.OnRender})
	first := newFakeSource(1)
	if err := c.Mount(context.Background(), first); err != nil {
		t.Fatalf("Mount first: %v", err)
	}
	first.ch <- msg("old")
	rec.waitFor(t, hasLen(1))

	second := newFakeSource(1)
	if err := c.Mount(context.Background(), second); err != nil {
		t.Fatalf("Mount second: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })
	if got := first.closes.Load(); got != 1 {
		t.Fatalf("replaced source closed %d times, want 1", got)
	}
	if n := len(c.Snapshot().Messages); n != 0 {
		t.Fatalf("new mount should start empty, got %d", n)
	}

	second.ch <- msg("new")
	snap := rec.waitFor(t, hasLen(1))
	if !sameIDs(snap.Messages, "new") {
		t.Fatalf("messages = %v", ids(snap.Messages))
	}
}

func TestMountAfterUnmountWaitsForPreviousConsumer(t *testing.T) {
	var (
		mu       sync.Mutex
		inRender int
		peak     int
		order    []string
	)
	blocked := make(chan struct{})
	release := make(chan struct{})
	render := func(s Snapshot) {
		mu.Lock()
		inRender++
		peak = max(peak, inRender)
		order = append(order, fmt.Sprint(ids(s.Messages)))
		mu.Unlock()
		if sameIDs(s.Messages, "old") {
			close(blocked)
			<-release
		}
		mu.Lock()
		inRender--
		mu.Unlock()
	}

	c := New(Options{OnRender: render})
	first := newFakeSource(1)
	if err := c.Mount(context.Background(), first); err != nil {
		t.Fatalf("Mount first: %v", err)
	}
	first.ch <- msg("old")
	<-blocked

	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	mounted := make(chan error, 1)
	go func() { mounted <- c.Mount(context.Background(), newFakeSource(0)) }()

	select {
	case <-mounted:
		t.Fatalf("Mount returned while the previous consumer was still rendering")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	select {
	case err := <-mounted:
		if err != nil {
			t.Fatalf("Mount second: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Mount never returned")
	}
	t.Cleanup(func() { _ = c.Unmount() })

	mu.Lock()
	defer mu.Unlock()
	if peak != 1 {
		t.Fatalf("OnRender ran concurrently, peak=%d", peak)
	}
	want := []string{"[]", "[old]", "[]"}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("render order = %v, want %v", order, want)
	}
}

func TestSourceEndEntersDisconnected(t *testing.T) {
	rec := newRecorder()
	c := New(Options{OnRender: rec.OnRender})
	src := newFakeSource(1)
	src.err = errors.New("relay gone")
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	src.ch <- msg("a")
	close(src.ch)

	snap := rec.waitFor(t, func(s Snapshot) bool { return s.Phase == PhaseDisconnected })
	if !errors.Is(snap.Err, src.err) {
		t.Fatalf("Err = %v, want relay gone", snap.Err)
	}
	if !sameIDs(snap.Messages, "a") {
		t.Fatalf("list should be kept on disconnect, got %v", ids(snap.Messages))
	}

	if err := c.Unmount(); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if got := src.closes.Load(); got != 1 {
		t.Fatalf("Close called %d times, want 1", got)
	}
}

func TestSourceEndWithoutReason(t *testing.T) {
	rec := newRecorder()
	c := New(Options{OnRender: rec.OnRender})
	if err := c.Mount(context.Background(), FromSlice(msg("a"), msg("b"))); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })
	snap := rec.waitFor(t, func(s Snapshot) bool { return s.Phase == PhaseDisconnected })
	if !errors.Is(snap.Err, ErrSourceEnded) {
		t.Fatalf("Err = %v, want ErrSourceEnded", snap.Err)
	}
	if !sameIDs(snap.Messages, "a", "b") {
		t.Fatalf("messages = %v", ids(snap.Messages))
	}
}

func TestMountRejectsNilSource(t *testing.T) {
	c := New(Options{})
	if err := c.Mount(context.Background(), nil); !errors.Is(err, ErrNilSource) {
		t.Fatalf("Mount(nil) err = %v", err)
	}
	if c.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", c.Phase())
	}
}

func TestControllerRetention(t *testing.T) {
	rec := newRecorder()
	c := New(Options{Retention: Retention{MaxMessages: 2}, OnRender: rec.OnRender})
	src := newFakeSource(4)
	if err := c.Mount(context.Background(), src); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	t.Cleanup(func() { _ = c.Unmount() })
	for _, id := range []string{"a", "b", "c", "a"} {
		src.ch <- msg(id)
	}
	snap := rec.waitFor(t, func(s Snapshot) bool { return s.Accepted == 3 })
	if !sameIDs(snap.Messages, "b", "c") {
		t.Fatalf("messages = %v, want [b c]", ids(snap.Messages))
	}
}

package stream

import (
	"context"
	"sync"

	"chatwatch/internal/logger"
	"chatwatch/internal/message"

	"github.com/google/uuid"
)

// Phase 是控制器在一次挂载中的状态。
type Phase int

const (
	// PhaseIdle 尚未挂载消息源，展示状态为空。
	PhaseIdle Phase = iota
	// PhaseSubscribed 消费 goroutine 正在读取消息源。
	PhaseSubscribed
	// PhaseDisconnected 消息源自行结束或出错，列表保留最后的内容。
	PhaseDisconnected
	// PhaseTerminated 已卸载，不再读取也不再修改状态。
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubscribed:
		return "subscribed"
	case PhaseDisconnected:
		return "disconnected"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Snapshot 是交给渲染回调的不可变视图。
type Snapshot struct {
	Title    string
	Messages []message.Message
	Phase    Phase
	// Err 仅在 PhaseDisconnected 时有值。
	Err error
	// Accepted 是本次挂载累计接受的消息数（不受保留策略裁剪影响）。
	Accepted uint64
}

// Options 配置控制器。
type Options struct {
	Title     string
	Retention Retention
	// OnRender 在挂载、每条新消息以及断开时被调用；不会并发调用。
	OnRender func(Snapshot)
	Logger   *logger.LogEntry
}

// Controller 把推送式消息源桥接到按快照重绘的列表渲染。
type Controller struct {
	opts Options
	log  *logger.LogEntry

	// mountMu 串行化 Mount/Unmount，保证同一时刻最多一个消费者。
	mountMu sync.Mutex

	mu       sync.Mutex
	state    *State
	phase    Phase
	err      error
	accepted uint64
	active   *mount
	// retired 是最近一次 Unmount 摘下的挂载的退出信号，下一次 Mount 须等它关闭。
	retired <-chan struct{}
}

type mount struct {
	id        string
	src       Source
	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	closeErr  error
}

func (m *mount) close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.src.Close()
	})
	return m.closeErr
}

// New 创建处于 Idle 状态的控制器。
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = logger.Named("stream")
	}
	return &Controller{
		opts:  opts,
		log:   log,
		state: NewState(opts.Retention),
		phase: PhaseIdle,
	}
}

// Mount 挂载消息源并开始消费。已有挂载时先终止它；无论旧挂载是在此处终止还是此前已被
// Unmount，都要等其消费 goroutine 退出后才开始新的挂载。
// 每次挂载都从空的展示状态开始，并立即渲染一次。
func (c *Controller) Mount(ctx context.Context, src Source) error {
	if src == nil {
		return ErrNilSource
	}
	c.mountMu.Lock()
	defer c.mountMu.Unlock()

	if prev := c.detach(); prev != nil {
		if err := prev.close(); err != nil {
			c.log.WithField("mount", prev.id).WithError(err).Warn("closing replaced source failed")
		}
		<-prev.done
	}
	if c.retired != nil {
		<-c.retired
		c.retired = nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	m := &mount{id: uuid.NewString(), src: src, cancel: cancel, done: make(chan struct{})}

	c.mu.Lock()
	c.state = NewState(c.opts.Retention)
	c.phase = PhaseSubscribed
	c.err = nil
	c.accepted = 0
	c.active = m
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.log.WithField("mount", m.id).Info("source mounted")
	c.emit(snap)
	go c.consume(runCtx, m)
	return nil
}

// Unmount 发出终止信号（每次挂载恰好调用一次 Source.Close）并立即返回，不等待消费 goroutine。
// 返回 Close 的错误；没有活动挂载时返回 nil。
func (c *Controller) Unmount() error {
	c.mountMu.Lock()
	defer c.mountMu.Unlock()

	m := c.detach()
	if m == nil {
		return nil
	}
	c.retired = m.done
	err := m.close()
	entry := c.log.WithField("mount", m.id)
	if err != nil {
		entry.WithError(err).Warn("source termination failed")
	} else {
		entry.Info("source unmounted")
	}
	return err
}

// detach 把当前挂载标记为终止并取消其 context，返回被摘下的挂载。
func (c *Controller) detach() *mount {
	c.mu.Lock()
	m := c.active
	c.active = nil
	if m != nil {
		c.phase = PhaseTerminated
	}
	c.mu.Unlock()
	if m != nil {
		m.cancel()
	}
	return m
}

// Done 返回当前挂载的消费 goroutine 退出信号；未挂载时返回 nil。
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return nil
	}
	return c.active.done
}

// Phase 返回当前状态。
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Snapshot 返回当前展示状态的快照。
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Title:    c.opts.Title,
		Messages: c.state.Messages(),
		Phase:    c.phase,
		Err:      c.err,
		Accepted: c.accepted,
	}
}

func (c *Controller) consume(ctx context.Context, m *mount) {
	defer close(m.done)
	ch := m.src.Messages()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				c.disconnect(m)
				return
			}
			c.accept(m, msg)
		}
	}
}

func (c *Controller) accept(m *mount, msg message.Message) {
	c.mu.Lock()
	if c.active != m {
		c.mu.Unlock()
		return
	}
	if !c.state.Add(msg) {
		c.mu.Unlock()
		c.log.WithFields(logger.Fields{"mount": m.id, "id": msg.ID}).Debug("duplicate message dropped")
		return
	}
	c.accepted++
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.emit(snap)
}

func (c *Controller) disconnect(m *mount) {
	err := ErrSourceEnded
	if f, ok := m.src.(Failer); ok {
		if ferr := f.Err(); ferr != nil {
			err = ferr
		}
	}
	c.mu.Lock()
	if c.active != m {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseDisconnected
	c.err = err
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.log.WithField("mount", m.id).WithError(err).Warn("source disconnected")
	c.emit(snap)
}

func (c *Controller) emit(snap Snapshot) {
	if c.opts.OnRender != nil {
		c.opts.OnRender(snap)
	}
}

package scrollback

import (
	"sync"

	"chatwatch/internal/stream"
)

// Printer 把控制器的快照序列转换为只追加的输出：
// 每条被接受的消息只打印一次，断开提示只打印一次。
type Printer struct {
	sb *Scrollback

	mu           sync.Mutex
	printed      uint64
	titled       bool
	disconnected bool
}

func NewPrinter(sb *Scrollback) *Printer {
	return &Printer{sb: sb}
}

// Handle 适合直接作为 stream.Options.OnRender。
// 快照合并时按 Accepted 的增量补齐遗漏的消息（受保留上限约束）。
func (p *Printer) Handle(snap stream.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if snap.Accepted < p.printed || (snap.Phase == stream.PhaseSubscribed && snap.Accepted == 0) {
		// 新的挂载从零计数，断开提示也重新打印。
		p.printed = 0
		p.disconnected = false
	}
	if !p.titled && snap.Title != "" {
		p.sb.AppendTitle(snap.Title)
		p.titled = true
	}

	fresh := snap.Accepted - p.printed
	if fresh > uint64(len(snap.Messages)) {
		fresh = uint64(len(snap.Messages))
	}
	for _, msg := range snap.Messages[len(snap.Messages)-int(fresh):] {
		p.sb.AppendMessage(msg)
	}
	p.printed = snap.Accepted

	if snap.Phase == stream.PhaseDisconnected && !p.disconnected {
		p.sb.AppendDisconnect(snap.Err)
		p.disconnected = true
	}
}

// Printed 返回当前挂载已处理的 Accepted 计数。
func (p *Printer) Printed() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printed
}

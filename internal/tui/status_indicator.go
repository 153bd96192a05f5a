package tui

import (
	"fmt"
	"strings"
	"time"

	"chatwatch/internal/i18n"
	"chatwatch/internal/stream"
	"chatwatch/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// StatusIndicatorState 枚举了状态行可显示的连接状态。
type StatusIndicatorState int

const (
	// StatusConnecting 表示尚未挂载或仍在等待首个快照。
	StatusConnecting StatusIndicatorState = iota
	// StatusListening 表示消息源已挂载，计时器持续累加。
	StatusListening
	// StatusDisconnected 表示消息源自行结束，列表保留最后内容。
	StatusDisconnected
	// StatusStopped 表示已卸载。
	StatusStopped
)

func (s StatusIndicatorState) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusListening:
		return "listening"
	case StatusDisconnected:
		return "disconnected"
	case StatusStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

func (s StatusIndicatorState) defaultHeader() string {
	switch s {
	case StatusConnecting:
		return "Connecting"
	case StatusListening:
		return "Listening"
	case StatusDisconnected:
		return "disconnected"
	case StatusStopped:
		return "Stopped"
	default:
		return ""
	}
}

func (s StatusIndicatorState) tracksElapsed() bool {
	return s == StatusListening
}

func stateForPhase(p stream.Phase) StatusIndicatorState {
	switch p {
	case stream.PhaseSubscribed:
		return StatusListening
	case stream.PhaseDisconnected:
		return StatusDisconnected
	case stream.PhaseTerminated:
		return StatusStopped
	default:
		return StatusConnecting
	}
}

// StatusIndicatorOptions 控制状态行的初始化。
type StatusIndicatorOptions struct {
	// Label 是消息源的可读描述，例如 "nostr: 2 relays"。
	Label string
	// Language 非默认语言时在状态行中显示其名称。
	Language i18n.Language
	Clock    func() time.Time
}

// StatusIndicator 维护状态行：spinner + 状态 + 来源 + 消息数 + 已监听时长。
type StatusIndicator struct {
	label    string
	language string
	state    StatusIndicatorState
	err      error
	shown    int
	total    int
	filter   string
	notice   string

	elapsedRunning time.Duration
	lastResumeAt   time.Time
	paused         bool

	clock func() time.Time
}

// NewStatusIndicator 构造处于 Connecting 的状态行。
func NewStatusIndicator(opts StatusIndicatorOptions) *StatusIndicator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	language := ""
	if opts.Language != "" && i18n.Normalize(string(opts.Language)) != i18n.DefaultLanguage {
		language = opts.Language.DisplayName()
	}
	return &StatusIndicator{
		label:        opts.Label,
		language:     language,
		state:        StatusConnecting,
		clock:        clock,
		lastResumeAt: clock(),
		paused:       true,
	}
}

// State 返回当前状态。
func (w *StatusIndicator) State() StatusIndicatorState {
	return w.state
}

// Apply 根据快照更新状态与计数；shown 是过滤后实际展示的条数。
func (w *StatusIndicator) Apply(snap stream.Snapshot, shown int) {
	if w == nil {
		return
	}
	w.SetState(stateForPhase(snap.Phase))
	w.err = snap.Err
	w.total = len(snap.Messages)
	w.shown = shown
}

// SetState 更新状态并按需暂停或继续计时。
func (w *StatusIndicator) SetState(state StatusIndicatorState) {
	if w == nil {
		return
	}
	now := w.clock()
	if state.tracksElapsed() && w.paused {
		w.resumeTimerAt(now)
	}
	if !state.tracksElapsed() && !w.paused {
		w.pauseTimerAt(now)
	}
	w.state = state
}

// SetFilter 记录当前过滤词，空串表示未过滤。
func (w *StatusIndicator) SetFilter(query string) {
	if w == nil {
		return
	}
	w.filter = query
}

// SetNotice 显示一次性提示（例如复制结果），空串清除。
func (w *StatusIndicator) SetNotice(notice string) {
	if w == nil {
		return
	}
	w.notice = notice
}

// ElapsedSeconds 返回累计监听秒数。
func (w *StatusIndicator) ElapsedSeconds() uint64 {
	if w == nil {
		return 0
	}
	return w.elapsedSecondsAt(w.clock())
}

// Line 绘制状态行，frame 是 spinner 当前帧，结果不超过 width。
func (w *StatusIndicator) Line(frame string, width int) render.Line {
	if w == nil || width <= 0 {
		return render.Line{}
	}
	faint := lipgloss.NewStyle().Faint(true)

	var spans []render.Span
	switch w.state {
	case StatusDisconnected:
		text := w.state.defaultHeader()
		if w.err != nil {
			text = fmt.Sprintf("%s: %v", text, w.err)
		}
		spans = append(spans,
			render.Span{Text: "!"},
			render.Span{Text: " "},
			render.Span{Text: text, Style: lipgloss.NewStyle().Foreground(lipgloss.Color("1"))},
		)
	case StatusListening:
		spans = append(spans, render.Span{Text: frame, Style: spinnerStyle}, render.Span{Text: " " + w.state.defaultHeader()})
	default:
		spans = append(spans, render.Span{Text: "•"}, render.Span{Text: " " + w.state.defaultHeader()})
	}

	details := make([]string, 0, 5)
	if w.label != "" {
		details = append(details, w.label)
	}
	if w.language != "" {
		details = append(details, w.language)
	}
	details = append(details, w.countText())
	if w.state.tracksElapsed() || w.elapsedRunning > 0 {
		details = append(details, fmtElapsedCompact(w.ElapsedSeconds()))
	}
	if w.notice != "" {
		details = append(details, w.notice)
	}
	spans = append(spans, render.Span{Text: " "}, render.Span{
		Text:  "(" + strings.Join(details, " • ") + ")",
		Style: faint,
	})
	return render.Line{Spans: clampSpans(spans, width)}
}

func (w *StatusIndicator) countText() string {
	noun := "messages"
	if w.total == 1 {
		noun = "message"
	}
	if w.filter != "" {
		return fmt.Sprintf("%d/%d %s matching %q", w.shown, w.total, noun, w.filter)
	}
	return fmt.Sprintf("%d %s", w.total, noun)
}

func (w *StatusIndicator) pauseTimerAt(now time.Time) {
	if w.paused {
		return
	}
	w.elapsedRunning += now.Sub(w.lastResumeAt)
	w.paused = true
}

func (w *StatusIndicator) resumeTimerAt(now time.Time) {
	if !w.paused {
		return
	}
	w.lastResumeAt = now
	w.paused = false
}

func (w *StatusIndicator) elapsedDurationAt(now time.Time) time.Duration {
	if w.paused {
		return w.elapsedRunning
	}
	return w.elapsedRunning + now.Sub(w.lastResumeAt)
}

func (w *StatusIndicator) elapsedSecondsAt(now time.Time) uint64 {
	return uint64(w.elapsedDurationAt(now).Seconds())
}

// fmtElapsedCompact 将秒数格式化为紧凑字符串。
func fmtElapsedCompact(elapsedSecs uint64) string {
	switch {
	case elapsedSecs < 60:
		return fmt.Sprintf("%ds", elapsedSecs)
	case elapsedSecs < 3600:
		return fmt.Sprintf("%dm %02ds", elapsedSecs/60, elapsedSecs%60)
	default:
		hours := elapsedSecs / 3600
		minutes := (elapsedSecs % 3600) / 60
		return fmt.Sprintf("%dh %02dm %02ds", hours, minutes, elapsedSecs%60)
	}
}

func clampSpans(spans []render.Span, width int) []render.Span {
	if width <= 0 {
		return nil
	}
	remaining := width
	out := make([]render.Span, 0, len(spans))
	for _, sp := range spans {
		if remaining <= 0 {
			break
		}
		tw := runewidth.StringWidth(sp.Text)
		if tw <= remaining {
			out = append(out, sp)
			remaining -= tw
			continue
		}
		if text := runewidth.Truncate(sp.Text, remaining, ""); text != "" {
			sp.Text = text
			out = append(out, sp)
		}
		remaining = 0
	}
	return out
}

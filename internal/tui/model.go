package tui

import (
	"context"
	"fmt"

	"chatwatch/internal/events"
	"chatwatch/internal/i18n"
	"chatwatch/internal/logger"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"
	"chatwatch/internal/tui/render"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Options struct {
	Source    stream.Source
	Label     string
	Title     string
	Language  i18n.Language
	Retention stream.Retention
	AltScreen bool
	// InputTTY 让按键从 /dev/tty 读取，消息源占用 stdin 时使用。
	InputTTY bool
	Logger    *logger.LogEntry
	// Clipboard 替换默认的系统剪贴板写入。
	Clipboard func(string) error
}

type snapshotMsg struct {
	Snapshot stream.Snapshot
}

type copyResultMsg struct {
	Err error
}

var (
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7A85"))
)

// Model 是承载消息列表控制器的 Bubble Tea 模型。
type Model struct {
	source    stream.Source
	ctrl      *stream.Controller
	feed      *events.Feed[stream.Snapshot]
	snapSub   <-chan stream.Snapshot
	snap      stream.Snapshot
	visible   []message.Message
	viewport  viewport.Model
	spin      spinner.Model
	filter    textinput.Model
	help      help.Model
	keys      keyMap
	status    *StatusIndicator
	filtering bool
	query     string
	language  i18n.Language
	width     int
	height    int
	clipboard func(string) error
	log       *logger.LogEntry
}

func New(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.Named("tui")
	}
	feed := events.NewFeed[stream.Snapshot]()
	ctrl := stream.New(stream.Options{
		Title:     opts.Title,
		Retention: opts.Retention,
		OnRender:  feed.Publish,
		Logger:    logger.Named("stream"),
	})

	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "filter by sender or text"
	ti.CharLimit = 256

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle()

	write := opts.Clipboard
	if write == nil {
		write = clipboard.WriteAll
	}

	m := &Model{
		source:    opts.Source,
		ctrl:      ctrl,
		feed:      feed,
		snapSub:   feed.Subscribe(),
		snap:      ctrl.Snapshot(),
		viewport:  viewport.New(80, 22),
		spin:      spin,
		filter:    ti,
		help:      help.New(),
		keys:      defaultKeyMap(),
		status:    NewStatusIndicator(StatusIndicatorOptions{Label: opts.Label, Language: opts.Language}),
		language:  i18n.Normalize(string(opts.Language)),
		clipboard: write,
		log:       log,
	}
	m.resize(80, 24)
	return m
}

// Start 挂载消息源，首个快照会立即进入订阅通道。
func (m *Model) Start(ctx context.Context) error {
	return m.ctrl.Mount(ctx, m.source)
}

// Stop 卸载消息源并关闭快照订阅，返回消息源 Close 的错误。
func (m *Model) Stop() error {
	err := m.ctrl.Unmount()
	m.feed.Close()
	return err
}

// Messages 返回控制器当前保留的消息。
func (m *Model) Messages() []message.Message {
	return m.ctrl.Snapshot().Messages
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.listenSnapshots(), m.spin.Tick)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		return m, nil
	case snapshotMsg:
		m.applySnapshot(msg.Snapshot)
		return m, m.listenSnapshots()
	case copyResultMsg:
		if msg.Err != nil {
			m.log.WithError(msg.Err).Warn("copy to clipboard failed")
			m.status.SetNotice(fmt.Sprintf("copy failed: %v", msg.Err))
		} else {
			m.status.SetNotice("copied")
		}
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Filter):
			m.filtering = true
			m.filter.SetValue(m.query)
			m.filter.CursorEnd()
			m.resize(m.width, m.height)
			return m, m.filter.Focus()
		case key.Matches(msg, m.keys.ClearFilter):
			m.setQuery("")
			return m, nil
		case key.Matches(msg, m.keys.Copy):
			return m, m.copyNewest()
		case key.Matches(msg, m.keys.Top):
			m.viewport.GotoTop()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			m.viewport.GotoBottom()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	parts := []string{m.viewport.View()}
	if m.filtering {
		parts = append(parts, m.filter.View())
	}
	parts = append(parts,
		m.status.Line(m.spin.View(), m.width).String(),
		hintStyle.Render(m.help.View(m.keys)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) listenSnapshots() tea.Cmd {
	if m.snapSub == nil {
		return nil
	}
	sub := m.snapSub
	return func() tea.Msg {
		snap, ok := <-sub
		if !ok {
			return nil
		}
		return snapshotMsg{Snapshot: snap}
	}
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		return m, tea.Quit
	case key.Matches(msg, m.keys.ClearFilter):
		m.filtering = false
		m.filter.Blur()
		m.filter.Reset()
		m.setQuery("")
		m.resize(m.width, m.height)
		return m, nil
	case key.Matches(msg, m.keys.ApplyFilter):
		m.filtering = false
		m.filter.Blur()
		m.resize(m.width, m.height)
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.setQuery(m.filter.Value())
	return m, cmd
}

func (m *Model) setQuery(query string) {
	if query == m.query {
		return
	}
	m.query = query
	m.refresh()
}

func (m *Model) copyNewest() tea.Cmd {
	if len(m.visible) == 0 {
		m.status.SetNotice("nothing to copy")
		return nil
	}
	text := m.visible[len(m.visible)-1].Text()
	write := m.clipboard
	return func() tea.Msg {
		return copyResultMsg{Err: write(text)}
	}
}

func (m *Model) applySnapshot(snap stream.Snapshot) {
	m.snap = snap
	m.refresh()
}

func (m *Model) resize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.width = width
	m.height = height
	chrome := 2 // 状态行 + 按键提示
	if m.filtering {
		chrome++
	}
	m.viewport.Width = width
	m.viewport.Height = max(height-chrome, 1)
	m.filter.Width = max(width-4, 10)
	m.help.Width = width
	m.refresh()
}

// refresh 重新过滤并渲染列表；视口原本位于底部时继续跟随最新消息。
func (m *Model) refresh() {
	m.visible = filterMessages(m.snap.Messages, m.query)
	m.status.Apply(m.snap, len(m.visible))
	m.status.SetFilter(m.query)

	follow := m.viewport.AtBottom()
	m.viewport.SetContent(render.MessageList(m.visible, m.snap.Title, render.ListOptions{
		Width:    m.viewport.Width,
		Language: m.language,
	}))
	if follow {
		m.viewport.GotoBottom()
	}
}

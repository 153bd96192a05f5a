package scrollback

import (
	"fmt"
	"io"
	"os"
	"sync"

	"chatwatch/internal/i18n"
	"chatwatch/internal/message"
	"chatwatch/internal/tui/render"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true)
	disconnectStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// Scrollback 把已经确定的行追加写入终端的自然滚动缓冲（或任意 io.Writer）。
// 写出的内容不再修改，适合非交互的 tail 模式。
type Scrollback struct {
	mu       sync.Mutex
	w        io.Writer
	width    int
	language i18n.Language
}

type Options struct {
	Writer io.Writer
	// Width<=0 时每行按自然宽度输出。
	Width    int
	Language i18n.Language
}

func New(opts Options) *Scrollback {
	w := opts.Writer
	if w == nil {
		w = os.Stdout
	}
	return &Scrollback{w: w, width: opts.Width, language: opts.Language}
}

// SetWidth 修改之后写入的行宽，已输出的行不受影响。
func (s *Scrollback) SetWidth(width int) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = width
}

// AppendMessage 写入一条消息行。
func (s *Scrollback) AppendMessage(msg message.Message) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	row := render.RenderMessageRow(msg, render.RowOptions{Width: s.width, Language: s.language})
	fmt.Fprintln(s.w, row)
}

// AppendTitle 写入加粗的标题行。
func (s *Scrollback) AppendTitle(title string) {
	s.appendStyled(titleStyle, title)
}

// AppendDisconnect 写入断开提示行。
func (s *Scrollback) AppendDisconnect(err error) {
	text := "disconnected"
	if err != nil {
		text = fmt.Sprintf("disconnected: %v", err)
	}
	s.appendStyled(disconnectStyle, text)
}

func (s *Scrollback) appendStyled(style lipgloss.Style, text string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, style.Render(text))
}

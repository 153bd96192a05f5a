package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Span 表示一段文本及其样式。
type Span struct {
	Text  string
	Style lipgloss.Style
}

// Line 由多个 Span 组成，可选整体样式。
type Line struct {
	Spans []Span
	Style lipgloss.Style
}

// Width 返回行的显示宽度（按未着色文本计算）。
func (l Line) Width() int {
	w := 0
	for _, sp := range l.Spans {
		w += runewidth.StringWidth(sp.Text)
	}
	return w
}

// Plain 返回去掉样式的文本。
func (l Line) Plain() string {
	var b strings.Builder
	for _, sp := range l.Spans {
		b.WriteString(sp.Text)
	}
	return b.String()
}

// String 渲染带样式的单行。
func (l Line) String() string {
	segments := make([]string, 0, len(l.Spans))
	for _, sp := range l.Spans {
		segments = append(segments, sp.Style.Render(sp.Text))
	}
	return l.Style.Render(strings.Join(segments, ""))
}

package render

import (
	"chatwatch/internal/i18n"
	"chatwatch/internal/message"

	"github.com/charmbracelet/lipgloss"
)

// EmptyPlaceholder 是空列表时显示的唯一一行。
const EmptyPlaceholder = "No messages"

// listChrome 是外边距与边框在水平方向占用的宽度。
const listChrome = 4

var (
	listTitleStyle   = lipgloss.NewStyle().Bold(true)
	listBoxStyle     = lipgloss.NewStyle().Border(lipgloss.NormalBorder())
	listMarginStyle  = lipgloss.NewStyle().Margin(1)
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// ListOptions 控制列表块的排版。
type ListOptions struct {
	// Width 是整个块（含外边距与边框）的宽度，<=0 表示按内容自然宽度。
	Width    int
	Language i18n.Language
}

func (o ListOptions) innerWidth(msgs []message.Message) int {
	if o.Width > 0 {
		return max(o.Width-listChrome, 1)
	}
	w := 0
	for _, m := range msgs {
		w = max(w, naturalRowWidth(m, o.Language))
	}
	return w
}

// MessageRows 按输入顺序渲染每条消息（共用同一宽度以对齐时间戳）；
// 输入为空时只返回占位行。
func MessageRows(msgs []message.Message, opts ListOptions) []string {
	if len(msgs) == 0 {
		return []string{placeholderStyle.Render(EmptyPlaceholder)}
	}
	width := opts.innerWidth(msgs)
	rows := make([]string, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, RenderMessageRow(m, RowOptions{Width: width, Language: opts.Language}))
	}
	return rows
}

// MessageList 渲染带标题与边框的消息列表。title 为空时不输出标题行。
func MessageList(msgs []message.Message, title string, opts ListOptions) string {
	box := listBoxStyle
	// 时间戳放不下时不固定框宽，避免 lipgloss 把行折成多行。
	if inner := opts.innerWidth(msgs); opts.Width > 0 && inner >= timestampWidth(msgs, opts.Language) {
		box = box.Width(inner)
	}
	body := box.Render(lipgloss.JoinVertical(lipgloss.Left, MessageRows(msgs, opts)...))

	parts := make([]string, 0, 2)
	if title != "" {
		parts = append(parts, listTitleStyle.Render(title))
	}
	parts = append(parts, body)
	return listMarginStyle.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

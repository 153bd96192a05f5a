package render

import (
	"strings"

	"chatwatch/internal/i18n"
	"chatwatch/internal/message"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// rowGap 是内容与时间戳之间的最小间距。
const rowGap = 2

var (
	senderStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	contentStyle   = lipgloss.NewStyle()
	timestampStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("8"))

	flattenReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")
)

// RowOptions 控制单行消息的排版。
type RowOptions struct {
	// Width>0 时行宽固定为 Width，时间戳右对齐，左侧过长时截断；否则按自然宽度排版。
	Width    int
	Language i18n.Language
}

// MessageRow 把一条消息渲染为单行：缩短后的发送者、内容、右对齐的本地化时间戳。
func MessageRow(msg message.Message, opts RowOptions) Line {
	sender := message.ShortenAddress(msg.SenderAddress) + ": "
	content := flattenReplacer.Replace(msg.Text())
	ts := opts.Language.FormatTime(msg.Sent)
	tsWidth := runewidth.StringWidth(ts)

	gap := rowGap
	if opts.Width > 0 {
		if leftMax := opts.Width - rowGap - tsWidth; leftMax < 1 {
			// 只放得下时间戳；时间戳本身从不截断。
			sender, content = "", ""
			gap = max(opts.Width-tsWidth, 0)
		} else {
			sender, content = truncateLeft(sender, content, leftMax)
			gap = max(opts.Width-runewidth.StringWidth(sender)-runewidth.StringWidth(content)-tsWidth, rowGap)
		}
	}
	return Line{Spans: []Span{
		{Text: sender, Style: senderStyle},
		{Text: content, Style: contentStyle},
		{Text: strings.Repeat(" ", gap)},
		{Text: ts, Style: timestampStyle},
	}}
}

// RenderMessageRow 返回 MessageRow 的样式化字符串。
func RenderMessageRow(msg message.Message, opts RowOptions) string {
	return MessageRow(msg, opts).String()
}

// naturalRowWidth 返回不截断时一行所需的宽度。
func naturalRowWidth(msg message.Message, lang i18n.Language) int {
	return MessageRow(msg, RowOptions{Language: lang}).Width()
}

// timestampWidth 返回 msgs 中最宽时间戳的显示宽度。
func timestampWidth(msgs []message.Message, lang i18n.Language) int {
	w := 0
	for _, m := range msgs {
		w = max(w, runewidth.StringWidth(lang.FormatTime(m.Sent)))
	}
	return w
}

func truncateLeft(sender, content string, limit int) (string, string) {
	senderWidth := runewidth.StringWidth(sender)
	if senderWidth+runewidth.StringWidth(content) <= limit {
		return sender, content
	}
	if senderWidth >= limit {
		return runewidth.Truncate(sender, limit, "…"), ""
	}
	return sender, runewidth.Truncate(content, limit-senderWidth, "…")
}

package tui

import (
	"sort"
	"strings"

	"chatwatch/internal/message"

	"github.com/sahilm/fuzzy"
)

// filterKeys 为每条消息构造参与匹配的文本：缩短地址、原始地址与内容。
func filterKeys(msgs []message.Message) []string {
	keys := make([]string, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, strings.ToLower(strings.Join([]string{
			message.ShortenAddress(m.SenderAddress),
			m.SenderAddress,
			m.Text(),
		}, " ")))
	}
	return keys
}

// filterMessages 返回模糊匹配 query 的消息，保持原有顺序。
func filterMessages(msgs []message.Message, query string) []message.Message {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return msgs
	}
	results := fuzzy.Find(strings.ToLower(trimmed), filterKeys(msgs))
	idx := make([]int, 0, len(results))
	for _, res := range results {
		idx = append(idx, res.Index)
	}
	sort.Ints(idx)
	out := make([]message.Message, 0, len(idx))
	for _, i := range idx {
		out = append(out, msgs[i])
	}
	return out
}

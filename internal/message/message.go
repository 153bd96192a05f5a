package message

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrMalformed 表示负载缺少必要字段或不是合法 JSON。
var ErrMalformed = errors.New("malformed message")

// Message 是外部消息层解码后的一条聊天消息，本项目只读使用其中四个字段。
type Message struct {
	ID            string
	SenderAddress string
	Content       any
	Sent          time.Time
}

// Text 返回内容的可展示形式。
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	if s, ok := m.Content.(string); ok {
		return s
	}
	return fmt.Sprint(m.Content)
}

var (
	senderKeys  = []string{"senderAddress", "sender", "from", "pubkey"}
	contentKeys = []string{"content", "body", "text"}
	sentKeys    = []string{"sent", "ts", "timestamp", "created_at"}
)

// Decode 宽松解析单条 JSON 消息，供 redis/nats/jsonl 等字节流适配器共用。
// sent 缺失时使用 now。
func Decode(data []byte, now time.Time) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, fmt.Errorf("%w: invalid json", ErrMalformed)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return Message{}, fmt.Errorf("%w: expected object", ErrMalformed)
	}
	id := strings.TrimSpace(doc.Get("id").String())
	if id == "" {
		return Message{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}

	msg := Message{ID: id, Sent: now}
	if r := first(doc, senderKeys); r.Exists() {
		msg.SenderAddress = r.String()
	}
	if r := first(doc, contentKeys); r.Exists() {
		if r.Type == gjson.String {
			msg.Content = r.String()
		} else {
			msg.Content = r.Value()
		}
	}
	if r := first(doc, sentKeys); r.Exists() {
		ts, err := parseSent(r)
		if err != nil {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		msg.Sent = ts
	}
	return msg, nil
}

func first(doc gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := doc.Get(k); r.Exists() && r.Type != gjson.Null {
			return r
		}
	}
	return gjson.Result{}
}

// parseSent 支持 RFC3339 字符串、unix 毫秒与 unix 秒。
func parseSent(r gjson.Result) (time.Time, error) {
	switch r.Type {
	case gjson.Number:
		n := r.Int()
		if n >= 1e12 {
			return time.UnixMilli(n), nil
		}
		return time.Unix(n, 0), nil
	case gjson.String:
		ts, err := time.Parse(time.RFC3339Nano, r.String())
		if err != nil {
			return time.Time{}, fmt.Errorf("sent: %w", err)
		}
		return ts, nil
	default:
		return time.Time{}, fmt.Errorf("sent: unsupported type %s", r.Type)
	}
}

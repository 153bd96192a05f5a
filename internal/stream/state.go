package stream

import (
	"chatwatch/internal/message"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultSeenLimit 是只限制消息条数时 seen-set 的最小容量。
const DefaultSeenLimit = 8192

// Retention 显式配置展示状态的保留策略，零值表示不限制（seen-set 单调增长）。
type Retention struct {
	// MaxMessages>0 时只保留最近 K 条消息。
	MaxMessages int
	// SeenLimit>0 时 seen-set 改为容量受限的 LRU。
	SeenLimit int
}

func (r Retention) seenLimit() int {
	if r.SeenLimit > 0 {
		return r.SeenLimit
	}
	if r.MaxMessages > 0 {
		return max(DefaultSeenLimit, 4*r.MaxMessages)
	}
	return 0
}

type seenSet interface {
	Contains(id string) bool
	Add(id string)
	Len() int
}

type mapSet map[string]struct{}

func (s mapSet) Contains(id string) bool {
	_, ok := s[id]
	return ok
}

func (s mapSet) Add(id string) { s[id] = struct{}{} }

func (s mapSet) Len() int { return len(s) }

type lruSet struct {
	cache *lru.Cache[string, struct{}]
}

func (s lruSet) Contains(id string) bool { return s.cache.Contains(id) }

func (s lruSet) Add(id string) { s.cache.Add(id, struct{}{}) }

func (s lruSet) Len() int { return s.cache.Len() }

// State 是控制器独占的展示状态：按到达顺序排列的消息 + 已见 ID 集合。
type State struct {
	messages  []message.Message
	seen      seenSet
	retention Retention
}

// NewState 按保留策略创建空状态。
func NewState(r Retention) *State {
	s := &State{retention: r, seen: mapSet{}}
	if limit := r.seenLimit(); limit > 0 {
		// lru.New 只在 size<=0 时返回错误。
		cache, _ := lru.New[string, struct{}](limit)
		s.seen = lruSet{cache: cache}
	}
	return s
}

// Add 追加未见过的消息，重复 ID 返回 false 且不改变状态。
func (s *State) Add(msg message.Message) bool {
	if s.seen.Contains(msg.ID) {
		return false
	}
	s.seen.Add(msg.ID)
	s.messages = append(s.messages, msg)
	if limit := s.retention.MaxMessages; limit > 0 && len(s.messages) > limit {
		trimmed := make([]message.Message, limit)
		copy(trimmed, s.messages[len(s.messages)-limit:])
		s.messages = trimmed
	}
	return true
}

// Seen 报告 id 是否已进入 seen-set。
func (s *State) Seen(id string) bool {
	return s.seen.Contains(id)
}

// Len 返回当前消息条数。
func (s *State) Len() int {
	return len(s.messages)
}

// SeenLen 返回 seen-set 大小。
func (s *State) SeenLen() int {
	return s.seen.Len()
}

// Messages 返回消息序列的副本。
func (s *State) Messages() []message.Message {
	out := make([]message.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"chatwatch/internal/i18n"
	"chatwatch/internal/message"
	"chatwatch/internal/stream"

	"github.com/mattn/go-runewidth"
)

func TestFmtElapsedCompact(t *testing.T) {
	cases := []struct {
		seconds  uint64
		expected string
	}{
		{seconds: 0, expected: "0s"},
		{seconds: 59, expected: "59s"},
		{seconds: 60, expected: "1m 00s"},
		{seconds: 3*60 + 5, expected: "3m 05s"},
		{seconds: 3600, expected: "1h 00m 00s"},
		{seconds: 25*3600 + 2*60 + 3, expected: "25h 02m 03s"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.expected, func(t *testing.T) {
			t.Parallel()
			if got := fmtElapsedCompact(tc.seconds); got != tc.expected {
				t.Fatalf("fmtElapsedCompact(%d) = %q, want %q", tc.seconds, got, tc.expected)
			}
		})
	}
}

func TestStatusIndicatorTimerOnlyRunsWhileListening(t *testing.T) {
	base := time.Unix(0, 0)
	now := base
	widget := NewStatusIndicator(StatusIndicatorOptions{
		Clock: func() time.Time { return now },
	})

	now = base.Add(5 * time.Second)
	if got := widget.ElapsedSeconds(); got != 0 {
		t.Fatalf("connecting should not count time, got %d", got)
	}

	widget.SetState(StatusListening)
	now = base.Add(12 * time.Second)
	if got := widget.ElapsedSeconds(); got != 7 {
		t.Fatalf("expected 7s listening, got %d", got)
	}

	widget.SetState(StatusDisconnected)
	now = base.Add(60 * time.Second)
	if got := widget.ElapsedSeconds(); got != 7 {
		t.Fatalf("disconnected should freeze timer at 7s, got %d", got)
	}
}

func TestStatusIndicatorLine(t *testing.T) {
	now := time.Unix(0, 0)
	widget := NewStatusIndicator(StatusIndicatorOptions{
		Label: "redis: chat",
		Clock: func() time.Time { return now },
	})

	cases := []struct {
		name string
		snap stream.Snapshot
		want string
	}{
		{
			name: "connecting",
			snap: stream.Snapshot{Phase: stream.PhaseIdle},
			want: "• Connecting (redis: chat • 0 messages)",
		},
		{
			name: "listening",
			snap: stream.Snapshot{Phase: stream.PhaseSubscribed, Messages: []message.Message{{ID: "a"}}},
			want: "* Listening (redis: chat • 1 message • 0s)",
		},
		{
			name: "disconnected",
			snap: stream.Snapshot{Phase: stream.PhaseDisconnected, Err: errors.New("eof")},
			want: "! disconnected: eof (redis: chat • 0 messages)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			widget.Apply(tc.snap, len(tc.snap.Messages))
			if got := widget.Line("*", 80).Plain(); got != tc.want {
				t.Fatalf("line=%q want %q", got, tc.want)
			}
		})
	}
}

func TestStatusIndicatorFilterCount(t *testing.T) {
	widget := NewStatusIndicator(StatusIndicatorOptions{})
	snap := stream.Snapshot{Phase: stream.PhaseSubscribed, Messages: make([]message.Message, 5)}
	widget.Apply(snap, 2)
	widget.SetFilter("bob")
	if got := widget.Line("*", 80).Plain(); !strings.Contains(got, `2/5 messages matching "bob"`) {
		t.Fatalf("line=%q", got)
	}
}

func TestStatusIndicatorLineClampsToWidth(t *testing.T) {
	widget := NewStatusIndicator(StatusIndicatorOptions{Label: strings.Repeat("relay ", 20)})
	line := widget.Line("*", 10)
	if width := runewidth.StringWidth(line.Plain()); width > 10 {
		t.Fatalf("rendered width %d exceeds 10", width)
	}
	if len(widget.Line("*", 0).Spans) != 0 {
		t.Fatalf("zero width should render nothing")
	}
}

func TestStatusIndicatorShowsNonDefaultLanguage(t *testing.T) {
	cases := []struct {
		lang i18n.Language
		want string
	}{
		{lang: "", want: "• Connecting (nats: chat.> • 0 messages)"},
		{lang: i18n.LanguageEnglish, want: "• Connecting (nats: chat.> • 0 messages)"},
		{lang: i18n.LanguageChinese, want: "• Connecting (nats: chat.> • 中文 • 0 messages)"},
	}
	for _, tc := range cases {
		widget := NewStatusIndicator(StatusIndicatorOptions{Label: "nats: chat.>", Language: tc.lang})
		if got := widget.Line("*", 80).Plain(); got != tc.want {
			t.Fatalf("lang=%q line=%q want %q", tc.lang, got, tc.want)
		}
	}
}

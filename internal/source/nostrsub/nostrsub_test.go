package nostrsub

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"chatwatch/internal/message"

	"github.com/nbd-wtf/go-nostr"
)

const testPubKey = "3bf0c63fcb93463407af97a5e5ee64fa883d107ef9e558472c4eb9aaaefa459d"

func TestFromEvent(t *testing.T) {
	ev := &nostr.Event{
		ID:        "ev-1",
		PubKey:    testPubKey,
		CreatedAt: nostr.Timestamp(1700000000),
		Kind:      1,
		Content:   "gm",
	}
	msg := FromEvent(ev)
	if msg.ID != "ev-1" || msg.SenderAddress != testPubKey || msg.Text() != "gm" {
		t.Fatalf("unexpected mapping: %+v", msg)
	}
	if !msg.Sent.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("sent=%v", msg.Sent)
	}
	if short := message.ShortenAddress(msg.SenderAddress); !strings.HasPrefix(short, "npub1") {
		t.Fatalf("pubkey should display as npub, got %q", short)
	}
}

func TestFilter(t *testing.T) {
	since := time.Unix(1700000000, 0)
	f := Filter(Options{
		Kinds:   []int{1, 42},
		Authors: []string{testPubKey},
		Tags:    map[string][]string{"t": {"golang"}},
		Since:   since,
		Limit:   50,
	})
	if len(f.Kinds) != 2 || f.Kinds[1] != 42 {
		t.Fatalf("kinds=%v", f.Kinds)
	}
	if len(f.Authors) != 1 || f.Authors[0] != testPubKey {
		t.Fatalf("authors=%v", f.Authors)
	}
	if got := f.Tags["t"]; len(got) != 1 || got[0] != "golang" {
		t.Fatalf("tags=%v", f.Tags)
	}
	if f.Since == nil || int64(*f.Since) != since.Unix() {
		t.Fatalf("since=%v", f.Since)
	}
	if f.Limit != 50 {
		t.Fatalf("limit=%d", f.Limit)
	}
}

func TestFilterWithoutSinceOrTags(t *testing.T) {
	f := Filter(Options{Kinds: []int{1}})
	if f.Since != nil {
		t.Fatalf("zero since should not constrain the filter")
	}
	if f.Tags != nil {
		t.Fatalf("tags=%v", f.Tags)
	}
}

func TestSubscribeRequiresRelays(t *testing.T) {
	if _, err := Subscribe(context.Background(), Options{}); !errors.Is(err, ErrNoRelays) {
		t.Fatalf("err=%v want ErrNoRelays", err)
	}
}

func TestSubscribeFailsWhenNoRelayConnects(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := Subscribe(ctx, Options{Relays: []string{"ws://127.0.0.1:1"}, Kinds: []int{1}})
	if err == nil {
		t.Fatalf("expected connect error")
	}
	if !strings.Contains(err.Error(), "no relay connected") {
		t.Fatalf("err=%v", err)
	}
}

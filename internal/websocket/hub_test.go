package websocket

import (
	"testing"
	"time"

	"github.com/bloghub/posts-service/internal/types"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestHub_DropsSlowClientWithoutPanic(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	slow := NewClient(nil, 1, hub)
	hub.RegisterClient(slow)
	waitFor(t, func() bool { return hub.IsUserConnected(1) }, "client never registered")

	event := types.NewEvent(types.EventPostLiked, types.PostLikedEvent{PostID: 1, Likes: 1})

	// Fill the outbound buffer; nothing is draining it.
	for {
		if err := slow.SendEvent(event); err != nil {
			break
		}
	}

	// The broadcast hits the full buffer; the hub must drop the client,
	// not close its channel twice.
	hub.BroadcastAll(event)
	waitFor(t, func() bool { return !hub.IsUserConnected(1) }, "slow client was never dropped")

	healthy := NewClient(nil, 2, hub)
	hub.RegisterClient(healthy)
	waitFor(t, func() bool { return hub.IsUserConnected(2) }, "hub stopped accepting clients")

	hub.BroadcastAll(event)
	select {
	case <-healthy.send:
	case <-time.After(2 * time.Second):
		t.Fatal("healthy client never received the broadcast")
	}
}

func TestHub_StaleUnregisterKeepsReplacement(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	old := NewClient(nil, 7, hub)
	hub.RegisterClient(old)
	waitFor(t, func() bool { return hub.IsUserConnected(7) }, "first client never registered")

	replacement := NewClient(nil, 7, hub)
	hub.RegisterClient(replacement)
	waitFor(t, func() bool {
		select {
		case _, ok := <-old.send:
			return !ok
		default:
			return false
		}
	}, "old client's channel was never closed on replacement")

	// The replaced connection's read pump tears down by user ID; it must
	// not take the replacement down with it.
	hub.UnregisterClient(old)

	if !hub.IsUserConnected(7) {
		t.Fatal("replacement client was dropped by the stale unregister")
	}

	event := types.NewEvent(types.EventPostCreated, types.PostCreatedEvent{})
	hub.BroadcastAll(event)

	select {
	case <-replacement.send:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement client never received the broadcast")
	}
}

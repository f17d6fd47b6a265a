package hub

import (
	"sync"
	"testing"
	"time"
)

// TestRateLimiterBatchesPerSession verifies that chunks for one session are
// concatenated in order into a single flush, and that sessions do not share
// batches.
func TestRateLimiterBatchesPerSession(t *testing.T) {
	var mu sync.Mutex
	flushed := make(map[string][]string)

	rl := NewRateLimiter(20*time.Millisecond, func(sessionID string, msg OutputMessage) {
		mu.Lock()
		flushed[sessionID] = append(flushed[sessionID], msg.Data)
		mu.Unlock()
	})

	rl.Add(OutputMessage{Type: "output", Event: "pty-output-a", SessionID: "a", Data: "one"})
	rl.Add(OutputMessage{Type: "output", Event: "pty-output-a", SessionID: "a", Data: "-two"})
	rl.Add(OutputMessage{Type: "output", Event: "pty-output-b", SessionID: "b", Data: "bee"})

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if len(flushed["a"]) != 1 || flushed["a"][0] != "one-two" {
		t.Errorf("session a flushes = %v, want [one-two]", flushed["a"])
	}
	if len(flushed["b"]) != 1 || flushed["b"][0] != "bee" {
		t.Errorf("session b flushes = %v, want [bee]", flushed["b"])
	}
}

// TestRateLimiterFlushSession verifies that an explicit flush delivers
// immediately and cancels the pending timer.
func TestRateLimiterFlushSession(t *testing.T) {
	var mu sync.Mutex
	var count int

	rl := NewRateLimiter(time.Hour, func(sessionID string, msg OutputMessage) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	rl.Add(OutputMessage{SessionID: "s", Event: "pty-output-s", Data: "x"})
	rl.FlushSession("s")
	// Second flush of an empty queue must be a no-op.
	rl.FlushSession("s")

	mu.Lock()
	defer mu.Unlock()
	if count != 1 {
		t.Errorf("flush count = %d, want 1", count)
	}
}

// TestRateLimiterFlushAll verifies shutdown flushing across sessions.
func TestRateLimiterFlushAll(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]string)

	rl := NewRateLimiter(time.Hour, func(sessionID string, msg OutputMessage) {
		mu.Lock()
		seen[sessionID] = msg.Data
		mu.Unlock()
	})

	rl.Add(OutputMessage{SessionID: "a", Event: "pty-output-a", Data: "aa"})
	rl.Add(OutputMessage{SessionID: "b", Event: "pty-output-b", Data: "bb"})
	rl.FlushAll()

	mu.Lock()
	defer mu.Unlock()
	if seen["a"] != "aa" || seen["b"] != "bb" {
		t.Errorf("FlushAll delivered %v", seen)
	}
}

// TestClientSubscriptionFilter verifies per-topic filtering: a client that
// subscribed to one session only receives that session's messages plus
// broadcasts with no session scope.
func TestClientSubscriptionFilter(t *testing.T) {
	c := &Client{
		subscribeAll:  true,
		subscriptions: make(map[string]struct{}),
	}

	if !c.wantsSession("any") {
		t.Error("default client should receive all sessions")
	}

	c.subscribe("t1")
	if !c.wantsSession("t1") {
		t.Error("subscribed session should be wanted")
	}
	if c.wantsSession("t2") {
		t.Error("unsubscribed session should be filtered")
	}
	if !c.wantsSession("") {
		t.Error("unscoped broadcasts should always be delivered")
	}

	c.subscribe("")
	if !c.wantsSession("t2") {
		t.Error("empty subscribe should restore subscribe-all")
	}
}

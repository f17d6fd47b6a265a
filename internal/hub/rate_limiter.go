package hub

import (
	"strings"
	"sync"
	"time"
)

// RateLimiter batches terminal output per session so a chatty child process
// becomes one websocket frame per flush interval instead of one per read.
type RateLimiter struct {
	mu       sync.Mutex
	pending  map[string]*pendingOutput
	interval time.Duration
	onFlush  func(sessionID string, msg OutputMessage)
}

type pendingOutput struct {
	chunks []string
	event  string
	ts     int64
	timer  *time.Timer
}

func NewRateLimiter(interval time.Duration, onFlush func(string, OutputMessage)) *RateLimiter {
	return &RateLimiter{
		pending:  make(map[string]*pendingOutput),
		interval: interval,
		onFlush:  onFlush,
	}
}

// Add queues a chunk for the message's session and arms the flush timer if
// it is not already running. Chunk order within a session is preserved.
func (r *RateLimiter) Add(msg OutputMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionID := msg.SessionID
	p, exists := r.pending[sessionID]
	if !exists {
		p = &pendingOutput{event: msg.Event}
		r.pending[sessionID] = p
	}

	p.chunks = append(p.chunks, msg.Data)
	if msg.Ts > p.ts {
		p.ts = msg.Ts
	}

	if p.timer == nil {
		p.timer = time.AfterFunc(r.interval, func() {
			r.FlushSession(sessionID)
		})
	}
}

// FlushSession delivers everything queued for one session immediately. The
// closed signal path uses it so "session ended" never overtakes buffered
// output.
func (r *RateLimiter) FlushSession(sessionID string) {
	r.mu.Lock()
	p, exists := r.pending[sessionID]
	if !exists {
		r.mu.Unlock()
		return
	}
	delete(r.pending, sessionID)
	r.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
	}

	if r.onFlush != nil && len(p.chunks) > 0 {
		r.onFlush(sessionID, OutputMessage{
			Type:      "output",
			Event:     p.event,
			SessionID: sessionID,
			Data:      strings.Join(p.chunks, ""),
			Ts:        p.ts,
		})
	}
}

// FlushAll delivers all queued output, used at shutdown.
func (r *RateLimiter) FlushAll() {
	r.mu.Lock()
	ids := make([]string, 0, len(r.pending))
	for id := range r.pending {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	for _, id := range ids {
		r.FlushSession(id)
	}
}

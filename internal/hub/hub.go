package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"nhooyr.io/websocket"

	"github.com/user/workshop/internal/pty"
)

const defaultBatchInterval = 100 * time.Millisecond

// TerminalController is the slice of the terminal session manager the hub
// drives on behalf of connected clients.
type TerminalController interface {
	Spawn(id, workDir string, rows, cols uint16) error
	Write(id string, data []byte) error
	Resize(id string, rows, cols uint16) error
	Teardown(id string)
}

// Hub owns all websocket clients and fans terminal output, project events
// and log notifications out to them. It also implements pty.EventSink so it
// can be handed to the terminal manager directly.
type Hub struct {
	clients      map[string]*Client
	register     chan *Client
	unregister   chan *Client
	broadcast    chan hubBroadcast
	terminal     TerminalController
	token        string
	mu           sync.RWMutex
	rateLimiter  *RateLimiter
	batchEnabled bool
	ctxWrap      *ctxWrapper
	running      atomic.Bool
}

type ctxWrapper struct {
	ctx context.Context
}

func New(token string) *Hub {
	h := &Hub{
		clients:      make(map[string]*Client),
		register:     make(chan *Client, 16),
		unregister:   make(chan *Client, 16),
		broadcast:    make(chan hubBroadcast, 256),
		token:        token,
		batchEnabled: true,
		ctxWrap:      &ctxWrapper{ctx: context.Background()},
	}
	h.rateLimiter = NewRateLimiter(defaultBatchInterval, func(sessionID string, msg OutputMessage) {
		h.sendBroadcast(sessionID, msg)
	})
	return h
}

// SetTerminal wires in the terminal manager. Called once during startup,
// after the manager has been constructed with this hub as its sink.
func (h *Hub) SetTerminal(t TerminalController) {
	h.terminal = t
}

func (h *Hub) getContext() context.Context {
	if h.ctxWrap != nil {
		return h.ctxWrap.ctx
	}
	return context.Background()
}

func (h *Hub) Run(ctx context.Context) {
	h.ctxWrap = &ctxWrapper{ctx: ctx}
	h.running.Store(true)
	defer h.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			h.rateLimiter.FlushAll()
			h.mu.Lock()
			for _, c := range h.clients {
				close(c.send)
			}
			h.clients = make(map[string]*Client)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			go client.writePump(h.getContext())
			go client.readPump(h.getContext())
			log.Printf("client connected: %s (total: %d)", client.id, h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("client disconnected: %s (total: %d)", client.id, h.ClientCount())

		case b := <-h.broadcast:
			h.mu.RLock()
			for _, c := range h.clients {
				if !c.wantsSession(b.sessionID) {
					continue
				}
				select {
				case c.send <- b.data:
				default:
					log.Printf("client %s send buffer full, dropping message", c.id)
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" || token != h.token {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		log.Printf("websocket accept error: %v", err)
		return
	}

	client := newClient(conn, h)

	select {
	case h.register <- client:
	default:
		log.Printf("hub not accepting connections")
		conn.Close(websocket.StatusTryAgainLater, "server busy")
	}
}

// SessionOutput implements pty.EventSink. Output is batched per session and
// published on the session's topic.
func (h *Hub) SessionOutput(id string, data string) {
	msg := OutputMessage{
		Type:      "output",
		Event:     pty.Topic(id),
		SessionID: id,
		Data:      data,
		Ts:        time.Now().UnixMilli(),
	}
	if h.batchEnabled && h.rateLimiter != nil {
		h.rateLimiter.Add(msg)
	} else {
		h.sendBroadcast(id, msg)
	}
}

// SessionClosed implements pty.EventSink. Pending output for the session is
// flushed first so the end-of-session signal is always the last message on
// the topic.
func (h *Hub) SessionClosed(id string) {
	if h.rateLimiter != nil {
		h.rateLimiter.FlushSession(id)
	}
	h.sendBroadcast(id, ClosedMessage{
		Type:      "closed",
		Event:     pty.Topic(id),
		SessionID: id,
	})
}

// BroadcastProject notifies all clients of a project record change.
func (h *Hub) BroadcastProject(projectID, event string, data any) {
	h.sendBroadcast("", ProjectEventMessage{
		Type:      "project",
		ProjectID: projectID,
		Event:     event,
		Data:      data,
		Ts:        time.Now().UnixMilli(),
	})
}

// BroadcastLogChange notifies all clients that a project log file changed.
func (h *Hub) BroadcastLogChange(projectID, file string) {
	h.sendBroadcast("", LogEventMessage{
		Type:      "log",
		ProjectID: projectID,
		File:      file,
	})
}

func (h *Hub) sendBroadcast(sessionID string, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling message: %v", err)
		return
	}
	select {
	case h.broadcast <- hubBroadcast{data: data, sessionID: sessionID}:
	default:
		log.Printf("broadcast channel full, dropping message")
	}
}

// SendError reports a failed request back to one client only.
func (h *Hub) SendError(client *Client, sessionID, message string) {
	msg := ErrorMessage{Type: "error", SessionID: sessionID, Message: message}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("error marshaling error message: %v", err)
		return
	}
	select {
	case client.send <- data:
	default:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) SetBatchEnabled(enabled bool) {
	h.batchEnabled = enabled
}

func (h *Hub) isRunning() bool {
	return h.running.Load()
}

func (h *Hub) unregisterClient(c *Client) {
	if !h.isRunning() {
		c.conn.Close(websocket.StatusNormalClosure, "")
		return
	}
	select {
	case h.unregister <- c:
	default:
	}
}

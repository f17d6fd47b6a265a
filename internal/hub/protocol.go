package hub

// ClientMessage is every message a frontend client may send over the socket.
type ClientMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Data      string `json:"data,omitempty"`
	Cwd       string `json:"cwd,omitempty"`
	Rows      uint16 `json:"rows,omitempty"`
	Cols      uint16 `json:"cols,omitempty"`
}

// OutputMessage carries a chunk of raw terminal output. Event is the
// deterministic per-session topic name the frontend subscribed to.
type OutputMessage struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
	Data      string `json:"data"`
	Ts        int64  `json:"ts"`
}

// ClosedMessage signals, once per session, that the child process has exited
// and no further output will be published on its topic.
type ClosedMessage struct {
	Type      string `json:"type"`
	Event     string `json:"event"`
	SessionID string `json:"session_id"`
}

// ProjectEventMessage notifies clients of project record changes so open
// panels can refresh.
type ProjectEventMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	Event     string `json:"event"`
	Data      any    `json:"data,omitempty"`
	Ts        int64  `json:"ts"`
}

// LogEventMessage notifies clients that a watched log file changed on disk.
type LogEventMessage struct {
	Type      string `json:"type"`
	ProjectID string `json:"project_id"`
	File      string `json:"file"`
}

// ErrorMessage reports a failed client request.
type ErrorMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type hubBroadcast struct {
	data      []byte
	sessionID string
}

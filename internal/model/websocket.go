package model

// WebSocket message types
const (
	WSMessageTypeProgress = "progress"
	WSMessageTypeComplete = "completed"
	WSMessageTypeError    = "failed"
	WSMessageTypePing     = "ping"
	WSMessageTypePong     = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSProgressMessage represents a provider queue update
type WSProgressMessage struct {
	Type          string     `json:"type"`
	JobID         string     `json:"jobId"`
	Status        string     `json:"status"`
	QueuePosition int        `json:"queuePosition"`
	Logs          []QueueLog `json:"logs,omitempty"`
}

// WSCompleteMessage represents a finished generation
type WSCompleteMessage struct {
	Type     string `json:"type"`
	JobID    string `json:"jobId"`
	VideoURL string `json:"videoUrl"`
}

// WSErrorMessage represents a failed generation
type WSErrorMessage struct {
	Type  string `json:"type"`
	JobID string `json:"jobId"`
	Error string `json:"error"`
}

package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/motionhero/api/internal/model"
	"github.com/rs/zerolog"
)

// Client represents a WebSocket subscriber of one generation job.
// Send belongs to the hub, which closes it on removal; replies and done
// belong to the connection.
type Client struct {
	JobID string
	Conn  *websocket.Conn
	Send  chan []byte

	replies chan []byte
	done    chan struct{}
}

func newClient(jobID string, c *websocket.Conn) *Client {
	return &Client{
		JobID:   jobID,
		Conn:    c,
		Send:    make(chan []byte, 256),
		replies: make(chan []byte, 1),
		done:    make(chan struct{}),
	}
}

// reply queues a direct answer to this connection. It never touches Send,
// so it is safe after the hub dropped the client.
func (c *Client) reply(data []byte) {
	select {
	case c.replies <- data:
	default:
	}
}

// conn is the part of a websocket connection the pumps use
type conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

// pingInterval is how often an idle connection is probed
var pingInterval = 30 * time.Second

// Hub maintains active WebSocket connections
type Hub struct {
	// Clients grouped by job ID
	clients map[string]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	mu     sync.RWMutex
	logger zerolog.Logger
}

// BroadcastMessage represents a message to broadcast
type BroadcastMessage struct {
	JobID   string
	Message []byte
}

// NewHub creates a new Hub
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "ws").Logger(),
	}
}

// Run starts the hub's main loop; it returns after Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.JobID] == nil {
				h.clients[client.JobID] = make(map[*Client]bool)
			}
			h.clients[client.JobID][client] = true
			h.mu.Unlock()
			h.logger.Debug().Str("job_id", client.JobID).Msg("client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			h.mu.Unlock()
			h.logger.Debug().Str("job_id", client.JobID).Msg("client unregistered")

		case msg := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients[msg.JobID] {
				select {
				case client.Send <- msg.Message:
				default:
					// slow consumer
					h.remove(client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop ends Run
func (h *Hub) Stop() {
	close(h.done)
}

// remove drops a client; callers hold h.mu
func (h *Hub) remove(client *Client) {
	clients, ok := h.clients[client.JobID]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.Send)
	if len(clients) == 0 {
		delete(h.clients, client.JobID)
	}
}

// Register adds a new client; it reports false once the hub is stopped
func (h *Hub) Register(client *Client) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; after Stop it returns immediately
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Subscribers returns how many clients follow jobID
func (h *Hub) Subscribers(jobID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[jobID])
}

// BroadcastProgress sends a provider queue update to all job subscribers
func (h *Hub) BroadcastProgress(jobID string, update model.QueueUpdate) {
	h.send(jobID, model.WSProgressMessage{
		Type:          model.WSMessageTypeProgress,
		JobID:         jobID,
		Status:        update.Status,
		QueuePosition: update.QueuePosition,
		Logs:          update.Logs,
	})
}

// BroadcastComplete sends the finished video to all job subscribers
func (h *Hub) BroadcastComplete(jobID, videoURL string) {
	h.send(jobID, model.WSCompleteMessage{
		Type:     model.WSMessageTypeComplete,
		JobID:    jobID,
		VideoURL: videoURL,
	})
}

// BroadcastError sends a failure message to all job subscribers
func (h *Hub) BroadcastError(jobID, message string) {
	h.send(jobID, model.WSErrorMessage{
		Type:  model.WSMessageTypeError,
		JobID: jobID,
		Error: message,
	})
}

func (h *Hub) send(jobID string, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal message")
		return
	}

	select {
	case h.broadcast <- &BroadcastMessage{JobID: jobID, Message: data}:
	default:
		h.logger.Warn().Str("job_id", jobID).Msg("broadcast queue full, dropping message")
	}
}

// HandleConnection serves one subscriber until it disconnects
func (h *Hub) HandleConnection(c *websocket.Conn, jobID string) {
	h.serve(newClient(jobID, c), c)
}

// serve runs both pumps and returns only after the writer has stopped
func (h *Hub) serve(client *Client, c conn) {
	if !h.Register(client) {
		_ = c.WriteMessage(websocket.CloseMessage, []byte{})
		return
	}

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writePump(client, c)
	}()

	h.readPump(client, c)

	h.Unregister(client)
	close(client.done)
	<-writerDone
}

func (h *Hub) writePump(client *Client, c conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-client.done:
			return

		case message, ok := <-client.Send:
			if !ok {
				_ = c.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case message := <-client.replies:
			if err := c.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) readPump(client *Client, c conn) {
	for {
		_, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn().Err(err).Str("job_id", client.JobID).Msg("websocket error")
			}
			return
		}

		var msg model.WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == model.WSMessageTypePing {
			data, _ := json.Marshal(model.WSMessage{Type: model.WSMessageTypePong})
			client.reply(data)
		}
	}
}

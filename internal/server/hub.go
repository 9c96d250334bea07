package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/ytget/yt-batch/internal/event"
	"github.com/ytget/yt-batch/internal/model"
)

// WebSocket tuning
const (
	clientSendBuffer = 32
	broadcastBuffer  = 256
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = pongWait * 9 / 10
)

// Message types pushed to clients
const (
	MessageJobUpdate   = "job_update"
	MessageJobRemoved  = "job_removed"
	MessageInitialJobs = "initial_jobs"
)

type jobUpdate struct {
	Type string    `json:"type"`
	Job  model.Job `json:"job"`
}

type initialJobs struct {
	Type string      `json:"type"`
	Jobs []model.Job `json:"jobs"`
}

// SnapshotFunc returns the jobs a new client starts from
type SnapshotFunc func() []model.Job

type client struct {
	conn     *websocket.Conn
	jobID    string // empty means every job
	send     chan []byte
	snapshot SnapshotFunc
}

func (c *client) wants(jobID string) bool {
	return c.jobID == "" || c.jobID == jobID
}

type broadcastMessage struct {
	jobID string
	data  []byte
}

// Hub fans job updates out to connected WebSocket clients
type Hub struct {
	clients    map[*client]bool
	broadcast  chan broadcastMessage
	register   chan *client
	unregister chan *client
	done       chan struct{}
	mu         sync.Mutex
}

// NewHub creates a hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan broadcastMessage, broadcastBuffer),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for c := range h.clients {
			delete(h.clients, c)
			close(c.send)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			total := len(h.clients)
			h.mu.Unlock()
			// Taken after registration: any later change reaches the
			// client as a broadcast queued behind this message.
			h.sendInitial(c)
			log.Debug().Str("job_filter", c.jobID).Int("clients", total).Msg("websocket client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			log.Debug().Int("clients", total).Msg("websocket client disconnected")
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				if !c.wants(msg.jobID) {
					continue
				}
				select {
				case c.send <- msg.data:
				default:
					log.Warn().Msg("dropping slow websocket client")
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) sendInitial(c *client) {
	var jobs []model.Job
	if c.snapshot != nil {
		jobs = c.snapshot()
	}
	if jobs == nil {
		jobs = []model.Job{}
	}
	data, err := json.Marshal(initialJobs{Type: MessageInitialJobs, Jobs: jobs})
	if err != nil {
		log.Warn().Err(err).Msg("failed to encode initial jobs")
		return
	}
	// send is empty here: broadcasts are handled on this goroutine
	c.send <- data
}

// Count returns the number of connected clients
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleEvent is an event.Handler that forwards job snapshots to clients.
// It never blocks the publisher; updates are dropped when the hub lags.
func (h *Hub) HandleEvent(_ context.Context, ev event.Event) error {
	msgType := MessageJobUpdate
	if ev.Type == event.EventJobRemoved {
		msgType = MessageJobRemoved
	}
	data, err := json.Marshal(jobUpdate{Type: msgType, Job: ev.Job})
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- broadcastMessage{jobID: ev.Job.ID, data: data}:
	default:
		log.Warn().Str("job_id", ev.Job.ID).Msg("websocket broadcast queue full")
	}
	return nil
}

// Serve registers conn and blocks until the client goes away. The first
// message is snapshot's result, taken once the client is registered.
func (h *Hub) Serve(conn *websocket.Conn, jobID string, snapshot SnapshotFunc) {
	c := &client{
		conn:     conn,
		jobID:    jobID,
		send:     make(chan []byte, clientSendBuffer),
		snapshot: snapshot,
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	c.readPump()

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump drains client frames; clients never send anything meaningful
func (c *client) readPump() {
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

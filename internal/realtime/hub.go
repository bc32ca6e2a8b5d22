// Package realtime pushes live snapshots to browser clients over WebSockets.
// Clients subscribe to topics (display, worklist, doctor, chat, settings) and
// receive the full current snapshot on connect, then a fresh one whenever the
// underlying data changes.
package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/cliniccore/clinic-ops-platform/pkg/logging"
)

// Event is one snapshot frame pushed to subscribers.
type Event struct {
	Topic     string          `json:"topic"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// clientMessage is an inbound subscribe/unsubscribe request.
type clientMessage struct {
	Action string   `json:"action"`
	Topics []string `json:"topics"`
}

type client struct {
	id     string
	topics map[string]struct{}
	send   chan []byte
}

// Hub tracks connected clients and the latest snapshot per topic, so a
// client that connects between changes still renders current state.
type Hub struct {
	mu        sync.RWMutex
	clients   map[string]map[*client]struct{} // topic -> subscribers
	all       map[*client]struct{}
	snapshots map[string][]byte // topic -> last broadcast frame
	logger    *logging.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		clients:   make(map[string]map[*client]struct{}),
		all:       make(map[*client]struct{}),
		snapshots: make(map[string][]byte),
		logger:    logger,
	}
}

// Broadcast marshals payload as the topic's snapshot, stores it for future
// subscribers, and fans it out to current ones. Slow clients are skipped
// rather than blocked on.
func (h *Hub) Broadcast(topic string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("snapshot marshal failed", "topic", topic, "error", err)
		return
	}
	frame, err := json.Marshal(Event{Topic: topic, Timestamp: time.Now().UTC(), Data: data})
	if err != nil {
		h.logger.Error("frame marshal failed", "topic", topic, "error", err)
		return
	}

	h.mu.Lock()
	h.snapshots[topic] = frame
	subscribers := make([]*client, 0, len(h.clients[topic]))
	for c := range h.clients[topic] {
		subscribers = append(subscribers, c)
	}
	h.mu.Unlock()

	for _, c := range subscribers {
		select {
		case c.send <- frame:
		default:
		}
	}
}

// SubscriberCount returns the number of clients on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}

func (h *Hub) register(c *client, topics []string) {
	h.mu.Lock()
	h.all[c] = struct{}{}
	h.mu.Unlock()
	h.subscribe(c, topics)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[c]; !ok {
		return
	}
	for topic := range c.topics {
		if subs, ok := h.clients[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.clients, topic)
			}
		}
	}
	delete(h.all, c)
	close(c.send)
}

// subscribe adds topics and replays their cached snapshots to the client.
func (h *Hub) subscribe(c *client, topics []string) {
	var replay [][]byte

	h.mu.Lock()
	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*client]struct{})
		}
		h.clients[topic][c] = struct{}{}
		c.topics[topic] = struct{}{}
		if frame, ok := h.snapshots[topic]; ok {
			replay = append(replay, frame)
		}
	}
	h.mu.Unlock()

	for _, frame := range replay {
		select {
		case c.send <- frame:
		default:
		}
	}
}

func (h *Hub) unsubscribe(c *client, topics []string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if subs, ok := h.clients[topic]; ok {
			delete(subs, c)
			if len(subs) == 0 {
				delete(h.clients, topic)
			}
		}
		delete(c.topics, topic)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pingPeriod = 54 * time.Second
	pongWait   = 60 * time.Second
)

// ServeWS upgrades the connection and starts the client's pumps. Initial
// topics come from the repeated "topic" query parameter; clients may also
// adjust subscriptions with {"action":"subscribe","topics":[...]} frames.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		id:     uuid.NewString(),
		topics: make(map[string]struct{}),
		send:   make(chan []byte, 64),
	}
	h.register(c, r.URL.Query()["topic"])

	go h.writePump(c, conn)
	go h.readPump(c, conn)
}

func (h *Hub) readPump(c *client, conn *websocket.Conn) {
	defer func() {
		h.unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg clientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Action {
		case "subscribe":
			h.subscribe(c, msg.Topics)
		case "unsubscribe":
			h.unsubscribe(c, msg.Topics)
		}
	}
}

func (h *Hub) writePump(c *client, conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

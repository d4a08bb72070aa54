package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"fork-your-story/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendBufferSize = 256
)

// Hub управляет WebSocket-соединениями и рассылает сообщения по темам.
type Hub struct {
	clients    map[uuid.UUID]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Message
	done       chan struct{}
	mu         sync.RWMutex

	upgrader      websocket.Upgrader
	defaultTopics []string
	logger        *zap.Logger
}

// Client - одно WebSocket-соединение.
type Client struct {
	ID     uuid.UUID
	UserID string
	Conn   *websocket.Conn
	hub    *Hub
	send   chan []byte

	topicsMu sync.RWMutex
	topics   map[string]bool
}

// Message - сообщение для клиента.
type Message struct {
	Type    string      `json:"type"`
	Topic   string      `json:"topic"`
	Payload interface{} `json:"payload"`
	Target  string      `json:"target,omitempty"` // ID пользователя или "broadcast"
}

// Config - настройки хаба.
type Config struct {
	AllowedOrigins []string // "*" разрешает любой источник
	DefaultTopics  []string // темы, на которые клиент подписан сразу
}

// NewHub создает хаб. Запуск через Run.
func NewHub(cfg Config, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:       make(map[uuid.UUID]*Client),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		broadcast:     make(chan Message, 64),
		done:          make(chan struct{}),
		defaultTopics: cfg.DefaultTopics,
		logger:        logger.Named("WebSocketHub"),
	}
	allowed := cfg.AllowedOrigins
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return originAllowed(r.Header.Get("Origin"), allowed)
		},
	}
	return h
}

func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, o := range allowed {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// Run обрабатывает регистрацию и рассылку до отмены ctx. При остановке закрывает все соединения.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				close(client.send)
				delete(h.clients, id)
			}
			h.mu.Unlock()
			h.logger.Info("WebSocket hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			h.logger.Debug("Client connected", zap.String("client_id", client.ID.String()), zap.String("user_id", client.UserID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				close(client.send)
				delete(h.clients, client.ID)
				h.logger.Debug("Client disconnected", zap.String("client_id", client.ID.String()))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.dispatch(message)
		}
	}
}

func (h *Hub) dispatch(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error("Failed to marshal message", zap.String("type", message.Type), zap.Error(err))
		return
	}
	direct := message.Target != "" && message.Target != "broadcast"

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		if direct && client.UserID != message.Target {
			continue
		}
		if !client.IsSubscribed(message.Topic) {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Медленный клиент отключается.
			close(client.send)
			delete(h.clients, id)
			h.logger.Warn("Dropping slow client", zap.String("client_id", id.String()))
		}
	}
}

// ClientCount - число подключенных клиентов.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS апгрейдит соединение. Пользователь берется из токена, если он есть;
// дополнительные темы передаются параметрами ?topic=.
func (h *Hub) ServeWS(c *gin.Context) {
	var userID string
	if id, ok := middleware.UserIDFromContext(c); ok {
		userID = id.String()
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		ID:     uuid.New(),
		UserID: userID,
		Conn:   conn,
		hub:    h,
		send:   make(chan []byte, sendBufferSize),
		topics: make(map[string]bool),
	}
	for _, t := range h.defaultTopics {
		client.Subscribe(t)
	}
	for _, t := range c.QueryArray("topic") {
		if t != "" {
			client.Subscribe(t)
		}
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// SendToUser отправляет сообщение конкретному пользователю.
func (h *Hub) SendToUser(userID, messageType, topic string, payload interface{}) {
	h.enqueue(Message{Type: messageType, Topic: topic, Payload: payload, Target: userID})
}

// Broadcast отправляет сообщение всем клиентам, подписанным на тему.
func (h *Hub) Broadcast(messageType, topic string, payload interface{}) {
	h.enqueue(Message{Type: messageType, Topic: topic, Payload: payload, Target: "broadcast"})
}

func (h *Hub) enqueue(m Message) {
	select {
	case h.broadcast <- m:
	case <-h.done:
	}
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("WebSocket read error", zap.String("client_id", c.ID.String()), zap.Error(err))
			}
			return
		}

		var cmd struct {
			Action string `json:"action"`
			Topic  string `json:"topic"`
		}
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Debug("Invalid client command", zap.String("client_id", c.ID.String()), zap.Error(err))
			continue
		}

		switch cmd.Action {
		case "subscribe":
			c.Subscribe(cmd.Topic)
		case "unsubscribe":
			c.Unsubscribe(cmd.Topic)
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Одно сообщение на фрейм: клиенты разбирают каждый фрейм как JSON.
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Subscribe подписывает клиента на тему.
func (c *Client) Subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = true
	c.topicsMu.Unlock()
}

// Unsubscribe отписывает клиента от темы.
func (c *Client) Unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

// IsSubscribed проверяет подписку на тему.
func (c *Client) IsSubscribed(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	return c.topics[topic]
}

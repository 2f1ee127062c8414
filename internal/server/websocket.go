package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	wsWriteTimeout = 5 * time.Second
	wsReadLimit    = 64 * 1024
)

type wsClient struct {
	id     string
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func newWSClient(id string, conn *websocket.Conn) *wsClient {
	return &wsClient{id: id, conn: conn}
}

func (c *wsClient) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}

// wsHub tracks live sockets and the game room each one listens to.
type wsHub struct {
	mu      sync.Mutex
	clients map[string]*wsClient
	rooms   map[string]map[string]*wsClient
}

func newWSHub() *wsHub {
	return &wsHub{
		clients: make(map[string]*wsClient),
		rooms:   make(map[string]map[string]*wsClient),
	}
}

func (h *wsHub) Add(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client.id] = client
}

// Remove forgets a client, drops it from every room and closes the socket.
func (h *wsHub) Remove(clientID string) {
	h.mu.Lock()
	client := h.clients[clientID]
	delete(h.clients, clientID)
	for gameID, room := range h.rooms {
		delete(room, clientID)
		if len(room) == 0 {
			delete(h.rooms, gameID)
		}
	}
	h.mu.Unlock()
	if client != nil {
		client.close()
	}
}

func (h *wsHub) Join(gameID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	client := h.clients[clientID]
	if client == nil {
		return
	}
	room := h.rooms[gameID]
	if room == nil {
		room = make(map[string]*wsClient)
		h.rooms[gameID] = room
	}
	room[clientID] = client
}

func (h *wsHub) Leave(gameID, clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[gameID]
	if room == nil {
		return
	}
	delete(room, clientID)
	if len(room) == 0 {
		delete(h.rooms, gameID)
	}
}

// CloseRoom drops a room without closing the sockets in it.
func (h *wsHub) CloseRoom(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, gameID)
}

func (h *wsHub) RoomSize(gameID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[gameID])
}

func (h *wsHub) Send(clientID, eventType string, data any) {
	h.mu.Lock()
	client := h.clients[clientID]
	h.mu.Unlock()
	if client == nil {
		return
	}
	payload, err := json.Marshal(wsEvent{Type: eventType, Data: data})
	if err != nil {
		log.Printf("ws encode failed event=%s error=%v", eventType, err)
		return
	}
	if err := client.write(payload); err != nil {
		h.Remove(clientID)
	}
}

// Broadcast sends an event to every client in the room except skipID.
func (h *wsHub) Broadcast(gameID, eventType string, data any, skipID string) {
	h.mu.Lock()
	room := h.rooms[gameID]
	clients := make([]*wsClient, 0, len(room))
	for id, client := range room {
		if id != skipID {
			clients = append(clients, client)
		}
	}
	h.mu.Unlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(wsEvent{Type: eventType, Data: data})
	if err != nil {
		log.Printf("ws encode failed event=%s error=%v", eventType, err)
		return
	}
	for _, client := range clients {
		if err := client.write(payload); err != nil {
			h.Remove(client.id)
		}
	}
}

func (s *Server) handleWebsocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	conn.SetReadLimit(wsReadLimit)
	client := newWSClient(uuid.NewString(), conn)
	s.ws.Add(client)
	log.Printf("ws connected conn_id=%s remote=%s", client.id, c.Request.RemoteAddr)
	go s.readWS(client)
}

func (s *Server) readWS(client *wsClient) {
	defer s.disconnect(client)
	for {
		_, data, err := client.conn.ReadMessage()
		if err != nil {
			log.Printf("ws disconnected conn_id=%s error=%v", client.id, err)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type == "" {
			s.sendError(client.id, "Invalid message.")
			continue
		}
		s.dispatch(client, msg)
	}
}

func (s *Server) disconnect(client *wsClient) {
	s.leave(client.id)
	s.ws.Remove(client.id)
}

func (s *Server) sendError(clientID, message string) {
	s.ws.Send(clientID, eventError, messageEvent{Message: message})
}

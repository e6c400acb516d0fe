package server

import (
	"encoding/json"
	"net/http"

	"pair-analysis/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *ReportServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.stateMutex.Lock()
			s.clients[client] = struct{}{}
			initial := s.snapshotLocked()
			s.stateMutex.Unlock()
			client.send <- initial

		case client := <-s.unregister:
			s.stateMutex.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()

		case message := <-s.broadcast:
			s.stateMutex.Lock()
			for client := range s.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumers are dropped so the hub never blocks
					delete(s.clients, client)
					close(client.send)
				}
			}
			s.stateMutex.Unlock()

		case <-s.quit:
			s.stateMutex.Lock()
			for client := range s.clients {
				delete(s.clients, client)
				close(client.send)
			}
			s.stateMutex.Unlock()
			return
		}
	}
}

// -----------------------------------------------------------------------------
// Run Observer Implementation
// -----------------------------------------------------------------------------

// OnRunEvent records the event and queues it for every connected client.
func (s *ReportServer) OnRunEvent(event models.MRunEvent) {
	s.stateMutex.Lock()
	e := event
	s.latestEvent = &e
	s.stateMutex.Unlock()

	s.push(&models.MServerMessage{Type: "EVENT", Event: &e})
}

// push queues a message without blocking the pipeline.
func (s *ReportServer) push(message *models.MServerMessage) {
	select {
	case s.broadcast <- message:
	default:
		s.Logger.Warning("Broadcast queue full, dropping %s message", message.Type)
	}
}

// snapshotLocked builds the INITIAL message. Caller holds stateMutex.
func (s *ReportServer) snapshotLocked() *models.MServerMessage {
	return &models.MServerMessage{
		Type:   "INITIAL",
		Event:  s.latestEvent,
		Report: s.latestReport,
	}
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *ReportServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		send: make(chan *models.MServerMessage, 256),
	}

	select {
	case s.register <- client:
	case <-s.quit:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

// HandleClientMessage answers {"command": "latest"} with the current state.
func (s *ReportServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MClientCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "latest" {
		return
	}

	// The hub closes send under the write lock, so holding the read lock
	// keeps the channel open while we use it.
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()
	if _, ok := s.clients[client]; !ok {
		return
	}
	select {
	case client.send <- s.snapshotLocked():
	default:
	}
}

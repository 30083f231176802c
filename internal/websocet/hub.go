package websocket

// PROPRIETARY AND CONFIDENTIAL
// This code contains trade secrets and confidential material of Finimen Sniper / FSC.
// Any unauthorized use, disclosure, or duplication is strictly prohibited.
// © 2025 Finimen Sniper / FSC. All rights reserved.

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

// Client is one live connection. The feed is push-only: the read side exists
// to notice the peer going away.
type Client struct {
	Hub      *Hub
	Conn     *websocket.Conn
	Send     chan []byte
	ClientID string
}

// Hub fans room and private message events out to connected clients. It
// implements ports.IEventSink so the services never see the websocket types.
type Hub struct {
	Clients    map[string]*Client
	Register   chan *Client
	Unregister chan *Client
	Mutex      sync.RWMutex
	Logger     *slog.Logger
	Connected  prometheus.Gauge // may be nil
}

func NewHub(logger *slog.Logger, connected prometheus.Gauge) *Hub {
	return &Hub{
		Clients:    make(map[string]*Client),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Logger:     logger,
		Connected:  connected,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Mutex.Lock()
			// a reconnect replaces the previous connection for the same id
			if old, ok := h.Clients[client.ClientID]; ok {
				close(old.Send)
			}
			h.Clients[client.ClientID] = client
			h.Mutex.Unlock()
			if h.Connected != nil {
				h.Connected.Inc()
			}
			h.Logger.Info("client connected to live feed", "clientID", client.ClientID)

		case client := <-h.Unregister:
			h.Mutex.Lock()
			if current, ok := h.Clients[client.ClientID]; ok && current == client {
				delete(h.Clients, client.ClientID)
				close(client.Send)
			}
			h.Mutex.Unlock()
			if h.Connected != nil {
				h.Connected.Dec()
			}
			h.Logger.Info("client left live feed", "clientID", client.ClientID)
		}
	}
}

// PublishToClient delivers an event to one connected client. A client that is
// not connected, or whose send buffer is full, is silently skipped: the data
// is already in the store and can be fetched over HTTP.
func (h *Hub) PublishToClient(clientID string, event map[string]interface{}) {
	data, err := json.Marshal(event)
	if err != nil {
		h.Logger.Error("failed to marshal event", "error", err)
		return
	}

	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	client, ok := h.Clients[clientID]
	if !ok {
		h.Logger.Debug("client not connected", "clientID", clientID)
		return
	}

	select {
	case client.Send <- data:
		h.Logger.Debug("event sent", "clientID", clientID, "type", event["type"])
	default:
		h.Logger.Warn("client channel full, dropping event", "clientID", clientID)
	}
}

func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.Logger.Error("websocket error", "error", err)
			}
			break
		}
		// inbound frames are ignored, commands go over HTTP
	}
}

func (c *Client) WritePump() {
	defer func() {
		c.Conn.Close()
	}()

	for message := range c.Send {
		w, err := c.Conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}

		w.Write(message)

		if err := w.Close(); err != nil {
			return
		}
	}

	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

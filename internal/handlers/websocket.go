package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Nick-Maro/DockerChat/internal/services"
	internalWebsocket "github.com/Nick-Maro/DockerChat/internal/websocet"

	libWebsocket "github.com/gorilla/websocket"

	"github.com/gin-gonic/gin"
)

type WebsocetHandler struct {
	Hub      *internalWebsocket.Hub
	Sessions *services.SessionService
	Logger   *slog.Logger
}

func NewWebSocketHandler(hub *internalWebsocket.Hub, sessions *services.SessionService, logger *slog.Logger) *WebsocetHandler {
	return &WebsocetHandler{
		Hub:      hub,
		Sessions: sessions,
		Logger:   logger,
	}
}

// HandleWebSocket upgrades GET /ws?client_id= into the live event feed.
// Only registered clients may attach.
func (h *WebsocetHandler) HandleWebSocket(c *gin.Context) {
	clientID := c.Query("client_id")
	if clientID == "" || !h.Sessions.Known(clientID) {
		h.Logger.Warn("websocket attach refused for unknown client", "clientID", clientID)
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrUnregisteredClient.Error()})
		return
	}

	upgrader := libWebsocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.Logger.Error("websocket upgrade failed", "error", err)
		return
	}

	client := &internalWebsocket.Client{
		Hub:      h.Hub,
		Conn:     conn,
		Send:     make(chan []byte, 256),
		ClientID: clientID,
	}

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.Logger.Info("websocket connection established", "clientID", clientID)
}

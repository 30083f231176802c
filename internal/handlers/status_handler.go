package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Nick-Maro/DockerChat/internal/services"

	"github.com/gin-gonic/gin"
)

type StatusHandler struct {
	dispatcher *services.Dispatcher
	logger     *slog.Logger
}

func NewStatusHandler(dispatcher *services.Dispatcher, logger *slog.Logger) *StatusHandler {
	return &StatusHandler{dispatcher: dispatcher, logger: logger}
}

// HandleStatus is GET /status. It sweeps like any command, so the counts it
// reports never include already-expired entities.
func (h *StatusHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.dispatcher.Status())
}

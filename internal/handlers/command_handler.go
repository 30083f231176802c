package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Nick-Maro/DockerChat/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type CommandHandler struct {
	dispatcher *services.Dispatcher
	logger     *slog.Logger
	commands   *prometheus.CounterVec // labeled by verb and outcome, may be nil
}

func NewCommandHandler(dispatcher *services.Dispatcher, logger *slog.Logger, commands *prometheus.CounterVec) *CommandHandler {
	return &CommandHandler{dispatcher: dispatcher, logger: logger, commands: commands}
}

// HandleCommand is POST /command. Domain failures map to 400 with a plain
// error string; everything else is the dispatcher's payload as-is.
func (h *CommandHandler) HandleCommand(c *gin.Context) {
	var env services.Envelope
	if err := c.ShouldBindJSON(&env); err != nil || env.Command == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'command' in JSON"})
		return
	}

	payload, err := h.dispatcher.Dispatch(env)
	if err != nil {
		h.count(env.Command, "error")
		h.logger.Warn("command failed", "command", env.Command, "clientID", env.ClientID, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.count(env.Command, "ok")
	c.JSON(http.StatusOK, payload)
}

func (h *CommandHandler) count(raw, outcome string) {
	if h.commands != nil {
		h.commands.WithLabelValues(services.Verb(raw), outcome).Inc()
	}
}

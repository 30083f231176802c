package handlers_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/Nick-Maro/DockerChat/app/config"
	"github.com/Nick-Maro/DockerChat/app/tests"
	"github.com/Nick-Maro/DockerChat/internal/handlers"
	"github.com/Nick-Maro/DockerChat/internal/repositories"
	"github.com/Nick-Maro/DockerChat/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := slog.Default()

	ttl := config.TTLConfig{
		Client:  3600 * time.Second,
		Room:    7200 * time.Second,
		Message: 86400 * time.Second,
	}

	store := repositories.NewEntityStore(nil, logger, nil)
	sweeper := services.NewSweeperService(store, ttl, logger, nil)
	sessions := services.NewSessionService(store, ttl, logger)
	rooms := services.NewRoomService(store, logger)
	mailbox := services.NewMailboxService(store, logger)
	dispatcher := services.NewDispatcher(store, sweeper, sessions, rooms, mailbox, ttl, logger)

	commandHandler := handlers.NewCommandHandler(dispatcher, logger, nil)
	statusHandler := handlers.NewStatusHandler(dispatcher, logger)

	eng := gin.New()
	eng.POST("/command", commandHandler.HandleCommand)
	eng.GET("/status", statusHandler.HandleStatus)
	return eng
}

func postCommand(t *testing.T, eng *gin.Engine, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	req := tests.CreateTestRequest("/command", http.MethodPost, body)
	rr := tests.ExecuteHandler(eng, req)

	var payload map[string]interface{}
	err := json.Unmarshal(rr.Body.Bytes(), &payload)
	assert.NoError(t, err)

	return rr.Code, payload
}

func TestCommandHandler_MissingCommand(t *testing.T) {
	eng := newTestRouter()

	code, payload := postCommand(t, eng, map[string]string{"client_id": "a1"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Missing 'command' in JSON", payload["error"])
}

func TestCommandHandler_InvalidBody(t *testing.T) {
	eng := newTestRouter()

	req := tests.CreateTestRequest("/command", http.MethodPost, nil)
	rr := tests.ExecuteHandler(eng, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCommandHandler_DomainErrorsAreBadRequests(t *testing.T) {
	eng := newTestRouter()

	code, payload := postCommand(t, eng, map[string]string{"command": "heartbeat", "client_id": "ghost"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "unregistered client", payload["error"])
}

func TestCommandHandler_UnknownVerbIsOK(t *testing.T) {
	eng := newTestRouter()

	code, payload := postCommand(t, eng, map[string]string{"command": "dance"})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Unknown command", payload["message"])
	assert.NotEmpty(t, payload["available_commands"])
}

func TestCommandHandler_EndToEndScenario(t *testing.T) {
	eng := newTestRouter()

	code, payload := postCommand(t, eng, map[string]string{"command": "upload_public_key", "public_key": "key-a"})
	assert.Equal(t, http.StatusOK, code)
	a1 := payload["client_id"].(string)
	assert.NotEmpty(t, a1)

	code, payload = postCommand(t, eng, map[string]string{"command": "join_room:lobby", "client_id": a1})
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, float64(1), payload["clients_in_room"])

	code, _ = postCommand(t, eng, map[string]string{"command": "send_message:hi", "client_id": a1, "signature": "sig"})
	assert.Equal(t, http.StatusOK, code)

	code, payload = postCommand(t, eng, map[string]string{"command": "upload_public_key", "public_key": "key-b"})
	assert.Equal(t, http.StatusOK, code)
	b1 := payload["client_id"].(string)

	code, _ = postCommand(t, eng, map[string]string{"command": "join_room:lobby", "client_id": b1})
	assert.Equal(t, http.StatusOK, code)

	code, payload = postCommand(t, eng, map[string]string{"command": "get_messages", "client_id": b1})
	assert.Equal(t, http.StatusOK, code)

	messages := payload["messages"].([]interface{})
	assert.Len(t, messages, 1)
	first := messages[0].(map[string]interface{})
	assert.Equal(t, a1, first["from_client"])
	assert.Equal(t, "hi", first["text"])
	assert.Equal(t, "sig", first["signature"])
}

func TestStatusHandler_Report(t *testing.T) {
	eng := newTestRouter()

	_, payload := postCommand(t, eng, map[string]string{"command": "upload_public_key", "public_key": "key-a"})
	a1 := payload["client_id"].(string)
	postCommand(t, eng, map[string]string{"command": "join_room:lobby", "client_id": a1})

	req := tests.CreateTestRequest("/status", http.MethodGet, nil)
	rr := tests.ExecuteHandler(eng, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var status map[string]interface{}
	assert.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))

	assert.Equal(t, float64(1), status["total_clients"])
	assert.Equal(t, float64(1), status["online_clients"])
	assert.Equal(t, float64(1), status["total_rooms"])
	assert.Equal(t, false, status["shared_tier_available"])

	ttlConfig := status["ttl_config"].(map[string]interface{})
	assert.Equal(t, float64(3600), ttlConfig["client_ttl_seconds"])
}
